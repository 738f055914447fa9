package editor

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fixedRand всегда возвращает максимальное значение.
type fixedRand struct{ top bool }

func (r fixedRand) IntN(n int) int {
	if r.top {
		return n - 1
	}
	return 0
}

func TestSnapToGrid(t *testing.T) {
	cases := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{3, 0},
		{9.9, 0},
		{10, 20},
		{29, 20},
		{31, 40},
		{-9, 0},
		{-11, -20},
		{100, 100},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, SnapToGrid(c.in, 20), "snap(%v)", c.in)
	}
}

func TestClampedRandomGridPosition(t *testing.T) {
	t.Run("upper bound keeps shape inside canvas", func(t *testing.T) {
		// 600-50 = 550 is not a multiple of 20, highest slot is 540
		got := ClampedRandomGridPosition(600, 50, 20, fixedRand{top: true})
		assert.Equal(t, 540, got)

		got = ClampedRandomGridPosition(800, 100, 20, fixedRand{top: true})
		assert.Equal(t, 700, got)
	})

	t.Run("lower bound is zero", func(t *testing.T) {
		assert.Equal(t, 0, ClampedRandomGridPosition(800, 100, 20, fixedRand{}))
	})

	t.Run("shape larger than canvas", func(t *testing.T) {
		assert.Equal(t, 0, ClampedRandomGridPosition(40, 100, 20, fixedRand{top: true}))
	})

	t.Run("seeded source is reproducible", func(t *testing.T) {
		a := rand.New(rand.NewPCG(1, 2))
		b := rand.New(rand.NewPCG(1, 2))
		for range 50 {
			x := ClampedRandomGridPosition(800, 100, 20, a)
			assert.Equal(t, x, ClampedRandomGridPosition(800, 100, 20, b))
			assert.Zero(t, x%20)
			assert.GreaterOrEqual(t, x, 0)
			assert.LessOrEqual(t, x, 700)
		}
	})
}

func TestParseShapeID(t *testing.T) {
	n, ok := ParseShapeID("rect12")
	assert.True(t, ok)
	assert.Equal(t, 12, n)

	for _, id := range []string{"rect", "room1", "rectX", "", "rect-3"} {
		_, ok := ParseShapeID(id)
		assert.False(t, ok, id)
	}

	assert.Equal(t, "rect7", ShapeID(7))
}
