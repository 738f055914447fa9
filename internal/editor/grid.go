package editor

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ============================================================
// Grid
// ============================================================

const DefaultGridUnit = 20

// Rand - источник случайных чисел для размещения фигур.
// *rand.Rand из math/rand/v2 удовлетворяет интерфейсу.
type Rand interface {
	IntN(n int) int
}

// SnapToGrid округляет значение до ближайшего кратного unit (половины вверх).
func SnapToGrid(v float64, unit int) int {
	u := float64(unit)
	return int(math.Floor(v/u+0.5)) * unit
}

// ClampedRandomGridPosition выбирает случайную координату, кратную unit,
// так чтобы фигура размера size целиком помещалась в [0, extent].
func ClampedRandomGridPosition(extent, size, unit int, rng Rand) int {
	if extent <= size || unit <= 0 {
		return 0
	}
	steps := (extent - size) / unit
	return rng.IntN(steps+1) * unit
}

// ============================================================
// Identity
// ============================================================

const shapeIDPrefix = "rect"

func ShapeID(n int) string {
	return fmt.Sprintf("%s%d", shapeIDPrefix, n)
}

// ParseShapeID возвращает числовой суффикс id вида rect<N>.
func ParseShapeID(id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, shapeIDPrefix)
	if !ok || rest == "" {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
