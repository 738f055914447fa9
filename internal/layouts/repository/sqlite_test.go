package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"floorplan/internal/editor"
	"floorplan/internal/layouts"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGraph() editor.Graph {
	return editor.Graph{
		Nodes: []editor.Node{
			{ID: "rect1", Type: editor.Room, X: 0, Y: 0, Width: 100, Height: 50},
			{ID: "rect2", Type: editor.Hallway, X: 100, Y: 0, Width: 50, Height: 100},
		},
		Edges: []editor.Edge{{From: "rect1", To: "rect2"}},
	}
}

// steppingClock выдаёт строго возрастающее время.
func steppingClock() func() time.Time {
	t := time.Date(2025, 2, 21, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "layouts_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewSQLite(db).WithClock(steppingClock())
	require.NoError(t, repo.Init(context.Background(), nil))
	return repo
}

func TestSQLiteCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newTestSQLite(t)

	created, err := repo.Create(ctx, "first floor", sampleGraph())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, "first floor", got.Name)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
	if diff := cmp.Diff(sampleGraph(), got.Data); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteGetMissing(t *testing.T) {
	repo := newTestSQLite(t)

	_, err := repo.Get(context.Background(), "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, layouts.ErrNotFound)
}

func TestSQLiteListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := newTestSQLite(t)

	var ids []string
	for _, name := range []string{"a", "b", "c"} {
		l, err := repo.Create(ctx, name, sampleGraph())
		require.NoError(t, err)
		ids = append(ids, l.ID)
	}

	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{all[0].Name, all[1].Name, all[2].Name})
	assert.Equal(t, ids[2], all[0].ID)

	top, err := repo.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, top, 2)
}

func TestSQLiteListEmpty(t *testing.T) {
	all, err := newTestSQLite(t).List(context.Background(), 5)

	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestSQLiteDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestSQLite(t)

	l, err := repo.Create(ctx, "tmp", sampleGraph())
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, l.ID))
	assert.ErrorIs(t, repo.Delete(ctx, l.ID), layouts.ErrNotFound)

	_, err = repo.Get(ctx, l.ID)
	assert.ErrorIs(t, err, layouts.ErrNotFound)
}

func TestSQLiteNilEdgesStoredAsEmpty(t *testing.T) {
	ctx := context.Background()
	repo := newTestSQLite(t)

	g := sampleGraph()
	g.Edges = nil
	l, err := repo.Create(ctx, "no edges", g)
	require.NoError(t, err)

	got, err := repo.Get(ctx, l.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.Data.Edges)
	assert.Empty(t, got.Data.Edges)
}

func TestSQLiteInitIsIdempotent(t *testing.T) {
	repo := newTestSQLite(t)

	require.NoError(t, repo.Init(context.Background(), nil))
	require.NoError(t, repo.Ping(context.Background()))
}
