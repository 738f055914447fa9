package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"floorplan/internal/editor"
	"floorplan/internal/layouts"
	"floorplan/internal/layouts/repository"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const validBody = `{
	"name": "ground floor",
	"data": {
		"nodes": [
			{"id": "rect1", "type": "room", "x": 0, "y": 0, "width": 100, "height": 50},
			{"id": "rect2", "type": "hallway", "x": 100, "y": 0, "width": 50, "height": 100}
		],
		"edges": [{"from": "rect1", "to": "rect2"}]
	}
}`

func newTestApp(t *testing.T, repo layouts.Repository) *fiber.App {
	t.Helper()
	app := fiber.New()
	NewLayoutHandler(repo, zap.NewNop()).Register(app)
	return app
}

func sqliteRepo(t *testing.T) layouts.Repository {
	t.Helper()
	db, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "layouts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.NewSQLite(db)
	require.NoError(t, repo.Init(context.Background(), nil))
	return repo
}

func do(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestCreateLayout(t *testing.T) {
	t.Run("returns 201 with id", func(t *testing.T) {
		app := newTestApp(t, sqliteRepo(t))

		resp, body := do(t, app, http.MethodPost, "/api/layouts", validBody)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var out createResponse
		require.NoError(t, json.Unmarshal(body, &out))
		assert.Equal(t, "Layout saved", out.Message)
		assert.NotEmpty(t, out.ID)
	})

	t.Run("rejects invalid payloads", func(t *testing.T) {
		app := newTestApp(t, sqliteRepo(t))

		cases := map[string]string{
			"empty body":    "",
			"invalid json":  "{",
			"blank name":    `{"name": "  ", "data": {"nodes": [{"id": "rect1", "type": "room"}]}}`,
			"missing data":  `{"name": "x"}`,
			"missing nodes": `{"name": "x", "data": {}}`,
			"empty nodes":   `{"name": "x", "data": {"nodes": []}}`,
		}
		for name, body := range cases {
			t.Run(name, func(t *testing.T) {
				resp, _ := do(t, app, http.MethodPost, "/api/layouts", body)
				assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			})
		}
	})

	t.Run("repository failure is 500", func(t *testing.T) {
		app := newTestApp(t, failingRepo{})

		resp, body := do(t, app, http.MethodPost, "/api/layouts", validBody)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Contains(t, string(body), "Failed to save layout")
	})
}

func TestListAndGetLayouts(t *testing.T) {
	app := newTestApp(t, sqliteRepo(t))

	var ids []string
	for range 3 {
		_, body := do(t, app, http.MethodPost, "/api/layouts", validBody)
		var out createResponse
		require.NoError(t, json.Unmarshal(body, &out))
		ids = append(ids, out.ID)
	}

	t.Run("list respects limit", func(t *testing.T) {
		resp, body := do(t, app, http.MethodGet, "/api/layouts?limit=2", "")

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var items []layouts.Summary
		require.NoError(t, json.Unmarshal(body, &items))
		assert.Len(t, items, 2)
	})

	t.Run("invalid limit", func(t *testing.T) {
		resp, _ := do(t, app, http.MethodGet, "/api/layouts?limit=abc", "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("get by id", func(t *testing.T) {
		resp, body := do(t, app, http.MethodGet, "/api/layouts/"+ids[0], "")

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var l layouts.Layout
		require.NoError(t, json.Unmarshal(body, &l))
		assert.Equal(t, ids[0], l.ID)
		assert.Equal(t, "ground floor", l.Name)
		assert.Len(t, l.Data.Nodes, 2)
		assert.Len(t, l.Data.Edges, 1)
		assert.False(t, l.CreatedAt.IsZero())
	})

	t.Run("get missing is 404", func(t *testing.T) {
		resp, body := do(t, app, http.MethodGet, "/api/layouts/nope", "")

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Contains(t, string(body), "Layout not found")
	})

	t.Run("delete", func(t *testing.T) {
		resp, _ := do(t, app, http.MethodDelete, "/api/layouts/"+ids[1], "")
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp, _ = do(t, app, http.MethodDelete, "/api/layouts/"+ids[1], "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestListEmptyIsArray(t *testing.T) {
	app := newTestApp(t, sqliteRepo(t))

	_, body := do(t, app, http.MethodGet, "/api/layouts", "")

	assert.JSONEq(t, `[]`, string(body))
}

// ============================================================
// Fakes
// ============================================================

type failingRepo struct{ layouts.Repository }

var errBoom = errors.New("boom")

func (failingRepo) Create(context.Context, string, editor.Graph) (*layouts.Layout, error) {
	return nil, errBoom
}
