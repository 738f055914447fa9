package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"floorplan/internal/editor"
	"floorplan/internal/layouts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient(t *testing.T) {
	var lastBody map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/layouts", func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &lastBody)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"message":"Layout saved","id":"abc"}`))
	})
	mux.HandleFunc("GET /api/layouts", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`[{"id":"abc","name":"plan","createdAt":"2025-02-21T12:00:00Z"}]`))
	})
	mux.HandleFunc("GET /api/layouts/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("id") {
		case "abc":
			_, _ = w.Write([]byte(`{"id":"abc","name":"plan","createdAt":"2025-02-21T12:00:00Z",
				"data":{"nodes":[{"id":"rect1","type":"room","x":0,"y":0,"width":100,"height":50}],"edges":[]}}`))
		case "broken":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"Failed to fetch layout"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"Layout not found"}`))
		}
	})
	mux.HandleFunc("DELETE /api/layouts/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := New(srv.URL+"/", time.Second)
	ctx := context.Background()

	t.Run("create sends name and data", func(t *testing.T) {
		id, err := c.Create(ctx, "plan", editor.Graph{
			Nodes: []editor.Node{{ID: "rect1", Type: editor.Room, Width: 100, Height: 50}},
			Edges: []editor.Edge{},
		})
		require.NoError(t, err)
		assert.Equal(t, "abc", id)
		assert.Equal(t, "plan", lastBody["name"])
		assert.Contains(t, lastBody["data"], "nodes")
	})

	t.Run("list", func(t *testing.T) {
		items, err := c.List(ctx, 5)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "plan", items[0].Name)
	})

	t.Run("fetch", func(t *testing.T) {
		l, err := c.Fetch(ctx, "abc")
		require.NoError(t, err)
		require.Len(t, l.Data.Nodes, 1)
		assert.Equal(t, editor.Room, l.Data.Nodes[0].Type)
	})

	t.Run("fetch missing maps to ErrNotFound", func(t *testing.T) {
		_, err := c.Fetch(ctx, "nope")
		assert.ErrorIs(t, err, layouts.ErrNotFound)
	})

	t.Run("server error carries message", func(t *testing.T) {
		_, err := c.Fetch(ctx, "broken")
		var upstream *UpstreamError
		require.True(t, errors.As(err, &upstream))
		assert.Equal(t, http.StatusInternalServerError, upstream.Status)
		assert.Equal(t, "Failed to fetch layout", upstream.Message)
	})

	t.Run("delete", func(t *testing.T) {
		assert.NoError(t, c.Delete(ctx, "abc"))
	})
}

func TestClientUnreachable(t *testing.T) {
	c := New("http://127.0.0.1:1", 200*time.Millisecond)

	_, err := c.List(context.Background(), 0)
	require.Error(t, err)
	assert.NotErrorIs(t, err, layouts.ErrNotFound)
}
