package proxy

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type echo struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Query       string `json:"query"`
	ContentType string `json:"contentType"`
	Body        string `json:"body"`
	File        string `json:"file"`
	Field       string `json:"field"`
}

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out := echo{
			Method:      r.Method,
			Path:        r.URL.Path,
			Query:       r.URL.RawQuery,
			ContentType: r.Header.Get("Content-Type"),
		}
		if strings.HasPrefix(out.ContentType, "multipart/form-data") {
			if err := r.ParseMultipartForm(1 << 20); err == nil {
				if f, _, err := r.FormFile("file"); err == nil {
					data, _ := io.ReadAll(f)
					out.File = string(data)
					f.Close()
				}
				out.Field = r.FormValue("note")
			}
		} else {
			data, _ := io.ReadAll(r.Body)
			out.Body = string(data)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Upstream", "yes")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(out)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newGateway(upstream string) *fiber.App {
	p := New(time.Second, zap.NewNop())
	app := fiber.New()
	api := app.Group("/api/v1")
	p.Mount(api, "/layouts", upstream+"/api/layouts")
	api.Post("/render", p.To(upstream+"/api/render"))
	return app
}

func call(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, echo) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	var out echo
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if resp.StatusCode == http.StatusAccepted {
		require.NoError(t, json.Unmarshal(data, &out))
	}
	return resp, out
}

func TestMount(t *testing.T) {
	srv := newUpstream(t)
	app := newGateway(srv.URL)

	t.Run("prefix root with query", func(t *testing.T) {
		resp, out := call(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/layouts?limit=5", nil))
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)
		assert.Equal(t, "yes", resp.Header.Get("X-Upstream"))
		assert.Equal(t, http.MethodGet, out.Method)
		assert.Equal(t, "/api/layouts", out.Path)
		assert.Equal(t, "limit=5", out.Query)
	})

	t.Run("nested path and body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/layouts/abc", strings.NewReader(`{"x":1}`))
		req.Header.Set("Content-Type", "application/json")

		_, out := call(t, app, req)
		assert.Equal(t, http.MethodDelete, out.Method)
		assert.Equal(t, "/api/layouts/abc", out.Path)
		assert.Equal(t, "application/json", out.ContentType)
		assert.Equal(t, `{"x":1}`, out.Body)
	})
}

func TestTo(t *testing.T) {
	srv := newUpstream(t)
	app := newGateway(srv.URL)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/render?view=graph", strings.NewReader(`{"nodes":[]}`))
	req.Header.Set("Content-Type", "application/json")

	_, out := call(t, app, req)
	assert.Equal(t, "/api/render", out.Path)
	assert.Equal(t, "view=graph", out.Query)
	assert.Equal(t, `{"nodes":[]}`, out.Body)
}

func TestMultipart(t *testing.T) {
	srv := newUpstream(t)
	app := newGateway(srv.URL)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "plan.svg")
	require.NoError(t, err)
	_, err = part.Write([]byte(`<svg/>`))
	require.NoError(t, err)
	require.NoError(t, w.WriteField("note", "first floor"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/layouts/import", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	_, out := call(t, app, req)
	assert.Equal(t, "/api/layouts/import", out.Path)
	assert.True(t, strings.HasPrefix(out.ContentType, "multipart/form-data"))
	assert.Equal(t, `<svg/>`, out.File)
	assert.Equal(t, "first floor", out.Field)
}

func TestUpstreamUnreachable(t *testing.T) {
	srv := newUpstream(t)
	url := srv.URL
	srv.Close()

	app := newGateway(url)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/layouts", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}
