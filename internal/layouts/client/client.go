package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"floorplan/internal/editor"
	"floorplan/internal/layouts"
)

// ============================================================
// Layouts Service Client
// ============================================================

// Client ходит в сервис раскладок по HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// UpstreamError - неуспешный ответ сервиса раскладок.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("layouts service: %d %s", e.Status, e.Message)
}

// Create сохраняет граф под именем и возвращает id раскладки.
func (c *Client) Create(ctx context.Context, name string, data editor.Graph) (string, error) {
	body, err := json.Marshal(map[string]any{"name": name, "data": data})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/layouts", bytes.NewReader(body), &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// List возвращает до limit последних раскладок (limit <= 0 - все).
func (c *Client) List(ctx context.Context, limit int) ([]layouts.Summary, error) {
	path := "/api/layouts"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []layouts.Summary
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Fetch возвращает раскладку; layouts.ErrNotFound если её нет.
func (c *Client) Fetch(ctx context.Context, id string) (*layouts.Layout, error) {
	var out layouts.Layout
	if err := c.do(ctx, http.MethodGet, "/api/layouts/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/layouts/"+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("reach layouts service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return layouts.ErrNotFound
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &UpstreamError{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
