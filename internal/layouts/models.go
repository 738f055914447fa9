// Package layouts describes persisted floor-plan layouts and the
// repository contract their storage backends implement.
package layouts

import (
	"context"
	"errors"
	"time"

	"floorplan/internal/editor"
)

// ============================================================
// Layout Model
// ============================================================

type Layout struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Data      editor.Graph `json:"data"`
	CreatedAt time.Time    `json:"createdAt"`
}

type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// ============================================================
// Repository
// ============================================================

var ErrNotFound = errors.New("layout not found")

// Repository хранит раскладки. List возвращает самые новые первыми;
// limit <= 0 означает без ограничения.
type Repository interface {
	Create(ctx context.Context, name string, data editor.Graph) (*Layout, error)
	List(ctx context.Context, limit int) ([]Summary, error)
	Get(ctx context.Context, id string) (*Layout, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
