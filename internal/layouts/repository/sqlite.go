package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"floorplan/internal/editor"
	"floorplan/internal/layouts"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// ============================================================
// SQLite Repository
// ============================================================

type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db, now: time.Now}
}

// WithClock подменяет источник времени (тесты сортировки).
func (r *SQLite) WithClock(now func() time.Time) *SQLite {
	r.now = now
	return r
}

// Init применяет миграции схемы.
func (r *SQLite) Init(ctx context.Context, logger *log.Logger) error {
	return Migrate(ctx, r.db, DialectSQLite, logger)
}

func (r *SQLite) Create(ctx context.Context, name string, data editor.Graph) (*layouts.Layout, error) {
	payload, err := encodeGraph(data)
	if err != nil {
		return nil, err
	}

	l := &layouts.Layout{
		ID:        uuid.NewString(),
		Name:      name,
		Data:      data,
		CreatedAt: r.now().UTC(),
	}
	_, err = r.db.ExecContext(ctx, `
        INSERT INTO layouts (id, name, data, created_at)
        VALUES (?, ?, ?, ?)
    `, l.ID, l.Name, string(payload), l.CreatedAt.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("insert layout: %w", err)
	}
	return l, nil
}

func (r *SQLite) List(ctx context.Context, limit int) ([]layouts.Summary, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, name, created_at
        FROM layouts
        ORDER BY created_at DESC, rowid DESC
        LIMIT ?
    `, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	defer rows.Close()

	out := []layouts.Summary{}
	for rows.Next() {
		var (
			s       layouts.Summary
			created int64
		)
		if err := rows.Scan(&s.ID, &s.Name, &created); err != nil {
			return nil, fmt.Errorf("scan layout: %w", err)
		}
		s.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLite) Get(ctx context.Context, id string) (*layouts.Layout, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, name, data, created_at
        FROM layouts
        WHERE id = ?
    `, id)

	var (
		l       layouts.Layout
		payload string
		created int64
	)
	if err := row.Scan(&l.ID, &l.Name, &payload, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, layouts.ErrNotFound
		}
		return nil, fmt.Errorf("get layout: %w", err)
	}
	if err := decodeGraph([]byte(payload), &l.Data); err != nil {
		return nil, err
	}
	l.CreatedAt = time.Unix(0, created).UTC()
	return &l, nil
}

func (r *SQLite) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM layouts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete layout: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete layout: %w", err)
	}
	if n == 0 {
		return layouts.ErrNotFound
	}
	return nil
}

func (r *SQLite) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// OpenSQLite открывает sqlite по указанному пути.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// ============================================================
// Helpers
// ============================================================

func encodeGraph(g editor.Graph) ([]byte, error) {
	if g.Edges == nil {
		g.Edges = []editor.Edge{}
	}
	data, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("encode layout data: %w", err)
	}
	return data, nil
}

func decodeGraph(data []byte, g *editor.Graph) error {
	if err := json.Unmarshal(data, g); err != nil {
		return fmt.Errorf("decode layout data: %w", err)
	}
	if g.Edges == nil {
		g.Edges = []editor.Edge{}
	}
	return nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return math.MaxInt32
	}
	return limit
}
