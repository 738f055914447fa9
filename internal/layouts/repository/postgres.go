package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"floorplan/internal/editor"
	"floorplan/internal/layouts"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// ============================================================
// PostgreSQL Repository
// ============================================================

type Postgres struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool, now: time.Now}
}

func (r *Postgres) WithClock(now func() time.Time) *Postgres {
	r.now = now
	return r
}

// Init применяет миграции через database/sql обёртку над пулом.
func (r *Postgres) Init(ctx context.Context, logger *log.Logger) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()
	return Migrate(ctx, db, DialectPostgres, logger)
}

func (r *Postgres) Create(ctx context.Context, name string, data editor.Graph) (*layouts.Layout, error) {
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
	_, err = r.pool.Exec(ctx, `
        INSERT INTO layouts (id, name, data, created_at)
        VALUES ($1, $2, $3, $4)
    `, l.ID, l.Name, payload, l.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert layout: %w", err)
	}
	return l, nil
}

func (r *Postgres) List(ctx context.Context, limit int) ([]layouts.Summary, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id::text, name, created_at
        FROM layouts
        ORDER BY created_at DESC, id DESC
        LIMIT $1
    `, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	defer rows.Close()

	out := []layouts.Summary{}
	for rows.Next() {
		var s layouts.Summary
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan layout: %w", err)
		}
		s.CreatedAt = s.CreatedAt.UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Postgres) Get(ctx context.Context, id string) (*layouts.Layout, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, layouts.ErrNotFound
	}

	var (
		l       layouts.Layout
		payload []byte
	)
	err := r.pool.QueryRow(ctx, `
        SELECT id::text, name, data, created_at
        FROM layouts
        WHERE id = $1
    `, id).Scan(&l.ID, &l.Name, &payload, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, layouts.ErrNotFound
		}
		return nil, fmt.Errorf("get layout: %w", err)
	}
	if err := decodeGraph(payload, &l.Data); err != nil {
		return nil, err
	}
	l.CreatedAt = l.CreatedAt.UTC()
	return &l, nil
}

func (r *Postgres) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return layouts.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM layouts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete layout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return layouts.ErrNotFound
	}
	return nil
}

func (r *Postgres) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// OpenPostgres создаёт пул соединений и проверяет доступность базы.
func OpenPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}
