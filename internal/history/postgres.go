package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres persists history in a search_history table shared across
// replicas.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	p := &Postgres{pool: pool}
	if err := p.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) ensureSchema(ctx context.Context) error {
	const sql = `
		CREATE TABLE IF NOT EXISTS search_history (
			id            TEXT PRIMARY KEY,
			username      TEXT,
			search_type   TEXT NOT NULL,
			search_params JSONB NOT NULL,
			results_count INTEGER NOT NULL DEFAULT 0,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := p.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("create search_history table: %w", err)
	}
	return nil
}

func (p *Postgres) Record(ctx context.Context, e Entry) error {
	const sql = `
		INSERT INTO search_history (id, username, search_type, search_params, results_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := p.pool.Exec(ctx, sql, e.ID, e.User, e.SearchType, e.Params, e.ResultsCount, e.CreatedAt); err != nil {
		return fmt.Errorf("insert search history: %w", err)
	}
	return nil
}

func (p *Postgres) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultMemoryCap
	}
	const sql = `
		SELECT id, username, search_type, search_params, results_count, created_at
		FROM search_history
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := p.pool.Query(ctx, sql, limit)
	if err != nil {
		return nil, fmt.Errorf("select search history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.User, &e.SearchType, &e.Params, &e.ResultsCount, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan search history: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search history: %w", err)
	}
	return out, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}
