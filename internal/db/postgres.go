package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hero-analyzer/internal/stats"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps hero stats in PostgreSQL
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a connection pool and checks it
func NewPostgresStore(ctx context.Context, dbURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the connection pool
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

// CreateTables creates the required tables if they don't exist
func (p *PostgresStore) CreateTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS data_version (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			game_version INTEGER NOT NULL,
			matches INTEGER NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS hero_stats (
			hero_id INTEGER PRIMARY KEY,
			hero_name TEXT NOT NULL,
			count INTEGER NOT NULL DEFAULT 0,
			baned_count INTEGER NOT NULL DEFAULT 0,
			win_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
			usage_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
			ban_rate DOUBLE PRECISION NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_hero_stats_name ON hero_stats(hero_name)`,
	}

	for _, query := range queries {
		if _, err := p.pool.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// ReplaceHeroStats swaps the stored table for rows in one transaction
func (p *PostgresStore) ReplaceHeroStats(ctx context.Context, version DataVersion, rows []stats.HeroStatsRow) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM hero_stats`); err != nil {
		return fmt.Errorf("failed to clear hero_stats: %w", err)
	}

	for i := 0; i < len(rows); i += insertBatchSize {
		end := i + insertBatchSize
		if end > len(rows) {
			end = len(rows)
		}

		batch := &pgx.Batch{}
		for _, r := range rows[i:end] {
			batch.Queue(`INSERT INTO hero_stats (hero_id, hero_name, count, baned_count, win_rate, usage_rate, ban_rate)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				r.HeroID, r.HeroName, r.Count, r.BanedCount, r.WinRate, r.UsageRate, r.BanRate)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert hero stats: %w", err)
		}
	}

	if version.UpdatedAt == "" {
		version.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO data_version (id, game_version, matches, updated_at) VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET game_version = EXCLUDED.game_version, matches = EXCLUDED.matches, updated_at = EXCLUDED.updated_at
	`, version.GameVersion, version.Matches, version.UpdatedAt); err != nil {
		return fmt.Errorf("failed to set data version: %w", err)
	}

	return tx.Commit(ctx)
}

// GetHeroStats returns every stored row ordered by a report column
func (p *PostgresStore) GetHeroStats(ctx context.Context, orderBy string, descending bool) ([]stats.HeroStatsRow, error) {
	order, err := orderClause(orderBy, descending)
	if err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx,
		`SELECT hero_id, hero_name, count, baned_count, win_rate, usage_rate, ban_rate FROM hero_stats `+order)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []stats.HeroStatsRow
	for rows.Next() {
		var r stats.HeroStatsRow
		if err := rows.Scan(&r.HeroID, &r.HeroName, &r.Count, &r.BanedCount, &r.WinRate, &r.UsageRate, &r.BanRate); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// GetHero returns the row for one hero name
func (p *PostgresStore) GetHero(ctx context.Context, name string) (*stats.HeroStatsRow, error) {
	var r stats.HeroStatsRow
	err := p.pool.QueryRow(ctx,
		`SELECT hero_id, hero_name, count, baned_count, win_rate, usage_rate, ban_rate FROM hero_stats WHERE hero_name = $1`, name).
		Scan(&r.HeroID, &r.HeroName, &r.Count, &r.BanedCount, &r.WinRate, &r.UsageRate, &r.BanRate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrHeroNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}
