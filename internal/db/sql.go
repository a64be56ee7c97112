package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"hero-analyzer/internal/stats"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// SQLStore keeps hero stats in Turso (libsql) or a local SQLite file
type SQLStore struct {
	db *sql.DB
}

// NewTursoStore connects to a Turso database
func NewTursoStore(url, authToken string) (*SQLStore, error) {
	connStr := url
	if authToken != "" {
		connStr = fmt.Sprintf("%s?authToken=%s", url, authToken)
	}

	db, err := sql.Open("libsql", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Turso: %w", err)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping Turso: %w", err)
	}

	return &SQLStore{db: db}, nil
}

// NewSQLiteStore opens (creating if needed) a local SQLite database
func NewSQLiteStore(path string) (*SQLStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// modernc sqlite serializes writers; a single connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	return &SQLStore{db: db}, nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// CreateTables creates the required tables if they don't exist
func (s *SQLStore) CreateTables(ctx context.Context) error {
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
			win_rate REAL NOT NULL DEFAULT 0,
			usage_rate REAL NOT NULL DEFAULT 0,
			ban_rate REAL NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_hero_stats_name ON hero_stats(hero_name)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

// ReplaceHeroStats swaps the stored table for rows in one transaction
func (s *SQLStore) ReplaceHeroStats(ctx context.Context, version DataVersion, rows []stats.HeroStatsRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM hero_stats`); err != nil {
		return fmt.Errorf("failed to clear hero_stats: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO hero_stats (hero_id, hero_name, count, baned_count, win_rate, usage_rate, ban_rate) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.HeroID, r.HeroName, r.Count, r.BanedCount, r.WinRate, r.UsageRate, r.BanRate); err != nil {
			return fmt.Errorf("failed to insert hero %d: %w", r.HeroID, err)
		}
	}

	if version.UpdatedAt == "" {
		version.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO data_version (id, game_version, matches, updated_at) VALUES (1, ?, ?, ?)`,
		version.GameVersion, version.Matches, version.UpdatedAt); err != nil {
		return fmt.Errorf("failed to set data version: %w", err)
	}

	return tx.Commit()
}

// GetHeroStats returns every stored row ordered by a report column
func (s *SQLStore) GetHeroStats(ctx context.Context, orderBy string, descending bool) ([]stats.HeroStatsRow, error) {
	order, err := orderClause(orderBy, descending)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
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
func (s *SQLStore) GetHero(ctx context.Context, name string) (*stats.HeroStatsRow, error) {
	var r stats.HeroStatsRow
	err := s.db.QueryRowContext(ctx,
		`SELECT hero_id, hero_name, count, baned_count, win_rate, usage_rate, ban_rate FROM hero_stats WHERE hero_name = ?`, name).
		Scan(&r.HeroID, &r.HeroName, &r.Count, &r.BanedCount, &r.WinRate, &r.UsageRate, &r.BanRate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrHeroNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetDataVersion returns the stored run metadata
func (s *SQLStore) GetDataVersion(ctx context.Context) (*DataVersion, error) {
	var v DataVersion
	err := s.db.QueryRowContext(ctx,
		`SELECT game_version, matches, updated_at FROM data_version WHERE id = 1`).
		Scan(&v.GameVersion, &v.Matches, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
