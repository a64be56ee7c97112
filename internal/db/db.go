package db

import (
	"context"
	"errors"
	"fmt"

	"hero-analyzer/internal/report"
	"hero-analyzer/internal/stats"
)

// ErrHeroNotFound is returned by GetHero when no row matches
var ErrHeroNotFound = errors.New("hero not found")

// Store is a sink and source for the hero stats table
type Store interface {
	CreateTables(ctx context.Context) error
	ReplaceHeroStats(ctx context.Context, version DataVersion, rows []stats.HeroStatsRow) error
	GetHeroStats(ctx context.Context, orderBy string, descending bool) ([]stats.HeroStatsRow, error)
	GetHero(ctx context.Context, name string) (*stats.HeroStatsRow, error)
	Close() error
}

// DataVersion describes the run that produced the stored rows
type DataVersion struct {
	GameVersion int
	Matches     int
	UpdatedAt   string
}

const insertBatchSize = 100

// orderClause validates column and builds an ORDER BY clause
func orderClause(column string, descending bool) (string, error) {
	valid := false
	for _, c := range report.Columns {
		if c == column {
			valid = true
			break
		}
	}
	if !valid {
		return "", fmt.Errorf("unknown column %q", column)
	}

	dir := "ASC"
	if descending {
		dir = "DESC"
	}
	if column == report.ColumnHeroName {
		return fmt.Sprintf("ORDER BY hero_name %s", dir), nil
	}
	return fmt.Sprintf("ORDER BY %s %s, hero_name ASC", column, dir), nil
}
