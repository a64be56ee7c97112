package api

import (
	"context"

	"hero-analyzer/internal/db"
	"hero-analyzer/internal/publisher"
	"hero-analyzer/internal/report"
	"hero-analyzer/internal/stats"
)

// Source serves the hero stats table
type Source interface {
	Heroes(ctx context.Context, orderBy string, descending bool) ([]stats.HeroStatsRow, error)
	Hero(ctx context.Context, name string) (*stats.HeroStatsRow, error)
}

// StoreSource reads from a database sink
type StoreSource struct {
	Store db.Store
}

func (s StoreSource) Heroes(ctx context.Context, orderBy string, descending bool) ([]stats.HeroStatsRow, error) {
	return s.Store.GetHeroStats(ctx, orderBy, descending)
}

func (s StoreSource) Hero(ctx context.Context, name string) (*stats.HeroStatsRow, error) {
	return s.Store.GetHero(ctx, name)
}

// FileSource reads hero_stats.json on every request, so a new reducer run is
// picked up without a restart
type FileSource struct {
	Path string
}

func (f FileSource) Heroes(ctx context.Context, orderBy string, descending bool) ([]stats.HeroStatsRow, error) {
	return sortedHeroes(report.LoadJSON(f.Path))(orderBy, descending)
}

func (f FileSource) Hero(ctx context.Context, name string) (*stats.HeroStatsRow, error) {
	return findHero(report.LoadJSON(f.Path))(name)
}

// RedisSource serves the report most recently published to Redis
type RedisSource struct {
	Publisher *publisher.RedisPublisher
}

func (r RedisSource) Heroes(ctx context.Context, orderBy string, descending bool) ([]stats.HeroStatsRow, error) {
	return sortedHeroes(r.Publisher.Latest(ctx))(orderBy, descending)
}

func (r RedisSource) Hero(ctx context.Context, name string) (*stats.HeroStatsRow, error) {
	return findHero(r.Publisher.Latest(ctx))(name)
}

func sortedHeroes(export *report.DataExport, err error) func(string, bool) ([]stats.HeroStatsRow, error) {
	return func(orderBy string, descending bool) ([]stats.HeroStatsRow, error) {
		if err != nil {
			return nil, err
		}
		return report.SortRows(export.Heroes, orderBy, descending)
	}
}

func findHero(export *report.DataExport, err error) func(string) (*stats.HeroStatsRow, error) {
	return func(name string) (*stats.HeroStatsRow, error) {
		if err != nil {
			return nil, err
		}
		for i := range export.Heroes {
			if export.Heroes[i].HeroName == name {
				return &export.Heroes[i], nil
			}
		}
		return nil, db.ErrHeroNotFound
	}
}
