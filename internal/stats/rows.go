package stats

import (
	"errors"
	"fmt"

	"hero-analyzer/internal/heroes"

	"github.com/samber/lo"
)

// ErrUnknownHero is matched by *MissingHeroError
var ErrUnknownHero = errors.New("hero not found in lookup")

// MissingHeroError reports an observed hero id absent from the hero lookup
type MissingHeroError struct {
	HeroID int
}

func (e *MissingHeroError) Error() string {
	return fmt.Sprintf("hero %d not found in lookup", e.HeroID)
}

func (e *MissingHeroError) Is(target error) bool {
	return target == ErrUnknownHero
}

// HeroStatsRow is one row of the report table
type HeroStatsRow struct {
	HeroID     int     `json:"hero_id"`
	HeroName   string  `json:"hero_name"`
	Count      int     `json:"count"`
	BanedCount int     `json:"baned_count"`
	WinRate    float64 `json:"win_rate"`
	UsageRate  float64 `json:"usage_rate"`
	BanRate    float64 `json:"ban_rate"`
}

// BuildRows joins usage with the hero lookup and derives rates. Only heroes
// present in usage produce rows; every such hero must exist in lookup.
// Rows come out in ascending hero id order.
func BuildRows(usage Usage, lookup heroes.Lookup) ([]HeroStatsRow, error) {
	ids := usage.HeroIDs()
	rows := make([]HeroStatsRow, 0, len(ids))

	for _, id := range ids {
		hero, ok := lookup.Get(id)
		if !ok {
			return nil, &MissingHeroError{HeroID: id}
		}
		s := usage[id]
		rows = append(rows, HeroStatsRow{
			HeroID:     id,
			HeroName:   hero.Name,
			Count:      s.Count(),
			BanedCount: s.Ban,
			WinRate:    ratio(s.Win, s.Count()),
		})
	}

	totalCount := lo.SumBy(rows, func(r HeroStatsRow) int { return r.Count })
	totalBaned := lo.SumBy(rows, func(r HeroStatsRow) int { return r.BanedCount })
	for i := range rows {
		rows[i].UsageRate = ratio(rows[i].Count, totalCount)
		rows[i].BanRate = ratio(rows[i].BanedCount, totalBaned)
	}

	return rows, nil
}

// ratio returns n/d, or 0 when d is 0
func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
