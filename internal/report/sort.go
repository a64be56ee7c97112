package report

import (
	"fmt"
	"sort"

	"hero-analyzer/internal/stats"
)

// Report table columns
const (
	ColumnHeroName   = "hero_name"
	ColumnCount      = "count"
	ColumnBanedCount = "baned_count"
	ColumnWinRate    = "win_rate"
	ColumnUsageRate  = "usage_rate"
	ColumnBanRate    = "ban_rate"
)

// Columns lists the report table columns in export order
var Columns = []string{
	ColumnHeroName,
	ColumnCount,
	ColumnBanedCount,
	ColumnWinRate,
	ColumnUsageRate,
	ColumnBanRate,
}

// MetricValue returns the numeric value of column for row.
// The second result is false for hero_name or an unknown column.
func MetricValue(row stats.HeroStatsRow, column string) (float64, bool) {
	switch column {
	case ColumnCount:
		return float64(row.Count), true
	case ColumnBanedCount:
		return float64(row.BanedCount), true
	case ColumnWinRate:
		return row.WinRate, true
	case ColumnUsageRate:
		return row.UsageRate, true
	case ColumnBanRate:
		return row.BanRate, true
	}
	return 0, false
}

// SortRows returns a copy of rows ordered by column. Ties keep hero_name order.
func SortRows(rows []stats.HeroStatsRow, column string, descending bool) ([]stats.HeroStatsRow, error) {
	sorted := make([]stats.HeroStatsRow, len(rows))
	copy(sorted, rows)

	if column == ColumnHeroName {
		sort.SliceStable(sorted, func(i, j int) bool {
			if descending {
				return sorted[i].HeroName > sorted[j].HeroName
			}
			return sorted[i].HeroName < sorted[j].HeroName
		})
		return sorted, nil
	}

	if _, ok := MetricValue(stats.HeroStatsRow{}, column); !ok {
		return nil, fmt.Errorf("unknown column %q", column)
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		a, _ := MetricValue(sorted[i], column)
		b, _ := MetricValue(sorted[j], column)
		if a == b {
			return sorted[i].HeroName < sorted[j].HeroName
		}
		if descending {
			return a > b
		}
		return a < b
	})
	return sorted, nil
}
