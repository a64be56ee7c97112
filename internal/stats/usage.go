package stats

import (
	"sort"

	"hero-analyzer/internal/match"

	"github.com/samber/lo"
)

// UsageStat accumulates per-hero outcomes
type UsageStat struct {
	Win  int `json:"win"`
	Lose int `json:"lose"`
	Ban  int `json:"ban"`
}

// Count is the number of games the hero was picked in
func (s UsageStat) Count() int {
	return s.Win + s.Lose
}

// Usage maps hero id to its accumulator. A hero that was never picked or
// banned has no entry.
type Usage map[int]*UsageStat

func (u Usage) get(heroID int) *UsageStat {
	s, ok := u[heroID]
	if !ok {
		s = &UsageStat{}
		u[heroID] = s
	}
	return s
}

// Add records one match. Repeated hero ids are counted once per occurrence.
func (u Usage) Add(m match.Canonical) {
	for _, id := range m.Winners() {
		u.get(id).Win++
	}
	for _, id := range m.Losers() {
		u.get(id).Lose++
	}
	for _, id := range m.Bans() {
		u.get(id).Ban++
	}
}

// Merge adds other into u field by field
func (u Usage) Merge(other Usage) {
	for id, v := range other {
		if existing, ok := u[id]; ok {
			existing.Win += v.Win
			existing.Lose += v.Lose
			existing.Ban += v.Ban
		} else {
			copied := *v
			u[id] = &copied
		}
	}
}

// HeroIDs returns the observed hero ids in ascending order
func (u Usage) HeroIDs() []int {
	ids := lo.Keys(u)
	sort.Ints(ids)
	return ids
}

// Aggregate builds a fresh usage map from matches
func Aggregate(matches []match.Canonical) Usage {
	usage := make(Usage)
	for _, m := range matches {
		usage.Add(m)
	}
	return usage
}

// AggregateFiles aggregates each successfully parsed file on its own and
// merges the partial maps. Failed files contribute nothing.
func AggregateFiles(files []match.FileResult) Usage {
	total := make(Usage)
	for _, f := range files {
		if f.Err != nil {
			continue
		}
		total.Merge(Aggregate(f.Matches))
	}
	return total
}
