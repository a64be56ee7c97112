package match

// Canonical is the flat, normalized form of one drafted match.
// The JSON keys are the persisted export contract and must not change.
type Canonical struct {
	MatchID       int64 `json:"match_id"`
	RadiantWin    bool  `json:"radiant_win"`
	RadiantHeroes []int `json:"RadiantHeroes"`
	DireHeroes    []int `json:"DireHeroes"`
	RadiantBans   []int `json:"RadiantBanedHeroes"`
	DireBans      []int `json:"DireBanedHeroes"`
}

// newCanonical returns a match with empty (non-nil) hero lists so they export as []
func newCanonical(id int64, radiantWin bool) Canonical {
	return Canonical{
		MatchID:       id,
		RadiantWin:    radiantWin,
		RadiantHeroes: []int{},
		DireHeroes:    []int{},
		RadiantBans:   []int{},
		DireBans:      []int{},
	}
}

// Winners returns the hero ids of the side that won
func (c *Canonical) Winners() []int {
	if c.RadiantWin {
		return c.RadiantHeroes
	}
	return c.DireHeroes
}

// Losers returns the hero ids of the side that lost
func (c *Canonical) Losers() []int {
	if c.RadiantWin {
		return c.DireHeroes
	}
	return c.RadiantHeroes
}

// Bans returns radiant bans followed by dire bans
func (c *Canonical) Bans() []int {
	bans := make([]int, 0, len(c.RadiantBans)+len(c.DireBans))
	bans = append(bans, c.RadiantBans...)
	return append(bans, c.DireBans...)
}

// Renumber overwrites match ids with 0..n-1 in slice order
func Renumber(matches []Canonical) {
	for i := range matches {
		matches[i].MatchID = int64(i)
	}
}
