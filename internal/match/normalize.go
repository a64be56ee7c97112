package match

import "hero-analyzer/internal/stratz"

// Normalize converts one raw match into its canonical form.
// ok is false when the match carries no pick/ban data and must be skipped.
//
// Entries with a non-boolean isPick or a missing/zero heroId are dropped
// individually; the rest of the match is kept. An isRadiant that is not true
// files the entry under dire. Hero ids are appended in encounter order with
// no de-duplication.
func Normalize(raw stratz.Match) (Canonical, bool) {
	if len(raw.PickBans) == 0 {
		return Canonical{}, false
	}

	m := newCanonical(raw.ID, raw.DidRadiantWin)

	for _, pb := range raw.PickBans {
		if !pb.IsPick.Valid {
			continue
		}
		if !pb.HeroID.Valid || pb.HeroID.Value == 0 {
			continue
		}

		heroID := pb.HeroID.Value
		switch {
		case pb.IsPick.Value && pb.IsRadiant.Value:
			m.RadiantHeroes = append(m.RadiantHeroes, heroID)
		case pb.IsPick.Value:
			m.DireHeroes = append(m.DireHeroes, heroID)
		case pb.IsRadiant.Value:
			m.RadiantBans = append(m.RadiantBans, heroID)
		default:
			m.DireBans = append(m.DireBans, heroID)
		}
	}

	return m, true
}

// NormalizeBatch normalizes every match of every player in a fetched batch,
// in player then match order.
func NormalizeBatch(batch *stratz.BatchFile) []Canonical {
	var out []Canonical
	for _, player := range batch.Players {
		for _, raw := range player.Matches {
			if m, ok := Normalize(raw); ok {
				out = append(out, m)
			}
		}
	}
	return out
}
