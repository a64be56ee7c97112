package stats

import (
	"errors"
	"math"
	"testing"

	"hero-analyzer/internal/heroes"
	"hero-analyzer/internal/match"
)

const epsilon = 1e-9

func testLookup(ids ...int) heroes.Lookup {
	lookup := make(heroes.Lookup)
	for _, id := range ids {
		lookup[id] = heroes.HeroRecord{HeroID: id, Name: "hero_" + string(rune('a'+id))}
	}
	return lookup
}

func canonical(radiantWin bool, radiant, dire, radiantBans, direBans []int) match.Canonical {
	return match.Canonical{
		RadiantWin:    radiantWin,
		RadiantHeroes: radiant,
		DireHeroes:    dire,
		RadiantBans:   radiantBans,
		DireBans:      direBans,
	}
}

func rowByID(rows []HeroStatsRow, id int) (HeroStatsRow, bool) {
	for _, r := range rows {
		if r.HeroID == id {
			return r, true
		}
	}
	return HeroStatsRow{}, false
}

func TestAggregate_WinLoseBan(t *testing.T) {
	matches := []match.Canonical{
		canonical(true, []int{1, 2}, []int{3, 4}, []int{5}, []int{6}),
		canonical(false, []int{1, 3}, []int{2, 4}, []int{}, []int{5}),
	}

	usage := Aggregate(matches)

	tests := []struct {
		hero int
		want UsageStat
	}{
		{1, UsageStat{Win: 1, Lose: 1}},
		{2, UsageStat{Win: 2}},
		{3, UsageStat{Lose: 2}},
		{4, UsageStat{Win: 1, Lose: 1}},
		{5, UsageStat{Ban: 2}},
		{6, UsageStat{Ban: 1}},
	}
	for _, tt := range tests {
		got, ok := usage[tt.hero]
		if !ok {
			t.Errorf("hero %d missing from usage", tt.hero)
			continue
		}
		if *got != tt.want {
			t.Errorf("hero %d: got %+v, want %+v", tt.hero, *got, tt.want)
		}
	}
	if len(usage) != len(tests) {
		t.Errorf("usage size: got %d, want %d", len(usage), len(tests))
	}
}

func TestAggregate_DuplicateIDsCountedTwice(t *testing.T) {
	usage := Aggregate([]match.Canonical{
		canonical(true, []int{7, 7}, []int{8}, []int{9, 9}, []int{9}),
	})

	if usage[7].Win != 2 {
		t.Errorf("hero 7 wins: got %d, want 2", usage[7].Win)
	}
	if usage[9].Ban != 3 {
		t.Errorf("hero 9 bans: got %d, want 3", usage[9].Ban)
	}
}

func TestBuildRows_WinRateHalf(t *testing.T) {
	matches := []match.Canonical{
		canonical(true, []int{1}, []int{2}, []int{}, []int{}),
		canonical(false, []int{1}, []int{2}, []int{}, []int{}),
	}

	rows, err := BuildRows(Aggregate(matches), testLookup(1, 2))
	if err != nil {
		t.Fatalf("BuildRows failed: %v", err)
	}

	row, ok := rowByID(rows, 1)
	if !ok {
		t.Fatal("hero 1 missing from rows")
	}
	if row.Count != 2 {
		t.Errorf("count: got %d, want 2", row.Count)
	}
	if row.WinRate != 0.5 {
		t.Errorf("win_rate: got %f, want 0.5", row.WinRate)
	}
}

func TestBuildRows_RatesSumToOne(t *testing.T) {
	matches := []match.Canonical{
		canonical(true, []int{1, 2, 3}, []int{4, 5}, []int{6, 7}, []int{8}),
		canonical(false, []int{2, 4}, []int{1, 9, 9}, []int{3}, []int{6}),
		canonical(true, []int{5}, []int{6}, []int{1}, []int{2, 7}),
	}

	rows, err := BuildRows(Aggregate(matches), testLookup(1, 2, 3, 4, 5, 6, 7, 8, 9))
	if err != nil {
		t.Fatalf("BuildRows failed: %v", err)
	}

	var usageSum, banSum float64
	for _, r := range rows {
		usageSum += r.UsageRate
		banSum += r.BanRate
	}
	if math.Abs(usageSum-1) > epsilon {
		t.Errorf("usage_rate sum: got %f, want 1", usageSum)
	}
	if math.Abs(banSum-1) > epsilon {
		t.Errorf("ban_rate sum: got %f, want 1", banSum)
	}
}

func TestBuildRows_BannedOnlyHero(t *testing.T) {
	rows, err := BuildRows(Aggregate([]match.Canonical{
		canonical(true, []int{1}, []int{2}, []int{3}, []int{}),
	}), testLookup(1, 2, 3))
	if err != nil {
		t.Fatalf("BuildRows failed: %v", err)
	}

	row, ok := rowByID(rows, 3)
	if !ok {
		t.Fatal("banned-only hero should have a row")
	}
	if row.Count != 0 || row.WinRate != 0 || row.UsageRate != 0 {
		t.Errorf("zero-game hero: got %+v, want zero count and rates", row)
	}
	if row.BanRate != 1 {
		t.Errorf("ban_rate: got %f, want 1", row.BanRate)
	}
}

func TestBuildRows_AbsentHeroHasNoRow(t *testing.T) {
	rows, err := BuildRows(Aggregate([]match.Canonical{
		canonical(true, []int{1}, []int{2}, []int{}, []int{}),
	}), testLookup(1, 2, 42))
	if err != nil {
		t.Fatalf("BuildRows failed: %v", err)
	}

	if _, ok := rowByID(rows, 42); ok {
		t.Error("hero 42 never appeared and must not have a row")
	}
	if len(rows) != 2 {
		t.Errorf("got %d rows, want 2", len(rows))
	}
}

func TestBuildRows_MissingHeroFailsFast(t *testing.T) {
	_, err := BuildRows(Aggregate([]match.Canonical{
		canonical(true, []int{1}, []int{77}, []int{}, []int{}),
	}), testLookup(1))

	if !errors.Is(err, ErrUnknownHero) {
		t.Fatalf("got %v, want ErrUnknownHero", err)
	}
	var missing *MissingHeroError
	if !errors.As(err, &missing) || missing.HeroID != 77 {
		t.Errorf("got %v, want MissingHeroError for hero 77", err)
	}
}

func TestBuildRows_EmptyInput(t *testing.T) {
	rows, err := BuildRows(Aggregate(nil), testLookup(1))
	if err != nil {
		t.Fatalf("BuildRows failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("got %d rows, want 0", len(rows))
	}
}

func TestBuildRows_NoBansAnywhere(t *testing.T) {
	rows, err := BuildRows(Aggregate([]match.Canonical{
		canonical(true, []int{1}, []int{2}, []int{}, []int{}),
	}), testLookup(1, 2))
	if err != nil {
		t.Fatalf("BuildRows failed: %v", err)
	}
	for _, r := range rows {
		if r.BanRate != 0 || math.IsNaN(r.BanRate) {
			t.Errorf("hero %d ban_rate: got %f, want 0", r.HeroID, r.BanRate)
		}
	}
}

func TestMerge_MatchesSinglePass(t *testing.T) {
	a := []match.Canonical{canonical(true, []int{1}, []int{2}, []int{3}, []int{})}
	b := []match.Canonical{canonical(false, []int{1}, []int{3}, []int{}, []int{2})}

	merged := Aggregate(a)
	merged.Merge(Aggregate(b))
	whole := Aggregate(append(append([]match.Canonical{}, a...), b...))

	if len(merged) != len(whole) {
		t.Fatalf("merged size: got %d, want %d", len(merged), len(whole))
	}
	for id, want := range whole {
		if got := merged[id]; *got != *want {
			t.Errorf("hero %d: got %+v, want %+v", id, *got, *want)
		}
	}
}

func TestMerge_DoesNotAliasSource(t *testing.T) {
	src := Aggregate([]match.Canonical{canonical(true, []int{1}, []int{}, []int{}, []int{})})
	dst := make(Usage)
	dst.Merge(src)
	dst.Merge(src)

	if src[1].Win != 1 {
		t.Errorf("source mutated: got %d wins, want 1", src[1].Win)
	}
	if dst[1].Win != 2 {
		t.Errorf("merged wins: got %d, want 2", dst[1].Win)
	}
}

func TestAggregateFiles_SkipsFailures(t *testing.T) {
	files := []match.FileResult{
		{Path: "0.json", Matches: []match.Canonical{canonical(true, []int{1}, []int{2}, []int{}, []int{})}},
		{Path: "1.json", Err: errors.New("corrupt")},
		{Path: "2.json", Matches: []match.Canonical{canonical(true, []int{1}, []int{2}, []int{}, []int{})}},
	}

	usage := AggregateFiles(files)
	if usage[1].Win != 2 || usage[2].Lose != 2 {
		t.Errorf("got hero1=%+v hero2=%+v, want 2 wins and 2 losses", *usage[1], *usage[2])
	}
}
