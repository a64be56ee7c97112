package players

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"hero-analyzer/internal/stratz"

	json "github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

// DefaultTake is the number of leaderboard entries requested per division
const DefaultTake = 10000

// CSVHeader is the column order of players.csv
var CSVHeader = []string{"steamAccountId", "countryCode", "isAnonymous", "name", "rank", "position", "division"}

// LeaderboardFetcher fetches one division leaderboard
type LeaderboardFetcher interface {
	FetchLeaderboard(ctx context.Context, division string, take int) (*stratz.LeaderboardResponse, error)
}

// FetchDivisions downloads each division leaderboard into dir/<DIVISION>.json.
// A division that fails is logged and skipped. Returns the number saved.
func FetchDivisions(ctx context.Context, f LeaderboardFetcher, dir string, divisions []string, take int, log logrus.FieldLogger) (int, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create players directory: %w", err)
	}

	saved := 0
	for _, division := range divisions {
		if err := ctx.Err(); err != nil {
			return saved, err
		}

		resp, err := f.FetchLeaderboard(ctx, division, take)
		if err != nil {
			log.WithField("division", division).Errorf("[Players] Error fetching data: %v", err)
			continue
		}
		if err := WriteDivision(dir, division, resp); err != nil {
			log.WithField("division", division).Errorf("[Players] Error saving data: %v", err)
			continue
		}

		log.WithFields(logrus.Fields{
			"division": division,
			"players":  len(resp.Leaderboard.Season.Players),
		}).Info("[Players] Saved leaderboard")
		saved++
	}
	return saved, nil
}

// WriteDivision saves one division leaderboard as dir/<DIVISION>.json
func WriteDivision(dir, division string, resp *stratz.LeaderboardResponse) error {
	data, err := json.MarshalIndent(resp, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal leaderboard: %w", err)
	}
	return os.WriteFile(divisionPath(dir, division), data, 0644)
}

// ReadDivision loads a saved division leaderboard
func ReadDivision(dir, division string) (*stratz.LeaderboardResponse, error) {
	data, err := os.ReadFile(divisionPath(dir, division))
	if err != nil {
		return nil, err
	}
	var resp stratz.LeaderboardResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", division, err)
	}
	return &resp, nil
}

func divisionPath(dir, division string) string {
	return filepath.Join(dir, division+".json")
}

// MergeDivisions writes one CSV row per leaderboard player across divisions.
// A missing or corrupt division file is logged and skipped. Returns the row count.
func MergeDivisions(dir string, divisions []string, csvPath string, log logrus.FieldLogger) (int, error) {
	if err := os.MkdirAll(filepath.Dir(csvPath), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(csvPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", csvPath, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(CSVHeader); err != nil {
		return 0, err
	}

	rows := 0
	for _, division := range divisions {
		resp, err := ReadDivision(dir, division)
		if err != nil {
			log.WithField("division", division).Errorf("[Players] Error processing data: %v", err)
			continue
		}

		for _, p := range resp.Leaderboard.Season.Players {
			record := []string{
				strconv.FormatInt(p.SteamAccount.ID, 10),
				p.SteamAccount.CountryCode,
				strconv.FormatBool(p.SteamAccount.IsAnonymous),
				p.SteamAccount.Name,
				strconv.Itoa(p.Rank),
				p.Position,
				division,
			}
			if err := w.Write(record); err != nil {
				return rows, err
			}
			rows++
		}
	}

	w.Flush()
	return rows, w.Error()
}

// ReadPlayerIDs returns the steamAccountId column of players.csv in file order
func ReadPlayerIDs(csvPath string) ([]int64, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	col := -1
	for i, name := range header {
		if name == "steamAccountId" {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("%s: missing steamAccountId column", filepath.Base(csvPath))
	}

	var ids []int64
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, err
		}
		id, err := strconv.ParseInt(record[col], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: invalid steamAccountId %q", filepath.Base(csvPath), line, record[col])
		}
		ids = append(ids, id)
	}
	return ids, nil
}
