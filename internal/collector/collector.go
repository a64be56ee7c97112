package collector

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"hero-analyzer/internal/stratz"

	json "github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

// MatchFetcher fetches recent matches for a set of players
type MatchFetcher interface {
	FetchMatches(ctx context.Context, steamAccountIDs []int64, gameVersion int) (*stratz.BatchFile, error)
}

// Config holds collector settings
type Config struct {
	BatchSize   int
	GameVersion int
	OutputDir   string
}

// DefaultConfig returns the default collector configuration
func DefaultConfig() Config {
	return Config{
		BatchSize:   5,
		GameVersion: 176,
		OutputDir:   "players_matches",
	}
}

// Stats summarizes a collector run
type Stats struct {
	Batches int
	Fetched int
	Skipped int
	Failed  int
}

// Collector fetches match batches for a player list and stores one file per batch
type Collector struct {
	fetcher MatchFetcher
	config  Config
	log     logrus.FieldLogger
}

// NewCollector creates a collector
func NewCollector(fetcher MatchFetcher, config Config, log logrus.FieldLogger) *Collector {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Collector{fetcher: fetcher, config: config, log: log}
}

// BatchPath returns the file that holds batch i
func (c *Collector) BatchPath(i int) string {
	return filepath.Join(c.config.OutputDir, strconv.Itoa(i)+".json")
}

// Run fetches every batch of playerIDs. Batch i covers
// playerIDs[i*BatchSize : (i+1)*BatchSize] and is stored at <OutputDir>/<i>.json.
// Existing batch files are skipped, so an interrupted run can be resumed.
// A failed batch is logged and skipped; a rejected API key stops the run.
func (c *Collector) Run(ctx context.Context, playerIDs []int64) (*Stats, error) {
	if err := os.MkdirAll(c.config.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	stats := &Stats{}
	for i, start := 0, 0; start < len(playerIDs); i, start = i+1, start+c.config.BatchSize {
		if err := ctx.Err(); err != nil {
			c.log.Info("[Collector] Context cancelled, stopping")
			return stats, err
		}

		end := start + c.config.BatchSize
		if end > len(playerIDs) {
			end = len(playerIDs)
		}
		stats.Batches++

		path := c.BatchPath(i)
		if _, err := os.Stat(path); err == nil {
			stats.Skipped++
			continue
		}

		batch, err := c.fetcher.FetchMatches(ctx, playerIDs[start:end], c.config.GameVersion)
		if err != nil {
			if errors.Is(err, stratz.ErrUnauthorized) {
				return stats, fmt.Errorf("batch %d: %w", i, err)
			}
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			c.log.WithField("batch", i).Errorf("[Collector] Error processing batch: %v", err)
			stats.Failed++
			continue
		}

		if err := writeBatch(path, batch); err != nil {
			c.log.WithField("batch", i).Errorf("[Collector] Error saving batch: %v", err)
			stats.Failed++
			continue
		}

		stats.Fetched++
		c.log.WithFields(logrus.Fields{
			"batch":   i,
			"players": len(batch.Players),
		}).Info("[Collector] Successfully processed batch")
	}

	return stats, nil
}

// writeBatch stores batch at path via a temp file so a partial write never
// looks like a finished batch. The API payload is written as received when
// the batch carries it.
func writeBatch(path string, batch *stratz.BatchFile) error {
	data := []byte(batch.Raw)
	if len(data) == 0 {
		var err error
		if data, err = json.MarshalIndent(batch, "", "    "); err != nil {
			return fmt.Errorf("failed to marshal batch: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
