package report

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"hero-analyzer/internal/stats"

	json "github.com/goccy/go-json"
)

const (
	DataFile     = "hero_stats.json"
	ManifestFile = "manifest.json"
	CSVFile      = "hero_stats.csv"
)

// DataExport is the hero_stats.json document
type DataExport struct {
	GameVersion int                  `json:"game_version,omitempty"`
	Matches     int                  `json:"matches"`
	GeneratedAt string               `json:"generated_at"`
	Heroes      []stats.HeroStatsRow `json:"heroes"`
}

// Manifest describes the latest export
type Manifest struct {
	GameVersion int    `json:"game_version,omitempty"`
	DataFile    string `json:"data_file"`
	SHA256      string `json:"sha256"`
	HeroCount   int    `json:"hero_count"`
	Matches     int    `json:"matches"`
	UpdatedAt   string `json:"updated_at"`
}

// ExportJSON writes hero_stats.json and manifest.json to outputDir
func ExportJSON(outputDir string, export DataExport) (*Manifest, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if export.GeneratedAt == "" {
		export.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if export.Heroes == nil {
		export.Heroes = []stats.HeroStatsRow{}
	}

	dataPath := filepath.Join(outputDir, DataFile)
	dataFile, err := os.Create(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", DataFile, err)
	}
	defer dataFile.Close()

	// Write to file and compute SHA256 simultaneously
	hasher := sha256.New()
	encoder := json.NewEncoder(io.MultiWriter(dataFile, hasher))
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(export); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", DataFile, err)
	}

	manifest := &Manifest{
		GameVersion: export.GameVersion,
		DataFile:    DataFile,
		SHA256:      hex.EncodeToString(hasher.Sum(nil)),
		HeroCount:   len(export.Heroes),
		Matches:     export.Matches,
		UpdatedAt:   export.GeneratedAt,
	}

	manifestFile, err := os.Create(filepath.Join(outputDir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", ManifestFile, err)
	}
	defer manifestFile.Close()

	manifestEncoder := json.NewEncoder(manifestFile)
	manifestEncoder.SetIndent("", "  ")
	if err := manifestEncoder.Encode(manifest); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", ManifestFile, err)
	}

	return manifest, nil
}

// LoadJSON reads a hero_stats.json document
func LoadJSON(path string) (*DataExport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var export DataExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return &export, nil
}

// ExportCSV writes rows as a CSV table with a header row
func ExportCSV(path string, rows []stats.HeroStatsRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(Columns); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.HeroName,
			strconv.Itoa(r.Count),
			strconv.Itoa(r.BanedCount),
			formatRate(r.WinRate),
			formatRate(r.UsageRate),
			formatRate(r.BanRate),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
