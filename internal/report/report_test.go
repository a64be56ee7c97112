package report

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"hero-analyzer/internal/stats"

	json "github.com/goccy/go-json"
)

func sampleRows() []stats.HeroStatsRow {
	return []stats.HeroStatsRow{
		{HeroID: 1, HeroName: "antimage", Count: 10, BanedCount: 2, WinRate: 0.6, UsageRate: 0.5, BanRate: 0.2},
		{HeroID: 2, HeroName: "axe", Count: 6, BanedCount: 8, WinRate: 0.5, UsageRate: 0.3, BanRate: 0.8},
		{HeroID: 3, HeroName: "bane", Count: 4, BanedCount: 0, WinRate: 0.25, UsageRate: 0.2, BanRate: 0},
	}
}

func names(rows []stats.HeroStatsRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.HeroName
	}
	return out
}

func TestSortRows(t *testing.T) {
	tests := []struct {
		column     string
		descending bool
		want       []string
	}{
		{ColumnUsageRate, true, []string{"antimage", "axe", "bane"}},
		{ColumnBanRate, true, []string{"axe", "antimage", "bane"}},
		{ColumnWinRate, false, []string{"bane", "axe", "antimage"}},
		{ColumnBanedCount, false, []string{"bane", "antimage", "axe"}},
		{ColumnHeroName, true, []string{"bane", "axe", "antimage"}},
	}

	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			sorted, err := SortRows(sampleRows(), tt.column, tt.descending)
			if err != nil {
				t.Fatalf("SortRows failed: %v", err)
			}
			got := names(sorted)
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestSortRows_DoesNotMutateInput(t *testing.T) {
	rows := sampleRows()
	if _, err := SortRows(rows, ColumnWinRate, false); err != nil {
		t.Fatalf("SortRows failed: %v", err)
	}
	if rows[0].HeroName != "antimage" {
		t.Error("input slice was reordered")
	}
}

func TestSortRows_UnknownColumn(t *testing.T) {
	if _, err := SortRows(sampleRows(), "pick_rate", true); err == nil {
		t.Fatal("expected error for unknown column")
	}
}

func TestRenderCharts(t *testing.T) {
	dir := t.TempDir()

	paths, err := RenderCharts(dir, sampleRows())
	if err != nil {
		t.Fatalf("RenderCharts failed: %v", err)
	}
	if len(paths) != len(StandardCharts) {
		t.Fatalf("got %d charts, want %d", len(paths), len(StandardCharts))
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			t.Errorf("chart %s not written: %v", filepath.Base(p), err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("chart %s is empty", filepath.Base(p))
		}
	}
}

func TestRenderBarChart_Errors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.png")

	if err := RenderBarChart(nil, ColumnWinRate, path, true); err == nil {
		t.Error("expected error for empty rows")
	}
	if err := RenderBarChart(sampleRows(), ColumnHeroName, path, false); err == nil {
		t.Error("expected error for non-numeric column")
	}
}

func TestExportJSON_ManifestHash(t *testing.T) {
	dir := t.TempDir()

	manifest, err := ExportJSON(dir, DataExport{GameVersion: 176, Matches: 12, Heroes: sampleRows()})
	if err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, DataFile))
	if err != nil {
		t.Fatalf("Failed to read data file: %v", err)
	}
	sum := sha256.Sum256(data)
	if manifest.SHA256 != hex.EncodeToString(sum[:]) {
		t.Errorf("manifest sha256 does not match %s", DataFile)
	}
	if manifest.HeroCount != 3 || manifest.Matches != 12 {
		t.Errorf("manifest counts: got heroes=%d matches=%d, want 3 and 12", manifest.HeroCount, manifest.Matches)
	}

	var onDisk Manifest
	raw, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		t.Fatalf("Failed to read manifest: %v", err)
	}
	if err := json.Unmarshal(raw, &onDisk); err != nil {
		t.Fatalf("Failed to parse manifest: %v", err)
	}
	if onDisk.SHA256 != manifest.SHA256 {
		t.Errorf("manifest on disk: got %s, want %s", onDisk.SHA256, manifest.SHA256)
	}

	export, err := LoadJSON(filepath.Join(dir, DataFile))
	if err != nil {
		t.Fatalf("LoadJSON failed: %v", err)
	}
	if len(export.Heroes) != 3 || export.Heroes[1].HeroName != "axe" {
		t.Errorf("loaded heroes: got %+v", export.Heroes)
	}
	if export.GeneratedAt == "" {
		t.Error("generated_at should be set")
	}
}

func TestExportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), CSVFile)

	if err := ExportCSV(path, sampleRows()); err != nil {
		t.Fatalf("ExportCSV failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open CSV: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d records, want 4", len(records))
	}
	for i, col := range Columns {
		if records[0][i] != col {
			t.Errorf("header %d: got %s, want %s", i, records[0][i], col)
		}
	}
	if records[2][0] != "axe" || records[2][2] != "8" || records[2][3] != "0.5" {
		t.Errorf("axe row: got %v", records[2])
	}
}
