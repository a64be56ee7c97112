package storage

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"hero-analyzer/internal/match"
)

func sampleMatches() []match.Canonical {
	return []match.Canonical{
		{MatchID: 900, RadiantWin: true, RadiantHeroes: []int{1, 2}, DireHeroes: []int{3}, RadiantBans: []int{}, DireBans: []int{4}},
		{MatchID: 17, RadiantWin: false, RadiantHeroes: []int{5}, DireHeroes: []int{6, 6}, RadiantBans: []int{7}, DireBans: []int{}},
		{MatchID: 900, RadiantWin: true, RadiantHeroes: []int{}, DireHeroes: []int{}, RadiantBans: []int{}, DireBans: []int{}},
	}
}

func TestWriteMatches_KeyNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matches.jsonl")
	matches := sampleMatches()[:1]

	if err := WriteMatches(path, matches); err != nil {
		t.Fatalf("WriteMatches failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read export: %v", err)
	}
	want := `{"match_id":900,"radiant_win":true,"RadiantHeroes":[1,2],"DireHeroes":[3],"RadiantBanedHeroes":[],"DireBanedHeroes":[4]}` + "\n"
	if string(data) != want {
		t.Errorf("export line:\n got %s\nwant %s", data, want)
	}
}

func TestRoundTrip_RenumbersInFileOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matches.jsonl")
	original := sampleMatches()

	if err := WriteMatches(path, original); err != nil {
		t.Fatalf("WriteMatches failed: %v", err)
	}
	n, err := RenumberFile(path)
	if err != nil {
		t.Fatalf("RenumberFile failed: %v", err)
	}
	if n != len(original) {
		t.Errorf("RenumberFile count: got %d, want %d", n, len(original))
	}

	got, err := ReadMatches(path)
	if err != nil {
		t.Fatalf("ReadMatches failed: %v", err)
	}
	if len(got) != len(original) {
		t.Fatalf("got %d matches, want %d", len(got), len(original))
	}
	for i := range got {
		want := original[i]
		want.MatchID = int64(i)
		if !reflect.DeepEqual(got[i], want) {
			t.Errorf("match %d:\n got %+v\nwant %+v", i, got[i], want)
		}
	}
}

func TestReadMatches_SkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matches.jsonl")
	content := `{"match_id":0,"radiant_win":false,"RadiantHeroes":[1],"DireHeroes":[2],"RadiantBanedHeroes":[],"DireBanedHeroes":[]}

{"match_id":1,"radiant_win":true,"RadiantHeroes":[3],"DireHeroes":[4],"RadiantBanedHeroes":[5],"DireBanedHeroes":[6]}
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	got, err := ReadMatches(path)
	if err != nil {
		t.Fatalf("ReadMatches failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d matches, want 2", len(got))
	}
}

func TestReadMatches_BadLineReportsNumber(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matches.jsonl")
	content := `{"match_id":0,"radiant_win":false,"RadiantHeroes":[],"DireHeroes":[],"RadiantBanedHeroes":[],"DireBanedHeroes":[]}
{broken
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	_, err := ReadMatches(path)
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("got %v, want error mentioning line 2", err)
	}
}

func TestRenumberFile_Missing(t *testing.T) {
	if _, err := RenumberFile(filepath.Join(t.TempDir(), "missing.jsonl")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestArchiveFile_Gzips(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "0.json")
	coldDir := filepath.Join(tmpDir, "cold")
	content := `{"players":[]}`
	if err := os.WriteFile(src, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write source: %v", err)
	}

	n, err := ArchiveFiles([]string{src}, coldDir)
	if err != nil {
		t.Fatalf("ArchiveFiles failed: %v", err)
	}
	if n != 1 {
		t.Errorf("archived: got %d, want 1", n)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("source file should be removed after archiving")
	}

	f, err := os.Open(filepath.Join(coldDir, "0.json.gz"))
	if err != nil {
		t.Fatalf("Failed to open archive: %v", err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("Failed to open gzip reader: %v", err)
	}
	data, err := io.ReadAll(gz)
	if err != nil {
		t.Fatalf("Failed to decompress: %v", err)
	}
	if string(data) != content {
		t.Errorf("decompressed: got %q, want %q", data, content)
	}
}
