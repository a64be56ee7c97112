package heroes

import (
	"os"
	"path/filepath"
	"testing"

	"hero-analyzer/internal/stratz"
)

func TestParse_Shapes(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"keyed", `{"1": {"name": "antimage", "display_name": "Anti-Mage"}, "2": {"name": "axe"}}`},
		{"list", `{"heroes": [{"hero_id": 1, "name": "antimage", "display_name": "Anti-Mage"}, {"hero_id": 2, "name": "axe"}]}`},
		{"bare list", `[{"hero_id": 1, "name": "antimage", "display_name": "Anti-Mage"}, {"hero_id": 2, "name": "axe"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup, err := Parse([]byte(tt.data))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if len(lookup) != 2 {
				t.Fatalf("got %d heroes, want 2", len(lookup))
			}
			am, ok := lookup.Get(1)
			if !ok {
				t.Fatal("hero 1 missing")
			}
			if am.Name != "antimage" || am.DisplayName != "Anti-Mage" || am.HeroID != 1 {
				t.Errorf("hero 1: got %+v", am)
			}
			if lookup[2].Name != "axe" {
				t.Errorf("hero 2 name: got %q, want axe", lookup[2].Name)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ``},
		{"not json", `heroes!`},
		{"non-integer key", `{"abc": {"name": "axe"}}`},
		{"missing name", `{"1": {"display_name": "Anti-Mage"}}`},
		{"list missing name", `{"heroes": [{"hero_id": 3}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestWriteThenLoad(t *testing.T) {
	resp := &stratz.ConstantsResponse{}
	resp.Constants.Heroes = []stratz.ConstantsHero{
		{ID: 2, ShortName: "axe", DisplayName: "Axe"},
		{ID: 1, ShortName: "antimage", DisplayName: "Anti-Mage"},
	}

	path := filepath.Join(t.TempDir(), "out", "heroes.json")
	if err := Write(path, FromConstants(resp)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	lookup, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	records := lookup.Records()
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].HeroID != 1 || records[0].Name != "antimage" {
		t.Errorf("first record: got %+v", records[0])
	}
	if records[1].DisplayName != "Axe" {
		t.Errorf("second display name: got %q, want Axe", records[1].DisplayName)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "heroes.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_ErrorNamesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte(`{`), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); len(got) < len("broken.json") || got[:len("broken.json")] != "broken.json" {
		t.Errorf("error should start with file name, got %q", got)
	}
}
