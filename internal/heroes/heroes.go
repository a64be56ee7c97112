package heroes

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"hero-analyzer/internal/stratz"

	json "github.com/goccy/go-json"
)

// HeroRecord holds hero metadata
type HeroRecord struct {
	HeroID      int    `json:"hero_id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
}

// Lookup maps hero id to its record
type Lookup map[int]HeroRecord

// Get returns the record for id
func (l Lookup) Get(id int) (HeroRecord, bool) {
	h, ok := l[id]
	return h, ok
}

// Records returns the lookup as a list sorted by hero id
func (l Lookup) Records() []HeroRecord {
	records := make([]HeroRecord, 0, len(l))
	for _, h := range l {
		records = append(records, h)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].HeroID < records[j].HeroID
	})
	return records
}

// listFile is the converted form written by Write
type listFile struct {
	Heroes []HeroRecord `json:"heroes"`
}

// keyedRecord is one value of the id-keyed form
type keyedRecord struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// Load reads a hero file. Three shapes are accepted:
//
//	{"1": {"name": "antimage", "display_name": "Anti-Mage"}, ...}
//	{"heroes": [{"hero_id": 1, "name": "antimage", "display_name": "Anti-Mage"}, ...]}
//	[{"hero_id": 1, "name": "antimage"}, ...]
func Load(path string) (Lookup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read heroes file: %w", err)
	}

	lookup, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return lookup, nil
}

// Parse decodes hero data in any of the shapes accepted by Load
func Parse(data []byte) (Lookup, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty heroes data")
	}

	if data[0] == '[' {
		var records []HeroRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("failed to parse hero list: %w", err)
		}
		return fromRecords(records)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse heroes: %w", err)
	}

	if list, ok := raw["heroes"]; ok {
		var records []HeroRecord
		if err := json.Unmarshal(list, &records); err != nil {
			return nil, fmt.Errorf("failed to parse heroes list: %w", err)
		}
		return fromRecords(records)
	}

	lookup := make(Lookup, len(raw))
	for key, value := range raw {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("invalid hero id %q", key)
		}
		var rec keyedRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			return nil, fmt.Errorf("hero %d: %w", id, err)
		}
		if rec.Name == "" {
			return nil, fmt.Errorf("hero %d: missing name", id)
		}
		lookup[id] = HeroRecord{HeroID: id, Name: rec.Name, DisplayName: rec.DisplayName}
	}
	return lookup, nil
}

func fromRecords(records []HeroRecord) (Lookup, error) {
	lookup := make(Lookup, len(records))
	for _, rec := range records {
		if rec.Name == "" {
			return nil, fmt.Errorf("hero %d: missing name", rec.HeroID)
		}
		lookup[rec.HeroID] = rec
	}
	return lookup, nil
}

// FromConstants converts the STRATZ constants payload into hero records
func FromConstants(resp *stratz.ConstantsResponse) Lookup {
	lookup := make(Lookup, len(resp.Constants.Heroes))
	for _, h := range resp.Constants.Heroes {
		lookup[h.ID] = HeroRecord{
			HeroID:      h.ID,
			Name:        h.ShortName,
			DisplayName: h.DisplayName,
		}
	}
	return lookup
}

// Write saves the lookup in the {"heroes": [...]} form
func Write(path string, lookup Lookup) error {
	data, err := json.MarshalIndent(listFile{Heroes: lookup.Records()}, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal heroes: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write heroes file: %w", err)
	}
	return nil
}
