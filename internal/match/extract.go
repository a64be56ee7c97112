package match

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"hero-analyzer/internal/stratz"

	"github.com/bits-and-blooms/bloom/v3"
	json "github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultPattern matches the fetched batch files (players_matches/<i>.json)
	DefaultPattern = "*.json"

	// Sizing for the repeated-id estimate
	expectedMatches = 500000
	falsePositive   = 0.001
)

// ErrNoInputFiles is returned when the input directory holds no batch files
var ErrNoInputFiles = errors.New("no input data")

// ErrMalformedBatch marks a batch file that parses but lacks a required list
var ErrMalformedBatch = errors.New("batch file missing required key")

// FileResult is the outcome of parsing one batch file
type FileResult struct {
	Path    string
	Matches []Canonical
	Err     error
}

// ExtractResult holds every canonical match from a directory, in emission order
type ExtractResult struct {
	Matches        []Canonical
	Files          []FileResult // one entry per file; Matches is a window into the Matches field
	Failures       []FileResult // files that could not be parsed
	FilesProcessed int
	// RepeatedIDs approximates how many matches share a source id with an
	// earlier match (the same game seen from several players). Informational.
	RepeatedIDs int
}

// Extractor walks a directory of raw batch files
type Extractor struct {
	pattern string
	log     logrus.FieldLogger
}

// ExtractorOption configures an Extractor
type ExtractorOption func(*Extractor)

// WithPattern sets the glob used to find batch files
func WithPattern(pattern string) ExtractorOption {
	return func(e *Extractor) {
		e.pattern = pattern
	}
}

// WithExtractLogger sets the logger used for progress and failures
func WithExtractLogger(log logrus.FieldLogger) ExtractorOption {
	return func(e *Extractor) {
		e.log = log
	}
}

// NewExtractor creates an extractor with the default *.json pattern
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		pattern: DefaultPattern,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractDir parses every batch file in dir and returns the concatenated
// canonical matches with match ids renumbered 0..n-1. A file that fails to
// parse contributes nothing and is reported in Failures.
func (e *Extractor) ExtractDir(dir string) (*ExtractResult, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("input directory not found: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, e.pattern))
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files matching %s in %s", ErrNoInputFiles, e.pattern, dir)
	}

	result := &ExtractResult{}
	bounds := make([][2]int, 0, len(files))
	seen := bloom.NewWithEstimates(expectedMatches, falsePositive)

	for i, path := range files {
		e.log.Infof("[%d/%d] Processing: %s", i+1, len(files), filepath.Base(path))

		fr := ParseFile(path)
		if fr.Err != nil {
			e.log.WithField("file", filepath.Base(path)).Errorf("[Extractor] Error processing file: %v", fr.Err)
			result.Failures = append(result.Failures, fr)
			result.Files = append(result.Files, FileResult{Path: path, Err: fr.Err})
			continue
		}

		result.FilesProcessed++
		for _, m := range fr.Matches {
			if seen.TestAndAddString(strconv.FormatInt(m.MatchID, 10)) {
				result.RepeatedIDs++
			}
		}
		start := len(result.Matches)
		result.Matches = append(result.Matches, fr.Matches...)
		result.Files = append(result.Files, FileResult{Path: path})
		bounds = append(bounds, [2]int{len(result.Files) - 1, start})
	}

	Renumber(result.Matches)
	for i, b := range bounds {
		end := len(result.Matches)
		if i+1 < len(bounds) {
			end = bounds[i+1][1]
		}
		result.Files[b[0]].Matches = result.Matches[b[1]:end:end]
	}

	e.log.WithFields(logrus.Fields{
		"matches":  len(result.Matches),
		"files":    len(files),
		"failed":   len(result.Failures),
		"repeated": result.RepeatedIDs,
	}).Infof("[Extractor] Processed %d matches from %d files", len(result.Matches), len(files))

	return result, nil
}

// ParseFile reads one batch file and normalizes its matches.
// Match ids in the result are still the source ids. A file without a
// players list, or with a player lacking a matches list, is a failure.
func ParseFile(path string) FileResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileResult{Path: path, Err: err}
	}

	batch, err := decodeBatch(data)
	if err != nil {
		return FileResult{Path: path, Err: err}
	}

	return FileResult{Path: path, Matches: NormalizeBatch(batch)}
}

// batchShape mirrors stratz.BatchFile with pointers so absent keys are detectable
type batchShape struct {
	Players *[]struct {
		Matches *[]stratz.Match `json:"matches"`
	} `json:"players"`
}

func decodeBatch(data []byte) (*stratz.BatchFile, error) {
	var shape batchShape
	if err := json.Unmarshal(data, &shape); err != nil {
		return nil, fmt.Errorf("failed to parse: %w", err)
	}
	if shape.Players == nil {
		return nil, fmt.Errorf("%w: players", ErrMalformedBatch)
	}

	batch := &stratz.BatchFile{Players: make([]stratz.PlayerMatches, 0, len(*shape.Players))}
	for i, p := range *shape.Players {
		if p.Matches == nil {
			return nil, fmt.Errorf("%w: players[%d].matches", ErrMalformedBatch, i)
		}
		batch.Players = append(batch.Players, stratz.PlayerMatches{Matches: *p.Matches})
	}
	return batch, nil
}
