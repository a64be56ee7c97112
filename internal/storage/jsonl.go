package storage

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"hero-analyzer/internal/match"

	json "github.com/goccy/go-json"
)

const (
	writeBufferSize = 64 * 1024
	maxLineSize     = 1024 * 1024
)

// WriteMatches writes matches to path as JSON lines, one match per line
func WriteMatches(path string, matches []match.Canonical) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := writeLines(file, matches); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func writeLines(file *os.File, matches []match.Canonical) error {
	w := bufio.NewWriterSize(file, writeBufferSize)
	for i := range matches {
		data, err := json.Marshal(&matches[i])
		if err != nil {
			return fmt.Errorf("failed to marshal match %d: %w", matches[i].MatchID, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("failed to write newline: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return nil
}

// ReadMatches reads a JSON lines export. Blank lines are ignored; a line that
// does not decode is an error naming its line number.
func ReadMatches(path string) ([]match.Canonical, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, maxLineSize), maxLineSize)

	var matches []match.Canonical
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var m match.Canonical
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", filepath.Base(path), lineNum, err)
		}
		matches = append(matches, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return matches, nil
}

// RenumberFile rewrites a JSON lines export in place so match_id runs 0..n-1
// in file order. It returns the number of matches written.
func RenumberFile(path string) (int, error) {
	matches, err := ReadMatches(path)
	if err != nil {
		return 0, err
	}
	match.Renumber(matches)

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := writeLines(tmp, matches); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to replace %s: %w", path, err)
	}

	return len(matches), nil
}
