package storage

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// ArchiveFile compresses a processed batch file into coldDir and removes the original
func ArchiveFile(srcPath, coldDir string) error {
	if err := os.MkdirAll(coldDir, 0755); err != nil {
		return fmt.Errorf("failed to create cold directory: %w", err)
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}

	filename := filepath.Base(srcPath) + ".gz"
	dstPath := filepath.Join(coldDir, filename)

	dst, err := os.Create(dstPath)
	if err != nil {
		src.Close()
		return err
	}

	gzWriter := gzip.NewWriter(dst)
	gzWriter.Name = filepath.Base(srcPath)
	if _, err := io.Copy(gzWriter, src); err != nil {
		gzWriter.Close()
		dst.Close()
		src.Close()
		os.Remove(dstPath) // Clean up on failure
		return err
	}
	if err := gzWriter.Close(); err != nil {
		dst.Close()
		src.Close()
		os.Remove(dstPath)
		return err
	}

	// Close files before removing (required on Windows)
	dst.Close()
	src.Close()

	if err := os.Remove(srcPath); err != nil {
		return err
	}

	logrus.WithField("file", filename).Debug("[Archive] Compressed to cold storage")
	return nil
}

// ArchiveFiles archives every path, stopping at the first failure.
// Returns the number of files archived.
func ArchiveFiles(paths []string, coldDir string) (int, error) {
	archived := 0
	for _, p := range paths {
		if err := ArchiveFile(p, coldDir); err != nil {
			return archived, fmt.Errorf("archive %s: %w", filepath.Base(p), err)
		}
		archived++
	}
	return archived, nil
}
