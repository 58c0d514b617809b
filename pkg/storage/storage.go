package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DefaultSuffix marks partial-result files eligible for merging.
const DefaultSuffix = "_wc.txt"

type Storage struct{}

// FileStats holds metadata about a file without reading its contents.
type FileStats struct {
	SizeBytes int64
	ModTime   time.Time
}

// PendingFile is one file of a WriteFilesAtomic call.
type PendingFile struct {
	Path  string
	Write func(w io.Writer) error
}

// WriteFileAtomic creates filePath with the output of write. The data goes to
// a temporary file in the same directory that is renamed into place only
// after write succeeds, so a failed write leaves no file behind.
func (s *Storage) WriteFileAtomic(filePath string, write func(w io.Writer) error) error {
	return s.WriteFilesAtomic(PendingFile{Path: filePath, Write: write})
}

// WriteFilesAtomic writes files as a unit. Every file is staged to a
// temporary file first and nothing is renamed into place until all of them
// are written. If a rename fails, the files this call already placed are
// removed again.
func (s *Storage) WriteFilesAtomic(files ...PendingFile) error {
	staged := make([]string, 0, len(files))
	discard := func(tmpNames []string) {
		for _, name := range tmpNames {
			_ = os.Remove(name)
		}
	}

	for _, f := range files {
		tmpName, err := stage(f.Path, f.Write)
		if err != nil {
			discard(staged)
			return err
		}
		staged = append(staged, tmpName)
	}

	for i, f := range files {
		if err := os.Rename(staged[i], f.Path); err != nil {
			for _, placed := range files[:i] {
				_ = os.Remove(placed.Path)
			}
			discard(staged[i:])
			return fmt.Errorf("error saving file: %w", err)
		}
	}
	return nil
}

// stage writes a temporary file next to filePath and returns its name.
func stage(filePath string, write func(w io.Writer) error) (string, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("error creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filePath)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("error creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	ok := false
	defer func() {
		if !ok {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err := write(tmp); err != nil {
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		return "", fmt.Errorf("error syncing file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("error closing file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return "", fmt.Errorf("error setting file mode: %w", err)
	}
	ok = true
	return tmpName, nil
}

// SaveFile writes content to filePath atomically.
func (s *Storage) SaveFile(filePath string, content []byte) error {
	return s.WriteFileAtomic(filePath, func(w io.Writer) error {
		_, err := w.Write(content)
		return err
	})
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !os.IsNotExist(err)
}

func (s *Storage) HasFile(fn string) bool {
	return fileExists(fn)
}

// GetFileStats returns metadata about a file using os.Stat (no I/O overhead).
func (s *Storage) GetFileStats(filePath string) (*FileStats, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("error getting file stats: %w", err)
	}

	return &FileStats{
		SizeBytes: info.Size(),
		ModTime:   info.ModTime(),
	}, nil
}

// ListPartials returns the regular files in dir whose names end in suffix,
// sorted by name. Subdirectories are not searched.
func (s *Storage) ListPartials(dir, suffix string) ([]string, error) {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error listing directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
