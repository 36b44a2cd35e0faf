// Package artifact writes rendered chart thumbnails to a directory.
package artifact

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gitlab.com/tinyland/lab/sysgraph/chart"
	"gitlab.com/tinyland/lab/sysgraph/collectors"
)

// Store keeps the latest thumbnail per entry in a flat directory:
//
//	<dir>/
//	  cpu-0.svg
//	  network-0.svg
//	  network-1.svg
//
// Each write replaces the previous file; no history is kept.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates a store at dir, creating the directory if needed.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("artifact: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("artifact: create directory %s: %w", dir, err)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the output directory.
func (s *Store) Dir() string {
	return s.dir
}

// Name returns the file name for entry idx of domain d.
func Name(d collectors.Domain, idx int) string {
	return d.String() + "-" + strconv.Itoa(idx) + ".svg"
}

// WriteCollector renders every entry of c and writes one file per entry.
// Failures are logged per entry; the first error is returned.
func (s *Store) WriteCollector(c collectors.Collector) error {
	var first error
	d := c.Domain()
	for i := 0; i < c.Count(); i++ {
		svg := chart.SVG(c.History(i), d)
		if err := s.Write(Name(d, i), []byte(svg)); err != nil {
			s.logger.Warn("write thumbnail failed",
				"domain", d.String(),
				"entry", c.EntryName(i),
				"error", err,
			)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// Write replaces name with data atomically (write to temp file, then
// rename) so readers never see a partial file.
func (s *Store) Write(name string, data []byte) error {
	path := filepath.Join(s.dir, name)

	tmp, err := os.CreateTemp(s.dir, ".tmp-"+name+"-*")
	if err != nil {
		return fmt.Errorf("artifact: create temp for %s: %w", name, err)
	}
	tmpName := tmp.Name()

	// Clean up the temp file on any failure path.
	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpName)
		}
	}()

	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("artifact: chmod temp for %s: %w", name, err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("artifact: write temp for %s: %w", name, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("artifact: close temp for %s: %w", name, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("artifact: rename temp for %s: %w", name, err)
	}

	success = true
	return nil
}

// Names returns the thumbnails currently in the store, sorted.
func (s *Store) Names() []string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".tmp-") || !strings.HasSuffix(name, ".svg") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear removes every thumbnail from the store directory. Other files
// are left alone.
func (s *Store) Clear() error {
	for _, name := range s.Names() {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("artifact: clear remove %s: %w", name, err)
		}
	}
	return nil
}
