package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gitlab.com/tinyland/lab/sysgraph/config"
)

// newLogger builds the process logger from cfg. With verbose the level is
// forced to debug. When toFile is set, or cfg.File names a file, output
// goes to that file; the returned closer releases it.
func newLogger(cfg config.LogConfig, verbose, toFile bool, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	if verbose {
		level = slog.LevelDebug
	}

	var (
		w      = stderr
		closer io.Closer
	)
	path := cfg.File
	if path == "" && toFile {
		path = filepath.Join(os.TempDir(), "sysgraph.log")
	}
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, f
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h), closer, nil
}
