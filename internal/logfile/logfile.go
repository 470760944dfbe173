// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logfile creates one timestamped log file per run and removes
// the oldest ones.
package logfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const (
	prefix     = "sync-"
	timeLayout = "2006-01-02T15-04-05"
)

// now is replaced in tests.
var now = time.Now

// Create opens a new log file in dir named after the current time and
// deletes older files so that at most keep remain. A keep of zero or
// less disables cleanup. The caller closes the file.
func Create(dir string, keep int) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	name := filepath.Join(dir, prefix+now().Format(timeLayout)+".log")
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating log file: %w", err)
	}

	if keep > 0 {
		if err := cleanup(dir, keep); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to clean up old logs: %v\n", err)
		}
	}
	return f, nil
}

// cleanup removes the oldest log files beyond keep. The timestamp in the
// name sorts chronologically.
func cleanup(dir string, keep int) error {
	files, err := filepath.Glob(filepath.Join(dir, prefix+"*.log"))
	if err != nil {
		return err
	}
	if len(files) <= keep {
		return nil
	}

	sort.Strings(files)
	for _, f := range files[:len(files)-keep] {
		if err := os.Remove(f); err != nil {
			return fmt.Errorf("remove %s: %w", f, err)
		}
	}
	return nil
}
