package main

import (
	"fmt"
	"os"
	"path/filepath"
)

// discoverSource walks up from the current working directory looking for
// a file named name (spec.md §6's default "dig.yaml"), the same
// upward-parent-scan technique the teacher's runner/environment.go uses
// for its polyglot project-marker discovery, retargeted here to a single
// marker file instead of a marker set.
func discoverSource(name string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("discover: %w", err)
	}

	for {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("discover: no %q found in %s or any parent directory", name, mustGetwd())
}

func mustGetwd() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return dir
}
