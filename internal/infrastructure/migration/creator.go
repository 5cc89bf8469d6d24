package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const upTemplate = `-- Migration: %s
-- Created: %s
-- Description: %s

-- Write the UP migration below. Ledger conventions: money and quantity
-- columns are numeric, identifiers are uuid, and unique indexes are named
-- ux_<table>_<columns>.

`

const downTemplate = `-- Migration: %s (Rollback)
-- Created: %s
-- Description: Rollback for %s

-- Write the DOWN migration below. Drop objects in reverse dependency order.

`

// FilePair is a created up/down migration pair
type FilePair struct {
	Version  string
	UpPath   string
	DownPath string
}

// Create writes an empty up/down migration pair into dir. Versions are
// second-resolution timestamps, so pairs created in order sort in order.
func Create(dir, name, description string) (*FilePair, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	now := time.Now()
	version := now.Format("20060102150405")
	created := now.Format(time.RFC3339)

	base := filepath.Join(dir, fmt.Sprintf("%s_%s", version, normalizeName(name)))
	pair := &FilePair{
		Version:  version,
		UpPath:   base + ".up.sql",
		DownPath: base + ".down.sql",
	}

	up := fmt.Sprintf(upTemplate, name, created, description)
	if err := os.WriteFile(pair.UpPath, []byte(up), 0o644); err != nil {
		return nil, fmt.Errorf("failed to create up migration: %w", err)
	}

	down := fmt.Sprintf(downTemplate, name, created, description)
	if err := os.WriteFile(pair.DownPath, []byte(down), 0o644); err != nil {
		// Do not leave a half pair behind; golang-migrate refuses odd sets.
		_ = os.Remove(pair.UpPath)
		return nil, fmt.Errorf("failed to create down migration: %w", err)
	}

	return pair, nil
}

// normalizeName lowercases a migration name and collapses separator runs to
// single underscores, dropping anything that is not [a-z0-9].
func normalizeName(name string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			pending = true
		}
	}
	return b.String()
}

// List returns the base names of the migration pairs in dir, in version
// order. A missing directory lists as empty.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		base, ok := strings.CutSuffix(entry.Name(), ".up.sql")
		if !ok {
			continue
		}
		names = append(names, base)
	}
	return names, nil
}
