package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add currencies table", "add_currencies_table"},
		{"Add-Currencies-Table", "add_currencies_table"},
		{"ADD_CURRENCIES_TABLE", "add_currencies_table"},
		{"add__currencies__table", "add_currencies_table"},
		{"Add Currencies 123", "add_currencies_123"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeName(tt.input))
		})
	}
}

func TestCreate(t *testing.T) {
	dir := t.TempDir()

	pair, err := Create(dir, "add currencies table", "Currencies with per-company rates")
	require.NoError(t, err)

	// Version is a YYYYMMDDHHMMSS timestamp
	assert.Len(t, pair.Version, 14)
	assert.True(t, strings.HasSuffix(pair.UpPath, ".up.sql"))
	assert.True(t, strings.HasSuffix(pair.DownPath, ".down.sql"))

	upBase := strings.TrimSuffix(filepath.Base(pair.UpPath), ".up.sql")
	downBase := strings.TrimSuffix(filepath.Base(pair.DownPath), ".down.sql")
	assert.Equal(t, upBase, downBase)

	up, err := os.ReadFile(pair.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: add currencies table")
	assert.Contains(t, string(up), "Currencies with per-company rates")
	assert.Contains(t, string(up), "ux_<table>_<columns>")

	down, err := os.ReadFile(pair.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(Rollback)")
	assert.Contains(t, string(down), "reverse dependency order")
}

func TestCreateMakesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")

	pair, err := Create(dir, "init", "initial schema")
	require.NoError(t, err)
	assert.NotNil(t, pair)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestList(t *testing.T) {
	dir := t.TempDir()

	files := []string{
		"000001_create_ledger_schema.up.sql",
		"000001_create_ledger_schema.down.sql",
		"000002_add_currencies.up.sql",
		"000002_add_currencies.down.sql",
	}
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("-- test"), 0o644))
	}

	names, err := List(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_create_ledger_schema", "000002_add_currencies"}, names)
}

func TestListEmptyDirectory(t *testing.T) {
	names, err := List(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestListMissingDirectory(t *testing.T) {
	names, err := List(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestListIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()

	for _, f := range []string{
		"000001_init.up.sql",
		"000001_init.down.sql",
		"README.md",
		".gitkeep",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive.up.sql"), 0o755))

	names, err := List(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_init"}, names)
}
