package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMigrationName(t *testing.T) {
	tests := []struct {
		filename string
		valid    bool
		version  int
		name     string
	}{
		{"0001_ledger.sql", true, 1, "ledger"},
		{"0012_add_index.sql", true, 12, "add_index"},
		{"001_short.sql", false, 0, ""},
		{"0001_ledger", false, 0, ""},
		{"0001.sql", false, 0, ""},
		{"ledger_0001.sql", false, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, ok := parseMigrationName(tt.filename)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.version, version)
			assert.Equal(t, tt.name, name)
		})
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestReadMigrations(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "0002_second.sql", "SELECT 2;")
	writeFile(t, dir, "0001_first.sql", "CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.t` (x INT64);")
	writeFile(t, dir, "README.md", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "0003_dir.sql"), 0o755))

	migrations, err := readMigrations(dir, map[string]string{
		"{{PROJECT_ID}}": "proj",
		"{{DATASET_ID}}": "ledger",
	})
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "first", migrations[0].Name)
	assert.Equal(t, "CREATE TABLE `proj.ledger.t` (x INT64);", migrations[0].SQL)
	assert.Equal(t, 2, migrations[1].Version)
	assert.Len(t, migrations[0].Checksum, 64)
}

func TestReadMigrationsChecksumIgnoresPlaceholders(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "0001_first.sql", "SELECT '{{DATASET_ID}}';")

	a, err := readMigrations(dir, map[string]string{"{{DATASET_ID}}": "one"})
	require.NoError(t, err)
	b, err := readMigrations(dir, map[string]string{"{{DATASET_ID}}": "two"})
	require.NoError(t, err)

	assert.Equal(t, a[0].Checksum, b[0].Checksum)
	assert.NotEqual(t, a[0].SQL, b[0].SQL)
}

func TestReadMigrationsMissingDir(t *testing.T) {
	_, err := readMigrations(filepath.Join(t.TempDir(), "nope"), nil)
	assert.Error(t, err)
}

func TestPendingAndChanged(t *testing.T) {
	all := []Migration{
		{Version: 1, Filename: "0001_a.sql", Checksum: "aaa"},
		{Version: 2, Filename: "0002_b.sql", Checksum: "bbb"},
		{Version: 3, Filename: "0003_c.sql", Checksum: "ccc"},
	}
	applied := []AppliedMigration{
		{Version: 1, Checksum: "aaa"},
		{Version: 2, Checksum: "old"},
	}

	pending := pendingMigrations(all, applied)
	require.Len(t, pending, 1)
	assert.Equal(t, 3, pending[0].Version)

	assert.Equal(t, []string{"0002_b.sql"}, checksumMismatches(all, applied))
}

func TestShippedMigrationsParse(t *testing.T) {
	for _, backend := range []string{"bigquery", "postgres"} {
		t.Run(backend, func(t *testing.T) {
			migrations, err := readMigrations(filepath.Join("..", "..", "migrations", backend), nil)
			require.NoError(t, err)
			require.NotEmpty(t, migrations)
			assert.True(t, strings.Contains(migrations[0].SQL, "ledger_entries"))
			assert.True(t, strings.Contains(migrations[0].SQL, "ledger_categories"))
		})
	}
}
