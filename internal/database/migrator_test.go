package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrator_LoadMigrations(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"002_add_index.sql": "CREATE INDEX x ON y (z);",
		"001_init.sql":      "CREATE TABLE y (z INT);",
		"README.md":         "not a migration",
		"invalid.sql":       "SELECT 1;",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	migrations, err := NewMigrator(nil, "postgres", nil).LoadMigrations(dir)
	require.NoError(t, err)

	require.Len(t, migrations, 2)
	assert.Equal(t, "001", migrations[0].Version)
	assert.Equal(t, "001_init.sql", migrations[0].Name)
	assert.Equal(t, "002", migrations[1].Version)
	assert.Equal(t, "CREATE INDEX x ON y (z);", migrations[1].SQL)
}

func TestMigrator_LoadMigrations_ShippedFiles(t *testing.T) {
	migrations, err := NewMigrator(nil, "postgres", nil).LoadMigrations(filepath.Join("..", "..", "migrations"))
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	assert.Equal(t, "001", migrations[0].Version)
}

func TestMigrator_Run_SkipsSQLite(t *testing.T) {
	db := setupTestDB(t)

	assert.NoError(t, db.RunMigrations(t.TempDir()))
}
