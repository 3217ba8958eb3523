package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "dtplot.db"), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestPragmasApplied(t *testing.T) {
	db := setupTestDB(t)

	var journalMode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var busyTimeout int
	require.NoError(t, db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	assert.Equal(t, 5000, busyTimeout)

	var foreignKeys int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys))
	assert.Equal(t, 1, foreignKeys)
}

func TestOpenDBLeavesSchemaAlone(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	defer db.Close()

	assert.False(t, tableExists(t, db, "events"))
	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, dirty)
}

func TestMigrations(t *testing.T) {
	db := setupTestDB(t)

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)
	assert.True(t, tableExists(t, db, "events"))
	assert.True(t, tableExists(t, db, "cell_hits"))

	require.NoError(t, db.MigrateUp(), "up is idempotent")

	require.NoError(t, db.MigrateDown())
	version, _, err = db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, tableExists(t, db, "cell_hits"))
	assert.True(t, tableExists(t, db, "events"))

	require.NoError(t, db.MigrateTo(2))
	assert.True(t, tableExists(t, db, "cell_hits"))

	require.NoError(t, db.MigrateForce(1))
	version, dirty, err = db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}

func TestNewDBBadPath(t *testing.T) {
	_, err := NewDB(filepath.Join(t.TempDir(), "missing", "dir", "x.db"))
	assert.Error(t, err)
}
