package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMemory_AppliesMigrations(t *testing.T) {
	db, err := OpenMemory("../../migrations")
	require.NoError(t, err)
	defer db.Close()

	var tables []string
	err = db.Select(&tables, "SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name")
	require.NoError(t, err)
	for _, name := range []string{"matches", "participants", "registrations", "sessions", "sets", "tournaments", "users"} {
		assert.Contains(t, tables, name)
	}

	var guests int
	require.NoError(t, db.Get(&guests, "SELECT COUNT(*) FROM users WHERE id = '00000000-0000-0000-0000-000000000001'"))
	assert.Equal(t, 1, guests)

	// A second run has nothing to do.
	assert.NoError(t, RunMigrations(db.DB, "../../migrations"))
}

func TestInitDB(t *testing.T) {
	db, err := InitDB(t.TempDir() + "/tourney.db")
	require.NoError(t, err)
	defer db.Close()

	var fk int
	require.NoError(t, db.Get(&fk, "PRAGMA foreign_keys"))
	assert.Equal(t, 1, fk)
}
