package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-kit/internal/types"
)

func TestMigrationFiles(t *testing.T) {
	names, err := MigrationFiles()
	require.NoError(t, err)
	assert.Contains(t, names, "000001_init.up.sql")
	assert.Contains(t, names, "000001_init.down.sql")

	up, err := migrationFS.ReadFile("migrations/000001_init.up.sql")
	require.NoError(t, err)
	for _, table := range []string{"records", "skills", "questions", "regenerations"} {
		assert.Contains(t, string(up), "CREATE TABLE IF NOT EXISTS "+table)
	}
	assert.True(t, strings.Contains(string(up), "external_pool_id IS NULL OR external_id IS NOT NULL"))
}

func TestStateArgs(t *testing.T) {
	deleted, reason := stateArgs(nil)
	assert.Nil(t, deleted)
	assert.Nil(t, reason)

	active := types.Active()
	deleted, reason = stateArgs(&active)
	require.NotNil(t, deleted)
	assert.False(t, *deleted)
	assert.Nil(t, reason)

	gone := types.Deleted("removed from platform")
	deleted, reason = stateArgs(&gone)
	assert.True(t, *deleted)
	assert.Equal(t, "removed from platform", *reason)
}

func TestNullable(t *testing.T) {
	assert.Nil(t, nullable(""))
	assert.Equal(t, "EXPERT", *nullable("EXPERT"))
}
