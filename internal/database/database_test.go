package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/screams/backend/internal/models"
)

func TestOpenSQLiteMigratesAllCollections(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)

	for _, m := range allModels {
		assert.True(t, db.Migrator().HasTable(m), "missing table for %T", m)
	}
	assert.True(t, db.Migrator().HasIndex(&models.Like{}, "idx_likes_user_scream"))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("mongo", "", nil)
	assert.Error(t, err)
}

func TestHealthWithoutConnection(t *testing.T) {
	DB = nil
	assert.Error(t, Health())
	assert.NoError(t, Close())
}
