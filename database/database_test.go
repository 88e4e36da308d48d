package database_test

import (
	"context"
	"testing"

	"stuti/config"
	"stuti/database"
	"stuti/database/dbtest"
	"stuti/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateCreatesTables(t *testing.T) {
	db := dbtest.New(t)

	for _, model := range models.All() {
		assert.True(t, db.Migrator().HasTable(model), "missing table for %T", model)
	}
	assert.True(t, db.Migrator().HasIndex(&models.Member{}, "Nickname"))
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := database.Open(context.Background(), config.DBConfig{Driver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}
