package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"artfeed/internal/config"
	"artfeed/internal/models"
	"artfeed/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRuntime_SQLiteWithoutRedis(t *testing.T) {
	cfg := &config.Config{
		DBDriver: "sqlite",
		DBPath:   filepath.Join(t.TempDir(), "artfeed.db"),
	}

	db, rdb, err := InitRuntime(context.Background(), cfg, Options{SeedBuiltIns: true})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	assert.Nil(t, rdb)
	var tags int64
	require.NoError(t, db.Model(&models.Tag{}).Count(&tags).Error)
	assert.NotZero(t, tags)
}

func TestInitRuntime_UnsupportedDriver(t *testing.T) {
	_, _, err := InitRuntime(context.Background(), &config.Config{DBDriver: "oracle"}, Options{})
	assert.Error(t, err)
}

func TestSetAdmin(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	testutil.CreateUser(t, db, "curator")

	changed, err := SetAdmin(ctx, db, "curator", true)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = SetAdmin(ctx, db, "curator", true)
	require.NoError(t, err)
	assert.False(t, changed)

	admins, err := ListAdmins(ctx, db)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "curator", admins[0].Username)

	_, err = SetAdmin(ctx, db, "nobody", true)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}
