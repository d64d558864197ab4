package database_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodgram/backend/config"
	"github.com/foodgram/backend/internal/database"
	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/testhelpers"
	"github.com/foodgram/backend/migrations"
)

func TestDatabaseSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		DBDriver:   "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "foodgram.db"),
	}

	db, err := database.New(cfg)
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(ctx, db))
	assert.NoError(t, database.HealthCheck(ctx, db))

	user := models.User{
		Username:     "cook",
		Email:        "cook@example.com",
		FirstName:    "Home",
		LastName:     "Cook",
		PasswordHash: "hashedpassword",
	}
	require.NoError(t, db.Create(&user).Error)
	assert.NotZero(t, user.ID)
	assert.Equal(t, models.RoleUser, user.Role)

	require.NoError(t, database.Close(db))
	assert.Error(t, database.HealthCheck(ctx, db))
}

func TestUnsupportedDriver(t *testing.T) {
	_, err := database.New(&config.Config{DBDriver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestSQLMigrationsAreRecordedOnce(t *testing.T) {
	db := testhelpers.SetupPostgres(t)
	ctx := context.Background()

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, database.ApplySQLMigrations(ctx, sqlDB, migrations.FS))

	var applied int64
	require.NoError(t, db.Table("schema_migrations").Count(&applied).Error)
	assert.Equal(t, int64(1), applied)

	assert.True(t, db.Migrator().HasTable(&models.Recipe{}))
	assert.True(t, db.Migrator().HasTable("recipe_tags"))
}

func TestRedisUnavailable(t *testing.T) {
	_, err := database.NewRedisClient(&config.Config{RedisHost: "127.0.0.1", RedisPort: "1"})
	assert.Error(t, err)
}
