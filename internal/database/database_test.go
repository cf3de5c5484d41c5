package database

import (
	"testing"

	"evcircle/internal/config"
	"evcircle/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestConnectSQLiteMigrates(t *testing.T) {
	cfg := &config.Config{
		StorageDriver: config.DriverSQLite,
		SQLitePath:    "file:connect_test?mode=memory&cache=shared",
		DBAutoMigrate: true,
	}
	db, err := Connect(cfg)
	require.NoError(t, err)

	for _, m := range PersistentModels() {
		assert.True(t, db.Migrator().HasTable(m), "missing table for %T", m)
	}
	assert.True(t, db.Migrator().HasIndex(&models.Bookmark{}, "idx_bookmarks_user_target"))

	// Re-running is a no-op.
	assert.NoError(t, Migrate(db))
}

func TestConnectRejectsNonSQLDriver(t *testing.T) {
	_, err := Connect(&config.Config{StorageDriver: config.DriverMemory})
	assert.Error(t, err)
}

func TestPostgresDSNDefaultsSSLMode(t *testing.T) {
	dsn := PostgresDSN(&config.Config{DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "evcircle"})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=evcircle sslmode=disable", dsn)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "evcircle.db?_busy_timeout=5000", SQLiteDSN("evcircle.db"))
	assert.Equal(t, "file:x?mode=memory&_busy_timeout=5000", SQLiteDSN("file:x?mode=memory"))
}

func TestConnectSQLiteLeavesConfigUntouched(t *testing.T) {
	cfg := &config.Config{
		StorageDriver:  config.DriverSQLite,
		SQLitePath:     "file:pool_test?mode=memory&cache=shared",
		DBMaxOpenConns: 25,
	}
	db, err := Connect(cfg)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	assert.Equal(t, 25, cfg.DBMaxOpenConns)
}
