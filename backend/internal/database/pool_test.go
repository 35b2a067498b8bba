package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-manager/backend/internal/config"
)

func sqliteConfig(t *testing.T) *PoolConfig {
	pc := DefaultPoolConfig()
	pc.Driver = config.DriverSQLite
	pc.DSN = "file:" + filepath.Join(t.TempDir(), "pool.db") + "?_foreign_keys=on"
	return pc
}

func TestNewDatabasePool_SQLite(t *testing.T) {
	pool, err := NewDatabasePool(sqliteConfig(t))
	require.NoError(t, err)
	defer pool.Close()

	assert.NoError(t, pool.Health())
	assert.Equal(t, config.DriverSQLite, pool.Driver())

	stats := pool.Stats()
	assert.Equal(t, 1, stats["max_open_connections"])
	assert.Equal(t, config.DriverSQLite, stats["driver"])
}

func TestNewDatabasePool_ForeignKeysEnabled(t *testing.T) {
	pool, err := NewDatabasePool(sqliteConfig(t))
	require.NoError(t, err)
	defer pool.Close()

	var enabled int
	require.NoError(t, pool.Raw("PRAGMA foreign_keys").Scan(&enabled).Error)
	assert.Equal(t, 1, enabled)
}

func TestNewDatabasePool_UnsupportedDriver(t *testing.T) {
	pc := DefaultPoolConfig()
	pc.Driver = "oracle"

	pool, err := NewDatabasePool(pc)
	assert.Nil(t, pool)
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestPoolConfigFrom(t *testing.T) {
	pc := PoolConfigFrom(config.DatabaseConfig{
		Driver:       config.DriverSQLite,
		URL:          "file:x.db",
		MaxOpenConns: 7,
		MaxIdleConns: 3,
	}, true)

	assert.Equal(t, "file:x.db", pc.DSN)
	assert.Equal(t, 7, pc.MaxOpenConns)
	assert.Equal(t, 3, pc.MaxIdleConns)
}

func TestDatabasePool_NilDB(t *testing.T) {
	pool := &DatabasePool{config: DefaultPoolConfig()}

	assert.Error(t, pool.Health())
	assert.Contains(t, pool.Stats(), "error")
	assert.NoError(t, pool.Close())
}
