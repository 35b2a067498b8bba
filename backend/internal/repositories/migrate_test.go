package repositories

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-manager/backend/internal/database"
)

func openSQLite(t *testing.T) *database.DatabasePool {
	t.Helper()

	pc := database.DefaultPoolConfig()
	pc.Driver = "sqlite"
	pc.DSN = "file:" + filepath.Join(t.TempDir(), "migrate.db") + "?_foreign_keys=on"

	pool, err := database.NewDatabasePool(pc)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	return pool
}

func sqliteMigrationConfig() *MigrationConfig {
	return &MigrationConfig{
		Driver:     "sqlite",
		DBName:     "test",
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
	}
}

func TestRunMigrations_SQLite(t *testing.T) {
	pool := openSQLite(t)

	require.NoError(t, RunMigrations(pool.DB, sqliteMigrationConfig()))

	version, dirty, err := GetMigrationVersion(pool.DB, sqliteMigrationConfig())
	require.NoError(t, err)
	assert.Equal(t, uint(3), version)
	assert.False(t, dirty)

	for _, table := range []string{"users", "todos", "items", "token_blocklist"} {
		assert.True(t, pool.Migrator().HasTable(table), table)
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	pool := openSQLite(t)

	require.NoError(t, RunMigrations(pool.DB, sqliteMigrationConfig()))
	require.NoError(t, RunMigrations(pool.DB, sqliteMigrationConfig()))
}

func TestRollbackMigration(t *testing.T) {
	pool := openSQLite(t)
	require.NoError(t, RunMigrations(pool.DB, sqliteMigrationConfig()))

	require.NoError(t, RollbackMigration(pool.DB, sqliteMigrationConfig()))

	version, _, err := GetMigrationVersion(pool.DB, sqliteMigrationConfig())
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, pool.Migrator().HasTable("token_blocklist"))
}

func TestItemStatusCheckConstraint(t *testing.T) {
	pool := openSQLite(t)
	require.NoError(t, RunMigrations(pool.DB, sqliteMigrationConfig()))

	require.NoError(t, pool.Exec(`INSERT INTO users (username, email, password) VALUES ('u', 'u@x.com', 'h')`).Error)
	require.NoError(t, pool.Exec(`INSERT INTO todos (title, user_id) VALUES ('t', 1)`).Error)

	err := pool.Exec(`INSERT INTO items (content, status, todo_id) VALUES ('c', 'Done', 1)`).Error
	assert.Error(t, err)
}

func TestRunMigrations_UnsupportedDriver(t *testing.T) {
	pool := openSQLite(t)

	cfg := sqliteMigrationConfig()
	cfg.Driver = "mysql"

	assert.ErrorContains(t, RunMigrations(pool.DB, cfg), "unsupported migration driver")
}
