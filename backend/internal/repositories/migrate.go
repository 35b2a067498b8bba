package repositories

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

//go:embed migrations
var embeddedMigrations embed.FS

type MigrationConfig struct {
	// Driver selects both the database driver and the embedded migration set.
	Driver string
	// MigrationsPath, when set, replaces the embedded set (e.g. "file://migrations/postgres").
	MigrationsPath string
	DBName         string
	MaxRetries     int
	RetryDelay     time.Duration
}

func DefaultMigrationConfig() *MigrationConfig {
	return &MigrationConfig{
		Driver:     "postgres",
		DBName:     "todo_manager",
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
	}
}

func RunMigrations(db *gorm.DB, config *MigrationConfig) error {
	if config == nil {
		config = DefaultMigrationConfig()
	}

	logger := log.With().Str("component", "migrate").Str("driver", config.Driver).Logger()
	logger.Info().Str("source", sourceLabel(config)).Msg("starting database migrations")

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := waitForDatabase(sqlDB, config.MaxRetries, config.RetryDelay); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}

	m, err := newMigrate(sqlDB, config)
	if err != nil {
		return err
	}

	currentVersion, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		logger.Info().Msg("no migrations applied yet")
	case err != nil:
		logger.Warn().Err(err).Msg("could not get current migration version")
	default:
		logger.Info().Uint("version", currentVersion).Bool("dirty", dirty).Msg("current migration version")
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info().Msg("database schema is up to date")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	finalVersion, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to get final migration version: %w", err)
	}

	logger.Info().Uint("version", finalVersion).Bool("dirty", dirty).Msg("database migrations completed")

	if tables, err := listTables(sqlDB, config.Driver); err != nil {
		logger.Warn().Err(err).Msg("could not retrieve migration details")
	} else {
		logger.Debug().Strs("tables", tables).Msg("database tables")
	}

	return nil
}

func RollbackMigration(db *gorm.DB, config *MigrationConfig) error {
	if config == nil {
		config = DefaultMigrationConfig()
	}

	log.Info().Str("driver", config.Driver).Msg("rolling back last migration")

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	m, err := newMigrate(sqlDB, config)
	if err != nil {
		return err
	}

	if err := m.Steps(-1); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	log.Info().Msg("migration rolled back successfully")
	return nil
}

func GetMigrationVersion(db *gorm.DB, config *MigrationConfig) (uint, bool, error) {
	if config == nil {
		config = DefaultMigrationConfig()
	}

	sqlDB, err := db.DB()
	if err != nil {
		return 0, false, fmt.Errorf("failed to get database instance: %w", err)
	}

	m, err := newMigrate(sqlDB, config)
	if err != nil {
		return 0, false, err
	}

	return m.Version()
}

// newMigrate builds a migrator over an existing connection pool. The
// returned instance is never closed: closing it would close sqlDB.
func newMigrate(sqlDB *sql.DB, config *MigrationConfig) (*migrate.Migrate, error) {
	driver, err := databaseDriver(sqlDB, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	if config.MigrationsPath != "" {
		m, err := migrate.NewWithDatabaseInstance(config.MigrationsPath, config.DBName, driver)
		if err != nil {
			return nil, fmt.Errorf("failed to create migration instance: %w", err)
		}
		return m, nil
	}

	src, err := iofs.New(embeddedMigrations, "migrations/"+config.Driver)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, config.DBName, driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return m, nil
}

func databaseDriver(sqlDB *sql.DB, config *MigrationConfig) (database.Driver, error) {
	switch config.Driver {
	case "postgres":
		return postgres.WithInstance(sqlDB, &postgres.Config{
			DatabaseName:          config.DBName,
			MigrationsTable:       "schema_migrations",
			MigrationsTableQuoted: false,
			MultiStatementEnabled: true,
			MultiStatementMaxSize: 10 * 1 << 20, // 10 MB
		})
	case "sqlite":
		return sqlite3.WithInstance(sqlDB, &sqlite3.Config{
			DatabaseName:    config.DBName,
			MigrationsTable: "schema_migrations",
		})
	default:
		return nil, fmt.Errorf("unsupported migration driver %q", config.Driver)
	}
}

func sourceLabel(config *MigrationConfig) string {
	if config.MigrationsPath != "" {
		return config.MigrationsPath
	}
	return "embedded:migrations/" + config.Driver
}

func waitForDatabase(db *sql.DB, maxRetries int, retryDelay time.Duration) error {
	if maxRetries < 1 {
		maxRetries = 1
	}
	for i := 0; i < maxRetries; i++ {
		if err := db.Ping(); err == nil {
			return nil
		}
		if i < maxRetries-1 {
			log.Warn().Dur("retry_in", retryDelay).Int("attempt", i+1).Int("max", maxRetries).Msg("database not ready, retrying")
			time.Sleep(retryDelay)
		}
	}
	return fmt.Errorf("database not ready after %d attempts", maxRetries)
}

func listTables(db *sql.DB, driver string) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		AND table_type = 'BASE TABLE'
		ORDER BY table_name`
	if driver == "sqlite" {
		query = `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
	}

	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			continue
		}
		tables = append(tables, tableName)
	}

	return tables, rows.Err()
}
