package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is the complete runtime configuration, read from the environment.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host           string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port           int           `env:"SERVER_PORT" envDefault:"8080"`
	Environment    string        `env:"APP_ENV" envDefault:"development"`
	ReadTimeout    time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout   time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout    time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownGrace  time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
}

type DatabaseConfig struct {
	Driver          string        `env:"DB_DRIVER" envDefault:"postgres"`
	URL             string        `env:"DATABASE_URL"`
	Host            string        `env:"DB_HOST" envDefault:"localhost"`
	Port            int           `env:"DB_PORT" envDefault:"5432"`
	User            string        `env:"DB_USER" envDefault:"postgres"`
	Password        string        `env:"DB_PASSWORD"`
	Name            string        `env:"DB_NAME" envDefault:"todo_manager"`
	SSLMode         string        `env:"DB_SSLMODE" envDefault:"disable"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"`
	ConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"30m"`
	// MigrationsPath overrides the embedded migrations, e.g. "file://migrations/postgres".
	MigrationsPath string `env:"DB_MIGRATIONS_PATH"`
}

type RedisConfig struct {
	Enabled      bool          `env:"REDIS_ENABLED" envDefault:"true"`
	Host         string        `env:"REDIS_HOST" envDefault:"localhost"`
	Port         int           `env:"REDIS_PORT" envDefault:"6379"`
	Password     string        `env:"REDIS_PASSWORD"`
	DB           int           `env:"REDIS_DB" envDefault:"0"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

type JWTConfig struct {
	Secret     string        `env:"JWT_SECRET_KEY" envDefault:"change-me"`
	Issuer     string        `env:"JWT_ISSUER" envDefault:"todo-manager"`
	AccessTTL  time.Duration `env:"JWT_ACCESS_TOKEN_EXPIRES" envDefault:"30m"`
	RefreshTTL time.Duration `env:"JWT_REFRESH_TOKEN_EXPIRES" envDefault:"168h"`
}

type RateLimitConfig struct {
	RequestsPerMin int `env:"RATE_LIMIT_REQUESTS_PER_MIN" envDefault:"600"`
	BurstSize      int `env:"RATE_LIMIT_BURST" envDefault:"50"`
	// AuthPerMin bounds login/register attempts per client IP when Redis is available.
	AuthPerMin     int `env:"RATE_LIMIT_AUTH_PER_MIN" envDefault:"20"`
	// BulkPerMin bounds bulk writes per authenticated user when Redis is available.
	BulkPerMin     int `env:"RATE_LIMIT_BULK_PER_MIN" envDefault:"30"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"console"`
}

// LoadConfig parses the environment into a Config and validates it.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want %q or %q)", c.Database.Driver, DriverPostgres, DriverSQLite)
	}
	if c.Database.Driver == DriverSQLite && c.Database.URL == "" {
		return errors.New("DATABASE_URL is required for the sqlite driver")
	}
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET_KEY must not be empty")
	}
	if c.IsProduction() && c.JWT.Secret == "change-me" {
		return errors.New("JWT_SECRET_KEY must be set in production")
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func (c *Config) GetServerAddr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

func (c *Config) GetRedisAddr() string {
	return net.JoinHostPort(c.Redis.Host, strconv.Itoa(c.Redis.Port))
}

// DSN returns the connection string for the configured driver. DATABASE_URL
// wins when set; otherwise a Postgres keyword/value DSN is assembled.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}
