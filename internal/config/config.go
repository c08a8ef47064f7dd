// Package config provides configuration management for the City Guide server.
// Configuration can be loaded from YAML files, a .env file and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Database drivers.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Session stores.
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Config represents the complete application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Session  SessionConfig  `mapstructure:"session"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Media    MediaConfig    `mapstructure:"media"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// RequestTimeout bounds every request, including store round-trips.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// MaxBodySize caps form and JSON request bodies.
	MaxBodySize int64 `mapstructure:"max_body_size"`
}

// Addr returns the listen address in host:port format.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds database connection settings.
// Supports MongoDB, PostgreSQL, SQLite and an in-memory store.
type DatabaseConfig struct {
	// Driver specifies the database driver: "mongo", "postgres", "sqlite" or "memory".
	Driver string `mapstructure:"driver"`

	// URL is the connection string for mongo and postgres.
	// DATABASE_URL is honoured as an alias.
	URL string `mapstructure:"url"`

	// Name overrides the MongoDB database name taken from URL.
	Name string `mapstructure:"name"`

	// ConnectTimeout bounds the initial connect and ping.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`

	// PostgreSQL pool settings (used when Driver is "postgres")
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`

	// SQLite settings (used when Driver is "sqlite")
	Path            string `mapstructure:"path"`             // Path to SQLite database file
	JournalMode     string `mapstructure:"journal_mode"`     // WAL, DELETE, TRUNCATE, etc.
	BusyTimeout     int    `mapstructure:"busy_timeout"`     // Milliseconds to wait for locks
	CacheSize       int    `mapstructure:"cache_size"`       // Page cache size (negative = KB)
	SynchronousMode string `mapstructure:"synchronous_mode"` // NORMAL, FULL, OFF
}

// IsSQL returns true for drivers managed by SQL migrations.
func (c DatabaseConfig) IsSQL() bool {
	return c.Driver == DriverPostgres || c.Driver == DriverSQLite
}

// DatabaseName returns the MongoDB database name: Name if set,
// otherwise the path component of URL ("guide-app" for the default URL).
func (c DatabaseConfig) DatabaseName() string {
	if c.Name != "" {
		return c.Name
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	PoolSize    int           `mapstructure:"pool_size"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Enabled     bool          `mapstructure:"enabled"`
}

// Addr returns the Redis address in host:port format.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SessionConfig holds session cookie and storage settings.
type SessionConfig struct {
	// Store is "memory" (single process) or "redis" (shared).
	Store string `mapstructure:"store"`

	CookieName string        `mapstructure:"cookie_name"`
	TTL        time.Duration `mapstructure:"ttl"`

	// Secure marks the cookie HTTPS-only.
	Secure bool `mapstructure:"secure"`
}

// SeedUser describes a user created at startup or by the admin CLI.
type SeedUser struct {
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	FirstName string `mapstructure:"first_name"`
	LastName  string `mapstructure:"last_name"`
	Hometown  string `mapstructure:"hometown"`
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	// AdminUsername is the reserved username with administrative rights.
	AdminUsername string `mapstructure:"admin_username"`

	// AdminPassword, when set, seeds the admin account at startup.
	AdminPassword string `mapstructure:"admin_password"`

	// BcryptCost is the work factor for password hashes.
	BcryptCost int `mapstructure:"bcrypt_cost"`

	// Seed lists additional users to create when missing.
	Seed []SeedUser `mapstructure:"seed"`

	// SeedOnStart creates the admin and seed users when the server starts.
	SeedOnStart bool `mapstructure:"seed_on_start"`
}

// SeedUsers returns the admin account (when a password is configured)
// followed by the configured seed users.
func (c AuthConfig) SeedUsers() []SeedUser {
	users := make([]SeedUser, 0, len(c.Seed)+1)
	if c.AdminPassword != "" {
		users = append(users, SeedUser{
			Username:  c.AdminUsername,
			Password:  c.AdminPassword,
			FirstName: "Admin",
			LastName:  "Admin",
			Hometown:  "Outer Space",
		})
	}
	return append(users, c.Seed...)
}

// MediaConfig holds settings for photo uploads to S3-compatible storage.
type MediaConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`

	// PublicBaseURL prefixes object keys to form the stored photoLink.
	PublicBaseURL string `mapstructure:"public_base_url"`

	// UsePathStyle is required by most self-hosted S3 implementations.
	UsePathStyle bool `mapstructure:"use_path_style"`

	// MaxUploadSize caps a single photo in bytes.
	MaxUploadSize int64 `mapstructure:"max_upload_size"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	// Enabled determines if metrics collection is active.
	Enabled bool `mapstructure:"enabled"`

	// Path is the URL path for the metrics endpoint.
	Path string `mapstructure:"path"`
}

// Load reads configuration from the specified file and environment variables.
// Environment variables take precedence over file values.
// Environment variables are prefixed with CITYGUIDE_ and use _ as separator;
// a .env file in the working directory is loaded first when present.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Environment variable configuration
	v.SetEnvPrefix("CITYGUIDE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Conventional unprefixed names used by hosting platforms.
	_ = v.BindEnv("server.port", "CITYGUIDE_SERVER_PORT", "PORT")
	_ = v.BindEnv("database.url", "CITYGUIDE_DATABASE_URL", "DATABASE_URL")

	// Config file configuration
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/cityguide")
	}

	// Read config file (optional - environment variables can be used instead)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.request_timeout", 15*time.Second)
	v.SetDefault("server.max_body_size", 1<<20) // 1MB

	// Database defaults
	v.SetDefault("database.driver", DriverMongo)
	v.SetDefault("database.url", "mongodb://localhost/guide-app")
	v.SetDefault("database.name", "")
	v.SetDefault("database.connect_timeout", 10*time.Second)
	v.SetDefault("database.max_conns", 25)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.conn_max_idle_time", 5*time.Minute)
	// SQLite defaults
	v.SetDefault("database.path", "./data/cityguide.db")
	v.SetDefault("database.journal_mode", "WAL")
	v.SetDefault("database.busy_timeout", 5000)
	v.SetDefault("database.cache_size", -2000)
	v.SetDefault("database.synchronous_mode", "NORMAL")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.enabled", false)

	// Session defaults
	v.SetDefault("session.store", SessionStoreMemory)
	v.SetDefault("session.cookie_name", "cityguide_session")
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.secure", false)

	// Auth defaults
	v.SetDefault("auth.admin_username", "admin")
	v.SetDefault("auth.admin_password", "")
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.seed_on_start", true)

	// Media defaults
	v.SetDefault("media.enabled", false)
	v.SetDefault("media.region", "us-east-1")
	v.SetDefault("media.bucket", "cityguide-photos")
	v.SetDefault("media.use_path_style", true)
	v.SetDefault("media.max_upload_size", 5*1024*1024) // 5MB

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Validate checks the configuration for required values and valid ranges.
func (c *Config) Validate() error {
	// Validate server configuration
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.RequestTimeout < 0 {
		return fmt.Errorf("server.request_timeout must not be negative")
	}

	// Validate database configuration
	switch c.Database.Driver {
	case DriverMongo:
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for mongo driver")
		}
		if c.Database.DatabaseName() == "" {
			return fmt.Errorf("database.name is required when database.url has no path")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for postgres driver")
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver must be one of: mongo, postgres, sqlite, memory")
	}

	// Validate session configuration
	switch c.Session.Store {
	case SessionStoreMemory:
	case SessionStoreRedis:
		if !c.Redis.Enabled {
			return fmt.Errorf("session.store 'redis' requires redis.enabled")
		}
	default:
		return fmt.Errorf("session.store must be 'memory' or 'redis'")
	}
	if c.Session.CookieName == "" {
		return fmt.Errorf("session.cookie_name is required")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}

	// Validate auth configuration
	if c.Auth.AdminUsername == "" {
		return fmt.Errorf("auth.admin_username is required")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost must be between 4 and 31")
	}
	for i, u := range c.Auth.Seed {
		if u.Username == "" || u.Password == "" {
			return fmt.Errorf("auth.seed[%d] requires username and password", i)
		}
	}

	// Validate media configuration
	if c.Media.Enabled {
		if c.Media.Bucket == "" {
			return fmt.Errorf("media.bucket is required when media is enabled")
		}
		if c.Media.MaxUploadSize <= 0 {
			return fmt.Errorf("media.max_upload_size must be positive")
		}
	}

	// Validate logging configuration
	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be one of: trace, debug, info, warn, error, fatal, panic")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}
