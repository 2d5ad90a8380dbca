// Package config loads StudyDash configuration from an optional YAML file,
// an optional .env file and STUDYDASH_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment represents the application environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// Backend names accepted by store.backend.
const (
	BackendMemory   = "memory"
	BackendBolt     = "bolt"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// EnvPrefix is prepended to every environment override, e.g. STUDYDASH_STORE_BACKEND.
const EnvPrefix = "STUDYDASH"

// Config holds all application configuration.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Store         StoreConfig         `mapstructure:"store"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Leveling      LevelingConfig      `mapstructure:"leveling"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string      `mapstructure:"name"`
	Environment Environment `mapstructure:"env"`
	Debug       bool        `mapstructure:"debug"`

	// DefaultUser is used when --user is not given.
	DefaultUser string `mapstructure:"default_user"`
}

// StoreConfig selects and configures the key-value backend.
type StoreConfig struct {
	Backend     string        `mapstructure:"backend"`
	BoltPath    string        `mapstructure:"bolt_path"`
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// DatabaseConfig holds PostgreSQL settings. URL wins over the discrete fields.
type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	Name           string        `mapstructure:"name"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	SSLMode        string        `mapstructure:"sslmode"`
	MaxConns       int32         `mapstructure:"max_conns"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	AutoMigrate    bool          `mapstructure:"auto_migrate"`
}

// LevelingConfig tunes XP awards. The 100 XP level width is fixed.
type LevelingConfig struct {
	CompletionXP int `mapstructure:"completion_xp"`
}

// NotificationsConfig controls where level-up events go besides the CLI.
type NotificationsConfig struct {
	// PublishToRedis forwards level-up events to Redis pub/sub.
	// Only honored with the redis backend.
	PublishToRedis bool `mapstructure:"publish_to_redis"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `mapstructure:"log_level"` // debug, info, warn, error
	LogFormat string `mapstructure:"log_format"` // json, text
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "studydash")
	v.SetDefault("app.env", string(EnvDevelopment))
	v.SetDefault("app.debug", false)
	v.SetDefault("app.default_user", "")

	v.SetDefault("store.backend", BackendBolt)
	v.SetDefault("store.bolt_path", "data/studydash.db")
	v.SetDefault("store.open_timeout", time.Second)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "studydash:")

	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "studydash")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.connect_timeout", 5*time.Second)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("leveling.completion_xp", 10)

	v.SetDefault("notifications.publish_to_redis", false)

	v.SetDefault("observability.log_level", "info")
	v.SetDefault("observability.log_format", "text")
}

// Load reads configuration. path may name a YAML file; when empty, a
// studydash.yaml in the working directory is used if present. A .env file in
// the working directory is loaded first without overriding the environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("studydash")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.Store.Backend = strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	cfg.Observability.LogFormat = strings.ToLower(strings.TrimSpace(cfg.Observability.LogFormat))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	switch c.Store.Backend {
	case BackendMemory, BackendRedis:
	case BackendBolt:
		if c.Store.BoltPath == "" {
			errs = append(errs, "store.bolt_path is required for the bolt backend")
		}
	case BackendPostgres:
		if c.Database.URL == "" && c.Database.Host == "" {
			errs = append(errs, "database.url or database.host is required for the postgres backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.backend %q must be one of memory, bolt, redis, postgres", c.Store.Backend))
	}

	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, "redis.port must be 1-65535")
	}
	if c.Leveling.CompletionXP <= 0 {
		errs = append(errs, "leveling.completion_xp must be positive")
	}
	if c.Notifications.PublishToRedis && c.Store.Backend != BackendRedis {
		errs = append(errs, "notifications.publish_to_redis requires store.backend=redis")
	}
	switch c.Observability.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, "observability.log_format must be json or text")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}
