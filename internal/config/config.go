package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tinoosan/microfin/internal/ledger"
	"github.com/tinoosan/microfin/internal/snapshot"
)

// EnvPrefix namespaces environment overrides, e.g. MICROFIN_HTTP_ADDR.
const EnvPrefix = "MICROFIN"

// Config holds all configuration for the service and the CLI.
type Config struct {
	HTTP    HTTPConfig    `mapstructure:"http"`
	Log     LogConfig     `mapstructure:"log"`
	Storage StorageConfig `mapstructure:"storage"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Ledger  LedgerConfig  `mapstructure:"ledger"`
}

type HTTPConfig struct {
	Addr              string        `mapstructure:"addr"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	// CORSOrigins lists browser origins allowed to call the API. Empty disables CORS.
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json|text
}

// StorageConfig selects where the record store snapshot lives.
type StorageConfig struct {
	Backend    string      `mapstructure:"backend"` // memory|file|sqlite|postgres|redis
	Key        string      `mapstructure:"key"`
	Dir        string      `mapstructure:"dir"`
	SQLitePath string      `mapstructure:"sqlite_path"`
	DSN        string      `mapstructure:"dsn"`
	Redis      RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type LedgerConfig struct {
	// Currency is only used to format amounts for display.
	Currency string `mapstructure:"currency"`
}

const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Default returns a configuration that runs locally with an in-memory store.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:              ":8080",
			ReadTimeout:       5 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "json"},
		Storage: StorageConfig{
			Backend:    BackendMemory,
			Key:        snapshot.DefaultKey,
			Dir:        "./data",
			SQLitePath: "./data/microfin.db",
			Redis:      RedisConfig{Prefix: "microfin:"},
		},
		Auth:   AuthConfig{Issuer: "microfin", TokenTTL: 12 * time.Hour},
		Ledger: LedgerConfig{Currency: ledger.DefaultCurrency},
	}
}

// aliases maps config keys to the bare environment variables honoured besides the
// MICROFIN_ prefixed form.
var aliases = map[string]string{
	"storage.dsn":        "DATABASE_URL",
	"storage.redis.addr": "REDIS_ADDR",
	"log.level":          "LOG_LEVEL",
	"log.format":         "LOG_FORMAT",
	"auth.jwt_secret":    "JWT_HS256_SECRET",
	"auth.issuer":        "JWT_ISSUER",
}

// Load layers defaults, the optional config file at path and the environment, in
// that order of increasing precedence.
func Load(v *viper.Viper, path string) (*Config, error) {
	def := Default()
	setDefaults(v, def)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range aliases {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	cfg.Ledger.Currency = strings.ToUpper(strings.TrimSpace(cfg.Ledger.Currency))
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("http.addr", c.HTTP.Addr)
	v.SetDefault("http.read_timeout", c.HTTP.ReadTimeout)
	v.SetDefault("http.read_header_timeout", c.HTTP.ReadHeaderTimeout)
	v.SetDefault("http.write_timeout", c.HTTP.WriteTimeout)
	v.SetDefault("http.idle_timeout", c.HTTP.IdleTimeout)
	v.SetDefault("http.shutdown_timeout", c.HTTP.ShutdownTimeout)
	v.SetDefault("http.cors_origins", c.HTTP.CORSOrigins)
	v.SetDefault("log.level", c.Log.Level)
	v.SetDefault("log.format", c.Log.Format)
	v.SetDefault("storage.backend", c.Storage.Backend)
	v.SetDefault("storage.key", c.Storage.Key)
	v.SetDefault("storage.dir", c.Storage.Dir)
	v.SetDefault("storage.sqlite_path", c.Storage.SQLitePath)
	v.SetDefault("storage.dsn", c.Storage.DSN)
	v.SetDefault("storage.redis.addr", c.Storage.Redis.Addr)
	v.SetDefault("storage.redis.password", c.Storage.Redis.Password)
	v.SetDefault("storage.redis.db", c.Storage.Redis.DB)
	v.SetDefault("storage.redis.prefix", c.Storage.Redis.Prefix)
	v.SetDefault("auth.jwt_secret", c.Auth.JWTSecret)
	v.SetDefault("auth.issuer", c.Auth.Issuer)
	v.SetDefault("auth.token_ttl", c.Auth.TokenTTL)
	v.SetDefault("ledger.currency", c.Ledger.Currency)
}

// Validate checks if the configuration is usable and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.HTTP.Addr == "" {
		errs = append(errs, "http.addr must be set")
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		errs = append(errs, "http.shutdown_timeout must be positive")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be json or text (got %q)", c.Log.Format))
	}
	if c.Storage.Key == "" {
		errs = append(errs, "storage.key must be set")
	}
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendFile:
		if c.Storage.Dir == "" {
			errs = append(errs, "storage.dir is required for the file backend")
		}
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			errs = append(errs, "storage.sqlite_path is required for the sqlite backend")
		}
	case BackendPostgres:
		if c.Storage.DSN == "" {
			errs = append(errs, "storage.dsn (or DATABASE_URL) is required for the postgres backend")
		}
	case BackendRedis:
		if c.Storage.Redis.Addr == "" {
			errs = append(errs, "storage.redis.addr is required for the redis backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("storage.backend must be one of memory, file, sqlite, postgres, redis (got %q)", c.Storage.Backend))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, "auth.token_ttl must be positive")
	}
	if len(c.Ledger.Currency) != 3 {
		errs = append(errs, "ledger.currency must be a three-letter ISO 4217 code")
	}

	if len(errs) > 0 {
		return errors.New("invalid configuration:\n  - " + strings.Join(errs, "\n  - "))
	}
	return nil
}

// ValidateServe adds the checks only the HTTP server needs.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if len(c.Auth.JWTSecret) < 16 {
		return errors.New("invalid configuration:\n  - auth.jwt_secret (or JWT_HS256_SECRET) must be at least 16 characters")
	}
	return nil
}
