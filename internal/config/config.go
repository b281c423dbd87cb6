package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers supported for the allow-list.
const (
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
)

// Config aggregates runtime configuration for the service and the bot.
type Config struct {
	App      AppConfig
	Store    StoreConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Upstream UpstreamConfig
	Bot      BotConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// StoreConfig selects the allow-list backend.
type StoreConfig struct {
	Driver     string
	SQLitePath string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level  string
	Format string
}

// AuthConfig defines bearer token parameters.
type AuthConfig struct {
	JWTSecret     string
	TokenTTLHours int
	TokenSubject  string
}

// UpstreamConfig describes the device lookup API.
type UpstreamConfig struct {
	BaseURL        string
	APIKey         string
	ServiceID      int
	TimeoutSeconds int
}

// BotConfig holds Telegram bot settings.
type BotConfig struct {
	Token              string
	AdminID            int64
	BackendURL         string
	PollTimeoutSeconds int
	StateTTLMinutes    int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	var adminID int64
	if raw := strings.TrimSpace(os.Getenv("ADMIN_TELEGRAM_ID")); raw != "" {
		adminID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}

	driver := strings.ToLower(getEnv("STORE_DRIVER", StoreDriverSQLite))
	if driver != StoreDriverSQLite && driver != StoreDriverPostgres {
		return nil, fmt.Errorf("invalid STORE_DRIVER %q", driver)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "imei-check-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "127.0.0.1"),
			Port:                  getEnv("APP_PORT", "8000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 60),
		},
		Store: StoreConfig{
			Driver:     driver,
			SQLitePath: getEnv("SQLITE_PATH", "bot_users.db"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 1)),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "json")),
		},
		Auth: AuthConfig{
			JWTSecret:     os.Getenv("JWT_SECRET_KEY"),
			TokenTTLHours: getEnvAsInt("AUTH_TOKEN_TTL_HOURS", 30*24),
			TokenSubject:  getEnv("AUTH_TOKEN_SUBJECT", "user"),
		},
		Upstream: UpstreamConfig{
			BaseURL:        strings.TrimRight(getEnv("UPSTREAM_BASE_URL", "https://api.imeicheck.net"), "/"),
			APIKey:         os.Getenv("IMEI_API_KEY"),
			ServiceID:      getEnvAsInt("UPSTREAM_SERVICE_ID", 12),
			TimeoutSeconds: getEnvAsInt("UPSTREAM_TIMEOUT_SECONDS", 30),
		},
		Bot: BotConfig{
			Token:              os.Getenv("TG_BOT_TOKEN"),
			AdminID:            adminID,
			BackendURL:         strings.TrimRight(getEnv("BOT_BACKEND_URL", "http://127.0.0.1:8000"), "/"),
			PollTimeoutSeconds: getEnvAsInt("BOT_POLL_TIMEOUT_SECONDS", 60),
			StateTTLMinutes:    getEnvAsInt("BOT_STATE_TTL_MINUTES", 60),
		},
	}

	return cfg, nil
}

// RequireAPI checks the secrets the HTTP service cannot run without.
func (c *Config) RequireAPI() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY is required"))
	}
	if c.Upstream.APIKey == "" {
		errs = append(errs, errors.New("IMEI_API_KEY is required"))
	}
	if c.Store.Driver == StoreDriverPostgres && c.Postgres.DSN == "" {
		errs = append(errs, errors.New("POSTGRES_DSN is required for the postgres store"))
	}
	return errors.Join(errs...)
}

// RequireBot checks the secrets the bot poller cannot run without. The administrator is
// seeded into the allow-list, so without one nobody could ever be authorized.
func (c *Config) RequireBot() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY is required"))
	}
	if c.Bot.Token == "" {
		errs = append(errs, errors.New("TG_BOT_TOKEN is required"))
	}
	if c.Bot.AdminID == 0 {
		errs = append(errs, errors.New("ADMIN_TELEGRAM_ID is required"))
	}
	if c.Store.Driver == StoreDriverPostgres && c.Postgres.DSN == "" {
		errs = append(errs, errors.New("POSTGRES_DSN is required for the postgres store"))
	}
	return errors.Join(errs...)
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TokenTTL returns the lifetime of minted bearer tokens.
func (a AuthConfig) TokenTTL() time.Duration {
	if a.TokenTTLHours <= 0 {
		return 30 * 24 * time.Hour
	}
	return time.Duration(a.TokenTTLHours) * time.Hour
}

// Timeout bounds a single upstream lookup.
func (u UpstreamConfig) Timeout() time.Duration {
	if u.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(u.TimeoutSeconds) * time.Second
}

// StateTTL is how long an unfinished admin command survives in Redis.
func (b BotConfig) StateTTL() time.Duration {
	if b.StateTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(b.StateTTLMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
