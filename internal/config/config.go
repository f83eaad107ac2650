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

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Redis    RedisConfig
	Oracle   OracleConfig
	NATS     NATSConfig
	Deck     DeckConfig
}

type AppConfig struct {
	AppName       string
	Environment   string
	HTTPPort      string
	MigrationsDir string
}

type DatabaseConfig struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout        time.Duration
	PoolMaxConns          int32
	PoolMinConns          int32
	PoolMaxConnLifetime   time.Duration
	PoolMaxConnIdleTime   time.Duration
	PoolHealthCheckPeriod time.Duration
}

type JWTConfig struct {
	AccessSecret     string
	RefreshSecret    string
	AccessExpiresIn  time.Duration
	RefreshExpiresIn time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

const (
	OracleProviderAnthropic = "anthropic"
	OracleProviderGemini    = "gemini"
)

type OracleConfig struct {
	Provider        string
	AnthropicAPIKey string
	AnthropicModel  string
	AnthropicURL    string
	GeminiAPIKey    string
	GeminiModel     string
	Timeout         time.Duration
	RequestsPerSec  float64
}

type NATSConfig struct {
	URL     string
	Subject string
}

type DeckConfig struct {
	MaxBytes     int
	FetchTimeout time.Duration
}

var (
	errMissingRequiredEnv = errors.New("missing required environment variables")
	errInvalidEnv         = errors.New("invalid environment variables")
)

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromLookup(os.Getenv)
}

type reader struct {
	getenv  func(string) string
	missing []string
	invalid []string
}

func (r *reader) req(key string) string {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		r.missing = append(r.missing, key)
	}
	return v
}

func (r *reader) opt(key, def string) string {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	return v
}

func (r *reader) dur(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(r.getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		r.invalid = append(r.invalid, key)
		return def
	}
	return d
}

func (r *reader) num(key string, def int) int {
	raw := strings.TrimSpace(r.getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		r.invalid = append(r.invalid, key)
		return def
	}
	return v
}

func (r *reader) err() error {
	if len(r.missing) > 0 {
		return fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(r.missing, ", "))
	}
	if len(r.invalid) > 0 {
		return fmt.Errorf("%w: %s", errInvalidEnv, strings.Join(r.invalid, ", "))
	}
	return nil
}

func (r *reader) database() DatabaseConfig {
	return DatabaseConfig{
		DBHost:                r.req("DB_HOST"),
		DBPort:                r.opt("DB_PORT", "5432"),
		DBName:                r.req("DB_NAME"),
		DBUser:                r.req("DB_USER"),
		DBPassword:            r.opt("DB_PASSWORD", ""),
		DBSSLMode:             r.opt("DB_SSL_MODE", "disable"),
		ConnectTimeout:        r.dur("DB_CONNECT_TIMEOUT", 5*time.Second),
		PoolMaxConns:          int32(r.num("DB_POOL_MAX_CONNS", 0)),
		PoolMinConns:          int32(r.num("DB_POOL_MIN_CONNS", 0)),
		PoolMaxConnLifetime:   r.dur("DB_POOL_MAX_CONN_LIFETIME", 0),
		PoolMaxConnIdleTime:   r.dur("DB_POOL_MAX_CONN_IDLE_TIME", 0),
		PoolHealthCheckPeriod: r.dur("DB_POOL_HEALTH_CHECK_PERIOD", 0),
	}
}

// LoadOperator reads only what the operator CLI needs: the database and the
// app name and environment for logging. Secrets for JWT and the oracle are
// not required.
func LoadOperator() (Config, error) {
	_ = godotenv.Load()
	return OperatorFromLookup(os.Getenv)
}

func OperatorFromLookup(getenv func(string) string) (Config, error) {
	r := &reader{getenv: getenv}
	cfg := Config{
		App: AppConfig{
			AppName:       r.opt("APP_NAME", "funnel"),
			Environment:   r.opt("APP_ENV", "production"),
			MigrationsDir: r.opt("MIGRATIONS_DIR", ""),
		},
		Database: r.database(),
	}
	if err := r.err(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func FromLookup(getenv func(string) string) (Config, error) {
	r := &reader{getenv: getenv}
	cfg := Config{}

	cfg.App = AppConfig{
		AppName:       r.req("APP_NAME"),
		Environment:   r.req("APP_ENV"),
		HTTPPort:      r.req("HTTP_PORT"),
		MigrationsDir: r.opt("MIGRATIONS_DIR", ""),
	}

	cfg.Database = r.database()

	cfg.JWT = JWTConfig{
		AccessSecret:     r.req("JWT_ACCESS_SECRET"),
		RefreshSecret:    r.req("JWT_REFRESH_SECRET"),
		AccessExpiresIn:  r.dur("JWT_ACCESS_EXPIRES_IN", 15*time.Minute),
		RefreshExpiresIn: r.dur("JWT_REFRESH_EXPIRES_IN", 7*24*time.Hour),
	}

	cfg.Redis = RedisConfig{
		Addr:     r.opt("REDIS_ADDR", "localhost:6379"),
		Password: r.opt("REDIS_PASSWORD", ""),
		DB:       r.num("REDIS_DB", 0),
		TTL:      r.dur("REDIS_TTL", 10*time.Minute),
	}

	rps, err := strconv.ParseFloat(r.opt("ORACLE_RPS", "5"), 64)
	if err != nil || rps <= 0 {
		r.invalid = append(r.invalid, "ORACLE_RPS")
		rps = 5
	}

	cfg.Oracle = OracleConfig{
		Provider:        strings.ToLower(r.opt("ORACLE_PROVIDER", OracleProviderAnthropic)),
		AnthropicAPIKey: r.opt("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  r.opt("ANTHROPIC_MODEL", "claude-sonnet-4-5"),
		AnthropicURL:    r.opt("ANTHROPIC_BASE_URL", "https://api.anthropic.com/v1"),
		GeminiAPIKey:    r.opt("GEMINI_API_KEY", ""),
		GeminiModel:     r.opt("GEMINI_MODEL", "gemini-2.5-flash"),
		Timeout:         r.dur("ORACLE_TIMEOUT", 30*time.Second),
		RequestsPerSec:  rps,
	}

	switch cfg.Oracle.Provider {
	case OracleProviderAnthropic:
		if cfg.Oracle.AnthropicAPIKey == "" {
			r.missing = append(r.missing, "ANTHROPIC_API_KEY")
		}
	case OracleProviderGemini:
		if cfg.Oracle.GeminiAPIKey == "" {
			r.missing = append(r.missing, "GEMINI_API_KEY")
		}
	default:
		r.invalid = append(r.invalid, "ORACLE_PROVIDER")
	}

	cfg.NATS = NATSConfig{
		URL:     r.opt("NATS_URL", ""),
		Subject: r.opt("NATS_SUBJECT", "funnel.crm.pitch_matched"),
	}

	cfg.Deck = DeckConfig{
		MaxBytes:     r.num("DECK_MAX_BYTES", 20<<20),
		FetchTimeout: r.dur("DECK_FETCH_TIMEOUT", 20*time.Second),
	}

	if err := r.err(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c AppConfig) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development") || strings.EqualFold(c.Environment, "dev")
}
