package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	MigrationsPath string

	// DATABASE_URL is what the API pools against; add pgbouncer=true when it is a
	// transaction pooler. DIRECT_URL bypasses the pooler for migrations.
	// Both fall back to the DB_* fields.
	DatabaseURL string
	DirectURL   string

	DB DBConfig

	// AllowedOrigins is a comma-separated allowlist of frontend origins, e.g.
	//   https://app.aelin.xyz,http://localhost:3000
	AllowedOrigins []string

	Session SessionConfig
	Log     LogConfig
	NFT     NFTConfig

	MetricsEnabled bool
}

type DBConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

type SessionConfig struct {
	// Secret signs wallet session tokens (HS256). Sessions are disabled when empty.
	Secret string
	Issuer string
	TTL    time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type NFTConfig struct {
	// DataDir holds the marketplace ranking snapshots the collector starts from.
	DataDir string
	// OutputDir receives the per-marketplace metadata JSON files.
	OutputDir string

	// RefreshCron schedules a collection run inside the API server. Empty disables it.
	RefreshCron string

	Headless          bool
	Concurrency       int
	RequestsPerSecond float64

	QuixoticAPIToken string
	StratosAPIToken  string
}

func Load() Config {
	// Convenience for local dev: load variables from .env if present.
	// In production, rely on real environment variables.
	_ = godotenv.Load()

	// Container platforms set PORT. Prefer it when HTTP_ADDR isn't explicitly set.
	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			httpAddr = ":" + port
		} else {
			httpAddr = ":8081"
		}
	}

	return Config{
		AppEnv:         env("APP_ENV", "dev"),
		HTTPAddr:       httpAddr,
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DirectURL:      os.Getenv("DIRECT_URL"),
		DB: DBConfig{
			Host:     env("DB_HOST", "localhost"),
			Port:     env("DB_PORT", "5432"),
			Name:     env("DB_NAME", "aelin"),
			User:     env("DB_USER", "aelin"),
			Password: env("DB_PASSWORD", "aelin"),
			SSLMode:  env("DB_SSLMODE", "disable"),
		},
		AllowedOrigins: envList("ALLOWED_ORIGINS", "http://localhost:3000"),
		Session: SessionConfig{
			Secret: os.Getenv("SESSION_SECRET"),
			Issuer: env("SESSION_ISSUER", "aelin"),
			TTL:    envDuration("SESSION_TTL", 24*time.Hour),
		},
		Log: LogConfig{
			Level:  env("LOG_LEVEL", "info"),
			Format: env("LOG_FORMAT", "json"),
		},
		NFT: NFTConfig{
			DataDir:           env("NFT_DATA_DIR", "data"),
			OutputDir:         env("NFT_OUTPUT_DIR", "public/data/nft-metadata"),
			RefreshCron:       os.Getenv("NFT_REFRESH_CRON"),
			Headless:          envBool("NFT_HEADLESS", true),
			Concurrency:       envInt("NFT_CONCURRENCY", 8),
			RequestsPerSecond: envFloat("NFT_REQUESTS_PER_SECOND", 5),
			QuixoticAPIToken:  os.Getenv("QUIXOTIC_API_TOKEN"),
			StratosAPIToken:   os.Getenv("STRATOS_API_TOKEN"),
		},
		MetricsEnabled: envBool("METRICS_ENABLED", true),
	}
}

// IsProd reports whether dev conveniences (header-based identity) must be disabled.
func (c Config) IsProd() bool {
	return c.AppEnv == "prod"
}

func env(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func envList(key, fallbackCSV string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = fallbackCSV
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
