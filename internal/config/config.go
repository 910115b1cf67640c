package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Port     string
	Env      string
	LogLevel string

	StoreDriver   string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string

	Share     ShareConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig

	PurgeSchedule string
	CORSOrigins   []string
}

type ShareConfig struct {
	TTL             time.Duration
	SlugLength      int
	SlugMaxAttempts int
	PasswordHash    string
	UploadMaxBytes  int64
}

type RateLimitConfig struct {
	Points        int
	Window        time.Duration
	SweepInterval time.Duration
}

type CacheConfig struct {
	Size int
	TTL  time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnv("PORT", "3005"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		MongoURI:      getEnv("MONGO_URI", ""),
		MongoDatabase: getEnv("MONGO_DATABASE", "jsoncrack"),

		PurgeSchedule: getEnv("PURGE_SCHEDULE", "@every 1h"),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "*")),
	}

	var err error
	if cfg.Share.TTL, err = getEnvDuration("SHARE_TTL", 30*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.Share.SlugLength, err = getEnvInt("SLUG_LENGTH", 10); err != nil {
		return nil, err
	}
	if cfg.Share.SlugMaxAttempts, err = getEnvInt("SLUG_MAX_ATTEMPTS", 10); err != nil {
		return nil, err
	}
	cfg.Share.PasswordHash = strings.ToLower(getEnv("PASSWORD_HASH", "sha256"))
	uploadMax, err := getEnvInt("UPLOAD_MAX_BYTES", 2*1024*1024)
	if err != nil {
		return nil, err
	}
	cfg.Share.UploadMaxBytes = int64(uploadMax)

	if cfg.RateLimit.Points, err = getEnvInt("RATE_LIMIT_POINTS", 10); err != nil {
		return nil, err
	}
	if cfg.RateLimit.Window, err = getEnvDuration("RATE_LIMIT_WINDOW", time.Second); err != nil {
		return nil, err
	}
	if cfg.RateLimit.SweepInterval, err = getEnvDuration("RATE_LIMIT_SWEEP_INTERVAL", time.Minute); err != nil {
		return nil, err
	}

	if cfg.Cache.Size, err = getEnvInt("CACHE_SIZE", 0); err != nil {
		return nil, err
	}
	if cfg.Cache.TTL, err = getEnvDuration("CACHE_TTL", 30*time.Second); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints after defaults are applied.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case StoreDriverMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for the mongo store")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be postgres, mongo or memory, got %q", c.StoreDriver)
	}

	if c.Share.TTL <= 0 {
		return fmt.Errorf("SHARE_TTL must be positive")
	}
	// 9 alphanumeric characters carry more than 48 bits of entropy.
	if c.Share.SlugLength < 9 || c.Share.SlugLength > 20 {
		return fmt.Errorf("SLUG_LENGTH must be between 9 and 20, got %d", c.Share.SlugLength)
	}
	if c.Share.SlugMaxAttempts < 1 {
		return fmt.Errorf("SLUG_MAX_ATTEMPTS must be at least 1")
	}
	switch c.Share.PasswordHash {
	case "sha256", "bcrypt":
	default:
		return fmt.Errorf("PASSWORD_HASH must be sha256 or bcrypt, got %q", c.Share.PasswordHash)
	}
	if c.Share.UploadMaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive")
	}

	if c.RateLimit.Points < 1 {
		return fmt.Errorf("RATE_LIMIT_POINTS must be at least 1")
	}
	if c.RateLimit.Window <= 0 || c.RateLimit.SweepInterval <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW and RATE_LIMIT_SWEEP_INTERVAL must be positive")
	}
	if c.Cache.Size < 0 {
		return fmt.Errorf("CACHE_SIZE must not be negative")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, value)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, value)
	}
	return d, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
