package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string

	// Database configuration. DatabaseURL wins over the discrete fields when set.
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration (tokens are issued elsewhere, only validated here)
	JWTSecret string

	// Embedding model
	EmbeddingURL       string
	EmbeddingModel     string
	EmbeddingToken     string
	EmbeddingDimension int
	EmbeddingCacheTTL  time.Duration

	// EmbedRatePerSecond throttles batch embedding jobs; 0 disables it.
	EmbedRatePerSecond float64

	// Schema
	MigrationsDir string
	AutoMigrate   bool

	// Recommendation
	RecommendMaxLimit  int
	RateLimitPerMinute int

	// CORSOrigins are the browser origins allowed to call the API.
	CORSOrigins []string

	// Logging
	LogLevel  string
	LogFormat string

	// Recipe images
	S3Bucket  string
	AWSRegion string
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	cfg := &Config{}
	loadCommon(cfg)

	switch env {
	case CI:
		if err := loadCIConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to load CI configuration: %w", err)
		}
	case Development, Test:
		loadDevConfig(cfg)
	case Production:
		loadProdConfig(cfg)
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadCommon reads the non-sensitive settings shared by every environment.
func loadCommon(cfg *Config) {
	cfg.ServerPort = envOrDefault("SERVER_PORT", "8080")
	cfg.ServerHost = envOrDefault("SERVER_HOST", "0.0.0.0")

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.DBHost = envOrDefault("DB_HOST", "localhost")
	cfg.DBPort = envOrDefault("DB_PORT", "5432")
	cfg.DBName = envOrDefault("DB_NAME", "recipes")
	cfg.DBSSLMode = envOrDefault("DB_SSL_MODE", "disable")

	cfg.RedisHost = os.Getenv("REDIS_HOST")
	cfg.RedisPort = envOrDefault("REDIS_PORT", "6379")
	cfg.RedisDB = envOrDefaultInt("REDIS_DB", 0)

	cfg.EmbeddingURL = envOrDefault("EMBEDDING_URL", "http://localhost:11434")
	cfg.EmbeddingModel = envOrDefault("EMBEDDING_MODEL", "all-minilm")
	cfg.EmbeddingDimension = envOrDefaultInt("EMBEDDING_DIMENSION", 384)
	cfg.EmbeddingCacheTTL = envOrDefaultDuration("EMBEDDING_CACHE_TTL", 24*time.Hour)
	cfg.EmbedRatePerSecond = envOrDefaultFloat("EMBED_RATE_PER_SECOND", 20)

	cfg.MigrationsDir = envOrDefault("MIGRATIONS_DIR", "migrations")
	// Production deploys apply migrations with cmd/migrate.
	cfg.AutoMigrate = envOrDefault("AUTO_MIGRATE", strconv.FormatBool(!IsProduction())) == "true"

	cfg.RecommendMaxLimit = envOrDefaultInt("RECOMMEND_MAX_LIMIT", 100)
	cfg.RateLimitPerMinute = envOrDefaultInt("RATE_LIMIT_PER_MINUTE", 60)
	cfg.CORSOrigins = splitList(os.Getenv("CORS_ORIGINS"))

	cfg.LogLevel = envOrDefault("LOG_LEVEL", "info")
	cfg.LogFormat = envOrDefault("LOG_FORMAT", "json")

	cfg.S3Bucket = os.Getenv("S3_BUCKET_NAME")
	cfg.AWSRegion = os.Getenv("AWS_REGION")
}

// loadCIConfig loads sensitive values for CI from GitHub Actions secrets
func loadCIConfig(cfg *Config) error {
	cfg.DBUser = envOrDefault("DB_USER", "postgres")
	cfg.DBPassword = os.Getenv("TEST_DB_PASSWORD")
	if cfg.DBPassword == "" {
		return fmt.Errorf("TEST_DB_PASSWORD environment variable is required in CI environment")
	}
	cfg.JWTSecret = os.Getenv("TEST_JWT_SECRET")
	cfg.RedisPassword = os.Getenv("TEST_REDIS_PASSWORD")
	cfg.RedisURL = os.Getenv("TEST_REDIS_URL")
	cfg.EmbeddingToken = os.Getenv("TEST_EMBEDDING_TOKEN")
	return nil
}

// loadDevConfig prefers Docker secrets and falls back to plain environment variables
func loadDevConfig(cfg *Config) {
	cfg.DBUser = secretOrEnv("db_user", "DB_USER")
	cfg.DBPassword = secretOrEnv("db_password", "DB_PASSWORD")
	cfg.JWTSecret = secretOrEnv("jwt_secret", "JWT_SECRET")
	cfg.RedisPassword = secretOrEnv("redis_password", "REDIS_PASSWORD")
	cfg.RedisURL = secretOrEnv("redis_url", "REDIS_URL")
	cfg.EmbeddingToken = secretOrEnv("embedding_token", "EMBEDDING_TOKEN")
}

// loadProdConfig loads sensitive values for production using ONLY Docker secrets
func loadProdConfig(cfg *Config) {
	cfg.DBUser = readSecret("db_user")
	cfg.DBPassword = readSecret("db_password")
	cfg.JWTSecret = readSecret("jwt_secret")
	cfg.RedisPassword = readSecret("redis_password")
	cfg.RedisURL = readSecret("redis_url")
	cfg.EmbeddingToken = readSecret("embedding_token")
	if dsn := readSecret("database_url"); dsn != "" {
		cfg.DatabaseURL = dsn
	}
}

// DSN returns the Postgres connection string.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// DatabaseTarget describes the database for logs without the password.
func (c *Config) DatabaseTarget() string {
	if c.DatabaseURL != "" {
		if u, err := url.Parse(c.DatabaseURL); err == nil {
			return u.Host + u.Path
		}
		return "DATABASE_URL"
	}
	return fmt.Sprintf("%s:%s/%s", c.DBHost, c.DBPort, c.DBName)
}

// RedisEnabled reports whether a Redis server is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != "" || c.RedisHost != ""
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func secretOrEnv(secret, env string) string {
	if v := readSecret(secret); v != "" {
		return v
	}
	return os.Getenv(env)
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
