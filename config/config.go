package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

type Config struct {
	Port     string
	LogLevel slog.Level

	DBDriver    string
	DatabaseDSN string

	JWTSecret []byte
	TokenTTL  time.Duration

	FederatedIssuer string
	FederatedSecret []byte

	AdminEmail string
	BillPrefix string
	ShopName   string
	// Location decides which calendar day a bill counts toward.
	Location *time.Location

	RedisURL     string
	RoleCacheTTL time.Duration

	AllowedOrigins  string
	BodyLimitBytes  int
	RateLimitMax    int
	RateLimitWindow time.Duration

	MigrateOnly bool
}

// Load reads configuration from the environment (after an optional .env file)
// and lets command-line flags override a few of the values.
func Load(args []string) (*Config, error) {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		DBDriver:        strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DatabaseDSN:     os.Getenv("DATABASE_DSN"),
		TokenTTL:        time.Duration(getEnvAsInt("TOKEN_TTL_HOURS", 24)) * time.Hour,
		FederatedIssuer: os.Getenv("FEDERATED_ISSUER"),
		FederatedSecret: []byte(os.Getenv("FEDERATED_SECRET")),
		AdminEmail:      strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))),
		BillPrefix:      getEnv("BILL_PREFIX", "BW"),
		ShopName:        getEnv("SHOP_NAME", "BillWeave Tailors"),
		RedisURL:        os.Getenv("REDIS_URL"),
		RoleCacheTTL:    time.Duration(getEnvAsInt("ROLE_CACHE_TTL_SECONDS", 0)) * time.Second,
		AllowedOrigins:  getEnv("ALLOWED_ORIGINS", "*"),
		RateLimitMax:    getEnvAsInt("RATE_LIMIT_MAX", 60),
		RateLimitWindow: time.Duration(getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
	}

	// Fiber default BodyLimit is 4 MB; BODY_LIMIT_BYTES wins over BODY_LIMIT_MB.
	cfg.BodyLimitBytes = getEnvAsInt("BODY_LIMIT_BYTES", 0)
	if cfg.BodyLimitBytes <= 0 {
		cfg.BodyLimitBytes = getEnvAsInt("BODY_LIMIT_MB", 4) * 1024 * 1024
	}

	secret := os.Getenv("JWT_SECRET_KEY")
	if strings.TrimSpace(secret) == "" {
		secret = os.Getenv("JWT_SECRET")
	}
	cfg.JWTSecret = []byte(strings.TrimSpace(secret))

	logLevel := getEnv("LOG_LEVEL", "info")

	flags := pflag.NewFlagSet("billweave", pflag.ContinueOnError)
	flags.StringVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	flags.StringVar(&logLevel, "log-level", logLevel, "log level (debug, info, warn, error)")
	flags.BoolVar(&cfg.MigrateOnly, "migrate-only", false, "apply database migrations and exit")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	tz := getEnv("SHOP_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid SHOP_TIMEZONE %q: %w", tz, err)
	}
	cfg.Location = loc

	if err := cfg.LogLevel.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}

	if cfg.DatabaseDSN == "" && cfg.DBDriver == "postgres" {
		cfg.DatabaseDSN = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			getEnv("DB_HOST", "db"), os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"), os.Getenv("DB_NAME"), getEnv("DB_PORT", "5432"))
	}
	if cfg.DatabaseDSN == "" && cfg.DBDriver == "sqlite" {
		cfg.DatabaseDSN = "billweave.db"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.AdminEmail == "" {
		slog.Warn("ADMIN_EMAIL not set; no account will be bootstrapped as admin")
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DBDriver != "postgres" && c.DBDriver != "sqlite" {
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if len(c.JWTSecret) == 0 && !c.MigrateOnly {
		return errors.New("JWT secret not configured (set JWT_SECRET_KEY or JWT_SECRET)")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an int env var with a default fallback.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		slog.Warn("ignoring non-integer environment value", "key", key, "value", value)
	}
	return defaultValue
}
