package app

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/woowonjae/blogauth/pkg/cryptox"
	"github.com/woowonjae/blogauth/pkg/jwtx"
)

type Config struct {
	Issuer        string        // Issuer claim for minted tokens (default: blog-auth)
	SigningSecret string        // Required: symmetric signing key, >= 32 bytes
	AccessTTL     time.Duration // Token lifetime (default: 24h)
	TokenLeeway   time.Duration // Clock-skew tolerance when validating expiry (default: 5s)
	BcryptCost    int           // Adaptive-hash work factor (default: bcrypt default)
	DefaultRole   string        // Role assigned to every new registration (default: ROLE_USER)
	AdminRole     string        // Role required for the migration endpoint (default: ROLE_ADMIN)
	LazyRehash    bool          // Re-encode legacy credentials on successful login (default: true)

	DatabaseFile        string        // Path to SQLite database file (default: ./auth.db)
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

var ErrSigningSecretTooShort = errors.New("app: AUTH_SIGNING_SECRET must be at least 32 bytes")

// LoadConfig reads configuration from the environment. An optional .env file
// is loaded first so local development doesn't need exported variables.
func LoadConfig() (Config, error) {
	// Missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg := Config{
		Issuer:        getEnvOrDefault("AUTH_ISSUER", "blog-auth"),
		SigningSecret: os.Getenv("AUTH_SIGNING_SECRET"),
		AccessTTL:     getEnvDurationOrDefault("AUTH_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		TokenLeeway:   getEnvDurationOrDefault("AUTH_TOKEN_LEEWAY", 5*time.Second),
		BcryptCost:    getEnvIntOrDefault("AUTH_BCRYPT_COST", cryptox.DefaultCost),
		DefaultRole:   getEnvOrDefault("AUTH_DEFAULT_ROLE", "ROLE_USER"),
		AdminRole:     getEnvOrDefault("AUTH_ADMIN_ROLE", "ROLE_ADMIN"),
		LazyRehash:    getEnvBoolOrDefault("AUTH_LAZY_REHASH", true),

		DatabaseFile:        getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	if len(cfg.SigningSecret) < jwtx.MinKeyLength {
		return Config{}, ErrSigningSecretTooShort
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
