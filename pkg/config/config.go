package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	DatabaseURL string
	JWTSecret   string
	TokenTTL    time.Duration
	Port        string
	Environment string
	LogLevel    string
	LogFormat   string
	// Security configuration
	AllowedOrigins  string
	TrustedProxies  string
	EnableRateLimit bool
	MaxRequestSize  int64
	// Leaderboard cache, disabled when RedisURL is empty
	RedisURL            string
	LeaderboardCacheTTL time.Duration
	// Finalization events, disabled when NATSURL is empty
	NATSURL           string
	NATSToken         string
	NATSSubjectPrefix string
	// Default admin seeded on startup
	AdminEmail    string
	AdminUsername string
	AdminPassword string
}

// New creates a new configuration instance from environment variables
func New() *Config {
	return &Config{
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		TokenTTL:            getEnvAsDuration("TOKEN_TTL", 7*24*time.Hour),
		Port:                getEnv("PORT", "8080"),
		Environment:         getEnv("ENV", "development"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "text"),
		AllowedOrigins:      getEnv("ALLOWED_ORIGINS", ""),
		TrustedProxies:      getEnv("TRUSTED_PROXIES", ""),
		EnableRateLimit:     getEnv("ENABLE_RATE_LIMIT", "true") == "true",
		MaxRequestSize:      getEnvAsInt64("MAX_REQUEST_SIZE", 1*1024*1024), // 1MB default
		RedisURL:            getEnv("REDIS_URL", ""),
		LeaderboardCacheTTL: getEnvAsDuration("LEADERBOARD_CACHE_TTL", 5*time.Minute),
		NATSURL:             getEnv("NATS_URL", ""),
		NATSToken:           getEnv("NATS_TOKEN", ""),
		NATSSubjectPrefix:   getEnv("NATS_SUBJECT_PREFIX", "kickwager"),
		AdminEmail:          getEnv("ADMIN_EMAIL", "admin@kickwager.com"),
		AdminUsername:       getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:       getEnv("ADMIN_PASSWORD", ""),
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// HasLeaderboardCache returns true if a Redis URL is configured
func (c *Config) HasLeaderboardCache() bool {
	return c.RedisURL != ""
}

// HasEvents returns true if a NATS URL is configured
func (c *Config) HasEvents() bool {
	return c.NATSURL != ""
}

// ShouldSeedAdmin returns true if a default admin password was provided
func (c *Config) ShouldSeedAdmin() bool {
	return c.AdminEmail != "" && c.AdminPassword != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// GetAllowedOrigins returns a slice of allowed CORS origins
func (c *Config) GetAllowedOrigins() []string {
	if c.AllowedOrigins == "" {
		return []string{}
	}
	return strings.Split(c.AllowedOrigins, ",")
}

// GetTrustedProxies returns a slice of trusted proxy IPs
func (c *Config) GetTrustedProxies() []string {
	if c.TrustedProxies == "" {
		return []string{} // No trusted proxies by default
	}
	return strings.Split(c.TrustedProxies, ",")
}
