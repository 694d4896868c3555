package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"loyalty-service/internal/pkg/jwt"
)

type AppConfig struct {
	// Server
	HTTPAddr    string
	Environment string
	CORSOrigins []string

	// Storage
	StoreDriver   string // memory, bolt or postgres
	BoltPath      string
	DatabaseURL   string
	DatabaseTable string

	// Redis (optional: login rate limiting and token blacklist)
	RedisAddr string
	RedisPass string

	// Kafka (optional: outbound notification events)
	KafkaBrokers []string
	KafkaTopic   string

	// JWT
	JWT jwt.Config

	// Auth
	DemoTokens     bool
	SystemAPIToken string
	CustomerOTP    string
	StaffAccounts  []string // username:role:bcrypt-hash

	// Loyalty rules
	PointsUnit     float64
	RedemptionCost int
	TierMatch      string // exact or at_least

	// Scheduling
	VenueTimezone string
	NotifyDelay   time.Duration
	SeedOnStart   bool
}

// Load loads environment variables into AppConfig.
func Load() AppConfig {
	return AppConfig{
		HTTPAddr:    getEnv("HTTP_ADDR", ":8000"),
		Environment: getEnv("APP_ENV", "development"),
		CORSOrigins: getEnvSlice("CORS_ORIGINS", []string{"*"}),

		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", "memory")),
		BoltPath:      getEnv("BOLT_PATH", "loyalty.db"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		DatabaseTable: getEnv("DATABASE_TABLE", "entities"),

		RedisAddr: getEnv("REDIS_ADDR", ""),
		RedisPass: getEnv("REDIS_PASS", ""),

		KafkaBrokers: getEnvSlice("KAFKA_BROKERS", nil),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "loyalty.notifications"),

		JWT: jwt.Config{
			PrivPath: getEnv("JWT_PRIVATE_KEY_PATH", ""),
			PubPath:  getEnv("JWT_PUBLIC_KEY_PATH", ""),
			Issuer:   getEnv("JWT_ISSUER", "loyalty-service"),
			Audience: getEnv("JWT_AUDIENCE", "loyalty-clients"),
			TTL:      getEnvDuration("JWT_TTL", 24*time.Hour),
			KID:      getEnv("JWT_KID", "loyalty-key"),
		},

		DemoTokens:     getEnvBool("AUTH_DEMO_TOKENS", true),
		SystemAPIToken: getEnv("SYSTEM_API_TOKEN", ""),
		CustomerOTP:    getEnv("CUSTOMER_OTP", "1234"),
		StaffAccounts:  getEnvSlice("STAFF_ACCOUNTS", nil),

		PointsUnit:     getEnvFloat("POINTS_UNIT", 10000),
		RedemptionCost: getEnvInt("REDEMPTION_COST", 50),
		TierMatch:      strings.ToLower(getEnv("TIER_MATCH", "exact")),

		VenueTimezone: getEnv("VENUE_TIMEZONE", "UTC"),
		NotifyDelay:   getEnvDuration("NOTIFY_DELAY", 2*time.Second),
		SeedOnStart:   getEnvBool("SEED_ON_START", false),
	}
}

// Location resolves VenueTimezone, falling back to UTC.
func (c AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.VenueTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

// --- Helper functions ---

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil && v > 0 {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}
