package config

import (
	"os"
	"strings"
	"time"
)

// Config captures process-level configuration so main stays lean.
type Config struct {
	Addr          string
	JWTSigningKey string

	// PostgresDSN selects the durable stores; empty means in-memory.
	PostgresDSN string

	// RedisURL enables the verification record cache; empty disables it.
	RedisURL string
	CacheTTL time.Duration

	// KafkaBrokers enables the audit event sink; empty disables it.
	KafkaBrokers []string
	AuditTopic   string

	AccessTokenTTL time.Duration
	OTPTTL         time.Duration

	// Bootstrap admin account; admins are provisioned, not self-registered.
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

// FromEnv builds a Config from environment variables with development
// defaults.
func FromEnv() Config {
	cfg := Config{
		Addr:           getenv("KYCGATE_ADDR", ":8080"),
		JWTSigningKey:  getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		PostgresDSN:    os.Getenv("POSTGRES_DSN"),
		RedisURL:       os.Getenv("REDIS_URL"),
		CacheTTL:       getduration("CACHE_TTL", 30*time.Second),
		AuditTopic:     getenv("AUDIT_TOPIC", "kycgate.onboarding.audit"),
		AccessTokenTTL: getduration("ACCESS_TOKEN_TTL", time.Hour),
		OTPTTL:         getduration("OTP_TTL", 10*time.Minute),
		AdminName:      getenv("ADMIN_NAME", "Platform Admin"),
		AdminEmail:     getenv("ADMIN_EMAIL", "admin@kycgate.local"),
		AdminPassword:  getenv("ADMIN_PASSWORD", "change-me-in-production"),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
