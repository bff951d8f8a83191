package config

import (
	"os"
	"strings"
	"time"
)

// Config captures server-level configuration. Everything is optional except
// the listen address default: without a database the service runs on the
// in-memory stores, without Redis the summary cache is disabled, without
// Kafka the audit trail stays in the outbox only.
type Config struct {
	Addr            string
	DatabaseURL     string
	RedisURL        string
	KafkaBrokers    []string
	AuditTopic      string
	SummaryCacheTTL time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration

	// LockAllRoles extends the not_verified merge lock from the scalar
	// director/shareholder rows to individual and company records too.
	LockAllRoles bool

	// RequiredFieldOverrides replaces the compliance requirement list for a
	// role, parsed from ATTEST_REQUIRED_FIELDS_<ROLE> env vars.
	RequiredFieldOverrides map[string][]string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:             getenv("ATTEST_ADDR", ":8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		AuditTopic:       getenv("ATTEST_AUDIT_TOPIC", "attest.audit"),
		SummaryCacheTTL:  getenvDuration("ATTEST_SUMMARY_CACHE_TTL", 30*time.Second),
		HTTPReadTimeout:  getenvDuration("ATTEST_HTTP_READ_TIMEOUT", 10*time.Second),
		HTTPWriteTimeout: getenvDuration("ATTEST_HTTP_WRITE_TIMEOUT", 30*time.Second),
		LockAllRoles:     os.Getenv("ATTEST_LOCK_ALL_ROLES") == "true",
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	cfg.RequiredFieldOverrides = requiredFieldOverrides()
	return cfg
}

func requiredFieldOverrides() map[string][]string {
	overrides := make(map[string][]string)
	for _, role := range []string{"individual", "company", "director", "shareholder"} {
		env := "ATTEST_REQUIRED_FIELDS_" + strings.ToUpper(role)
		if raw := os.Getenv(env); raw != "" {
			var fields []string
			for _, f := range strings.Split(raw, ",") {
				if f = strings.TrimSpace(f); f != "" {
					fields = append(fields, f)
				}
			}
			overrides[role] = fields
		}
	}
	return overrides
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
