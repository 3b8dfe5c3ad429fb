package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"sentinelle/internal/policy"
)

// Config captures everything the server needs from the environment so main
// stays lean.
type Config struct {
	Addr        string
	Environment string

	// DatabaseURL selects the PostgreSQL decision store; empty means the
	// in-memory store (dev and tests).
	DatabaseURL string

	Redis RedisConfig

	Thresholds policy.Thresholds

	// ClientIDSalt keys the one-way client pseudonymization. It is
	// process-wide configuration: never logged, never stored next to the
	// hashes it produces.
	ClientIDSalt string

	// JWTSigningKey enables reviewer authentication on review endpoints when
	// non-empty.
	JWTSigningKey string

	Agent AgentConfig
	Audit AuditConfig
}

// RedisConfig controls the optional decision read cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// AgentConfig points at the optional narrative report agent.
type AgentConfig struct {
	Enabled bool
	BaseURL string
	Timeout time.Duration
}

// AuditConfig selects the audit event sink. Without brokers the events stay on
// the in-process sink.
type AuditConfig struct {
	KafkaBrokers []string
	KafkaTopic   string
	AsyncBuffer  int
}

// FromEnv builds a Config from environment variables, applying development
// defaults that mirror the deployment manifests.
func FromEnv() Config {
	cfg := Config{
		Addr:        getEnv("SENTINELLE_ADDR", ":8080"),
		Environment: getEnv("SENTINELLE_ENV", "dev"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			CacheTTL:     getEnvDuration("DECISION_CACHE_TTL", 5*time.Minute),
		},
		Thresholds: policy.Thresholds{
			FraudAlert:  getEnvFloat("FRAUD_ALERT_THRESHOLD", 0.85),
			RiskReject:  getEnvFloat("RISK_REJECT_THRESHOLD", 0.70),
			ReviewLower: getEnvFloat("RISK_REVIEW_LOWER", 0.45),
			ReviewUpper: getEnvFloat("RISK_REVIEW_UPPER", 0.70),
		},
		// Development default; must be overridden in production.
		ClientIDSalt:  getEnv("CLIENT_ID_SALT", "dev-salt-change-in-production"),
		JWTSigningKey: os.Getenv("JWT_SIGNING_KEY"),
		Agent: AgentConfig{
			Enabled: os.Getenv("AGENT_ENABLED") == "true",
			BaseURL: getEnv("AGENT_BASE_URL", "http://agent:9000"),
			Timeout: getEnvDuration("AGENT_TIMEOUT", 10*time.Second),
		},
		Audit: AuditConfig{
			KafkaBrokers: splitList(os.Getenv("AUDIT_KAFKA_BROKERS")),
			KafkaTopic:   getEnv("AUDIT_KAFKA_TOPIC", "sentinelle.audit"),
			AsyncBuffer:  getEnvInt("AUDIT_ASYNC_BUFFER", 256),
		},
	}
	return cfg
}

// Validate reports configuration problems. Threshold ordering violations are
// returned as warnings rather than errors: the arbitration stays total either
// way, but a misordered band makes REVIEW unreachable.
func (c Config) Validate() (warnings []string, err error) {
	if c.ClientIDSalt == "" {
		return nil, fmt.Errorf("client id salt is required")
	}
	warnings = append(warnings, c.Thresholds.Validate()...)
	return warnings, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
