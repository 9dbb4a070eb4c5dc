// Package config builds runtime configuration from the environment so main
// stays lean. Defaults suit local development; every value can be overridden.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Kafka groups broker settings shared by the consumer and producer.
type Kafka struct {
	Brokers       []string
	ConsumerGroup string
}

// Redis captures connection settings for the velocity counter store.
type Redis struct {
	URL          string
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Decision carries the policy thresholds the legacy service hardcoded.
type Decision struct {
	ManualReviewThreshold int
	AutoRejectThreshold   int
	RetentionWindow       time.Duration
	SweepInterval         time.Duration
	EmailVelocityMax24h   int
	BusinessHourStart     int
	BusinessHourEnd       int
	HighRiskAgencies      []string
	PremiumAgencies       []string
	RuralAgencies         []string
}

// Config is the full server configuration.
type Config struct {
	Addr        string
	AdminToken  string
	PostgresURL string
	Kafka       Kafka
	Redis       Redis
	Decision    Decision
}

// FromEnv reads configuration from environment variables.
func FromEnv() Config {
	return Config{
		Addr:        envString("RISKGATE_ADDR", ":8080"),
		AdminToken:  envString("RISKGATE_ADMIN_TOKEN", ""),
		PostgresURL: envString("RISKGATE_POSTGRES_URL", ""),
		Kafka: Kafka{
			Brokers:       envList("RISKGATE_KAFKA_BROKERS", []string{"localhost:9092"}),
			ConsumerGroup: envString("RISKGATE_KAFKA_GROUP", "riskgate-pipeline"),
		},
		Redis: Redis{
			URL:          envString("RISKGATE_REDIS_URL", ""),
			PoolSize:     envInt("RISKGATE_REDIS_POOL_SIZE", 10),
			DialTimeout:  envDuration("RISKGATE_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("RISKGATE_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("RISKGATE_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Decision: Decision{
			ManualReviewThreshold: envInt("RISKGATE_MANUAL_REVIEW_THRESHOLD", 50),
			AutoRejectThreshold:   envInt("RISKGATE_AUTO_REJECT_THRESHOLD", 80),
			RetentionWindow:       envDuration("RISKGATE_RETENTION_WINDOW", 7*24*time.Hour),
			SweepInterval:         envDuration("RISKGATE_SWEEP_INTERVAL", time.Hour),
			EmailVelocityMax24h:   envInt("RISKGATE_EMAIL_VELOCITY_MAX", 3),
			BusinessHourStart:     envInt("RISKGATE_BUSINESS_HOUR_START", 8),
			BusinessHourEnd:       envInt("RISKGATE_BUSINESS_HOUR_END", 18),
			HighRiskAgencies:      envList("RISKGATE_HIGH_RISK_AGENCIES", nil),
			PremiumAgencies:       envList("RISKGATE_PREMIUM_AGENCIES", nil),
			RuralAgencies:         envList("RISKGATE_RURAL_AGENCIES", nil),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
