package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 50, cfg.Decision.ManualReviewThreshold)
	assert.Equal(t, 80, cfg.Decision.AutoRejectThreshold)
	assert.Equal(t, 7*24*time.Hour, cfg.Decision.RetentionWindow)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("RISKGATE_ADDR", ":9999")
	t.Setenv("RISKGATE_KAFKA_BROKERS", "b1:9092, b2:9092")
	t.Setenv("RISKGATE_AUTO_REJECT_THRESHOLD", "90")
	t.Setenv("RISKGATE_RETENTION_WINDOW", "48h")
	t.Setenv("RISKGATE_HIGH_RISK_AGENCIES", "AG-1,AG-2")

	cfg := FromEnv()

	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, []string{"b1:9092", "b2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 90, cfg.Decision.AutoRejectThreshold)
	assert.Equal(t, 48*time.Hour, cfg.Decision.RetentionWindow)
	assert.Equal(t, []string{"AG-1", "AG-2"}, cfg.Decision.HighRiskAgencies)
}

func TestBadValuesFallBack(t *testing.T) {
	t.Setenv("RISKGATE_AUTO_REJECT_THRESHOLD", "many")
	t.Setenv("RISKGATE_RETENTION_WINDOW", "soon")

	cfg := FromEnv()
	assert.Equal(t, 80, cfg.Decision.AutoRejectThreshold)
	assert.Equal(t, 7*24*time.Hour, cfg.Decision.RetentionWindow)
}
