// Package history assembles the injected lookups the scoring engine needs.
// Velocity counters live in Redis when configured; the request store is the
// fallback so the pipeline keeps working without Redis.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"riskgate/internal/platform/redis"
	"riskgate/internal/validation/fraud"
)

const (
	window24h = 24 * time.Hour
	window30d = 30 * 24 * time.Hour
)

// StoreCounts is the subset of the request store the provider queries.
type StoreCounts interface {
	CountByEmailCreatedAfter(ctx context.Context, email string, after time.Time) (int, error)
	ExistsActiveIdentity(ctx context.Context, identityNumber, excludeCorrelationID string) (bool, error)
}

// Provider builds fraud.History snapshots.
type Provider struct {
	store  StoreCounts
	redis  *redis.Client
	logger *slog.Logger
}

// New creates a provider. redisClient may be nil; counting then falls back
// to the store.
func New(store StoreCounts, redisClient *redis.Client, logger *slog.Logger) *Provider {
	return &Provider{store: store, redis: redisClient, logger: logger}
}

// RecordSubmission bumps the rolling email counters for a fresh submission.
// Failures are logged, never fatal: the store fallback still counts the
// persisted record.
func (p *Provider) RecordSubmission(ctx context.Context, email string) {
	if p.redis == nil || email == "" {
		return
	}
	for _, w := range []struct {
		key string
		ttl time.Duration
	}{
		{emailKey(email, "24h"), window24h},
		{emailKey(email, "30d"), window30d},
	} {
		pipe := p.redis.TxPipeline()
		pipe.Incr(ctx, w.key)
		pipe.Expire(ctx, w.key, w.ttl)
		if _, err := pipe.Exec(ctx); err != nil {
			p.logger.Warn("velocity counter update failed", "key", w.key, "error", err)
		}
	}
}

// Snapshot gathers the history for one request. The request itself is
// excluded from counts and duplicate checks via its correlation id.
func (p *Provider) Snapshot(ctx context.Context, email, identityNumber, excludeCorrelationID string) (fraud.History, error) {
	var hist fraud.History

	// Counters and store rows both include the submission being scored;
	// history is defined to exclude it.
	uses24h, err := p.countEmail(ctx, email, "24h", window24h)
	if err != nil {
		return hist, err
	}
	uses30d, err := p.countEmail(ctx, email, "30d", window30d)
	if err != nil {
		return hist, err
	}
	hist.EmailUses24h = max(0, uses24h-1)
	hist.EmailUses30d = max(0, uses30d-1)

	if identityNumber != "" {
		inUse, err := p.store.ExistsActiveIdentity(ctx, identityNumber, excludeCorrelationID)
		if err != nil {
			return hist, fmt.Errorf("check identity usage: %w", err)
		}
		hist.IdentityInUse = inUse
	}
	return hist, nil
}

func (p *Provider) countEmail(ctx context.Context, email, suffix string, window time.Duration) (int, error) {
	if email == "" {
		return 0, nil
	}
	if p.redis != nil {
		n, err := p.redis.Get(ctx, emailKey(email, suffix)).Int()
		switch {
		case err == nil:
			return n, nil
		case errors.Is(err, goredis.Nil):
			// Counter never written (Redis enabled after requests existed);
			// the store fallback below still counts correctly.
		default:
			p.logger.Warn("velocity counter read failed, falling back to store",
				"email_suffix", suffix, "error", err)
		}
	}
	n, err := p.store.CountByEmailCreatedAfter(ctx, email, time.Now().Add(-window))
	if err != nil {
		return 0, fmt.Errorf("count email submissions: %w", err)
	}
	return n, nil
}

func emailKey(email, suffix string) string {
	return "riskgate:velocity:email:" + strings.ToLower(email) + ":" + suffix
}
