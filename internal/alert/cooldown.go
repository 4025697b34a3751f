package alert

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/couchcryptid/water-quality-monitor/internal/domain"
)

// Cooldown rate-limits notifications so a probe stuck in a bad state does
// not page operators once per reading. Allow reports whether a notification
// for the given severity may go out now; a true result claims the window.
type Cooldown interface {
	Allow(ctx context.Context, severity domain.Severity) (bool, error)
}

// RedisCooldown tracks cooldown windows in redis so the suppression state
// is shared across service replicas and survives restarts.
type RedisCooldown struct {
	client *redis.Client
	window time.Duration
}

// NewRedisCooldown creates a redis-backed cooldown with the given window.
func NewRedisCooldown(client *redis.Client, window time.Duration) *RedisCooldown {
	return &RedisCooldown{client: client, window: window}
}

func (c *RedisCooldown) Allow(ctx context.Context, severity domain.Severity) (bool, error) {
	return c.client.SetNX(ctx, "alert:cooldown:"+severity.String(), 1, c.window).Result()
}

// MemoryCooldown is the single-process fallback when no redis is configured.
type MemoryCooldown struct {
	window time.Duration

	mu   sync.Mutex
	last map[domain.Severity]time.Time
}

// NewMemoryCooldown creates an in-process cooldown with the given window.
func NewMemoryCooldown(window time.Duration) *MemoryCooldown {
	return &MemoryCooldown{
		window: window,
		last:   make(map[domain.Severity]time.Time),
	}
}

func (c *MemoryCooldown) Allow(_ context.Context, severity domain.Severity) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := domain.Now()
	if sent, ok := c.last[severity]; ok && now.Sub(sent) < c.window {
		return false, nil
	}
	c.last[severity] = now
	return true, nil
}
