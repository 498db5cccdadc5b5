package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// TokenGuard remembers consumed callback tokens. Claim reports true the first time
// a token is seen within the guard's TTL and false afterwards.
type TokenGuard interface {
	Claim(ctx context.Context, token string) (bool, error)
}

// MemoryGuard is a process-local TokenGuard.
type MemoryGuard struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

// NewMemoryGuard creates a MemoryGuard that remembers tokens for ttl.
func NewMemoryGuard(ttl time.Duration) *MemoryGuard {
	return &MemoryGuard{
		seen: make(map[string]time.Time),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Claim implements TokenGuard.
func (g *MemoryGuard) Claim(_ context.Context, token string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for t, expires := range g.seen {
		if !now.Before(expires) {
			delete(g.seen, t)
		}
	}

	if _, ok := g.seen[token]; ok {
		return false, nil
	}
	g.seen[token] = now.Add(g.ttl)
	return true, nil
}

// RedisGuard shares consumed tokens between relay instances through Redis.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisGuard creates a RedisGuard.
func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{client: client, ttl: ttl, prefix: "relay:callback:"}
}

// Claim implements TokenGuard.
func (g *RedisGuard) Claim(ctx context.Context, token string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.prefix+token, time.Now().Unix(), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim callback token: %w", err)
	}
	return ok, nil
}
