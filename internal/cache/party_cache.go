package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"partyhub/internal/domain"
)

// partyListKey holds the hot list. One key, one DEL on invalidation.
const partyListKey = "partyhub:parties:hot"

// redisCmdable is the slice of the go-redis API the cache uses.
// *redis.Client satisfies it; tests substitute a fake.
type redisCmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// PartyListCache is the Redis-backed domain.PartyListCache. Entries carry
// their own CachedAt and are stored without a Redis TTL: freshness is the
// caller's policy, and a stale copy is still a usable fallback.
type PartyListCache struct {
	rdb redisCmdable
	now func() time.Time
}

func NewPartyListCache(rdb redisCmdable) *PartyListCache {
	return &PartyListCache{rdb: rdb, now: time.Now}
}

func (c *PartyListCache) Get(ctx context.Context) (*domain.CachedPartyList, error) {
	data, err := c.rdb.Get(ctx, partyListKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get: %w", err)
	}
	entry := &domain.CachedPartyList{}
	if err := json.Unmarshal(data, entry); err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}
	return entry, nil
}

func (c *PartyListCache) Set(ctx context.Context, parties []*domain.Party, total int) error {
	entry := domain.CachedPartyList{
		Parties:  parties,
		Total:    total,
		CachedAt: c.now().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.rdb.Set(ctx, partyListKey, data, 0).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (c *PartyListCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Del(ctx, partyListKey).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

// Connect parses a Redis URL, opens a client, and verifies it with a ping.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Noop is the cache used when no Redis is configured: misses on every read,
// swallows every write.
type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (*Noop) Get(context.Context) (*domain.CachedPartyList, error) { return nil, nil }
func (*Noop) Set(context.Context, []*domain.Party, int) error      { return nil }
func (*Noop) Invalidate(context.Context) error                     { return nil }
