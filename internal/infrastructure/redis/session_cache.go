package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const sessionPrefix = "session:"

// SessionCache maps apikeys to user ids. Entries never outlive the key they
// mirror and are capped at MaxTTL.
type SessionCache struct {
	rdb    *goredis.Client
	MaxTTL time.Duration
	Now    func() time.Time
}

func NewSessionCache(rdb *goredis.Client, maxTTL time.Duration) *SessionCache {
	return &SessionCache{rdb: rdb, MaxTTL: maxTTL, Now: time.Now}
}

func (c *SessionCache) Get(ctx context.Context, token string) (string, bool, error) {
	uid, err := c.rdb.Get(ctx, sessionPrefix+token).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return uid, true, nil
}

func (c *SessionCache) Set(ctx context.Context, token, userID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(c.Now())
	if ttl <= 0 {
		return c.Delete(ctx, token)
	}
	if c.MaxTTL > 0 && ttl > c.MaxTTL {
		ttl = c.MaxTTL
	}
	return c.rdb.Set(ctx, sessionPrefix+token, userID, ttl).Err()
}

func (c *SessionCache) Delete(ctx context.Context, token string) error {
	return c.rdb.Del(ctx, sessionPrefix+token).Err()
}
