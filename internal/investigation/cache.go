package investigation

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "narcosignal:investigation:"

// Cache stores finished investigation profiles in redis so repeated lookups
// for the same username do not re-run the external tools. Redis being down
// degrades to a miss; it never fails an investigation.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCache creates a cache with the given TTL. A zero TTL disables expiry.
func NewCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{client: client, ttl: ttl, logger: logger}
}

func cacheKey(username, platform string) string {
	return cacheKeyPrefix + strings.ToLower(platform) + ":" + strings.ToLower(username)
}

// Get returns a cached profile, or false on miss or redis failure.
func (c *Cache) Get(ctx context.Context, username, platform string) (*Profile, bool) {
	raw, err := c.client.Get(ctx, cacheKey(username, platform)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("investigation cache read failed", zap.Error(err))
		return nil, false
	}

	var profile Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		c.logger.Warn("investigation cache entry corrupt", zap.Error(err))
		return nil, false
	}
	return &profile, true
}

// Set stores a profile. Failures are logged and swallowed.
func (c *Cache) Set(ctx context.Context, profile *Profile) {
	raw, err := json.Marshal(profile)
	if err != nil {
		c.logger.Warn("investigation cache encode failed", zap.Error(err))
		return
	}

	key := cacheKey(profile.Username, profile.OriginPlatform)
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("investigation cache write failed", zap.Error(err))
	}
}
