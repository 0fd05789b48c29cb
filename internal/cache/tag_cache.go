// Package cache holds the Redis read-through cache for popular tag
// lookups, which back typeahead and sit on the hot path of the upload UI.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clipstash/clipstash/internal/usecase"
)

const (
	popularTagsKeyPrefix = "tags:popular"
	popularTagsTTL       = 5 * time.Minute
)

type TagCache struct {
	rdb *redis.Client
}

func NewTagCache(addr, password string) *TagCache {
	return &TagCache{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
	}
}

func popularTagsKey(category string, limit int) string {
	if category == "" {
		category = "all"
	}
	return fmt.Sprintf("%s:%s:%d", popularTagsKeyPrefix, category, limit)
}

// GetPopularTags reports a hit only when the key exists and decodes; any
// Redis failure is treated as a miss so the caller falls through to the
// database.
func (c *TagCache) GetPopularTags(ctx context.Context, category string, limit int) ([]usecase.TagCount, bool) {
	raw, err := c.rdb.Get(ctx, popularTagsKey(category, limit)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.WarnContext(ctx, "tag cache get", "error", err)
		return nil, false
	}

	var tags []usecase.TagCount
	if err := json.Unmarshal(raw, &tags); err != nil {
		slog.WarnContext(ctx, "tag cache decode", "error", err)
		return nil, false
	}
	return tags, true
}

func (c *TagCache) SetPopularTags(ctx context.Context, category string, limit int, tags []usecase.TagCount) {
	raw, err := json.Marshal(tags)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, popularTagsKey(category, limit), raw, popularTagsTTL).Err(); err != nil {
		slog.WarnContext(ctx, "tag cache set", "error", err)
	}
}

// Invalidate drops every cached popular-tags entry. Called after a tag
// usage resync so readers never see counts older than the last sync plus
// the TTL.
func (c *TagCache) Invalidate(ctx context.Context) {
	iter := c.rdb.Scan(ctx, 0, popularTagsKeyPrefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			slog.WarnContext(ctx, "tag cache invalidate", "key", iter.Val(), "error", err)
		}
	}
	if err := iter.Err(); err != nil {
		slog.WarnContext(ctx, "tag cache scan", "error", err)
	}
}

func (c *TagCache) Close() error {
	return c.rdb.Close()
}
