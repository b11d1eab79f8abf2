// Package cache keeps catalog reads in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hotube/backend/internal/models"
)

// DefaultTTL bounds how stale a cached catalog read can be.
const DefaultTTL = 5 * time.Minute

const (
	listKey       = "hotube:videos:list"
	videoPrefix   = "hotube:videos:"
	generationKey = "hotube:videos:generation"
)

// errStaleGeneration aborts a write whose snapshot predates an invalidation.
var errStaleGeneration = errors.New("cache generation changed")

// NewRedisClient connects to url and verifies the connection. It returns a nil
// client when url is empty so callers can leave caching disabled.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	if strings.TrimSpace(url) == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// VideoCache is a cache-aside store for the video list and single videos.
// A nil client turns every operation into a miss.
type VideoCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewVideoCache wraps rdb. Non-positive ttl falls back to DefaultTTL.
func NewVideoCache(rdb *redis.Client, ttl time.Duration) *VideoCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &VideoCache{rdb: rdb, ttl: ttl}
}

func videoKey(id string) string { return videoPrefix + id }

// GetVideos returns the cached catalog listing.
func (c *VideoCache) GetVideos(ctx context.Context) ([]models.Video, bool, error) {
	var videos []models.Video
	ok, err := c.get(ctx, listKey, &videos)
	return videos, ok, err
}

// Generation returns the invalidation counter. Read it before loading from the
// store and pass it to SetVideos or SetVideo.
func (c *VideoCache) Generation(ctx context.Context) (int64, error) {
	if c == nil || c.rdb == nil {
		return 0, nil
	}
	gen, err := c.rdb.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get %s: %w", generationKey, err)
	}
	return gen, nil
}

// SetVideos caches the catalog listing unless an invalidation happened after gen was read.
func (c *VideoCache) SetVideos(ctx context.Context, gen int64, videos []models.Video) error {
	if videos == nil {
		videos = []models.Video{}
	}
	return c.set(ctx, gen, listKey, videos)
}

// GetVideo returns a cached video.
func (c *VideoCache) GetVideo(ctx context.Context, id string) (models.Video, bool, error) {
	var video models.Video
	ok, err := c.get(ctx, videoKey(id), &video)
	return video, ok, err
}

// SetVideo caches a single video unless an invalidation happened after gen was read.
func (c *VideoCache) SetVideo(ctx context.Context, gen int64, video models.Video) error {
	return c.set(ctx, gen, videoKey(video.ID), video)
}

// Invalidate bumps the generation and removes the listing and the given videos
// in one transaction.
func (c *VideoCache) Invalidate(ctx context.Context, ids ...string) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	keys := []string{listKey}
	for _, id := range ids {
		keys = append(keys, videoKey(id))
	}
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey)
		pipe.Del(ctx, keys...)
		return nil
	})
	return err
}

// Ping reports whether Redis is reachable. A disabled cache is always healthy.
func (c *VideoCache) Ping(ctx context.Context) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

func (c *VideoCache) get(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil || c.rdb == nil {
		return false, nil
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		// drop undecodable entries so the next read repopulates them
		_ = c.rdb.Del(ctx, key).Err()
		return false, nil
	}
	return true, nil
}

func (c *VideoCache) set(ctx context.Context, gen int64, key string, value any) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	// WATCH makes EXEC fail when Invalidate runs between the check and the SET.
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, generationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			return nil
		})
		return err
	}, generationKey)
	if errors.Is(err, errStaleGeneration) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
