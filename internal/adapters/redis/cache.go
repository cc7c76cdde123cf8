package redisad

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sweepstakes/internal/adapters/observability"
)

const (
	storeLabel = "redis"
	scanBatch  = 200
)

// Cache stores JSON documents in redis. A ttlSec of 0 stores without expiry.
type Cache struct{ rdb *redis.Client }

func New(addr, pass string, db int) *Cache {
	return NewWithClient(redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     pass,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	}))
}

func NewWithClient(rdb *redis.Client) *Cache { return &Cache{rdb: rdb} }

func (c *Cache) Ping(ctx context.Context) error { return c.rdb.Ping(ctx).Err() }

func (c *Cache) Close() error { return c.rdb.Close() }

// Get decodes the document at key into dst. Absent and undecodable
// documents are both reported as a miss.
func (c *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		observability.ObserveCache(storeLabel, "miss")
		return false, nil
	case err != nil:
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if json.Unmarshal(raw, dst) != nil {
		observability.ObserveCache(storeLabel, "miss")
		return false, nil
	}
	observability.ObserveCache(storeLabel, "hit")
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := c.rdb.Set(ctx, key, raw, time.Duration(ttlSec)*time.Second).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	observability.ObserveCache(storeLabel, "set")
	return nil
}

func (c *Cache) Del(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	observability.ObserveCache(storeLabel, "del")
	return nil
}

// DelPrefix evicts every key starting with prefix. It walks the keyspace with
// SCAN, so it never blocks the server the way KEYS would.
func (c *Cache) DelPrefix(ctx context.Context, prefix string) error {
	iter := c.rdb.Scan(ctx, 0, prefix+"*", scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := c.rdb.Unlink(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis unlink %s*: %w", prefix, err)
		}
		for range batch {
			observability.ObserveCache(storeLabel, "del")
		}
		batch = batch[:0]
		return nil
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan %s*: %w", prefix, err)
	}
	return flush()
}
