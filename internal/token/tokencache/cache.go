package tokencache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"swiftattend/internal/logger"
	"swiftattend/internal/token"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "token_svg:"

// Cache stores rendered SVGs in Redis keyed by a hash of the rendering
// variant and the payload. Rendering is deterministic, so an entry only goes
// stale when the settings change, and then its key changes with them.
type Cache struct {
	Client  *redis.Client
	Next    token.Renderer
	Variant string
	TTL     time.Duration
	Logger  *logger.Logger

	group singleflight.Group
}

func New(client *redis.Client, next token.Renderer, ttl time.Duration, log *logger.Logger) *Cache {
	c := &Cache{Client: client, Next: next, TTL: ttl, Logger: log}
	if v, ok := next.(token.Variant); ok {
		c.Variant = v.Variant()
	}
	return c
}

// Connect opens a Redis client for the cache and pings it.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		PoolSize: 10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

func Key(variant, payload string) string {
	sum := sha256.Sum256([]byte(variant + "\x00" + payload))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Render returns the cached SVG for payload, rendering and storing it on a
// miss. Redis failures fall through to direct rendering.
func (c *Cache) Render(ctx context.Context, payload string) ([]byte, error) {
	key := Key(c.Variant, payload)

	cached, err := c.Client.Get(ctx, key).Bytes()
	if err == nil {
		return cached, nil
	}
	if err != redis.Nil {
		c.warn(fmt.Sprintf("Token cache read failed for %s: %v", key, err))
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		svg, err := c.Next.Render(ctx, payload)
		if err != nil {
			return nil, err
		}
		if err := c.Client.Set(ctx, key, svg, c.TTL).Err(); err != nil {
			c.warn(fmt.Sprintf("Token cache write failed for %s: %v", key, err))
		}
		return svg, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *Cache) warn(msg string) {
	if c.Logger != nil {
		c.Logger.Warn("REDIS", msg)
	}
}
