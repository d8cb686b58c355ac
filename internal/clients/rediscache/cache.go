package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Yashraj8888/Leetcode-Companion/internal/logger"
)

// Key is a structured cache key: route name plus normalized parameters.
// Building keys from parts instead of interpolated strings keeps an empty
// parameter from colliding with a literal sentinel value.
type Key struct {
	Route  string
	Params []string
}

func (k Key) String() string {
	parts := make([]string, 0, len(k.Params)+1)
	parts = append(parts, k.Route)
	for _, p := range k.Params {
		parts = append(parts, url.QueryEscape(strings.TrimSpace(p)))
	}
	return "resp:" + strings.Join(parts, ":")
}

// Cache is a short-lived response cache sitting in front of the routes,
// decoupled from entity staleness. A nil *Cache is valid and degrades to
// pass-through, so a missing Redis never takes the service down.
type Cache struct {
	log        *logger.Logger
	rdb        *goredis.Client
	defaultTTL time.Duration
}

func New(log *logger.Logger, defaultTTL time.Duration) (*Cache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}

	return &Cache{
		log:        log.With("client", "ResponseCache"),
		rdb:        rdb,
		defaultTTL: defaultTTL,
	}, nil
}

// Get reports whether a cached value existed and was decoded into out.
// Redis errors count as misses.
func (c *Cache) Get(ctx context.Context, key Key, out interface{}) bool {
	if c == nil || c.rdb == nil {
		return false
	}
	raw, err := c.rdb.Get(ctx, key.String()).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Debug("Cache read failed", "key", key.String(), "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.log.Debug("Cache entry undecodable, treating as miss", "key", key.String(), "error", err)
		return false
	}
	return true
}

// Set stores val under key. A ttl of zero uses the cache default. Failures
// are logged and swallowed; caching is best-effort.
func (c *Cache) Set(ctx context.Context, key Key, val interface{}, ttl time.Duration) {
	if c == nil || c.rdb == nil {
		return
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	raw, err := json.Marshal(val)
	if err != nil {
		c.log.Debug("Cache value not serializable", "key", key.String(), "error", err)
		return
	}
	if err := c.rdb.Set(ctx, key.String(), raw, ttl).Err(); err != nil {
		c.log.Debug("Cache write failed", "key", key.String(), "error", err)
	}
}

func (c *Cache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
