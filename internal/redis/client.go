// Package redis wraps the remote cache backend behind a soft-failing
// adapter. Every operation that hits the network contains its own errors:
// the caller sees a miss or a no-op, never an exception, so the cache
// engine keeps functioning with the remote tier unavailable.
package redis

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"

	"catalog-cache/internal/common/logging"
)

// ConnectionState tracks remote tier connectivity.
type ConnectionState int32

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
)

// String returns the string representation of a connection state
func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// Config holds remote cache connection parameters. When URL is set it takes
// the place of the discrete fields.
type Config struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
	URL      string `json:"url"`
}

const opTimeout = 5 * time.Second

// Client is the remote tier adapter. Connectivity state is driven by the
// go-redis OnConnect hook and by per-operation error observation; callers
// read it via Connected() and never block on it.
type Client struct {
	rdb       *redis.Client
	config    *Config
	state     int32
	logger    logging.Logger
	closeOnce sync.Once
}

// NewClient builds the adapter and probes the backend once. A failed probe
// is logged and leaves the client in the disconnected state; the client is
// still returned, since go-redis re-establishes connections per operation
// and the OnConnect hook flips the state back when one succeeds.
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("redis config is required")
	}

	var opts *redis.Options
	if config.URL != "" {
		parsed, err := redis.ParseURL(config.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis URL: %w", err)
		}
		opts = parsed
	} else {
		if config.Address == "" {
			config.Address = "localhost:6379"
		}
		opts = &redis.Options{
			Addr:     config.Address,
			Password: config.Password,
			DB:       config.DB,
		}
	}
	if config.PoolSize > 0 {
		opts.PoolSize = config.PoolSize
	}

	client := &Client{
		config: config,
		state:  int32(Connecting),
		logger: logging.GetGlobalLogger().WithFields(logging.String("component", "redis")),
	}

	opts.OnConnect = func(ctx context.Context, cn *redis.Conn) error {
		client.setState(Connected)
		return nil
	}

	client.rdb = redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := client.rdb.Ping(ctx).Err(); err != nil {
		client.setState(Disconnected)
		client.logger.Warn("remote cache unreachable, continuing without it",
			logging.String("address", opts.Addr), logging.Err(err))
	}

	return client, nil
}

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	return ConnectionState(atomic.LoadInt32(&c.state))
}

// Connected reports whether remote operations may be attempted.
func (c *Client) Connected() bool {
	return c.State() == Connected
}

func (c *Client) setState(state ConnectionState) {
	atomic.StoreInt32(&c.state, int32(state))
}

// observeError contains an operation error: a plain miss leaves the state
// alone, anything else flips to disconnected and is logged.
func (c *Client) observeError(op, key string, err error) {
	if err == nil || err == redis.Nil {
		return
	}
	c.setState(Disconnected)
	c.logger.Warn("remote cache operation failed",
		logging.String("op", op), logging.String("key", key), logging.Err(err))
}

// Get returns the value for key, or a miss. Backend errors are contained.
func (c *Client) Get(ctx context.Context, key string) (string, bool) {
	value, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		c.observeError("get", key, err)
		return "", false
	}
	return value, true
}

// SetWithTTL stores value under key with an expiry. Reports success only.
func (c *Client) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) bool {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		c.observeError("set", key, err)
		return false
	}
	return true
}

// Delete removes the given keys. Missing keys are not an error.
func (c *Client) Delete(ctx context.Context, keys ...string) bool {
	if len(keys) == 0 {
		return true
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.observeError("delete", strings.Join(keys, ","), err)
		return false
	}
	return true
}

// DeleteByPattern enumerates keys matching pattern via SCAN and bulk-deletes
// them. Zero matches is a no-op. Returns the number of keys deleted.
func (c *Client) DeleteByPattern(ctx context.Context, pattern string) int {
	iter := c.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.observeError("scan", pattern, err)
		return 0
	}

	if len(keys) == 0 {
		return 0
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.observeError("delete", pattern, err)
		return 0
	}
	return len(keys)
}

// MemoryUsage reports the backend's used_memory_human figure, best-effort.
func (c *Client) MemoryUsage(ctx context.Context) (string, bool) {
	info, err := c.rdb.Info(ctx, "memory").Result()
	if err != nil {
		c.observeError("info", "memory", err)
		return "", false
	}
	for _, line := range strings.Split(info, "\n") {
		if strings.HasPrefix(line, "used_memory_human:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "used_memory_human:")), true
		}
	}
	return "", false
}

// Health pings the backend and updates the connection state accordingly.
func (c *Client) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := c.rdb.Ping(ctx).Err(); err != nil {
		c.setState(Disconnected)
		return err
	}
	c.setState(Connected)
	return nil
}

// Close releases the underlying connection pool. Safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.setState(Disconnected)
		err = c.rdb.Close()
	})
	return err
}
