package preference

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/redis/go-redis/v9"
)

// ══════════════════════════════════════════════════════════════════════════════
// REDIS STORE
// ══════════════════════════════════════════════════════════════════════════════

// RedisConfig holds Redis connection configuration for the preference store.
type RedisConfig struct {
	// Host is the Redis server hostname.
	Host string

	// Port is the Redis server port.
	Port int

	// Password is the Redis authentication password (empty if no auth).
	Password string

	// DB is the Redis database number (0-15).
	DB int

	// KeyPrefix namespaces every preference key.
	KeyPrefix string

	// DialTimeout is the timeout for establishing new connections.
	DialTimeout time.Duration

	// ReadTimeout is the timeout for socket reads.
	ReadTimeout time.Duration

	// WriteTimeout is the timeout for socket writes.
	WriteTimeout time.Duration

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultRedisConfig returns a sensible default configuration.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Host:         "localhost",
		Port:         6379,
		DB:           0,
		KeyPrefix:    "campus:pref:",
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Addr returns the Redis address in "host:port" format.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisStore is a Redis-backed implementation of Store. Values live under
// prefixed string keys; change notification rides Redis pub/sub on a channel
// per key, so watchers in other processes observe the same commits.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRedisStore connects to Redis and verifies the connection with a bounded
// retry before returning.
func NewRedisStore(ctx context.Context, config RedisConfig) (*RedisStore, error) {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = DefaultRedisConfig().KeyPrefix
	}

	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr(),
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	err := retry.Do(
		func() error { return client.Ping(ctx).Err() },
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.OnRetry(func(n uint, err error) {
			config.Logger.Warn("redis ping failed, retrying",
				"attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("preference: connect redis: %w", err)
	}

	return &RedisStore{
		client: client,
		prefix: config.KeyPrefix,
		logger: config.Logger,
	}, nil
}

func (s *RedisStore) dataKey(key string) string { return s.prefix + key }
func (s *RedisStore) channel(key string) string { return s.prefix + "changed:" + key }

// Get returns the stored value and whether the key exists.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.dataKey(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("preference: get %s: %w", key, err)
	}
	return v, true, nil
}

// Set stores the value and publishes the change notification. SET and
// PUBLISH go through one pipeline so a committed value is always announced.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.dataKey(key), value, 0)
	pipe.Publish(ctx, s.channel(key), value)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("preference: set %s: %w", key, err)
	}
	return nil
}

// Watch subscribes to the key's change channel until ctx is cancelled.
func (s *RedisStore) Watch(ctx context.Context, key string) (<-chan string, error) {
	sub := s.client.Subscribe(ctx, s.channel(key))
	// Force the subscription to be established before returning, so a Set
	// issued after Watch is never missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("preference: watch %s: %w", key, err)
	}

	out := make(chan string, 16)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Close releases the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
