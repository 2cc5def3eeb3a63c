package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/vyrodovalexey/petcache/internal/config"
	"github.com/vyrodovalexey/petcache/internal/observability"
	"github.com/vyrodovalexey/petcache/internal/retry"
)

// pingTimeout bounds the connectivity check at construction.
const pingTimeout = 5 * time.Second

// RemoteManager owns the Redis client shared by every remote region.
type RemoteManager struct {
	logger    observability.Logger
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	ttlJitter float64
	backoff   retry.Backoff
	breaker   *gobreaker.CircuitBreaker

	dynamic bool

	mu      sync.RWMutex
	regions map[string]*redisCache
}

// NewRemoteManager connects to Redis (standalone URL or Sentinel) and
// verifies the connection. An empty region list resolves any name.
func NewRemoteManager(
	cfg *config.RemoteCacheConfig, regions []string, logger observability.Logger,
) (*RemoteManager, error) {
	client, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	if err := pingRedis(client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return NewRemoteManagerWithClient(client, cfg, regions, logger), nil
}

// NewRemoteManagerWithClient builds a manager around an existing client.
// The manager takes ownership and closes it on Close.
func NewRemoteManagerWithClient(
	client *redis.Client, cfg *config.RemoteCacheConfig, regions []string, logger observability.Logger,
) *RemoteManager {
	m := &RemoteManager{
		logger:    logger,
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		ttl:       cfg.TTL.Duration(),
		ttlJitter: cfg.TTLJitter,
		backoff: retry.Backoff{
			MaxRetries:     cfg.Retry.MaxRetries,
			InitialBackoff: cfg.Retry.InitialBackoff.Duration(),
			MaxBackoff:     cfg.Retry.MaxBackoff.Duration(),
			JitterFactor:   retry.DefaultJitterFactor,
		},
		dynamic: len(regions) == 0,
		regions: make(map[string]*redisCache, len(regions)),
	}

	if cfg.CircuitBreaker.Enabled {
		m.breaker = newRemoteBreaker(cfg.CircuitBreaker, logger)
	}

	for _, name := range regions {
		m.regions[name] = newRedisCache(name, m)
	}

	logger.Info("remote cache manager initialized",
		observability.Int("regions", len(regions)),
		observability.String("keyPrefix", m.keyPrefix),
		observability.Duration("ttl", m.ttl),
		observability.Float64("ttlJitter", m.ttlJitter),
		observability.Bool("circuitBreaker", m.breaker != nil),
	)

	return m
}

func newRedisClient(cfg *config.RemoteCacheConfig) (*redis.Client, error) {
	if cfg.Sentinel != nil && cfg.Sentinel.MasterName != "" {
		if len(cfg.Sentinel.SentinelAddrs) == 0 {
			return nil, errors.New("at least one sentinel address is required")
		}
		opts := &redis.FailoverOptions{
			MasterName:       cfg.Sentinel.MasterName,
			SentinelAddrs:    cfg.Sentinel.SentinelAddrs,
			SentinelPassword: cfg.Sentinel.SentinelPassword,
			Password:         cfg.Sentinel.Password,
			DB:               cfg.Sentinel.DB,
		}
		if cfg.PoolSize > 0 {
			opts.PoolSize = cfg.PoolSize
		}
		if cfg.ConnectTimeout > 0 {
			opts.DialTimeout = cfg.ConnectTimeout.Duration()
		}
		if cfg.ReadTimeout > 0 {
			opts.ReadTimeout = cfg.ReadTimeout.Duration()
		}
		if cfg.WriteTimeout > 0 {
			opts.WriteTimeout = cfg.WriteTimeout.Duration()
		}
		return redis.NewFailoverClient(opts), nil
	}

	if cfg.URL == "" {
		return nil, errors.New("redis URL is required")
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.ConnectTimeout > 0 {
		opts.DialTimeout = cfg.ConnectTimeout.Duration()
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout.Duration()
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout.Duration()
	}
	return redis.NewClient(opts), nil
}

func pingRedis(client *redis.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return client.Ping(ctx).Err()
}

func newRemoteBreaker(cfg config.CircuitBreakerConfig, logger observability.Logger) *gobreaker.CircuitBreaker {
	threshold := safeIntToUint32(cfg.Threshold)
	gauge := GetMetrics().breakerState

	settings := gobreaker.Settings{
		Name:        "redis",
		MaxRequests: 1,
		Timeout:     cfg.Timeout.Duration(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			gauge.WithLabelValues(name).Set(float64(to))
			logger.Warn("remote cache circuit breaker state change",
				observability.String("name", name),
				observability.String("from", from.String()),
				observability.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// A miss or an abandoned call says nothing about Redis health.
			return err == nil ||
				errors.Is(err, redis.Nil) ||
				errors.Is(err, context.Canceled)
		},
	}

	gauge.WithLabelValues(settings.Name).Set(float64(gobreaker.StateClosed))
	return gobreaker.NewCircuitBreaker(settings)
}

func safeIntToUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	if n > int(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(n) //nolint:gosec // bounds checked above
}

// exec runs fn with retries, behind the circuit breaker when enabled.
func (m *RemoteManager) exec(ctx context.Context, operation string, fn func(context.Context) error) error {
	run := func() error {
		return retry.Do(ctx, m.backoff, fn, retry.Options{
			ShouldRetry: isRetryableRedisError,
			OnRetry: func(attempt int, err error, wait time.Duration) {
				m.logger.Debug("retrying redis operation",
					observability.String("operation", operation),
					observability.Int("attempt", attempt),
					observability.Duration("wait", wait),
					observability.Error(err),
				)
			},
		})
	}

	if m.breaker == nil {
		return run()
	}

	_, err := m.breaker.Execute(func() (interface{}, error) {
		return nil, run()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}
	return err
}

// isRetryableRedisError reports whether err is worth another attempt.
func isRetryableRedisError(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, redis.Nil) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

// Cache returns the region for name.
func (m *RemoteManager) Cache(name string) (Cache, bool) {
	m.mu.RLock()
	c, ok := m.regions[name]
	m.mu.RUnlock()
	if ok {
		return c, true
	}
	if !m.dynamic {
		return nil, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok = m.regions[name]; !ok {
		c = newRedisCache(name, m)
		m.regions[name] = c
	}
	return c, true
}

// CacheNames returns the region names, sorted.
func (m *RemoteManager) CacheNames() []string {
	m.mu.RLock()
	names := make([]string, 0, len(m.regions))
	for name := range m.regions {
		names = append(names, name)
	}
	m.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Ping checks connectivity. Used by the readiness check.
func (m *RemoteManager) Ping(ctx context.Context) error {
	return m.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (m *RemoteManager) Close() error {
	m.logger.Info("remote cache manager closing")
	return m.client.Close()
}
