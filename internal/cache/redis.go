package cache

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/petcache/internal/observability"
)

// tracerName is the OpenTelemetry tracer name for cache operations.
const tracerName = "petcache/cache"

// scanBatchSize is the COUNT hint for SCAN and the DEL batch size on Clear.
const scanBatchSize = 100

// regionSeparator sits between the region name and the entry key.
const regionSeparator = "::"

// redisCache is one region stored in Redis under
// <keyPrefix><region>::<key>.
type redisCache struct {
	name      string
	keyPrefix string
	manager   *RemoteManager
	logger    observability.Logger
}

func newRedisCache(name string, m *RemoteManager) *redisCache {
	return &redisCache{
		name:      name,
		keyPrefix: m.keyPrefix + name + regionSeparator,
		manager:   m,
		logger:    m.logger.With(observability.String("region", name), observability.String("tier", tierRemote)),
	}
}

func (c *redisCache) Name() string {
	return c.name
}

func (c *redisCache) key(key string) string {
	return c.keyPrefix + key
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, span := c.startSpan(ctx, "cache.remote.Get", key)
	defer span.End()

	start := time.Now()
	defer observeDuration(tierRemote, "get", start)

	fullKey := c.key(key)

	var value []byte
	err := c.manager.exec(ctx, "get", func(ctx context.Context) error {
		v, getErr := c.manager.client.Get(ctx, fullKey).Bytes()
		if getErr != nil {
			return getErr
		}
		value = v
		return nil
	})

	switch {
	case err == nil:
		GetMetrics().hitsTotal.WithLabelValues(tierRemote, c.name).Inc()
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return value, true, nil
	case errors.Is(err, redis.Nil):
		GetMetrics().missesTotal.WithLabelValues(tierRemote, c.name).Inc()
		span.SetAttributes(attribute.Bool("cache.hit", false))
		return nil, false, nil
	default:
		return nil, false, c.fail(span, "get", key, err)
	}
}

func (c *redisCache) GetOrLoad(ctx context.Context, key string, loader Loader) ([]byte, error) {
	return loadThrough(ctx, c, key, loader)
}

func (c *redisCache) Put(ctx context.Context, key string, value []byte) error {
	if value == nil {
		return ErrNilValue
	}

	ctx, span := c.startSpan(ctx, "cache.remote.Put", key)
	defer span.End()

	start := time.Now()
	defer observeDuration(tierRemote, "put", start)

	fullKey := c.key(key)
	ttl := applyTTLJitter(c.manager.ttl, c.manager.ttlJitter)

	err := c.manager.exec(ctx, "put", func(ctx context.Context) error {
		return c.manager.client.Set(ctx, fullKey, value, ttl).Err()
	})
	if err != nil {
		return c.fail(span, "put", key, err)
	}
	return nil
}

func (c *redisCache) Evict(ctx context.Context, key string) error {
	ctx, span := c.startSpan(ctx, "cache.remote.Evict", key)
	defer span.End()

	start := time.Now()
	defer observeDuration(tierRemote, "evict", start)

	fullKey := c.key(key)

	err := c.manager.exec(ctx, "evict", func(ctx context.Context) error {
		return c.manager.client.Del(ctx, fullKey).Err()
	})
	if err != nil {
		return c.fail(span, "evict", key, err)
	}
	return nil
}

// Clear deletes the region's keys with SCAN and batched DEL. Keys of other
// regions sharing the prefix are untouched.
func (c *redisCache) Clear(ctx context.Context) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "cache.remote.Clear",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("cache.tier", tierRemote),
			attribute.String("cache.region", c.name),
		),
	)
	defer span.End()

	start := time.Now()
	defer observeDuration(tierRemote, "clear", start)

	pattern := escapeGlob(c.keyPrefix) + "*"
	var deleted int64

	err := c.manager.exec(ctx, "clear", func(ctx context.Context) error {
		var cursor uint64
		for {
			keys, next, scanErr := c.manager.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
			if scanErr != nil {
				return scanErr
			}
			if len(keys) > 0 {
				n, delErr := c.manager.client.Del(ctx, keys...).Result()
				if delErr != nil {
					return delErr
				}
				deleted += n
			}
			if next == 0 {
				return nil
			}
			cursor = next
		}
	})
	if err != nil {
		return c.fail(span, "clear", "", err)
	}

	span.SetAttributes(attribute.Int64("cache.deleted", deleted))
	c.logger.Debug("region cleared", observability.Int64("deleted", deleted))
	return nil
}

func (c *redisCache) startSpan(ctx context.Context, name, key string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("cache.tier", tierRemote),
			attribute.String("cache.region", c.name),
			attribute.String("cache.key", key),
		),
	)
}

func (c *redisCache) fail(span trace.Span, operation, key string, err error) error {
	GetMetrics().errorsTotal.WithLabelValues(tierRemote, c.name, operation).Inc()
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
	c.logger.Error("redis operation failed",
		observability.String("operation", operation),
		observability.String("key", key),
		observability.Error(err),
	)
	return fmt.Errorf("redis %s on region %q: %w", operation, c.name, err)
}

// applyTTLJitter varies ttl by up to ±jitterFactor so entries written
// together do not expire together.
func applyTTLJitter(ttl time.Duration, jitterFactor float64) time.Duration {
	if jitterFactor <= 0 || ttl <= 0 {
		return ttl
	}
	if jitterFactor > 1.0 {
		jitterFactor = 1.0
	}
	//nolint:gosec // TTL jitter does not need a secure source
	jitter := time.Duration(float64(ttl) * jitterFactor * (2*rand.Float64() - 1))
	if result := ttl + jitter; result > 0 {
		return result
	}
	return ttl
}

// escapeGlob escapes the characters SCAN MATCH treats as patterns.
func escapeGlob(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
