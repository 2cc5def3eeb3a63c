package cache

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/vyrodovalexey/petcache/internal/observability"
)

// HybridCache reads the local tier first and falls back to the remote
// tier, copying remote hits into the local tier. Writes, evictions and
// clears go to the local tier and then to the remote tier. The two writes
// are not atomic; a failure in the first skips the second.
//
// Tier errors are returned as they are. HybridCache never retries.
type HybridCache struct {
	name   string
	local  Cache
	remote Cache
	logger observability.Logger

	// loads is set when concurrent misses on a key share one loader call.
	loads *singleflight.Group
}

// HybridOption configures a HybridCache.
type HybridOption func(*HybridCache)

// WithLoadCoalescing makes concurrent GetOrLoad misses on the same key
// wait for a single loader call. Waiters receive the leader's result,
// including its error.
func WithLoadCoalescing() HybridOption {
	return func(c *HybridCache) {
		c.loads = &singleflight.Group{}
	}
}

// NewHybridCache pairs local and remote under name. The returned cache
// implements StatsReporter when local does.
func NewHybridCache(name string, local, remote Cache, logger observability.Logger, opts ...HybridOption) Cache {
	c := &HybridCache{
		name:   name,
		local:  local,
		remote: remote,
		logger: logger.With(observability.String("region", name), observability.String("tier", tierHybrid)),
	}
	for _, opt := range opts {
		opt(c)
	}

	if reporter, ok := local.(StatsReporter); ok {
		return &reportingHybridCache{HybridCache: c, stats: reporter}
	}
	return c
}

// Name returns the region name.
func (c *HybridCache) Name() string {
	return c.name
}

// Get returns the local value, or the remote value after copying it into
// the local tier.
func (c *HybridCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, span := c.startSpan(ctx, "cache.hybrid.Get", key)
	defer span.End()

	value, ok, err := c.lookup(ctx, key)
	if err != nil {
		recordSpanError(span, err)
		return nil, false, err
	}
	return value, ok, nil
}

// GetOrLoad behaves like Get and calls loader when both tiers miss. A
// non-nil result is written to both tiers. Loader errors come back as
// *LoadError and nothing is cached.
func (c *HybridCache) GetOrLoad(ctx context.Context, key string, loader Loader) ([]byte, error) {
	ctx, span := c.startSpan(ctx, "cache.hybrid.GetOrLoad", key)
	defer span.End()

	value, ok, err := c.lookup(ctx, key)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	if ok {
		return value, nil
	}

	if c.loads == nil {
		value, err = c.load(ctx, key, loader)
	} else {
		var shared interface{}
		shared, err, _ = c.loads.Do(key, func() (interface{}, error) {
			return c.load(ctx, key, loader)
		})
		if err == nil {
			value = shared.([]byte)
		}
	}
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return value, nil
}

// Put writes value to the local tier, then to the remote tier.
func (c *HybridCache) Put(ctx context.Context, key string, value []byte) error {
	if value == nil {
		return ErrNilValue
	}

	ctx, span := c.startSpan(ctx, "cache.hybrid.Put", key)
	defer span.End()

	if err := c.local.Put(ctx, key, value); err != nil {
		recordSpanError(span, err)
		return err
	}
	if err := c.remote.Put(ctx, key, value); err != nil {
		recordSpanError(span, err)
		return err
	}
	return nil
}

// Evict removes key from the local tier, then from the remote tier.
func (c *HybridCache) Evict(ctx context.Context, key string) error {
	ctx, span := c.startSpan(ctx, "cache.hybrid.Evict", key)
	defer span.End()

	if err := c.local.Evict(ctx, key); err != nil {
		recordSpanError(span, err)
		return err
	}
	if err := c.remote.Evict(ctx, key); err != nil {
		recordSpanError(span, err)
		return err
	}
	return nil
}

// Clear empties the local tier, then the remote tier.
func (c *HybridCache) Clear(ctx context.Context) error {
	ctx, span := c.startSpan(ctx, "cache.hybrid.Clear", "")
	defer span.End()

	if err := c.local.Clear(ctx); err != nil {
		recordSpanError(span, err)
		return err
	}
	if err := c.remote.Clear(ctx); err != nil {
		recordSpanError(span, err)
		return err
	}

	c.logger.Debug("region cleared in both tiers")
	return nil
}

func (c *HybridCache) lookup(ctx context.Context, key string) ([]byte, bool, error) {
	lookups := GetMetrics().lookupsTotal

	value, ok, err := c.local.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if ok {
		lookups.WithLabelValues(c.name, lookupLocalHit).Inc()
		trace.SpanFromContext(ctx).SetAttributes(attribute.String("cache.lookup", lookupLocalHit))
		return value, true, nil
	}

	value, ok, err = c.remote.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		lookups.WithLabelValues(c.name, lookupMiss).Inc()
		trace.SpanFromContext(ctx).SetAttributes(attribute.String("cache.lookup", lookupMiss))
		return nil, false, nil
	}

	if err := c.local.Put(ctx, key, value); err != nil {
		return nil, false, err
	}
	lookups.WithLabelValues(c.name, lookupRemoteHit).Inc()
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("cache.lookup", lookupRemoteHit))

	c.logger.Debug("local tier repopulated from remote", observability.String("key", key))
	return value, true, nil
}

func (c *HybridCache) load(ctx context.Context, key string, loader Loader) ([]byte, error) {
	loads := GetMetrics().loadsTotal

	value, err := loader(ctx)
	if err != nil {
		loads.WithLabelValues(c.name, loadFailed).Inc()
		return nil, &LoadError{Region: c.name, Key: key, Err: err}
	}
	if value == nil {
		loads.WithLabelValues(c.name, loadNil).Inc()
		return nil, nil
	}

	if err := c.Put(ctx, key, value); err != nil {
		return nil, err
	}
	loads.WithLabelValues(c.name, loadStored).Inc()
	return value, nil
}

func (c *HybridCache) startSpan(ctx context.Context, name, key string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("cache.tier", tierHybrid),
			attribute.String("cache.region", c.name),
			attribute.String("cache.key", key),
		),
	)
}

func recordSpanError(span trace.Span, err error) {
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
}

// reportingHybridCache is a HybridCache whose local tier records
// statistics.
type reportingHybridCache struct {
	*HybridCache
	stats StatsReporter
}

// Stats returns the local tier's statistics.
func (c *reportingHybridCache) Stats() Stats {
	return c.stats.Stats()
}
