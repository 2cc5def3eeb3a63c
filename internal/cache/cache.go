package cache

import (
	"context"
	"errors"
	"fmt"
)

// Common errors.
var (
	// ErrNilValue is returned by Put for a nil value. Nil means absent and
	// is never stored.
	ErrNilValue = errors.New("cache: nil value")

	// ErrValueLoad matches every *LoadError.
	ErrValueLoad = errors.New("cache: value loader failed")

	// ErrRemoteUnavailable is wrapped when the remote tier rejects calls
	// because its circuit breaker is open.
	ErrRemoteUnavailable = errors.New("cache: remote tier unavailable")
)

// Loader computes the value for a key on a cache miss. Returning a nil
// value without error means the value does not exist; it is not cached.
type Loader func(ctx context.Context) ([]byte, error)

// Cache is a named region of key/value entries.
type Cache interface {
	// Name returns the region name.
	Name() string

	// Get returns the value for key. The boolean is false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// GetOrLoad returns the cached value or calls loader on a miss and
	// stores a non-nil result. Loader failures are returned as *LoadError.
	GetOrLoad(ctx context.Context, key string, loader Loader) ([]byte, error)

	// Put stores value under key, replacing any existing value.
	Put(ctx context.Context, key string, value []byte) error

	// Evict removes key. Evicting a missing key is not an error.
	Evict(ctx context.Context, key string) error

	// Clear removes every entry of the region.
	Clear(ctx context.Context) error
}

// Manager resolves regions by name.
type Manager interface {
	// Cache returns the region for name, or false if the manager has none.
	Cache(name string) (Cache, bool)

	// CacheNames returns the names of the regions the manager knows,
	// sorted.
	CacheNames() []string
}

// Stats is a snapshot of cumulative region statistics.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int64
}

// Requests returns hits plus misses.
func (s Stats) Requests() int64 {
	return s.Hits + s.Misses
}

// HitRate returns hits/(hits+misses) as a fraction, or 0 before any request.
func (s Stats) HitRate() float64 {
	total := s.Requests()
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// StatsReporter is implemented by caches that record statistics.
type StatsReporter interface {
	Stats() Stats
}

// LoadError wraps a loader failure so callers can tell it apart from tier
// errors.
type LoadError struct {
	Region string
	Key    string
	Err    error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("cache %q: loading key %q: %v", e.Region, e.Key, e.Err)
}

// Unwrap returns the loader's error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrValueLoad.
func (e *LoadError) Is(target error) bool {
	return target == ErrValueLoad
}

// loadThrough is the single-tier GetOrLoad: lookup, then load and store.
func loadThrough(ctx context.Context, c Cache, key string, loader Loader) ([]byte, error) {
	value, ok, err := c.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if ok {
		return value, nil
	}

	value, err = loader(ctx)
	if err != nil {
		return nil, &LoadError{Region: c.Name(), Key: key, Err: err}
	}
	if value == nil {
		return nil, nil
	}
	if err := c.Put(ctx, key, value); err != nil {
		return nil, err
	}
	return value, nil
}
