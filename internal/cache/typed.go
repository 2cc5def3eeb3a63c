package cache

import (
	"context"
	"encoding/json"
	"fmt"
)

// Typed stores values of T as JSON in a Cache.
type Typed[T any] struct {
	cache Cache
}

// NewTyped wraps c.
func NewTyped[T any](c Cache) *Typed[T] {
	return &Typed[T]{cache: c}
}

// Cache returns the underlying region.
func (t *Typed[T]) Cache() Cache {
	return t.cache
}

// Get returns the decoded value for key.
func (t *Typed[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T

	data, ok, err := t.cache.Get(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}

	value, err := t.decode(key, data)
	if err != nil {
		return zero, false, err
	}
	return *value, true, nil
}

// GetOrLoad returns the cached value or the loader's. A nil result from
// loader means the value does not exist and is not cached.
func (t *Typed[T]) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (*T, error)) (*T, error) {
	data, err := t.cache.GetOrLoad(ctx, key, func(ctx context.Context) ([]byte, error) {
		value, err := loader(ctx)
		if err != nil || value == nil {
			return nil, err
		}
		return json.Marshal(value)
	})
	if err != nil || data == nil {
		return nil, err
	}
	return t.decode(key, data)
}

// Put encodes and stores value.
func (t *Typed[T]) Put(ctx context.Context, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache %q: encoding key %q: %w", t.cache.Name(), key, err)
	}
	return t.cache.Put(ctx, key, data)
}

// Evict removes key.
func (t *Typed[T]) Evict(ctx context.Context, key string) error {
	return t.cache.Evict(ctx, key)
}

func (t *Typed[T]) decode(key string, data []byte) (*T, error) {
	value := new(T)
	if err := json.Unmarshal(data, value); err != nil {
		return nil, fmt.Errorf("cache %q: decoding key %q: %w", t.cache.Name(), key, err)
	}
	return value, nil
}
