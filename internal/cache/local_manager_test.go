package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/petcache/internal/config"
	"github.com/vyrodovalexey/petcache/internal/observability"
)

func TestLocalManager_StaticRegions(t *testing.T) {
	t.Parallel()

	m := newTestLocalManager(t, "vets", "owners")

	vets, ok := m.Cache("vets")
	require.True(t, ok)
	assert.Equal(t, "vets", vets.Name())

	again, ok := m.Cache("vets")
	require.True(t, ok)
	assert.Same(t, vets, again)

	_, ok = m.Cache("unknown")
	assert.False(t, ok)

	assert.Equal(t, []string{"owners", "vets"}, m.CacheNames())
}

func TestLocalManager_DynamicRegions(t *testing.T) {
	t.Parallel()

	m := newTestLocalManager(t)
	assert.Empty(t, m.CacheNames())

	c, ok := m.Cache("pets")
	require.True(t, ok)
	assert.Equal(t, "pets", c.Name())
	assert.Equal(t, []string{"pets"}, m.CacheNames())

	again, _ := m.Cache("pets")
	assert.Same(t, c, again)
}

func TestLocalManager_RegionsAreIndependent(t *testing.T) {
	t.Parallel()

	m := newTestLocalManager(t, "vets", "vetById")
	ctx := context.Background()

	vets, _ := m.Cache("vets")
	vetByID, _ := m.Cache("vetById")

	require.NoError(t, vets.Put(ctx, "1", []byte("all")))
	_, ok, err := vetByID.Get(ctx, "1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, vetByID.Put(ctx, "1", []byte("one")))
	require.NoError(t, vets.Clear(ctx))

	_, ok, _ = vetByID.Get(ctx, "1")
	assert.True(t, ok)
	assert.Implements(t, (*StatsReporter)(nil), vets)
}

func TestLocalManager_DefaultsMaxEntries(t *testing.T) {
	t.Parallel()

	m := NewLocalManager(config.LocalCacheConfig{}, []string{"vets"}, observability.NopLogger())
	defer func() { _ = m.Close() }()

	assert.Equal(t, config.DefaultLocalMaxEntries, m.maxEntries)
}

func TestLocalManager_JanitorSweepsExpired(t *testing.T) {
	t.Parallel()

	cfg := config.LocalCacheConfig{
		MaxEntries:      10,
		TTL:             config.Duration(20 * time.Millisecond),
		CleanupInterval: config.Duration(10 * time.Millisecond),
	}
	m := NewLocalManager(cfg, []string{"visits"}, observability.NopLogger())
	defer func() { _ = m.Close() }()

	c, _ := m.Cache("visits")
	require.NoError(t, c.Put(context.Background(), "7", []byte("checkup")))

	reporter := c.(StatsReporter)
	require.Eventually(t, func() bool {
		return reporter.Stats().Size == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(1), reporter.Stats().Evictions)
	assert.Zero(t, reporter.Stats().Misses)
}

func TestLocalManager_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	m := NewLocalManager(testLocalConfig(), []string{"vets"}, observability.NopLogger())
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	// Regions remain usable after the janitor stops.
	c, ok := m.Cache("vets")
	require.True(t, ok)
	assert.NoError(t, c.Put(context.Background(), "1", []byte("x")))
}

func TestLocalManager_NoJanitorWithoutTTL(t *testing.T) {
	t.Parallel()

	cfg := config.LocalCacheConfig{MaxEntries: 5, CleanupInterval: config.Duration(time.Millisecond)}
	m := NewLocalManager(cfg, []string{"vets"}, observability.NopLogger())
	assert.NoError(t, m.Close())
}
