//go:build integration

package integration

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/petcache/internal/cache"
	"github.com/vyrodovalexey/petcache/internal/config"
	"github.com/vyrodovalexey/petcache/internal/monitoring"
	"github.com/vyrodovalexey/petcache/internal/observability"
	"github.com/vyrodovalexey/petcache/test/helpers"
)

type vet struct {
	ID        int    `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type stack struct {
	local  *cache.LocalManager
	remote *cache.RemoteManager
	hybrid *cache.HybridManager
	prefix string
}

func newStack(t *testing.T, name string, regions ...string) *stack {
	t.Helper()
	helpers.SkipIfRedisUnavailable(t)

	logger := observability.NopLogger()
	cfg := config.DefaultConfig()
	cfg.Cache.Remote.URL = helpers.GetRedisURL()
	cfg.Cache.Remote.KeyPrefix = helpers.GenerateTestKeyPrefix(name)

	local := cache.NewLocalManager(cfg.Cache.Local, regions, logger)
	remote, err := cache.NewRemoteManager(&cfg.Cache.Remote, regions, logger)
	require.NoError(t, err)

	client, err := helpers.CreateRedisClient()
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = helpers.CleanupRedis(client, cfg.Cache.Remote.KeyPrefix)
		_ = client.Close()
		_ = remote.Close()
		_ = local.Close()
	})

	return &stack{
		local:  local,
		remote: remote,
		hybrid: cache.NewHybridManager(local, remote, logger),
		prefix: cfg.Cache.Remote.KeyPrefix,
	}
}

func TestIntegration_Hybrid_ReadThroughAndRepopulate(t *testing.T) {
	s := newStack(t, "read_through", "vets")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, ok := s.hybrid.Cache("vets")
	require.True(t, ok)
	vets := cache.NewTyped[[]vet](c)

	var loads atomic.Int32
	loader := func(context.Context) (*[]vet, error) {
		loads.Add(1)
		all := []vet{{ID: 1, FirstName: "James", LastName: "Carter"}}
		return &all, nil
	}

	got, err := vets.GetOrLoad(ctx, "all", loader)
	require.NoError(t, err)
	require.Len(t, *got, 1)
	assert.Equal(t, int32(1), loads.Load())

	// Drop the local copy; the next read must come from Redis.
	localVets, _ := s.local.Cache("vets")
	require.NoError(t, localVets.Clear(ctx))

	got, err = vets.GetOrLoad(ctx, "all", loader)
	require.NoError(t, err)
	assert.Equal(t, "Carter", (*got)[0].LastName)
	assert.Equal(t, int32(1), loads.Load())

	_, found, err := localVets.Get(ctx, "all")
	require.NoError(t, err)
	assert.True(t, found, "remote hit repopulates the local tier")
}

func TestIntegration_Hybrid_EvictAndClear(t *testing.T) {
	s := newStack(t, "evict_clear", "owners", "pets")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	owners, _ := s.hybrid.Cache("owners")
	pets, _ := s.hybrid.Cache("pets")
	require.NoError(t, owners.Put(ctx, "1", []byte(`{"id":1}`)))
	require.NoError(t, owners.Put(ctx, "2", []byte(`{"id":2}`)))
	require.NoError(t, pets.Put(ctx, "7", []byte(`{"id":7}`)))

	require.NoError(t, owners.Evict(ctx, "1"))
	_, found, err := owners.Get(ctx, "1")
	require.NoError(t, err)
	assert.False(t, found)

	service := monitoring.NewService(s.hybrid, []string{"owners", "pets"}, observability.NopLogger())
	require.NoError(t, service.ClearCache(ctx, "owners"))

	remoteOwners, _ := s.remote.Cache("owners")
	_, found, err = remoteOwners.Get(ctx, "2")
	require.NoError(t, err)
	assert.False(t, found)

	remotePets, _ := s.remote.Cache("pets")
	_, found, err = remotePets.Get(ctx, "7")
	require.NoError(t, err)
	assert.True(t, found, "clearing one region leaves the others")

	require.NoError(t, service.ClearAll(ctx))
	_, found, err = remotePets.Get(ctx, "7")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestIntegration_Hybrid_LoaderFailureNotCached(t *testing.T) {
	s := newStack(t, "loader_failure", "visits")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	visits, _ := s.hybrid.Cache("visits")
	failure := errors.New("database down")

	_, err := visits.GetOrLoad(ctx, "pet-7", func(context.Context) ([]byte, error) {
		return nil, failure
	})
	require.ErrorIs(t, err, cache.ErrValueLoad)
	assert.ErrorIs(t, err, failure)

	remoteVisits, _ := s.remote.Cache("visits")
	_, found, err := remoteVisits.Get(ctx, "pet-7")
	require.NoError(t, err)
	assert.False(t, found)
}
