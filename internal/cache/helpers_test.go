package cache

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/petcache/internal/config"
	"github.com/vyrodovalexey/petcache/internal/observability"
)

// spyCache is an in-memory Cache that counts calls and can fail on demand.
type spyCache struct {
	name string

	mu      sync.Mutex
	entries map[string][]byte
	journal *[]string

	gets    atomic.Int32
	puts    atomic.Int32
	evicts  atomic.Int32
	clears  atomic.Int32
	failGet error
	failPut error
	failDel error
}

func newSpyCache(name string) *spyCache {
	return &spyCache{name: name, entries: make(map[string][]byte)}
}

func (s *spyCache) record(op string) {
	if s.journal != nil {
		*s.journal = append(*s.journal, s.name+"."+op)
	}
}

func (s *spyCache) Name() string { return s.name }

func (s *spyCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.gets.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("get")
	if s.failGet != nil {
		return nil, false, s.failGet
	}
	v, ok := s.entries[key]
	return v, ok, nil
}

func (s *spyCache) GetOrLoad(ctx context.Context, key string, loader Loader) ([]byte, error) {
	return loadThrough(ctx, s, key, loader)
}

func (s *spyCache) Put(_ context.Context, key string, value []byte) error {
	s.puts.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("put")
	if s.failPut != nil {
		return s.failPut
	}
	s.entries[key] = value
	return nil
}

func (s *spyCache) Evict(_ context.Context, key string) error {
	s.evicts.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("evict")
	if s.failDel != nil {
		return s.failDel
	}
	delete(s.entries, key)
	return nil
}

func (s *spyCache) Clear(context.Context) error {
	s.clears.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("clear")
	if s.failDel != nil {
		return s.failDel
	}
	s.entries = make(map[string][]byte)
	return nil
}

func (s *spyCache) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok
}

func (s *spyCache) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// spyManager serves fixed regions and counts lookups.
type spyManager struct {
	regions map[string]Cache
	lookups atomic.Int32
}

func newSpyManager(caches ...Cache) *spyManager {
	m := &spyManager{regions: make(map[string]Cache)}
	for _, c := range caches {
		m.regions[c.Name()] = c
	}
	return m
}

func (m *spyManager) Cache(name string) (Cache, bool) {
	m.lookups.Add(1)
	c, ok := m.regions[name]
	return c, ok
}

func (m *spyManager) CacheNames() []string {
	names := make([]string, 0, len(m.regions))
	for name := range m.regions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// setupMiniRedis starts a miniredis server closed at test end.
func setupMiniRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return mr
}

// testRemoteConfig returns a remote tier configuration pointing at mr.
func testRemoteConfig(mr *miniredis.Miniredis) *config.RemoteCacheConfig {
	cfg := config.DefaultConfig().Cache.Remote
	cfg.URL = "redis://" + mr.Addr()
	cfg.Retry.MaxRetries = 0
	cfg.CircuitBreaker.Enabled = false
	return &cfg
}

func newTestRemoteManager(t *testing.T, mr *miniredis.Miniredis, regions ...string) *RemoteManager {
	t.Helper()

	m, err := NewRemoteManager(testRemoteConfig(mr), regions, observability.NopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func testLocalConfig() config.LocalCacheConfig {
	return config.DefaultConfig().Cache.Local
}

func newTestLocalManager(t *testing.T, regions ...string) *LocalManager {
	t.Helper()

	m := NewLocalManager(testLocalConfig(), regions, observability.NopLogger())
	t.Cleanup(func() { _ = m.Close() })
	return m
}

// constLoader returns value and counts its calls.
func constLoader(value []byte, calls *atomic.Int32) Loader {
	return func(context.Context) ([]byte, error) {
		calls.Add(1)
		return value, nil
	}
}
