package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/vyrodovalexey/petcache/internal/config"
	"github.com/vyrodovalexey/petcache/internal/observability"
)

// LocalManager owns the in-process regions and the goroutine that sweeps
// expired entries from them.
type LocalManager struct {
	logger     observability.Logger
	maxEntries int
	ttl        time.Duration

	// dynamic managers create unknown regions on first access.
	dynamic bool

	mu      sync.RWMutex
	regions map[string]*memoryCache

	stopCh    chan struct{}
	stoppedCh chan struct{}
	closeOnce sync.Once
}

// NewLocalManager creates one region per name. An empty list makes the
// manager create regions on first access instead.
func NewLocalManager(cfg config.LocalCacheConfig, regions []string, logger observability.Logger) *LocalManager {
	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = config.DefaultLocalMaxEntries
	}

	m := &LocalManager{
		logger:     logger,
		maxEntries: maxEntries,
		ttl:        cfg.TTL.Duration(),
		dynamic:    len(regions) == 0,
		regions:    make(map[string]*memoryCache, len(regions)),
		stopCh:     make(chan struct{}),
		stoppedCh:  make(chan struct{}),
	}
	for _, name := range regions {
		m.regions[name] = newMemoryCache(name, maxEntries, m.ttl, logger)
	}

	interval := cfg.CleanupInterval.Duration()
	if interval > 0 && m.ttl > 0 {
		go m.janitor(interval)
	} else {
		close(m.stoppedCh)
	}

	logger.Info("local cache manager initialized",
		observability.Int("regions", len(regions)),
		observability.Int("maxEntries", maxEntries),
		observability.Duration("ttl", m.ttl),
		observability.Duration("cleanupInterval", interval),
	)

	return m
}

// Cache returns the region for name.
func (m *LocalManager) Cache(name string) (Cache, bool) {
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
		c = newMemoryCache(name, m.maxEntries, m.ttl, m.logger)
		m.regions[name] = c
	}
	return c, true
}

// CacheNames returns the region names, sorted.
func (m *LocalManager) CacheNames() []string {
	m.mu.RLock()
	names := make([]string, 0, len(m.regions))
	for name := range m.regions {
		names = append(names, name)
	}
	m.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Close stops the expiry sweep. Regions stay usable.
func (m *LocalManager) Close() error {
	m.closeOnce.Do(func() {
		close(m.stopCh)
	})
	<-m.stoppedCh
	return nil
}

func (m *LocalManager) janitor(interval time.Duration) {
	defer close(m.stoppedCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.stopCh:
			return
		}
	}
}

func (m *LocalManager) sweep() {
	m.mu.RLock()
	regions := make([]*memoryCache, 0, len(m.regions))
	for _, c := range m.regions {
		regions = append(regions, c)
	}
	m.mu.RUnlock()

	for _, c := range regions {
		c.removeExpired()
	}
}
