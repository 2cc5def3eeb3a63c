package cache

import (
	"sort"
	"sync"

	"github.com/vyrodovalexey/petcache/internal/observability"
)

// HybridManager builds HybridCaches on demand by pairing same-named
// regions of a local and a remote manager. Each name is resolved once:
// the result, including a missing region, is kept for the life of the
// manager.
type HybridManager struct {
	local  Manager
	remote Manager
	logger observability.Logger
	opts   []HybridOption

	mu     sync.RWMutex
	caches map[string]Cache // nil value: region missing in a tier
}

// NewHybridManager creates an empty registry over local and remote.
func NewHybridManager(local, remote Manager, logger observability.Logger, opts ...HybridOption) *HybridManager {
	return &HybridManager{
		local:  local,
		remote: remote,
		logger: logger,
		opts:   opts,
		caches: make(map[string]Cache),
	}
}

// Cache returns the hybrid region for name. Concurrent first calls for a
// name build at most one HybridCache.
func (m *HybridManager) Cache(name string) (Cache, bool) {
	m.mu.RLock()
	c, resolved := m.caches[name]
	m.mu.RUnlock()
	if resolved {
		return c, c != nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if c, resolved = m.caches[name]; resolved {
		return c, c != nil
	}

	c = m.resolve(name)
	m.caches[name] = c
	return c, c != nil
}

// Must be called with the write lock held.
func (m *HybridManager) resolve(name string) Cache {
	local, ok := m.local.Cache(name)
	if !ok {
		m.logger.Warn("hybrid cache unavailable: region missing in local tier",
			observability.String("region", name))
		return nil
	}
	remote, ok := m.remote.Cache(name)
	if !ok {
		m.logger.Warn("hybrid cache unavailable: region missing in remote tier",
			observability.String("region", name))
		return nil
	}

	m.logger.Debug("hybrid cache created", observability.String("region", name))
	return NewHybridCache(name, local, remote, m.logger, m.opts...)
}

// CacheNames returns the names resolved to a HybridCache so far, sorted.
// Regions never requested are not listed.
func (m *HybridManager) CacheNames() []string {
	m.mu.RLock()
	names := make([]string, 0, len(m.caches))
	for name, c := range m.caches {
		if c != nil {
			names = append(names, name)
		}
	}
	m.mu.RUnlock()

	sort.Strings(names)
	return names
}
