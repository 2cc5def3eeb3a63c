// Package monitoring exposes cache statistics and administrative clears
// over any cache.Manager, and logs the statistics on a schedule.
package monitoring

import (
	"context"
	"sort"

	"go.uber.org/multierr"

	"github.com/vyrodovalexey/petcache/internal/cache"
	"github.com/vyrodovalexey/petcache/internal/observability"
)

// Service reads statistics and clears regions of the active manager. It
// behaves the same whether the manager is local-only or hybrid.
type Service struct {
	manager cache.Manager
	regions []string
	logger  observability.Logger
}

// NewService creates a Service. regions are the configured region names;
// together with the manager's own names they form the known regions, so
// regions of a lazily resolving manager are visible before first use.
func NewService(manager cache.Manager, regions []string, logger observability.Logger) *Service {
	return &Service{
		manager: manager,
		regions: append([]string(nil), regions...),
		logger:  logger,
	}
}

// Statistics returns a snapshot for every known region that records
// statistics. Other regions are omitted. Configured names are resolved
// through the manager, so with a HybridManager this call memoizes those
// regions and they appear in its CacheNames afterwards.
func (s *Service) Statistics() map[string]cache.Stats {
	result := make(map[string]cache.Stats)
	for _, c := range s.knownCaches() {
		if reporter, ok := c.(cache.StatsReporter); ok {
			result[c.Name()] = reporter.Stats()
		}
	}
	return result
}

// CacheSize returns the estimated entry count of a region. The boolean is
// false when the region does not exist or records no statistics.
func (s *Service) CacheSize(name string) (int64, bool) {
	c, ok := s.manager.Cache(name)
	if !ok {
		return 0, false
	}
	reporter, ok := c.(cache.StatsReporter)
	if !ok {
		return 0, false
	}
	return reporter.Stats().Size, true
}

// ClearAll clears every known region. A failing region is logged and
// skipped; the combined error lists every failure.
func (s *Service) ClearAll(ctx context.Context) error {
	var errs error
	cleared := 0

	for _, c := range s.knownCaches() {
		if err := c.Clear(ctx); err != nil {
			s.logger.WithContext(ctx).Error("failed to clear cache",
				observability.String("region", c.Name()),
				observability.Error(err),
			)
			errs = multierr.Append(errs, err)
			continue
		}
		cleared++
	}

	s.logger.WithContext(ctx).Info("caches cleared",
		observability.Int("cleared", cleared),
		observability.Int("failed", len(multierr.Errors(errs))),
	)
	return errs
}

// ClearCache clears one region. An unknown region is logged and ignored.
func (s *Service) ClearCache(ctx context.Context, name string) error {
	c, ok := s.manager.Cache(name)
	if !ok {
		s.logger.WithContext(ctx).Warn("cache not found", observability.String("region", name))
		return nil
	}

	if err := c.Clear(ctx); err != nil {
		s.logger.WithContext(ctx).Error("failed to clear cache",
			observability.String("region", name),
			observability.Error(err),
		)
		return err
	}

	s.logger.WithContext(ctx).Info("cache cleared", observability.String("region", name))
	return nil
}

// knownCaches resolves the union of configured and manager-reported names,
// sorted by name. Resolving goes through manager.Cache, which a lazy
// manager may memoize.
func (s *Service) knownCaches() []cache.Cache {
	seen := make(map[string]bool, len(s.regions))
	names := make([]string, 0, len(s.regions))
	for _, list := range [][]string{s.regions, s.manager.CacheNames()} {
		for _, name := range list {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)

	caches := make([]cache.Cache, 0, len(names))
	for _, name := range names {
		if c, ok := s.manager.Cache(name); ok {
			caches = append(caches, c)
		}
	}
	return caches
}
