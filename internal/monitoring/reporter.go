package monitoring

import (
	"fmt"
	"sort"

	"github.com/robfig/cron/v3"

	"github.com/vyrodovalexey/petcache/internal/observability"
)

// Reporter logs the statistics of every region on a cron schedule.
type Reporter struct {
	service *Service
	cron    *cron.Cron
	logger  observability.Logger
}

// NewReporter schedules Report. schedule accepts standard cron
// expressions and descriptors such as "@every 5m".
func NewReporter(service *Service, schedule string, logger observability.Logger) (*Reporter, error) {
	r := &Reporter{
		service: service,
		cron:    cron.New(),
		logger:  logger,
	}

	if _, err := r.cron.AddFunc(schedule, r.Report); err != nil {
		return nil, fmt.Errorf("invalid statistics schedule %q: %w", schedule, err)
	}
	return r, nil
}

// Start runs the schedule in its own goroutine.
func (r *Reporter) Start() {
	r.cron.Start()
	r.logger.Info("cache statistics reporter started")
}

// Stop stops the schedule and waits for a running report to finish.
func (r *Reporter) Stop() {
	<-r.cron.Stop().Done()
	r.logger.Info("cache statistics reporter stopped")
}

// Report logs one line per region that records statistics.
func (r *Reporter) Report() {
	stats := r.service.Statistics()
	if len(stats) == 0 {
		return
	}

	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		s := stats[name]
		r.logger.Info("cache statistics",
			observability.String("region", name),
			observability.Int64("hits", s.Hits),
			observability.Int64("misses", s.Misses),
			observability.Float64("hitRatePercent", s.HitRate()*100),
			observability.Int64("evictions", s.Evictions),
			observability.Int64("size", s.Size),
		)
	}
}
