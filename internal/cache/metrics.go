package cache

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Tier label values.
const (
	tierLocal  = "local"
	tierRemote = "remote"
	tierHybrid = "hybrid"
)

// Hybrid lookup outcomes.
const (
	lookupLocalHit  = "local_hit"
	lookupRemoteHit = "remote_hit"
	lookupMiss      = "miss"
)

// Load outcomes.
const (
	loadStored = "stored"
	loadNil    = "nil"
	loadFailed = "error"
)

// Metrics holds Prometheus collectors for cache operations.
type Metrics struct {
	hitsTotal         *prometheus.CounterVec
	missesTotal       *prometheus.CounterVec
	evictionsTotal    *prometheus.CounterVec
	errorsTotal       *prometheus.CounterVec
	sizeGauge         *prometheus.GaugeVec
	operationDuration *prometheus.HistogramVec
	lookupsTotal      *prometheus.CounterVec
	loadsTotal        *prometheus.CounterVec
	breakerState      *prometheus.GaugeVec
}

var (
	metricsInstance *Metrics
	metricsOnce     sync.Once
)

// GetMetrics returns the process-wide cache metrics, registered with the
// default Prometheus registry on first use.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = newMetrics(prometheus.DefaultRegisterer)
	})
	return metricsInstance
}

// Init creates the label combinations for regions so they are exported
// as zero before the first request.
func (m *Metrics) Init(regions []string) {
	for _, region := range regions {
		for _, tier := range []string{tierLocal, tierRemote} {
			m.hitsTotal.WithLabelValues(tier, region)
			m.missesTotal.WithLabelValues(tier, region)
		}
		m.evictionsTotal.WithLabelValues(tierLocal, region)
		m.sizeGauge.WithLabelValues(tierLocal, region)
		for _, outcome := range []string{lookupLocalHit, lookupRemoteHit, lookupMiss} {
			m.lookupsTotal.WithLabelValues(region, outcome)
		}
	}
}

func newMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		hitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "petclinic",
				Subsystem: "cache",
				Name:      "hits_total",
				Help:      "Total number of cache hits per tier",
			},
			[]string{"tier", "region"},
		),
		missesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "petclinic",
				Subsystem: "cache",
				Name:      "misses_total",
				Help:      "Total number of cache misses per tier",
			},
			[]string{"tier", "region"},
		),
		evictionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "petclinic",
				Subsystem: "cache",
				Name:      "evictions_total",
				Help:      "Total number of entries evicted by size or expiry",
			},
			[]string{"tier", "region"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "petclinic",
				Subsystem: "cache",
				Name:      "errors_total",
				Help:      "Total number of failed cache operations",
			},
			[]string{"tier", "region", "operation"},
		),
		sizeGauge: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "petclinic",
				Subsystem: "cache",
				Name:      "entries",
				Help:      "Current number of entries in a region",
			},
			[]string{"tier", "region"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "petclinic",
				Subsystem: "cache",
				Name:      "operation_duration_seconds",
				Help:      "Duration of cache operations",
				Buckets: []float64{
					.0001, .0005, .001, .005,
					.01, .025, .05, .1, .5,
				},
			},
			[]string{"tier", "operation"},
		),
		lookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "petclinic",
				Subsystem: "cache",
				Name:      "hybrid_lookups_total",
				Help:      "Hybrid lookups by the tier that answered",
			},
			[]string{"region", "outcome"},
		),
		loadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "petclinic",
				Subsystem: "cache",
				Name:      "loads_total",
				Help:      "Loader invocations after a miss in every tier",
			},
			[]string{"region", "outcome"},
		),
		breakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "petclinic",
				Subsystem: "cache",
				Name:      "remote_circuit_breaker_state",
				Help:      "Remote tier breaker state (0 closed, 1 half-open, 2 open)",
			},
			[]string{"name"},
		),
	}
}
