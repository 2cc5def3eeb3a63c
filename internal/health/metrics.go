package health

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HealthMetrics holds Prometheus metrics for health checks.
type HealthMetrics struct {
	checksTotal *prometheus.CounterVec
	checkStatus *prometheus.GaugeVec
}

var (
	healthMetricsInstance *HealthMetrics
	healthMetricsOnce     sync.Once
)

// GetHealthMetrics returns the singleton health metrics instance.
func GetHealthMetrics() *HealthMetrics {
	healthMetricsOnce.Do(func() {
		healthMetricsInstance = newHealthMetrics(prometheus.DefaultRegisterer)
	})
	return healthMetricsInstance
}

func newHealthMetrics(registerer prometheus.Registerer) *HealthMetrics {
	factory := promauto.With(registerer)
	return &HealthMetrics{
		checksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "petclinic",
				Subsystem: "health",
				Name:      "checks_total",
				Help:      "Total number of health checks performed",
			},
			[]string{"type"},
		),
		checkStatus: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "petclinic",
				Subsystem: "health",
				Name:      "check_status",
				Help:      "Current health check status (1=healthy, 0=unhealthy)",
			},
			[]string{"check"},
		),
	}
}

// Init pre-initializes label combinations so the series appear before the
// first check.
func (m *HealthMetrics) Init(checks ...string) {
	for _, checkType := range []string{"liveness", "readiness"} {
		m.checksTotal.WithLabelValues(checkType)
	}
	for _, check := range append([]string{"overall"}, checks...) {
		m.checkStatus.WithLabelValues(check)
	}
}

func (m *HealthMetrics) setStatus(check string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1
	}
	m.checkStatus.WithLabelValues(check).Set(value)
}
