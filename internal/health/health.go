package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/petcache/internal/observability"
)

// DefaultCheckTimeout bounds each readiness check.
const DefaultCheckTimeout = 2 * time.Second

// Status represents the health status.
type Status string

const (
	// StatusHealthy indicates the service is healthy.
	StatusHealthy Status = "healthy"
	// StatusUnhealthy indicates the service is unhealthy.
	StatusUnhealthy Status = "unhealthy"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    Status    `json:"status"`
	Version   string    `json:"version,omitempty"`
	Uptime    string    `json:"uptime,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadinessResponse represents the readiness check response.
type ReadinessResponse struct {
	Status    Status           `json:"status"`
	Checks    map[string]Check `json:"checks,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Check represents an individual check result.
type Check struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// CheckFunc reports a dependency as healthy by returning nil.
type CheckFunc func(ctx context.Context) error

// Checker provides health and readiness checking functionality.
type Checker struct {
	version   string
	startTime time.Time
	timeout   time.Duration
	logger    observability.Logger

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

// NewChecker creates a new health checker.
func NewChecker(version string, logger observability.Logger) *Checker {
	return &Checker{
		version:   version,
		startTime: time.Now(),
		timeout:   DefaultCheckTimeout,
		logger:    logger,
		checks:    make(map[string]CheckFunc),
	}
}

// RegisterCheck registers a readiness check, replacing any check with the
// same name.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Health returns the liveness status.
func (c *Checker) Health() HealthResponse {
	GetHealthMetrics().checksTotal.WithLabelValues("liveness").Inc()

	return HealthResponse{
		Status:    StatusHealthy,
		Version:   c.version,
		Uptime:    time.Since(c.startTime).Round(time.Second).String(),
		Timestamp: time.Now(),
	}
}

// Readiness runs every registered check. The result is unhealthy if any
// check fails or exceeds the check timeout.
func (c *Checker) Readiness(ctx context.Context) ReadinessResponse {
	metrics := GetHealthMetrics()
	metrics.checksTotal.WithLabelValues("readiness").Inc()

	c.mu.RLock()
	names := make([]string, 0, len(c.checks))
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, fn := range c.checks {
		names = append(names, name)
		checks[name] = fn
	}
	c.mu.RUnlock()
	sort.Strings(names)

	response := ReadinessResponse{
		Status:    StatusHealthy,
		Checks:    make(map[string]Check, len(names)),
		Timestamp: time.Now(),
	}

	for _, name := range names {
		check := c.run(ctx, name, checks[name])
		response.Checks[name] = check
		metrics.setStatus(name, check.Status == StatusHealthy)
		if check.Status == StatusUnhealthy {
			response.Status = StatusUnhealthy
		}
	}
	metrics.setStatus("overall", response.Status == StatusHealthy)

	return response
}

func (c *Checker) run(ctx context.Context, name string, fn CheckFunc) Check {
	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := fn(checkCtx); err != nil {
		c.logger.WithContext(ctx).Warn("readiness check failed",
			observability.String("check", name),
			observability.Error(err),
		)
		return Check{Status: StatusUnhealthy, Message: err.Error()}
	}
	return Check{Status: StatusHealthy}
}

// HealthHandler returns a gin handler for the liveness endpoint.
func (c *Checker) HealthHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, c.Health())
	}
}

// ReadinessHandler returns a gin handler for the readiness endpoint. It
// answers 503 when the service is not ready.
func (c *Checker) ReadinessHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		response := c.Readiness(ctx.Request.Context())

		statusCode := http.StatusOK
		if response.Status == StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		ctx.JSON(statusCode, response)
	}
}
