package admin

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vyrodovalexey/petcache/internal/config"
	"github.com/vyrodovalexey/petcache/internal/health"
	"github.com/vyrodovalexey/petcache/internal/monitoring"
	"github.com/vyrodovalexey/petcache/internal/observability"
)

// ginModeOnce ensures gin.SetMode is only called once to avoid race conditions
var ginModeOnce sync.Once

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 120 * time.Second
)

// Server is the administrative HTTP server.
type Server struct {
	engine     *gin.Engine
	address    string
	logger     observability.Logger
	httpServer *http.Server

	mu       sync.RWMutex
	listener net.Listener
	running  bool
}

// NewServer builds the router. checker may be nil, in which case the
// health endpoints are not served.
func NewServer(
	cfg *config.Config,
	service *monitoring.Service,
	checker *health.Checker,
	logger observability.Logger,
) *Server {
	ginModeOnce.Do(func() {
		gin.SetMode(gin.ReleaseMode)
	})

	engine := gin.New()
	engine.Use(requestID(), recovery(logger), tracing(), accessLog(logger))

	basePath := cfg.Admin.BasePath
	if basePath == "" {
		basePath = config.DefaultAdminBasePath
	}

	h := &handlers{service: service}
	limit := rateLimit(newLimiter(cfg.Admin.ClearRateLimit.RPS, cfg.Admin.ClearRateLimit.Burst), logger)

	api := engine.Group(basePath)
	api.GET("/stats", h.stats)
	api.GET("/size/:name", h.size)
	api.DELETE("/clear", limit, h.clearAll)
	api.DELETE("/clear/:name", limit, h.clear)

	if checker != nil {
		engine.GET("/health", checker.HealthHandler())
		engine.GET("/ready", checker.ReadinessHandler())
	}

	if cfg.Metrics.Enabled {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		engine.GET(path, gin.WrapH(promhttp.Handler()))
	}

	address := cfg.Admin.Address
	if address == "" {
		address = config.DefaultAdminAddress
	}

	return &Server{
		engine:  engine,
		address: address,
		logger:  logger,
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start listens on the configured address and serves until Stop. It
// returns nil after a graceful stop.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("admin server already running")
	}

	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
	s.running = true
	httpServer := s.httpServer
	s.mu.Unlock()

	s.logger.Info("starting admin server", observability.String("address", listener.Addr().String()))

	if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("admin server error: %w", err)
	}
	return nil
}

// Addr returns the listening address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	httpServer := s.httpServer
	s.mu.Unlock()

	s.logger.Info("stopping admin server")

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown admin server: %w", err)
	}
	return nil
}
