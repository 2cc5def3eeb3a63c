package main

import (
	"context"
	"time"

	"github.com/vyrodovalexey/petcache/internal/observability"
)

const shutdownTimeout = 30 * time.Second

// shutdown stops the admin server and releases the cache tiers.
func (a *application) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.admin.Stop(ctx); err != nil {
		a.logger.Error("failed to stop admin server gracefully", observability.Error(err))
	}

	a.close(ctx)
	a.logger.Info("petcache stopped")
}

// close releases everything except the admin server. It tolerates a
// partially built application.
func (a *application) close(ctx context.Context) {
	if a.reporter != nil {
		a.reporter.Stop()
	}

	if a.remote != nil {
		if err := a.remote.Close(); err != nil {
			a.logger.Error("failed to close remote cache", observability.Error(err))
		}
	}

	if a.local != nil {
		_ = a.local.Close()
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			a.logger.Error("failed to shutdown tracer", observability.Error(err))
		}
	}
}
