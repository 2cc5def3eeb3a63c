// Package observability provides logging and tracing for the cache
// service.
//
// # Logging
//
// The Logger interface provides structured logging backed by zap:
//
//	logger, err := observability.NewLogger(observability.DefaultLogConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	logger.Info("cache cleared",
//	    observability.String("region", "vets"),
//	)
//
// The level can be changed at runtime with SetLevel, which the
// configuration watcher uses on reload.
//
// # Tracing
//
// OpenTelemetry tracing with OTLP gRPC export:
//
//	tracer, err := observability.NewTracer(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tracer.Shutdown(ctx)
package observability
