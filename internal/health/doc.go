// Package health provides liveness and readiness endpoints for the cache
// service.
//
// Liveness always reports healthy while the process serves requests.
// Readiness runs every registered check, for example a ping of the remote
// cache tier, and reports unhealthy if any check fails:
//
//	checker := health.NewChecker(version, logger)
//	checker.RegisterCheck("redis", remote.Ping)
//
//	router.GET("/health", checker.HealthHandler())
//	router.GET("/ready", checker.ReadinessHandler())
package health
