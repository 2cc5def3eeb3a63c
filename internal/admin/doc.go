// Package admin serves the administrative HTTP surface of the cache
// service: region statistics, region sizes and clears under a configurable
// base path, plus liveness, readiness and Prometheus endpoints.
//
// Routes, relative to the base path (default /petclinic/api/cache):
//
//	GET    /stats        statistics of every region that records them
//	GET    /size/:name   estimated entry count of one region
//	DELETE /clear        clear every region
//	DELETE /clear/:name  clear one region
//
// The DELETE routes share a token-bucket limiter and answer 429 when it is
// exhausted.
package admin
