package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Is reports ErrInvalidConfig.
func (e ValidationErrors) Is(target error) bool {
	return target == ErrInvalidConfig
}

var (
	validLogLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validLogFormats = map[string]bool{"json": true, "console": true}
)

// Validate checks the configuration and returns every problem found.
func Validate(cfg *Config) error {
	if cfg == nil {
		return ValidationErrors{{Message: "configuration is nil"}}
	}

	var errs ValidationErrors
	add := func(path, format string, args ...interface{}) {
		errs = append(errs, ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if !validLogLevels[cfg.Log.Level] {
		add("log.level", "unsupported level %q", cfg.Log.Level)
	}
	if !validLogFormats[cfg.Log.Format] {
		add("log.format", "unsupported format %q", cfg.Log.Format)
	}

	validateRegions(cfg.Cache.Regions, add)
	validateLocal(&cfg.Cache.Local, add)
	if cfg.Cache.Hybrid.Enabled {
		validateRemote(&cfg.Cache.Remote, add)
	}

	if cfg.Admin.Address == "" {
		add("admin.address", "must not be empty")
	}
	if !strings.HasPrefix(cfg.Admin.BasePath, "/") {
		add("admin.basePath", "must start with /")
	}
	if cfg.Admin.ClearRateLimit.RPS < 0 {
		add("admin.clearRateLimit.rps", "must not be negative")
	}
	if cfg.Admin.ClearRateLimit.RPS > 0 && cfg.Admin.ClearRateLimit.Burst < 1 {
		add("admin.clearRateLimit.burst", "must be at least 1 when rps is set")
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		add("metrics.path", "must start with /")
	}

	if cfg.StatsReport.Enabled {
		if _, err := cron.ParseStandard(cfg.StatsReport.Schedule); err != nil {
			add("statsReport.schedule", "invalid schedule %q: %v", cfg.StatsReport.Schedule, err)
		}
	}

	if cfg.Tracing.SamplingRate < 0 || cfg.Tracing.SamplingRate > 1 {
		add("tracing.samplingRate", "must be between 0 and 1")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type addFunc func(path, format string, args ...interface{})

// validateRegions checks names only. An empty list is valid: the managers
// then create regions on first access.
func validateRegions(regions []string, add addFunc) {
	seen := make(map[string]bool, len(regions))
	for i, name := range regions {
		path := fmt.Sprintf("cache.regions[%d]", i)
		if strings.TrimSpace(name) == "" {
			add(path, "region name must not be empty")
			continue
		}
		if seen[name] {
			add(path, "duplicate region %q", name)
		}
		seen[name] = true
	}
}

func validateLocal(local *LocalCacheConfig, add addFunc) {
	if local.MaxEntries <= 0 {
		add("cache.local.maxEntries", "must be positive")
	}
	if local.TTL < 0 {
		add("cache.local.ttl", "must not be negative")
	}
	if local.CleanupInterval < 0 {
		add("cache.local.cleanupInterval", "must not be negative")
	}
}

func validateRemote(remote *RemoteCacheConfig, add addFunc) {
	if remote.Sentinel != nil {
		if remote.Sentinel.MasterName == "" {
			add("cache.remote.sentinel.masterName", "is required")
		}
		if len(remote.Sentinel.SentinelAddrs) == 0 {
			add("cache.remote.sentinel.sentinelAddrs", "at least one address is required")
		}
	} else if remote.URL == "" {
		add("cache.remote.url", "is required when hybrid mode is enabled")
	}
	if remote.TTL < 0 {
		add("cache.remote.ttl", "must not be negative")
	}
	if remote.TTLJitter < 0 || remote.TTLJitter > 1 {
		add("cache.remote.ttlJitter", "must be between 0 and 1")
	}
	if remote.PoolSize < 0 {
		add("cache.remote.poolSize", "must not be negative")
	}
	if remote.Retry.MaxRetries < 0 {
		add("cache.remote.retry.maxRetries", "must not be negative")
	}
	if remote.Retry.MaxBackoff < remote.Retry.InitialBackoff {
		add("cache.remote.retry.maxBackoff", "must not be less than initialBackoff")
	}
	if remote.CircuitBreaker.Enabled {
		if remote.CircuitBreaker.Threshold <= 0 {
			add("cache.remote.circuitBreaker.threshold", "must be positive")
		}
		if remote.CircuitBreaker.Timeout <= 0 {
			add("cache.remote.circuitBreaker.timeout", "must be positive")
		}
	}
}
