package config

import "time"

// Default values. Region TTLs and sizes mirror the pet-clinic deployment.
const (
	DefaultLocalMaxEntries      = 1000
	DefaultLocalTTL             = 10 * time.Minute
	DefaultLocalCleanupInterval = time.Minute

	DefaultRemoteURL       = "redis://localhost:6379/0"
	DefaultRemoteKeyPrefix = "petclinic:"
	DefaultRemoteTTL       = 30 * time.Minute
	DefaultRemoteTimeout   = 3 * time.Second

	DefaultAdminAddress  = ":9966"
	DefaultAdminBasePath = "/petclinic/api/cache"

	DefaultStatsSchedule = "@every 5m"
)

// DefaultRegions lists the cache regions used by the pet-clinic repositories.
var DefaultRegions = []string{
	"vets",
	"vetById",
	"owners",
	"ownerById",
	"ownersByLastName",
	"pets",
	"petById",
	"petTypes",
	"petTypeById",
	"specialties",
	"specialtyById",
	"specialtiesByNameIn",
	"visits",
	"visitById",
	"visitsByPetId",
}

// Config is the root configuration.
type Config struct {
	Log         LogConfig         `yaml:"log" json:"log"`
	Cache       CacheConfig       `yaml:"cache" json:"cache"`
	Admin       AdminConfig       `yaml:"admin" json:"admin"`
	Metrics     MetricsConfig     `yaml:"metrics" json:"metrics"`
	StatsReport StatsReportConfig `yaml:"statsReport" json:"statsReport"`
	Tracing     TracingConfig     `yaml:"tracing" json:"tracing"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// CacheConfig configures both cache tiers and the mode switch between them.
type CacheConfig struct {
	Hybrid  HybridConfig      `yaml:"hybrid" json:"hybrid"`
	Regions []string          `yaml:"regions" json:"regions"`
	Local   LocalCacheConfig  `yaml:"local" json:"local"`
	Remote  RemoteCacheConfig `yaml:"remote" json:"remote"`
}

// HybridConfig selects between the local-only and the two-tier manager.
type HybridConfig struct {
	// Enabled activates the two-tier manager. When false only the local
	// tier is used.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// CoalesceLoads shares one loader call between concurrent misses on
	// the same key.
	CoalesceLoads bool `yaml:"coalesceLoads" json:"coalesceLoads"`
}

// LocalCacheConfig configures the in-process tier.
type LocalCacheConfig struct {
	MaxEntries      int      `yaml:"maxEntries" json:"maxEntries"`
	TTL             Duration `yaml:"ttl" json:"ttl"`
	CleanupInterval Duration `yaml:"cleanupInterval" json:"cleanupInterval"`
}

// RemoteCacheConfig configures the Redis tier.
type RemoteCacheConfig struct {
	URL       string          `yaml:"url" json:"url"`
	Sentinel  *SentinelConfig `yaml:"sentinel,omitempty" json:"sentinel,omitempty"`
	KeyPrefix string          `yaml:"keyPrefix" json:"keyPrefix"`
	TTL       Duration        `yaml:"ttl" json:"ttl"`

	// TTLJitter spreads expirations by a random fraction of TTL (0..1).
	TTLJitter float64 `yaml:"ttlJitter,omitempty" json:"ttlJitter,omitempty"`

	PoolSize       int      `yaml:"poolSize,omitempty" json:"poolSize,omitempty"`
	ConnectTimeout Duration `yaml:"connectTimeout,omitempty" json:"connectTimeout,omitempty"`
	ReadTimeout    Duration `yaml:"readTimeout,omitempty" json:"readTimeout,omitempty"`
	WriteTimeout   Duration `yaml:"writeTimeout,omitempty" json:"writeTimeout,omitempty"`

	Retry          RetryConfig          `yaml:"retry" json:"retry"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker" json:"circuitBreaker"`
}

// SentinelConfig configures Redis Sentinel failover. When set it takes
// precedence over URL.
type SentinelConfig struct {
	MasterName       string   `yaml:"masterName" json:"masterName"`
	SentinelAddrs    []string `yaml:"sentinelAddrs" json:"sentinelAddrs"`
	SentinelPassword string   `yaml:"sentinelPassword,omitempty" json:"-"`
	Password         string   `yaml:"password,omitempty" json:"-"`
	DB               int      `yaml:"db,omitempty" json:"db,omitempty"`
}

// RetryConfig configures retries of individual Redis commands.
type RetryConfig struct {
	MaxRetries     int      `yaml:"maxRetries" json:"maxRetries"`
	InitialBackoff Duration `yaml:"initialBackoff" json:"initialBackoff"`
	MaxBackoff     Duration `yaml:"maxBackoff" json:"maxBackoff"`
}

// CircuitBreakerConfig configures the breaker in front of Redis.
type CircuitBreakerConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Threshold is the number of consecutive failures that opens the breaker.
	Threshold int `yaml:"threshold" json:"threshold"`

	// Timeout is how long the breaker stays open before probing again.
	Timeout Duration `yaml:"timeout" json:"timeout"`
}

// AdminConfig configures the administrative HTTP surface.
type AdminConfig struct {
	Address        string          `yaml:"address" json:"address"`
	BasePath       string          `yaml:"basePath" json:"basePath"`
	ClearRateLimit RateLimitConfig `yaml:"clearRateLimit" json:"clearRateLimit"`
}

// RateLimitConfig is a token bucket. Zero RPS disables limiting.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" json:"rps"`
	Burst int     `yaml:"burst" json:"burst"`
}

// MetricsConfig configures the Prometheus endpoint on the admin server.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
}

// StatsReportConfig configures the periodic statistics log line.
type StatsReportConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Schedule string `yaml:"schedule" json:"schedule"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	ServiceName  string  `yaml:"serviceName" json:"serviceName"`
	OTLPEndpoint string  `yaml:"otlpEndpoint" json:"otlpEndpoint"`
	SamplingRate float64 `yaml:"samplingRate" json:"samplingRate"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	regions := make([]string, len(DefaultRegions))
	copy(regions, DefaultRegions)

	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Cache: CacheConfig{
			Regions: regions,
			Local: LocalCacheConfig{
				MaxEntries:      DefaultLocalMaxEntries,
				TTL:             Duration(DefaultLocalTTL),
				CleanupInterval: Duration(DefaultLocalCleanupInterval),
			},
			Remote: RemoteCacheConfig{
				URL:            DefaultRemoteURL,
				KeyPrefix:      DefaultRemoteKeyPrefix,
				TTL:            Duration(DefaultRemoteTTL),
				PoolSize:       10,
				ConnectTimeout: Duration(DefaultRemoteTimeout),
				ReadTimeout:    Duration(DefaultRemoteTimeout),
				WriteTimeout:   Duration(DefaultRemoteTimeout),
				Retry: RetryConfig{
					MaxRetries:     3,
					InitialBackoff: Duration(50 * time.Millisecond),
					MaxBackoff:     Duration(500 * time.Millisecond),
				},
				CircuitBreaker: CircuitBreakerConfig{
					Enabled:   true,
					Threshold: 5,
					Timeout:   Duration(30 * time.Second),
				},
			},
		},
		Admin: AdminConfig{
			Address:  DefaultAdminAddress,
			BasePath: DefaultAdminBasePath,
			ClearRateLimit: RateLimitConfig{
				RPS:   1,
				Burst: 5,
			},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		StatsReport: StatsReportConfig{
			Enabled:  true,
			Schedule: DefaultStatsSchedule,
		},
		Tracing: TracingConfig{
			ServiceName:  "petcache",
			SamplingRate: 1.0,
		},
	}
}
