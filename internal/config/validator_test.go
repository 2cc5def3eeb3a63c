package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(*Config) {},
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: "log.level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: "log.format",
		},
		{
			name:   "no regions creates on demand",
			mutate: func(c *Config) { c.Cache.Regions = nil },
		},
		{
			name:    "duplicate region",
			mutate:  func(c *Config) { c.Cache.Regions = []string{"vets", "vets"} },
			wantErr: "duplicate region",
		},
		{
			name:    "blank region",
			mutate:  func(c *Config) { c.Cache.Regions = []string{" "} },
			wantErr: "cache.regions[0]",
		},
		{
			name:    "zero local size",
			mutate:  func(c *Config) { c.Cache.Local.MaxEntries = 0 },
			wantErr: "cache.local.maxEntries",
		},
		{
			name: "remote ignored when hybrid disabled",
			mutate: func(c *Config) {
				c.Cache.Remote.URL = ""
			},
		},
		{
			name: "hybrid requires url",
			mutate: func(c *Config) {
				c.Cache.Hybrid.Enabled = true
				c.Cache.Remote.URL = ""
			},
			wantErr: "cache.remote.url",
		},
		{
			name: "sentinel requires master",
			mutate: func(c *Config) {
				c.Cache.Hybrid.Enabled = true
				c.Cache.Remote.Sentinel = &SentinelConfig{SentinelAddrs: []string{"s:26379"}}
			},
			wantErr: "masterName",
		},
		{
			name: "jitter out of range",
			mutate: func(c *Config) {
				c.Cache.Hybrid.Enabled = true
				c.Cache.Remote.TTLJitter = 1.5
			},
			wantErr: "ttlJitter",
		},
		{
			name: "breaker threshold",
			mutate: func(c *Config) {
				c.Cache.Hybrid.Enabled = true
				c.Cache.Remote.CircuitBreaker.Threshold = 0
			},
			wantErr: "circuitBreaker.threshold",
		},
		{
			name:    "base path",
			mutate:  func(c *Config) { c.Admin.BasePath = "api" },
			wantErr: "admin.basePath",
		},
		{
			name:    "rate limit burst",
			mutate:  func(c *Config) { c.Admin.ClearRateLimit.Burst = 0 },
			wantErr: "admin.clearRateLimit.burst",
		},
		{
			name:    "bad schedule",
			mutate:  func(c *Config) { c.StatsReport.Schedule = "every now and then" },
			wantErr: "statsReport.schedule",
		},
		{
			name: "schedule ignored when disabled",
			mutate: func(c *Config) {
				c.StatsReport.Enabled = false
				c.StatsReport.Schedule = ""
			},
		},
		{
			name:    "sampling rate",
			mutate:  func(c *Config) { c.Tracing.SamplingRate = 2 },
			wantErr: "tracing.samplingRate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	t.Parallel()

	assert.Error(t, Validate(nil))
}

func TestValidationErrors_Error(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "no validation errors", ValidationErrors{}.Error())
	assert.Equal(t, "a: b", ValidationErrors{{Path: "a", Message: "b"}}.Error())

	multi := ValidationErrors{{Path: "a", Message: "b"}, {Message: "c"}}.Error()
	assert.Contains(t, multi, "2 validation errors")
	assert.Contains(t, multi, "2. c")
}

func TestDefaultConfig_RegionsAreCopied(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Cache.Regions[0] = "changed"
	assert.Equal(t, "vets", DefaultRegions[0])
}
