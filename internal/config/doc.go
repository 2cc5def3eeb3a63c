// Package config defines the petcache configuration file, its defaults,
// validation and hot reload.
//
// Configuration is YAML with ${VAR} and ${VAR:-default} environment
// substitution. Keys missing from the file keep the values from
// DefaultConfig:
//
//	cache:
//	  hybrid:
//	    enabled: true
//	  remote:
//	    url: ${REDIS_URL:-redis://localhost:6379/0}
//	    ttl: 30m
package config
