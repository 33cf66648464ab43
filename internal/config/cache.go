package config

import (
	"strings"
	"time"
)

// Cache key strategies.  The path always takes part in the key; the
// strategy adds the method, the query string or both.
const (
	CacheKeyRoute            = "route"
	CacheKeyRouteQuery       = "route_query"
	CacheKeyMethodRoute      = "method_route"
	CacheKeyMethodRouteQuery = "method_route_query"
)

// CacheConfig defines settings for the catalog response cache.
// When Enabled is false or no Redis client is configured, caching is
// disabled.  TTL bounds how stale a cached catalog page may get; writes
// also bump a generation counter so readers see them at once.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig builds a CacheConfig from CACHE_* variables.  An unknown
// CACHE_KEY_STRATEGY falls back to route_query, and non-positive sizes and
// TTLs fall back to their defaults.
func LoadCacheConfig() CacheConfig {
	cfg := CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      parseMethods(envStr("CACHE_METHODS", "GET")),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		KeyStrategy:  normalizeCacheKeyStrategy(envStr("CACHE_KEY_STRATEGY", CacheKeyRouteQuery)),
		Prefix:       envStr("CACHE_PREFIX", "catalog"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	return cfg
}

func normalizeCacheKeyStrategy(s string) string {
	switch s = strings.ToLower(strings.TrimSpace(s)); s {
	case CacheKeyRoute, CacheKeyRouteQuery, CacheKeyMethodRoute, CacheKeyMethodRouteQuery:
		return s
	}
	return CacheKeyRouteQuery
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
