package config

import (
	"os"
	"strconv"
	"time"
)

// RateLimitConfig configures the Redis token bucket placed in front of the
// public registration endpoint and the admin key check.  Admin keys are
// guessable only by brute force, so the ping route gets its own, smaller
// bucket.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Bucket         string // purpose of the limiter, part of every key
	KeyStrategy    string // "ip" or "ip_caller"
	Prefix         string
	Debug          bool
}

// LoadRateLimitConfig reads the RATE_LIMIT_* variables for the
// registration bucket.
func LoadRateLimitConfig() RateLimitConfig {
	return loadRateLimit("RATE_LIMIT", "register", 20, 6*time.Second)
}

// LoadAdminRateLimitConfig reads the ADMIN_RATE_LIMIT_* variables for the
// key-check bucket.
func LoadAdminRateLimitConfig() RateLimitConfig {
	return loadRateLimit("ADMIN_RATE_LIMIT", "admin-key", 10, 30*time.Second)
}

func loadRateLimit(prefix, bucket string, capacity int, every time.Duration) RateLimitConfig {
	def := RateLimitConfig{
		Enabled:        envBool(prefix+"_ENABLED", true),
		Capacity:       envInt(prefix+"_CAPACITY", capacity),
		RefillTokens:   envInt(prefix+"_REFILL_TOKENS", 1),
		RefillInterval: envDur(prefix+"_REFILL_INTERVAL", every),
		TTL:            envDur(prefix+"_TTL", 10*time.Minute),
		Bucket:         bucket,
		KeyStrategy:    envStr(prefix+"_KEY_STRATEGY", "ip"),
		Prefix:         envStr(prefix+"_PREFIX", "rl"),
		Debug:          envBool(prefix+"_DEBUG", false),
	}
	if def.Capacity < 1 {
		def.Capacity = 1
	}
	if def.RefillTokens < 1 {
		def.RefillTokens = 1
	}
	if def.RefillInterval <= 0 {
		def.RefillInterval = time.Second
	}
	minTTL := 5 * def.RefillInterval
	if def.TTL < minTTL {
		def.TTL = minTTL
	}
	return def
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	if dur, err := time.ParseDuration(os.Getenv(k)); err == nil {
		return dur
	}
	return d
}
