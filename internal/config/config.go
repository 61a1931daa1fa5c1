// Package config defines service configuration and its loading.
package config

import (
	"runtime"
	"time"
)

// Dedupe backends.
const (
	DedupeMemory = "memory"
	DedupeRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: json or text.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory submission queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of review workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the in-memory deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// DedupeBackend is memory or redis.
	DedupeBackend string `koanf:"dedupe_backend"`

	// DedupeTTL expires Redis dedupe keys. Zero uses the deduper default.
	DedupeTTL time.Duration `koanf:"dedupe_ttl"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// MaxLeaderboardLimit caps GET /v1/leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// RateLimitRPS and RateLimitBurst bound per-client /v1 traffic. A zero
	// RPS disables rate limiting.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// PremiumPlans lists the plan names that unlock premium-gated badges.
	PremiumPlans []string `koanf:"premium_plans"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "json",
		Addr:                ":9080",
		QueueSize:           10_000,
		WorkerCount:         runtime.NumCPU() * 4,
		DedupeSize:          50_000,
		DedupeBackend:       DedupeMemory,
		DedupeTTL:           7 * 24 * time.Hour,
		RedisAddr:           "localhost:6379",
		MaxLeaderboardLimit: 100,
		RateLimitRPS:        50,
		RateLimitBurst:      100,
		PremiumPlans:        []string{"premium", "enterprise"},
	}
}
