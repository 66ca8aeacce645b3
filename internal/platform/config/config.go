// Package config loads process configuration from the environment once at
// startup. Nothing outside this package reads os.Getenv; constructed values
// are passed into constructors so business logic stays testable with mock
// configuration.
package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr string
}

// StoreConfig configures one SQL-backed result store.
type StoreConfig struct {
	DSN      string
	Priority int
	Timeout  time.Duration
}

// RedisConfig configures the redis-backed record cache source.
type RedisConfig struct {
	URL          string
	Priority     int
	Timeout      time.Duration
	RecordTTL    time.Duration
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// WebAPIConfig configures the external web fallback.
type WebAPIConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// BreakerConfig tunes the per-source circuit breakers. A zero
// FailureThreshold disables breakers entirely.
type BreakerConfig struct {
	FailureThreshold int
	SuccessThreshold int
	Cooldown         time.Duration
}

// Config is the root configuration object built once in main.
type Config struct {
	Server    Server
	Primary   StoreConfig
	Secondary StoreConfig
	Cache     RedisConfig
	WebAPI    WebAPIConfig
	Breaker   BreakerConfig

	// GlobalDeadline bounds one whole fallback walk. Zero means no global
	// deadline: the engine always walks the full chain.
	GlobalDeadline time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr: envOr("RESULTGATE_ADDR", ":8080"),
		},
		Primary: StoreConfig{
			DSN:      os.Getenv("RESULTGATE_PRIMARY_DSN"),
			Priority: envInt("RESULTGATE_PRIMARY_PRIORITY", 1),
			Timeout:  envDuration("RESULTGATE_PRIMARY_TIMEOUT", 5*time.Second),
		},
		Secondary: StoreConfig{
			DSN:      os.Getenv("RESULTGATE_SECONDARY_DSN"),
			Priority: envInt("RESULTGATE_SECONDARY_PRIORITY", 2),
			Timeout:  envDuration("RESULTGATE_SECONDARY_TIMEOUT", 5*time.Second),
		},
		Cache: RedisConfig{
			URL:          os.Getenv("RESULTGATE_REDIS_URL"),
			Priority:     envInt("RESULTGATE_CACHE_PRIORITY", 3),
			Timeout:      envDuration("RESULTGATE_CACHE_TIMEOUT", 3*time.Second),
			RecordTTL:    envDuration("RESULTGATE_CACHE_RECORD_TTL", 24*time.Hour),
			PoolSize:     envInt("RESULTGATE_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("RESULTGATE_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("RESULTGATE_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("RESULTGATE_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("RESULTGATE_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		WebAPI: WebAPIConfig{
			BaseURL: envOr("RESULTGATE_WEBAPI_URL", "https://btebresulthub.example.com"),
			APIKey:  os.Getenv("RESULTGATE_WEBAPI_KEY"),
			Timeout: envDuration("RESULTGATE_WEBAPI_TIMEOUT", 15*time.Second),
		},
		Breaker: BreakerConfig{
			FailureThreshold: envInt("RESULTGATE_BREAKER_FAILURES", 5),
			SuccessThreshold: envInt("RESULTGATE_BREAKER_SUCCESSES", 1),
			Cooldown:         envDuration("RESULTGATE_BREAKER_COOLDOWN", 30*time.Second),
		},
		GlobalDeadline: envDuration("RESULTGATE_GLOBAL_DEADLINE", 0),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
