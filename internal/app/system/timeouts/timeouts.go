// Package timeouts provides centralized timeout values for handler
// operations. Handlers wrap their request context with one of these tiers
// before calling into the stores, so adjusting a timeout is a one-line
// change here rather than a hunt across handlers.
//
// Guidelines:
//   - Ping: health checks and connectivity verification
//   - Short: single-document reads or lookups
//   - Medium: list queries, moderate writes, the group-open aggregate fetch
//   - Long: multi-step writes (file upload: blob then metadata)
package timeouts

import (
	"os"
	"sync"
	"time"
)

// Default timeout values (used unless overridden via environment).
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
)

var mu sync.RWMutex

var (
	ping   = DefaultPing
	short  = DefaultShort
	medium = DefaultMedium
	long   = DefaultLong
)

// Ping returns the timeout for health checks.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

// Short returns the timeout for single-document reads.
func Short() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return short
}

// Medium returns the timeout for list queries and simple writes.
func Medium() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return medium
}

// Long returns the timeout for multi-step writes like the two-phase file
// upload.
func Long() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return long
}

// ConfigureFromEnv reads overrides from TIMEOUT_PING, TIMEOUT_SHORT,
// TIMEOUT_MEDIUM, and TIMEOUT_LONG (Go duration syntax, e.g. "500ms",
// "15s"). Invalid or missing values keep the defaults. Returns the number
// of values applied.
func ConfigureFromEnv() int {
	mu.Lock()
	defer mu.Unlock()
	applied := 0

	set := func(env string, dst *time.Duration) {
		if v := os.Getenv(env); v != "" {
			if d, err := time.ParseDuration(v); err == nil && d > 0 {
				*dst = d
				applied++
			}
		}
	}
	set("TIMEOUT_PING", &ping)
	set("TIMEOUT_SHORT", &short)
	set("TIMEOUT_MEDIUM", &medium)
	set("TIMEOUT_LONG", &long)

	return applied
}

// Reset restores all timeouts to their defaults. Useful for testing.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping = DefaultPing
	short = DefaultShort
	medium = DefaultMedium
	long = DefaultLong
}
