package config

import (
	"log/slog"
	"strings"
	"time"
)

// Accessor methods with default fallbacks for values that are unset or invalid.

// GetDialTimeout returns the SMB dial timeout with a default fallback.
func (c *Config) GetDialTimeout() time.Duration {
	if c.SMB.DialTimeout <= 0 {
		return 30 * time.Second // Default: 30 seconds
	}
	return c.SMB.DialTimeout
}

// GetPort returns the SMB port with a default fallback.
func (c *Config) GetPort() int {
	if c.SMB.Port <= 0 {
		return 445
	}
	return c.SMB.Port
}

// PromptEnabled reports whether a missing password is asked for interactively.
func (c *Config) PromptEnabled() bool {
	if c.SMB.Prompt == nil {
		return true // Default: prompt
	}
	return *c.SMB.Prompt
}

// GetCacheSize returns the node cache size with a default fallback.
func (c *Config) GetCacheSize() int {
	if c.Cache.Nodes <= 0 {
		return 1024 // Default: 1024 nodes
	}
	return c.Cache.Nodes
}

// GetRetryAttempts returns the number of attempts per CLI operation. One means no retry.
func (c *Config) GetRetryAttempts() uint {
	if c.CLI.RetryAttempts == 0 {
		return 1
	}
	return c.CLI.RetryAttempts
}

// GetRetryDelay returns the delay between CLI attempts with a default fallback.
func (c *Config) GetRetryDelay() time.Duration {
	if c.CLI.RetryDelay <= 0 {
		return time.Second // Default: 1 second
	}
	return c.CLI.RetryDelay
}

// GetStatWorkers returns the concurrency of the stat command with a default fallback.
func (c *Config) GetStatWorkers() int {
	if c.CLI.StatWorkers <= 0 {
		return 4 // Default: 4 workers
	}
	return c.CLI.StatWorkers
}

// SlogLevel returns the configured log level, info when unset or unknown.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
