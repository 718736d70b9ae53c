package config

import (
	"log/slog"
)

// LevelSetter is a log level that can change at runtime.
type LevelSetter interface {
	SetLevel(level slog.Level)
}

// NewLoggingUpdater returns a callback applying log level changes to leveler
func NewLoggingUpdater(leveler LevelSetter) ChangeCallback {
	return func(oldConfig, newConfig *Config) {
		if newConfig == nil {
			return
		}

		if oldConfig != nil && oldConfig.Log.Level == newConfig.Log.Level {
			return // No change needed
		}

		leveler.SetLevel(newConfig.Log.SlogLevel())
		slog.Info("Log level updated", "level", newConfig.Log.SlogLevel().String())
	}
}
