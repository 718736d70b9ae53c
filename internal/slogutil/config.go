package slogutil

import (
	"io"
	"log/slog"
	"os"

	"github.com/javi11/smbvfs/internal/config"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

type ReplaceAttrFunc func(groups []string, a slog.Attr) slog.Attr

type Config struct {
	Level       slog.Leveler
	Format      Format
	ReplaceAttr ReplaceAttrFunc
	Hooks       []Hook
	AddSource   bool
	// Writer receives every record. Defaults to stderr so command output on stdout
	// stays clean.
	Writer io.Writer
	// Rotation, when set, also writes records to a rotated file.
	Rotation *config.LogConfig
}

var defaultConfig = Config{
	Level:  slog.LevelInfo,
	Format: FormatText,
}

func mergeConfig(config ...Config) Config {
	if len(config) == 0 {
		cfg := defaultConfig
		cfg.Writer = os.Stderr
		return cfg
	}

	cfg := config[0]

	if cfg.Level == nil {
		cfg.Level = defaultConfig.Level
	}

	if cfg.Format == "" {
		cfg.Format = defaultConfig.Format
	}

	if cfg.Writer == nil {
		cfg.Writer = os.Stderr
	}

	return cfg
}

// SetupLogRotation builds the application logger from the log configuration.
// If logConfig.File is empty, it logs to stderr only; otherwise it logs to both stderr
// and the file, rotated with lumberjack.
// The returned leveler changes the level of the logger at runtime.
func SetupLogRotation(logConfig config.LogConfig) (*slog.Logger, *DynamicLeveler) {
	leveler := NewDynamicLeveler(logConfig.SlogLevel())

	cfg := Config{
		Level:  leveler,
		Format: Format(logConfig.Format),
	}
	if logConfig.File != "" {
		cfg.Rotation = &logConfig
	}

	return slog.New(NewHandler(cfg)), leveler
}
