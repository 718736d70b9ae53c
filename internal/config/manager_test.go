package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		errContains string
	}{
		{name: "defaults - ok", mutate: func(*Config) {}},
		{name: "port zero uses default - ok", mutate: func(c *Config) { c.SMB.Port = 0 }},
		{
			name:        "port out of range",
			mutate:      func(c *Config) { c.SMB.Port = 70000 },
			errContains: "smb port",
		},
		{
			name:        "negative dial timeout",
			mutate:      func(c *Config) { c.SMB.DialTimeout = -time.Second },
			errContains: "dial_timeout",
		},
		{
			name:        "negative cache size",
			mutate:      func(c *Config) { c.Cache.Nodes = -1 },
			errContains: "cache nodes",
		},
		{
			name:        "unknown log level",
			mutate:      func(c *Config) { c.Log.Level = "verbose" },
			errContains: "log.level must be one of: debug, info, warn, error",
		},
		{
			name:        "unknown log format",
			mutate:      func(c *Config) { c.Log.Format = "xml" },
			errContains: "log.format",
		},
		{
			name:        "negative max backups",
			mutate:      func(c *Config) { c.Log.MaxBackups = -1 },
			errContains: "log.max_backups",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestConfig_DeepCopy(t *testing.T) {
	c := DefaultConfig()
	c.SMB.DefaultDomain = "CORP"

	cp := c.DeepCopy()
	require.NotNil(t, cp)
	assert.Equal(t, c, cp)

	*cp.SMB.Prompt = false
	cp.SMB.DefaultDomain = "LAB"
	assert.True(t, *c.SMB.Prompt, "pointer fields are not shared")
	assert.Equal(t, "CORP", c.SMB.DefaultDomain)

	var nilCfg *Config
	assert.Nil(t, nilCfg.DeepCopy())
}

func TestLoadConfig(t *testing.T) {
	t.Run("file merged with defaults", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(file, []byte(`
smb:
  default_domain: CORP
  dial_timeout: 5s
log:
  level: debug
`), 0600))

		c, err := LoadConfig(file)
		require.NoError(t, err)

		assert.Equal(t, "CORP", c.SMB.DefaultDomain)
		assert.Equal(t, 5*time.Second, c.SMB.DialTimeout)
		assert.Equal(t, "debug", c.Log.Level)
		assert.Equal(t, 445, c.SMB.Port, "unset keys keep their default")
		assert.Equal(t, 1024, c.Cache.Nodes)
		assert.True(t, c.PromptEnabled())
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(file, []byte("log:\n  level: debug\n"), 0600))
		t.Setenv("SMBVFS_LOG_LEVEL", "warn")
		t.Setenv("SMBVFS_CACHE_NODES", "16")
		t.Setenv("SMBVFS_SMB_PROMPT", "false")

		c, err := LoadConfig(file)
		require.NoError(t, err)

		assert.Equal(t, "warn", c.Log.Level)
		assert.Equal(t, 16, c.Cache.Nodes)
		assert.False(t, c.PromptEnabled())
	})

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(file, []byte("log:\n  level: loud\n"), 0600))

		_, err := LoadConfig(file)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config validation failed")
	})
}

func TestSaveToFile_RoundTrip(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nested", "config.yaml")

	c := DefaultConfig()
	c.SMB.DefaultDomain = "CORP"
	c.CLI.RetryDelay = 250 * time.Millisecond
	require.NoError(t, SaveToFile(c, file))

	loaded, err := LoadConfig(file)
	require.NoError(t, err)
	assert.Equal(t, c, loaded)

	assert.Error(t, SaveToFile(c, ""))
}

type recordingLeveler struct {
	levels []slog.Level
}

func (r *recordingLeveler) SetLevel(level slog.Level) {
	r.levels = append(r.levels, level)
}

func TestManager_UpdateConfig(t *testing.T) {
	m := NewManager(DefaultConfig(), "")

	var calls [][2]*Config
	m.OnConfigChange(func(oldConfig, newConfig *Config) {
		calls = append(calls, [2]*Config{oldConfig, newConfig})
	})
	leveler := &recordingLeveler{}
	m.OnConfigChange(NewLoggingUpdater(leveler))

	next := DefaultConfig()
	next.Log.Level = "debug"
	require.NoError(t, m.UpdateConfig(next))

	assert.Same(t, next, m.GetConfig())
	require.Len(t, calls, 1)
	assert.Equal(t, "info", calls[0][0].Log.Level)
	assert.Same(t, next, calls[0][1])
	assert.Equal(t, []slog.Level{slog.LevelDebug}, leveler.levels)

	same := next.DeepCopy()
	same.Cache.Nodes = 10
	require.NoError(t, m.UpdateConfig(same))
	assert.Len(t, leveler.levels, 1, "an unchanged level is not reapplied")

	invalid := DefaultConfig()
	invalid.Log.Level = "loud"
	assert.Error(t, m.UpdateConfig(invalid))
	assert.Same(t, same, m.GetConfig(), "invalid configs are not installed")
	assert.Len(t, calls, 2)
}

func TestManager_ReloadAndSave(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	m := NewManager(DefaultConfig(), file)

	require.NoError(t, m.SaveConfig())
	assert.FileExists(t, file)

	require.NoError(t, os.WriteFile(file, []byte("cache:\n  nodes: 64\n"), 0600))

	var reloaded *Config
	m.OnConfigChange(func(_, newConfig *Config) { reloaded = newConfig })
	require.NoError(t, m.ReloadConfig())

	assert.Equal(t, 64, m.GetConfig().Cache.Nodes)
	assert.Same(t, m.GetConfig(), reloaded)
	assert.Equal(t, file, m.ConfigFile())

	assert.Error(t, NewManager(DefaultConfig(), "").ReloadConfig())
}

func TestAccessors_Defaults(t *testing.T) {
	var c Config

	assert.Equal(t, 30*time.Second, c.GetDialTimeout())
	assert.Equal(t, 445, c.GetPort())
	assert.True(t, c.PromptEnabled())
	assert.Equal(t, 1024, c.GetCacheSize())
	assert.Equal(t, uint(1), c.GetRetryAttempts())
	assert.Equal(t, time.Second, c.GetRetryDelay())
	assert.Equal(t, 4, c.GetStatWorkers())
	assert.Equal(t, slog.LevelInfo, c.Log.SlogLevel())

	c.Log.Level = "WARN"
	assert.Equal(t, slog.LevelWarn, c.Log.SlogLevel())
}
