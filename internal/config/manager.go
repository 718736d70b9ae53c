package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jinzhu/copier"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes the environment variables overriding file settings,
// e.g. SMBVFS_LOG_LEVEL=debug.
const EnvPrefix = "SMBVFS"

// Config represents the complete application configuration
type Config struct {
	SMB   SMBConfig   `yaml:"smb" mapstructure:"smb"`
	Cache CacheConfig `yaml:"cache" mapstructure:"cache"`
	CLI   CLIConfig   `yaml:"cli" mapstructure:"cli"`
	Log   LogConfig   `yaml:"log" mapstructure:"log"`
}

// SMBConfig represents SMB client configuration
type SMBConfig struct {
	DialTimeout   time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	Port          int           `yaml:"port" mapstructure:"port"`                     // Used when the URI carries no port
	DefaultDomain string        `yaml:"default_domain" mapstructure:"default_domain"` // Used when credentials carry no domain
	Prompt        *bool         `yaml:"prompt" mapstructure:"prompt"`                 // Ask for a password when the URI has none
}

// CacheConfig represents node cache configuration
type CacheConfig struct {
	Nodes int `yaml:"nodes" mapstructure:"nodes"` // Max nodes kept per filesystem
}

// CLIConfig represents command line behaviour
type CLIConfig struct {
	RetryAttempts uint          `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`
	StatWorkers   int           `yaml:"stat_workers" mapstructure:"stat_workers"`
}

// LogConfig represents logging configuration with rotation support
type LogConfig struct {
	File       string `yaml:"file" mapstructure:"file"`               // Log file path (empty = console only)
	Level      string `yaml:"level" mapstructure:"level"`             // Log level (debug, info, warn, error)
	Format     string `yaml:"format" mapstructure:"format"`           // text or json
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"`       // Max size in MB before rotation
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"`         // Max age in days to keep files
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"` // Max number of old files to keep
	Compress   bool   `yaml:"compress" mapstructure:"compress"`       // Compress old log files
}

var (
	validLevels  = []string{"debug", "info", "warn", "error"}
	validFormats = []string{"text", "json"}
)

// DeepCopy returns a deep copy of the configuration
func (c *Config) DeepCopy() *Config {
	if c == nil {
		return nil
	}

	var out Config
	if err := copier.CopyWithOption(&out, c, copier.Option{DeepCopy: true}); err != nil {
		// unreachable: Config holds plain values
		panic(fmt.Sprintf("config: deep copy failed: %v", err))
	}

	return &out
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.SMB.Port < 0 || c.SMB.Port > 65535 {
		return fmt.Errorf("smb port must be between 0 and 65535")
	}

	if c.SMB.DialTimeout < 0 {
		return fmt.Errorf("smb dial_timeout must be non-negative")
	}

	if c.Cache.Nodes < 0 {
		return fmt.Errorf("cache nodes must be non-negative")
	}

	if c.CLI.RetryDelay < 0 {
		return fmt.Errorf("cli retry_delay must be non-negative")
	}

	if c.CLI.StatWorkers < 0 {
		return fmt.Errorf("cli stat_workers must be non-negative")
	}

	if c.Log.Level != "" && !slices.Contains(validLevels, c.Log.Level) {
		return fmt.Errorf("log.level must be one of: %s", strings.Join(validLevels, ", "))
	}

	if c.Log.Format != "" && !slices.Contains(validFormats, c.Log.Format) {
		return fmt.Errorf("log.format must be one of: %s", strings.Join(validFormats, ", "))
	}

	if c.Log.MaxSize < 0 {
		return fmt.Errorf("log.max_size must be non-negative")
	}

	if c.Log.MaxAge < 0 {
		return fmt.Errorf("log.max_age must be non-negative")
	}

	if c.Log.MaxBackups < 0 {
		return fmt.Errorf("log.max_backups must be non-negative")
	}

	return nil
}

// ChangeCallback represents a function called when configuration changes
type ChangeCallback func(oldConfig, newConfig *Config)

// Manager manages configuration state and persistence
type Manager struct {
	current    *Config
	configFile string
	mutex      sync.RWMutex
	callbacks  []ChangeCallback
}

// NewManager creates a new configuration manager
func NewManager(config *Config, configFile string) *Manager {
	return &Manager{
		current:    config,
		configFile: configFile,
	}
}

// GetConfig returns the current configuration (thread-safe)
func (m *Manager) GetConfig() *Config {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.current
}

// ConfigFile returns the file the configuration is persisted to.
func (m *Manager) ConfigFile() string {
	return m.configFile
}

// UpdateConfig validates and installs config, then notifies the callbacks
func (m *Manager) UpdateConfig(config *Config) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	m.mutex.Lock()
	// Callbacks get an immutable snapshot of the old config
	var oldConfig *Config
	if m.current != nil {
		oldConfig = m.current.DeepCopy()
	}
	m.current = config
	callbacks := slices.Clone(m.callbacks)
	m.mutex.Unlock()

	// Notify callbacks after releasing the lock
	for _, callback := range callbacks {
		callback(oldConfig, config)
	}
	return nil
}

// OnConfigChange registers a callback to be called when configuration changes
func (m *Manager) OnConfigChange(callback ChangeCallback) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// ReloadConfig reloads configuration from file and notifies the callbacks
func (m *Manager) ReloadConfig() error {
	if m.configFile == "" {
		return fmt.Errorf("no config file to reload")
	}

	config, err := LoadConfig(m.configFile)
	if err != nil {
		return err
	}

	return m.UpdateConfig(config)
}

// SaveConfig saves the current configuration to file
func (m *Manager) SaveConfig() error {
	config := m.GetConfig()
	if config == nil {
		return fmt.Errorf("no configuration to save")
	}

	return SaveToFile(config, m.configFile)
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	prompt := true

	return &Config{
		SMB: SMBConfig{
			DialTimeout: 30 * time.Second,
			Port:        445,
			Prompt:      &prompt,
		},
		Cache: CacheConfig{
			Nodes: 1024,
		},
		CLI: CLIConfig{
			RetryAttempts: 3,
			RetryDelay:    time.Second,
			StatWorkers:   4,
		},
		Log: LogConfig{
			File:       "",     // Empty = console only
			Level:      "info", // Default log level
			Format:     "text",
			MaxSize:    100,  // 100MB max size
			MaxAge:     30,   // Keep for 30 days
			MaxBackups: 10,   // Keep 10 old files
			Compress:   true, // Compress old files
		},
	}
}

// SaveToFile saves a configuration to a YAML file
func SaveToFile(config *Config, filename string) error {
	if filename == "" {
		return fmt.Errorf("no config file path provided")
	}

	// Ensure the directory exists
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadConfig loads configuration from file and environment and merges it with the
// defaults. Without an explicit file a missing config.yaml is not an error.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(DefaultConfigDir())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	}

	config := DefaultConfig()
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// DefaultConfigDir returns $XDG_CONFIG_HOME/smbvfs, falling back to ~/.config/smbvfs
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "smbvfs")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "smbvfs")
}

// DefaultConfigPath returns the config file used when --config is not given
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// setDefaults registers every key so environment overrides apply to keys absent
// from the file.
func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("smb.dial_timeout", c.SMB.DialTimeout)
	v.SetDefault("smb.port", c.SMB.Port)
	v.SetDefault("smb.default_domain", c.SMB.DefaultDomain)
	v.SetDefault("smb.prompt", *c.SMB.Prompt)
	v.SetDefault("cache.nodes", c.Cache.Nodes)
	v.SetDefault("cli.retry_attempts", c.CLI.RetryAttempts)
	v.SetDefault("cli.retry_delay", c.CLI.RetryDelay)
	v.SetDefault("cli.stat_workers", c.CLI.StatWorkers)
	v.SetDefault("log.file", c.Log.File)
	v.SetDefault("log.level", c.Log.Level)
	v.SetDefault("log.format", c.Log.Format)
	v.SetDefault("log.max_size", c.Log.MaxSize)
	v.SetDefault("log.max_age", c.Log.MaxAge)
	v.SetDefault("log.max_backups", c.Log.MaxBackups)
	v.SetDefault("log.compress", c.Log.Compress)
}
