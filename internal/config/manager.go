package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ChangeCallback is invoked after the live configuration is replaced.
// oldConfig is an immutable deep-copied snapshot; newConfig is the value
// now returned by Manager.GetConfig.
type ChangeCallback func(oldConfig, newConfig *Config)

// ConfigGetter returns the current configuration; handed to collaborators
// that only need to read config, not manage its lifecycle.
type ConfigGetter func() *Config

// Manager owns the live Config and fans out changes to registered
// callbacks, the way altmount's config.Manager backs hot-reloadable
// subsystems (log level, pool sizing) without a process restart.
type Manager struct {
	current    *Config
	configFile string

	mutex     sync.RWMutex
	callbacks []ChangeCallback
}

// NewManager wraps an already-loaded Config for runtime management.
func NewManager(cfg *Config, configFile string) *Manager {
	return &Manager{current: cfg, configFile: configFile}
}

// GetConfig returns the current configuration.
func (m *Manager) GetConfig() *Config {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.current
}

// GetConfigGetter returns a bound ConfigGetter for this manager.
func (m *Manager) GetConfigGetter() ConfigGetter {
	return m.GetConfig
}

// UpdateConfig replaces the live configuration and notifies callbacks
// with a deep-copied snapshot of the superseded config.
func (m *Manager) UpdateConfig(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	m.mutex.Lock()
	var oldConfig *Config
	if m.current != nil {
		oldConfig = m.current.DeepCopy()
	}
	m.current = cfg
	callbacks := make([]ChangeCallback, len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mutex.Unlock()

	for _, cb := range callbacks {
		cb(oldConfig, cfg)
	}
	return nil
}

// OnConfigChange registers a callback fired on every successful
// UpdateConfig or ReloadConfig.
func (m *Manager) OnConfigChange(cb ChangeCallback) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.callbacks = append(m.callbacks, cb)
}

// ReloadConfig re-reads the backing file through viper and installs the
// result as the live config, notifying callbacks on success.
func (m *Manager) ReloadConfig() error {
	if m.configFile == "" {
		return fmt.Errorf("config: no backing file to reload from")
	}
	cfg, err := LoadConfig(m.configFile)
	if err != nil {
		return err
	}
	return m.UpdateConfig(cfg)
}

// SaveConfig persists the current configuration to its backing file.
func (m *Manager) SaveConfig() error {
	m.mutex.RLock()
	cfg := m.current
	file := m.configFile
	m.mutex.RUnlock()

	if cfg == nil {
		return fmt.Errorf("config: no configuration to save")
	}
	return SaveToFile(cfg, file)
}

// SaveToFile writes cfg as YAML to filename, creating parent directories
// as needed.
func SaveToFile(cfg *Config, filename string) error {
	if filename == "" {
		return fmt.Errorf("config: no file path provided")
	}
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create directory: %w", err)
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", filename, err)
	}
	return nil
}

// LoadConfig reads configuration from configFile via viper, merging onto
// DefaultConfig, writing a fresh default file if none exists yet.
func LoadConfig(configFile string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	if configFile == "" {
		configFile = "streamio.yaml"
	}
	v.SetConfigFile(configFile)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			if err := SaveToFile(cfg, configFile); err != nil {
				return nil, fmt.Errorf("config: create default file %s: %w", configFile, err)
			}
			v.SetConfigFile(configFile)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("config: read newly created file %s: %w", configFile, err)
			}
		} else {
			return nil, fmt.Errorf("config: read %s: %w", configFile, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}
