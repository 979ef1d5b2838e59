package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/wricardo/direkt/game/engine"
	"github.com/wricardo/direkt/game/service"
)

var (
	// ErrConfigNotFound is the service sentinel so callers match either name
	ErrConfigNotFound = service.ErrConfigNotFound
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// DefaultLevelName is loaded as the default level when present
const DefaultLevelName = "level1"

// level file extensions, in lookup order
var extensions = []string{".json", ".yaml", ".yml"}

// Manager handles level configuration loading and caching
type Manager struct {
	configDir     string
	defaultConfig *engine.LevelConfig
	configs       map[string]*engine.LevelConfig
	mu            sync.RWMutex
}

// NewManager creates a new configuration manager
func NewManager(configDir string) (*Manager, error) {
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.LevelConfig),
	}

	if err := m.loadDefaultConfig(); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	return m, nil
}

// configID strips a known level file extension from name
func configID(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range extensions {
		if ext == e {
			return strings.TrimSuffix(name, filepath.Ext(name))
		}
	}
	return name
}

func validName(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && !strings.HasPrefix(id, ".")
}

// LoadConfig loads a level by name, with or without its file extension
func (m *Manager) LoadConfig(name string) (*engine.LevelConfig, error) {
	id := configID(name)
	if !validName(id) {
		return nil, ErrConfigNotFound
	}

	m.mu.RLock()
	if config, exists := m.configs[id]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if config, exists := m.configs[id]; exists {
		return config, nil
	}

	path, err := m.resolve(name)
	if err != nil {
		return nil, err
	}

	config, err := engine.LoadLevelFile(path)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidLevel) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	m.configs[id] = config
	return config, nil
}

// resolve finds the file backing name. An explicit extension is used as given.
func (m *Manager) resolve(name string) (string, error) {
	candidates := []string{name}
	if configID(name) == name {
		candidates = candidates[:0]
		for _, ext := range extensions {
			candidates = append(candidates, name+ext)
		}
	}
	for _, c := range candidates {
		path := filepath.Join(m.configDir, c)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", ErrConfigNotFound
}

// ListConfigs returns information about all valid level files, ordered by filename
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var configs []*service.ConfigInfo
	seen := make(map[string]bool)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id := configID(entry.Name())
		if id == entry.Name() || seen[id] {
			continue
		}

		config, err := m.LoadConfig(entry.Name())
		if err != nil {
			log.WithError(err).WithField("file", entry.Name()).Warn("skipping invalid level")
			continue
		}
		seen[id] = true

		configs = append(configs, &service.ConfigInfo{
			Filename:    entry.Name(),
			ConfigID:    id,
			Name:        config.Name,
			Description: config.Description,
			Rows:        len(config.LevelSetup),
			Cols:        len(config.LevelSetup[0]),
			Gates:       len(config.Gates) + len(config.StraightGates),
			Enemies:     len(config.SlowEnemies) + len(config.NormalEnemies) + len(config.FastEnemies),
		})
	}

	return configs, nil
}

// GetDefault returns the default configuration
func (m *Manager) GetDefault() *engine.LevelConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// SetDefault sets the default configuration by name
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConfig = config
	return nil
}

// RefreshCache drops all cached levels and reloads the default from disk
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.configs = make(map[string]*engine.LevelConfig)
	m.mu.Unlock()

	return m.loadDefaultConfig()
}

// loadDefaultConfig picks level1, else the first valid level, else the built-in corridor
func (m *Manager) loadDefaultConfig() error {
	config, err := m.LoadConfig(DefaultLevelName)
	if err != nil {
		config = engine.DefaultLevelConfig()
		configs, listErr := m.ListConfigs()
		if listErr != nil {
			return listErr
		}
		if len(configs) > 0 {
			if first, err := m.LoadConfig(configs[0].Filename); err == nil {
				config = first
			}
		}
	}

	m.mu.Lock()
	m.defaultConfig = config
	m.mu.Unlock()
	return nil
}

// SaveConfig validates a level and writes it to <name>.json
func (m *Manager) SaveConfig(name string, config *engine.LevelConfig) error {
	id := configID(name)
	if !validName(id) {
		return fmt.Errorf("%w: bad level name %q", ErrInvalidConfig, name)
	}
	if config == nil {
		return fmt.Errorf("%w: empty level", ErrInvalidConfig)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if config.Name == "" {
		config.Name = id
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configPath := filepath.Join(m.configDir, id+".json")
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	m.configs[id] = config
	m.mu.Unlock()

	log.WithField("level", id).Info("level saved")
	return nil
}
