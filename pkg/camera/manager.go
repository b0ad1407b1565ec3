package camera

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Manager holds the live camera configuration. Updates are validated
// as a whole before they replace the current config.
type Manager struct {
	mu     sync.RWMutex
	config Config

	// OnConfigChange runs after a config is accepted, typically to
	// reopen the camera with the new settings.
	OnConfigChange func(cfg Config) error
}

// NewManager creates a manager holding DefaultConfig.
func NewManager() *Manager {
	return &Manager{config: DefaultConfig()}
}

// NewManagerWithPreset creates a manager starting from a named preset.
func NewManagerWithPreset(name string) (*Manager, error) {
	preset := GetPreset(name)
	if preset == nil {
		return nil, fmt.Errorf("unknown preset: %s", name)
	}
	return &Manager{config: *preset}, nil
}

// GetConfig returns a copy of the current config.
func (m *Manager) GetConfig() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// SetConfig validates and installs cfg, then calls OnConfigChange.
func (m *Manager) SetConfig(cfg Config) error {
	if problems := cfg.Validate(); len(problems) > 0 {
		return fmt.Errorf("validation failed: %v", problems)
	}

	m.mu.Lock()
	m.config = cfg
	onChange := m.OnConfigChange
	m.mu.Unlock()

	if onChange != nil {
		if err := onChange(cfg); err != nil {
			return fmt.Errorf("failed to apply config: %w", err)
		}
	}
	return nil
}

// UpdateConfig applies a partial update keyed by the Config JSON field
// names. A "preset" key replaces the base config before the remaining
// fields are overlaid; unknown keys are ignored.
func (m *Manager) UpdateConfig(params map[string]any) error {
	cfg := m.GetConfig()

	if name, ok := params["preset"]; ok {
		s, _ := name.(string)
		preset := GetPreset(s)
		if preset == nil {
			return fmt.Errorf("unknown preset: %v", name)
		}
		cfg = *preset
	}

	overlay, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode update: %w", err)
	}
	if err := json.Unmarshal(overlay, &cfg); err != nil {
		return fmt.Errorf("invalid camera config: %w", err)
	}
	return m.SetConfig(cfg)
}
