package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ServerConfig points at the glove server
type ServerConfig struct {
	URL         string `json:"url,omitempty"`
	AutoConnect bool   `json:"autoConnect,omitempty"`
}

// StorageConfig selects where saved recordings live
type StorageConfig struct {
	Backend string `json:"backend,omitempty"` // "json" or "sqlite"
	Path    string `json:"path,omitempty"`
}

// MIDIConfig defines the local MIDI ports
type MIDIConfig struct {
	OutputPort string `json:"outputPort,omitempty"`
	InputPort  string `json:"inputPort,omitempty"`
	Channel    int    `json:"channel,omitempty"` // 1-16
}

// UIConfig stores UI preferences
type UIConfig struct {
	Scale      float64 `json:"scale,omitempty"` // timeline cells per second
	Palette    string  `json:"palette,omitempty"`
	LastPreset string  `json:"lastPreset,omitempty"`
}

// APIConfig is used by `ripple serve`
type APIConfig struct {
	Addr           string   `json:"addr,omitempty"`
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Server  ServerConfig  `json:"server"`
	Storage StorageConfig `json:"storage"`
	MIDI    MIDIConfig    `json:"midi"`
	UI      UIConfig      `json:"ui"`
	API     APIConfig     `json:"api"`
	Debug   bool          `json:"debug,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:         "ws://localhost:8000/ws",
			AutoConnect: true,
		},
		Storage: StorageConfig{
			Backend: "json",
		},
		MIDI: MIDIConfig{
			Channel: 1,
		},
		UI: UIConfig{
			Scale:      8,
			LastPreset: "piano",
		},
		API: APIConfig{
			Addr:           "localhost:8090",
			AllowedOrigins: []string{"*"},
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ripple"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config at path (ConfigPath when empty), or returns
// defaults if not found. Fields missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return DefaultConfig(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to path (ConfigPath when empty)
func (c *Config) Save(path string) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Channel returns the zero-based MIDI channel, clamped to 0-15
func (c *Config) Channel() uint8 {
	return uint8(min(max(c.MIDI.Channel, 1), 16) - 1)
}
