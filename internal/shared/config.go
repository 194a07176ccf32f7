package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the static process configuration loaded from a TOML file.
//
// Runtime user-editable settings (Lidarr address, profiles, etc.) live in the
// JSON settings file managed by the settings package, not here.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Storage  StorageConfig  `toml:"storage"`
	Logging  LoggingConfig  `toml:"logging"`
	Upstream UpstreamConfig `toml:"upstream"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig contains filesystem paths used by the service.
type StorageConfig struct {
	ConfigDir string `toml:"config_dir"` // directory holding settings.json
	CachePath string `toml:"cache_path"` // sqlite popularity cache
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// UpstreamConfig contains base URLs for the external HTTP services.
//
// Overridable for tests and self-hosted mirrors.
type UpstreamConfig struct {
	ListenBrainzAPIURL  string  `toml:"listenbrainz_api_url"`
	ListenBrainzLabsURL string  `toml:"listenbrainz_labs_url"`
	MusicBrainzURL      string  `toml:"musicbrainz_url"`
	RateLimit           float64 `toml:"rate_limit"` // requests per second against ListenBrainz
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, ErrInvalidConfig)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
