// package settings manages the user-editable runtime configuration.
//
// Settings resolve from three sources in precedence order: environment
// variables (upper-cased key names), the JSON settings file under the config
// directory, then built-in defaults. The file is rewritten wholesale after
// load and after every update. Read or write failures are logged and never
// fatal; the in-memory values stay authoritative.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// FileName is the settings file kept inside the config directory.
const FileName = "settings_config.json"

// Clamp bounds for numeric settings.
const (
	MinAPITimeout     = 10
	MaxAPITimeout     = 300
	MinAutoStartDelay = 10
	MaxAutoStartDelay = 120
)

// Settings is the flat mapping of configuration keys to values. JSON tags
// double as the file keys and, upper-cased, as the environment variable names.
type Settings struct {
	LidarrAddress          string `json:"lidarr_address"`
	LidarrAPIKey           string `json:"lidarr_api_key"`
	RootFolderPath         string `json:"root_folder_path"`
	LidarrAPITimeout       int    `json:"lidarr_api_timeout"`
	QualityProfileID       int    `json:"quality_profile_id"`
	MetadataProfileID      int    `json:"metadata_profile_id"`
	SearchForMissingAlbums bool   `json:"search_for_missing_albums"`
	DryRunAddingToLidarr   bool   `json:"dry_run_adding_to_lidarr"`
	AutoStart              bool   `json:"auto_start"`
	AutoStartDelay         int    `json:"auto_start_delay"`
}

// Defaults returns the built-in default settings.
func Defaults() Settings {
	return Settings{
		LidarrAddress:          "",
		LidarrAPIKey:           "",
		RootFolderPath:         "",
		LidarrAPITimeout:       120,
		QualityProfileID:       -1,
		MetadataProfileID:      -1,
		SearchForMissingAlbums: false,
		DryRunAddingToLidarr:   false,
		AutoStart:              false,
		AutoStartDelay:         60,
	}
}

// Timeout returns the Lidarr API timeout as a [time.Duration].
func (s Settings) Timeout() time.Duration {
	return time.Duration(s.LidarrAPITimeout) * time.Second
}

// Form carries the user-editable subset submitted from the settings page.
// dry_run_adding_to_lidarr is deliberately absent: it is file/env only.
type Form struct {
	LidarrAddress          string `json:"lidarr_address"`
	LidarrAPIKey           string `json:"lidarr_api_key"`
	RootFolderPath         string `json:"root_folder_path"`
	LidarrAPITimeout       int    `json:"lidarr_api_timeout"`
	QualityProfileID       int    `json:"quality_profile_id"`
	MetadataProfileID      int    `json:"metadata_profile_id"`
	SearchForMissingAlbums bool   `json:"search_for_missing_albums"`
	AutoStart              bool   `json:"auto_start"`
	AutoStartDelay         int    `json:"auto_start_delay"`
}

// Store owns the resolved settings and the backing JSON file.
type Store struct {
	mu      sync.RWMutex
	path    string
	current Settings
	logger  *log.Logger
}

// NewStore creates the config directory if needed, runs the load sequence,
// and persists the resolved settings back to the file.
func NewStore(configDir string, logger *log.Logger) *Store {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		logger.Error("failed to create config directory", "dir", configDir, "err", err)
	}

	s := &Store{
		path:   filepath.Join(configDir, FileName),
		logger: logger,
	}
	s.current = s.load()

	if err := s.Save(); err != nil {
		logger.Error("failed to save settings", "err", err)
	}

	return s
}

// FilePath returns the path of the backing settings file.
func (s *Store) FilePath() string {
	return s.path
}

// Current returns a copy of the resolved settings.
func (s *Store) Current() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update applies the submitted form, clamps numeric fields, and persists.
// Returns the settings now in effect.
func (s *Store) Update(f Form) Settings {
	s.mu.Lock()
	s.current.LidarrAddress = f.LidarrAddress
	s.current.LidarrAPIKey = f.LidarrAPIKey
	s.current.RootFolderPath = f.RootFolderPath
	s.current.LidarrAPITimeout = clamp(f.LidarrAPITimeout, MinAPITimeout, MaxAPITimeout)
	s.current.QualityProfileID = f.QualityProfileID
	s.current.MetadataProfileID = f.MetadataProfileID
	s.current.SearchForMissingAlbums = f.SearchForMissingAlbums
	s.current.AutoStart = f.AutoStart
	s.current.AutoStartDelay = clamp(f.AutoStartDelay, MinAutoStartDelay, MaxAutoStartDelay)
	updated := s.current
	s.mu.Unlock()

	if err := s.Save(); err != nil {
		s.logger.Error("failed to save settings", "err", err)
	}

	return updated
}

// Save serializes the current settings to the JSON file, overwriting it.
func (s *Store) Save() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.current, "", "    ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	return nil
}

// load resolves every key from environment, file, then defaults, and clamps
// numeric fields after the merge.
func (s *Store) load() Settings {
	fileVals := s.readFile()
	def := Defaults()

	resolved := Settings{
		LidarrAddress:          resolveString("lidarr_address", fileVals, def.LidarrAddress),
		LidarrAPIKey:           resolveString("lidarr_api_key", fileVals, def.LidarrAPIKey),
		RootFolderPath:         resolveString("root_folder_path", fileVals, def.RootFolderPath),
		LidarrAPITimeout:       resolveInt("lidarr_api_timeout", fileVals, def.LidarrAPITimeout),
		QualityProfileID:       resolveInt("quality_profile_id", fileVals, def.QualityProfileID),
		MetadataProfileID:      resolveInt("metadata_profile_id", fileVals, def.MetadataProfileID),
		SearchForMissingAlbums: resolveBool("search_for_missing_albums", fileVals, def.SearchForMissingAlbums),
		DryRunAddingToLidarr:   resolveBool("dry_run_adding_to_lidarr", fileVals, def.DryRunAddingToLidarr),
		AutoStart:              resolveBool("auto_start", fileVals, def.AutoStart),
		AutoStartDelay:         resolveInt("auto_start_delay", fileVals, def.AutoStartDelay),
	}

	resolved.LidarrAPITimeout = clamp(resolved.LidarrAPITimeout, MinAPITimeout, MaxAPITimeout)
	resolved.AutoStartDelay = clamp(resolved.AutoStartDelay, MinAutoStartDelay, MaxAutoStartDelay)

	return resolved
}

// readFile parses the settings file into an untyped map so files written by
// earlier revisions (e.g. numeric fields stored as floats) still load.
func (s *Store) readFile() map[string]any {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Error("failed to read settings file", "path", s.path, "err", err)
		}
		return nil
	}

	s.logger.Info("loading settings from file", "path", s.path)

	vals := map[string]any{}
	if err := json.Unmarshal(data, &vals); err != nil {
		s.logger.Error("failed to parse settings file", "path", s.path, "err", err)
		return nil
	}

	return vals
}

// envName maps a settings key to its environment variable name.
func envName(key string) string {
	return strings.ToUpper(key)
}

func resolveString(key string, fileVals map[string]any, def string) string {
	if v, ok := os.LookupEnv(envName(key)); ok && v != "" {
		return v
	}
	if v, ok := fileVals[key].(string); ok && v != "" {
		return v
	}
	return def
}

func resolveInt(key string, fileVals map[string]any, def int) int {
	if v, ok := os.LookupEnv(envName(key)); ok && v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	switch v := fileVals[key].(type) {
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func resolveBool(key string, fileVals map[string]any, def bool) bool {
	if v, ok := os.LookupEnv(envName(key)); ok && v != "" {
		if b, err := strconv.ParseBool(strings.ToLower(v)); err == nil {
			return b
		}
	}
	if v, ok := fileVals[key].(bool); ok {
		return v
	}
	return def
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
