package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	appName     = "vyconsole"
	configFile  = "config.yaml"
	historyFile = "history.jsonl"

	// EnvConfig overrides the registry location.
	EnvConfig = "VYCONSOLE_CONFIG"

	currentVersion = 1
)

// saveMu serializes writers within one process.
var saveMu sync.Mutex

// GetConfigDir returns the directory holding the registry and history:
// $XDG_CONFIG_HOME/vyconsole or ~/.config/vyconsole on Unix-likes
// (including macOS), %LOCALAPPDATA%\vyconsole on Windows.
func GetConfigDir() (string, error) {
	if runtime.GOOS == "windows" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine config directory: %w", err)
		}
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			base = local
		}
		return filepath.Join(base, appName), nil
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" && runtime.GOOS != "darwin" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// GetConfigPath returns the registry file path, honoring EnvConfig.
func GetConfigPath() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		return p, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// GetHistoryPath returns the default location of the change history log.
func GetHistoryPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, historyFile), nil
}

// LoadRegistry loads the registry from the default location. A missing
// file yields an empty registry.
func LoadRegistry() (*Registry, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadRegistryFrom(path)
}

// LoadRegistryFrom loads a registry from an explicit path. Save on the
// returned registry writes back to the same path.
func LoadRegistryFrom(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		reg := NewRegistry()
		reg.path = path
		return reg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if reg.Version != currentVersion {
		return nil, fmt.Errorf("%s: unsupported config version %d (expected %d)", path, reg.Version, currentVersion)
	}
	if err := reg.normalize(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	reg.path = path
	return &reg, nil
}

// normalize fills defaults and rejects profiles that could never connect.
func (r *Registry) normalize() error {
	if r.Profiles == nil {
		r.Profiles = make(map[string]*Profile)
	}
	for name, p := range r.Profiles {
		if p == nil {
			return fmt.Errorf("profile %q is empty", name)
		}
		if err := ValidateProfileURL(p.URL); err != nil {
			return fmt.Errorf("profile %q: %w", name, err)
		}
	}
	if r.CurrentProfile != "" && r.Profiles[r.CurrentProfile] == nil {
		r.CurrentProfile = ""
	}

	defaults := defaultPreferences()
	if r.Preferences == nil {
		r.Preferences = defaults
		return nil
	}
	if r.Preferences.OutputFormat == "" {
		r.Preferences.OutputFormat = defaults.OutputFormat
	}
	if r.Preferences.DiscoverTimeout <= 0 {
		r.Preferences.DiscoverTimeout = defaults.DiscoverTimeout
	}
	return nil
}

// Path returns the file Save writes to.
func (r *Registry) Path() (string, error) {
	if r.path != "" {
		return r.path, nil
	}
	return GetConfigPath()
}

const fileHeader = `# vyconsole configuration file
# Router API profiles and client preferences.
#
# Security Note: no API keys or passwords are stored in this file.

`

// Save writes the registry atomically: a temp file in the same directory
// is renamed over the old one.
func (r *Registry) Save() error {
	saveMu.Lock()
	defer saveMu.Unlock()

	path, err := r.Path()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+configFile+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary config file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(append([]byte(fileHeader), data...)); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set config permissions: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to flush config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}
