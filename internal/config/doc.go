// Package config provides user configuration management for vyconsole.
//
// This package manages a YAML-based configuration file that stores router
// API profiles and client preferences. The configuration follows
// OS-specific conventions for storage location.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/vyconsole/config.yaml or $HOME/.config/vyconsole/config.yaml
//   - macOS: $HOME/.config/vyconsole/config.yaml
//   - Windows: %LOCALAPPDATA%\vyconsole\config.yaml
//
// VYCONSOLE_CONFIG, or the --config flag, points at another file.
//
// # Security
//
// This package never stores credentials. Authentication in front of the
// API (reverse proxy, VPN) is outside vyconsole.
//
// # Example
//
//	reg, err := config.LoadRegistry()
//	...
//	_ = reg.SetProfile("edge1", &config.Profile{URL: "https://10.0.0.1:8443"})
//	err = reg.Save()
//
// Profiles with unusable URLs are rejected on load rather than at first
// connection. Save replaces the file atomically.
package config
