package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if !strings.Contains(configDir, "vyconsole") {
		t.Errorf("GetConfigDir() = %v, should contain 'vyconsole'", configDir)
	}

	if runtime.GOOS == "linux" && os.Getenv("XDG_CONFIG_HOME") == "" && !strings.Contains(configDir, ".config") {
		t.Errorf("Unix config dir should contain '.config', got: %v", configDir)
	}
}

func TestGetConfigDir_XDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux")
	}
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatal(err)
	}
	if configDir != "/tmp/xdg/vyconsole" {
		t.Errorf("GetConfigDir() = %v", configDir)
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}
	if reg.Profiles == nil {
		t.Error("NewRegistry().Profiles should not be nil")
	}
	if reg.Preferences == nil || reg.Preferences.OutputFormat != "text" {
		t.Errorf("NewRegistry().Preferences = %+v", reg.Preferences)
	}
}

func TestRegistryProfiles(t *testing.T) {
	reg := NewRegistry()

	if err := reg.SetProfile("edge1", &Profile{URL: "https://10.0.0.1:8443/"}); err != nil {
		t.Fatalf("SetProfile() error = %v", err)
	}
	if err := reg.SetProfile("edge2", &Profile{URL: "http://10.0.0.2", TimeoutSeconds: 5}); err != nil {
		t.Fatalf("SetProfile() error = %v", err)
	}

	if reg.CurrentProfile != "edge1" {
		t.Errorf("first profile should become current, got %q", reg.CurrentProfile)
	}
	if got := reg.GetProfile("edge1").URL; got != "https://10.0.0.1:8443" {
		t.Errorf("URL = %q, want trailing slash trimmed", got)
	}

	name, p, err := reg.Resolve("")
	if err != nil || name != "edge1" || p.Timeout() != 30*time.Second {
		t.Errorf("Resolve(\"\") = %q, %+v, %v", name, p, err)
	}
	if _, p, _ := reg.Resolve("edge2"); p.Timeout() != 5*time.Second {
		t.Errorf("edge2 timeout = %v", p.Timeout())
	}

	if err := reg.UseProfile("missing"); err == nil {
		t.Error("UseProfile() should fail for unknown profile")
	}
	if err := reg.RemoveProfile("edge1"); err != nil {
		t.Fatal(err)
	}
	if reg.CurrentProfile != "" {
		t.Errorf("removing the current profile should clear it, got %q", reg.CurrentProfile)
	}
	if _, _, err := reg.Resolve(""); err == nil {
		t.Error("Resolve(\"\") should fail with no current profile")
	}
	if got := reg.ProfileNames(); len(got) != 1 || got[0] != "edge2" {
		t.Errorf("ProfileNames() = %v", got)
	}
}

func TestSetProfile_InvalidURL(t *testing.T) {
	reg := NewRegistry()
	for _, raw := range []string{"router.lan", "ftp://router", "http://"} {
		if err := reg.SetProfile("x", &Profile{URL: raw}); err == nil {
			t.Errorf("SetProfile(%q) should fail", raw)
		}
	}
	if err := reg.SetProfile(" ", &Profile{URL: "http://a"}); err == nil {
		t.Error("empty name should fail")
	}
}

func TestRegistrySaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	reg, err := LoadRegistryFrom(path)
	if err != nil {
		t.Fatalf("LoadRegistryFrom() on missing file error = %v", err)
	}
	if err := reg.SetProfile("lab", &Profile{URL: "https://lab:8443", Description: "lab router"}); err != nil {
		t.Fatal(err)
	}
	reg.Preferences.VerifyAfterApply = true
	if err := reg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("config perms = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadRegistryFrom(path)
	if err != nil {
		t.Fatalf("LoadRegistryFrom() error = %v", err)
	}
	if loaded.GetProfile("lab").Description != "lab router" {
		t.Errorf("profile not persisted: %+v", loaded.Profiles)
	}
	if !loaded.Preferences.VerifyAfterApply {
		t.Error("preferences not persisted")
	}
	if loaded.CurrentProfile != "lab" {
		t.Errorf("CurrentProfile = %q", loaded.CurrentProfile)
	}
}

func TestLoadRegistryFrom_BadVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("version: 2\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRegistryFrom(path); err == nil {
		t.Error("expected error for unsupported version")
	}
}

func TestGetConfigPath_Env(t *testing.T) {
	t.Setenv(EnvConfig, "/tmp/elsewhere.yaml")
	path, err := GetConfigPath()
	if err != nil {
		t.Fatal(err)
	}
	if path != "/tmp/elsewhere.yaml" {
		t.Errorf("GetConfigPath() = %q", path)
	}
}

func TestLoadRegistryFrom_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
		check   func(t *testing.T, r *Registry)
	}{
		{
			name:    "preference defaults",
			content: "version: 1\npreferences:\n  verify_after_apply: true\n",
			check: func(t *testing.T, r *Registry) {
				if r.Preferences.OutputFormat != "text" || r.Preferences.DiscoverTimeout != 5 {
					t.Errorf("defaults not applied: %+v", r.Preferences)
				}
				if !r.Preferences.VerifyAfterApply {
					t.Error("explicit preference lost")
				}
			},
		},
		{
			name:    "dangling current profile",
			content: "version: 1\ncurrent_profile: gone\n",
			check: func(t *testing.T, r *Registry) {
				if r.CurrentProfile != "" {
					t.Errorf("CurrentProfile = %q", r.CurrentProfile)
				}
			},
		},
		{
			name:    "bad profile url",
			content: "version: 1\nprofiles:\n  edge:\n    url: ftp://edge\n",
			wantErr: true,
		},
		{
			name:    "not yaml",
			content: "version: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			reg, err := LoadRegistryFrom(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadRegistryFrom() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, reg)
			}
		})
	}
}

func TestSave_NoTempLeftBehind(t *testing.T) {
	dir := t.TempDir()
	reg, err := LoadRegistryFrom(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if err := reg.Save(); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "config.yaml" {
		t.Errorf("unexpected files: %v", entries)
	}
	data, _ := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if !strings.HasPrefix(string(data), "# vyconsole configuration file") {
		t.Errorf("missing header: %q", data)
	}
}
