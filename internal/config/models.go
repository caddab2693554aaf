package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// DefaultTimeoutSeconds applies when a profile sets no timeout.
const DefaultTimeoutSeconds = 30

// Registry represents the entire user configuration file.
type Registry struct {
	Version        int                 `yaml:"version"`
	CurrentProfile string              `yaml:"current_profile,omitempty"`
	Profiles       map[string]*Profile `yaml:"profiles,omitempty"` // Keyed by profile name
	Preferences    *Preferences        `yaml:"preferences,omitempty"`

	// path is where Save writes; empty means the OS default location.
	path string
}

// Profile is one router API endpoint. URL is the API root, e.g.
// https://router.lan:8443.
type Profile struct {
	URL            string    `yaml:"url"`
	Description    string    `yaml:"description,omitempty"`
	TimeoutSeconds int       `yaml:"timeout_seconds,omitempty"`
	LastUsed       time.Time `yaml:"last_used,omitempty"`
}

// Timeout returns the profile's request timeout.
func (p *Profile) Timeout() time.Duration {
	if p == nil || p.TimeoutSeconds <= 0 {
		return DefaultTimeoutSeconds * time.Second
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	OutputFormat     string `yaml:"output_format"`       // text or json
	DiscoverTimeout  int    `yaml:"discover_timeout"`    // mDNS discovery timeout in seconds
	VerifyAfterApply bool   `yaml:"verify_after_apply"`  // Re-read and compare after every apply
	AuditLog         string `yaml:"audit_log,omitempty"` // History file; empty uses the config dir
}

func defaultPreferences() *Preferences {
	return &Preferences{
		OutputFormat:     "text",
		DiscoverTimeout:  5,
		VerifyAfterApply: false,
	}
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     1,
		Profiles:    make(map[string]*Profile),
		Preferences: defaultPreferences(),
	}
}

// ValidateProfileURL checks that raw is an absolute http(s) URL.
func ValidateProfileURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid URL %q: missing host", raw)
	}
	return nil
}

// SetProfile adds or replaces a profile. The first profile added becomes current.
func (r *Registry) SetProfile(name string, profile *Profile) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("profile name is required")
	}
	if err := ValidateProfileURL(profile.URL); err != nil {
		return err
	}
	if r.Profiles == nil {
		r.Profiles = make(map[string]*Profile)
	}
	profile.URL = strings.TrimRight(profile.URL, "/")
	r.Profiles[name] = profile
	if r.CurrentProfile == "" {
		r.CurrentProfile = name
	}
	return nil
}

// GetProfile retrieves a profile by name.
// Returns nil if the profile doesn't exist in the registry.
func (r *Registry) GetProfile(name string) *Profile {
	return r.Profiles[name]
}

// RemoveProfile deletes a profile, clearing the current selection if it
// pointed at it.
func (r *Registry) RemoveProfile(name string) error {
	if _, ok := r.Profiles[name]; !ok {
		return fmt.Errorf("profile %q not found", name)
	}
	delete(r.Profiles, name)
	if r.CurrentProfile == name {
		r.CurrentProfile = ""
	}
	return nil
}

// UseProfile makes name the current profile.
func (r *Registry) UseProfile(name string) error {
	if _, ok := r.Profiles[name]; !ok {
		return fmt.Errorf("profile %q not found", name)
	}
	r.CurrentProfile = name
	return nil
}

// Resolve returns the named profile, or the current one when name is empty.
func (r *Registry) Resolve(name string) (string, *Profile, error) {
	if name == "" {
		name = r.CurrentProfile
	}
	if name == "" {
		return "", nil, fmt.Errorf("no profile selected (run 'vyconsole profile add' or pass --url)")
	}
	p, ok := r.Profiles[name]
	if !ok {
		return "", nil, fmt.Errorf("profile %q not found", name)
	}
	return name, p, nil
}

// MarkUsed updates the last-used timestamp of a profile.
func (r *Registry) MarkUsed(name string) {
	if p, ok := r.Profiles[name]; ok {
		p.LastUsed = time.Now()
	}
}

// ProfileNames returns the profile names, sorted.
func (r *Registry) ProfileNames() []string {
	names := make([]string, 0, len(r.Profiles))
	for name := range r.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
