// Package capability holds the per-category feature matrix reported by the
// management API. The matrix gates which optional fields a form may change.
package capability

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Matrix is the feature-support matrix for one entity category.
type Matrix struct {
	Version  string
	Features map[string]bool
}

// UnmarshalJSON accepts the envelope returned by /<category>/capabilities.
// Features may be nested objects; nested keys are flattened with dots so
// {"ip": {"arp": true}} becomes "ip.arp". Non-boolean leaves are ignored.
func (m *Matrix) UnmarshalJSON(data []byte) error {
	var raw struct {
		Version      string         `json:"version"`
		VyOSVersion  string         `json:"vyos_version"`
		Features     map[string]any `json:"features"`
		Capabilities map[string]any `json:"capabilities"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode capabilities: %w", err)
	}

	m.Version = raw.Version
	if m.Version == "" {
		m.Version = raw.VyOSVersion
	}

	m.Features = map[string]bool{}
	flatten("", raw.Features, m.Features)
	flatten("", raw.Capabilities, m.Features)
	return nil
}

// MarshalJSON writes the flattened form.
func (m Matrix) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Version  string          `json:"version,omitempty"`
		Features map[string]bool `json:"features"`
	}{m.Version, m.Features})
}

func flatten(prefix string, in map[string]any, out map[string]bool) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case bool:
			out[key] = val
		case map[string]any:
			// {"supported": true} collapses onto the parent key.
			if s, ok := val["supported"].(bool); ok {
				out[key] = s
			}
			flatten(key, val, out)
		}
	}
}

// Supports reports whether the exact feature key is present and true.
// A nil matrix supports nothing.
func (m *Matrix) Supports(feature string) bool {
	if m == nil {
		return false
	}
	return m.Features[feature]
}

// Enabled returns the supported feature keys, sorted.
func (m *Matrix) Enabled() []string {
	if m == nil {
		return nil
	}
	out := make([]string, 0, len(m.Features))
	for k, v := range m.Features {
		if v && !strings.HasSuffix(k, ".supported") {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Disabled returns the feature keys reported as unsupported, sorted.
func (m *Matrix) Disabled() []string {
	if m == nil {
		return nil
	}
	var out []string
	for k, v := range m.Features {
		if !v && !strings.HasSuffix(k, ".supported") {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
