package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name         string
		entry        *zeroconf.ServiceEntry
		wantNil      bool
		wantInstance string
		wantIP       string
		wantPort     int
		wantURL      string
	}{
		{
			name: "IPv4 with https scheme record",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "edge-router"},
				HostName:      "vyos.local.",
				Port:          8443,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.4.1")},
				Text:          []string{"scheme=https", "version=1.4.0"},
			},
			wantInstance: "edge-router",
			wantIP:       "192.168.4.1",
			wantPort:     8443,
			wantURL:      "https://192.168.4.1:8443",
		},
		{
			name: "IPv4 preferred over IPv6",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "core"},
				HostName:      "core.local.",
				Port:          443,
				AddrIPv4:      []net.IP{net.ParseIP("10.0.0.1")},
				AddrIPv6:      []net.IP{net.ParseIP("fe80::1")},
			},
			wantInstance: "core",
			wantIP:       "10.0.0.1",
			wantPort:     443,
			wantURL:      "https://10.0.0.1:443",
		},
		{
			name: "IPv6 only is bracketed",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "lab"},
				HostName:      "lab.local.",
				Port:          8443,
				AddrIPv6:      []net.IP{net.ParseIP("fd00::1")},
			},
			wantInstance: "lab",
			wantIP:       "fd00::1",
			wantPort:     8443,
			wantURL:      "https://[fd00::1]:8443",
		},
		{
			name: "http guessed from port",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "test"},
				HostName:      "test.local.",
				Port:          8080,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.1.100")},
			},
			wantInstance: "test",
			wantIP:       "192.168.1.100",
			wantPort:     8080,
			wantURL:      "http://192.168.1.100:8080",
		},
		{
			name: "default port and instance from hostname",
			entry: &zeroconf.ServiceEntry{
				HostName: "branch.local.",
				AddrIPv4: []net.IP{net.ParseIP("172.16.0.1")},
			},
			wantInstance: "branch.local",
			wantIP:       "172.16.0.1",
			wantPort:     DefaultPort,
			wantURL:      "https://172.16.0.1:443",
		},
		{
			name: "no address",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "ghost"},
				HostName:      "ghost.local.",
				Port:          443,
			},
			wantNil: true,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep := parseServiceEntry(tt.entry)

			if tt.wantNil {
				if ep != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", ep)
				}
				return
			}
			if ep == nil {
				t.Fatal("parseServiceEntry() = nil, want endpoint")
			}

			if ep.Instance != tt.wantInstance {
				t.Errorf("ep.Instance = %q, want %q", ep.Instance, tt.wantInstance)
			}
			if ep.IP != tt.wantIP {
				t.Errorf("ep.IP = %q, want %q", ep.IP, tt.wantIP)
			}
			if ep.Port != tt.wantPort {
				t.Errorf("ep.Port = %d, want %d", ep.Port, tt.wantPort)
			}
			if got := ep.BaseURL(); got != tt.wantURL {
				t.Errorf("ep.BaseURL() = %q, want %q", got, tt.wantURL)
			}
			if time.Since(ep.DiscoveredAt) > time.Second {
				t.Errorf("ep.DiscoveredAt is not recent: %v", ep.DiscoveredAt)
			}
		})
	}
}

func TestParseServiceEntry_Metadata(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{Instance: "edge"},
		HostName:      "edge.local.",
		Port:          443,
		AddrIPv4:      []net.IP{net.ParseIP("192.168.4.1")},
		Text:          []string{"version=1.5-rolling", "flag", "path=/api=v2"},
	}

	ep := parseServiceEntry(entry)
	if ep == nil {
		t.Fatal("parseServiceEntry() = nil, want endpoint")
	}

	expected := map[string]string{
		"version": "1.5-rolling",
		"flag":    "",
		"path":    "/api=v2",
	}
	if len(ep.Metadata) != len(expected) {
		t.Errorf("ep.Metadata has %d entries, want %d", len(ep.Metadata), len(expected))
	}
	for key, want := range expected {
		if got, ok := ep.Metadata[key]; !ok {
			t.Errorf("ep.Metadata missing key %q", key)
		} else if got != want {
			t.Errorf("ep.Metadata[%q] = %q, want %q", key, got, want)
		}
	}

	if ep.Version() != "1.5-rolling" {
		t.Errorf("ep.Version() = %q, want %q", ep.Version(), "1.5-rolling")
	}
	if want := "edge (edge.local., VyOS 1.5-rolling) at https://192.168.4.1:443"; ep.String() != want {
		t.Errorf("ep.String() = %q, want %q", ep.String(), want)
	}
}

func TestSchemeOf(t *testing.T) {
	tests := []struct {
		metadata map[string]string
		port     int
		want     string
	}{
		{map[string]string{"scheme": "HTTP"}, 443, "http"},
		{map[string]string{"scheme": "https"}, 80, "https"},
		{map[string]string{"scheme": "gopher"}, 80, "http"},
		{nil, 8080, "http"},
		{nil, 8443, "https"},
		{nil, 443, "https"},
	}

	for _, tt := range tests {
		if got := schemeOf(tt.metadata, tt.port); got != tt.want {
			t.Errorf("schemeOf(%v, %d) = %q, want %q", tt.metadata, tt.port, got, tt.want)
		}
	}
}

func TestEndpoint_GetMetadata(t *testing.T) {
	var ep Endpoint
	if got := ep.GetMetadata("version"); got != "" {
		t.Errorf("GetMetadata on nil map = %q, want empty", got)
	}
	if got := ep.String(); got != " () at https://:0" {
		t.Errorf("String() on zero endpoint = %q", got)
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()

	if scanner == nil {
		t.Fatal("NewScanner() = nil, want scanner")
	}
	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("scanner.Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}
