package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Endpoint is a management API advertised on the local network
type Endpoint struct {
	// Instance is the mDNS service instance name (e.g., "edge-router")
	Instance string

	// Hostname is the mDNS hostname (e.g., "vyos.local.")
	Hostname string

	// IP is the advertised address, IPv4 preferred
	IP string

	// Port is the API port
	Port int

	// Scheme is "https" or "http"
	Scheme string

	// Metadata contains the TXT record data, e.g. "version=1.4.0", "scheme=https"
	Metadata map[string]string

	// DiscoveredAt is when the endpoint was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the endpoint
func (e *Endpoint) String() string {
	if v := e.Version(); v != "" {
		return fmt.Sprintf("%s (%s, VyOS %s) at %s", e.Instance, e.Hostname, v, e.BaseURL())
	}
	return fmt.Sprintf("%s (%s) at %s", e.Instance, e.Hostname, e.BaseURL())
}

// BaseURL returns the API base URL for the endpoint
func (e *Endpoint) BaseURL() string {
	scheme := e.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://" + net.JoinHostPort(e.IP, strconv.Itoa(e.Port))
}

// Version returns the advertised VyOS version, if any
func (e *Endpoint) Version() string {
	return e.GetMetadata("version")
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (e *Endpoint) GetMetadata(key string) string {
	if e.Metadata == nil {
		return ""
	}
	return e.Metadata[key]
}
