package vyosapi

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"

	"github.com/vyconsole/vyconsole/internal/urls"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error (connection reset, unreachable, etc.)
	ErrTypeNetwork ErrorType = iota
	// ErrTypeAuth indicates the API rejected the request as unauthenticated
	ErrTypeAuth
	// ErrTypeHTTP indicates a non-2xx response
	ErrTypeHTTP
	// ErrTypeParse indicates a malformed response body
	ErrTypeParse
	// ErrTypeApplication indicates a 2xx response carrying success=false
	ErrTypeApplication
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates the API refused the connection
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeUnknown indicates an unknown or unexpected error
	ErrTypeUnknown
)

// NetworkErrorSubtype provides more specific network error classification
type NetworkErrorSubtype int

const (
	NetworkErrorGeneral NetworkErrorSubtype = iota
	NetworkErrorTimeout
	NetworkErrorConnectionRefused
	NetworkErrorDNS
	NetworkErrorHostUnreachable
	NetworkErrorNetworkUnreachable
)

// DefaultErrorMessage is used when a failed response carries no readable reason
const DefaultErrorMessage = "Request failed"

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeAuth:
		return "Authentication Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeApplication:
		return "Operation Failed"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeUnknown:
		return "Unknown Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// APIError is the normalized shape of every failure reported by the client.
// Message, Status and Details are the {message, status, details} envelope
// extracted from the response body.
type APIError struct {
	Type           ErrorType           // Category of error
	Message        string              // Human-readable error message
	Status         int                 // HTTP status code (if applicable)
	Details        any                 // Structured body detail, when the API sent one
	Err            error               // Underlying error (if any)
	NetworkSubtype NetworkErrorSubtype // More specific network error type
	Endpoint       string              // Request path (for context)
	Retryable      bool                // Whether the error is retryable
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *APIError) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError analyzes a transport error and returns a more specific error type
func ClassifyNetworkError(err error, endpoint string) *APIError {
	if err == nil {
		return nil
	}

	if os.IsTimeout(err) {
		return &APIError{
			Type:           ErrTypeTimeout,
			Message:        "Request timed out",
			Err:            err,
			NetworkSubtype: NetworkErrorTimeout,
			Endpoint:       endpoint,
			Retryable:      true,
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &APIError{
			Type:           ErrTypeDNS,
			Message:        fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:            err,
			NetworkSubtype: NetworkErrorDNS,
			Endpoint:       endpoint,
			Retryable:      false,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return &APIError{
				Type:           ErrTypeConnectionRefused,
				Message:        "Router API refused connection",
				Err:            err,
				NetworkSubtype: NetworkErrorConnectionRefused,
				Endpoint:       endpoint,
				Retryable:      true,
			}
		}
		if errors.Is(opErr.Err, syscall.EHOSTUNREACH) {
			return &APIError{
				Type:           ErrTypeNetwork,
				Message:        "Host unreachable",
				Err:            err,
				NetworkSubtype: NetworkErrorHostUnreachable,
				Endpoint:       endpoint,
				Retryable:      true,
			}
		}
		if errors.Is(opErr.Err, syscall.ENETUNREACH) {
			return &APIError{
				Type:           ErrTypeNetwork,
				Message:        "Network unreachable",
				Err:            err,
				NetworkSubtype: NetworkErrorNetworkUnreachable,
				Endpoint:       endpoint,
				Retryable:      true,
			}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ClassifyNetworkError(urlErr.Err, endpoint)
	}

	return &APIError{
		Type:           ErrTypeNetwork,
		Message:        "Network error occurred",
		Err:            err,
		NetworkSubtype: NetworkErrorGeneral,
		Endpoint:       endpoint,
		Retryable:      true,
	}
}

// NewNetworkError classifies a transport failure. The classified message is
// kept; endpoint is recorded for hints.
func NewNetworkError(endpoint string, err error) *APIError {
	if classified := ClassifyNetworkError(err, endpoint); classified != nil {
		return classified
	}
	return &APIError{
		Type:      ErrTypeNetwork,
		Message:   "Network error occurred",
		Endpoint:  endpoint,
		Retryable: true,
	}
}

// NewAuthError creates an authentication error
func NewAuthError(status int, message string) *APIError {
	return &APIError{
		Type:      ErrTypeAuth,
		Message:   message,
		Status:    status,
		Retryable: false,
	}
}

// NewHTTPError creates an HTTP-level error
func NewHTTPError(status int, message string, details any) *APIError {
	return &APIError{
		Type:      ErrTypeHTTP,
		Message:   message,
		Status:    status,
		Details:   details,
		Retryable: status >= 500,
	}
}

// NewParseError creates a parsing error
func NewParseError(message string, err error) *APIError {
	return &APIError{
		Type:      ErrTypeParse,
		Message:   message,
		Err:       err,
		Retryable: false,
	}
}

// NewApplicationError creates an error for a success=false response
func NewApplicationError(status int, message string, details any) *APIError {
	if message == "" {
		message = DefaultErrorMessage
	}
	return &APIError{
		Type:      ErrTypeApplication,
		Message:   message,
		Status:    status,
		Details:   details,
		Retryable: false,
	}
}

func asAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsNetworkError checks if an error is a network error (including timeout, connection refused, DNS, etc.)
func IsNetworkError(err error) bool {
	if apiErr, ok := asAPIError(err); ok {
		return apiErr.Type == ErrTypeNetwork ||
			apiErr.Type == ErrTypeTimeout ||
			apiErr.Type == ErrTypeConnectionRefused ||
			apiErr.Type == ErrTypeDNS
	}
	return false
}

// IsAuthError checks if an error is an authentication error
func IsAuthError(err error) bool {
	if apiErr, ok := asAPIError(err); ok {
		return apiErr.Type == ErrTypeAuth
	}
	return false
}

// IsHTTPError checks if an error is an HTTP error
func IsHTTPError(err error) bool {
	if apiErr, ok := asAPIError(err); ok {
		return apiErr.Type == ErrTypeHTTP
	}
	return false
}

// IsParseError checks if an error is a parse error
func IsParseError(err error) bool {
	if apiErr, ok := asAPIError(err); ok {
		return apiErr.Type == ErrTypeParse
	}
	return false
}

// IsApplicationError checks if an error came from a success=false response
func IsApplicationError(err error) bool {
	if apiErr, ok := asAPIError(err); ok {
		return apiErr.Type == ErrTypeApplication
	}
	return false
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	if apiErr, ok := asAPIError(err); ok {
		return apiErr.Retryable
	}
	return false
}

// GetTroubleshootingHint returns user-friendly troubleshooting advice for an error
func GetTroubleshootingHint(err error) string {
	apiErr, ok := asAPIError(err)
	if !ok {
		return "An unexpected error occurred. Please try again."
	}

	switch apiErr.Type {
	case ErrTypeTimeout:
		return strings.Join([]string{
			"The router API did not respond in time.",
			"Troubleshooting:",
			"  • Check that the API service is running on the router",
			"  • Large commits can be slow; try --timeout 60s",
		}, "\n")

	case ErrTypeConnectionRefused:
		return strings.Join([]string{
			"The router refused the connection.",
			"Troubleshooting:",
			"  • Verify the profile URL and port",
			"  • Check that the API service is listening",
			"  • See " + urls.VyOSHTTPAPI,
		}, "\n")

	case ErrTypeDNS:
		return strings.Join([]string{
			"Could not resolve the router hostname.",
			"Troubleshooting:",
			"  • Use the IP address instead of hostname",
			"  • Run 'vyconsole scan' to discover APIs on the local network",
		}, "\n")

	case ErrTypeAuth:
		return "The API rejected the request. Check the reverse proxy or API key configuration."

	case ErrTypeNetwork:
		hint := []string{"Network communication failed."}

		switch apiErr.NetworkSubtype {
		case NetworkErrorHostUnreachable:
			hint = append(hint, "The router is not reachable on the network.",
				"Troubleshooting:",
				"  • Verify the profile URL is correct",
				"  • Check routing between this machine and the router")

		case NetworkErrorNetworkUnreachable:
			hint = append(hint, "This machine cannot reach the router's network.",
				"Troubleshooting:",
				"  • Check your network adapter and VPN settings")

		default:
			hint = append(hint, "Troubleshooting:",
				"  • Check your network connection",
				"  • Verify the router is up")
		}

		return strings.Join(hint, "\n")

	case ErrTypeHTTP:
		if apiErr.Status >= 500 {
			return strings.Join([]string{
				fmt.Sprintf("The API returned an error (HTTP %d).", apiErr.Status),
				"The configuration session on the router may be locked or the commit failed.",
				"Troubleshooting:",
				"  • Run 'vyconsole refresh' and retry",
				"  • Check the API service logs on the router",
			}, "\n")
		}
		return fmt.Sprintf("The API returned HTTP error %d. Check the submitted values.", apiErr.Status)

	case ErrTypeParse:
		return "Failed to parse the API response. The API version may not match this client."

	case ErrTypeApplication:
		return "The router rejected the batch. Nothing was committed; fix the values and resubmit."

	default:
		return "An error occurred. Please check the error message for details."
	}
}

// GetShortErrorMessage returns a concise, user-friendly error message
func GetShortErrorMessage(err error) string {
	apiErr, ok := asAPIError(err)
	if !ok {
		return err.Error()
	}

	switch apiErr.Type {
	case ErrTypeTimeout:
		return "Router API not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Router API refused connection"
	case ErrTypeDNS:
		return "Cannot resolve router hostname"
	case ErrTypeAuth:
		return "Authentication failed"
	case ErrTypeNetwork:
		switch apiErr.NetworkSubtype {
		case NetworkErrorHostUnreachable:
			return "Router unreachable - check network connection"
		case NetworkErrorNetworkUnreachable:
			return "Network unreachable"
		default:
			return "Network error occurred"
		}
	case ErrTypeHTTP:
		return fmt.Sprintf("%s (HTTP %d)", apiErr.Message, apiErr.Status)
	default:
		return apiErr.Message
	}
}

func isAuthStatus(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}
