// Package urls provides centralized constants for all documentation URLs used
// throughout the application.
//
// Usage:
//
//	import "github.com/vyconsole/vyconsole/internal/urls"
//
//	fmt.Printf("For more information, see: %s\n", urls.VyOSHTTPAPI)
package urls
