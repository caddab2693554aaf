// Package vyosapi provides an HTTP client for a VyOS management API.
//
// The API groups configuration by category. Each category exposes the same
// four endpoints:
//
//	GET  /<category>/capabilities      feature matrix for the running firmware
//	GET  /<category>/config?refresh=b  current entity collection
//	POST /<category>/batch             {<keys>, operations: [{op, value?}]}
//	POST /<category>/reorder           {<list key>, rules: [{old_number, new_number, rule_data}]}
//
// and a global POST /vyos/config/refresh that reloads the server-side
// configuration cache after every mutation.
//
// # Usage Example
//
//	client := vyosapi.NewClient("https://router.lan:8443")
//
//	req := vyosapi.NewBatchRequest(map[string]any{"interface": "eth2"}, plan)
//	if _, err := client.ApplyBatch(ctx, "/vyos/ethernet", req); err != nil {
//	    fmt.Println(vyosapi.GetShortErrorMessage(err))
//	    fmt.Println(vyosapi.GetTroubleshootingHint(err))
//	}
//
// # Error Handling
//
// Every failure is an *APIError. Transport failures are classified
// (timeout, refused, DNS, unreachable) and carry "Network error occurred"
// when nothing more specific is known. Non-2xx responses carry the message
// extracted from a JSON, HTML or plain-text body. A 2xx body with
// "success": false becomes ErrTypeApplication.
//
// # Retries
//
// GET requests retry retryable failures with exponential backoff. POST
// requests are never retried.
package vyosapi
