// Package vyos is the catalogue of configuration categories exposed by the
// VyOS management API.
//
// Each category pairs a device entity type with a flat form and an
// opbuilder.Spec describing how form fields turn into batch operations.
// The Kind value ties these together with the API path, key fields and
// delete op, so callers can open, diff and submit any category generically.
//
// Forms carry validator tags. ValidateForm runs them, along with the
// custom address, port and range checks registered by this package, and
// reports problems by JSON field path.
package vyos
