package vyosapi

import (
	"encoding/json"
	"fmt"

	"github.com/vyconsole/vyconsole/internal/opbuilder"
)

// BatchRequest is the envelope posted to /<category>/batch: the entity's
// identifying keys flattened next to the operations list.
type BatchRequest struct {
	Keys       map[string]any
	Operations []opbuilder.Operation
}

// NewBatchRequest creates a request for the given keys and plan.
func NewBatchRequest(keys map[string]any, plan opbuilder.Plan) *BatchRequest {
	return &BatchRequest{Keys: keys, Operations: plan.Ops()}
}

// MarshalJSON writes {<keys...>, "operations": [...]}.
func (r *BatchRequest) MarshalJSON() ([]byte, error) {
	body := make(map[string]any, len(r.Keys)+1)
	for k, v := range r.Keys {
		if k == "operations" {
			return nil, fmt.Errorf("key %q collides with the operations list", k)
		}
		body[k] = v
	}
	ops := r.Operations
	if ops == nil {
		ops = []opbuilder.Operation{}
	}
	body["operations"] = ops
	return json.Marshal(body)
}

// RuleMove is one renumbering entry of a reorder request.
type RuleMove = opbuilder.Move[json.RawMessage]

// ReorderRequest is the envelope posted to /<category>/reorder.
type ReorderRequest struct {
	// ListKey names the list field, e.g. "name" or "route_map".
	ListKey string
	List    string
	Rules   []RuleMove
}

// MarshalJSON writes {<ListKey>: List, "rules": [...]}.
func (r *ReorderRequest) MarshalJSON() ([]byte, error) {
	if r.ListKey == "" || r.ListKey == "rules" {
		return nil, fmt.Errorf("invalid list key %q", r.ListKey)
	}
	rules := r.Rules
	if rules == nil {
		rules = []RuleMove{}
	}
	return json.Marshal(map[string]any{
		r.ListKey: r.List,
		"rules":   rules,
	})
}

// BatchResponse is the common response body of mutating endpoints.
type BatchResponse struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}
