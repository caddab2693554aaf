package opbuilder

import (
	"fmt"
	"strings"
)

// Operation is one named configuration primitive sent in a batch.
type Operation struct {
	Op    string `json:"op"`
	Value string `json:"value,omitempty"`
}

// Set returns an operation without a payload.
func Set(op string) Operation {
	return Operation{Op: op}
}

// SetValue returns an operation carrying value.
func SetValue(op, value string) Operation {
	return Operation{Op: op, Value: value}
}

// IsDelete reports whether the operation removes configuration.
func (o Operation) IsDelete() bool {
	return strings.HasPrefix(o.Op, "delete_")
}

// String renders the operation as "op" or "op=value".
func (o Operation) String() string {
	if o.Value == "" {
		return o.Op
	}
	return fmt.Sprintf("%s=%s", o.Op, o.Value)
}

// Plan is an ordered list of operations for one entity.
type Plan []Operation

// IsEmpty returns true if there is nothing to send.
func (p Plan) IsEmpty() bool {
	return len(p) == 0
}

// Sets counts the non-delete operations.
func (p Plan) Sets() int {
	n := 0
	for _, op := range p {
		if !op.IsDelete() {
			n++
		}
	}
	return n
}

// Deletes counts the delete operations.
func (p Plan) Deletes() int {
	return len(p) - p.Sets()
}

// Ops returns the plan as a plain slice, never nil.
func (p Plan) Ops() []Operation {
	if p == nil {
		return []Operation{}
	}
	return []Operation(p)
}

// String returns a human-readable representation of the plan.
func (p Plan) String() string {
	if p.IsEmpty() {
		return "No changes"
	}

	var sb strings.Builder
	for _, op := range p {
		marker := "[SET]"
		if op.IsDelete() {
			marker = "[DEL]"
		}
		sb.WriteString(fmt.Sprintf("  %s %s", marker, op.Op))
		if op.Value != "" {
			sb.WriteString(fmt.Sprintf(" → %s", op.Value))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Preview returns the plan with a header naming the target entity.
func (p Plan) Preview(category, target string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Category: %s\n", category))
	sb.WriteString(fmt.Sprintf("Target: %s\n", target))
	sb.WriteString(fmt.Sprintf("Operations (%d set, %d delete):\n%s", p.Sets(), p.Deletes(), p.String()))
	return sb.String()
}
