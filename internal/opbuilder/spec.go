package opbuilder

// Kind is the shape of a form field.
type Kind int

const (
	// Scalar is a single string value.
	Scalar Kind = iota
	// Boolean is a valueless flag; setting it emits the op without a payload.
	Boolean
	// List is a multi-valued field diffed as a set.
	List
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case Boolean:
		return "boolean"
	case List:
		return "list"
	default:
		return "unknown"
	}
}

// FieldSpec describes how one form field maps to batch operations.
type FieldSpec struct {
	// Name is the field's json name in the form.
	Name string
	Kind Kind

	SetOp string

	// DeleteOp is emitted when an edit clears the field. Empty means the
	// device has no delete for this field and clearing it is a no-op.
	DeleteOp string

	// Capability names the feature flag required for this field. Empty
	// means the field is always allowed.
	Capability string

	// ReplaceDeletes makes a changed scalar emit DeleteOp before SetOp.
	ReplaceDeletes bool
}

// Branch is one alternative of a Choice.
type Branch struct {
	// Field is the form field that selects this branch when truthy.
	Field string
	Op    string
	// Value is a fixed payload. When empty, a scalar field's own value is
	// sent and a boolean field sends nothing.
	Value string
}

// Choice is a group of mutually exclusive fields. The first truthy branch
// in table order wins and is the only one emitted.
type Choice struct {
	Name     string
	Branches []Branch

	// DeleteOp clears the whole group when an edit leaves no branch selected.
	DeleteOp   string
	Capability string
}

// Spec is the declarative field table for one entity category.
type Spec struct {
	Fields  []FieldSpec
	Choices []Choice

	// DeletesFirst stably moves delete operations ahead of sets, for
	// categories where a stale value conflicts with its replacement.
	DeletesFirst bool
}

// Gate decides whether a capability-gated field may be emitted.
type Gate interface {
	Supports(feature string) bool
}

// GateFunc adapts a function to the Gate interface.
type GateFunc func(feature string) bool

// Supports calls f.
func (f GateFunc) Supports(feature string) bool {
	return f(feature)
}

// AllowAll is a Gate that supports every feature.
var AllowAll Gate = GateFunc(func(string) bool { return true })

// Field returns the field spec with the given name.
func (s *Spec) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Capabilities lists every capability referenced by the table, in order.
func (s *Spec) Capabilities() []string {
	var out []string
	seen := map[string]bool{}
	add := func(c string) {
		if c != "" && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for _, f := range s.Fields {
		add(f.Capability)
	}
	for _, c := range s.Choices {
		add(c.Capability)
	}
	return out
}

func allowed(gate Gate, capability string) bool {
	if capability == "" {
		return true
	}
	if gate == nil {
		return false
	}
	return gate.Supports(capability)
}
