package vyos

import (
	"net/netip"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/vyconsole/vyconsole/internal/opbuilder"
	"github.com/vyconsole/vyconsole/internal/urls"
)

// PrefixListRule mirrors one rule of an IPv4 prefix-list.
type PrefixListRule struct {
	Name        string `json:"name"`
	Rule        int    `json:"rule"`
	Action      string `json:"action,omitempty"`
	Description string `json:"description,omitempty"`
	Prefix      string `json:"prefix,omitempty"`
	GE          string `json:"ge,omitempty"`
	LE          string `json:"le,omitempty"`
}

// PrefixListForm is the editable state of a prefix-list rule.
type PrefixListForm struct {
	Action      string `json:"action" validate:"required,oneof=permit deny"`
	Description string `json:"description" validate:"max=255"`
	Prefix      string `json:"prefix" validate:"required,cidr"`
	GE          string `json:"ge" validate:"omitempty,intrange=0:128"`
	LE          string `json:"le" validate:"omitempty,intrange=0:128"`
}

// InitializePrefixListForm seeds the form from a rule. New rules default
// to permit.
func InitializePrefixListForm(r *PrefixListRule) PrefixListForm {
	if r == nil {
		return PrefixListForm{Action: "permit"}
	}
	return PrefixListForm{
		Action:      r.Action,
		Description: r.Description,
		Prefix:      r.Prefix,
		GE:          r.GE,
		LE:          r.LE,
	}
}

// validatePrefixBounds enforces len(prefix) <= ge <= le <= address bits.
func validatePrefixBounds(sl validator.StructLevel) {
	f := sl.Current().Interface().(PrefixListForm)
	p, err := netip.ParsePrefix(f.Prefix)
	if err != nil {
		return
	}
	bits := p.Addr().BitLen()

	ge, geErr := strconv.Atoi(f.GE)
	le, leErr := strconv.Atoi(f.LE)
	if geErr == nil && (ge < p.Bits() || ge > bits) {
		sl.ReportError(f.GE, "ge", "GE", "prefix_bounds", "")
	}
	if leErr == nil && (le < p.Bits() || le > bits) {
		sl.ReportError(f.LE, "le", "LE", "prefix_bounds", "")
	}
	if geErr == nil && leErr == nil && ge > le {
		sl.ReportError(f.LE, "le", "LE", "le_below_ge", "")
	}
}

// PrefixListSpec maps PrefixListForm to batch operations. A changed prefix
// is deleted before the new one is set, and deletes always go first so the
// device never holds a rule with inconsistent ge/le bounds.
var PrefixListSpec = &opbuilder.Spec{
	Fields: []opbuilder.FieldSpec{
		{Name: "action", Kind: opbuilder.Scalar, SetOp: "set_action"},
		{Name: "description", Kind: opbuilder.Scalar, SetOp: "set_description", DeleteOp: "delete_description"},
		{Name: "prefix", Kind: opbuilder.Scalar, SetOp: "set_prefix", DeleteOp: "delete_prefix", ReplaceDeletes: true},
		{Name: "ge", Kind: opbuilder.Scalar, SetOp: "set_ge", DeleteOp: "delete_ge"},
		{Name: "le", Kind: opbuilder.Scalar, SetOp: "set_le", DeleteOp: "delete_le"},
	},
	DeletesFirst: true,
}

// PrefixLists is the IPv4 prefix-list rule category.
var PrefixLists = &Kind[PrefixListRule, PrefixListForm]{
	Name:       "prefix-list",
	Title:      "Prefix-list rules",
	Path:       "/vyos/prefix-list",
	Collection: "rules",
	Keys: []KeyField{
		{Name: "name", Help: "prefix-list name"},
		{Name: "rule", Numeric: true, Help: "rule number"},
	},
	Spec:     PrefixListSpec,
	DeleteOp: "delete_rule",
	ListKey:  "name",
	RuleKey:  "rule",
	DocURL:   urls.VyOSPolicy,
	KeyOf: func(r *PrefixListRule) Key {
		return Key{"name": r.Name, "rule": strconv.Itoa(r.Rule)}
	},
	Initialize: InitializePrefixListForm,
}
