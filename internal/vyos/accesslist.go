package vyos

import (
	"strconv"

	"github.com/vyconsole/vyconsole/internal/opbuilder"
	"github.com/vyconsole/vyconsole/internal/urls"
)

// ACLMatch is the source or destination side of an access-list rule. At
// most one of Any, Host and Network is set.
type ACLMatch struct {
	Any         bool   `json:"any,omitempty"`
	Host        string `json:"host,omitempty"`
	Network     string `json:"network,omitempty"`
	InverseMask string `json:"inverse_mask,omitempty"`
}

// AccessListRule mirrors one rule of a numbered IPv4 access-list.
type AccessListRule struct {
	AccessList  string    `json:"access_list"`
	Rule        int       `json:"rule"`
	Action      string    `json:"action,omitempty"`
	Description string    `json:"description,omitempty"`
	Source      *ACLMatch `json:"source,omitempty"`
	Destination *ACLMatch `json:"destination,omitempty"`
}

// AccessListForm is the editable state of an access-list rule.
type AccessListForm struct {
	Action                 string `json:"action" validate:"required,oneof=permit deny"`
	Description            string `json:"description" validate:"max=255"`
	SourceAny              bool   `json:"source_any"`
	SourceHost             string `json:"source_host" validate:"omitempty,ipv4"`
	SourceNetwork          string `json:"source_network" validate:"omitempty,ipv4"`
	SourceInverseMask      string `json:"source_inverse_mask" validate:"required_with=SourceNetwork,omitempty,ipv4"`
	DestinationAny         bool   `json:"destination_any"`
	DestinationHost        string `json:"destination_host" validate:"omitempty,ipv4"`
	DestinationNetwork     string `json:"destination_network" validate:"omitempty,ipv4"`
	DestinationInverseMask string `json:"destination_inverse_mask" validate:"required_with=DestinationNetwork,omitempty,ipv4"`
}

func aclSide(m *ACLMatch) (anyHost bool, host, network, mask string) {
	if m == nil {
		return false, "", "", ""
	}
	return m.Any, m.Host, m.Network, m.InverseMask
}

// InitializeAccessListForm seeds the form from a rule. New rules default
// to permit.
func InitializeAccessListForm(r *AccessListRule) AccessListForm {
	if r == nil {
		return AccessListForm{Action: "permit"}
	}
	f := AccessListForm{Action: r.Action, Description: r.Description}
	f.SourceAny, f.SourceHost, f.SourceNetwork, f.SourceInverseMask = aclSide(r.Source)
	f.DestinationAny, f.DestinationHost, f.DestinationNetwork, f.DestinationInverseMask = aclSide(r.Destination)
	return f
}

func aclChoice(side string) opbuilder.Choice {
	return opbuilder.Choice{
		Name: side,
		Branches: []opbuilder.Branch{
			{Field: side + "_any", Op: "set_" + side + "_any"},
			{Field: side + "_host", Op: "set_" + side + "_host"},
			{Field: side + "_network", Op: "set_" + side + "_network"},
		},
		DeleteOp: "delete_" + side,
	}
}

// AccessListSpec maps AccessListForm to batch operations.
var AccessListSpec = &opbuilder.Spec{
	Fields: []opbuilder.FieldSpec{
		{Name: "action", Kind: opbuilder.Scalar, SetOp: "set_action"},
		{Name: "description", Kind: opbuilder.Scalar, SetOp: "set_description", DeleteOp: "delete_description"},
		{Name: "source_inverse_mask", Kind: opbuilder.Scalar, SetOp: "set_source_inverse_mask", DeleteOp: "delete_source_inverse_mask"},
		{Name: "destination_inverse_mask", Kind: opbuilder.Scalar, SetOp: "set_destination_inverse_mask", DeleteOp: "delete_destination_inverse_mask"},
	},
	Choices: []opbuilder.Choice{aclChoice("source"), aclChoice("destination")},
}

// AccessLists is the IPv4 access-list rule category.
var AccessLists = &Kind[AccessListRule, AccessListForm]{
	Name:       "access-list",
	Title:      "Access-list rules",
	Path:       "/vyos/access-list",
	Collection: "rules",
	Keys: []KeyField{
		{Name: "access_list", Help: "access-list number or name"},
		{Name: "rule", Numeric: true, Help: "rule number"},
	},
	Spec:     AccessListSpec,
	DeleteOp: "delete_rule",
	ListKey:  "access_list",
	RuleKey:  "rule",
	DocURL:   urls.VyOSPolicy,
	KeyOf: func(r *AccessListRule) Key {
		return Key{"access_list": r.AccessList, "rule": strconv.Itoa(r.Rule)}
	},
	Initialize: InitializeAccessListForm,
}
