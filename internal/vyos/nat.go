package vyos

import (
	"strconv"

	"github.com/vyconsole/vyconsole/internal/opbuilder"
	"github.com/vyconsole/vyconsole/internal/urls"
)

// NATMatch is the source or destination side of a NAT rule.
type NATMatch struct {
	Address      string `json:"address,omitempty"`
	Port         string `json:"port,omitempty"`
	AddressGroup string `json:"address_group,omitempty"`
}

// NATTranslation is the rewrite target of a NAT rule.
type NATTranslation struct {
	Address string `json:"address,omitempty"`
	Port    string `json:"port,omitempty"`
}

// NATRule mirrors one source or destination NAT rule.
type NATRule struct {
	Rule              int             `json:"rule"`
	Description       string          `json:"description,omitempty"`
	OutboundInterface string          `json:"outbound_interface,omitempty"`
	InboundInterface  string          `json:"inbound_interface,omitempty"`
	Protocol          string          `json:"protocol,omitempty"`
	Source            *NATMatch       `json:"source,omitempty"`
	Destination       *NATMatch       `json:"destination,omitempty"`
	Translation       *NATTranslation `json:"translation,omitempty"`
	Log               bool            `json:"log,omitempty"`
	Exclude           bool            `json:"exclude,omitempty"`
	Disable           bool            `json:"disable,omitempty"`
}

// NATForm is the editable state shared by source and destination NAT.
// Which interface field is used depends on the category.
type NATForm struct {
	Description             string `json:"description" validate:"max=255"`
	OutboundInterface       string `json:"outbound_interface" validate:"omitempty,iface|eq=any"`
	InboundInterface        string `json:"inbound_interface" validate:"omitempty,iface|eq=any"`
	Protocol                string `json:"protocol" validate:"omitempty,oneof=all tcp udp tcp_udp icmp gre esp"`
	SourceAddress           string `json:"source_address" validate:"omitempty,ip_match"`
	SourcePort              string `json:"source_port" validate:"omitempty,port_spec"`
	SourceAddressGroup      string `json:"source_address_group" validate:"omitempty,list_name"`
	DestinationAddress      string `json:"destination_address" validate:"omitempty,ip_match"`
	DestinationPort         string `json:"destination_port" validate:"omitempty,port_spec"`
	DestinationAddressGroup string `json:"destination_address_group" validate:"omitempty,list_name"`
	Masquerade              bool   `json:"masquerade"`
	TranslationAddress      string `json:"translation_address" validate:"omitempty,ip_match"`
	TranslationPort         string `json:"translation_port" validate:"omitempty,port_spec"`
	Log                     bool   `json:"log"`
	Exclude                 bool   `json:"exclude"`
	Disable                 bool   `json:"disable"`
}

// InitializeNATForm seeds the form from a rule; nil yields the blank form.
func InitializeNATForm(r *NATRule) NATForm {
	if r == nil {
		return NATForm{}
	}

	f := NATForm{
		Description:       r.Description,
		OutboundInterface: r.OutboundInterface,
		InboundInterface:  r.InboundInterface,
		Protocol:          r.Protocol,
		Log:               r.Log,
		Exclude:           r.Exclude,
		Disable:           r.Disable,
	}
	if s := r.Source; s != nil {
		f.SourceAddress, f.SourcePort, f.SourceAddressGroup = s.Address, s.Port, s.AddressGroup
	}
	if d := r.Destination; d != nil {
		f.DestinationAddress, f.DestinationPort, f.DestinationAddressGroup = d.Address, d.Port, d.AddressGroup
	}
	if t := r.Translation; t != nil {
		if t.Address == "masquerade" {
			f.Masquerade = true
		} else {
			f.TranslationAddress = t.Address
		}
		f.TranslationPort = t.Port
	}
	return f
}

// natMatchFields are shared by both NAT directions. Address groups have no
// delete op: clearing them leaves the device value in place.
var natMatchFields = []opbuilder.FieldSpec{
	{Name: "protocol", Kind: opbuilder.Scalar, SetOp: "set_rule_protocol", DeleteOp: "delete_rule_protocol"},
	{Name: "source_address", Kind: opbuilder.Scalar, SetOp: "set_rule_source_address", DeleteOp: "delete_rule_source_address"},
	{Name: "source_port", Kind: opbuilder.Scalar, SetOp: "set_rule_source_port", DeleteOp: "delete_rule_source_port"},
	{Name: "source_address_group", Kind: opbuilder.Scalar, SetOp: "set_rule_source_group_address_group"},
	{Name: "destination_address", Kind: opbuilder.Scalar, SetOp: "set_rule_destination_address", DeleteOp: "delete_rule_destination_address"},
	{Name: "destination_port", Kind: opbuilder.Scalar, SetOp: "set_rule_destination_port", DeleteOp: "delete_rule_destination_port"},
	{Name: "destination_address_group", Kind: opbuilder.Scalar, SetOp: "set_rule_destination_group_address_group"},
	{Name: "translation_port", Kind: opbuilder.Scalar, SetOp: "set_rule_translation_port", DeleteOp: "delete_rule_translation_port"},
	{Name: "log", Kind: opbuilder.Boolean, SetOp: "set_rule_log", DeleteOp: "delete_rule_log"},
	{Name: "exclude", Kind: opbuilder.Boolean, SetOp: "set_rule_exclude", DeleteOp: "delete_rule_exclude"},
	{Name: "disable", Kind: opbuilder.Boolean, SetOp: "set_rule_disable", DeleteOp: "delete_rule_disable"},
}

func natSpec(iface opbuilder.FieldSpec, translation opbuilder.Choice) *opbuilder.Spec {
	fields := []opbuilder.FieldSpec{
		{Name: "description", Kind: opbuilder.Scalar, SetOp: "set_rule_description", DeleteOp: "delete_rule_description"},
		iface,
	}
	return &opbuilder.Spec{
		Fields:  append(fields, natMatchFields...),
		Choices: []opbuilder.Choice{translation},
	}
}

// NATSourceSpec maps NATForm to source NAT operations.
var NATSourceSpec = natSpec(
	opbuilder.FieldSpec{Name: "outbound_interface", Kind: opbuilder.Scalar, SetOp: "set_rule_outbound_interface_name", DeleteOp: "delete_rule_outbound_interface"},
	opbuilder.Choice{
		Name: "translation",
		Branches: []opbuilder.Branch{
			{Field: "masquerade", Op: "set_rule_translation_address", Value: "masquerade"},
			{Field: "translation_address", Op: "set_rule_translation_address"},
		},
		DeleteOp: "delete_rule_translation_address",
	},
)

// NATDestinationSpec maps NATForm to destination NAT operations.
var NATDestinationSpec = natSpec(
	opbuilder.FieldSpec{Name: "inbound_interface", Kind: opbuilder.Scalar, SetOp: "set_rule_inbound_interface_name", DeleteOp: "delete_rule_inbound_interface"},
	opbuilder.Choice{
		Name: "translation",
		Branches: []opbuilder.Branch{
			{Field: "translation_address", Op: "set_rule_translation_address"},
		},
		DeleteOp: "delete_rule_translation_address",
	},
)

func natRuleKey(r *NATRule) Key {
	return Key{"rule": strconv.Itoa(r.Rule)}
}

var natRuleField = []KeyField{{Name: "rule", Numeric: true, Help: "NAT rule number"}}

// NATSource is the source NAT rule category.
var NATSource = &Kind[NATRule, NATForm]{
	Name:       "nat-source",
	Title:      "Source NAT rules",
	Path:       "/vyos/nat/source",
	Collection: "rules",
	Keys:       natRuleField,
	Spec:       NATSourceSpec,
	DeleteOp:   "delete_rule",
	DocURL:     urls.VyOSNAT,
	KeyOf:      natRuleKey,
	Initialize: InitializeNATForm,
}

// NATDestination is the destination NAT (port forward) rule category.
var NATDestination = &Kind[NATRule, NATForm]{
	Name:       "nat-destination",
	Title:      "Destination NAT rules",
	Path:       "/vyos/nat/destination",
	Collection: "rules",
	Keys:       natRuleField,
	Spec:       NATDestinationSpec,
	DeleteOp:   "delete_rule",
	DocURL:     urls.VyOSNAT,
	KeyOf:      natRuleKey,
	Initialize: InitializeNATForm,
}

// StaticNATRule mirrors a one-to-one NAT rule.
type StaticNATRule struct {
	Rule               int    `json:"rule"`
	Description        string `json:"description,omitempty"`
	InboundInterface   string `json:"inbound_interface,omitempty"`
	DestinationAddress string `json:"destination_address,omitempty"`
	TranslationAddress string `json:"translation_address,omitempty"`
}

// StaticNATForm is the editable state of a one-to-one NAT rule.
type StaticNATForm struct {
	Description        string `json:"description" validate:"max=255"`
	InboundInterface   string `json:"inbound_interface" validate:"omitempty,iface"`
	DestinationAddress string `json:"destination_address" validate:"omitempty,ip_or_prefix"`
	TranslationAddress string `json:"translation_address" validate:"omitempty,ip_or_prefix"`
}

// InitializeStaticNATForm seeds the form from a rule.
func InitializeStaticNATForm(r *StaticNATRule) StaticNATForm {
	if r == nil {
		return StaticNATForm{}
	}
	return StaticNATForm{
		Description:        r.Description,
		InboundInterface:   r.InboundInterface,
		DestinationAddress: r.DestinationAddress,
		TranslationAddress: r.TranslationAddress,
	}
}

// StaticNATSpec maps StaticNATForm to batch operations.
var StaticNATSpec = &opbuilder.Spec{
	Fields: []opbuilder.FieldSpec{
		{Name: "description", Kind: opbuilder.Scalar, SetOp: "set_rule_description", DeleteOp: "delete_rule_description"},
		{Name: "inbound_interface", Kind: opbuilder.Scalar, SetOp: "set_rule_inbound_interface", DeleteOp: "delete_rule_inbound_interface"},
		{Name: "destination_address", Kind: opbuilder.Scalar, SetOp: "set_rule_destination_address", DeleteOp: "delete_rule_destination_address"},
		{Name: "translation_address", Kind: opbuilder.Scalar, SetOp: "set_rule_translation_address", DeleteOp: "delete_rule_translation_address"},
	},
}

// NATStatic is the one-to-one NAT category.
var NATStatic = &Kind[StaticNATRule, StaticNATForm]{
	Name:       "nat-static",
	Title:      "Static NAT rules",
	Path:       "/vyos/nat/static",
	Collection: "rules",
	Keys:       natRuleField,
	Spec:       StaticNATSpec,
	DeleteOp:   "delete_rule",
	DocURL:     urls.VyOSNAT,
	KeyOf: func(r *StaticNATRule) Key {
		return Key{"rule": strconv.Itoa(r.Rule)}
	},
	Initialize: InitializeStaticNATForm,
}
