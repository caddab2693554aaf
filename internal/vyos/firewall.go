package vyos

import (
	"strconv"

	"github.com/vyconsole/vyconsole/internal/opbuilder"
	"github.com/vyconsole/vyconsole/internal/urls"
)

// FirewallGroups references named firewall groups.
type FirewallGroups struct {
	AddressGroup string `json:"address_group,omitempty"`
	NetworkGroup string `json:"network_group,omitempty"`
	PortGroup    string `json:"port_group,omitempty"`
}

// FirewallMatch is the source or destination side of a firewall rule.
type FirewallMatch struct {
	Address string          `json:"address,omitempty"`
	Port    string          `json:"port,omitempty"`
	Group   *FirewallGroups `json:"group,omitempty"`
}

// FirewallRule mirrors one rule of an IPv4 firewall chain.
type FirewallRule struct {
	Chain             string         `json:"chain"`
	Rule              int            `json:"rule"`
	Action            string         `json:"action,omitempty"`
	JumpTarget        string         `json:"jump_target,omitempty"`
	Description       string         `json:"description,omitempty"`
	Protocol          string         `json:"protocol,omitempty"`
	Source            *FirewallMatch `json:"source,omitempty"`
	Destination       *FirewallMatch `json:"destination,omitempty"`
	State             []string       `json:"state,omitempty"`
	InboundInterface  string         `json:"inbound_interface,omitempty"`
	OutboundInterface string         `json:"outbound_interface,omitempty"`
	Log               bool           `json:"log,omitempty"`
	Disable           bool           `json:"disable,omitempty"`
}

// FirewallForm is the editable state of a firewall rule.
type FirewallForm struct {
	Action                  string   `json:"action" validate:"omitempty,oneof=accept drop reject jump return continue"`
	JumpTarget              string   `json:"jump_target" validate:"required_if=Action jump,omitempty,list_name"`
	Description             string   `json:"description" validate:"max=255"`
	Protocol                string   `json:"protocol" validate:"omitempty,oneof=all tcp udp tcp_udp icmp gre esp ah ospf vrrp"`
	SourceAddress           string   `json:"source_address" validate:"omitempty,ip_match"`
	SourcePort              string   `json:"source_port" validate:"omitempty,port_spec"`
	SourceAddressGroup      string   `json:"source_address_group" validate:"omitempty,list_name"`
	SourceNetworkGroup      string   `json:"source_network_group" validate:"omitempty,list_name"`
	DestinationAddress      string   `json:"destination_address" validate:"omitempty,ip_match"`
	DestinationPort         string   `json:"destination_port" validate:"omitempty,port_spec"`
	DestinationAddressGroup string   `json:"destination_address_group" validate:"omitempty,list_name"`
	DestinationNetworkGroup string   `json:"destination_network_group" validate:"omitempty,list_name"`
	State                   []string `json:"state" validate:"dive,oneof=established related new invalid"`
	InboundInterface        string   `json:"inbound_interface" validate:"omitempty,iface"`
	OutboundInterface       string   `json:"outbound_interface" validate:"omitempty,iface"`
	Log                     bool     `json:"log"`
	Disable                 bool     `json:"disable"`
}

// InitializeFirewallForm seeds the form from a rule. New rules default to
// accept.
func InitializeFirewallForm(r *FirewallRule) FirewallForm {
	if r == nil {
		return FirewallForm{Action: "accept"}
	}

	f := FirewallForm{
		Action:            r.Action,
		JumpTarget:        r.JumpTarget,
		Description:       r.Description,
		Protocol:          r.Protocol,
		State:             append([]string(nil), r.State...),
		InboundInterface:  r.InboundInterface,
		OutboundInterface: r.OutboundInterface,
		Log:               r.Log,
		Disable:           r.Disable,
	}
	if s := r.Source; s != nil {
		f.SourceAddress, f.SourcePort = s.Address, s.Port
		if s.Group != nil {
			f.SourceAddressGroup, f.SourceNetworkGroup = s.Group.AddressGroup, s.Group.NetworkGroup
		}
	}
	if d := r.Destination; d != nil {
		f.DestinationAddress, f.DestinationPort = d.Address, d.Port
		if d.Group != nil {
			f.DestinationAddressGroup, f.DestinationNetworkGroup = d.Group.AddressGroup, d.Group.NetworkGroup
		}
	}
	return f
}

// FirewallSpec maps FirewallForm to batch operations. Group references are
// set-only.
var FirewallSpec = &opbuilder.Spec{
	Fields: []opbuilder.FieldSpec{
		{Name: "action", Kind: opbuilder.Scalar, SetOp: "set_rule_action"},
		{Name: "jump_target", Kind: opbuilder.Scalar, SetOp: "set_rule_jump_target", DeleteOp: "delete_rule_jump_target"},
		{Name: "description", Kind: opbuilder.Scalar, SetOp: "set_rule_description", DeleteOp: "delete_rule_description"},
		{Name: "protocol", Kind: opbuilder.Scalar, SetOp: "set_rule_protocol", DeleteOp: "delete_rule_protocol"},
		{Name: "source_address", Kind: opbuilder.Scalar, SetOp: "set_rule_source_address", DeleteOp: "delete_rule_source_address"},
		{Name: "source_port", Kind: opbuilder.Scalar, SetOp: "set_rule_source_port", DeleteOp: "delete_rule_source_port"},
		{Name: "source_address_group", Kind: opbuilder.Scalar, SetOp: "set_rule_source_group_address_group"},
		{Name: "source_network_group", Kind: opbuilder.Scalar, SetOp: "set_rule_source_group_network_group"},
		{Name: "destination_address", Kind: opbuilder.Scalar, SetOp: "set_rule_destination_address", DeleteOp: "delete_rule_destination_address"},
		{Name: "destination_port", Kind: opbuilder.Scalar, SetOp: "set_rule_destination_port", DeleteOp: "delete_rule_destination_port"},
		{Name: "destination_address_group", Kind: opbuilder.Scalar, SetOp: "set_rule_destination_group_address_group"},
		{Name: "destination_network_group", Kind: opbuilder.Scalar, SetOp: "set_rule_destination_group_network_group"},
		{Name: "state", Kind: opbuilder.List, SetOp: "set_rule_state", DeleteOp: "delete_rule_state"},
		{Name: "inbound_interface", Kind: opbuilder.Scalar, SetOp: "set_rule_inbound_interface_name", DeleteOp: "delete_rule_inbound_interface", Capability: "interface_matching"},
		{Name: "outbound_interface", Kind: opbuilder.Scalar, SetOp: "set_rule_outbound_interface_name", DeleteOp: "delete_rule_outbound_interface", Capability: "interface_matching"},
		{Name: "log", Kind: opbuilder.Boolean, SetOp: "set_rule_log", DeleteOp: "delete_rule_log"},
		{Name: "disable", Kind: opbuilder.Boolean, SetOp: "set_rule_disable", DeleteOp: "delete_rule_disable"},
	},
}

// Firewall is the IPv4 firewall rule category, keyed by chain and rule.
var Firewall = &Kind[FirewallRule, FirewallForm]{
	Name:       "firewall",
	Title:      "IPv4 firewall rules",
	Path:       "/vyos/firewall/ipv4",
	Collection: "rules",
	Keys: []KeyField{
		{Name: "chain", Help: "forward, input, output or a named chain"},
		{Name: "rule", Numeric: true, Help: "rule number"},
	},
	Spec:         FirewallSpec,
	DeleteOp:     "delete_rule",
	Capabilities: true,
	DocURL:       urls.VyOSFirewall,
	KeyOf: func(r *FirewallRule) Key {
		return Key{"chain": r.Chain, "rule": strconv.Itoa(r.Rule)}
	},
	Initialize: InitializeFirewallForm,
}
