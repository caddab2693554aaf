package vyos

import (
	"github.com/vyconsole/vyconsole/internal/opbuilder"
	"github.com/vyconsole/vyconsole/internal/urls"
)

// ClampToPMTU is the adjust-mss value meaning "clamp to path MTU".
const ClampToPMTU = "clamp-mss-to-pmtu"

// IPOptions is the ip node of an interface.
type IPOptions struct {
	AdjustMSS         string `json:"adjust_mss,omitempty"`
	ARPCacheTimeout   string `json:"arp_cache_timeout,omitempty"`
	DisableARPFilter  bool   `json:"disable_arp_filter,omitempty"`
	EnableARPAccept   bool   `json:"enable_arp_accept,omitempty"`
	EnableARPAnnounce bool   `json:"enable_arp_announce,omitempty"`
	EnableARPIgnore   bool   `json:"enable_arp_ignore,omitempty"`
	EnableProxyARP    bool   `json:"enable_proxy_arp,omitempty"`
	SourceValidation  string `json:"source_validation,omitempty"`
}

// IPv6Options is the ipv6 node of an interface.
type IPv6Options struct {
	AdjustMSS string `json:"adjust_mss,omitempty"`
}

// Offload lists the enabled NIC offloads.
type Offload struct {
	GRO bool `json:"gro,omitempty"`
	GSO bool `json:"gso,omitempty"`
	LRO bool `json:"lro,omitempty"`
	RPS bool `json:"rps,omitempty"`
	SG  bool `json:"sg,omitempty"`
	TSO bool `json:"tso,omitempty"`
}

// Names returns the enabled offloads in a fixed order.
func (o *Offload) Names() []string {
	if o == nil {
		return nil
	}
	var out []string
	for _, f := range []struct {
		on   bool
		name string
	}{{o.GRO, "gro"}, {o.GSO, "gso"}, {o.LRO, "lro"}, {o.RPS, "rps"}, {o.SG, "sg"}, {o.TSO, "tso"}} {
		if f.on {
			out = append(out, f.name)
		}
	}
	return out
}

// RingBuffer holds NIC ring sizes.
type RingBuffer struct {
	RX string `json:"rx,omitempty"`
	TX string `json:"tx,omitempty"`
}

// EthernetInterface mirrors one "interfaces ethernet" node.
type EthernetInterface struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Addresses   []string     `json:"addresses,omitempty"`
	MTU         string       `json:"mtu,omitempty"`
	MAC         string       `json:"mac,omitempty"`
	HWID        string       `json:"hw_id,omitempty"`
	Duplex      string       `json:"duplex,omitempty"`
	Speed       string       `json:"speed,omitempty"`
	VRF         string       `json:"vrf,omitempty"`
	Disable     bool         `json:"disable,omitempty"`
	Offload     *Offload     `json:"offload,omitempty"`
	RingBuffer  *RingBuffer  `json:"ring_buffer,omitempty"`
	IP          *IPOptions   `json:"ip,omitempty"`
	IPv6        *IPv6Options `json:"ipv6,omitempty"`
}

// EthernetForm is the editable state of an ethernet interface.
type EthernetForm struct {
	Description      string   `json:"description" validate:"max=255"`
	Addresses        []string `json:"addresses" validate:"dive,vyos_address"`
	MTU              string   `json:"mtu" validate:"omitempty,intrange=68:16000"`
	MAC              string   `json:"mac" validate:"omitempty,mac"`
	Duplex           string   `json:"duplex" validate:"omitempty,oneof=auto half full"`
	Speed            string   `json:"speed" validate:"omitempty,oneof=auto 10 100 1000 2500 5000 10000 25000 40000 50000 100000"`
	VRF              string   `json:"vrf" validate:"omitempty,list_name"`
	Disable          bool     `json:"disable"`
	Offload          []string `json:"offload" validate:"dive,oneof=gro gso lro rps sg tso"`
	RingBufferRX     string   `json:"ring_buffer_rx" validate:"omitempty,intrange=80:16384"`
	RingBufferTX     string   `json:"ring_buffer_tx" validate:"omitempty,intrange=80:16384"`
	IPClampMSS       bool     `json:"ip_adjust_mss_clamp"`
	IPAdjustMSS      string   `json:"ip_adjust_mss" validate:"omitempty,intrange=536:65535"`
	IPv6ClampMSS     bool     `json:"ipv6_adjust_mss_clamp"`
	IPv6AdjustMSS    string   `json:"ipv6_adjust_mss" validate:"omitempty,intrange=1220:65535"`
	ARPCacheTimeout  string   `json:"arp_cache_timeout" validate:"omitempty,intrange=1:86400"`
	ARPAccept        bool     `json:"arp_accept"`
	ARPAnnounce      bool     `json:"arp_announce"`
	ARPIgnore        bool     `json:"arp_ignore"`
	DisableARPFilter bool     `json:"disable_arp_filter"`
	ProxyARP         bool     `json:"proxy_arp"`
	SourceValidation string   `json:"source_validation" validate:"omitempty,oneof=strict loose disable"`
}

// splitMSS maps an adjust-mss value to the clamp flag and explicit value.
func splitMSS(v string) (bool, string) {
	if v == ClampToPMTU {
		return true, ""
	}
	return false, v
}

// InitializeEthernetForm seeds the form from an interface; nil yields the
// blank create form.
func InitializeEthernetForm(e *EthernetInterface) EthernetForm {
	if e == nil {
		return EthernetForm{}
	}

	f := EthernetForm{
		Description: e.Description,
		Addresses:   append([]string(nil), e.Addresses...),
		MTU:         e.MTU,
		MAC:         e.MAC,
		Duplex:      e.Duplex,
		Speed:       e.Speed,
		VRF:         e.VRF,
		Disable:     e.Disable,
		Offload:     e.Offload.Names(),
	}
	if e.RingBuffer != nil {
		f.RingBufferRX = e.RingBuffer.RX
		f.RingBufferTX = e.RingBuffer.TX
	}
	if ip := e.IP; ip != nil {
		f.IPClampMSS, f.IPAdjustMSS = splitMSS(ip.AdjustMSS)
		f.ARPCacheTimeout = ip.ARPCacheTimeout
		f.ARPAccept = ip.EnableARPAccept
		f.ARPAnnounce = ip.EnableARPAnnounce
		f.ARPIgnore = ip.EnableARPIgnore
		f.DisableARPFilter = ip.DisableARPFilter
		f.ProxyARP = ip.EnableProxyARP
		f.SourceValidation = ip.SourceValidation
	}
	if e.IPv6 != nil {
		f.IPv6ClampMSS, f.IPv6AdjustMSS = splitMSS(e.IPv6.AdjustMSS)
	}
	return f
}

var mssChoices = []opbuilder.Choice{
	{
		Name: "ip_adjust_mss",
		Branches: []opbuilder.Branch{
			{Field: "ip_adjust_mss_clamp", Op: "set_ip_adjust_mss_clamp_to_pmtu"},
			{Field: "ip_adjust_mss", Op: "set_ip_adjust_mss"},
		},
		DeleteOp:   "delete_ip_adjust_mss",
		Capability: "mss",
	},
	{
		Name: "ipv6_adjust_mss",
		Branches: []opbuilder.Branch{
			{Field: "ipv6_adjust_mss_clamp", Op: "set_ipv6_adjust_mss_clamp_to_pmtu"},
			{Field: "ipv6_adjust_mss", Op: "set_ipv6_adjust_mss"},
		},
		DeleteOp:   "delete_ipv6_adjust_mss",
		Capability: "mss",
	},
}

// EthernetSpec maps EthernetForm to batch operations.
var EthernetSpec = &opbuilder.Spec{
	Fields: []opbuilder.FieldSpec{
		{Name: "description", Kind: opbuilder.Scalar, SetOp: "set_description", DeleteOp: "delete_description"},
		{Name: "addresses", Kind: opbuilder.List, SetOp: "set_address", DeleteOp: "delete_address"},
		{Name: "mtu", Kind: opbuilder.Scalar, SetOp: "set_mtu", DeleteOp: "delete_mtu"},
		{Name: "mac", Kind: opbuilder.Scalar, SetOp: "set_mac", DeleteOp: "delete_mac", Capability: "mac"},
		{Name: "duplex", Kind: opbuilder.Scalar, SetOp: "set_duplex", DeleteOp: "delete_duplex", Capability: "speed_duplex"},
		{Name: "speed", Kind: opbuilder.Scalar, SetOp: "set_speed", DeleteOp: "delete_speed", Capability: "speed_duplex"},
		{Name: "vrf", Kind: opbuilder.Scalar, SetOp: "set_vrf", DeleteOp: "delete_vrf", Capability: "vrf"},
		{Name: "disable", Kind: opbuilder.Boolean, SetOp: "set_disable", DeleteOp: "delete_disable"},
		{Name: "offload", Kind: opbuilder.List, SetOp: "set_offload", DeleteOp: "delete_offload", Capability: "offload"},
		{Name: "ring_buffer_rx", Kind: opbuilder.Scalar, SetOp: "set_ring_buffer_rx", DeleteOp: "delete_ring_buffer_rx", Capability: "ring_buffer"},
		{Name: "ring_buffer_tx", Kind: opbuilder.Scalar, SetOp: "set_ring_buffer_tx", DeleteOp: "delete_ring_buffer_tx", Capability: "ring_buffer"},
		{Name: "arp_cache_timeout", Kind: opbuilder.Scalar, SetOp: "set_ip_arp_cache_timeout", DeleteOp: "delete_ip_arp_cache_timeout", Capability: "arp"},
		{Name: "arp_accept", Kind: opbuilder.Boolean, SetOp: "set_ip_enable_arp_accept", DeleteOp: "delete_ip_enable_arp_accept", Capability: "arp"},
		{Name: "arp_announce", Kind: opbuilder.Boolean, SetOp: "set_ip_enable_arp_announce", DeleteOp: "delete_ip_enable_arp_announce", Capability: "arp"},
		{Name: "arp_ignore", Kind: opbuilder.Boolean, SetOp: "set_ip_enable_arp_ignore", DeleteOp: "delete_ip_enable_arp_ignore", Capability: "arp"},
		{Name: "disable_arp_filter", Kind: opbuilder.Boolean, SetOp: "set_ip_disable_arp_filter", DeleteOp: "delete_ip_disable_arp_filter", Capability: "arp"},
		{Name: "proxy_arp", Kind: opbuilder.Boolean, SetOp: "set_ip_enable_proxy_arp", DeleteOp: "delete_ip_enable_proxy_arp", Capability: "arp"},
		{Name: "source_validation", Kind: opbuilder.Scalar, SetOp: "set_ip_source_validation", DeleteOp: "delete_ip_source_validation", Capability: "source_validation"},
	},
	Choices: mssChoices,
}

// Ethernet is the physical interface category. Physical interfaces cannot
// be deleted.
var Ethernet = &Kind[EthernetInterface, EthernetForm]{
	Name:         "ethernet",
	Title:        "Ethernet interfaces",
	Path:         "/vyos/ethernet",
	Collection:   "interfaces",
	Keys:         []KeyField{{Name: "interface", Help: "interface name, e.g. eth2"}},
	Spec:         EthernetSpec,
	Capabilities: true,
	DocURL:       urls.VyOSInterfaces,
	KeyOf: func(e *EthernetInterface) Key {
		return Key{"interface": e.Name}
	},
	Initialize: InitializeEthernetForm,
}

// VLANInterface mirrors one "vif" node of an ethernet interface.
type VLANInterface struct {
	Interface   string       `json:"interface"`
	VLANID      string       `json:"vlan_id"`
	Description string       `json:"description,omitempty"`
	Addresses   []string     `json:"addresses,omitempty"`
	MTU         string       `json:"mtu,omitempty"`
	VRF         string       `json:"vrf,omitempty"`
	Disable     bool         `json:"disable,omitempty"`
	IP          *IPOptions   `json:"ip,omitempty"`
	IPv6        *IPv6Options `json:"ipv6,omitempty"`
}

// VLANForm is the editable state of a VLAN sub-interface.
type VLANForm struct {
	Description   string   `json:"description" validate:"max=255"`
	Addresses     []string `json:"addresses" validate:"dive,vyos_address"`
	MTU           string   `json:"mtu" validate:"omitempty,intrange=68:16000"`
	VRF           string   `json:"vrf" validate:"omitempty,list_name"`
	Disable       bool     `json:"disable"`
	IPClampMSS    bool     `json:"ip_adjust_mss_clamp"`
	IPAdjustMSS   string   `json:"ip_adjust_mss" validate:"omitempty,intrange=536:65535"`
	IPv6ClampMSS  bool     `json:"ipv6_adjust_mss_clamp"`
	IPv6AdjustMSS string   `json:"ipv6_adjust_mss" validate:"omitempty,intrange=1220:65535"`
}

// InitializeVLANForm seeds the form from a VLAN; nil yields the blank form.
func InitializeVLANForm(v *VLANInterface) VLANForm {
	if v == nil {
		return VLANForm{}
	}
	f := VLANForm{
		Description: v.Description,
		Addresses:   append([]string(nil), v.Addresses...),
		MTU:         v.MTU,
		VRF:         v.VRF,
		Disable:     v.Disable,
	}
	if v.IP != nil {
		f.IPClampMSS, f.IPAdjustMSS = splitMSS(v.IP.AdjustMSS)
	}
	if v.IPv6 != nil {
		f.IPv6ClampMSS, f.IPv6AdjustMSS = splitMSS(v.IPv6.AdjustMSS)
	}
	return f
}

// VLANSpec maps VLANForm to batch operations.
var VLANSpec = &opbuilder.Spec{
	Fields: []opbuilder.FieldSpec{
		{Name: "description", Kind: opbuilder.Scalar, SetOp: "set_description", DeleteOp: "delete_description"},
		{Name: "addresses", Kind: opbuilder.List, SetOp: "set_address", DeleteOp: "delete_address"},
		{Name: "mtu", Kind: opbuilder.Scalar, SetOp: "set_mtu", DeleteOp: "delete_mtu"},
		{Name: "vrf", Kind: opbuilder.Scalar, SetOp: "set_vrf", DeleteOp: "delete_vrf", Capability: "vrf"},
		{Name: "disable", Kind: opbuilder.Boolean, SetOp: "set_disable", DeleteOp: "delete_disable"},
	},
	Choices: mssChoices,
}

// VLAN is the VLAN sub-interface category.
var VLAN = &Kind[VLANInterface, VLANForm]{
	Name:       "vif",
	Title:      "VLAN sub-interfaces",
	Path:       "/vyos/vif",
	Collection: "vifs",
	Keys: []KeyField{
		{Name: "interface", Help: "parent interface, e.g. eth1"},
		{Name: "vlan_id", Numeric: true, Help: "802.1Q VLAN id"},
	},
	Spec:         VLANSpec,
	DeleteOp:     "delete_vif",
	Capabilities: true,
	DocURL:       urls.VyOSInterfaces,
	KeyOf: func(v *VLANInterface) Key {
		return Key{"interface": v.Interface, "vlan_id": v.VLANID}
	},
	Initialize: InitializeVLANForm,
}
