package vyos

import (
	"net/netip"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go4.org/netipx"

	"github.com/vyconsole/vyconsole/internal/opbuilder"
	"github.com/vyconsole/vyconsole/internal/urls"
)

// DHCPRange is one address pool of a DHCP subnet.
type DHCPRange struct {
	Start string `json:"start"`
	Stop  string `json:"stop"`
}

// String renders the range as "start-stop".
func (r DHCPRange) String() string {
	return r.Start + "-" + r.Stop
}

// DHCPSubnet mirrors one subnet of a DHCP shared network.
type DHCPSubnet struct {
	SharedNetwork string      `json:"shared_network"`
	Subnet        string      `json:"subnet"`
	DefaultRouter string      `json:"default_router,omitempty"`
	NameServers   []string    `json:"name_servers,omitempty"`
	DomainName    string      `json:"domain_name,omitempty"`
	Lease         string      `json:"lease,omitempty"`
	SubnetID      string      `json:"subnet_id,omitempty"`
	Ranges        []DHCPRange `json:"ranges,omitempty"`
	Exclude       []string    `json:"exclude,omitempty"`
}

// DHCPForm is the editable state of a DHCP subnet. The subnet itself is
// part of the key and is copied in for range checks only.
type DHCPForm struct {
	Subnet        string   `json:"-"`
	DefaultRouter string   `json:"default_router" validate:"omitempty,ip"`
	NameServers   []string `json:"name_servers" validate:"dive,ip"`
	DomainName    string   `json:"domain_name" validate:"omitempty,fqdn"`
	Lease         string   `json:"lease" validate:"omitempty,intrange=60:31536000"`
	SubnetID      string   `json:"subnet_id" validate:"omitempty,intrange=1:4294967295"`
	Ranges        []string `json:"ranges" validate:"dive,ip_range"`
	Exclude       []string `json:"exclude" validate:"dive,ip"`
}

// InitializeDHCPForm seeds the form from a subnet. New subnets default to
// a one day lease.
func InitializeDHCPForm(s *DHCPSubnet) DHCPForm {
	if s == nil {
		return DHCPForm{Lease: "86400"}
	}
	f := DHCPForm{
		Subnet:        s.Subnet,
		DefaultRouter: s.DefaultRouter,
		NameServers:   append([]string(nil), s.NameServers...),
		DomainName:    s.DomainName,
		Lease:         s.Lease,
		SubnetID:      s.SubnetID,
		Exclude:       append([]string(nil), s.Exclude...),
	}
	for _, r := range s.Ranges {
		f.Ranges = append(f.Ranges, r.String())
	}
	return f
}

// validateDHCPSubnet checks that the router and every pool sit inside the
// subnet and that pools do not overlap.
func validateDHCPSubnet(sl validator.StructLevel) {
	f := sl.Current().Interface().(DHCPForm)
	subnet, err := netip.ParsePrefix(f.Subnet)
	if err != nil {
		return
	}
	subnet = subnet.Masked()

	if router, err := netip.ParseAddr(f.DefaultRouter); err == nil && !subnet.Contains(router) {
		sl.ReportError(f.DefaultRouter, "default_router", "DefaultRouter", "in_subnet", f.Subnet)
	}

	var seen netipx.IPSetBuilder
	for i, value := range f.Ranges {
		r, err := ParseRange(value)
		if err != nil {
			continue
		}
		if !subnet.Contains(r.From()) || !subnet.Contains(r.To()) {
			sl.ReportError(value, rangeField(i), "Ranges", "in_subnet", f.Subnet)
			continue
		}
		set, _ := seen.IPSet()
		if set.OverlapsRange(r) {
			sl.ReportError(value, rangeField(i), "Ranges", "range_overlap", "")
			continue
		}
		seen.AddRange(r)
	}
}

func rangeField(i int) string {
	return "ranges[" + strconv.Itoa(i) + "]"
}

// DHCPSpec maps DHCPForm to batch operations. Ranges are sent as
// "start-stop" values.
var DHCPSpec = &opbuilder.Spec{
	Fields: []opbuilder.FieldSpec{
		{Name: "default_router", Kind: opbuilder.Scalar, SetOp: "set_default_router", DeleteOp: "delete_default_router"},
		{Name: "name_servers", Kind: opbuilder.List, SetOp: "set_name_server", DeleteOp: "delete_name_server"},
		{Name: "domain_name", Kind: opbuilder.Scalar, SetOp: "set_domain_name", DeleteOp: "delete_domain_name"},
		{Name: "lease", Kind: opbuilder.Scalar, SetOp: "set_lease", DeleteOp: "delete_lease"},
		{Name: "subnet_id", Kind: opbuilder.Scalar, SetOp: "set_subnet_id", DeleteOp: "delete_subnet_id", Capability: "subnet_id"},
		{Name: "ranges", Kind: opbuilder.List, SetOp: "set_range", DeleteOp: "delete_range"},
		{Name: "exclude", Kind: opbuilder.List, SetOp: "set_exclude", DeleteOp: "delete_exclude"},
	},
	DeletesFirst: true,
}

// DHCPSubnets is the DHCP server subnet category.
var DHCPSubnets = &Kind[DHCPSubnet, DHCPForm]{
	Name:       "dhcp-subnet",
	Title:      "DHCP server subnets",
	Path:       "/vyos/dhcp-server",
	Collection: "subnets",
	Keys: []KeyField{
		{Name: "shared_network", Help: "shared network name"},
		{Name: "subnet", Help: "subnet prefix, e.g. 192.168.10.0/24"},
	},
	Spec:         DHCPSpec,
	DeleteOp:     "delete_subnet",
	Capabilities: true,
	DocURL:       urls.VyOSDHCPServer,
	KeyOf: func(s *DHCPSubnet) Key {
		return Key{"shared_network": s.SharedNetwork, "subnet": s.Subnet}
	},
	Initialize: InitializeDHCPForm,
	BindKey: func(f *DHCPForm, key Key) {
		f.Subnet = key["subnet"]
	},
}
