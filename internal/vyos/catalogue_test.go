package vyos

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyconsole/vyconsole/internal/capability"
	"github.com/vyconsole/vyconsole/internal/opbuilder"
)

func matrix(features ...string) *capability.Matrix {
	m := &capability.Matrix{Features: map[string]bool{}}
	for _, f := range features {
		m.Features[f] = true
	}
	return m
}

func TestEthernet_DescriptionOnlyChange(t *testing.T) {
	eth2 := &EthernetInterface{Name: "eth2", Addresses: []string{"203.0.113.2/30"}, MTU: "1500"}

	next := Ethernet.NewForm(eth2, Key{"interface": "eth2"})
	next.Description = "WAN"

	plan := opbuilder.Diff(InitializeEthernetForm(eth2), next, EthernetSpec, matrix())
	want := opbuilder.Plan{opbuilder.SetValue("set_description", "WAN")}
	if diff := cmp.Diff(want, plan); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
}

func TestEthernet_CreateDescriptionOnly(t *testing.T) {
	var m capability.Matrix
	require.NoError(t, json.Unmarshal([]byte(`{"features":{"arp":false,"mss":true}}`), &m))

	t.Run("description", func(t *testing.T) {
		form := InitializeEthernetForm(nil)
		form.Description = "WAN"

		plan := opbuilder.Diff((*EthernetForm)(nil), form, EthernetSpec, &m)
		want := opbuilder.Plan{opbuilder.SetValue("set_description", "WAN")}
		if diff := cmp.Diff(want, plan); diff != "" {
			t.Errorf("plan mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("arp disabled by router", func(t *testing.T) {
		form := InitializeEthernetForm(nil)
		form.Description = "WAN"
		form.ARPCacheTimeout = "300"
		form.ARPAccept = true
		form.ARPAnnounce = true
		form.ARPIgnore = true
		form.DisableARPFilter = true
		form.ProxyARP = true
		form.IPClampMSS = true
		form.IPAdjustMSS = "1400"

		plan := opbuilder.Diff((*EthernetForm)(nil), form, EthernetSpec, &m)
		want := opbuilder.Plan{
			opbuilder.SetValue("set_description", "WAN"),
			opbuilder.Set("set_ip_adjust_mss_clamp_to_pmtu"),
		}
		if diff := cmp.Diff(want, plan); diff != "" {
			t.Errorf("plan mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestEthernet_UnchangedFormIsEmpty(t *testing.T) {
	eth := &EthernetInterface{
		Name:       "eth0",
		Addresses:  []string{"192.0.2.1/24", "dhcpv6"},
		Offload:    &Offload{GRO: true, TSO: true},
		RingBuffer: &RingBuffer{RX: "4096"},
		IP:         &IPOptions{AdjustMSS: ClampToPMTU, EnableARPAccept: true},
		IPv6:       &IPv6Options{AdjustMSS: "1380"},
	}
	form := InitializeEthernetForm(eth)
	plan := opbuilder.Diff(InitializeEthernetForm(eth), form, EthernetSpec, opbuilder.AllowAll)
	assert.True(t, plan.IsEmpty(), "unexpected plan %v", plan)
}

func TestEthernet_InitializeForm(t *testing.T) {
	assert.Equal(t, EthernetForm{}, InitializeEthernetForm(nil))

	form := InitializeEthernetForm(&EthernetInterface{
		Name:    "eth1",
		Offload: &Offload{SG: true, GRO: true},
		IP:      &IPOptions{AdjustMSS: ClampToPMTU, SourceValidation: "strict"},
		IPv6:    &IPv6Options{AdjustMSS: "1400"},
	})
	assert.Equal(t, []string{"gro", "sg"}, form.Offload)
	assert.True(t, form.IPClampMSS)
	assert.Empty(t, form.IPAdjustMSS)
	assert.False(t, form.IPv6ClampMSS)
	assert.Equal(t, "1400", form.IPv6AdjustMSS)
	assert.Equal(t, "strict", form.SourceValidation)
}

func TestEthernet_MSSChoiceSwitch(t *testing.T) {
	eth := &EthernetInterface{Name: "eth0", IP: &IPOptions{AdjustMSS: "1400"}}

	next := InitializeEthernetForm(eth)
	next.IPClampMSS = true

	plan := opbuilder.Diff(InitializeEthernetForm(eth), next, EthernetSpec, matrix("mss"))
	want := opbuilder.Plan{opbuilder.Set("set_ip_adjust_mss_clamp_to_pmtu")}
	if diff := cmp.Diff(want, plan); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}

	next.IPClampMSS = false
	next.IPAdjustMSS = ""
	plan = opbuilder.Diff(InitializeEthernetForm(eth), next, EthernetSpec, matrix("mss"))
	assert.Equal(t, opbuilder.Plan{opbuilder.Set("delete_ip_adjust_mss")}, plan)
}

func TestEthernet_CapabilityGating(t *testing.T) {
	eth := &EthernetInterface{Name: "eth0"}
	next := InitializeEthernetForm(eth)
	next.MAC = "00:11:22:33:44:55"
	next.Speed = "1000"
	next.ARPAccept = true

	tests := []struct {
		name string
		gate opbuilder.Gate
		want []string
	}{
		{"no matrix", (*capability.Matrix)(nil), nil},
		{"empty matrix", matrix(), nil},
		{"mac only", matrix("mac"), []string{"set_mac"}},
		{"all", matrix("mac", "speed_duplex", "arp"), []string{"set_mac", "set_speed", "set_ip_enable_arp_accept"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := opbuilder.Diff(InitializeEthernetForm(eth), next, EthernetSpec, tt.gate)
			var got []string
			for _, op := range plan {
				got = append(got, op.Op)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEthernet_NotDeletable(t *testing.T) {
	assert.False(t, Ethernet.Info().Deletable())
	assert.True(t, VLAN.Info().Deletable())
	assert.False(t, VLAN.Info().Reorderable())
}

func TestNAT_SourceMasquerade(t *testing.T) {
	rule := &NATRule{
		Rule:              100,
		OutboundInterface: "eth0",
		Source:            &NATMatch{Address: "192.168.0.0/24"},
		Translation:       &NATTranslation{Address: "masquerade"},
	}
	form := InitializeNATForm(rule)
	require.True(t, form.Masquerade)
	assert.Empty(t, form.TranslationAddress)

	// Masquerade wins while checked, even with an address typed in.
	form.TranslationAddress = "203.0.113.5"
	plan := opbuilder.Diff(InitializeNATForm(rule), form, NATSourceSpec, nil)
	assert.True(t, plan.IsEmpty(), "unexpected plan %v", plan)

	form.Masquerade = false
	plan = opbuilder.Diff(InitializeNATForm(rule), form, NATSourceSpec, nil)
	assert.Equal(t, opbuilder.Plan{opbuilder.SetValue("set_rule_translation_address", "203.0.113.5")}, plan)
}

func TestNAT_CreateUsesMasqueradeValue(t *testing.T) {
	form := NATForm{OutboundInterface: "eth0", SourceAddress: "10.0.0.0/8", Masquerade: true}
	plan := opbuilder.Diff(nil, form, NATSourceSpec, nil)
	want := opbuilder.Plan{
		opbuilder.SetValue("set_rule_outbound_interface_name", "eth0"),
		opbuilder.SetValue("set_rule_source_address", "10.0.0.0/8"),
		opbuilder.SetValue("set_rule_translation_address", "masquerade"),
	}
	if diff := cmp.Diff(want, plan); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
}

func TestNAT_GroupsAreSetOnly(t *testing.T) {
	rule := &NATRule{Rule: 10, Source: &NATMatch{AddressGroup: "LAN"}}
	form := InitializeNATForm(rule)
	form.SourceAddressGroup = ""
	plan := opbuilder.Diff(InitializeNATForm(rule), form, NATDestinationSpec, nil)
	assert.True(t, plan.IsEmpty())
}

func TestStaticRoute_NextHopReplaceDeletesFirst(t *testing.T) {
	route := &StaticRoute{Destination: "10.0.0.0/8", NextHops: []string{"192.0.2.1"}, Distance: "10"}
	form := InitializeStaticRouteForm(route)
	form.NextHops = []string{"192.0.2.254"}
	form.Distance = ""

	plan := opbuilder.Diff(InitializeStaticRouteForm(route), form, StaticRouteSpec, nil)
	want := opbuilder.Plan{
		opbuilder.SetValue("delete_next_hop", "192.0.2.1"),
		opbuilder.Set("delete_distance"),
		opbuilder.SetValue("set_next_hop", "192.0.2.254"),
	}
	if diff := cmp.Diff(want, plan); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
}

func TestPrefixList_PrefixReplacement(t *testing.T) {
	rule := &PrefixListRule{Name: "PL-IN", Rule: 10, Action: "permit", Prefix: "10.0.0.0/8", GE: "16"}
	form := InitializePrefixListForm(rule)
	form.Prefix = "172.16.0.0/12"
	form.GE = ""

	plan := opbuilder.Diff(InitializePrefixListForm(rule), form, PrefixListSpec, nil)
	want := opbuilder.Plan{
		opbuilder.Set("delete_prefix"),
		opbuilder.Set("delete_ge"),
		opbuilder.SetValue("set_prefix", "172.16.0.0/12"),
	}
	if diff := cmp.Diff(want, plan); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
}

func TestRouteMap_NextHopChoice(t *testing.T) {
	rule := &RouteMapRule{RouteMap: "RM-OUT", Rule: 10, Action: "permit", Set: &RouteMapSet{IPNextHop: NextHopPeerAddress}}
	form := InitializeRouteMapForm(rule)
	require.True(t, form.NextHopPeerAddress)

	form.NextHopPeerAddress = false
	form.NextHopAddress = "192.0.2.9"
	plan := opbuilder.Diff(InitializeRouteMapForm(rule), form, RouteMapSpec, nil)
	assert.Equal(t, opbuilder.Plan{opbuilder.SetValue("set_set_ip_next_hop", "192.0.2.9")}, plan)

	form.NextHopAddress = ""
	plan = opbuilder.Diff(InitializeRouteMapForm(rule), form, RouteMapSpec, nil)
	assert.Equal(t, opbuilder.Plan{opbuilder.Set("delete_set_ip_next_hop")}, plan)
}

func TestAccessList_SourceChoice(t *testing.T) {
	form := AccessListForm{Action: "deny", SourceAny: true, SourceHost: "192.0.2.1", DestinationNetwork: "10.0.0.0", DestinationInverseMask: "0.255.255.255"}
	plan := opbuilder.Diff(nil, form, AccessListSpec, nil)
	want := opbuilder.Plan{
		opbuilder.SetValue("set_action", "deny"),
		opbuilder.SetValue("set_destination_inverse_mask", "0.255.255.255"),
		opbuilder.Set("set_source_any"),
		opbuilder.SetValue("set_destination_network", "10.0.0.0"),
	}
	if diff := cmp.Diff(want, plan); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
}

func TestDHCP_RangesAndSubnetID(t *testing.T) {
	subnet := &DHCPSubnet{
		SharedNetwork: "LAN",
		Subnet:        "192.168.1.0/24",
		Ranges:        []DHCPRange{{Start: "192.168.1.100", Stop: "192.168.1.199"}},
		SubnetID:      "1",
	}
	form := DHCPSubnets.NewForm(subnet, Key{"shared_network": "LAN", "subnet": "192.168.1.0/24"})
	assert.Equal(t, []string{"192.168.1.100-192.168.1.199"}, form.Ranges)

	form.Ranges = []string{"192.168.1.50-192.168.1.99"}
	form.SubnetID = "2"

	withoutCap := opbuilder.Diff(InitializeDHCPForm(subnet), form, DHCPSpec, matrix())
	assert.Equal(t, opbuilder.Plan{
		opbuilder.SetValue("delete_range", "192.168.1.100-192.168.1.199"),
		opbuilder.SetValue("set_range", "192.168.1.50-192.168.1.99"),
	}, withoutCap)

	withCap := opbuilder.Diff(InitializeDHCPForm(subnet), form, DHCPSpec, matrix("subnet_id"))
	assert.Contains(t, withCap, opbuilder.SetValue("set_subnet_id", "2"))
}

func TestDHCP_BindKeyOnCreate(t *testing.T) {
	form := DHCPSubnets.NewForm(nil, Key{"shared_network": "LAN", "subnet": "10.1.0.0/24"})
	assert.Equal(t, "10.1.0.0/24", form.Subnet)
	assert.Equal(t, "86400", form.Lease)
}

func TestKind_Decode(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"bare array", `[{"name":"eth0"},{"name":"eth1"}]`, 2},
		{"collection", `{"interfaces":[{"name":"eth0"}]}`, 1},
		{"data wrapper", `{"success":true,"data":{"interfaces":[{"name":"eth0"},{"name":"eth2"}]}}`, 2},
		{"missing collection", `{"other":[]}`, 0},
		{"null", `null`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := Ethernet.Decode(json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Len(t, items, tt.want)
		})
	}

	_, err := Ethernet.Decode(json.RawMessage(`{"interfaces":"nope"}`))
	assert.Error(t, err)
}

func TestKind_FindNormalizesNumericKeys(t *testing.T) {
	rules := []NATRule{{Rule: 10}, {Rule: 20}}
	found := NATSource.Find(rules, Key{"rule": "020"})
	require.NotNil(t, found)
	assert.Equal(t, 20, found.Rule)
	assert.Nil(t, NATSource.Find(rules, Key{"rule": "30"}))
}

func TestParseKey(t *testing.T) {
	key, err := ParseKey(Firewall.Keys, []string{"chain=forward", "rule=10"})
	require.NoError(t, err)
	assert.Equal(t, Key{"chain": "forward", "rule": "10"}, key)
	assert.Equal(t, "chain=forward rule=10", key.String())

	for _, pairs := range [][]string{
		{"chain=forward"},
		{"chain=forward", "rule=x"},
		{"chain=forward", "rule=0"},
		{"chain=forward", "rule=1", "bogus=1"},
		{"noequals"},
	} {
		_, err := ParseKey(Firewall.Keys, pairs)
		assert.Error(t, err, "pairs %v", pairs)
	}
}

func TestKind_BatchKeys(t *testing.T) {
	keys, err := VLAN.BatchKeys(Key{"interface": "eth1", "vlan_id": "100"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"interface": "eth1", "vlan_id": 100}, keys)

	_, err = VLAN.BatchKeys(Key{"interface": "eth1"})
	assert.Error(t, err)
}

func TestKind_Rules(t *testing.T) {
	items := []PrefixListRule{
		{Name: "PL-IN", Rule: 10, Prefix: "10.0.0.0/8"},
		{Name: "PL-OUT", Rule: 5},
		{Name: "PL-IN", Rule: 20, Prefix: "172.16.0.0/12"},
	}
	rules, err := PrefixLists.Rules(items, "PL-IN")
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, 10, rules[0].Number)
	assert.JSONEq(t, `{"name":"PL-IN","rule":20,"prefix":"172.16.0.0/12"}`, string(rules[1].Data))

	_, err = Ethernet.Rules(nil, "x")
	assert.Error(t, err)
}

// Every field and choice branch named by a spec table must exist on the
// form, or the diff would silently never see it.
func TestSpecTablesMatchForms(t *testing.T) {
	tables := map[string]struct {
		spec *opbuilder.Spec
		form any
	}{
		"ethernet":     {EthernetSpec, EthernetForm{}},
		"vif":          {VLANSpec, VLANForm{}},
		"nat-source":   {NATSourceSpec, NATForm{}},
		"nat-dest":     {NATDestinationSpec, NATForm{}},
		"nat-static":   {StaticNATSpec, StaticNATForm{}},
		"firewall":     {FirewallSpec, FirewallForm{}},
		"static-route": {StaticRouteSpec, StaticRouteForm{}},
		"route-map":    {RouteMapSpec, RouteMapForm{}},
		"access-list":  {AccessListSpec, AccessListForm{}},
		"prefix-list":  {PrefixListSpec, PrefixListForm{}},
		"regex-list":   {RegexListSpec, RegexListForm{}},
		"dhcp-subnet":  {DHCPSpec, DHCPForm{}},
	}

	for name, tt := range tables {
		t.Run(name, func(t *testing.T) {
			snap := opbuilder.SnapshotOf(tt.form)
			for _, f := range tt.spec.Fields {
				assert.Contains(t, snap, f.Name, "field %q", f.Name)
				assert.NotEmpty(t, f.SetOp, "field %q has no set op", f.Name)
			}
			for _, c := range tt.spec.Choices {
				for _, b := range c.Branches {
					assert.Contains(t, snap, b.Field, "choice %q branch %q", c.Name, b.Field)
				}
			}
		})
	}
}
