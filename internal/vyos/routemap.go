package vyos

import (
	"strconv"

	"github.com/vyconsole/vyconsole/internal/opbuilder"
	"github.com/vyconsole/vyconsole/internal/urls"
)

// RouteMapMatch holds the match conditions of a route-map rule.
type RouteMapMatch struct {
	ASPath              string `json:"as_path,omitempty"`
	Community           string `json:"community,omitempty"`
	CommunityExact      bool   `json:"community_exact_match,omitempty"`
	Interface           string `json:"interface,omitempty"`
	IPPrefixList        string `json:"ip_address_prefix_list,omitempty"`
	IPAccessList        string `json:"ip_address_access_list,omitempty"`
	IPNextHopPrefixList string `json:"ip_nexthop_prefix_list,omitempty"`
	Metric              string `json:"metric,omitempty"`
	Origin              string `json:"origin,omitempty"`
	Peer                string `json:"peer,omitempty"`
	LocalPreference     string `json:"local_preference,omitempty"`
}

// RouteMapSet holds the set actions of a route-map rule.
type RouteMapSet struct {
	LocalPreference string `json:"local_preference,omitempty"`
	Metric          string `json:"metric,omitempty"`
	Weight          string `json:"weight,omitempty"`
	Tag             string `json:"tag,omitempty"`
	Origin          string `json:"origin,omitempty"`
	Community       string `json:"community,omitempty"`
	ASPathPrepend   string `json:"as_path_prepend,omitempty"`
	IPNextHop       string `json:"ip_next_hop,omitempty"`
}

// RouteMapRule mirrors one rule of a route-map.
type RouteMapRule struct {
	RouteMap    string         `json:"route_map"`
	Rule        int            `json:"rule"`
	Action      string         `json:"action,omitempty"`
	Description string         `json:"description,omitempty"`
	Match       *RouteMapMatch `json:"match,omitempty"`
	Set         *RouteMapSet   `json:"set,omitempty"`
	Call        string         `json:"call,omitempty"`
	Continue    string         `json:"continue,omitempty"`
	OnMatchNext bool           `json:"on_match_next,omitempty"`
	OnMatchGoto string         `json:"on_match_goto,omitempty"`
}

// Special next-hop values understood by the device.
const (
	NextHopPeerAddress = "peer-address"
	NextHopUnchanged   = "unchanged"
)

// RouteMapForm is the editable state of a route-map rule.
type RouteMapForm struct {
	Action                   string `json:"action" validate:"required,oneof=permit deny"`
	Description              string `json:"description" validate:"max=255"`
	MatchASPath              string `json:"match_as_path" validate:"omitempty,list_name"`
	MatchCommunity           string `json:"match_community" validate:"omitempty,list_name"`
	MatchCommunityExact      bool   `json:"match_community_exact"`
	MatchInterface           string `json:"match_interface" validate:"omitempty,iface"`
	MatchIPPrefixList        string `json:"match_ip_prefix_list" validate:"omitempty,list_name"`
	MatchIPAccessList        string `json:"match_ip_access_list" validate:"omitempty,list_name"`
	MatchIPNextHopPrefixList string `json:"match_ip_nexthop_prefix_list" validate:"omitempty,list_name"`
	MatchMetric              string `json:"match_metric" validate:"omitempty,intrange=0:4294967295"`
	MatchOrigin              string `json:"match_origin" validate:"omitempty,oneof=egp igp incomplete"`
	MatchPeer                string `json:"match_peer" validate:"omitempty,ip|eq=local"`
	MatchLocalPreference     string `json:"match_local_preference" validate:"omitempty,intrange=0:4294967295"`
	SetLocalPreference       string `json:"set_local_preference" validate:"omitempty,intrange=0:4294967295"`
	SetMetric                string `json:"set_metric" validate:"omitempty,max=16"`
	SetWeight                string `json:"set_weight" validate:"omitempty,intrange=0:4294967295"`
	SetTag                   string `json:"set_tag" validate:"omitempty,intrange=1:65535"`
	SetOrigin                string `json:"set_origin" validate:"omitempty,oneof=egp igp incomplete"`
	SetCommunity             string `json:"set_community" validate:"omitempty,community"`
	SetASPathPrepend         string `json:"set_as_path_prepend" validate:"omitempty,max=255"`
	NextHopPeerAddress       bool   `json:"set_ip_next_hop_peer_address"`
	NextHopUnchanged         bool   `json:"set_ip_next_hop_unchanged"`
	NextHopAddress           string `json:"set_ip_next_hop" validate:"omitempty,ip"`
	Call                     string `json:"call" validate:"omitempty,list_name"`
	Continue                 string `json:"continue" validate:"omitempty,intrange=1:65535"`
	OnMatchNext              bool   `json:"on_match_next"`
	OnMatchGoto              string `json:"on_match_goto" validate:"omitempty,intrange=1:65535"`
}

// InitializeRouteMapForm seeds the form from a rule. New rules default to
// permit.
func InitializeRouteMapForm(r *RouteMapRule) RouteMapForm {
	if r == nil {
		return RouteMapForm{Action: "permit"}
	}

	f := RouteMapForm{
		Action:      r.Action,
		Description: r.Description,
		Call:        r.Call,
		Continue:    r.Continue,
		OnMatchNext: r.OnMatchNext,
		OnMatchGoto: r.OnMatchGoto,
	}
	if m := r.Match; m != nil {
		f.MatchASPath = m.ASPath
		f.MatchCommunity = m.Community
		f.MatchCommunityExact = m.CommunityExact
		f.MatchInterface = m.Interface
		f.MatchIPPrefixList = m.IPPrefixList
		f.MatchIPAccessList = m.IPAccessList
		f.MatchIPNextHopPrefixList = m.IPNextHopPrefixList
		f.MatchMetric = m.Metric
		f.MatchOrigin = m.Origin
		f.MatchPeer = m.Peer
		f.MatchLocalPreference = m.LocalPreference
	}
	if s := r.Set; s != nil {
		f.SetLocalPreference = s.LocalPreference
		f.SetMetric = s.Metric
		f.SetWeight = s.Weight
		f.SetTag = s.Tag
		f.SetOrigin = s.Origin
		f.SetCommunity = s.Community
		f.SetASPathPrepend = s.ASPathPrepend
		switch s.IPNextHop {
		case NextHopPeerAddress:
			f.NextHopPeerAddress = true
		case NextHopUnchanged:
			f.NextHopUnchanged = true
		default:
			f.NextHopAddress = s.IPNextHop
		}
	}
	return f
}

func rmScalar(name, node string) opbuilder.FieldSpec {
	return opbuilder.FieldSpec{Name: name, Kind: opbuilder.Scalar, SetOp: "set_" + node, DeleteOp: "delete_" + node}
}

// RouteMapSpec maps RouteMapForm to batch operations.
var RouteMapSpec = &opbuilder.Spec{
	Fields: []opbuilder.FieldSpec{
		{Name: "action", Kind: opbuilder.Scalar, SetOp: "set_action"},
		rmScalar("description", "description"),
		rmScalar("match_as_path", "match_as_path"),
		rmScalar("match_community", "match_community"),
		{Name: "match_community_exact", Kind: opbuilder.Boolean, SetOp: "set_match_community_exact_match", DeleteOp: "delete_match_community_exact_match"},
		rmScalar("match_interface", "match_interface"),
		rmScalar("match_ip_prefix_list", "match_ip_address_prefix_list"),
		rmScalar("match_ip_access_list", "match_ip_address_access_list"),
		rmScalar("match_ip_nexthop_prefix_list", "match_ip_nexthop_prefix_list"),
		rmScalar("match_metric", "match_metric"),
		rmScalar("match_origin", "match_origin"),
		rmScalar("match_peer", "match_peer"),
		rmScalar("match_local_preference", "match_local_preference"),
		rmScalar("set_local_preference", "set_local_preference"),
		rmScalar("set_metric", "set_metric"),
		rmScalar("set_weight", "set_weight"),
		rmScalar("set_tag", "set_tag"),
		rmScalar("set_origin", "set_origin"),
		rmScalar("set_community", "set_community"),
		rmScalar("set_as_path_prepend", "set_as_path_prepend"),
		rmScalar("call", "call"),
		rmScalar("continue", "continue"),
	},
	Choices: []opbuilder.Choice{
		{
			Name: "set_ip_next_hop",
			Branches: []opbuilder.Branch{
				{Field: "set_ip_next_hop_peer_address", Op: "set_set_ip_next_hop", Value: NextHopPeerAddress},
				{Field: "set_ip_next_hop_unchanged", Op: "set_set_ip_next_hop", Value: NextHopUnchanged},
				{Field: "set_ip_next_hop", Op: "set_set_ip_next_hop"},
			},
			DeleteOp: "delete_set_ip_next_hop",
		},
		{
			Name: "on_match",
			Branches: []opbuilder.Branch{
				{Field: "on_match_next", Op: "set_on_match_next"},
				{Field: "on_match_goto", Op: "set_on_match_goto"},
			},
			DeleteOp: "delete_on_match",
		},
	},
}

// RouteMaps is the route-map rule category.
var RouteMaps = &Kind[RouteMapRule, RouteMapForm]{
	Name:       "route-map",
	Title:      "Route-map rules",
	Path:       "/vyos/route-map",
	Collection: "rules",
	Keys: []KeyField{
		{Name: "route_map", Help: "route-map name"},
		{Name: "rule", Numeric: true, Help: "rule number"},
	},
	Spec:     RouteMapSpec,
	DeleteOp: "delete_rule",
	ListKey:  "route_map",
	RuleKey:  "rule",
	DocURL:   urls.VyOSPolicy,
	KeyOf: func(r *RouteMapRule) Key {
		return Key{"route_map": r.RouteMap, "rule": strconv.Itoa(r.Rule)}
	},
	Initialize: InitializeRouteMapForm,
}
