package vyos

import (
	"github.com/vyconsole/vyconsole/internal/opbuilder"
	"github.com/vyconsole/vyconsole/internal/urls"
)

// StaticRoute mirrors one "protocols static route" node.
type StaticRoute struct {
	Destination       string   `json:"destination"`
	Description       string   `json:"description,omitempty"`
	NextHops          []string `json:"next_hops,omitempty"`
	Interfaces        []string `json:"interfaces,omitempty"`
	Distance          string   `json:"distance,omitempty"`
	Blackhole         bool     `json:"blackhole,omitempty"`
	BlackholeDistance string   `json:"blackhole_distance,omitempty"`
}

// StaticRouteForm is the editable state of a static route.
type StaticRouteForm struct {
	Description       string   `json:"description" validate:"max=255"`
	NextHops          []string `json:"next_hops" validate:"dive,ip"`
	Interfaces        []string `json:"interfaces" validate:"dive,iface"`
	Distance          string   `json:"distance" validate:"omitempty,intrange=1:255"`
	Blackhole         bool     `json:"blackhole"`
	BlackholeDistance string   `json:"blackhole_distance" validate:"omitempty,intrange=1:255"`
}

// InitializeStaticRouteForm seeds the form from a route.
func InitializeStaticRouteForm(r *StaticRoute) StaticRouteForm {
	if r == nil {
		return StaticRouteForm{}
	}
	return StaticRouteForm{
		Description:       r.Description,
		NextHops:          append([]string(nil), r.NextHops...),
		Interfaces:        append([]string(nil), r.Interfaces...),
		Distance:          r.Distance,
		Blackhole:         r.Blackhole,
		BlackholeDistance: r.BlackholeDistance,
	}
}

// StaticRouteSpec maps StaticRouteForm to batch operations. Removed next
// hops are deleted before new ones are added.
var StaticRouteSpec = &opbuilder.Spec{
	Fields: []opbuilder.FieldSpec{
		{Name: "description", Kind: opbuilder.Scalar, SetOp: "set_description", DeleteOp: "delete_description"},
		{Name: "next_hops", Kind: opbuilder.List, SetOp: "set_next_hop", DeleteOp: "delete_next_hop"},
		{Name: "interfaces", Kind: opbuilder.List, SetOp: "set_interface", DeleteOp: "delete_interface"},
		{Name: "distance", Kind: opbuilder.Scalar, SetOp: "set_distance", DeleteOp: "delete_distance"},
		{Name: "blackhole", Kind: opbuilder.Boolean, SetOp: "set_blackhole", DeleteOp: "delete_blackhole"},
		{Name: "blackhole_distance", Kind: opbuilder.Scalar, SetOp: "set_blackhole_distance", DeleteOp: "delete_blackhole_distance"},
	},
	DeletesFirst: true,
}

// StaticRoutes is the static route category, keyed by destination prefix.
var StaticRoutes = &Kind[StaticRoute, StaticRouteForm]{
	Name:       "static-route",
	Title:      "Static routes",
	Path:       "/vyos/static-routes",
	Collection: "routes",
	Keys:       []KeyField{{Name: "destination", Help: "destination prefix, e.g. 10.0.0.0/8"}},
	Spec:       StaticRouteSpec,
	DeleteOp:   "delete_route",
	DocURL:     urls.VyOSStaticRoutes,
	KeyOf: func(r *StaticRoute) Key {
		return Key{"destination": r.Destination}
	},
	Initialize: InitializeStaticRouteForm,
}
