package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/vyconsole/vyconsole/internal/audit"
	"github.com/vyconsole/vyconsole/internal/capability"
	"github.com/vyconsole/vyconsole/internal/vyos"
	"github.com/vyconsole/vyconsole/internal/vyosapi"
)

// API is the part of the management API a session needs. *vyosapi.Client
// implements it.
type API interface {
	GetCapabilities(ctx context.Context, category string) (*capability.Matrix, error)
	GetConfig(ctx context.Context, category string, refresh bool) (json.RawMessage, error)
	ApplyBatch(ctx context.Context, category string, req *vyosapi.BatchRequest) (*vyosapi.BatchResponse, error)
	ApplyReorder(ctx context.Context, category string, req *vyosapi.ReorderRequest) (*vyosapi.BatchResponse, error)
}

var _ API = (*vyosapi.Client)(nil)

// Mode tells whether an editor creates a new entity or edits one.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// Option configures Open, Delete and Move.
type Option func(*options)

type options struct {
	profile string
	target  string
	audit   audit.Logger
}

// WithProfile records the profile name in audit events.
func WithProfile(name string) Option {
	return func(o *options) { o.profile = name }
}

// WithTarget records the API base URL in audit events.
func WithTarget(url string) Option {
	return func(o *options) { o.target = url }
}

// WithAudit sends audit events to l instead of the default logger.
func WithAudit(l audit.Logger) Option {
	return func(o *options) { o.audit = l }
}

func buildOptions(opts []Option) options {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func (o options) record(e *audit.Event) {
	e.WithProfile(o.profile)
	var err error
	if o.audit != nil {
		err = o.audit.Log(e)
	} else {
		err = audit.Log(e)
	}
	if err != nil {
		warnAudit(err)
	}
}

// Entry is one entity of a category listing.
type Entry struct {
	Key  vyos.Key
	Data json.RawMessage
}

// Category is a vyos.Kind with its type parameters erased.
type Category interface {
	Info() vyos.Info
	// Capabilities returns nil without error for categories that have no
	// capabilities endpoint.
	Capabilities(ctx context.Context, api API) (*capability.Matrix, error)
	List(ctx context.Context, api API, refresh bool) ([]Entry, error)
	Open(ctx context.Context, api API, key vyos.Key, opts ...Option) (Editor, error)
	Delete(ctx context.Context, api API, key vyos.Key, opts ...Option) (*DeleteResult, error)
	Move(ctx context.Context, api API, list string, rule, position int, opts ...Option) (*MoveResult, error)
	// NewForm returns a blank form, for listing field names.
	NewForm() any
}

var registry = []Category{
	Of(vyos.Ethernet),
	Of(vyos.VLAN),
	Of(vyos.NATSource),
	Of(vyos.NATDestination),
	Of(vyos.NATStatic),
	Of(vyos.Firewall),
	Of(vyos.StaticRoutes),
	Of(vyos.RouteMaps),
	Of(vyos.AccessLists),
	Of(vyos.PrefixLists),
	Of(vyos.ASPathLists),
	Of(vyos.CommunityLists),
	Of(vyos.ExtCommunityLists),
	Of(vyos.DHCPSubnets),
}

// Kinds returns every known category in display order.
func Kinds() []Category {
	return append([]Category(nil), registry...)
}

// Lookup finds a category by name.
func Lookup(name string) (Category, error) {
	for _, c := range registry {
		if c.Info().Name == name {
			return c, nil
		}
	}
	names := make([]string, 0, len(registry))
	for _, c := range registry {
		names = append(names, c.Info().Name)
	}
	sort.Strings(names)
	return nil, fmt.Errorf("unknown category %q (available: %s)", name, strings.Join(names, ", "))
}

// Open opens the entity of cat identified by key.
func Open(ctx context.Context, api API, cat Category, key vyos.Key, opts ...Option) (Editor, error) {
	return cat.Open(ctx, api, key, opts...)
}

// Delete removes the entity of cat identified by key.
func Delete(ctx context.Context, api API, cat Category, key vyos.Key, opts ...Option) (*DeleteResult, error) {
	return cat.Delete(ctx, api, key, opts...)
}

// Move moves a rule of a rule-numbered list to a 0-based position.
func Move(ctx context.Context, api API, cat Category, list string, rule, position int, opts ...Option) (*MoveResult, error) {
	return cat.Move(ctx, api, list, rule, position, opts...)
}
