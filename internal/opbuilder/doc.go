// Package opbuilder turns configuration form state into ordered batch operations.
//
// A VyOS management API accepts a batch of named set/delete primitives for one
// entity (an interface, a NAT rule, a prefix-list rule). This package computes
// the minimal ordered list of those primitives from the entity's last-known
// state and the values the user submitted.
//
// # Field-Spec Tables
//
// Each entity category declares a Spec: a table of fields and mutually
// exclusive choice groups. The builder walks the table in order, so the
// order of the table is the order of the batch.
//
//	var spec = &opbuilder.Spec{
//	    Fields: []opbuilder.FieldSpec{
//	        {Name: "description", Kind: opbuilder.Scalar, SetOp: "set_description", DeleteOp: "delete_description"},
//	        {Name: "addresses", Kind: opbuilder.List, SetOp: "set_address", DeleteOp: "delete_address"},
//	        {Name: "arp_accept", Kind: opbuilder.Boolean, SetOp: "set_ip_enable_arp_accept", Capability: "arp"},
//	    },
//	}
//
//	plan := opbuilder.Diff(current, form, spec, caps)
//
// A nil previous entity selects create mode: only set operations are emitted.
//
// # Renumbering
//
// Rule-numbered collections (prefix lists, route-maps, community lists) close
// numbering gaps after a delete. CloseGaps and MoveRule compute the
// old-to-new number mapping sent to the reorder endpoint.
package opbuilder
