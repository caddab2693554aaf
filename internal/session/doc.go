// Package session holds the form state of one entity while it is edited
// and drives its submission.
//
// A Category wraps a vyos.Kind without exposing its type parameters. Open
// loads capabilities and configuration, seeds a form and returns an
// Editor. The editor overlays user input, validates it, computes the
// operation plan against the loaded snapshot and submits it as one batch
// followed by a config refresh. Delete and Move handle rule-numbered
// collections, where removing or moving a rule may renumber the rest of
// the list.
//
// Every submission is recorded through the audit package.
package session
