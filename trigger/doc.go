// Package trigger implements the validation triggers spec.md §4.G runs
// against every node an action touches: label-inheritance completeness,
// the root-label-plus-one rule, per-relationship cardinality, and
// target-label/edge-property schema checks.
//
// Validate takes a NodeState — a plain snapshot of a node's current
// labels, properties, and outgoing relationship edges, as read back from
// the store after an action's apply step — and checks it against the
// node's registered *registry.NodeType. It has no graphdriver dependency
// of its own; package action is responsible for assembling a NodeState
// from the driver and calling Validate.
package trigger
