// Package action implements the action runner (spec.md §4.F): a global
// table of named, validated, auditable mutating commands, a RunAs
// pipeline that wraps every write in validation and provenance recording,
// and an Undo facility for actions that declare how to invert themselves.
//
// An action's apply function is the only thing in this module allowed to
// mutate the store; RunAs cross-checks its declared modifiedNodes against
// the transaction's actual change set (graphdriver.Tx.Changes), runs
// package trigger's validation against every node still present in the
// store afterward, and only then writes the Action node and edges that
// make the write durable. Any failure rolls the whole transaction back —
// a write that never produces an Action node never happened.
package action
