// Package registry is the process-wide schema registry (spec.md §4.B): it
// maps a label to its registered NodeType, enforces uniqueness at
// Register time, and hands out forward-reference proxies so two node
// types can refer to each other (virtual properties routinely target the
// "other" type) without a load-order dependency cycle.
//
// The registry is written once, at process start, and read-only for the
// remainder of the process's life (spec.md §5) — the only synchronization
// it needs is a RWMutex guarding the one-time population.
package registry
