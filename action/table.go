package action

import (
	"context"
	"fmt"
	"sync"

	"github.com/syssam/ogm/graphdriver"
)

// Request names one action to run and the parameters to run it with.
type Request struct {
	Type   string
	Params map[string]any
}

// ApplyResult is what an action's Apply function reports after mutating
// the store: the caller-facing result payload, the set of node
// identifiers it touched, and a human-readable description for the
// Action record.
type ApplyResult struct {
	ResultData    any
	ModifiedNodes []string
	Description   string
}

// Definition is one registered action: its apply function, and an
// optional invert function used by Undo.
type Definition struct {
	Type string

	Apply func(ctx context.Context, tx graphdriver.Tx, params map[string]any) (ApplyResult, error)

	// Invert computes the compensating request for undoing one
	// application of this action, or (nil, nil) if this particular
	// application cannot be undone. A Definition with a nil Invert can
	// never be undone at all.
	Invert func(params map[string]any, resultData any) (*Request, error)
}

// Table is the process-wide type -> Definition map (spec.md §4.F).
type Table struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

// NewTable returns an empty action table.
func NewTable() *Table {
	return &Table{defs: make(map[string]*Definition)}
}

// Register adds def under its own type. It fails if that type is already
// registered.
func (t *Table) Register(def *Definition) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.defs[def.Type]; exists {
		return fmt.Errorf("action: type %q is already registered", def.Type)
	}
	t.defs[def.Type] = def
	return nil
}

// MustRegister is Register, panicking on failure. It is meant for
// process-init-time registration, mirroring registry.Registry's own
// write-once-then-read-only lifecycle.
func (t *Table) MustRegister(def *Definition) {
	if err := t.Register(def); err != nil {
		panic(err)
	}
}

// lookup returns the registered definition for typ, if any.
func (t *Table) lookup(typ string) (*Definition, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	d, ok := t.defs[typ]
	return d, ok
}
