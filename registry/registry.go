package registry

import (
	"fmt"
	"sync"

	"github.com/syssam/ogm"
)

// TypeRef is anything a fragment or a virtual-property pattern can use in
// a label position: a concrete *NodeType, or a *Ref forward reference to
// one that may not be registered yet. RefLabel is always available —
// label reads and fragment construction work identically whether or not
// the referenced type is resolved yet. Relationship-descriptor reads
// (Ref.Relationship) resolve the type first, so they fail with
// *ogm.UnregisteredTypeError until it is registered. Otherwise Resolve is
// only called by the pull compiler and the query composer's Compile step,
// at which point the type must exist.
type TypeRef interface {
	RefLabel() string
	Resolve() (*NodeType, error)
}

// Registry is the process-wide label -> NodeType map.
type Registry struct {
	mu      sync.RWMutex
	byLabel map[string]*NodeType
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{byLabel: make(map[string]*NodeType)}
}

// Register adds nt under its own label. It fails if the label is already
// registered.
func (r *Registry) Register(nt *NodeType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byLabel[nt.Label]; exists {
		return fmt.Errorf("registry: label %q already registered", nt.Label)
	}
	r.byLabel[nt.Label] = nt
	return nil
}

// Lookup returns the registered type for label, if any.
func (r *Registry) Lookup(label string) (*NodeType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	nt, ok := r.byLabel[label]
	return nt, ok
}

// ForwardRef returns a proxy for label that resolves lazily against r.
// Node types routinely refer to each other in virtual-property targets
// before both sides are registered; ForwardRef lets that declaration order
// be arbitrary.
func (r *Registry) ForwardRef(label string) *Ref {
	return &Ref{reg: r, label: label}
}

// Ref is a registry-lookup proxy keyed by label. It implements TypeRef so
// it can stand in for a *NodeType anywhere one is accepted, including
// inside an uncompiled query fragment.
type Ref struct {
	reg   *Registry
	label string
}

// RefLabel returns the proxy's label, regardless of whether it has
// resolved yet.
func (p *Ref) RefLabel() string { return p.label }

// Resolve looks the label up in the registry. It is the only operation on
// Ref that can fail with an unregistered-type error, and the query
// composer only calls it when a fragment referencing this proxy is
// compiled (spec.md §4.B).
func (p *Ref) Resolve() (*NodeType, error) {
	nt, ok := p.reg.Lookup(p.label)
	if !ok {
		return nil, &ogm.UnregisteredTypeError{Label: p.label}
	}
	return nt, nil
}

// Relationship resolves the proxy and looks up one of its relationships.
func (p *Ref) Relationship(name string) (*Relationship, error) {
	nt, err := p.Resolve()
	if err != nil {
		return nil, err
	}
	r, ok := nt.Relationship(name)
	if !ok {
		return nil, fmt.Errorf("registry: %s has no relationship %q", nt.Label, name)
	}
	return r, nil
}
