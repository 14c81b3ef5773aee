package pull

import (
	"github.com/syssam/ogm"
	"github.com/syssam/ogm/cypher"
	"github.com/syssam/ogm/registry"
)

// includeKind distinguishes the three virtual shapes spec.md §4.D names.
type includeKind int

const (
	includeMany includeKind = iota
	includeOne
	includeCypher
)

// virtualInclude is one requested virtual property, possibly gated behind
// a flag.
type virtualInclude struct {
	name   string
	kind   includeKind
	sub    *Request // nil for includeCypher
	ifFlag string   // empty means unconditional
}

// derivedInclude is one requested derived property, possibly gated behind
// a flag.
type derivedInclude struct {
	name   string
	ifFlag string
}

// branch is a set of additional includes only pulled when filter.Flags
// contains flag (spec.md §4.D conditional branches).
type branch struct {
	flag string
	sub  *Request
}

// Request is the chainable data-request tree spec.md §4.D describes: a
// target type plus the raw properties, virtual properties, derived
// properties, and conditional branches to include for it. Requesting the
// same raw property twice is a no-op; requesting one the target type
// doesn't declare records an *ogm.UnknownPropertyError that surfaces the
// next time the request is compiled or any further builder method is
// called.
type Request struct {
	target registry.TypeRef

	rawOrder []string
	rawSet   map[string]struct{}

	virtuals []virtualInclude
	deriveds []derivedInclude
	branches []branch

	err error
}

// New starts a request against target.
func New(target registry.TypeRef) *Request {
	return &Request{target: target, rawSet: make(map[string]struct{})}
}

// Target returns the request's target type reference.
func (r *Request) Target() registry.TypeRef { return r.target }

// Err returns the first builder error recorded against this request, or
// nil. Compile also returns it, but callers assembling nested requests may
// want to check it earlier.
func (r *Request) Err() error { return r.err }

func (r *Request) resolve() (*registry.NodeType, error) {
	if r.err != nil {
		return nil, r.err
	}
	nt, err := r.target.Resolve()
	if err != nil {
		r.err = err
		return nil, err
	}
	return nt, nil
}

// Prop adds one raw property to the request. Repeating a name already
// present is a no-op (first mention wins, per spec.md §4.D).
func (r *Request) Prop(name string) *Request {
	if r.err != nil {
		return r
	}
	if _, ok := r.rawSet[name]; ok {
		return r
	}
	nt, err := r.resolve()
	if err != nil {
		return r
	}
	if _, ok := nt.Property(name); !ok {
		r.err = &ogm.UnknownPropertyError{Type: nt.Label, Prop: name}
		return r
	}
	r.rawOrder = append(r.rawOrder, name)
	r.rawSet[name] = struct{}{}
	return r
}

// Props adds several raw properties in one call.
func (r *Request) Props(names ...string) *Request {
	for _, n := range names {
		r.Prop(n)
	}
	return r
}

// AllProps adds every raw property the target type declares, in its
// declared order, skipping any already present.
func (r *Request) AllProps() *Request {
	nt, err := r.resolve()
	if err != nil {
		return r
	}
	for _, name := range nt.PropertyOrder {
		if _, ok := r.rawSet[name]; ok {
			continue
		}
		r.rawOrder = append(r.rawOrder, name)
		r.rawSet[name] = struct{}{}
	}
	return r
}

// virtualRequested reports whether name has already been added to r.virtuals,
// mirroring Prop's first-mention-wins rule.
func (r *Request) virtualRequested(name string) bool {
	for _, v := range r.virtuals {
		if v.name == name {
			return true
		}
	}
	return false
}

func (r *Request) addVirtual(name string, kind includeKind, sub *Request, ifFlag string) *Request {
	if r.err != nil {
		return r
	}
	if r.virtualRequested(name) {
		return r
	}
	nt, err := r.resolve()
	if err != nil {
		return r
	}
	v, ok := nt.Virtuals[name]
	if !ok {
		r.err = &ogm.UnknownPropertyError{Type: nt.Label, Prop: name}
		return r
	}
	wantKind := map[includeKind]registry.VirtualKind{includeMany: registry.VirtualMany, includeOne: registry.VirtualOne, includeCypher: registry.VirtualCypher}[kind]
	if v.Kind != wantKind {
		r.err = &ogm.TypeError{Reason: nt.Label + "." + name + " is not a " + virtualKindName(wantKind) + " virtual"}
		return r
	}
	if sub != nil {
		if err := sub.Err(); err != nil {
			r.err = err
			return r
		}
	}
	r.virtuals = append(r.virtuals, virtualInclude{name: name, kind: kind, sub: sub, ifFlag: ifFlag})
	return r
}

func virtualKindName(k registry.VirtualKind) string {
	switch k {
	case registry.VirtualMany:
		return "ManyRelationship"
	case registry.VirtualOne:
		return "OneRelationship"
	default:
		return "CypherExpression"
	}
}

// IncludeMany requests a ManyRelationship virtual, projecting each
// collected target through sub.
func (r *Request) IncludeMany(name string, sub *Request) *Request {
	return r.addVirtual(name, includeMany, sub, "")
}

// IncludeManyIfFlag is IncludeMany, only pulled when filter.Flags
// contains flagName.
func (r *Request) IncludeManyIfFlag(name, flagName string, sub *Request) *Request {
	return r.addVirtual(name, includeMany, sub, flagName)
}

// IncludeOne requests a OneRelationship virtual, projecting the matched
// target (or nil) through sub.
func (r *Request) IncludeOne(name string, sub *Request) *Request {
	return r.addVirtual(name, includeOne, sub, "")
}

// IncludeCypher requests a scalar CypherExpression virtual.
func (r *Request) IncludeCypher(name string) *Request {
	return r.addVirtual(name, includeCypher, nil, "")
}

func (r *Request) derivedRequested(name string) bool {
	for _, d := range r.deriveds {
		if d.name == name {
			return true
		}
	}
	return false
}

func (r *Request) addDerived(name, ifFlag string) *Request {
	if r.err != nil {
		return r
	}
	if r.derivedRequested(name) {
		return r
	}
	nt, err := r.resolve()
	if err != nil {
		return r
	}
	if _, ok := nt.Derived[name]; !ok {
		r.err = &ogm.UnknownPropertyError{Type: nt.Label, Prop: name}
		return r
	}
	r.deriveds = append(r.deriveds, derivedInclude{name: name, ifFlag: ifFlag})
	return r
}

// Derived requests an unconditional derived property.
func (r *Request) Derived(name string) *Request {
	return r.addDerived(name, "")
}

// DerivedIfFlag requests a derived property only when filter.Flags
// contains flagName.
func (r *Request) DerivedIfFlag(name, flagName string) *Request {
	return r.addDerived(name, flagName)
}

// Branch adds a set of additional includes, built by fn against a fresh
// sub-request over the same target type, only pulled when filter.Flags
// contains flagName (spec.md §4.D conditional branches).
func (r *Request) Branch(flagName string, fn func(*Request)) *Request {
	if r.err != nil {
		return r
	}
	sub := New(r.target)
	fn(sub)
	if sub.err != nil {
		r.err = sub.err
		return r
	}
	r.branches = append(r.branches, branch{flag: flagName, sub: sub})
	return r
}

// Filter narrows a pull: an optional HAS KEY value, an optional WHERE
// fragment (whose literal text may reference the @this placeholder), an
// optional ORDER BY expression, a set of active flags gating conditional
// branches and flagged includes, and an optional LIMIT/SKIP.
type Filter struct {
	Key     *string
	Where   *cypher.Fragment
	OrderBy string
	Flags   map[string]struct{}
	Limit   *int
	Skip    *int
}

// HasFlag reports whether name is an active flag on the filter.
func (f Filter) HasFlag(name string) bool {
	if f.Flags == nil {
		return false
	}
	_, ok := f.Flags[name]
	return ok
}

// NewFilter returns an empty filter with no key, where, ordering, flags,
// limit, or skip.
func NewFilter() Filter {
	return Filter{}
}

// WithKey returns a copy of f that matches by identity/slug key.
func (f Filter) WithKey(key string) Filter {
	f.Key = &key
	return f
}

// WithFlags returns a copy of f with the given flags active.
func (f Filter) WithFlags(names ...string) Filter {
	flags := make(map[string]struct{}, len(f.Flags)+len(names))
	for k := range f.Flags {
		flags[k] = struct{}{}
	}
	for _, n := range names {
		flags[n] = struct{}{}
	}
	f.Flags = flags
	return f
}

// WithWhere returns a copy of f filtered additionally by where, whose
// literal text may reference the @this placeholder for the root node.
func (f Filter) WithWhere(where *cypher.Fragment) Filter {
	f.Where = where
	return f
}

// WithOrderBy returns a copy of f ordered by expr (using @this if it needs
// to reference the root node).
func (f Filter) WithOrderBy(expr string) Filter {
	f.OrderBy = expr
	return f
}

// WithLimit returns a copy of f limited to n rows.
func (f Filter) WithLimit(n int) Filter {
	f.Limit = &n
	return f
}

// WithSkip returns a copy of f skipping the first n rows.
func (f Filter) WithSkip(n int) Filter {
	f.Skip = &n
	return f
}
