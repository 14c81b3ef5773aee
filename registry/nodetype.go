package registry

import "github.com/syssam/ogm/field"

// RootLabel is the label every persisted node carries (spec.md §3 I1, §6).
const RootLabel = "VNode"

// DeletedLabel is the label a tombstoned (deleted-but-retained) node
// carries instead of, or alongside, RootLabel.
const DeletedLabel = "DeletedVNode"

// Cardinality constrains how many edges of a relationship may originate
// from one node.
type Cardinality int

const (
	ToOneRequired Cardinality = iota
	ToOneOrNone
	ToManyUnique
	ToMany
)

func (c Cardinality) String() string {
	switch c {
	case ToOneRequired:
		return "ToOneRequired"
	case ToOneOrNone:
		return "ToOneOrNone"
	case ToManyUnique:
		return "ToManyUnique"
	case ToMany:
		return "ToMany"
	default:
		return "Cardinality(?)"
	}
}

// Relationship describes one outgoing edge type a node type declares.
type Relationship struct {
	Name         string
	TargetTypes  []string // allowed target labels
	Cardinality  Cardinality
	PropertyKeys []string
	Properties   map[string]*field.Declaration
}

// RelName implements cypher.RelationshipRef so a *Relationship can be
// interpolated into a query fragment, rendering as its relationship name.
func (r *Relationship) RelName() string { return r.Name }

// VirtualKind distinguishes the three shapes a virtual property can take.
type VirtualKind int

const (
	VirtualMany VirtualKind = iota
	VirtualOne
	VirtualCypher
)

// Virtual is a named traversal or scalar expression computed from the
// graph rather than stored as a raw property.
type Virtual struct {
	Name string
	Kind VirtualKind

	// Target is the node type label a ManyRelationship/OneRelationship
	// virtual's results belong to. Unused for VirtualCypher.
	Target string

	// Pattern is the graph-pattern fragment template for a relationship
	// virtual (using the @this/@target/@rel placeholders, spec.md §6), or
	// the scalar expression template for a VirtualCypher (using @this).
	Pattern string

	// OrderBy is an optional ordering expression for a relationship
	// virtual's collected results; empty means use the target type's
	// default ordering.
	OrderBy string
}

// Derived is a pure client-side projection over raw + virtual properties.
type Derived struct {
	Name      string
	DependsOn []string
	Compute   func(values map[string]any) (any, error)
}

// NodeType is a process-wide registered descriptor of a class of graph
// nodes (spec.md §3).
type NodeType struct {
	Label    string
	Inherits *NodeType // immediate parent in the inheritance chain, or nil

	PropertyOrder []string
	Properties    map[string]*field.Declaration

	RelationshipOrder []string
	Relationships     map[string]*Relationship

	VirtualOrder []string
	Virtuals     map[string]*Virtual

	DerivedOrder []string
	Derived      map[string]*Derived

	// DefaultOrderBy is used when a pull filter supplies no orderBy.
	DefaultOrderBy string
}

// Labels returns this type's full inheritance chain, most specific first,
// ending at the root label — the exact label set spec.md I1 requires
// every persisted node of this type to carry.
func (t *NodeType) Labels() []string {
	var chain []string
	for n := t; n != nil; n = n.Inherits {
		chain = append(chain, n.Label)
	}
	chain = append(chain, RootLabel)
	return chain
}

// RefLabel implements TypeRef.
func (t *NodeType) RefLabel() string { return t.Label }

// Resolve implements TypeRef: a concrete NodeType is already resolved.
func (t *NodeType) Resolve() (*NodeType, error) { return t, nil }

// Relationship looks up a declared outgoing relationship by name.
func (t *NodeType) Relationship(name string) (*Relationship, bool) {
	r, ok := t.Relationships[name]
	return r, ok
}

// Property looks up a declared raw property by name.
func (t *NodeType) Property(name string) (*field.Declaration, bool) {
	d, ok := t.Properties[name]
	return d, ok
}
