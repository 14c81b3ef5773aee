package trigger

import (
	"fmt"

	"github.com/syssam/ogm"
	"github.com/syssam/ogm/field"
	"github.com/syssam/ogm/registry"
)

// RelationshipEdge is one outgoing edge of a relationship kind, as
// observed in the store.
type RelationshipEdge struct {
	TargetID     string
	TargetLabels []string
	Properties   map[string]any
}

// NodeState is a snapshot of one node's current labels, raw properties,
// and outgoing relationship edges (keyed by relationship name).
type NodeState struct {
	Labels        []string
	Properties    map[string]any
	Relationships map[string][]RelationshipEdge
}

func hasLabel(labels []string, want string) bool {
	for _, l := range labels {
		if l == want {
			return true
		}
	}
	return false
}

// Validate runs every spec.md §4.G check for nt against state. It returns
// the first violation found, walking checks in a fixed order (label
// invariants, then each declared property, then each declared
// relationship, each in its declaration order) so that repeated
// validation of the same bad state always reports the same error.
func Validate(nt *registry.NodeType, state NodeState) error {
	if err := validateLabels(nt, state); err != nil {
		return err
	}
	for _, name := range nt.PropertyOrder {
		decl := nt.Properties[name]
		if _, err := field.Validate(decl, state.Properties[name]); err != nil {
			if field.IsRangeError(err) {
				return &ogm.BigIntRangeError{Field: name, Value: fmt.Sprint(state.Properties[name])}
			}
			return ogm.NewValidationError(nt.Label, name, err.Error())
		}
	}
	for _, name := range nt.RelationshipOrder {
		rel := nt.Relationships[name]
		if err := validateRelationship(nt, rel, state.Relationships[name]); err != nil {
			return err
		}
	}
	return nil
}

// validateLabels enforces I1: a node must carry every label in its type's
// inheritance chain, plus the root label plus at least one other.
func validateLabels(nt *registry.NodeType, state NodeState) error {
	for _, want := range nt.Labels() {
		if !hasLabel(state.Labels, want) {
			return ogm.NewValidationError(nt.Label, "labels",
				"missing inherited label "+want)
		}
	}
	other := false
	for _, l := range state.Labels {
		if l != registry.RootLabel {
			other = true
			break
		}
	}
	if !other {
		return ogm.NewValidationError(nt.Label, "labels",
			"node must carry the root label plus at least one other")
	}
	return nil
}

func validateRelationship(nt *registry.NodeType, rel *registry.Relationship, edges []RelationshipEdge) error {
	switch rel.Cardinality {
	case registry.ToOneRequired:
		if len(edges) == 0 {
			return &ogm.RelationshipRequiredError{Entity: nt.Label, Relationship: rel.Name}
		}
		if len(edges) > 1 {
			return &ogm.RelationshipCardinalityError{
				Entity: nt.Label, Relationship: rel.Name,
				Cardinality: rel.Cardinality.String(), Count: len(edges),
			}
		}
	case registry.ToOneOrNone:
		if len(edges) > 1 {
			return &ogm.RelationshipCardinalityError{
				Entity: nt.Label, Relationship: rel.Name,
				Cardinality: rel.Cardinality.String(), Count: len(edges),
			}
		}
	case registry.ToManyUnique:
		seen := make(map[string]bool, len(edges))
		for _, e := range edges {
			if seen[e.TargetID] {
				return &ogm.RelationshipCardinalityError{
					Entity: nt.Label, Relationship: rel.Name,
					Cardinality: rel.Cardinality.String(), Count: len(edges),
				}
			}
			seen[e.TargetID] = true
		}
	case registry.ToMany:
		// any count, any duplicates allowed.
	}

	for _, e := range edges {
		if !targetLabelAllowed(rel.TargetTypes, e.TargetLabels) {
			return ogm.NewValidationError(nt.Label, rel.Name,
				"edge target does not carry any of the allowed labels "+joinLabels(rel.TargetTypes))
		}
		if err := validateEdgeProperties(nt.Label, rel, e.Properties); err != nil {
			return err
		}
	}
	return nil
}

func targetLabelAllowed(allowed, have []string) bool {
	for _, a := range allowed {
		if hasLabel(have, a) {
			return true
		}
	}
	return false
}

func validateEdgeProperties(entity string, rel *registry.Relationship, props map[string]any) error {
	for _, key := range rel.PropertyKeys {
		decl, ok := rel.Properties[key]
		if !ok {
			continue
		}
		if _, err := field.Validate(decl, props[key]); err != nil {
			return ogm.NewValidationError(entity, rel.Name+"."+key, err.Error())
		}
	}
	return nil
}

func joinLabels(labels []string) string {
	out := ""
	for i, l := range labels {
		if i > 0 {
			out += ", "
		}
		out += l
	}
	return out
}
