package pull

import "github.com/syssam/ogm/field"

// fieldKind classifies one entry of a Shape for decoding purposes.
type fieldKind int

const (
	fieldRaw fieldKind = iota
	fieldMany
	fieldOne
	fieldCypher
	fieldDerived
)

// shapeField is one entry of a compiled Request: a raw, virtual, or
// derived property, plus enough context to either project it into a
// Cypher query or decode it back out of a returned row.
type shapeField struct {
	name string // the property/virtual/derived name as requested
	kind fieldKind

	// returnExpr is the full "expr AS name" text used in a top-level
	// RETURN clause. mapExpr is the bare value expression used instead
	// when this field is nested inside a parent's map-literal projection.
	returnExpr string
	mapExpr    string

	decl *field.Declaration // for fieldRaw
	sub  *Shape             // for fieldMany/fieldOne

	dependsOn []string                        // for fieldDerived
	compute   func(map[string]any) (any, error) // for fieldDerived

	// hidden marks a field included only to satisfy a derived property's
	// dependency, not because the caller requested it directly — decodeNode
	// omits it from the final result map.
	hidden bool
}

// Shape is the ordered projection plan a compiled Request produces. It
// implements cypher.ReturnShape so Fragment.Return(shape) can generate a
// RETURN clause from its keys, and pull.go uses it to decode each row
// returned by the store into a nested map[string]any tree.
type Shape struct {
	typeLabel string
	fields    []shapeField
}

// ReturnKeys implements cypher.ReturnShape: every non-derived field's full
// "expr AS name" projection text, in request order.
func (s *Shape) ReturnKeys() []string {
	keys := make([]string, 0, len(s.fields))
	for _, f := range s.fields {
		if f.kind == fieldDerived {
			continue
		}
		keys = append(keys, f.returnExpr)
	}
	return keys
}
