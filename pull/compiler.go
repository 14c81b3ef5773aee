package pull

import (
	"fmt"
	"strings"

	"github.com/syssam/ogm"
	"github.com/syssam/ogm/cypher"
	"github.com/syssam/ogm/registry"
)

// Compiler lowers Requests into Cypher, drawing fresh pattern-variable
// names from a per-label counter so repeated traversals of the same
// target type inside one query never collide (spec.md §4.E).
type Compiler struct {
	reg    *registry.Registry
	varSeq map[string]int
}

// NewCompiler returns a compiler that resolves forward references and
// virtual-property targets against reg.
func NewCompiler(reg *registry.Registry) *Compiler {
	return &Compiler{reg: reg, varSeq: make(map[string]int)}
}

func (c *Compiler) freshVar(label string) string {
	c.varSeq[label]++
	return fmt.Sprintf("_%s%d", strings.ToLower(sanitizeVar(label)), c.varSeq[label])
}

func sanitizeVar(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return "v"
	}
	return sb.String()
}

func substitute(tpl string, repl map[string]string) string {
	r := make([]string, 0, len(repl)*2)
	for k, v := range repl {
		r = append(r, k, v)
	}
	return strings.NewReplacer(r...).Replace(tpl)
}

// Compile lowers req and filter into a single executable fragment plus
// the Shape describing how to decode its rows.
func (c *Compiler) Compile(req *Request, filter Filter) (*cypher.Fragment, *Shape, error) {
	if err := req.Err(); err != nil {
		return nil, nil, err
	}
	nt, err := req.target.Resolve()
	if err != nil {
		return nil, nil, err
	}

	outerVar := c.freshVar(nt.Label)

	var matchFrag *cypher.Fragment
	if filter.Key != nil {
		matchFrag = cypher.Expr("MATCH "+outerVar+" HAS KEY ?", *filter.Key)
	} else {
		matchFrag = cypher.Expr("MATCH ("+outerVar+":?)", nt)
	}
	clauses := []*cypher.Fragment{matchFrag}

	if filter.Where != nil {
		whereFrag := filter.Where.WithPlaceholders(map[string]string{"@this": outerVar})
		clauses = append(clauses, cypher.Expr("WHERE ?", whereFrag))
	}

	fields, callBlocks, err := c.buildFields(nt, req, outerVar, "", filter.Flags)
	if err != nil {
		return nil, nil, err
	}
	for _, cb := range callBlocks {
		clauses = append(clauses, cypher.Raw(cb))
	}

	if filter.OrderBy != "" || filter.Limit != nil || filter.Skip != nil {
		carry := []string{outerVar}
		for _, f := range fields {
			if f.kind == fieldMany || f.kind == fieldOne {
				carry = append(carry, f.name)
			}
		}
		line := "WITH " + strings.Join(carry, ", ")
		if filter.OrderBy != "" {
			line += " ORDER BY " + substitute(filter.OrderBy, map[string]string{"@this": outerVar})
		}
		if filter.Skip != nil {
			line += fmt.Sprintf(" SKIP %d", *filter.Skip)
		}
		if filter.Limit != nil {
			line += fmt.Sprintf(" LIMIT %d", *filter.Limit)
		}
		clauses = append(clauses, cypher.Raw(line))
	}

	shape := &Shape{typeLabel: nt.Label, fields: fields}

	tpl := strings.TrimSpace(strings.Repeat("? ", len(clauses)))
	args := make([]any, len(clauses))
	for i, cl := range clauses {
		args[i] = cl
	}
	combined := cypher.Expr(tpl, args...)
	return combined.Return(shape), shape, nil
}

// buildFields lowers one node's requested raw/virtual/derived properties
// (including active conditional branches) into shapeFields plus the CALL
// subquery blocks its virtuals require. selfVar names the already-bound
// pattern variable for this node. relVar names the relationship variable
// bound by the enclosing ManyRelationship/OneRelationship pattern that
// reached this node, or "" at the request root — it lets a CypherExpression
// virtual on this node reference "@rel" to surface a relationship property
// alongside the target's own fields (spec.md §4.E).
func (c *Compiler) buildFields(nt *registry.NodeType, req *Request, selfVar, relVar string, flags map[string]struct{}) ([]shapeField, []string, error) {
	var fields []shapeField
	var callBlocks []string

	for _, name := range req.rawOrder {
		fields = append(fields, c.rawField(nt, name, selfVar, false))
	}

	for _, vi := range req.virtuals {
		if vi.ifFlag != "" && !hasFlag(flags, vi.ifFlag) {
			continue
		}
		f, cb, err := c.virtualField(nt, vi, selfVar, relVar, flags)
		if err != nil {
			return nil, nil, err
		}
		fields = append(fields, f)
		if cb != "" {
			callBlocks = append(callBlocks, cb)
		}
	}

	included := func(name string) bool {
		for _, f := range fields {
			if f.name == name {
				return true
			}
		}
		return false
	}

	for _, di := range req.deriveds {
		if di.ifFlag != "" && !hasFlag(flags, di.ifFlag) {
			continue
		}
		d := nt.Derived[di.name]
		for _, dep := range d.DependsOn {
			if included(dep) {
				continue
			}
			if _, ok := nt.Property(dep); !ok {
				return nil, nil, &ogm.UnknownPropertyError{Type: nt.Label, Prop: dep}
			}
			fields = append(fields, c.rawField(nt, dep, selfVar, true))
		}
		fields = append(fields, shapeField{
			name:      di.name,
			kind:      fieldDerived,
			dependsOn: d.DependsOn,
			compute:   d.Compute,
		})
	}

	for _, br := range req.branches {
		if !hasFlag(flags, br.flag) {
			continue
		}
		subFields, subCalls, err := c.buildFields(nt, br.sub, selfVar, relVar, flags)
		if err != nil {
			return nil, nil, err
		}
		for _, f := range subFields {
			if included(f.name) {
				continue
			}
			fields = append(fields, f)
		}
		callBlocks = append(callBlocks, subCalls...)
	}

	return fields, callBlocks, nil
}

func (c *Compiler) rawField(nt *registry.NodeType, name, selfVar string, hidden bool) shapeField {
	mapExpr := selfVar + "." + name
	return shapeField{
		name:       name,
		kind:       fieldRaw,
		returnExpr: mapExpr + " AS " + name,
		mapExpr:    mapExpr,
		decl:       nt.Properties[name],
		hidden:     hidden,
	}
}

// virtualField compiles one virtual include into its shapeField and, for
// ManyRelationship/OneRelationship, the CALL subquery block that computes
// it. The block is self-contained: it imports selfVar, runs its own
// OPTIONAL MATCH/ORDER BY/nested CALL pipeline, and exposes exactly one
// column named after the virtual, which the caller embeds back into its
// own clause list or map literal unchanged. relVar is the relationship
// variable, if any, that bound nt to its own parent (see buildFields).
func (c *Compiler) virtualField(nt *registry.NodeType, vi virtualInclude, selfVar, relVar string, flags map[string]struct{}) (shapeField, string, error) {
	v := nt.Virtuals[vi.name]

	switch vi.kind {
	case includeCypher:
		subst := map[string]string{"@this": selfVar}
		if relVar != "" {
			subst["@rel"] = relVar
		}
		expr := substitute(v.Pattern, subst)
		return shapeField{
			name:       vi.name,
			kind:       fieldCypher,
			returnExpr: "(" + expr + ") AS " + vi.name,
			mapExpr:    "(" + expr + ")",
		}, "", nil

	case includeMany, includeOne:
		targetNT, ok := c.reg.Lookup(v.Target)
		if !ok {
			return shapeField{}, "", &ogm.UnregisteredTypeError{Label: v.Target}
		}
		targetVar := c.freshVar(targetNT.Label)
		newRelVar := c.freshVar("rel")
		repl := map[string]string{"@this": selfVar, "@target": targetVar, "@rel": newRelVar}
		pattern := substitute(v.Pattern, repl)

		// Relationship properties the sub-request names via a
		// CypherExpression virtual on the target type (e.g. Pattern
		// "@rel.role") are resolved against newRelVar, the relationship
		// variable this very pattern just bound — that variable stays in
		// scope through the collect() below, so no extra WITH projection
		// is needed to carry it forward.
		subFields, nestedCalls, err := c.buildFields(targetNT, vi.sub, targetVar, newRelVar, flags)
		if err != nil {
			return shapeField{}, "", err
		}

		var lines []string
		lines = append(lines, "WITH "+selfVar)
		lines = append(lines, "OPTIONAL MATCH "+pattern)

		if vi.kind == includeMany {
			orderExpr := v.OrderBy
			if orderExpr == "" {
				orderExpr = targetNT.DefaultOrderBy
			}
			if orderExpr != "" {
				// newRelVar must stay in scope past this narrowing WITH:
				// a CypherExpression sub-field substituted against it is
				// only evaluated later, in the collect() map literal below.
				lines = append(lines, "WITH "+selfVar+", "+targetVar+", "+newRelVar+" ORDER BY "+substitute(orderExpr, repl))
			}
			lines = append(lines, nestedCalls...)
			// An OPTIONAL MATCH with no match still yields one row with
			// targetVar bound to null; collect() would then produce [null]
			// instead of an empty list, so the null is filtered out here.
			lines = append(lines, "WITH "+selfVar+", [_x IN collect("+mapLiteral(targetVar, subFields)+") WHERE _x IS NOT NULL] AS "+vi.name)
		} else {
			lines = append(lines, nestedCalls...)
			lines = append(lines, "WITH "+selfVar+", "+mapLiteral(targetVar, subFields)+" AS "+vi.name+" LIMIT 1")
		}

		callBlock := "CALL {\n  " + strings.Join(lines, "\n  ") + "\n  RETURN " + vi.name + "\n}"

		kind := fieldMany
		if vi.kind == includeOne {
			kind = fieldOne
		}
		return shapeField{
			name:       vi.name,
			kind:       kind,
			returnExpr: vi.name + " AS " + vi.name,
			mapExpr:    vi.name,
			sub:        &Shape{typeLabel: targetNT.Label, fields: subFields},
		}, callBlock, nil
	}

	return shapeField{}, "", fmt.Errorf("pull: unknown include kind")
}

// mapLiteral builds the Cypher map-literal text projecting varName's
// fields, keyed by request name. Derived fields are omitted: they are
// computed client-side after decoding, never sent to the store.
func mapLiteral(varName string, fields []shapeField) string {
	entries := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.kind == fieldDerived {
			continue
		}
		entries = append(entries, f.name+": "+f.mapExpr)
	}
	return varName + " {" + strings.Join(entries, ", ") + "}"
}

func hasFlag(flags map[string]struct{}, name string) bool {
	if flags == nil {
		return false
	}
	_, ok := flags[name]
	return ok
}
