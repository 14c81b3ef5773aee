package cypher

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/syssam/ogm"
	"github.com/syssam/ogm/registry"
)

// RelationshipRef is anything that renders as a relationship name when
// interpolated into a fragment.
type RelationshipRef interface {
	RelName() string
}

// ForcedInt wraps a value so its bound parameter is tagged to the driver
// as an integer rather than a floating value (spec.md §4.C).
type ForcedInt struct{ V any }

// Int is the forced-integer helper.
func Int(v any) ForcedInt { return ForcedInt{V: v} }

// ReturnShape is anything that can name the ordered set of keys a
// .Return(shape) clause should project. package pull's Shape implements
// this; cypher itself has no opinion on what a "shape" looks like beyond
// its key order.
type ReturnShape interface {
	ReturnKeys() []string
}

type interpKind int

const (
	interpTypeRef interpKind = iota
	interpRelName
	interpFragment
	interpForcedInt
	interpValue
)

type interpolation struct {
	kind         interpKind
	typeRef      registry.TypeRef
	typeRefValid bool // true when this placeholder sits at a label position
	relName      string
	frag         *Fragment
	value        any
}

// Fragment is the immutable composable query value spec.md §4.C describes:
// (stringParts, interpolations, explicitParams, returnShape?).
type Fragment struct {
	literals []string // len(literals) == len(interps)+1
	interps  []interpolation
	explicit map[string]any
	shape    ReturnShape

	compiled    bool
	queryString string
	params      map[string]any
}

// Expr builds a fragment from a template containing "?" interpolation
// slots, filled positionally from args. See the package doc for how each
// argument type renders.
func Expr(template string, args ...any) *Fragment {
	literals := strings.Split(template, "?")
	if len(literals)-1 != len(args) {
		panic(fmt.Sprintf("cypher: template has %d placeholders but %d args were given", len(literals)-1, len(args)))
	}
	interps := make([]interpolation, len(args))
	for i, a := range args {
		interp := classify(a)
		if interp.kind == interpTypeRef {
			interp.typeRefValid = endsAtLabelPosition(literals[i])
		}
		interps[i] = interp
	}
	return &Fragment{literals: literals, interps: interps}
}

// endsAtLabelPosition reports whether lit, the literal text immediately
// preceding a "?" placeholder, ends at one of the two syntactic positions
// a node-type reference may legally occupy: a label list ("(p:?",
// "(p:Foo:?") or a relationship-type head ("[:?"). Any other position —
// notably a property or parameter value slot — is not a label position,
// and a registry.TypeRef interpolated there fails with *ogm.TypeError
// rather than silently rendering its label chain (spec.md §4.C).
func endsAtLabelPosition(lit string) bool {
	trimmed := strings.TrimRight(lit, " \t\n")
	// A ":" directly inside "{...}" separates a map key from its value.
	depth := 0
	for i := len(trimmed) - 1; i >= 0 && depth >= 0; i-- {
		switch trimmed[i] {
		case ')', ']', '}':
			depth++
		case '(', '[':
			depth--
		case '{':
			if depth == 0 {
				return false
			}
			depth--
		}
	}
	return strings.HasSuffix(trimmed, ":")
}

// Raw builds a fragment from a literal string with no "?" interpolation.
// Named placeholders inside tpl ($key, ...) are bound with WithParams.
func Raw(tpl string) *Fragment {
	return &Fragment{literals: []string{tpl}}
}

func classify(a any) interpolation {
	switch v := a.(type) {
	case registry.TypeRef:
		return interpolation{kind: interpTypeRef, typeRef: v}
	case RelationshipRef:
		return interpolation{kind: interpRelName, relName: v.RelName()}
	case *Fragment:
		return interpolation{kind: interpFragment, frag: v}
	case ForcedInt:
		return interpolation{kind: interpForcedInt, value: v.V}
	default:
		return interpolation{kind: interpValue, value: v}
	}
}

// WithParams returns a new, uncompiled fragment with params merged into
// the receiver's explicit params. It never mutates the receiver. A
// registry.TypeRef value fails with *ogm.TypeError (a node type may only
// be interpolated in a label position, via Expr, never bound as a value).
// Re-setting an already-bound name fails with *ogm.DuplicateParamError.
func (f *Fragment) WithParams(params map[string]any) (*Fragment, error) {
	merged := make(map[string]any, len(f.explicit)+len(params))
	for k, v := range f.explicit {
		merged[k] = v
	}
	for k, v := range params {
		if _, ok := v.(registry.TypeRef); ok {
			return nil, &ogm.TypeError{Reason: fmt.Sprintf("param %q: a node type cannot be bound as a value", k)}
		}
		if _, exists := merged[k]; exists {
			return nil, &ogm.DuplicateParamError{Name: k}
		}
		merged[k] = v
	}
	cp := f.shallowCopy()
	cp.explicit = merged
	cp.compiled = false
	return cp, nil
}

// Return appends a RETURN clause generated from shape's keys and records
// the shape for downstream decoding.
func (f *Fragment) Return(shape ReturnShape) *Fragment {
	keys := shape.ReturnKeys()
	cp := f.shallowCopy()
	cp.literals = append(append([]string{}, f.literals[:len(f.literals)-1]...),
		f.literals[len(f.literals)-1]+" RETURN "+strings.Join(keys, ", "))
	cp.shape = shape
	cp.compiled = false
	return cp
}

// ReturnShape returns the shape recorded by Return, or nil.
func (f *Fragment) ReturnShape() ReturnShape { return f.shape }

// WithPlaceholders returns a new fragment with every occurrence of each
// key in repl replaced by its value across the fragment's literal text.
// It is how the pull compiler substitutes the @this token (spec.md §6)
// into a caller-supplied Where fragment before inlining it — the
// substitution happens here, at compile time, so the token never reaches
// the store.
func (f *Fragment) WithPlaceholders(repl map[string]string) *Fragment {
	cp := f.shallowCopy()
	for i, lit := range cp.literals {
		for k, v := range repl {
			lit = strings.ReplaceAll(lit, k, v)
		}
		cp.literals[i] = lit
	}
	cp.compiled = false
	return cp
}

func (f *Fragment) shallowCopy() *Fragment {
	cp := &Fragment{
		literals: append([]string(nil), f.literals...),
		interps:  append([]interpolation(nil), f.interps...),
		explicit: make(map[string]any, len(f.explicit)),
		shape:    f.shape,
	}
	for k, v := range f.explicit {
		cp.explicit[k] = v
	}
	return cp
}

// Compile lowers the fragment to its final query string and param map.
// It is idempotent; subsequent calls return the memoized result.
func (f *Fragment) Compile() error {
	if f.compiled {
		return nil
	}
	var sb strings.Builder
	params := make(map[string]any, len(f.explicit))
	for k, v := range f.explicit {
		params[k] = v
	}
	autoN := 0
	clauseN := 0

	for i, interp := range f.interps {
		sb.WriteString(f.literals[i])
		switch interp.kind {
		case interpTypeRef:
			if !interp.typeRefValid {
				return &ogm.TypeError{Reason: "a node type cannot be interpolated as a value; it may only appear in a label position"}
			}
			nt, err := interp.typeRef.Resolve()
			if err != nil {
				return err
			}
			sb.WriteString(strings.Join(nt.Labels(), ":"))

		case interpRelName:
			sb.WriteString(interp.relName)

		case interpFragment:
			if err := interp.frag.Compile(); err != nil {
				return err
			}
			clauseN++
			prefix := fmt.Sprintf("clause%d_", clauseN)
			renamed, err := renameAutoParams(interp.frag.queryString, prefix)
			if err != nil {
				return err
			}
			sb.WriteString(renamed)
			for k, v := range interp.frag.params {
				newKey := k
				if strings.HasPrefix(k, "p") {
					if _, isDigits := parseAutoSuffix(k); isDigits {
						newKey = prefix + k
					}
				}
				if _, exists := params[newKey]; exists {
					return &ogm.DuplicateParamError{Name: newKey}
				}
				params[newKey] = v
			}

		case interpForcedInt:
			autoN++
			name := "p" + strconv.Itoa(autoN)
			params[name] = ForcedInt{V: interp.value}
			sb.WriteString("$" + name)

		case interpValue:
			autoN++
			name := "p" + strconv.Itoa(autoN)
			params[name] = interp.value
			sb.WriteString("$" + name)
		}
	}
	sb.WriteString(f.literals[len(f.literals)-1])

	query, err := rewriteHasKey(sb.String(), params)
	if err != nil {
		return err
	}

	f.queryString = query
	f.params = params
	f.compiled = true
	return nil
}

// QueryString triggers compilation if necessary and returns the composed
// query text.
func (f *Fragment) QueryString() (string, error) {
	if err := f.Compile(); err != nil {
		return "", err
	}
	return f.queryString, nil
}

// Params triggers compilation if necessary (even if called before
// QueryString) and returns the bound parameter map.
func (f *Fragment) Params() (map[string]any, error) {
	if err := f.Compile(); err != nil {
		return nil, err
	}
	return f.params, nil
}

func parseAutoSuffix(name string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimPrefix(name, "p"))
	if err != nil {
		return 0, false
	}
	return n, true
}

// renameAutoParams rewrites every "$pN" occurrence in query to
// "$prefixpN", leaving explicitly-named params ("$key", ...) untouched.
func renameAutoParams(query, prefix string) (string, error) {
	var sb strings.Builder
	i := 0
	for i < len(query) {
		if query[i] == '$' {
			j := i + 1
			for j < len(query) && isIdentByte(query[j]) {
				j++
			}
			name := query[i+1 : j]
			if _, ok := parseAutoSuffix(name); ok && strings.HasPrefix(name, "p") {
				sb.WriteString("$" + prefix + name)
			} else {
				sb.WriteString(query[i:j])
			}
			i = j
			continue
		}
		sb.WriteByte(query[i])
		i++
	}
	return sb.String(), nil
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
