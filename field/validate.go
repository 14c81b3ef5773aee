package field

import (
	"fmt"
	"math/big"
	"regexp"
	"time"

	"golang.org/x/text/cases"

	"github.com/syssam/ogm/graphdriver"
)

// identifierRe matches the engine's own id shape: a leading underscore
// followed by base62-safe characters. This is the same purely-syntactic
// check package cypher's HAS KEY rewriter applies to a bound runtime
// value to decide id-vs-slug, and it shares that check's documented blind
// spot: a slug that happens to start with an underscore and use only this
// charset is indistinguishable from an id.
var identifierRe = regexp.MustCompile(`^_[0-9A-Za-z]+$`)

// slugRe matches a human-readable slug: lowercase letters, digits, and
// internal hyphens.
var slugRe = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

var foldCaser = cases.Fold()

// FoldSlug returns the case-folded form of a slug, so two slugs that
// differ only in case fold to the same string. The HAS KEY rewriter in
// package cypher does not call it: it binds a slug exactly as given.
func FoldSlug(s string) string { return foldCaser.String(s) }

// Validate checks v against decl, returning the canonicalized value or an
// error describing why v does not conform. There is no coercion: a value
// of the wrong Go type for the kind is always rejected, never parsed.
func Validate(decl *Declaration, v any) (any, error) {
	if v == nil {
		if decl.Nullable_ {
			return nil, nil
		}
		return nil, fmt.Errorf("value is required")
	}
	out, err := validateKind(decl, v)
	if err != nil {
		return nil, err
	}
	for _, validator := range decl.Validators {
		if err := validator(out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func validateKind(decl *Declaration, v any) (any, error) {
	switch decl.Kind {
	case Identifier:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("identifier must be a string, got %T", v)
		}
		if !identifierRe.MatchString(s) {
			return nil, fmt.Errorf("identifier %q is not a well-formed id", s)
		}
		return s, nil

	case Int:
		n, ok := v.(int64)
		if !ok {
			if n32, ok32 := v.(int); ok32 {
				return int64(n32), nil
			}
			return nil, fmt.Errorf("expected an integer, got %T", v)
		}
		return n, nil

	case BigInt:
		bi, ok := v.(*big.Int)
		if !ok {
			return nil, fmt.Errorf("expected *big.Int, got %T (no string-to-int coercion)", v)
		}
		if decl.BigIntMin != nil && bi.Cmp(decl.BigIntMin) < 0 {
			return nil, &rangeError{value: bi.String()}
		}
		if decl.BigIntMax != nil && bi.Cmp(decl.BigIntMax) > 0 {
			return nil, &rangeError{value: bi.String()}
		}
		return bi, nil

	case Float:
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("expected a float, got %T", v)
		}
		return f, nil

	case String:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string, got %T", v)
		}
		return s, nil

	case Slug:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string, got %T", v)
		}
		if !slugRe.MatchString(s) {
			return nil, fmt.Errorf("slug %q is not lowercase-hyphen form", s)
		}
		return s, nil

	case Bool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected a bool, got %T", v)
		}
		return b, nil

	case Date:
		d, ok := v.(graphdriver.CalendarDate)
		if !ok {
			if _, isTime := v.(time.Time); isTime {
				return nil, fmt.Errorf("calendar dates must be graphdriver.CalendarDate, not time.Time (timezone hazard)")
			}
			return nil, fmt.Errorf("expected graphdriver.CalendarDate, got %T", v)
		}
		return d, nil

	case Timestamp:
		t, ok := v.(time.Time)
		if !ok {
			return nil, fmt.Errorf("expected time.Time, got %T", v)
		}
		return t, nil

	case Any:
		return validateAny(v)

	case RawNode:
		n, ok := v.(graphdriver.Node)
		if !ok {
			return nil, fmt.Errorf("expected graphdriver.Node, got %T", v)
		}
		return n, nil

	case RawRelationship:
		r, ok := v.(graphdriver.Relationship)
		if !ok {
			return nil, fmt.Errorf("expected graphdriver.Relationship, got %T", v)
		}
		return r, nil

	case RawPath:
		p, ok := v.(graphdriver.Path)
		if !ok {
			return nil, fmt.Errorf("expected graphdriver.Path, got %T", v)
		}
		return p, nil

	case List:
		items, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("expected a list, got %T", v)
		}
		out := make([]any, len(items))
		for i, item := range items {
			cv, err := Validate(decl.Elem, item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = cv
		}
		return out, nil

	case Record:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected a record, got %T", v)
		}
		out := make(map[string]any, len(decl.Fields))
		for _, name := range decl.FieldNames {
			fd := decl.Fields[name]
			cv, err := Validate(fd, m[name])
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", name, err)
			}
			out[name] = cv
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unhandled field kind %s", decl.Kind)
	}
}

// rangeError is what Validate returns for a BigInt outside its declared
// bounds; package trigger reports it as a *ogm.BigIntRangeError (the
// field package itself has no dependency on the root ogm package's error
// types, to avoid importers of field needing the rest of the engine).
type rangeError struct{ value string }

func (e *rangeError) Error() string { return fmt.Sprintf("%s is out of range", e.value) }

// IsRangeError reports whether err was produced by a BigInt range check.
func IsRangeError(err error) bool {
	_, ok := err.(*rangeError)
	return ok
}

func validateAny(v any) (any, error) {
	// Any must round-trip through msgpack, the same encoding the action
	// runner uses to persist opaque result payloads (see package action),
	// so that whatever is accepted here is guaranteed storable later.
	return anyRoundTrip(v)
}
