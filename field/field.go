package field

import (
	"fmt"
	"math/big"
)

// Kind enumerates the value shapes the field system can describe.
type Kind int

const (
	Identifier Kind = iota
	Int
	BigInt
	Float
	String
	Slug
	Bool
	Date
	Timestamp
	Record
	List
	Any
	RawNode
	RawRelationship
	RawPath
)

func (k Kind) String() string {
	switch k {
	case Identifier:
		return "Identifier"
	case Int:
		return "Int"
	case BigInt:
		return "BigInt"
	case Float:
		return "Float"
	case String:
		return "String"
	case Slug:
		return "Slug"
	case Bool:
		return "Bool"
	case Date:
		return "Date"
	case Timestamp:
		return "Timestamp"
	case Record:
		return "Record"
	case List:
		return "List"
	case Any:
		return "Any"
	case RawNode:
		return "RawNode"
	case RawRelationship:
		return "RawRelationship"
	case RawPath:
		return "RawPath"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Validator is one chained custom check run after the kind's own
// structural validation has already accepted the (canonicalized) value.
type Validator func(v any) error

// Declaration is the {kind, nullable, schema} triple spec.md §4.A describes.
// Declarations are immutable; every builder method returns a new value.
type Declaration struct {
	Kind       Kind
	Nullable_  bool
	Validators []Validator

	// BigIntMin/BigIntMax bound a BigInt declaration; nil means unbounded.
	BigIntMin, BigIntMax *big.Int

	// Elem is the element declaration of a List.
	Elem *Declaration

	// Fields is the member schema of a Record, in declaration order.
	FieldNames []string
	Fields     map[string]*Declaration
}

func (d *Declaration) clone() *Declaration {
	cp := *d
	cp.Validators = append([]Validator(nil), d.Validators...)
	return &cp
}

// Nullable wraps a declaration so validation accepts a Go nil as well as a
// conforming value. Wrapping is order-independent with respect to chained
// validators: Nullable(Int().Positive()) and Int().Positive() then wrapped
// both validate the same non-nil values the same way.
func Nullable(decl *Declaration) *Declaration {
	cp := decl.clone()
	cp.Nullable_ = true
	return cp
}

// Validate appends a custom validator to the declaration's chain.
func (d *Declaration) Validate(v Validator) *Declaration {
	cp := d.clone()
	cp.Validators = append(cp.Validators, v)
	return cp
}

// Min/Max convenience builders for BigInt declarations.
func (d *Declaration) Min(min *big.Int) *Declaration {
	cp := d.clone()
	cp.BigIntMin = min
	return cp
}

func (d *Declaration) Max(max *big.Int) *Declaration {
	cp := d.clone()
	cp.BigIntMax = max
	return cp
}

// Positive is sugar for a custom validator rejecting non-positive numeric
// values, mirroring the `.Positive()` chain callers write against numeric
// fields (e.g. AstroBody.mass in the action and trigger tests).
func (d *Declaration) Positive() *Declaration {
	return d.Validate(func(v any) error {
		switch n := v.(type) {
		case int64:
			if n <= 0 {
				return fmt.Errorf("must be positive, got %d", n)
			}
		case float64:
			if n <= 0 {
				return fmt.Errorf("must be positive, got %v", n)
			}
		}
		return nil
	})
}

// NotEmpty rejects the empty string.
func (d *Declaration) NotEmpty() *Declaration {
	return d.Validate(func(v any) error {
		if s, ok := v.(string); ok && s == "" {
			return fmt.Errorf("must not be empty")
		}
		return nil
	})
}

// MaxLen rejects strings longer than n runes.
func (d *Declaration) MaxLen(n int) *Declaration {
	return d.Validate(func(v any) error {
		if s, ok := v.(string); ok && len([]rune(s)) > n {
			return fmt.Errorf("must be at most %d characters", n)
		}
		return nil
	})
}

// --- Builders -----------------------------------------------------------

func NewIdentifier() *Declaration      { return &Declaration{Kind: Identifier} }
func NewInt() *Declaration             { return &Declaration{Kind: Int} }
func NewBigInt() *Declaration          { return &Declaration{Kind: BigInt} }
func NewFloat() *Declaration           { return &Declaration{Kind: Float} }
func NewString() *Declaration          { return &Declaration{Kind: String} }
func NewSlug() *Declaration            { return &Declaration{Kind: Slug} }
func NewBool() *Declaration            { return &Declaration{Kind: Bool} }
func NewDate() *Declaration            { return &Declaration{Kind: Date} }
func NewTimestamp() *Declaration       { return &Declaration{Kind: Timestamp} }
func NewAny() *Declaration             { return &Declaration{Kind: Any} }
func NewRawNode() *Declaration         { return &Declaration{Kind: RawNode} }
func NewRawRelationship() *Declaration { return &Declaration{Kind: RawRelationship} }
func NewRawPath() *Declaration         { return &Declaration{Kind: RawPath} }

// NewList declares a homogeneous list of elem.
func NewList(elem *Declaration) *Declaration {
	return &Declaration{Kind: List, Elem: elem}
}

// NewRecord declares a record of named member fields, in the given order.
func NewRecord(order []string, fields map[string]*Declaration) *Declaration {
	return &Declaration{Kind: Record, FieldNames: append([]string(nil), order...), Fields: fields}
}
