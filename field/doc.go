// Package field is the typed value palette node types use to describe
// their raw properties and relationship-edge properties.
//
// A Declaration records {kind, nullable, validators}; Validate(decl, v)
// returns the (possibly-canonicalized) value if it conforms, or a plain
// error saying why it does not (package trigger reports it as an
// *ogm.ValidationError). There is no implicit coercion: a string is
// never parsed into a number or a date, a native date-with-time value is
// never accepted where a CalendarDate is declared, and a wide-integer
// value outside its declared range fails with a range error (see
// IsRangeError; package trigger reports it as *ogm.BigIntRangeError)
// rather than silently wrapping.
//
// Nullability is its own wrapper, applied with Nullable(decl), so that
// chaining validators and wrapping nullability commute:
//
//	field.Nullable(field.NewInt().Positive())
//	field.Nullable(field.NewInt()).Positive() // same resulting validation
package field
