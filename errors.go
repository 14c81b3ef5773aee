// Package ogm is the root package of a graph-database object-modeling
// engine: a typed schema registry, a Cypher-like fragment composer, a pull
// (read) compiler, and an action (write) runner, built atop a
// labeled-property-graph driver supplied by the embedding application.
package ogm

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for common outcomes.
var (
	// ErrEmptyResult is returned by PullOne when zero records matched.
	ErrEmptyResult = errors.New("ogm: expected one result, got none")

	// ErrAmbiguousResult is returned by PullOne when more than one record matched.
	ErrAmbiguousResult = errors.New("ogm: expected one result, got more than one")
)

// ValidationError reports that a raw property or relationship failed to
// validate against its field declaration (spec invariants I2/I3).
type ValidationError struct {
	Entity string // label of the node the failing field belongs to, if known
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Entity != "" {
		return fmt.Sprintf("ogm: validation failed for %s.%s: %s", e.Entity, e.Field, e.Reason)
	}
	return fmt.Sprintf("ogm: validation failed for %q: %s", e.Field, e.Reason)
}

// NewValidationError returns a new ValidationError for the given field.
func NewValidationError(entity, field, reason string) *ValidationError {
	return &ValidationError{Entity: entity, Field: field, Reason: reason}
}

// IsValidationError reports whether err is a *ValidationError.
func IsValidationError(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// BigIntRangeError reports a wide-integer value outside its declared range.
type BigIntRangeError struct {
	Field string
	Value string
}

func (e *BigIntRangeError) Error() string {
	return fmt.Sprintf("ogm: value %s out of range for big-int field %q", e.Value, e.Field)
}

// UnregisteredTypeError reports a fragment referencing a label that was
// never, or not yet, registered at compile time.
type UnregisteredTypeError struct {
	Label string
}

func (e *UnregisteredTypeError) Error() string {
	return fmt.Sprintf("ogm: type %q is not registered", e.Label)
}

// UnknownPropertyError reports a request builder call naming a property or
// virtual/derived field the target type never declared.
type UnknownPropertyError struct {
	Type string
	Prop string
}

func (e *UnknownPropertyError) Error() string {
	return fmt.Sprintf("ogm: %s has no property %q", e.Type, e.Prop)
}

// TypeError reports a composer misuse, such as interpolating a node-type
// reference at a value position.
type TypeError struct {
	Reason string
}

func (e *TypeError) Error() string { return fmt.Sprintf("ogm: %s", e.Reason) }

// DuplicateParamError reports a fragment parameter bound more than once.
type DuplicateParamError struct {
	Name string
}

func (e *DuplicateParamError) Error() string {
	return fmt.Sprintf("ogm: parameter %q is already bound", e.Name)
}

// MissingKeyParamError reports a `HAS KEY $name` occurrence whose `$name`
// has no bound value at compile time.
type MissingKeyParamError struct {
	Name string
}

func (e *MissingKeyParamError) Error() string {
	return fmt.Sprintf("ogm: HAS KEY $%s has no bound value", e.Name)
}

// UndeclaredModificationError reports that an action's transaction touched
// a node the action did not list in its modified-node set.
type UndeclaredModificationError struct {
	Kind   string // "created" | "deleted" | "property-set" | "label-set" | "relationship-changed"
	NodeID string
}

func (e *UndeclaredModificationError) Error() string {
	return fmt.Sprintf("ogm: node %s was %s but not declared as modified", e.NodeID, e.Kind)
}

// RelationshipRequiredError reports a ToOneRequired relationship missing
// its single mandatory edge.
type RelationshipRequiredError struct {
	Entity       string
	Relationship string
}

func (e *RelationshipRequiredError) Error() string {
	return fmt.Sprintf("ogm: %s.%s requires exactly one edge, found none", e.Entity, e.Relationship)
}

// RelationshipCardinalityError reports a relationship edge count violating
// its declared cardinality.
type RelationshipCardinalityError struct {
	Entity       string
	Relationship string
	Cardinality  string
	Count        int
}

func (e *RelationshipCardinalityError) Error() string {
	return fmt.Sprintf("ogm: %s.%s violates %s cardinality (found %d edges)",
		e.Entity, e.Relationship, e.Cardinality, e.Count)
}

// InvalidUserError reports that an action's userID does not resolve to a
// user node (the system user is always resolvable).
type InvalidUserError struct {
	UserID string
}

func (e *InvalidUserError) Error() string {
	return fmt.Sprintf("ogm: user %q does not resolve to a user node", e.UserID)
}

// ActionNotUndoableError reports that undoAction was called on an action
// that deleted nodes, or that declares no invert.
type ActionNotUndoableError struct {
	ActionID string
	Reason   string
}

func (e *ActionNotUndoableError) Error() string {
	return fmt.Sprintf("ogm: action %s cannot be undone: %s", e.ActionID, e.Reason)
}

// EmptyResultError reports PullOne matching zero records.
type EmptyResultError struct {
	Type string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("ogm: pullOne(%s): %v", e.Type, ErrEmptyResult)
}

func (e *EmptyResultError) Is(target error) bool { return target == ErrEmptyResult }

// AmbiguousResultError reports PullOne matching more than one record.
type AmbiguousResultError struct {
	Type  string
	Count int
}

func (e *AmbiguousResultError) Error() string {
	return fmt.Sprintf("ogm: pullOne(%s): %v (got %d)", e.Type, ErrAmbiguousResult, e.Count)
}

func (e *AmbiguousResultError) Is(target error) bool { return target == ErrAmbiguousResult }
