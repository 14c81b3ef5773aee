// Package graphql supplies gqlgen custom scalar marshalers for four of the
// engine's value types — graphdriver.Identifier, graphdriver.CalendarDate,
// time.Time timestamps, and *big.Int wide integers — so a server embedding
// the engine can declare these as GraphQL scalars and hand a pulled tree
// straight to gqlgen's resolvers. Node, relationship, and path values have
// no marshalers here.
package graphql

import (
	"fmt"
	"io"
	"math/big"
	"strconv"
	"time"

	"github.com/99designs/gqlgen/graphql"

	"github.com/syssam/ogm/graphdriver"
)

// MarshalIdentifier renders a node id the same way the engine's own query
// composer treats it: an opaque, already-encoded string.
func MarshalIdentifier(id graphdriver.Identifier) graphql.Marshaler {
	return graphql.WriterFunc(func(w io.Writer) {
		io.WriteString(w, strconv.Quote(string(id)))
	})
}

// UnmarshalIdentifier accepts only a string, matching field.Validate's own
// refusal to coerce an identifier from any other shape.
func UnmarshalIdentifier(v any) (graphdriver.Identifier, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("graphql: Identifier must be a string, got %T", v)
	}
	return graphdriver.Identifier(s), nil
}

// MarshalCalendarDate renders a CalendarDate as its "YYYY-MM-DD" form, the
// same rendering graphdriver.CalendarDate.String uses.
func MarshalCalendarDate(d graphdriver.CalendarDate) graphql.Marshaler {
	return graphql.WriterFunc(func(w io.Writer) {
		io.WriteString(w, strconv.Quote(d.String()))
	})
}

// UnmarshalCalendarDate parses a "YYYY-MM-DD" string. It never produces a
// time.Time, mirroring the field system's own refusal to let a timezoned
// value stand in for a calendar date.
func UnmarshalCalendarDate(v any) (graphdriver.CalendarDate, error) {
	s, ok := v.(string)
	if !ok {
		return graphdriver.CalendarDate{}, fmt.Errorf("graphql: CalendarDate must be a string, got %T", v)
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return graphdriver.CalendarDate{}, fmt.Errorf("graphql: CalendarDate %q is not YYYY-MM-DD: %w", s, err)
	}
	return graphdriver.CalendarDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// MarshalTimestamp renders a time.Time in RFC3339.
func MarshalTimestamp(t time.Time) graphql.Marshaler {
	return graphql.WriterFunc(func(w io.Writer) {
		io.WriteString(w, strconv.Quote(t.UTC().Format(time.RFC3339Nano)))
	})
}

// UnmarshalTimestamp parses an RFC3339 string.
func UnmarshalTimestamp(v any) (time.Time, error) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("graphql: Timestamp must be a string, got %T", v)
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("graphql: Timestamp %q is not RFC3339: %w", s, err)
	}
	return t, nil
}

// MarshalWideInt renders a *big.Int as a decimal string, not a GraphQL
// Int, since the field system's BigInt kind exists precisely because
// GraphQL/JSON numbers lose precision past 2^53.
func MarshalWideInt(bi *big.Int) graphql.Marshaler {
	return graphql.WriterFunc(func(w io.Writer) {
		if bi == nil {
			io.WriteString(w, "null")
			return
		}
		io.WriteString(w, strconv.Quote(bi.String()))
	})
}

// UnmarshalWideInt parses a decimal string into a *big.Int.
func UnmarshalWideInt(v any) (*big.Int, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("graphql: WideInt must be a string, got %T", v)
	}
	bi, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("graphql: WideInt %q is not a base-10 integer", s)
	}
	return bi, nil
}
