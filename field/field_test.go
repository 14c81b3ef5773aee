package field_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/ogm/field"
	"github.com/syssam/ogm/graphdriver"
)

func TestValidate_Identifier(t *testing.T) {
	t.Parallel()

	decl := field.NewIdentifier()

	v, err := field.Validate(decl, "_52D")
	require.NoError(t, err)
	assert.Equal(t, "_52D", v)

	_, err = field.Validate(decl, "not-an-id")
	assert.Error(t, err)

	_, err = field.Validate(decl, 123)
	assert.Error(t, err, "no coercion from int")
}

func TestValidate_NoCoercion(t *testing.T) {
	t.Parallel()

	_, err := field.Validate(field.NewInt(), "42")
	assert.Error(t, err, "strings are never parsed into numbers")

	_, err = field.Validate(field.NewDate(), time.Now())
	assert.Error(t, err, "a native date-with-time value is never accepted for a calendar date")
}

func TestValidate_Nullable(t *testing.T) {
	t.Parallel()

	decl := field.Nullable(field.NewString().NotEmpty())

	v, err := field.Validate(decl, nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = field.Validate(decl, "ok")
	require.NoError(t, err)

	_, err = field.Validate(decl, "")
	assert.Error(t, err, "nullable does not relax the chained validator for a non-nil value")
}

func TestValidate_NullableOrderIndependent(t *testing.T) {
	t.Parallel()

	// Nullable(X.Positive()) and Nullable(X).Positive() must validate
	// identically: nil passes, a positive int passes, a non-positive int
	// fails.
	wrapThenChain := field.Nullable(field.NewInt()).Positive()
	chainThenWrap := field.Nullable(field.NewInt().Positive())

	for _, decl := range []*field.Declaration{wrapThenChain, chainThenWrap} {
		_, err := field.Validate(decl, nil)
		assert.NoError(t, err)

		_, err = field.Validate(decl, int64(5))
		assert.NoError(t, err)

		_, err = field.Validate(decl, int64(-5))
		assert.Error(t, err)
	}
}

func TestValidate_BigIntRange(t *testing.T) {
	t.Parallel()

	decl := field.NewBigInt().Min(big.NewInt(0)).Max(big.NewInt(100))

	v, err := field.Validate(decl, big.NewInt(50))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(50), v)

	_, err = field.Validate(decl, big.NewInt(101))
	require.Error(t, err)
	assert.True(t, field.IsRangeError(err))

	_, err = field.Validate(decl, "50")
	assert.Error(t, err, "no string-to-bigint coercion")
}

func TestValidate_CalendarDate(t *testing.T) {
	t.Parallel()

	decl := field.NewDate()
	d := graphdriver.CalendarDate{Year: 2024, Month: time.March, Day: 2}

	v, err := field.Validate(decl, d)
	require.NoError(t, err)
	assert.Equal(t, d, v)
}

func TestValidate_List(t *testing.T) {
	t.Parallel()

	decl := field.NewList(field.NewString())

	v, err := field.Validate(decl, []any{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, v)

	_, err = field.Validate(decl, []any{"a", 1})
	assert.Error(t, err)
}

func TestValidate_Record(t *testing.T) {
	t.Parallel()

	decl := field.NewRecord([]string{"since"}, map[string]*field.Declaration{
		"since": field.NewInt(),
	})

	v, err := field.Validate(decl, map[string]any{"since": int64(2020)})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"since": int64(2020)}, v)
}

func TestValidate_Any(t *testing.T) {
	t.Parallel()

	v, err := field.Validate(field.NewAny(), map[string]any{"k": "v"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"k": "v"}, v)
}

func TestFoldSlug(t *testing.T) {
	t.Parallel()

	assert.Equal(t, field.FoldSlug("ABC"), field.FoldSlug("abc"))
}
