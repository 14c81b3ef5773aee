package graphql_test

import (
	"bytes"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contribgraphql "github.com/syssam/ogm/contrib/graphql"
	"github.com/syssam/ogm/graphdriver"
)

func TestIdentifierRoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	contribgraphql.MarshalIdentifier(graphdriver.Identifier("_1abcDEF")).MarshalGQL(&buf)
	assert.Equal(t, `"_1abcDEF"`, buf.String())

	id, err := contribgraphql.UnmarshalIdentifier("_1abcDEF")
	require.NoError(t, err)
	assert.Equal(t, graphdriver.Identifier("_1abcDEF"), id)

	_, err = contribgraphql.UnmarshalIdentifier(42)
	assert.Error(t, err)
}

func TestCalendarDateRoundTrip(t *testing.T) {
	t.Parallel()

	d := graphdriver.CalendarDate{Year: 2026, Month: time.March, Day: 5}
	var buf bytes.Buffer
	contribgraphql.MarshalCalendarDate(d).MarshalGQL(&buf)
	assert.Equal(t, `"2026-03-05"`, buf.String())

	decoded, err := contribgraphql.UnmarshalCalendarDate("2026-03-05")
	require.NoError(t, err)
	assert.True(t, d.Equal(decoded))

	_, err = contribgraphql.UnmarshalCalendarDate("not-a-date")
	assert.Error(t, err)
}

func TestTimestampRoundTrip(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 3, 5, 12, 30, 0, 0, time.UTC)
	var buf bytes.Buffer
	contribgraphql.MarshalTimestamp(ts).MarshalGQL(&buf)

	decoded, err := contribgraphql.UnmarshalTimestamp(ts.Format(time.RFC3339Nano))
	require.NoError(t, err)
	assert.True(t, ts.Equal(decoded))
}

func TestWideIntRoundTrip(t *testing.T) {
	t.Parallel()

	bi, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)

	var buf bytes.Buffer
	contribgraphql.MarshalWideInt(bi).MarshalGQL(&buf)
	assert.Equal(t, `"123456789012345678901234567890"`, buf.String())

	decoded, err := contribgraphql.UnmarshalWideInt("123456789012345678901234567890")
	require.NoError(t, err)
	assert.Equal(t, 0, bi.Cmp(decoded))

	_, err = contribgraphql.UnmarshalWideInt("not-a-number")
	assert.Error(t, err)
}
