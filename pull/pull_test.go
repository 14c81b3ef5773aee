package pull_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/ogm"
	"github.com/syssam/ogm/field"
	"github.com/syssam/ogm/graphdriver"
	"github.com/syssam/ogm/pull"
	"github.com/syssam/ogm/registry"
)

// fakeCursor/fakeTx give pull_test a minimal in-process driver double so
// the compiler's query text can be exercised end to end without the full
// ogmtest fake (which exists for action/trigger-level tests).
type fakeCursor struct {
	rows []graphdriver.Row
	i    int
}

func (c *fakeCursor) Next(ctx context.Context) bool {
	if c.i >= len(c.rows) {
		return false
	}
	c.i++
	return true
}
func (c *fakeCursor) Record() graphdriver.Row { return c.rows[c.i-1] }
func (c *fakeCursor) Err() error              { return nil }

type fakeTx struct {
	run func(ctx context.Context, query string, params map[string]any) (graphdriver.Cursor, error)
}

func (t *fakeTx) Run(ctx context.Context, query string, params map[string]any) (graphdriver.Cursor, error) {
	return t.run(ctx, query, params)
}
func (t *fakeTx) Changes(ctx context.Context) ([]graphdriver.Change, error) { return nil, nil }
func (t *fakeTx) Commit(ctx context.Context) error                         { return nil }
func (t *fakeTx) Rollback(ctx context.Context) error                       { return nil }

func personMovieSchema() (*registry.Registry, *registry.NodeType, *registry.NodeType) {
	reg := registry.New()

	movie := &registry.NodeType{
		Label:          "Movie",
		PropertyOrder:  []string{"title", "year"},
		Properties: map[string]*field.Declaration{
			"title": field.NewString(),
			"year":  field.NewInt(),
		},
		DefaultOrderBy: "@target.year DESC",
	}
	if err := reg.Register(movie); err != nil {
		panic(err)
	}

	person := &registry.NodeType{
		Label:         "Person",
		PropertyOrder: []string{"name"},
		Properties: map[string]*field.Declaration{
			"name": field.NewString(),
		},
		VirtualOrder: []string{"movies"},
		Virtuals: map[string]*registry.Virtual{
			"movies": {
				Name:    "movies",
				Kind:    registry.VirtualMany,
				Target:  "Movie",
				Pattern: "(@this)-[@rel:ACTED_IN]->(@target:Movie)",
			},
		},
		DerivedOrder: []string{"movieCount"},
		Derived: map[string]*registry.Derived{
			"movieCount": {
				Name:      "movieCount",
				DependsOn: []string{"movies"},
				Compute: func(values map[string]any) (any, error) {
					list, _ := values["movies"].([]any)
					return len(list), nil
				},
			},
		},
	}
	if err := reg.Register(person); err != nil {
		panic(err)
	}

	return reg, person, movie
}

func TestCompile_Scenario5_ChrisPrattMoviesOrderedByYearDesc(t *testing.T) {
	t.Parallel()

	reg, person, _ := personMovieSchema()

	req := pull.New(person).Prop("name").IncludeMany("movies", pull.New(reg.ForwardRef("Movie")).Prop("title").Prop("year"))

	compiler := pull.NewCompiler(reg)
	frag, shape, err := compiler.Compile(req, pull.NewFilter())
	require.NoError(t, err)

	q, err := frag.QueryString()
	require.NoError(t, err)

	assert.Contains(t, q, "MATCH (_person1:Person:VNode)")
	assert.Contains(t, q, "OPTIONAL MATCH (_person1)-[_rel1:ACTED_IN]->(_movie1:Movie)")
	assert.Contains(t, q, "ORDER BY _movie1.year DESC")
	assert.Contains(t, q, "collect(_movie1 {title: _movie1.title, year: _movie1.year})")
	assert.Contains(t, q, "RETURN _person1.name AS name, movies AS movies")
	assert.Equal(t, []string{"_person1.name AS name", "movies AS movies"}, shape.ReturnKeys())
}

func TestPull_DecodesNestedRowsAndDerivedProperty(t *testing.T) {
	t.Parallel()

	reg, person, _ := personMovieSchema()
	req := pull.New(person).
		Prop("name").
		IncludeMany("movies", pull.New(reg.ForwardRef("Movie")).Prop("title").Prop("year")).
		Derived("movieCount")

	tx := &fakeTx{run: func(ctx context.Context, query string, params map[string]any) (graphdriver.Cursor, error) {
		return &fakeCursor{rows: []graphdriver.Row{
			{
				"name": "Chris Pratt",
				"movies": []any{
					map[string]any{"title": "Jurassic World", "year": int64(2015)},
					map[string]any{"title": "The Lego Movie", "year": int64(2014)},
				},
			},
		}}, nil
	}}

	rows, err := pull.Pull(context.Background(), tx, reg, req, pull.NewFilter())
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "Chris Pratt", rows[0]["name"])
	assert.Equal(t, 2, rows[0]["movieCount"])
	movies, ok := rows[0]["movies"].([]any)
	require.True(t, ok)
	require.Len(t, movies, 2)
	assert.Equal(t, "Jurassic World", movies[0].(map[string]any)["title"])
}

func TestPull_OptionalMatchWithNoTargetsDecodesToEmptyList(t *testing.T) {
	t.Parallel()

	reg, person, _ := personMovieSchema()
	req := pull.New(person).Prop("name").IncludeMany("movies", pull.New(reg.ForwardRef("Movie")).Prop("title"))

	tx := &fakeTx{run: func(ctx context.Context, query string, params map[string]any) (graphdriver.Cursor, error) {
		return &fakeCursor{rows: []graphdriver.Row{
			{"name": "Nobody", "movies": []any{}},
		}}, nil
	}}

	rows, err := pull.Pull(context.Background(), tx, reg, req, pull.NewFilter())
	require.NoError(t, err)
	assert.Equal(t, []any{}, rows[0]["movies"])
}

func TestPullOne_EmptyResultFails(t *testing.T) {
	t.Parallel()

	reg, person, _ := personMovieSchema()
	req := pull.New(person).Prop("name")

	tx := &fakeTx{run: func(ctx context.Context, query string, params map[string]any) (graphdriver.Cursor, error) {
		return &fakeCursor{rows: nil}, nil
	}}

	_, err := pull.PullOne(context.Background(), tx, reg, req, pull.NewFilter())
	require.Error(t, err)
	var empty *ogm.EmptyResultError
	require.ErrorAs(t, err, &empty)
	assert.Equal(t, "Person", empty.Type)
	assert.ErrorIs(t, err, ogm.ErrEmptyResult)
}

func TestPullOne_AmbiguousResultFails(t *testing.T) {
	t.Parallel()

	reg, person, _ := personMovieSchema()
	req := pull.New(person).Prop("name")

	tx := &fakeTx{run: func(ctx context.Context, query string, params map[string]any) (graphdriver.Cursor, error) {
		return &fakeCursor{rows: []graphdriver.Row{{"name": "A"}, {"name": "B"}}}, nil
	}}

	_, err := pull.PullOne(context.Background(), tx, reg, req, pull.NewFilter())
	require.Error(t, err)
	var ambiguous *ogm.AmbiguousResultError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, 2, ambiguous.Count)
}

func TestRequest_UnknownPropertyFailsAtCompile(t *testing.T) {
	t.Parallel()

	reg, person, _ := personMovieSchema()
	req := pull.New(person).Prop("nope")

	compiler := pull.NewCompiler(reg)
	_, _, err := compiler.Compile(req, pull.NewFilter())
	require.Error(t, err)
	var unknown *ogm.UnknownPropertyError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nope", unknown.Prop)
}

func TestRequest_AllPropsIsOrderedAndDeduped(t *testing.T) {
	t.Parallel()

	reg, person, _ := personMovieSchema()
	req := pull.New(person).Prop("name").AllProps()

	compiler := pull.NewCompiler(reg)
	_, shape, err := compiler.Compile(req, pull.NewFilter())
	require.NoError(t, err)
	assert.Equal(t, []string{"_person1.name AS name"}, shape.ReturnKeys())
}

func TestFilter_HasKeyNarrowsRootMatch(t *testing.T) {
	t.Parallel()

	reg, person, _ := personMovieSchema()
	req := pull.New(person).Prop("name")

	compiler := pull.NewCompiler(reg)
	frag, _, err := compiler.Compile(req, pull.NewFilter().WithKey("_1abcDEF"))
	require.NoError(t, err)

	q, err := frag.QueryString()
	require.NoError(t, err)
	assert.Contains(t, q, "(_person1:VNode {id: $clause1_p1})")

	params, err := frag.Params()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"clause1_p1": "_1abcDEF"}, params)
}

func TestBigIntDeclarationStillUsableAsRawField(t *testing.T) {
	t.Parallel()

	nt := &registry.NodeType{
		Label:         "Account",
		PropertyOrder: []string{"balance"},
		Properties: map[string]*field.Declaration{
			"balance": field.NewBigInt().Min(big.NewInt(0)),
		},
	}
	req := pull.New(nt).Prop("balance")
	compiler := pull.NewCompiler(registry.New())
	_, shape, err := compiler.Compile(req, pull.NewFilter())
	require.NoError(t, err)
	assert.Equal(t, []string{"_account1.balance AS balance"}, shape.ReturnKeys())
}
