package action_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/ogm"
	"github.com/syssam/ogm/action"
	"github.com/syssam/ogm/cypher"
	"github.com/syssam/ogm/field"
	"github.com/syssam/ogm/graphdriver"
	"github.com/syssam/ogm/ogmtest"
	"github.com/syssam/ogm/registry"
)

func astroBodyRegistry() *registry.Registry {
	reg := registry.New()
	reg.Register(&registry.NodeType{
		Label:         "AstroBody",
		PropertyOrder: []string{"name", "mass"},
		Properties: map[string]*field.Declaration{
			"name": field.NewString().NotEmpty(),
			"mass": field.NewFloat().Positive(),
		},
	})
	return reg
}

func tableWithGenerics() *action.Table {
	table := action.NewTable()
	table.MustRegister(action.GenericCreate())
	table.MustRegister(action.GenericUpdate())
	table.MustRegister(action.GenericDelete())
	return table
}

// Scenario 4 (spec.md §8): creating a node without a required property
// fails ValidationError mentioning that property's name.
func TestRunAs_GenericCreateMissingRequiredPropertyFails(t *testing.T) {
	t.Parallel()

	driver := ogmtest.New()
	reg := astroBodyRegistry()
	table := tableWithGenerics()

	_, err := action.RunAs(context.Background(), driver, reg, table, action.SystemUserID,
		action.Request{Type: "GenericCreate", Params: map[string]any{
			"labels": []string{"AstroBody", "VNode"},
			"data":   map[string]any{"name": "Ceres"},
		}},
	)

	require.Error(t, err)
	var validation *ogm.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "mass", validation.Field)
}

func TestRunAs_GenericCreateValidNodeCommits(t *testing.T) {
	t.Parallel()

	driver := ogmtest.New()
	reg := astroBodyRegistry()
	table := tableWithGenerics()

	result, err := action.RunAs(context.Background(), driver, reg, table, action.SystemUserID,
		action.Request{Type: "GenericCreate", Params: map[string]any{
			"labels": []string{"AstroBody", "VNode"},
			"data":   map[string]any{"name": "Ceres", "mass": 9.38e20},
		}},
	)

	require.NoError(t, err)
	require.NotEmpty(t, result.ActionID)
	require.Len(t, result.Applied, 1)
	created, _ := result.Applied[0].ResultData.(map[string]any)
	assert.NotEmpty(t, created["id"])
}

// Scenario 6 (spec.md §8): undoing an action whose modifiedNodes include a
// purely-created node removes that node.
func TestUndo_RemovesCreatedNode(t *testing.T) {
	t.Parallel()

	driver := ogmtest.New()
	reg := astroBodyRegistry()
	table := tableWithGenerics()
	ctx := context.Background()

	result, err := action.RunAs(ctx, driver, reg, table, action.SystemUserID,
		action.Request{Type: "GenericCreate", Params: map[string]any{
			"labels": []string{"AstroBody", "VNode"},
			"data":   map[string]any{"name": "Ceres", "mass": 9.38e20},
		}},
	)
	require.NoError(t, err)
	createdID, _ := result.Applied[0].ResultData.(map[string]any)["id"].(string)
	require.True(t, driver.NodeExists(createdID))

	_, err = action.Undo(ctx, driver, reg, table, action.SystemUserID, result.ActionID)
	require.NoError(t, err)

	assert.False(t, driver.NodeExists(createdID))
}

// Scenario 6 (spec.md §8): undoing an action with deletedNodesCount > 0
// fails ActionNotUndoableError.
func TestUndo_FailsWhenActionDeletedNodes(t *testing.T) {
	t.Parallel()

	driver := ogmtest.New()
	reg := astroBodyRegistry()
	table := tableWithGenerics()
	ctx := context.Background()

	created, err := action.RunAs(ctx, driver, reg, table, action.SystemUserID,
		action.Request{Type: "GenericCreate", Params: map[string]any{
			"labels": []string{"AstroBody", "VNode"},
			"data":   map[string]any{"name": "Ceres", "mass": 9.38e20},
		}},
	)
	require.NoError(t, err)
	createdID, _ := created.Applied[0].ResultData.(map[string]any)["id"].(string)

	deleted, err := action.RunAs(ctx, driver, reg, table, action.SystemUserID,
		action.Request{Type: "GenericDelete", Params: map[string]any{"id": createdID}},
	)
	require.NoError(t, err)

	_, err = action.Undo(ctx, driver, reg, table, action.SystemUserID, deleted.ActionID)
	require.Error(t, err)
	var notUndoable *ogm.ActionNotUndoableError
	require.ErrorAs(t, err, &notUndoable)
}

func TestRunAs_InvalidUserFails(t *testing.T) {
	t.Parallel()

	driver := ogmtest.New()
	reg := astroBodyRegistry()
	table := tableWithGenerics()

	_, err := action.RunAs(context.Background(), driver, reg, table, "_not_a_real_user",
		action.Request{Type: "GenericCreate", Params: map[string]any{
			"labels": []string{"AstroBody", "VNode"},
			"data":   map[string]any{"name": "Ceres", "mass": 9.38e20},
		}},
	)

	require.Error(t, err)
	var invalidUser *ogm.InvalidUserError
	require.ErrorAs(t, err, &invalidUser)
}

// Step 2 of spec.md §4.F's pipeline: a request that writes a node it never
// names in ModifiedNodes fails UndeclaredModificationError, even though
// the write itself succeeded.
func TestRunAs_UndeclaredModificationFails(t *testing.T) {
	t.Parallel()

	driver := ogmtest.New()
	reg := astroBodyRegistry()
	table := action.NewTable()

	// A misbehaving definition that creates two nodes but only declares
	// one of them as modified, grounded directly in GenericCreate's own
	// "CREATE (n:Labels $props) RETURN n.id AS id" query shape.
	table.MustRegister(&action.Definition{
		Type: "SneakyCreate",
		Apply: func(ctx context.Context, tx graphdriver.Tx, params map[string]any) (action.ApplyResult, error) {
			declaredID, err := createAstroBody(ctx, tx, "Ceres", 9.38e20)
			if err != nil {
				return action.ApplyResult{}, err
			}
			if _, err := createAstroBody(ctx, tx, "Pallas", 2.11e20); err != nil {
				return action.ApplyResult{}, err
			}
			return action.ApplyResult{
				ResultData:    map[string]any{"id": declaredID},
				ModifiedNodes: []string{declaredID},
			}, nil
		},
	})

	_, err := action.RunAs(context.Background(), driver, reg, table, action.SystemUserID,
		action.Request{Type: "SneakyCreate"},
	)

	require.Error(t, err)
	var undeclared *ogm.UndeclaredModificationError
	require.ErrorAs(t, err, &undeclared)
	assert.Equal(t, "created", undeclared.Kind)
}

func createAstroBody(ctx context.Context, tx graphdriver.Tx, name string, mass float64) (string, error) {
	id := "_" + name
	frag, err := cypher.Raw(`CREATE (n:AstroBody:VNode $props) RETURN n.id AS id`).
		WithParams(map[string]any{"props": map[string]any{"id": id, "name": name, "mass": mass}})
	if err != nil {
		return "", err
	}
	query, err := frag.QueryString()
	if err != nil {
		return "", err
	}
	qparams, err := frag.Params()
	if err != nil {
		return "", err
	}
	cur, err := tx.Run(ctx, query, qparams)
	if err != nil {
		return "", err
	}
	if !cur.Next(ctx) {
		return "", cur.Err()
	}
	row := cur.Record()
	gotID, _ := row["id"].(string)
	return gotID, nil
}

func TestRunAs_UnregisteredActionTypeFails(t *testing.T) {
	t.Parallel()

	driver := ogmtest.New()
	reg := astroBodyRegistry()
	table := action.NewTable()

	_, err := action.RunAs(context.Background(), driver, reg, table, action.SystemUserID,
		action.Request{Type: "NoSuchAction"},
	)
	require.Error(t, err)
}
