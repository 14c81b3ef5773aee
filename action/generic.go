package action

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/syssam/ogm/cypher"
	"github.com/syssam/ogm/graphdriver"
)

// newNodeID generates a fresh node identifier. It is not itself subject to
// field-level Identifier validation; that happens through trigger.Validate
// once the node is read back during RunAs.
func newNodeID() string {
	return "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// GenericCreate builds the default create action (spec.md §6's "default
// create/update action builder", exercised by spec.md scenario 4). Its
// params are {labels []string, data map[string]any}; it writes a node
// carrying those labels plus the given properties and an id it assigns
// itself. It performs no property validation of its own — RunAs's
// post-apply trigger.Validate step is what enforces schema, so a caller
// omitting a required property still reaches the store and is rejected
// there, not here.
func GenericCreate() *Definition {
	return &Definition{
		Type: "GenericCreate",
		Apply: func(ctx context.Context, tx graphdriver.Tx, params map[string]any) (ApplyResult, error) {
			labels, err := stringList(params["labels"])
			if err != nil {
				return ApplyResult{}, fmt.Errorf("action: GenericCreate: %w", err)
			}
			data, _ := params["data"].(map[string]any)

			id := newNodeID()
			props := make(map[string]any, len(data)+1)
			for k, v := range data {
				props[k] = v
			}
			props["id"] = id

			labelClause := ":" + strings.Join(append([]string{}, labels...), ":")
			frag, err := cypher.Raw(fmt.Sprintf(`CREATE (n%s $props) RETURN n.id AS id`, labelClause)).
				WithParams(map[string]any{"props": props})
			if err != nil {
				return ApplyResult{}, err
			}
			query, err := frag.QueryString()
			if err != nil {
				return ApplyResult{}, err
			}
			qparams, err := frag.Params()
			if err != nil {
				return ApplyResult{}, err
			}
			cur, err := tx.Run(ctx, query, qparams)
			if err != nil {
				return ApplyResult{}, err
			}
			if !cur.Next(ctx) {
				if err := cur.Err(); err != nil {
					return ApplyResult{}, err
				}
				return ApplyResult{}, fmt.Errorf("action: GenericCreate: CREATE returned no row")
			}

			return ApplyResult{
				ResultData:    map[string]any{"id": id},
				ModifiedNodes: []string{id},
				Description:   fmt.Sprintf("created %s", strings.Join(labels, ":")),
			}, nil
		},
		Invert: func(params map[string]any, resultData any) (*Request, error) {
			result, ok := resultData.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("action: GenericCreate: invert requires resultData")
			}
			id, _ := result["id"].(string)
			if id == "" {
				return nil, fmt.Errorf("action: GenericCreate: invert could not recover the created node id")
			}
			return &Request{Type: "GenericDelete", Params: map[string]any{"id": id}}, nil
		},
	}
}

// GenericUpdate builds the default update action: params {id string, data
// map[string]any} set the given properties on the node matching id.
func GenericUpdate() *Definition {
	return &Definition{
		Type: "GenericUpdate",
		Apply: func(ctx context.Context, tx graphdriver.Tx, params map[string]any) (ApplyResult, error) {
			id, _ := params["id"].(string)
			if id == "" {
				return ApplyResult{}, fmt.Errorf("action: GenericUpdate: missing id")
			}
			data, _ := params["data"].(map[string]any)

			before, exists, err := fetchNodeState(ctx, tx, id)
			if err != nil {
				return ApplyResult{}, err
			}
			if !exists {
				return ApplyResult{}, fmt.Errorf("action: GenericUpdate: node %s not found", id)
			}
			previous := make(map[string]any, len(data))
			for k := range data {
				previous[k] = before.Properties[k]
			}

			frag, err := cypher.Raw(`MATCH (n:VNode {id: $id}) SET n += $data RETURN n.id AS id`).
				WithParams(map[string]any{"id": id, "data": data})
			if err != nil {
				return ApplyResult{}, err
			}
			query, err := frag.QueryString()
			if err != nil {
				return ApplyResult{}, err
			}
			qparams, err := frag.Params()
			if err != nil {
				return ApplyResult{}, err
			}
			cur, err := tx.Run(ctx, query, qparams)
			if err != nil {
				return ApplyResult{}, err
			}
			if !cur.Next(ctx) {
				if err := cur.Err(); err != nil {
					return ApplyResult{}, err
				}
				return ApplyResult{}, fmt.Errorf("action: GenericUpdate: node %s not found", id)
			}

			return ApplyResult{
				ResultData:    map[string]any{"id": id, "previous": previous},
				ModifiedNodes: []string{id},
				Description:   fmt.Sprintf("updated %s", id),
			}, nil
		},
		Invert: func(params map[string]any, resultData any) (*Request, error) {
			id, _ := params["id"].(string)
			result, ok := resultData.(map[string]any)
			if !ok || id == "" {
				return nil, fmt.Errorf("action: GenericUpdate: invert requires resultData")
			}
			previous, _ := result["previous"].(map[string]any)
			return &Request{Type: "GenericUpdate", Params: map[string]any{"id": id, "data": previous}}, nil
		},
	}
}

// GenericDelete builds the default delete action: params {id string}
// remove the VNode label from the matching node and add DeletedVNode, the
// "deleted-but-retained" layout external interfaces describe; the node's
// own type labels and properties stay in place. It is not invertible:
// GenericDelete.Invert is nil and Undo on a delete always fails with
// ActionNotUndoableError, consistent with scenario 6.
func GenericDelete() *Definition {
	return &Definition{
		Type: "GenericDelete",
		Apply: func(ctx context.Context, tx graphdriver.Tx, params map[string]any) (ApplyResult, error) {
			id, _ := params["id"].(string)
			if id == "" {
				return ApplyResult{}, fmt.Errorf("action: GenericDelete: missing id")
			}
			frag, err := cypher.Raw(`MATCH (n:VNode {id: $id})
REMOVE n:VNode
SET n:DeletedVNode
RETURN n.id AS id`).WithParams(map[string]any{"id": id})
			if err != nil {
				return ApplyResult{}, err
			}
			query, err := frag.QueryString()
			if err != nil {
				return ApplyResult{}, err
			}
			qparams, err := frag.Params()
			if err != nil {
				return ApplyResult{}, err
			}
			cur, err := tx.Run(ctx, query, qparams)
			if err != nil {
				return ApplyResult{}, err
			}
			if !cur.Next(ctx) {
				if err := cur.Err(); err != nil {
					return ApplyResult{}, err
				}
				return ApplyResult{}, fmt.Errorf("action: GenericDelete: node %s not found", id)
			}

			return ApplyResult{
				ResultData:    map[string]any{"id": id},
				ModifiedNodes: []string{id},
				Description:   fmt.Sprintf("deleted %s", id),
			}, nil
		},
	}
}

func stringList(v any) ([]string, error) {
	switch vs := v.(type) {
	case []string:
		return vs, nil
	case []any:
		out := make([]string, 0, len(vs))
		for _, x := range vs {
			s, ok := x.(string)
			if !ok {
				return nil, fmt.Errorf("labels must all be strings")
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("missing labels")
	}
}
