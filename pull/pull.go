package pull

import (
	"context"

	"github.com/syssam/ogm"
	"github.com/syssam/ogm/graphdriver"
	"github.com/syssam/ogm/registry"
)

// Pull compiles req and filter against reg, runs the result against tx,
// and decodes every row into a result tree.
func Pull(ctx context.Context, tx graphdriver.Tx, reg *registry.Registry, req *Request, filter Filter) ([]map[string]any, error) {
	compiler := NewCompiler(reg)
	frag, shape, err := compiler.Compile(req, filter)
	if err != nil {
		return nil, err
	}
	query, err := frag.QueryString()
	if err != nil {
		return nil, err
	}
	params, err := frag.Params()
	if err != nil {
		return nil, err
	}

	cur, err := tx.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}

	var rows []map[string]any
	for cur.Next(ctx) {
		decoded, err := shape.decodeNode(map[string]any(cur.Record()))
		if err != nil {
			return nil, err
		}
		rows = append(rows, decoded)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// PullOne is Pull for a request expected to match exactly one row. It
// fails with *ogm.EmptyResultError if the result set is empty, or
// *ogm.AmbiguousResultError if it has more than one row (spec.md §7).
func PullOne(ctx context.Context, tx graphdriver.Tx, reg *registry.Registry, req *Request, filter Filter) (map[string]any, error) {
	rows, err := Pull(ctx, tx, reg, req, filter)
	if err != nil {
		return nil, err
	}
	nt, resolveErr := req.target.Resolve()
	label := ""
	if resolveErr == nil {
		label = nt.Label
	}
	if len(rows) == 0 {
		return nil, &ogm.EmptyResultError{Type: label}
	}
	if len(rows) > 1 {
		return nil, &ogm.AmbiguousResultError{Type: label, Count: len(rows)}
	}
	return rows[0], nil
}
