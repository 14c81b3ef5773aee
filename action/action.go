package action

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/ogm"
	"github.com/syssam/ogm/cypher"
	"github.com/syssam/ogm/graphdriver"
	"github.com/syssam/ogm/registry"
	"github.com/syssam/ogm/trigger"
)

// SystemUserID is always resolvable as a user, even with no corresponding
// node in the store (spec.md §4.F: "the system user is always
// resolvable").
const SystemUserID = "_system"

// Result is what RunAs reports for one successfully committed batch.
type Result struct {
	ActionID string
	Applied  []ApplyResult
}

// RunAs executes requests as one write transaction on behalf of userID,
// implementing the five-step pipeline in spec.md §4.F. Any failure rolls
// the transaction back; no Action node is ever written for a failed
// batch.
func RunAs(ctx context.Context, driver graphdriver.Driver, reg *registry.Registry, table *Table, userID string, requests ...Request) (Result, error) {
	tx, err := driver.NewWriteTx(ctx)
	if err != nil {
		return Result{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	applied := make([]ApplyResult, 0, len(requests))
	for _, req := range requests {
		def, ok := table.lookup(req.Type)
		if !ok {
			return Result{}, fmt.Errorf("action: type %q is not registered", req.Type)
		}
		result, err := def.Apply(ctx, tx, req.Params)
		if err != nil {
			return Result{}, err
		}
		applied = append(applied, result)
	}

	declared := make(map[string]struct{})
	for _, r := range applied {
		for _, id := range r.ModifiedNodes {
			declared[id] = struct{}{}
		}
	}

	changes, err := tx.Changes(ctx)
	if err != nil {
		return Result{}, err
	}
	for _, c := range changes {
		if _, ok := declared[string(c.NodeID)]; !ok {
			return Result{}, &ogm.UndeclaredModificationError{Kind: string(c.Kind), NodeID: string(c.NodeID)}
		}
	}

	deletedCount := 0
	for id := range declared {
		state, exists, err := fetchNodeState(ctx, tx, id)
		if err != nil {
			return Result{}, err
		}
		if !exists {
			deletedCount++
			continue
		}
		nt, err := typeForLabels(reg, state.Labels)
		if err != nil {
			return Result{}, err
		}
		if err := trigger.Validate(nt, state); err != nil {
			return Result{}, err
		}
	}

	if userID != SystemUserID {
		resolved, err := fetchExists(ctx, tx, userID)
		if err != nil {
			return Result{}, err
		}
		if !resolved {
			return Result{}, &ogm.InvalidUserError{UserID: userID}
		}
	}

	actionID, err := writeAction(ctx, tx, actionRecord{
		actionType:        joinTypes(requests),
		description:       joinDescriptions(applied),
		tookMs:            0,
		deletedNodesCount: deletedCount,
		userID:            userID,
		modifiedNodes:     keys(declared),
		requests:          requests,
		resultData:        resultsOf(applied),
	})
	if err != nil {
		return Result{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Result{}, err
	}
	committed = true

	return Result{ActionID: actionID, Applied: applied}, nil
}

// Undo reverts the action identified by actionID, running its
// definition's Invert as a new RunAs batch and linking a REVERTED edge
// from the new action to the reverted one. It fails with
// *ogm.ActionNotUndoableError if the original action deleted any node, or
// if it cannot be resolved to a single invertible request.
func Undo(ctx context.Context, driver graphdriver.Driver, reg *registry.Registry, table *Table, userID, actionID string) (Result, error) {
	readTx, err := driver.NewReadTx(ctx)
	if err != nil {
		return Result{}, err
	}
	record, found, err := readActionRecord(ctx, readTx, actionID)
	_ = readTx.Rollback(ctx)
	if err != nil {
		return Result{}, err
	}
	if !found {
		return Result{}, &ogm.ActionNotUndoableError{ActionID: actionID, Reason: "action not found"}
	}
	if record.deletedNodesCount > 0 {
		return Result{}, &ogm.ActionNotUndoableError{ActionID: actionID, Reason: "action deleted nodes"}
	}
	if len(record.requests) != 1 {
		return Result{}, &ogm.ActionNotUndoableError{ActionID: actionID, Reason: "batch actions cannot be undone"}
	}
	orig := record.requests[0]
	def, ok := table.lookup(orig.Type)
	if !ok || def.Invert == nil {
		return Result{}, &ogm.ActionNotUndoableError{ActionID: actionID, Reason: "action type declares no invert"}
	}
	var resultData any
	if len(record.resultData) == 1 {
		resultData = record.resultData[0]
	}
	compensating, err := def.Invert(orig.Params, resultData)
	if err != nil {
		return Result{}, err
	}
	if compensating == nil {
		return Result{}, &ogm.ActionNotUndoableError{ActionID: actionID, Reason: "invert declined to produce a compensating request"}
	}

	result, err := RunAs(ctx, driver, reg, table, userID, *compensating)
	if err != nil {
		return Result{}, err
	}

	writeTx, err := driver.NewWriteTx(ctx)
	if err != nil {
		return result, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = writeTx.Rollback(ctx)
		}
	}()
	if err := linkReverted(ctx, writeTx, result.ActionID, actionID); err != nil {
		return result, err
	}
	if err := writeTx.Commit(ctx); err != nil {
		return result, err
	}
	committed = true

	return result, nil
}

func joinTypes(requests []Request) string {
	types := make([]string, len(requests))
	for i, r := range requests {
		types[i] = r.Type
	}
	return strings.Join(types, "+")
}

func joinDescriptions(applied []ApplyResult) string {
	descs := make([]string, 0, len(applied))
	for _, a := range applied {
		if a.Description != "" {
			descs = append(descs, a.Description)
		}
	}
	return strings.Join(descs, "; ")
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func resultsOf(applied []ApplyResult) []any {
	out := make([]any, len(applied))
	for i, a := range applied {
		out[i] = a.ResultData
	}
	return out
}

// fetchNodeState reads back a node's current labels, properties, and
// outgoing relationship edges, grouped by relationship type. exists is
// false if the node no longer matches (it was deleted during apply).
func fetchNodeState(ctx context.Context, tx graphdriver.Tx, nodeID string) (trigger.NodeState, bool, error) {
	frag, err := cypher.Raw(`MATCH (n:VNode {id: $id})
OPTIONAL MATCH (n)-[r]->(m)
RETURN labels(n) AS labels, properties(n) AS props,
       [x IN collect(CASE WHEN r IS NULL THEN null ELSE {relType: type(r), targetId: m.id, targetLabels: labels(m), relProps: properties(r)} END) WHERE x IS NOT NULL] AS edges`).
		WithParams(map[string]any{"id": nodeID})
	if err != nil {
		return trigger.NodeState{}, false, err
	}

	query, err := frag.QueryString()
	if err != nil {
		return trigger.NodeState{}, false, err
	}
	params, err := frag.Params()
	if err != nil {
		return trigger.NodeState{}, false, err
	}
	cur, err := tx.Run(ctx, query, params)
	if err != nil {
		return trigger.NodeState{}, false, err
	}
	if !cur.Next(ctx) {
		return trigger.NodeState{}, false, cur.Err()
	}
	row := cur.Record()

	state := trigger.NodeState{
		Labels:        asStringSlice(row["labels"]),
		Properties:    asMap(row["props"]),
		Relationships: map[string][]trigger.RelationshipEdge{},
	}
	for _, raw := range asAnySlice(row["edges"]) {
		e, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		relType, _ := e["relType"].(string)
		edge := trigger.RelationshipEdge{
			TargetID:     fmt.Sprint(e["targetId"]),
			TargetLabels: asStringSlice(e["targetLabels"]),
			Properties:   asMap(e["relProps"]),
		}
		state.Relationships[relType] = append(state.Relationships[relType], edge)
	}
	return state, true, nil
}

func fetchExists(ctx context.Context, tx graphdriver.Tx, id string) (bool, error) {
	frag, err := cypher.Raw(`MATCH (u:VNode {id: $id}) RETURN u.id AS id LIMIT 1`).WithParams(map[string]any{"id": id})
	if err != nil {
		return false, err
	}
	query, err := frag.QueryString()
	if err != nil {
		return false, err
	}
	params, err := frag.Params()
	if err != nil {
		return false, err
	}
	cur, err := tx.Run(ctx, query, params)
	if err != nil {
		return false, err
	}
	return cur.Next(ctx), cur.Err()
}

// typeForLabels picks the registered node type whose own label (not the
// root label) appears in labels. A node is expected to carry exactly one
// such most-specific registered label; the first match found is used.
func typeForLabels(reg *registry.Registry, labels []string) (*registry.NodeType, error) {
	for _, l := range labels {
		if l == registry.RootLabel {
			continue
		}
		if nt, ok := reg.Lookup(l); ok {
			return nt, nil
		}
	}
	return nil, &ogm.UnregisteredTypeError{Label: strings.Join(labels, ":")}
}

type actionRecord struct {
	actionType        string
	description       string
	tookMs            int64
	deletedNodesCount int
	userID            string
	modifiedNodes     []string
	requests          []Request
	resultData        []any
}

func writeAction(ctx context.Context, tx graphdriver.Tx, rec actionRecord) (string, error) {
	paramsBlob, err := msgpack.Marshal(requestsToBlobs(rec.requests))
	if err != nil {
		return "", err
	}
	resultBlob, err := msgpack.Marshal(rec.resultData)
	if err != nil {
		return "", err
	}

	frag, err := cypher.Raw(`CREATE (a:Action:VNode {
  type: $type,
  timestamp: $timestamp,
  tookMs: $tookMs,
  description: $description,
  deletedNodesCount: $deletedNodesCount,
  paramsBlob: $paramsBlob,
  resultBlob: $resultBlob
})
WITH a
OPTIONAL MATCH (u:VNode {id: $userId})
FOREACH (_ IN CASE WHEN u IS NULL THEN [] ELSE [1] END | CREATE (u)-[:PERFORMED]->(a))
WITH a
UNWIND (CASE WHEN size($modifiedNodes) = 0 THEN [null] ELSE $modifiedNodes END) AS nodeId
OPTIONAL MATCH (n:VNode {id: nodeId})
FOREACH (_ IN CASE WHEN n IS NULL THEN [] ELSE [1] END | CREATE (a)-[:MODIFIED]->(n))
RETURN a.id AS actionId`).WithParams(map[string]any{
		"type":              rec.actionType,
		"timestamp":         time.Now().UTC(),
		"tookMs":            cypher.Int(rec.tookMs),
		"description":       rec.description,
		"deletedNodesCount": cypher.Int(rec.deletedNodesCount),
		"paramsBlob":        paramsBlob,
		"resultBlob":        resultBlob,
		"userId":            rec.userID,
		"modifiedNodes":     rec.modifiedNodes,
	})
	if err != nil {
		return "", err
	}

	query, err := frag.QueryString()
	if err != nil {
		return "", err
	}
	params, err := frag.Params()
	if err != nil {
		return "", err
	}
	cur, err := tx.Run(ctx, query, params)
	if err != nil {
		return "", err
	}
	if !cur.Next(ctx) {
		if err := cur.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("action: CREATE did not return an action id")
	}
	row := cur.Record()
	id, _ := row["actionId"].(string)
	return id, nil
}

type requestBlob struct {
	Type   string
	Params map[string]any
}

func requestsToBlobs(requests []Request) []requestBlob {
	out := make([]requestBlob, len(requests))
	for i, r := range requests {
		out[i] = requestBlob{Type: r.Type, Params: r.Params}
	}
	return out
}

type storedRecord struct {
	deletedNodesCount int
	requests          []Request
	resultData        []any
}

func readActionRecord(ctx context.Context, tx graphdriver.Tx, actionID string) (storedRecord, bool, error) {
	frag, err := cypher.Raw(`MATCH (a:Action:VNode {id: $id}) RETURN a.deletedNodesCount AS deletedNodesCount, a.paramsBlob AS paramsBlob, a.resultBlob AS resultBlob`).
		WithParams(map[string]any{"id": actionID})
	if err != nil {
		return storedRecord{}, false, err
	}
	query, err := frag.QueryString()
	if err != nil {
		return storedRecord{}, false, err
	}
	params, err := frag.Params()
	if err != nil {
		return storedRecord{}, false, err
	}
	cur, err := tx.Run(ctx, query, params)
	if err != nil {
		return storedRecord{}, false, err
	}
	if !cur.Next(ctx) {
		return storedRecord{}, false, cur.Err()
	}
	row := cur.Record()

	var blobs []requestBlob
	if raw, ok := row["paramsBlob"].([]byte); ok {
		if err := msgpack.Unmarshal(raw, &blobs); err != nil {
			return storedRecord{}, false, err
		}
	}
	var resultData []any
	if raw, ok := row["resultBlob"].([]byte); ok {
		if err := msgpack.Unmarshal(raw, &resultData); err != nil {
			return storedRecord{}, false, err
		}
	}

	requests := make([]Request, len(blobs))
	for i, b := range blobs {
		requests[i] = Request{Type: b.Type, Params: b.Params}
	}

	deleted := 0
	if n, ok := row["deletedNodesCount"].(int64); ok {
		deleted = int(n)
	}

	return storedRecord{deletedNodesCount: deleted, requests: requests, resultData: resultData}, true, nil
}

func linkReverted(ctx context.Context, tx graphdriver.Tx, newActionID, revertedActionID string) error {
	frag, err := cypher.Raw(`MATCH (a:Action:VNode {id: $newId}) MATCH (b:Action:VNode {id: $oldId}) CREATE (a)-[:REVERTED]->(b)`).
		WithParams(map[string]any{"newId": newActionID, "oldId": revertedActionID})
	if err != nil {
		return err
	}
	query, err := frag.QueryString()
	if err != nil {
		return err
	}
	params, err := frag.Params()
	if err != nil {
		return err
	}
	_, err = tx.Run(ctx, query, params)
	return err
}

func asStringSlice(v any) []string {
	switch vs := v.(type) {
	case []string:
		return vs
	case []any:
		out := make([]string, 0, len(vs))
		for _, x := range vs {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func asAnySlice(v any) []any {
	switch vs := v.(type) {
	case []any:
		return vs
	default:
		return nil
	}
}

func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}
