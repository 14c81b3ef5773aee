package ogmtest

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/syssam/ogm/cypher"
	"github.com/syssam/ogm/graphdriver"
)

// unwrapForcedInt strips cypher.ForcedInt's driver-facing wrapper and
// normalizes the underlying integer to int64, the shape every other
// handler in this package expects back from the store.
func unwrapForcedInt(v any) any {
	fi, ok := v.(cypher.ForcedInt)
	if !ok {
		return v
	}
	switch n := fi.V.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	default:
		return fi.V
	}
}

// Tx is an in-memory read or write transaction.
type Tx struct {
	store    *store
	snapshot *store
	write    bool
	changes  []graphdriver.Change
	done     bool
}

func (tx *Tx) Run(ctx context.Context, query string, params map[string]any) (graphdriver.Cursor, error) {
	q := strings.TrimSpace(query)
	switch {
	// Action-runner queries are checked first: several of them would also
	// satisfy simplePullRe's single-line MATCH...RETURN shape.
	case strings.Contains(q, "OPTIONAL MATCH (n)-[r]->(m)") && strings.Contains(q, "RETURN labels(n) AS labels"):
		return tx.execFetchNodeState(params)
	case strings.Contains(q, "RETURN u.id AS id LIMIT 1"):
		return tx.execFetchExists(params)
	case strings.Contains(q, "RETURN a.deletedNodesCount AS deletedNodesCount"):
		return tx.execReadActionRecord(params)
	case strings.Contains(q, "[:REVERTED]"):
		return tx.execLinkReverted(params)
	case strings.Contains(q, "paramsBlob: $paramsBlob"):
		return tx.execWriteAction(params)
	case strings.Contains(q, "REMOVE n:VNode") && strings.Contains(q, "SET n:DeletedVNode"):
		return tx.execGenericDelete(params)
	case strings.Contains(q, "SET n += $data RETURN n.id AS id"):
		return tx.execGenericUpdate(params)
	case createNodeRe.MatchString(q):
		return tx.execCreateNode(q, params)
	case simplePullRe.MatchString(q):
		return tx.execSimplePull(q, params)
	default:
		return nil, fmt.Errorf("ogmtest: unsupported query: %s", q)
	}
}

func (tx *Tx) Changes(ctx context.Context) ([]graphdriver.Change, error) {
	return tx.changes, nil
}

func (tx *Tx) Commit(ctx context.Context) error {
	tx.done = true
	return nil
}

func (tx *Tx) Rollback(ctx context.Context) error {
	if tx.write && !tx.done && tx.snapshot != nil {
		tx.store.restore(tx.snapshot)
	}
	tx.done = true
	return nil
}

func (tx *Tx) record(kind graphdriver.ChangeKind, nodeID string) {
	tx.changes = append(tx.changes, graphdriver.Change{Kind: kind, NodeID: graphdriver.Identifier(nodeID)})
}

// simplePullRe matches a virtual-free pull.Compile query: a MATCH with
// optional id filter, followed by a flat RETURN list of "var.prop AS
// alias" projections.
var simplePullRe = regexp.MustCompile(`^MATCH \((\w+):([\w:]+?)(?:\s*\{id:\s*\$(\w+)\})?\)\s+RETURN\s+(.+)$`)

func (tx *Tx) execSimplePull(q string, params map[string]any) (graphdriver.Cursor, error) {
	m := simplePullRe.FindStringSubmatch(q)
	varName, labelList, idParam, returnList := m[1], m[2], m[3], m[4]
	labels := strings.Split(labelList, ":")

	var rows []graphdriver.Row
	for _, n := range tx.store.nodes {
		if idParam != "" {
			if n.id != fmt.Sprint(params[idParam]) {
				continue
			}
		}
		ok := true
		for _, l := range labels {
			if !n.hasLabel(l) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		row := graphdriver.Row{}
		for _, entry := range strings.Split(returnList, ",") {
			entry = strings.TrimSpace(entry)
			parts := strings.Split(entry, " AS ")
			propExpr := strings.TrimSpace(parts[0])
			alias := strings.TrimSpace(parts[1])
			prop := strings.TrimPrefix(propExpr, varName+".")
			row[alias] = n.props[prop]
		}
		rows = append(rows, row)
	}
	return newCursor(rows), nil
}

// createNodeRe matches GenericCreate's `CREATE (n:Label1:Label2 $props)
// RETURN n.id AS id`.
var createNodeRe = regexp.MustCompile(`^CREATE \(n:([\w:]+) \$props\) RETURN n\.id AS id$`)

func (tx *Tx) execCreateNode(q string, params map[string]any) (graphdriver.Cursor, error) {
	m := createNodeRe.FindStringSubmatch(q)
	labels := strings.Split(m[1], ":")
	props, _ := params["props"].(map[string]any)
	id, _ := props["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("ogmtest: CREATE: props.id missing")
	}

	n := &node{id: id, labels: make(map[string]struct{}, len(labels)), props: make(map[string]any, len(props))}
	for _, l := range labels {
		n.labels[l] = struct{}{}
	}
	for k, v := range props {
		n.props[k] = v
	}
	tx.store.nodes[id] = n
	tx.record(graphdriver.ChangeCreated, id)

	return newCursor([]graphdriver.Row{{"id": id}}), nil
}

func (tx *Tx) execGenericUpdate(params map[string]any) (graphdriver.Cursor, error) {
	id, _ := params["id"].(string)
	n, ok := tx.store.nodes[id]
	if !ok {
		return newCursor(nil), nil
	}
	data, _ := params["data"].(map[string]any)
	for k, v := range data {
		n.props[k] = v
	}
	tx.record(graphdriver.ChangePropertySet, id)
	return newCursor([]graphdriver.Row{{"id": id}}), nil
}

func (tx *Tx) execGenericDelete(params map[string]any) (graphdriver.Cursor, error) {
	id, _ := params["id"].(string)
	n, ok := tx.store.nodes[id]
	if !ok || !n.hasLabel("VNode") {
		return newCursor(nil), nil
	}
	delete(n.labels, "VNode")
	n.labels["DeletedVNode"] = struct{}{}
	tx.record(graphdriver.ChangeLabelSet, id)
	return newCursor([]graphdriver.Row{{"id": id}}), nil
}

func (tx *Tx) execFetchNodeState(params map[string]any) (graphdriver.Cursor, error) {
	id, _ := params["id"].(string)
	n, ok := tx.store.nodes[id]
	if !ok || !n.hasLabel("VNode") {
		return newCursor(nil), nil
	}

	var edges []any
	for _, e := range tx.store.outgoing(id) {
		target, ok := tx.store.nodes[e.to]
		if !ok {
			continue
		}
		edges = append(edges, map[string]any{
			"relType":      e.relType,
			"targetId":     target.id,
			"targetLabels": target.labelList(),
			"relProps":     e.props,
		})
	}

	props := make(map[string]any, len(n.props))
	for k, v := range n.props {
		props[k] = v
	}

	row := graphdriver.Row{
		"labels": n.labelList(),
		"props":  props,
		"edges":  edges,
	}
	return newCursor([]graphdriver.Row{row}), nil
}

func (tx *Tx) execFetchExists(params map[string]any) (graphdriver.Cursor, error) {
	id, _ := params["id"].(string)
	if n, ok := tx.store.nodes[id]; ok && n.hasLabel("VNode") {
		return newCursor([]graphdriver.Row{{"id": n.id}}), nil
	}
	return newCursor(nil), nil
}

func (tx *Tx) execWriteAction(params map[string]any) (graphdriver.Cursor, error) {
	id := fmt.Sprintf("_action%d", len(tx.store.nodes)+1)
	n := &node{
		id:     id,
		labels: map[string]struct{}{"Action": {}, "VNode": {}},
		props: map[string]any{
			"id":                id,
			"type":              params["type"],
			"timestamp":         params["timestamp"],
			"tookMs":            unwrapForcedInt(params["tookMs"]),
			"description":       params["description"],
			"deletedNodesCount": unwrapForcedInt(params["deletedNodesCount"]),
			"paramsBlob":        params["paramsBlob"],
			"resultBlob":        params["resultBlob"],
		},
	}
	tx.store.nodes[id] = n
	tx.record(graphdriver.ChangeCreated, id)

	if userID, _ := params["userId"].(string); userID != "" {
		if _, ok := tx.store.nodes[userID]; ok {
			tx.store.edges = append(tx.store.edges, &edge{relType: "PERFORMED", from: userID, to: id})
		}
	}

	modifiedNodes, _ := params["modifiedNodes"].([]string)
	for _, nodeID := range modifiedNodes {
		tx.store.edges = append(tx.store.edges, &edge{relType: "MODIFIED", from: id, to: nodeID})
	}

	return newCursor([]graphdriver.Row{{"actionId": id}}), nil
}

func (tx *Tx) execReadActionRecord(params map[string]any) (graphdriver.Cursor, error) {
	id, _ := params["id"].(string)
	n, ok := tx.store.nodes[id]
	if !ok {
		return newCursor(nil), nil
	}
	row := graphdriver.Row{
		"deletedNodesCount": n.props["deletedNodesCount"],
		"paramsBlob":        n.props["paramsBlob"],
		"resultBlob":        n.props["resultBlob"],
	}
	return newCursor([]graphdriver.Row{row}), nil
}

func (tx *Tx) execLinkReverted(params map[string]any) (graphdriver.Cursor, error) {
	newID, _ := params["newId"].(string)
	oldID, _ := params["oldId"].(string)
	if _, ok := tx.store.nodes[newID]; !ok {
		return newCursor(nil), nil
	}
	if _, ok := tx.store.nodes[oldID]; !ok {
		return newCursor(nil), nil
	}
	tx.store.edges = append(tx.store.edges, &edge{relType: "REVERTED", from: newID, to: oldID})
	return newCursor(nil), nil
}
