package ogmtest

import "sort"

type node struct {
	id     string
	labels map[string]struct{}
	props  map[string]any
}

func (n *node) labelList() []string {
	out := make([]string, 0, len(n.labels))
	for l := range n.labels {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

func (n *node) hasLabel(l string) bool {
	_, ok := n.labels[l]
	return ok
}

type edge struct {
	relType string
	from    string
	to      string
	props   map[string]any
}

// store is the shared in-memory graph. Driver holds one store; every Tx
// it opens reads and (for write transactions) mutates it directly,
// restoring a snapshot on rollback.
type store struct {
	nodes map[string]*node
	edges []*edge
}

func newStore() *store {
	return &store{nodes: make(map[string]*node)}
}

func (s *store) clone() *store {
	cp := &store{nodes: make(map[string]*node, len(s.nodes))}
	for id, n := range s.nodes {
		labels := make(map[string]struct{}, len(n.labels))
		for l := range n.labels {
			labels[l] = struct{}{}
		}
		props := make(map[string]any, len(n.props))
		for k, v := range n.props {
			props[k] = v
		}
		cp.nodes[id] = &node{id: id, labels: labels, props: props}
	}
	cp.edges = make([]*edge, len(s.edges))
	for i, e := range s.edges {
		props := make(map[string]any, len(e.props))
		for k, v := range e.props {
			props[k] = v
		}
		cp.edges[i] = &edge{relType: e.relType, from: e.from, to: e.to, props: props}
	}
	return cp
}

func (s *store) restore(snapshot *store) {
	s.nodes = snapshot.nodes
	s.edges = snapshot.edges
}

func (s *store) outgoing(nodeID string) []*edge {
	var out []*edge
	for _, e := range s.edges {
		if e.from == nodeID {
			out = append(out, e)
		}
	}
	return out
}

// CreateNode seeds the driver's store directly, bypassing the action
// runner — useful for building fixtures in tests before exercising pull
// or action against them.
func (d *Driver) CreateNode(id string, labels []string, props map[string]any) {
	n := &node{id: id, labels: make(map[string]struct{}, len(labels)), props: make(map[string]any, len(props))}
	for _, l := range labels {
		n.labels[l] = struct{}{}
	}
	for k, v := range props {
		n.props[k] = v
	}
	n.props["id"] = id
	d.store.nodes[id] = n
}

// NodeExists reports whether id currently carries the VNode label — false
// once GenericDelete has relabeled it to DeletedVNode, or if it was never
// created.
func (d *Driver) NodeExists(id string) bool {
	n, ok := d.store.nodes[id]
	return ok && n.hasLabel("VNode")
}

// CreateEdge seeds a relationship directly into the driver's store.
func (d *Driver) CreateEdge(relType, fromID, toID string, props map[string]any) {
	cp := make(map[string]any, len(props))
	for k, v := range props {
		cp[k] = v
	}
	d.store.edges = append(d.store.edges, &edge{relType: relType, from: fromID, to: toID, props: cp})
}
