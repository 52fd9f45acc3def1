package graph

import (
	"fmt"
	"slices"

	"github.com/matzehuels/thoughtgraph/pkg/document"
)

// Graph is the semantic node/edge structure derived from a Document.
//
// Nodes and edges keep document order, which keeps renders stable between
// loads. A Graph is never modified after construction and is safe for
// concurrent readers.
type Graph struct {
	nodes     []*Node
	edges     []Edge
	index     map[string]*Node
	outgoing  map[string][]string // nodeID -> target IDs
	incoming  map[string][]string // nodeID -> source IDs
	labelKeys []string
}

func newGraph(labelKeys []string) *Graph {
	return &Graph{
		index:     make(map[string]*Node),
		outgoing:  make(map[string][]string),
		incoming:  make(map[string][]string),
		labelKeys: labelKeys,
	}
}

func (g *Graph) addNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.index[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Attrs == nil {
		n.Attrs = Attrs{}
	}
	node := &n
	g.nodes = append(g.nodes, node)
	g.index[node.ID] = node
	return nil
}

func (g *Graph) addEdge(e Edge) error {
	if _, ok := g.index[e.Source]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := g.index[e.Target]; !ok {
		return ErrUnknownTargetNode
	}
	if e.Attrs == nil {
		e.Attrs = Attrs{}
	}
	g.edges = append(g.edges, e)
	g.outgoing[e.Source] = append(g.outgoing[e.Source], e.Target)
	g.incoming[e.Target] = append(g.incoming[e.Target], e.Source)
	return nil
}

// Node returns the node with the given ID and true, or nil and false if not found.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.index[id]
	return n, ok
}

// Nodes returns all nodes in document order.
func (g *Graph) Nodes() []*Node { return slices.Clone(g.nodes) }

// Edges returns all edges in document order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Children returns the targets of edges leaving id, in edge order.
// The returned slice must not be modified.
func (g *Graph) Children(id string) []string { return g.outgoing[id] }

// Parents returns the sources of edges entering id, in edge order.
// The returned slice must not be modified.
func (g *Graph) Parents(id string) []string { return g.incoming[id] }

// OutDegree returns the number of outgoing edges from the node.
func (g *Graph) OutDegree(id string) int { return len(g.outgoing[id]) }

// InDegree returns the number of incoming edges to the node.
func (g *Graph) InDegree(id string) int { return len(g.incoming[id]) }

// Sources returns nodes with no incoming edges, in document order.
func (g *Graph) Sources() []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if len(g.incoming[n.ID]) == 0 {
			out = append(out, n)
		}
	}
	return out
}

// Sinks returns nodes with no outgoing edges, in document order.
func (g *Graph) Sinks() []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if len(g.outgoing[n.ID]) == 0 {
			out = append(out, n)
		}
	}
	return out
}

// LabelKeys returns the attribute keys consulted by Label.
func (g *Graph) LabelKeys() []string { return g.labelKeys }

// Label returns the display label of n: the first label key holding a scalar
// value, or the node ID.
func (g *Graph) Label(n *Node) string {
	for _, k := range g.labelKeys {
		v, ok := n.Attrs[k]
		if !ok {
			continue
		}
		if s, ok := document.Identifier(v); ok {
			return s
		}
		if b, ok := v.(bool); ok {
			return fmt.Sprint(b)
		}
	}
	return n.ID
}

// Without returns a copy of g without the nodes matching drop. Edges touching
// a dropped node are removed as well.
func (g *Graph) Without(drop func(*Node) bool) *Graph {
	out := newGraph(g.labelKeys)
	for _, n := range g.nodes {
		if !drop(n) {
			_ = out.addNode(*n)
		}
	}
	for _, e := range g.edges {
		// Edges to dropped nodes fail the endpoint check and are skipped.
		_ = out.addEdge(e)
	}
	return out
}

// Equal reports whether a and b have the same node identifiers and the same
// multiset of (source, target) pairs. Order and attributes are ignored.
func Equal(a, b *Graph) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.NodeCount() != b.NodeCount() || a.EdgeCount() != b.EdgeCount() {
		return false
	}
	for id := range a.index {
		if _, ok := b.index[id]; !ok {
			return false
		}
	}

	type pair struct{ s, t string }
	counts := make(map[pair]int, len(a.edges))
	for _, e := range a.edges {
		counts[pair{e.Source, e.Target}]++
	}
	for _, e := range b.edges {
		p := pair{e.Source, e.Target}
		if counts[p] == 0 {
			return false
		}
		counts[p]--
	}
	return true
}
