package graph

import (
	"errors"
	"maps"
)

var (
	// ErrInvalidNodeID is returned when a node identifier is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned when two nodes share an identifier.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned when an edge starts at a missing node.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned when an edge ends at a missing node.
	ErrUnknownTargetNode = errors.New("unknown target node")
)

// Attrs is an open attribute mapping with JSON-typed values: string,
// json.Number, bool, nil, map[string]any or []any.
type Attrs map[string]any

// Clone returns a shallow copy. The result is never nil.
func (a Attrs) Clone() Attrs {
	if a == nil {
		return Attrs{}
	}
	return maps.Clone(a)
}

// Node is a vertex of the thought graph.
//
// Attrs holds every key of the source entry except the identifier key.
// Nodes are immutable once the graph is built; callers must not modify Attrs.
type Node struct {
	ID    string
	Attrs Attrs
}

// Attr returns the attribute value for key, if present.
func (n *Node) Attr(key string) (any, bool) {
	v, ok := n.Attrs[key]
	return v, ok
}

// String returns the attribute as a string, or "" when absent or not a string.
func (n *Node) String(key string) string {
	s, _ := n.Attrs[key].(string)
	return s
}

// Edge is a directed connection between two nodes. Both endpoints exist in
// the graph the edge belongs to.
type Edge struct {
	Source string
	Target string
	Attrs  Attrs // Remaining entry keys; never nil, may be empty
}

// String returns the attribute as a string, or "" when absent or not a string.
func (e Edge) String(key string) string {
	s, _ := e.Attrs[key].(string)
	return s
}
