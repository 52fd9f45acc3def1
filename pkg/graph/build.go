package graph

import (
	"errors"
	"strings"

	"github.com/matzehuels/thoughtgraph/pkg/document"
	tgerrors "github.com/matzehuels/thoughtgraph/pkg/errors"
)

// Build maps a Document onto a Graph.
//
// Each node entry's identifier comes from the first of fields.IDKeys present
// on it; each edge entry's endpoints come from fields.SourceKeys and
// fields.TargetKeys. Identifiers may be strings or numbers.
//
// Returns an INVALID_SCHEMA error, and no graph, when an identifier is
// missing or malformed, when two nodes share an identifier, or when an edge
// references a node that does not exist.
func Build(doc *document.Document, fields document.Fields) (*Graph, error) {
	fields = fields.WithDefaults()
	g := newGraph(fields.LabelKeys)

	for i, entry := range doc.Nodes {
		key, id, err := identifier(entry, fields.IDKeys)
		if err != nil {
			return nil, tgerrors.Schema("node entry %d: %s", i, err)
		}
		attrs := Attrs(entry.Clone())
		delete(attrs, key)
		if err := g.addNode(Node{ID: id, Attrs: attrs}); err != nil {
			if errors.Is(err, ErrDuplicateNodeID) {
				return nil, tgerrors.Schema("node entry %d: duplicate identifier %q", i, id)
			}
			return nil, tgerrors.Schema("node entry %d: %s", i, err)
		}
	}

	for i, entry := range doc.Edges {
		srcKey, src, err := identifier(entry, fields.SourceKeys)
		if err != nil {
			return nil, tgerrors.Schema("edge entry %d: source %s", i, err)
		}
		dstKey, dst, err := identifier(entry, fields.TargetKeys)
		if err != nil {
			return nil, tgerrors.Schema("edge entry %d: target %s", i, err)
		}
		attrs := Attrs(entry.Clone())
		delete(attrs, srcKey)
		delete(attrs, dstKey)

		if err := g.addEdge(Edge{Source: src, Target: dst, Attrs: attrs}); err != nil {
			missing := src
			if errors.Is(err, ErrUnknownTargetNode) {
				missing = dst
			}
			return nil, tgerrors.Schema("edge entry %d (%s -> %s) references unknown node %q", i, src, dst, missing)
		}
	}

	return g, nil
}

type idError struct {
	keys []string
	key  string
}

func (e *idError) Error() string {
	if e.key == "" {
		return "has no identifier (expected one of " + strings.Join(e.keys, ", ") + ")"
	}
	return "identifier " + e.key + " must be a non-empty string or a number"
}

func identifier(entry document.Entry, keys []string) (string, string, error) {
	key, v, ok := document.Lookup(entry, keys)
	if !ok {
		return "", "", &idError{keys: keys}
	}
	id, ok := document.Identifier(v)
	if !ok {
		return "", "", &idError{keys: keys, key: key}
	}
	return key, id, nil
}
