package document

import (
	"maps"
	"strconv"
)

// Document formats recognized by the Loader.
const (
	FormatNodeLink = "node-link" // {"nodes": [...], "edges": [...]}
	FormatArray    = "array"     // [ node..., edge... ]
)

// Entry is one node or edge entry: an open mapping of keys to JSON values.
//
// Values are one of string, json.Number, bool, nil, map[string]any or []any,
// exactly as produced by a json.Decoder with UseNumber.
type Entry map[string]any

// Clone returns a shallow copy of the entry.
func (e Entry) Clone() Entry {
	if e == nil {
		return nil
	}
	return maps.Clone(e)
}

// Document is the raw parsed input before any graph interpretation.
//
// A Document only guarantees that it came from syntactically valid JSON and
// that its node and edge lists are sequences of objects. Identifiers and edge
// endpoints are checked later by the graph builder.
type Document struct {
	Source string         // File path or upload name, for display
	Hash   string         // SHA-256 of the input bytes
	Format string         // FormatNodeLink, FormatArray, or an importer's format name
	Nodes  []Entry        // Node entries in input order
	Edges  []Entry        // Edge entries in input order
	Meta   map[string]any // Top-level keys other than the node and edge lists
}

// NodeCount returns the number of node entries.
func (d *Document) NodeCount() int { return len(d.Nodes) }

// EdgeCount returns the number of edge entries.
func (d *Document) EdgeCount() int { return len(d.Edges) }

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}
