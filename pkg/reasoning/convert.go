package reasoning

import (
	"encoding/json"
	"io"
	"maps"

	"github.com/matzehuels/thoughtgraph/pkg/document"
	tgerrors "github.com/matzehuels/thoughtgraph/pkg/errors"
)

// Convert parses a reasoning pool and returns its merged graph document.
//
// Returns the loader's INVALID_JSON error for malformed input and an
// INVALID_SCHEMA error when data is valid JSON but not a reasoning pool.
func Convert(name string, data []byte, fields document.Fields) (*document.Document, error) {
	doc, err := document.NewLoader(fields, Importer{}).Parse(name, data)
	if err != nil {
		return nil, err
	}
	if doc.Format != Format {
		return nil, tgerrors.Schema("%s is not a reasoning pool (expected %q, %q or %q)", name, KeyInputs, KeyGroundTruth, KeyResults)
	}
	return doc, nil
}

// WriteNodeLink writes doc as an indented node-link JSON object. Scalar
// metadata is kept at the top level next to the node and edge lists.
func WriteNodeLink(w io.Writer, doc *document.Document, fields document.Fields) error {
	fields = fields.WithDefaults()

	out := make(map[string]any, len(doc.Meta)+2)
	maps.Copy(out, doc.Meta)
	nodes := doc.Nodes
	if nodes == nil {
		nodes = []document.Entry{}
	}
	edges := doc.Edges
	if edges == nil {
		edges = []document.Entry{}
	}
	out[fields.NodesKey] = nodes
	out[fields.EdgesKey] = edges

	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}
