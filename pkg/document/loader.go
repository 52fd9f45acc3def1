package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/kaptinlin/jsonrepair"

	"github.com/matzehuels/thoughtgraph/pkg/cache"
	tgerrors "github.com/matzehuels/thoughtgraph/pkg/errors"
)

// Importer converts a domain-specific JSON object into node and edge entries.
// Importers are consulted, in order, for root objects that do not carry the
// configured node list key.
type Importer interface {
	// Format names the documents this importer understands.
	Format() string
	// Detect reports whether root looks like a document of this format.
	Detect(root map[string]any) bool
	// Import produces node and edge entries keyed according to fields.
	Import(root map[string]any, fields Fields) (nodes, edges []Entry, err error)
}

// Loader reads JSON text and produces Documents.
//
// The zero value is not usable; use NewLoader.
type Loader struct {
	Fields    Fields
	Importers []Importer

	// Repair retries malformed input through jsonrepair before giving up.
	// LLM tooling often emits JSON with trailing commas or missing brackets.
	Repair bool
}

// NewLoader creates a Loader for the given field mapping. Empty fields fall
// back to DefaultFields.
func NewLoader(fields Fields, importers ...Importer) *Loader {
	return &Loader{Fields: fields.WithDefaults(), Importers: importers}
}

// Load reads and parses the JSON file at path.
//
// Returns a FILE_NOT_FOUND error when path does not resolve to a readable
// regular file, and the same errors as Parse otherwise.
func (l *Loader) Load(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, tgerrors.NotFound(err, "file %s does not exist", path)
		}
		return nil, tgerrors.NotFound(err, "cannot access %s", path)
	}
	if info.IsDir() {
		return nil, tgerrors.NotFound(nil, "%s is a directory, not a file", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, tgerrors.NotFound(err, "cannot read %s", path)
	}
	return l.Parse(path, data)
}

// Read parses JSON text from r. The name is only used for messages and Document.Source.
// Read does not close r.
func (l *Loader) Read(name string, r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, tgerrors.Wrap(tgerrors.ErrCodeInvalidInput, err, "cannot read %s", name)
	}
	return l.Parse(name, data)
}

// Parse interprets data as a JSON document.
//
// Returns an INVALID_JSON error when data is not syntactically valid JSON
// (empty input and trailing data included), and an INVALID_SCHEMA error when
// the JSON holds no node list or an entry is not an object.
func (l *Loader) Parse(name string, data []byte) (*Document, error) {
	root, err := decode(data)
	if err != nil {
		if !l.Repair {
			return nil, parseError(name, data, err)
		}
		repaired, rerr := repair(data)
		if rerr != nil {
			return nil, parseError(name, data, err)
		}
		if root, rerr = decode(repaired); rerr != nil {
			return nil, parseError(name, data, err)
		}
	}

	doc, err := l.extract(root)
	if err != nil {
		return nil, err
	}
	doc.Source = name
	doc.Hash = cache.Hash(data)
	return doc, nil
}

func (l *Loader) extract(root any) (*Document, error) {
	fields := l.Fields.WithDefaults()

	switch v := root.(type) {
	case []any:
		entries, err := toEntries(v, "entry")
		if err != nil {
			return nil, err
		}
		doc := &Document{Format: FormatArray}
		for _, e := range entries {
			if fields.isEdge(e) {
				doc.Edges = append(doc.Edges, e)
			} else {
				doc.Nodes = append(doc.Nodes, e)
			}
		}
		return doc, nil

	case map[string]any:
		if _, ok := v[fields.NodesKey]; ok {
			return extractNodeLink(v, fields)
		}
		for _, imp := range l.Importers {
			if !imp.Detect(v) {
				continue
			}
			nodes, edges, err := imp.Import(v, fields)
			if err != nil {
				return nil, err
			}
			return &Document{Format: imp.Format(), Nodes: nodes, Edges: edges, Meta: importMeta(v)}, nil
		}
		return nil, tgerrors.Schema("document has no %q list", fields.NodesKey)

	default:
		return nil, tgerrors.Schema("document must be a JSON object or array, got %s", jsonKind(root))
	}
}

func extractNodeLink(root map[string]any, fields Fields) (*Document, error) {
	rawNodes, ok := root[fields.NodesKey].([]any)
	if !ok {
		return nil, tgerrors.Schema("%q must be an array, got %s", fields.NodesKey, jsonKind(root[fields.NodesKey]))
	}
	nodes, err := toEntries(rawNodes, "node entry")
	if err != nil {
		return nil, err
	}

	var edges []Entry
	if raw, present := root[fields.EdgesKey]; present && raw != nil {
		rawEdges, ok := raw.([]any)
		if !ok {
			return nil, tgerrors.Schema("%q must be an array, got %s", fields.EdgesKey, jsonKind(raw))
		}
		if edges, err = toEntries(rawEdges, "edge entry"); err != nil {
			return nil, err
		}
	}

	meta := make(map[string]any)
	for k, v := range root {
		if k != fields.NodesKey && k != fields.EdgesKey {
			meta[k] = v
		}
	}
	if len(meta) == 0 {
		meta = nil
	}

	return &Document{Format: FormatNodeLink, Nodes: nodes, Edges: edges, Meta: meta}, nil
}

func toEntries(raw []any, what string) ([]Entry, error) {
	entries := make([]Entry, len(raw))
	for i, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, tgerrors.Schema("%s %d must be an object, got %s", what, i, jsonKind(item))
		}
		entries[i] = Entry(obj)
	}
	return entries, nil
}

// importMeta keeps the scalar top-level keys of an imported document.
// Bulky nested sections are already represented by the graph itself.
func importMeta(root map[string]any) map[string]any {
	meta := make(map[string]any)
	for k, v := range root {
		switch v.(type) {
		case map[string]any, []any:
			continue
		}
		meta[k] = v
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

func decode(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, io.ErrUnexpectedEOF
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &trailingDataError{offset: dec.InputOffset()}
	}
	return root, nil
}

func repair(data []byte) ([]byte, error) {
	fixed, err := jsonrepair.JSONRepair(string(data))
	if err != nil {
		return nil, err
	}
	return []byte(fixed), nil
}

type trailingDataError struct{ offset int64 }

func (e *trailingDataError) Error() string { return "unexpected data after top-level value" }

// parseError converts a decoder error into an INVALID_JSON error that names
// the line and column of the problem.
func parseError(name string, data []byte, err error) error {
	var (
		syntaxErr   *json.SyntaxError
		trailingErr *trailingDataError
		offset      = int64(-1)
		reason      = err.Error()
	)
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &trailingErr):
		offset = trailingErr.offset
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		offset = int64(len(data))
		reason = "unexpected end of input"
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return tgerrors.Parse(err, "%s is empty", name)
	}
	if offset < 0 {
		return tgerrors.Parse(err, "%s is not valid JSON: %s", name, reason)
	}
	line, col := position(data, offset)
	return tgerrors.Parse(err, "%s is not valid JSON (line %d, column %d): %s", name, line, col, reason)
}

// position converts a byte offset into a 1-based line and column.
func position(data []byte, offset int64) (line, col int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line, col = 1, 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case json.Number, float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
