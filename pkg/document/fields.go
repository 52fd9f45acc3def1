package document

import "encoding/json"

// Fields names the keys used to find node lists, edge lists and identifiers.
//
// Thought-process dumps come from many tools and none agree on naming, so every
// key is configurable. For the identifier keys a list is accepted: the first key
// present on an entry wins, which lets one configuration read both
// {"source": ..., "target": ...} and {"from": ..., "to": ...} edges.
type Fields struct {
	NodesKey   string   `toml:"nodes" json:"nodes"`
	EdgesKey   string   `toml:"edges" json:"edges"`
	IDKeys     []string `toml:"id" json:"id"`
	SourceKeys []string `toml:"source" json:"source"`
	TargetKeys []string `toml:"target" json:"target"`
	LabelKeys  []string `toml:"label" json:"label"`
}

// DefaultFields returns the field mapping used when nothing is configured.
func DefaultFields() Fields {
	return Fields{
		NodesKey:   "nodes",
		EdgesKey:   "edges",
		IDKeys:     []string{"id"},
		SourceKeys: []string{"source", "from"},
		TargetKeys: []string{"target", "to"},
		LabelKeys:  []string{"label", "name", "variable"},
	}
}

// WithDefaults returns a copy of f where every empty field is replaced by its default.
func (f Fields) WithDefaults() Fields {
	d := DefaultFields()
	if f.NodesKey == "" {
		f.NodesKey = d.NodesKey
	}
	if f.EdgesKey == "" {
		f.EdgesKey = d.EdgesKey
	}
	if len(f.IDKeys) == 0 {
		f.IDKeys = d.IDKeys
	}
	if len(f.SourceKeys) == 0 {
		f.SourceKeys = d.SourceKeys
	}
	if len(f.TargetKeys) == 0 {
		f.TargetKeys = d.TargetKeys
	}
	if len(f.LabelKeys) == 0 {
		f.LabelKeys = d.LabelKeys
	}
	return f
}

// Lookup returns the first of keys present on e, with its value.
// A key mapped to JSON null counts as present.
func Lookup(e Entry, keys []string) (string, any, bool) {
	for _, k := range keys {
		if v, ok := e[k]; ok {
			return k, v, true
		}
	}
	return "", nil, false
}

// Identifier converts a JSON value into an identifier string.
// Strings are used as-is and numbers keep their literal text. Null, empty
// strings, booleans, objects and arrays are not identifiers.
func Identifier(v any) (string, bool) {
	switch id := v.(type) {
	case string:
		return id, id != ""
	case json.Number:
		return id.String(), true
	case float64:
		return formatFloat(id), true
	case int:
		return formatInt(int64(id)), true
	case int64:
		return formatInt(id), true
	default:
		return "", false
	}
}

// isEdge reports whether e carries both endpoint keys.
func (f Fields) isEdge(e Entry) bool {
	_, _, hasSource := Lookup(e, f.SourceKeys)
	_, _, hasTarget := Lookup(e, f.TargetKeys)
	return hasSource && hasTarget
}
