package document

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tgerrors "github.com/matzehuels/thoughtgraph/pkg/errors"
)

func TestParseNodeLink(t *testing.T) {
	l := NewLoader(Fields{})
	doc, err := l.Parse("in.json", []byte(`{"nodes":[{"id":"a"},{"id":"b"}],"edges":[{"source":"a","target":"b"}]}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if doc.Format != FormatNodeLink {
		t.Errorf("Format = %q, want %q", doc.Format, FormatNodeLink)
	}
	if doc.NodeCount() != 2 || doc.EdgeCount() != 1 {
		t.Errorf("counts = %d/%d, want 2/1", doc.NodeCount(), doc.EdgeCount())
	}
	if doc.Source != "in.json" {
		t.Errorf("Source = %q", doc.Source)
	}
	if len(doc.Hash) != 64 {
		t.Errorf("Hash length = %d, want 64", len(doc.Hash))
	}
	if doc.Meta != nil {
		t.Errorf("Meta = %v, want nil", doc.Meta)
	}
}

func TestParseKeepsNumbersExact(t *testing.T) {
	l := NewLoader(Fields{})
	doc, err := l.Parse("n.json", []byte(`{"nodes":[{"id":12345678901234567890,"score":0.10}]}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	id, ok := doc.Nodes[0]["id"].(json.Number)
	if !ok || id.String() != "12345678901234567890" {
		t.Errorf("id = %#v, want json.Number 12345678901234567890", doc.Nodes[0]["id"])
	}
	if score := doc.Nodes[0]["score"].(json.Number); score.String() != "0.10" {
		t.Errorf("score = %v, want 0.10", score)
	}
}

func TestParseMissingEdgesKey(t *testing.T) {
	l := NewLoader(Fields{})
	doc, err := l.Parse("x", []byte(`{"nodes":[{"id":"a"}],"title":"run 1"}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.EdgeCount() != 0 {
		t.Errorf("EdgeCount = %d, want 0", doc.EdgeCount())
	}
	if doc.Meta["title"] != "run 1" {
		t.Errorf("Meta[title] = %v", doc.Meta["title"])
	}
}

func TestParseArray(t *testing.T) {
	l := NewLoader(Fields{})
	doc, err := l.Parse("arr", []byte(`[{"id":"a"},{"id":"b"},{"from":"a","to":"b"}]`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Format != FormatArray {
		t.Errorf("Format = %q", doc.Format)
	}
	if doc.NodeCount() != 2 || doc.EdgeCount() != 1 {
		t.Errorf("counts = %d/%d, want 2/1", doc.NodeCount(), doc.EdgeCount())
	}
}

func TestParseCustomFields(t *testing.T) {
	l := NewLoader(Fields{NodesKey: "steps", EdgesKey: "links"})
	doc, err := l.Parse("c", []byte(`{"steps":[{"id":"a"}],"links":[]}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.NodeCount() != 1 {
		t.Errorf("NodeCount = %d, want 1", doc.NodeCount())
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  tgerrors.Code
		msg   string
	}{
		{"empty", "", tgerrors.ErrCodeInvalidJSON, "is empty"},
		{"whitespace", "  \n ", tgerrors.ErrCodeInvalidJSON, "is empty"},
		{"truncated", `{"nodes":[`, tgerrors.ErrCodeInvalidJSON, "unexpected end of input"},
		{"syntax", "{\n  \"nodes\": [}\n}", tgerrors.ErrCodeInvalidJSON, "line 2"},
		{"trailing", `{"nodes":[]} {}`, tgerrors.ErrCodeInvalidJSON, "unexpected data"},
		{"scalar root", `42`, tgerrors.ErrCodeSchema, "object or array"},
		{"no nodes", `{"edges":[]}`, tgerrors.ErrCodeSchema, `no "nodes" list`},
		{"nodes not array", `{"nodes":{}}`, tgerrors.ErrCodeSchema, "must be an array"},
		{"edges not array", `{"nodes":[],"edges":"x"}`, tgerrors.ErrCodeSchema, "must be an array"},
		{"node not object", `{"nodes":["a"]}`, tgerrors.ErrCodeSchema, "node entry 0 must be an object"},
		{"edge not object", `{"nodes":[],"edges":[1]}`, tgerrors.ErrCodeSchema, "edge entry 0 must be an object"},
	}

	l := NewLoader(Fields{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := l.Parse("bad.json", []byte(tt.input))
			if err == nil {
				t.Fatalf("Parse succeeded: %+v", doc)
			}
			if doc != nil {
				t.Error("Parse returned a document alongside an error")
			}
			if !tgerrors.Is(err, tt.code) {
				t.Errorf("code = %v, want %v (%v)", tgerrors.GetCode(err), tt.code, err)
			}
			if !strings.Contains(tgerrors.UserMessage(err), tt.msg) {
				t.Errorf("message %q does not contain %q", tgerrors.UserMessage(err), tt.msg)
			}
		})
	}
}

func TestParseRepair(t *testing.T) {
	input := []byte(`{"nodes":[{"id":"a"},{"id":"b"},],"edges":[{"source":"a","target":"b"}]`)

	strict := NewLoader(Fields{})
	if _, err := strict.Parse("llm.json", input); !tgerrors.Is(err, tgerrors.ErrCodeInvalidJSON) {
		t.Fatalf("strict Parse error = %v, want INVALID_JSON", err)
	}

	lenient := NewLoader(Fields{})
	lenient.Repair = true
	doc, err := lenient.Parse("llm.json", input)
	if err != nil {
		t.Fatalf("repairing Parse: %v", err)
	}
	if doc.NodeCount() != 2 || doc.EdgeCount() != 1 {
		t.Errorf("counts = %d/%d, want 2/1", doc.NodeCount(), doc.EdgeCount())
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "g.json")
	if err := os.WriteFile(path, []byte(`{"nodes":[{"id":"a"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader(Fields{})
	doc, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Source != path {
		t.Errorf("Source = %q, want %q", doc.Source, path)
	}

	if _, err := l.Load(filepath.Join(dir, "missing.json")); !tgerrors.Is(err, tgerrors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v, want FILE_NOT_FOUND", err)
	}
	if _, err := l.Load(dir); !tgerrors.Is(err, tgerrors.ErrCodeFileNotFound) {
		t.Errorf("directory error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestRead(t *testing.T) {
	l := NewLoader(Fields{})
	doc, err := l.Read("upload.json", strings.NewReader(`[{"id":"x"}]`))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if doc.Source != "upload.json" || doc.NodeCount() != 1 {
		t.Errorf("doc = %+v", doc)
	}
}

type stubImporter struct{}

func (stubImporter) Format() string { return "stub" }

func (stubImporter) Detect(root map[string]any) bool {
	_, ok := root["stub"]
	return ok
}

func (stubImporter) Import(root map[string]any, f Fields) ([]Entry, []Entry, error) {
	return []Entry{{f.IDKeys[0]: "s"}}, nil, nil
}

func TestParseImporter(t *testing.T) {
	l := NewLoader(Fields{}, stubImporter{})
	doc, err := l.Parse("s", []byte(`{"stub":true,"name":"demo","nested":{"x":1}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Format != "stub" || doc.NodeCount() != 1 {
		t.Errorf("doc = %+v", doc)
	}
	if doc.Meta["name"] != "demo" {
		t.Errorf("Meta[name] = %v", doc.Meta["name"])
	}
	if _, ok := doc.Meta["nested"]; ok {
		t.Error("nested sections should not be copied into Meta")
	}
}

func TestIdentifier(t *testing.T) {
	tests := []struct {
		in   any
		want string
		ok   bool
	}{
		{"a", "a", true},
		{json.Number("7"), "7", true},
		{float64(2.5), "2.5", true},
		{3, "3", true},
		{"", "", false},
		{nil, "", false},
		{true, "", false},
		{map[string]any{}, "", false},
	}
	for _, tt := range tests {
		got, ok := Identifier(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Identifier(%#v) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
