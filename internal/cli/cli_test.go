package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/thoughtgraph/pkg/document"
	tgerrors "github.com/matzehuels/thoughtgraph/pkg/errors"
)

const sampleGraph = `{
  "nodes": [
    {"id": "a", "label": "question"},
    {"id": "b", "label": "sample", "group": "final_sample"},
    {"id": "c", "label": "answer"}
  ],
  "edges": [
    {"source": "a", "target": "b"},
    {"source": "a", "target": "c"}
  ]
}`

const samplePool = `{
  "task": "shrimp",
  "factual_assignment": {"price": 3, "count": 4},
  "ground_truth_function": {
    "reasoning_path_topological_levels": [
      [0, [{"step_id": 1, "variable": "total", "expression": "price * count", "dependencies": [], "dependencies_input": ["price", "count"]}]]
    ]
  },
  "results": []
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// execute runs the root command with args and returns the CLI and its stdout.
func execute(t *testing.T, args ...string) (*CLI, string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	c := New(io.Discard, LogInfo)
	t.Cleanup(func() { c.Close() })

	var out bytes.Buffer
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return c, out.String(), err
}

func TestRootCommand(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()

	want := []string{"serve", "inspect", "render", "convert", "validate", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
	for _, flag := range []string{"verbose", "config"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag --%s missing", flag)
		}
	}
}

func TestRenderDOT(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "run.json", sampleGraph)
	output := filepath.Join(dir, "out.dot")

	if _, _, err := execute(t, "render", input, "--no-cache", "-o", output); err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "digraph") {
		t.Errorf("format not inferred from extension, got:\n%s", data)
	}
	if !strings.Contains(string(data), `"a" -> "b"`) {
		t.Errorf("edge missing:\n%s", data)
	}
}

func TestRenderDefaultOutputAndHideGroup(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "run.json", sampleGraph)

	if _, _, err := execute(t, "render", input, "-f", "dot", "--no-cache", "--hide-group", "final_sample"); err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "run.dot"))
	if err != nil {
		t.Fatalf("default output path not used: %v", err)
	}
	if strings.Contains(string(data), `"b"`) {
		t.Errorf("hidden node rendered:\n%s", data)
	}
}

func TestRenderErrors(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "run.json", sampleGraph)
	broken := writeFile(t, dir, "broken.json", `{"nodes": [`)

	tests := []struct {
		name string
		args []string
		code tgerrors.Code
	}{
		{"bad format", []string{"render", good, "-f", "gif"}, tgerrors.ErrCodeInvalidInput},
		{"missing file", []string{"render", filepath.Join(dir, "nope.json"), "-f", "dot", "--no-cache"}, tgerrors.ErrCodeFileNotFound},
		{"broken json", []string{"render", broken, "-f", "dot", "--no-cache"}, tgerrors.ErrCodeInvalidJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			if !tgerrors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.json", sampleGraph)
	dangling := writeFile(t, dir, "dangling.json", `{"nodes":[{"id":"a"}],"edges":[{"source":"a","target":"z"}]}`)

	if _, _, err := execute(t, "validate", good); err != nil {
		t.Errorf("validate good: %v", err)
	}
	_, _, err := execute(t, "validate", good, dangling)
	if err == nil || !strings.Contains(err.Error(), "1 of 2") {
		t.Errorf("validate with dangling edge = %v, want 1 of 2 invalid", err)
	}
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "pool.json", samplePool)
	outDir := filepath.Join(dir, "converted")

	if _, _, err := execute(t, "convert", input, "--output-dir", outDir); err != nil {
		t.Fatalf("convert: %v", err)
	}

	doc, err := document.NewLoader(document.Fields{}).Load(filepath.Join(outDir, "pool.json"))
	if err != nil {
		t.Fatalf("converted file does not load: %v", err)
	}
	if doc.Format != document.FormatNodeLink || doc.NodeCount() == 0 {
		t.Errorf("converted doc = %+v", doc)
	}
	if doc.Meta["task"] != "shrimp" {
		t.Errorf("Meta[task] = %v", doc.Meta["task"])
	}
}

func TestConvertErrors(t *testing.T) {
	dir := t.TempDir()
	pool := writeFile(t, dir, "pool.json", samplePool)
	plain := writeFile(t, dir, "plain.json", sampleGraph)

	if _, _, err := execute(t, "convert", pool, plain, "-o", filepath.Join(dir, "x.json")); err == nil {
		t.Error("--output with two inputs should fail")
	}
	if _, _, err := execute(t, "convert", plain, "--output-dir", filepath.Join(dir, "out")); err == nil {
		t.Error("converting a plain node-link file should fail")
	}
}

func TestConvertOutputConflicts(t *testing.T) {
	dir := t.TempDir()
	pool := writeFile(t, dir, "pool.json", samplePool)
	first := writeFile(t, dir, "a/run.json", samplePool)
	second := writeFile(t, dir, "b/run.json", samplePool)
	out := filepath.Join(dir, "out")

	tests := []struct {
		name string
		args []string
	}{
		{"output dir holds the input", []string{"convert", pool, "--output-dir", dir}},
		{"output is the input", []string{"convert", pool, "-o", filepath.Join(dir, "a", "..", "pool.json")}},
		{"two inputs share a target", []string{"convert", first, second, "--output-dir", out}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := execute(t, tt.args...); err == nil {
				t.Error("expected an error")
			}
			data, err := os.ReadFile(pool)
			if err != nil || string(data) != samplePool {
				t.Errorf("input was modified: %v\n%s", err, data)
			}
		})
	}

	// The first of two colliding inputs is still converted.
	data, err := os.ReadFile(filepath.Join(out, "run.json"))
	if err != nil || !strings.Contains(string(data), `"nodes"`) {
		t.Errorf("first target: %v\n%s", err, data)
	}
}

func TestCachePath(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)
	t.Setenv("THOUGHTGRAPH_CACHE_DIR", "")

	_, out, err := execute(t, "cache", "path")
	if err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if got, want := strings.TrimSpace(out), filepath.Join(xdg, appName); got != want {
		t.Errorf("cache path = %q, want %q", got, want)
	}
}

func TestCacheClear(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("THOUGHTGRAPH_CACHE_DIR", dir)
	writeFile(t, dir, "ab/entry.json", `{}`)

	if _, _, err := execute(t, "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("%d entries left after clear", len(entries))
	}
}

func TestSetupFlags(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "run.json", sampleGraph)
	cfgFile := writeFile(t, dir, "tg.toml", "[log]\nlevel = \"warn\"\n")

	c, _, err := execute(t, "validate", input, "--config", cfgFile)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got := c.Logger.GetLevel(); got != log.WarnLevel {
		t.Errorf("level from config = %v, want warn", got)
	}

	c, _, err = execute(t, "validate", input, "--config", cfgFile, "-v")
	if err != nil {
		t.Fatalf("validate -v: %v", err)
	}
	if got := c.Logger.GetLevel(); got != log.DebugLevel {
		t.Errorf("level with -v = %v, want debug", got)
	}

	if _, _, err := execute(t, "validate", input, "--config", filepath.Join(dir, "missing.toml")); !tgerrors.Is(err, tgerrors.ErrCodeFileNotFound) {
		t.Errorf("missing config error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLogFile(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "run.json", sampleGraph)
	logPath := filepath.Join(dir, "logs", "tg.log")
	t.Setenv("THOUGHTGRAPH_LOG_FILE", logPath)

	c, _, err := execute(t, "validate", input, "-v")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	c.Logger.Info("marker line")
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "marker line") {
		t.Errorf("log file = %q", data)
	}
}

func TestOpenBrowserRejectsSchemes(t *testing.T) {
	for _, u := range []string{"file:///etc/passwd", "javascript:alert(1)", "://bad"} {
		if err := openBrowser(u); err == nil {
			t.Errorf("openBrowser(%q) succeeded", u)
		}
	}
}
