package layout

import (
	"math"
	"testing"

	"github.com/matzehuels/thoughtgraph/pkg/document"
	"github.com/matzehuels/thoughtgraph/pkg/graph"
)

func build(t *testing.T, input string) *graph.Graph {
	t.Helper()
	doc, err := document.NewLoader(document.Fields{}).Parse("test.json", []byte(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	g, err := graph.Build(doc, document.Fields{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func TestComputeTopological(t *testing.T) {
	g := build(t, `{"nodes":[{"id":"b","label":"zeta"},{"id":"c","label":"alpha"},{"id":"a"}],
		"edges":[{"source":"a","target":"b"},{"source":"a","target":"c"}]}`)

	l := Compute(g, Options{})
	if l.Mode != ModeTopological {
		t.Errorf("Mode = %q", l.Mode)
	}
	if l.Width != 1000 || l.Height != 600 {
		t.Errorf("canvas = %vx%v, want 1000x600", l.Width, l.Height)
	}

	tests := []struct {
		id    string
		x, y  float64
		level int
	}{
		{"a", 500, 50, 0},
		{"c", 1000.0 / 3, 550, 1}, // "alpha" sorts before "zeta"
		{"b", 2000.0 / 3, 550, 1},
	}
	for _, tt := range tests {
		p, ok := l.Position(tt.id)
		if !ok {
			t.Fatalf("no position for %s", tt.id)
		}
		if p.X != tt.x || p.Y != tt.y || p.Level != tt.level {
			t.Errorf("%s = %+v, want x=%v y=%v level=%d", tt.id, p, tt.x, tt.y, tt.level)
		}
	}
}

func TestComputeSingleLevelIsCentered(t *testing.T) {
	l := Compute(build(t, `{"nodes":[{"id":"only"}]}`), Options{Width: 200, Height: 100, Margin: 10})
	if p := l.Positions["only"]; p.X != 100 || p.Y != 50 {
		t.Errorf("position = %+v, want (100, 50)", p)
	}
}

func TestComputeRelative(t *testing.T) {
	g := build(t, `{"nodes":[
		{"id":"in","label":"x","level":-1},
		{"id":"s0","label":"b","level":0},
		{"id":"s0b","label":"a","level":0.0},
		{"id":"s1","label":"c","level":1}
	]}`)

	l := Compute(g, Options{})
	if l.Mode != ModeRelative {
		t.Fatalf("Mode = %q", l.Mode)
	}
	// top 50, bottom 550, drawing 550-50-100 = 400
	want := map[string]Position{
		"in":  {X: 500, Y: 50, Level: 0},
		"s0b": {X: 1000.0 / 3, Y: 150, Level: 1},
		"s0":  {X: 2000.0 / 3, Y: 150, Level: 1},
		"s1":  {X: 500, Y: 550, Level: 2},
	}
	for id, w := range want {
		if p := l.Positions[id]; p != w {
			t.Errorf("%s = %+v, want %+v", id, p, w)
		}
	}
	if len(l.Bands) != 3 {
		t.Errorf("Bands = %v", l.Bands)
	}
}

func TestComputeRelativeIntegerLevels(t *testing.T) {
	g := build(t, `{"nodes":[
		{"id":"a","level":0},
		{"id":"b","level":1},
		{"id":"c","level":2},
		{"id":"d","level":3}
	],"edges":[{"source":"a","target":"b"},{"source":"b","target":"c"},{"source":"c","target":"d"}]}`)

	l := Compute(g, Options{})
	if l.Mode != ModeRelative {
		t.Fatalf("Mode = %q", l.Mode)
	}
	// drawing 400, levels scaled by 3
	want := map[string]float64{"a": 150, "b": 150 + 400.0/3, "c": 150 + 800.0/3, "d": 550}
	for id, y := range want {
		if p := l.Positions[id]; math.Abs(p.Y-y) > 1e-9 {
			t.Errorf("%s.Y = %v, want %v", id, p.Y, y)
		}
	}

	seen := make(map[Position]string)
	for id, p := range l.Positions {
		pt := Position{X: p.X, Y: p.Y}
		if other, ok := seen[pt]; ok {
			t.Errorf("%s and %s share point (%v, %v)", id, other, p.X, p.Y)
		}
		seen[pt] = id
	}
}

func TestComputeFallsBackWhenLevelMissing(t *testing.T) {
	g := build(t, `{"nodes":[{"id":"a","level":0},{"id":"b"}]}`)
	if l := Compute(g, Options{}); l.Mode != ModeTopological {
		t.Errorf("Mode = %q, want topological", l.Mode)
	}
	g = build(t, `{"nodes":[{"id":"a","level":"high"}]}`)
	if l := Compute(g, Options{}); l.Mode != ModeTopological {
		t.Errorf("Mode = %q, want topological for non-numeric level", l.Mode)
	}
}

func TestComputeDeterministic(t *testing.T) {
	input := `{"nodes":[{"id":"1"},{"id":"2"},{"id":"3"},{"id":"4"}],"edges":[{"source":"1","target":"3"},{"source":"2","target":"3"},{"source":"3","target":"4"}]}`
	a := Compute(build(t, input), Options{})
	b := Compute(build(t, input), Options{})
	for id, p := range a.Positions {
		if b.Positions[id] != p {
			t.Errorf("%s: %+v != %+v", id, p, b.Positions[id])
		}
	}
}

func TestComputeEmpty(t *testing.T) {
	l := Compute(build(t, `{"nodes":[]}`), Options{})
	if len(l.Positions) != 0 || len(l.Bands) != 0 {
		t.Errorf("layout = %+v", l)
	}
}
