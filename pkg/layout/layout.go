// Package layout assigns canvas positions to graph nodes.
//
// Nodes are arranged in horizontal bands, one per level, and spread evenly
// across the canvas width. Two level sources are supported:
//
//   - Relative levels: when every node carries a numeric "level" attribute,
//     as reasoning pools do, inputs (negative levels) are pinned to the top
//     margin and steps are placed by their level in [0, 1]. Larger levels
//     are scaled down by the highest level first.
//   - Topological levels: otherwise the bands come from [graph.Graph.Levels].
//
// Within a band nodes are ordered by label, then by identifier, so the same
// graph always produces the same picture.
package layout

import (
	"cmp"
	"encoding/json"
	"math"
	"slices"
	"strconv"

	"github.com/matzehuels/thoughtgraph/pkg/graph"
)

// Layout modes.
const (
	ModeRelative    = "relative"
	ModeTopological = "topological"
)

// LevelKey is the node attribute read in relative mode.
const LevelKey = "level"

// inputGap separates the input band from the first step band in relative mode.
const inputGap = 100

// minDrawingHeight bounds the step area from below on small canvases.
const minDrawingHeight = 50

// Options configures the canvas.
type Options struct {
	Width  float64 `toml:"width" json:"width" validate:"gte=0"`
	Height float64 `toml:"height" json:"height" validate:"gte=0"`
	Margin float64 `toml:"margin" json:"margin" validate:"gte=0"`
}

// DefaultOptions returns the 1000x600 canvas with a 50px margin.
func DefaultOptions() Options {
	return Options{Width: 1000, Height: 600, Margin: 50}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.Margin <= 0 {
		o.Margin = d.Margin
	}
	return o
}

// Position is a node's place on the canvas.
type Position struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Level int     `json:"level"` // Band index, 0 at the top
}

// Layout holds the computed positions of one graph.
type Layout struct {
	Width     float64             `json:"width"`
	Height    float64             `json:"height"`
	Mode      string              `json:"mode"`
	Bands     [][]string          `json:"bands"` // Node IDs per band, in horizontal order
	Positions map[string]Position `json:"positions"`
}

// Position returns the position of the node with the given ID.
func (l *Layout) Position(id string) (Position, bool) {
	p, ok := l.Positions[id]
	return p, ok
}

// Compute lays out g on a canvas described by opts. Zero options fall back
// to DefaultOptions.
func Compute(g *graph.Graph, opts Options) *Layout {
	opts = opts.withDefaults()
	l := &Layout{
		Width:     opts.Width,
		Height:    opts.Height,
		Positions: make(map[string]Position, g.NodeCount()),
	}

	if levels, ok := relativeLevels(g); ok {
		l.Mode = ModeRelative
		l.placeRelative(g, levels, opts)
	} else {
		l.Mode = ModeTopological
		l.placeTopological(g, opts)
	}
	return l
}

func (l *Layout) placeRelative(g *graph.Graph, levels map[string]float64, opts Options) {
	top := opts.Margin
	bottom := opts.Height - opts.Margin
	drawing := math.Max(bottom-top-inputGap, minDrawingHeight)

	// Group by level rounded to 4 decimals; float levels from different
	// paths rarely compare equal otherwise.
	groups := make(map[string][]*graph.Node)
	values := make(map[string]float64)
	for _, n := range g.Nodes() {
		key := strconv.FormatFloat(levels[n.ID], 'f', 4, 64)
		groups[key] = append(groups[key], n)
		values[key] = levels[n.ID]
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int { return cmp.Compare(values[a], values[b]) })

	// Levels above 1 (integer step counts) are scaled into [0, 1].
	scale := 1.0
	if len(keys) > 0 {
		scale = math.Max(values[keys[len(keys)-1]], 1)
	}

	for band, key := range keys {
		level := values[key]
		y := top
		if level >= 0 {
			y = top + inputGap + (level/scale)*drawing
		}
		l.placeBand(g, groups[key], band, y, opts.Width)
	}
}

func (l *Layout) placeTopological(g *graph.Graph, opts Options) {
	levels := g.Levels()
	top := opts.Margin
	bottom := opts.Height - opts.Margin

	for band, ids := range levels {
		y := (top + bottom) / 2
		if len(levels) > 1 {
			y = top + float64(band)*(bottom-top)/float64(len(levels)-1)
		}
		nodes := make([]*graph.Node, 0, len(ids))
		for _, id := range ids {
			n, _ := g.Node(id)
			nodes = append(nodes, n)
		}
		l.placeBand(g, nodes, band, y, opts.Width)
	}
}

func (l *Layout) placeBand(g *graph.Graph, nodes []*graph.Node, band int, y, width float64) {
	slices.SortStableFunc(nodes, func(a, b *graph.Node) int {
		return cmp.Or(cmp.Compare(g.Label(a), g.Label(b)), cmp.Compare(a.ID, b.ID))
	})
	spacing := width / float64(len(nodes)+1)
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
		l.Positions[n.ID] = Position{X: float64(i+1) * spacing, Y: y, Level: band}
	}
	l.Bands = append(l.Bands, ids)
}

// relativeLevels returns the numeric level attribute of every node, or false
// when the graph is empty or any node lacks one.
func relativeLevels(g *graph.Graph) (map[string]float64, bool) {
	if g.NodeCount() == 0 {
		return nil, false
	}
	out := make(map[string]float64, g.NodeCount())
	for _, n := range g.Nodes() {
		v, ok := n.Attr(LevelKey)
		if !ok {
			return nil, false
		}
		f, ok := toFloat(v)
		if !ok {
			return nil, false
		}
		out[n.ID] = f
	}
	return out, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
