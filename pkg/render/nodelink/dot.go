package nodelink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	tgerrors "github.com/matzehuels/thoughtgraph/pkg/errors"
	"github.com/matzehuels/thoughtgraph/pkg/graph"
	"github.com/matzehuels/thoughtgraph/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed lists every node attribute in the label.
	// When false, only the display label is shown.
	Detailed bool
}

// maxValueLen truncates long attribute values in detailed labels.
const maxValueLen = 60

// ToDOT converts a graph to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG].
func ToDOT(g *graph.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Arial\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [color=black, penwidth=1];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		label := fmtLabel(g, n, opts.Detailed)
		fmt.Fprintf(&buf, "  %s [%s];\n", quote(n.ID), strings.Join(nodeAttrs(n, label), ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		attrs := edgeAttrs(e)
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %s -> %s;\n", quote(e.Source), quote(e.Target))
			continue
		}
		fmt.Fprintf(&buf, "  %s -> %s [%s];\n", quote(e.Source), quote(e.Target), strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(g *graph.Graph, n *graph.Node, detailed bool) string {
	label := g.Label(n)
	if !detailed {
		return label
	}

	parts := []string{"id: " + n.ID}
	for _, k := range slices.Sorted(maps.Keys(n.Attrs)) {
		parts = append(parts, fmt.Sprintf("%s: %s", k, fmtValue(n.Attrs[k])))
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func fmtValue(v any) string {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case nil:
		s = "null"
	default:
		data, err := json.Marshal(t)
		if err != nil {
			s = fmt.Sprint(t)
		} else {
			s = string(data)
		}
	}
	if len(s) > maxValueLen {
		s = s[:maxValueLen] + "..."
	}
	return s
}

func nodeAttrs(n *graph.Node, label string) []string {
	attrs := []string{"label=" + quote(label)}
	if c := n.String("color"); c != "" {
		attrs = append(attrs, "fillcolor="+quote(c))
	}
	if s := n.String("shape"); s != "" {
		attrs = append(attrs, "shape="+quote(s))
	}
	if t := n.String("title"); t != "" {
		attrs = append(attrs, "tooltip="+quote(t))
	}
	return attrs
}

func edgeAttrs(e graph.Edge) []string {
	var attrs []string
	if c := e.String("color"); c != "" {
		attrs = append(attrs, "color="+quote(c))
	}
	if w, ok := width(e.Attrs["width"]); ok {
		attrs = append(attrs, "penwidth="+strconv.FormatFloat(w, 'f', -1, 64))
	}
	return attrs
}

func width(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil && f > 0
	case float64:
		return n, n > 0
	case int:
		return float64(n), n > 0
	default:
		return 0, false
	}
}

// quote produces a DOT double-quoted string. Unlike Go's %q it leaves
// non-ASCII text alone, which Graphviz renders as-is.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r': // dropped
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// Render produces the graph in the given output format.
func Render(ctx context.Context, g *graph.Graph, format string, opts Options) ([]byte, error) {
	dot := ToDOT(g, opts)
	switch format {
	case render.FormatDOT:
		return []byte(dot), nil
	case render.FormatSVG:
		return RenderSVG(ctx, dot)
	case render.FormatPDF:
		svg, err := RenderSVG(ctx, dot)
		if err != nil {
			return nil, err
		}
		return render.ToPDF(ctx, svg)
	case render.FormatPNG:
		svg, err := RenderSVG(ctx, dot)
		if err != nil {
			return nil, err
		}
		return render.ToPNG(ctx, svg, 2.0)
	default:
		return nil, tgerrors.New(tgerrors.ErrCodeInvalidInput, "unknown format %q (expected one of %s)", format, strings.Join(render.Formats, ", "))
	}
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
