// Package render exports thought graphs as static images.
//
// The [nodelink] subpackage turns a graph into Graphviz DOT and renders it to
// SVG in-process. This package converts that SVG into other formats with the
// external rsvg-convert tool:
//
//	svg, err := nodelink.RenderSVG(ctx, nodelink.ToDOT(g, nodelink.Options{}))
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0) // 2x scale
//
// [nodelink]: github.com/matzehuels/thoughtgraph/pkg/render/nodelink
package render
