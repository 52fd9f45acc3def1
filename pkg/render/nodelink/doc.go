// Package nodelink renders thought graphs as node-link diagrams.
//
// # Usage
//
// Convert a graph to DOT, then render to SVG:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [Render] dispatches on an output format name (svg, dot, pdf, png).
//
// # Styling
//
// Node and edge attributes written by the reasoning importer double as
// Graphviz styling:
//
//   - node "color" becomes the fill colour, node "shape" the shape
//   - edge "color" becomes the stroke colour, edge "width" the pen width
//   - node "title" becomes the hover tooltip
//
// Graphs from other sources render with the defaults (white rounded boxes,
// black arrows).
//
// # Options
//
//   - Detailed: node labels list every attribute below the label
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
