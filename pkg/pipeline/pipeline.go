// Package pipeline provides the load → build → layout → render pipeline for thoughtgraph.
//
// This package implements the pipeline shared by the CLI commands, the
// terminal viewer and the HTTP server. By centralizing this logic, every entry
// point reads files, reports errors and caches renders the same way.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Load: read a file or upload and parse it into a document.Document
//  2. Build: map the document onto a graph.Graph
//  3. Layout: assign canvas positions with the layout package
//  4. Render: export a node-link diagram (SVG, DOT, PDF, PNG)
//
// Load, build and layout are cheap and always run. Render goes through
// Graphviz and is cached by document hash and render options.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, "run.json", pipeline.Options{})
//	if err != nil {
//	    return err // coded error from pkg/errors
//	}
//	svg, err := runner.Render(ctx, result, pipeline.RenderOptions{Format: "svg"})
package pipeline

import (
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/thoughtgraph/pkg/document"
	tgerrors "github.com/matzehuels/thoughtgraph/pkg/errors"
	"github.com/matzehuels/thoughtgraph/pkg/graph"
	"github.com/matzehuels/thoughtgraph/pkg/layout"
	"github.com/matzehuels/thoughtgraph/pkg/render"
)

// =============================================================================
// Default Values
// =============================================================================

// DefaultFormat is the default export format.
const DefaultFormat = render.FormatSVG

// GroupKey is the node attribute consulted by RenderOptions.HideGroup.
const GroupKey = "group"

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures loading, building and layout.
type Options struct {
	Fields document.Fields `json:"fields"`
	Repair bool            `json:"repair,omitempty"`
	Layout layout.Options  `json:"layout"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// RenderOptions configures an export.
type RenderOptions struct {
	Format    string `json:"format"`
	Detailed  bool   `json:"detailed,omitempty"`
	HideGroup string `json:"hide_group,omitempty"`
	Refresh   bool   `json:"refresh,omitempty"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Document is the parsed input.
	Document *document.Document

	// Graph is the graph built from Document.
	Graph *graph.Graph

	// Layout holds node positions for Graph.
	Layout *layout.Layout

	// Fields is the field mapping Graph was built with.
	Fields document.Fields

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	LevelCount int
	LoadTime   time.Duration
	BuildTime  time.Duration
	LayoutTime time.Duration
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !slices.Contains(render.Formats, format) {
		return tgerrors.New(tgerrors.ErrCodeInvalidInput, "invalid format: %q (must be one of: svg, dot, pdf, png)", format)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// SetDefaults fills empty field keys and canvas dimensions.
func (o *Options) SetDefaults() {
	o.Fields = o.Fields.WithDefaults()
	if o.Layout == (layout.Options{}) {
		o.Layout = layout.DefaultOptions()
	}
}

// SetDefaults applies the default format.
func (o *RenderOptions) SetDefaults() {
	if o.Format == "" {
		o.Format = DefaultFormat
	}
}

// Hidden reports whether n is hidden by HideGroup.
func (o RenderOptions) Hidden(n *graph.Node) bool {
	return o.HideGroup != "" && n.String(GroupKey) == o.HideGroup
}
