package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/thoughtgraph/pkg/document"
	"github.com/matzehuels/thoughtgraph/pkg/graph"
	"github.com/matzehuels/thoughtgraph/pkg/layout"
	"github.com/matzehuels/thoughtgraph/pkg/observability"
)

// Build maps doc onto a graph and lays it out.
//
// Returns the builder's INVALID_SCHEMA error unchanged; no partial result is
// returned on failure.
func Build(ctx context.Context, doc *document.Document, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts.SetDefaults()
	hooks := observability.Pipeline()

	hooks.OnBuildStart(ctx, doc.NodeCount(), doc.EdgeCount())
	start := time.Now()
	g, err := graph.Build(doc, opts.Fields)
	buildTime := time.Since(start)
	if err != nil {
		hooks.OnBuildComplete(ctx, doc.NodeCount(), doc.EdgeCount(), buildTime, err)
		return nil, err
	}
	hooks.OnBuildComplete(ctx, g.NodeCount(), g.EdgeCount(), buildTime, nil)

	hooks.OnLayoutStart(ctx, g.NodeCount())
	start = time.Now()
	l := layout.Compute(g, opts.Layout)
	layoutTime := time.Since(start)
	hooks.OnLayoutComplete(ctx, l.Mode, layoutTime)

	return &Result{
		Document: doc,
		Graph:    g,
		Layout:   l,
		Fields:   opts.Fields,
		Stats: Stats{
			NodeCount:  g.NodeCount(),
			EdgeCount:  g.EdgeCount(),
			LevelCount: len(l.Bands),
			BuildTime:  buildTime,
			LayoutTime: layoutTime,
		},
	}, nil
}
