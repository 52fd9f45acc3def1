package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/thoughtgraph/pkg/graph"
	"github.com/matzehuels/thoughtgraph/pkg/observability"
	"github.com/matzehuels/thoughtgraph/pkg/render/nodelink"
)

// Render exports the result's graph in opts.Format without caching.
func Render(ctx context.Context, res *Result, opts RenderOptions) ([]byte, error) {
	opts.SetDefaults()
	if err := ValidateFormat(opts.Format); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Format)
	start := time.Now()

	data, err := nodelink.Render(ctx, VisibleGraph(res.Graph, opts), opts.Format, nodelink.Options{Detailed: opts.Detailed})

	hooks.OnRenderComplete(ctx, opts.Format, len(data), time.Since(start), err)
	return data, err
}

// VisibleGraph returns g without the nodes hidden by opts.
func VisibleGraph(g *graph.Graph, opts RenderOptions) *graph.Graph {
	if opts.HideGroup == "" {
		return g
	}
	return g.Without(opts.Hidden)
}
