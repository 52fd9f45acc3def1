package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/thoughtgraph/pkg/cache"
	"github.com/matzehuels/thoughtgraph/pkg/document"
	"github.com/matzehuels/thoughtgraph/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// The CLI and the server both use it so caching and logging behave the same.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute loads the file at path, builds its graph and lays it out.
func (r *Runner) Execute(ctx context.Context, path string, opts Options) (*Result, error) {
	r.applyLogger(&opts)

	start := time.Now()
	doc, err := LoadFile(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	return r.build(ctx, doc, time.Since(start), opts)
}

// ExecuteReader is Execute for an upload or other stream.
func (r *Runner) ExecuteReader(ctx context.Context, name string, rd io.Reader, opts Options) (*Result, error) {
	r.applyLogger(&opts)

	start := time.Now()
	doc, err := LoadReader(ctx, name, rd, opts)
	if err != nil {
		return nil, err
	}
	return r.build(ctx, doc, time.Since(start), opts)
}

func (r *Runner) build(ctx context.Context, doc *document.Document, loadTime time.Duration, opts Options) (*Result, error) {
	opts.Logger.Debug("loaded document",
		"source", doc.Source,
		"format", doc.Format,
		"node_entries", doc.NodeCount(),
		"edge_entries", doc.EdgeCount(),
		"duration", loadTime)

	res, err := Build(ctx, doc, opts)
	if err != nil {
		return nil, err
	}
	res.Stats.LoadTime = loadTime

	opts.Logger.Info("built graph",
		"source", doc.Source,
		"nodes", res.Stats.NodeCount,
		"edges", res.Stats.EdgeCount,
		"levels", res.Stats.LevelCount,
		"duration", res.Stats.BuildTime+res.Stats.LayoutTime)
	return res, nil
}

// RenderWithCacheInfo exports the result with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, res *Result, opts RenderOptions) ([]byte, bool, error) {
	opts.SetDefaults()
	if err := ValidateFormat(opts.Format); err != nil {
		return nil, false, err
	}

	cacheKey := r.Keyer.ArtifactKey(res.Document.Hash, cache.ArtifactKeyOpts{
		Format:     opts.Format,
		Detailed:   opts.Detailed,
		FieldsHash: cache.HashValue(res.Fields),
		HideGroup:  opts.HideGroup,
	})

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "artifact")
			r.Logger.Debug("artifact cache hit", "format", opts.Format)
			return data, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	start := time.Now()
	data, err := Render(ctx, res, opts)
	if err != nil {
		return nil, false, fmt.Errorf("render %s: %w", opts.Format, err)
	}
	r.Logger.Info("rendered graph",
		"format", opts.Format,
		"bytes", len(data),
		"duration", time.Since(start))

	if err := r.Cache.Set(ctx, cacheKey, data, cache.DefaultTTL); err != nil {
		r.Logger.Warn("cache write failed", "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	return data, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, res *Result, opts RenderOptions) ([]byte, error) {
	data, _, err := r.RenderWithCacheInfo(ctx, res, opts)
	return data, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
