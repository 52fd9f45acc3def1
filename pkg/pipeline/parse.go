package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/matzehuels/thoughtgraph/pkg/document"
	"github.com/matzehuels/thoughtgraph/pkg/observability"
	"github.com/matzehuels/thoughtgraph/pkg/reasoning"
)

// NewLoader returns a document loader configured from opts, with the
// reasoning-pool importer registered.
func NewLoader(opts Options) *document.Loader {
	l := document.NewLoader(opts.Fields, reasoning.Importer{})
	l.Repair = opts.Repair
	return l
}

// LoadFile reads and parses the JSON file at path.
func LoadFile(ctx context.Context, path string, opts Options) (*document.Document, error) {
	return load(ctx, path, opts, func(l *document.Loader) (*document.Document, error) {
		return l.Load(path)
	})
}

// LoadReader parses JSON text read from r. The name labels the document in
// messages, typically the upload's file name.
func LoadReader(ctx context.Context, name string, r io.Reader, opts Options) (*document.Document, error) {
	return load(ctx, name, opts, func(l *document.Loader) (*document.Document, error) {
		return l.Read(name, r)
	})
}

func load(ctx context.Context, source string, opts Options, fn func(*document.Loader) (*document.Document, error)) (*document.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts.SetDefaults()

	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, source)
	start := time.Now()

	doc, err := fn(NewLoader(opts))

	var format string
	var nodes int
	if doc != nil {
		format, nodes = doc.Format, doc.NodeCount()
	}
	hooks.OnLoadComplete(ctx, source, format, nodes, time.Since(start), err)
	return doc, err
}
