// Package pkg provides the core libraries for thoughtgraph.
//
// # Overview
//
// thoughtgraph turns a JSON description of an LLM's thought process into a
// graph you can click through. The pkg directory is organized leaves first:
//
//  1. [errors] - Coded errors shared by every layer
//  2. [document] - JSON text to raw node and edge entries
//  3. [reasoning] - Reasoning-pool import (ground truth plus sampled paths)
//  4. [graph] - Validated graph with adjacency and levels
//  5. [layout] - Canvas positions, one band per level
//  6. [render] - Node-link export (DOT, SVG, PDF, PNG)
//  7. [pipeline] - Orchestration (load → build → layout → render)
//  8. [viewer] - Per-tab sessions holding a graph and its selection
//
// Supporting packages: [cache] for rendered artifacts, [catalog] for the data
// directory index, [config] for layered configuration, [observability] for
// hooks and Prometheus metrics, [buildinfo] for version stamps.
//
// # Architecture
//
// The data flow for one file:
//
//	JSON file or upload
//	         ↓
//	    [document] Loader (optionally via jsonrepair and importers)
//	         ↓
//	    [graph] Build (identifiers, dangling edges)
//	         ↓
//	    [layout] Compute
//	         ↓
//	    [viewer] Session.Load  →  Select / Deselect
//	         ↓
//	    browser, terminal, or [render] export
//
// # Quick Start
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	res, err := runner.Execute(ctx, "run.json", pipeline.Options{})
//	if err != nil {
//	    return err // errors.Is(err, errors.ErrCodeSchema) etc.
//	}
//
//	sess := viewer.NewSession("local")
//	sess.Load(ctx, res)
//	node, err := sess.Select(ctx, "a")
//
// # Errors
//
// Every failure a user can cause carries a code from [errors]:
// FILE_NOT_FOUND, INVALID_JSON and INVALID_SCHEMA for bad input, NOT_FOUND
// for unknown sessions and nodes. The viewer shows them and keeps running.
//
// [errors]: github.com/matzehuels/thoughtgraph/pkg/errors
// [document]: github.com/matzehuels/thoughtgraph/pkg/document
// [reasoning]: github.com/matzehuels/thoughtgraph/pkg/reasoning
// [graph]: github.com/matzehuels/thoughtgraph/pkg/graph
// [layout]: github.com/matzehuels/thoughtgraph/pkg/layout
// [render]: github.com/matzehuels/thoughtgraph/pkg/render
// [pipeline]: github.com/matzehuels/thoughtgraph/pkg/pipeline
// [viewer]: github.com/matzehuels/thoughtgraph/pkg/viewer
// [cache]: github.com/matzehuels/thoughtgraph/pkg/cache
// [catalog]: github.com/matzehuels/thoughtgraph/pkg/catalog
// [config]: github.com/matzehuels/thoughtgraph/pkg/config
// [observability]: github.com/matzehuels/thoughtgraph/pkg/observability
// [buildinfo]: github.com/matzehuels/thoughtgraph/pkg/buildinfo
package pkg
