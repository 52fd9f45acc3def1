// Package document loads thought-process JSON files into raw Documents.
//
// # Overview
//
// A Document is the parsed input before any graph interpretation: a list of
// node entries and a list of edge entries, each an open mapping of keys to
// JSON values. No schema is assumed beyond "valid JSON holding those lists".
// The graph package turns a Document into a Graph.
//
// # Accepted Shapes
//
// Node-link object (key names come from [Fields]):
//
//	{
//	  "nodes": [{"id": "a"}, {"id": "b", "label": "step two"}],
//	  "edges": [{"source": "a", "target": "b"}]
//	}
//
// Top-level array, where entries carrying both endpoint keys are edges and
// every other entry is a node:
//
//	[{"id": "a"}, {"id": "b"}, {"from": "a", "to": "b"}]
//
// Any other object is offered to the registered [Importer]s. The reasoning
// package provides one for reasoning-pool files.
//
// # Errors
//
// [Loader.Load] returns FILE_NOT_FOUND for unreadable paths, and every entry
// point returns INVALID_JSON for malformed text and INVALID_SCHEMA for JSON
// that holds no node list. See package errors for the codes.
//
// # Numbers
//
// Numbers are decoded as [encoding/json.Number] so identifiers such as
// step ids keep their literal text and large integers survive unchanged.
package document
