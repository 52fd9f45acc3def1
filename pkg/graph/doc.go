// Package graph turns a parsed document into a thought graph.
//
// # Building
//
// [Build] maps each node entry of a [document.Document] to a [Node] and each
// edge entry to an [Edge]:
//
//	doc, _ := document.NewLoader(fields).Load("run.json")
//	g, err := graph.Build(doc, fields)
//
// Identifier keys come from [document.Fields]; every other key of an entry
// is kept in the open [Attrs] mapping. A node without an identifier, a
// duplicate identifier or an edge pointing at an unknown node fails the
// whole build with an INVALID_SCHEMA error. No partial graph is returned.
//
// # Queries
//
// A [Graph] keeps document order for nodes and edges and indexes adjacency in
// both directions:
//
//   - [Graph.Node], [Graph.Nodes], [Graph.Edges]: lookup and iteration
//   - [Graph.Children], [Graph.Parents]: adjacency
//   - [Graph.Sources], [Graph.Sinks]: entry and terminal steps
//   - [Graph.Levels]: topological layering, tolerant of cycles
//   - [Graph.Without]: filtered copy, used to hide node groups
//
// [Equal] compares two graphs by identifier, ignoring order, which is the
// identity used when the same file is loaded twice.
package graph
