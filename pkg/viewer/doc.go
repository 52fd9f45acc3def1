// Package viewer holds the interactive state behind the browser and terminal
// viewers.
//
// # Sessions
//
// A [Session] is the explicit context of one viewer: the graph currently on
// display, its layout, the last user-visible error and the selected node.
// Every event on a session (document load, click on a node, click on empty
// space) goes through the session's methods, which serialize on a mutex so
// events apply one at a time in arrival order. Sessions never share state.
//
// Selection is either nothing or the identifier of one node of the current
// graph:
//
//	none --Select(id)--> id          (id exists)
//	id   --Select(id2)--> id2        (id2 exists)
//	any  --Select(bad)--> unchanged  (NOT_FOUND error)
//	any  --Deselect()--> none
//	any  --Load(result)--> none      (graph replaced)
//	any  --Fail(err)--> none         (graph dropped)
//
// A failed load is recorded with [Session.Fail]: the previous graph is
// removed, the error is kept for display and no partial graph is ever
// installed.
//
// # Store
//
// A [Store] keeps the sessions of a running server, keyed by random UUIDs.
// Idle sessions are removed by [Store.Cleanup] or by the loop started with
// [Store.Run].
package viewer
