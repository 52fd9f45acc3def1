package viewer

import (
	"context"
	"sync"
	"time"

	tgerrors "github.com/matzehuels/thoughtgraph/pkg/errors"
	"github.com/matzehuels/thoughtgraph/pkg/graph"
	"github.com/matzehuels/thoughtgraph/pkg/layout"
	"github.com/matzehuels/thoughtgraph/pkg/observability"
	"github.com/matzehuels/thoughtgraph/pkg/pipeline"
)

// Session is the state of one viewer.
//
// The zero value is not usable; sessions are created by a Store or NewSession.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	result    *pipeline.Result
	lastErr   error
	selected  string
	touchedAt time.Time
	now       func() time.Time
}

// Snapshot is a consistent copy of a session's state for rendering.
// Graph and Layout are shared and must not be modified.
type Snapshot struct {
	ID       string
	Source   string
	Result   *pipeline.Result
	Graph    *graph.Graph
	Layout   *layout.Layout
	Selected *graph.Node
	Err      error
}

// HasGraph reports whether a graph is loaded.
func (s Snapshot) HasGraph() bool { return s.Graph != nil }

// NewSession creates a session with no graph and no selection.
func NewSession(id string) *Session {
	return newSession(id, time.Now)
}

func newSession(id string, now func() time.Time) *Session {
	t := now()
	return &Session{ID: id, CreatedAt: t, touchedAt: t, now: now}
}

// Load installs a freshly built graph. The selection is reset and the last
// error cleared.
func (s *Session) Load(ctx context.Context, res *pipeline.Result) {
	s.mu.Lock()
	s.result = res
	s.selected = ""
	s.lastErr = nil
	s.touch()
	s.mu.Unlock()

	observability.Viewer().OnDocumentLoad(ctx, s.ID, nil)
}

// Fail records a failed load. The previous graph is dropped and the
// selection reset, so only the error is shown.
func (s *Session) Fail(ctx context.Context, err error) {
	s.mu.Lock()
	s.result = nil
	s.selected = ""
	s.lastErr = err
	s.touch()
	s.mu.Unlock()

	observability.Viewer().OnDocumentLoad(ctx, s.ID, err)
}

// Select marks the node with the given identifier as selected.
//
// Returns a NOT_FOUND error, leaving the selection unchanged, when no graph is
// loaded or the graph has no such node.
func (s *Session) Select(ctx context.Context, id string) (*graph.Node, error) {
	s.mu.Lock()
	s.touch()
	if s.result == nil {
		s.mu.Unlock()
		return nil, tgerrors.New(tgerrors.ErrCodeNotFound, "no graph loaded")
	}
	n, ok := s.result.Graph.Node(id)
	if !ok {
		s.mu.Unlock()
		return nil, tgerrors.New(tgerrors.ErrCodeNotFound, "node %q not found", id)
	}
	s.selected = id
	s.mu.Unlock()

	observability.Viewer().OnSelect(ctx, s.ID, id)
	return n, nil
}

// Deselect clears the selection.
func (s *Session) Deselect(ctx context.Context) {
	s.mu.Lock()
	s.selected = ""
	s.touch()
	s.mu.Unlock()

	observability.Viewer().OnSelect(ctx, s.ID, "")
}

// Selected returns the selected node, if any.
func (s *Session) Selected() (*graph.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedNode()
}

// LastError returns the error recorded by the last failed load, or nil.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Snapshot returns the session state as of now.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{ID: s.ID, Result: s.result, Err: s.lastErr}
	if s.result != nil {
		snap.Graph = s.result.Graph
		snap.Layout = s.result.Layout
		snap.Source = s.result.Document.Source
	}
	if n, ok := s.selectedNode(); ok {
		snap.Selected = n
	}
	return snap
}

// TouchedAt returns the time of the last event on the session.
func (s *Session) TouchedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touchedAt
}

func (s *Session) selectedNode() (*graph.Node, bool) {
	if s.selected == "" || s.result == nil {
		return nil, false
	}
	return s.result.Graph.Node(s.selected)
}

func (s *Session) touch() {
	s.touchedAt = s.now()
}
