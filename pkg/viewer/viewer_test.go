package viewer

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	tgerrors "github.com/matzehuels/thoughtgraph/pkg/errors"
	"github.com/matzehuels/thoughtgraph/pkg/pipeline"
)

func mustBuild(t *testing.T, name, input string) *pipeline.Result {
	t.Helper()
	r := pipeline.NewRunner(nil, nil, log.New(&bytes.Buffer{}))
	res, err := r.ExecuteReader(context.Background(), name, strings.NewReader(input), pipeline.Options{})
	if err != nil {
		t.Fatalf("build %s: %v", name, err)
	}
	return res
}

const (
	twoNodes = `{"nodes":[{"id":"q","label":"question"},{"id":"a","label":"answer"}],"edges":[{"source":"q","target":"a"}]}`
	oneNode  = `{"nodes":[{"id":"x"}]}`
)

func TestSelectionTransitions(t *testing.T) {
	ctx := context.Background()
	s := NewSession("s1")

	if _, err := s.Select(ctx, "q"); !tgerrors.Is(err, tgerrors.ErrCodeNotFound) {
		t.Fatalf("Select without graph: err = %v, want NOT_FOUND", err)
	}

	s.Load(ctx, mustBuild(t, "two.json", twoNodes))
	if _, ok := s.Selected(); ok {
		t.Fatal("fresh graph should have no selection")
	}

	n, err := s.Select(ctx, "q")
	if err != nil {
		t.Fatalf("Select(q): %v", err)
	}
	if n.String("label") != "question" {
		t.Errorf("selected label = %q", n.String("label"))
	}

	if _, err := s.Select(ctx, "b"); !tgerrors.Is(err, tgerrors.ErrCodeNotFound) {
		t.Errorf("Select(b): err = %v, want NOT_FOUND", err)
	}
	if n, ok := s.Selected(); !ok || n.ID != "q" {
		t.Errorf("selection after unknown id = %v, %v; want q", n, ok)
	}

	if _, err := s.Select(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.Selected(); n.ID != "a" {
		t.Errorf("selection = %s, want a", n.ID)
	}

	s.Deselect(ctx)
	if _, ok := s.Selected(); ok {
		t.Error("Deselect left a selection")
	}
}

func TestLoadResetsSelection(t *testing.T) {
	ctx := context.Background()
	s := NewSession("s1")
	s.Load(ctx, mustBuild(t, "two.json", twoNodes))
	if _, err := s.Select(ctx, "q"); err != nil {
		t.Fatal(err)
	}

	s.Load(ctx, mustBuild(t, "one.json", oneNode))
	if _, ok := s.Selected(); ok {
		t.Error("selection survived a graph replacement")
	}
	if snap := s.Snapshot(); snap.Source != "one.json" || snap.Graph.NodeCount() != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestFailDropsGraph(t *testing.T) {
	ctx := context.Background()
	s := NewSession("s1")
	s.Load(ctx, mustBuild(t, "two.json", twoNodes))
	if _, err := s.Select(ctx, "a"); err != nil {
		t.Fatal(err)
	}

	loadErr := tgerrors.Schema("edge entry 0 (q -> z) references unknown node %q", "z")
	s.Fail(ctx, loadErr)

	snap := s.Snapshot()
	if snap.HasGraph() || snap.Layout != nil || snap.Source != "" {
		t.Errorf("failed load kept the previous graph: %+v", snap)
	}
	if snap.Selected != nil {
		t.Errorf("selection = %v, want none", snap.Selected)
	}
	if _, err := s.Select(ctx, "a"); !tgerrors.Is(err, tgerrors.ErrCodeNotFound) {
		t.Errorf("Select after failed load = %v, want NOT_FOUND", err)
	}
	if !tgerrors.Is(snap.Err, tgerrors.ErrCodeSchema) || !tgerrors.Is(s.LastError(), tgerrors.ErrCodeSchema) {
		t.Errorf("LastError = %v", s.LastError())
	}

	s.Load(ctx, mustBuild(t, "one.json", oneNode))
	if s.LastError() != nil {
		t.Error("successful load should clear the error")
	}
}

func TestSnapshotEmpty(t *testing.T) {
	snap := NewSession("s1").Snapshot()
	if snap.HasGraph() || snap.Selected != nil || snap.Err != nil || snap.ID != "s1" {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestConcurrentEvents(t *testing.T) {
	ctx := context.Background()
	s := NewSession("s1")
	s.Load(ctx, mustBuild(t, "two.json", twoNodes))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			switch i % 3 {
			case 0:
				_, _ = s.Select(ctx, "q")
			case 1:
				_, _ = s.Select(ctx, "a")
			default:
				s.Deselect(ctx)
			}
			_ = s.Snapshot()
		}(i)
	}
	wg.Wait()

	if n, ok := s.Selected(); ok && n.ID != "q" && n.ID != "a" {
		t.Errorf("selection = %s", n.ID)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewStore(0)
	a, b := store.Create(ctx), store.Create(ctx)
	a.Load(ctx, mustBuild(t, "two.json", twoNodes))
	b.Load(ctx, mustBuild(t, "two.json", twoNodes))

	if _, err := a.Select(ctx, "q"); err != nil {
		t.Fatal(err)
	}
	if _, ok := b.Selected(); ok {
		t.Error("selection leaked across sessions")
	}
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	store := NewStore(time.Minute)

	s := store.Create(ctx)
	if len(s.ID) != 36 {
		t.Errorf("ID = %q, want a UUID", s.ID)
	}
	got, err := store.Get(s.ID)
	if err != nil || got != s {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if store.Len() != 1 || store.IDs()[0] != s.ID {
		t.Errorf("Len = %d, IDs = %v", store.Len(), store.IDs())
	}

	if err := store.Delete(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(s.ID); !tgerrors.Is(err, tgerrors.ErrCodeNotFound) {
		t.Errorf("Get after Delete: err = %v", err)
	}
	if err := store.Delete(ctx, s.ID); !tgerrors.Is(err, tgerrors.ErrCodeNotFound) {
		t.Errorf("second Delete: err = %v", err)
	}
}

func TestStoreCleanup(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore(time.Hour)
	store.now = func() time.Time { return now }

	idle := store.Create(ctx)
	now = now.Add(30 * time.Minute)
	active := store.Create(ctx)
	now = now.Add(45 * time.Minute)

	if n := store.Cleanup(ctx); n != 1 {
		t.Fatalf("Cleanup removed %d, want 1", n)
	}
	if _, err := store.Get(idle.ID); err == nil {
		t.Error("idle session survived")
	}
	if _, err := store.Get(active.ID); err != nil {
		t.Errorf("active session removed: %v", err)
	}

	// An event keeps a session alive.
	now = now.Add(50 * time.Minute)
	active.Deselect(ctx)
	now = now.Add(30 * time.Minute)
	if n := store.Cleanup(ctx); n != 0 {
		t.Errorf("Cleanup removed %d touched sessions", n)
	}
}

func ExampleSession_Select() {
	ctx := context.Background()
	r := pipeline.NewRunner(nil, nil, log.New(&bytes.Buffer{}))
	res, _ := r.ExecuteReader(ctx, "run.json", strings.NewReader(twoNodes), pipeline.Options{})

	s := NewSession("demo")
	s.Load(ctx, res)

	n, _ := s.Select(ctx, "a")
	fmt.Println(n.ID, n.String("label"))

	_, err := s.Select(ctx, "missing")
	fmt.Println(tgerrors.GetCode(err))

	sel, _ := s.Selected()
	fmt.Println(sel.ID)
	// Output:
	// a answer
	// NOT_FOUND
	// a
}
