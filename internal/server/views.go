package server

import (
	"github.com/matzehuels/thoughtgraph/pkg/graph"
	"github.com/matzehuels/thoughtgraph/pkg/layout"
	"github.com/matzehuels/thoughtgraph/pkg/viewer"
)

// graphView is the payload the browser draws from.
type graphView struct {
	Session  string     `json:"session"`
	Source   string     `json:"source,omitempty"`
	Format   string     `json:"format,omitempty"`
	Width    float64    `json:"width"`
	Height   float64    `json:"height"`
	Mode     string     `json:"mode,omitempty"`
	Nodes    []nodeView `json:"nodes"`
	Edges    []edgeView `json:"edges"`
	Hidden   int        `json:"hidden"`
	Selected *string    `json:"selected"`
	Error    *errorBody `json:"error"`
}

type nodeView struct {
	ID    string      `json:"id"`
	Label string      `json:"label"`
	X     float64     `json:"x"`
	Y     float64     `json:"y"`
	Band  int         `json:"band"`
	Attrs graph.Attrs `json:"attrs"`
}

type edgeView struct {
	Source string      `json:"source"`
	Target string      `json:"target"`
	Attrs  graph.Attrs `json:"attrs"`
}

type selectionView struct {
	Selected *nodeView `json:"selected"`
}

func newGraphView(snap viewer.Snapshot, visible *graph.Graph) graphView {
	v := graphView{
		Session: snap.ID,
		Nodes:   []nodeView{},
		Edges:   []edgeView{},
		Error:   newErrorBody(snap.Err),
	}
	if !snap.HasGraph() {
		return v
	}

	v.Source = snap.Source
	v.Format = snap.Result.Document.Format
	v.Width, v.Height, v.Mode = snap.Layout.Width, snap.Layout.Height, snap.Layout.Mode
	v.Hidden = snap.Graph.NodeCount() - visible.NodeCount()

	for _, n := range visible.Nodes() {
		v.Nodes = append(v.Nodes, newNodeView(snap.Graph, snap.Layout, n))
	}
	for _, e := range visible.Edges() {
		v.Edges = append(v.Edges, edgeView{Source: e.Source, Target: e.Target, Attrs: nonNil(e.Attrs)})
	}
	// A selection hidden by the filter is reported as none; the session keeps it.
	if snap.Selected != nil {
		if _, ok := visible.Node(snap.Selected.ID); ok {
			id := snap.Selected.ID
			v.Selected = &id
		}
	}
	return v
}

func newNodeView(g *graph.Graph, l *layout.Layout, n *graph.Node) nodeView {
	p, _ := l.Position(n.ID)
	return nodeView{
		ID:    n.ID,
		Label: g.Label(n),
		X:     p.X,
		Y:     p.Y,
		Band:  p.Level,
		Attrs: nonNil(n.Attrs),
	}
}

func nonNil(a graph.Attrs) graph.Attrs {
	if a == nil {
		return graph.Attrs{}
	}
	return a
}
