package graph

// Levels groups node IDs into topological levels using Kahn's algorithm.
//
// Level 0 holds the sources; every other node sits one level below the last
// of its parents. Within a level, nodes keep document order. Nodes on a cycle
// never reach in-degree zero and are placed together in one extra level after
// the last acyclic one.
func (g *Graph) Levels() [][]string {
	if len(g.nodes) == 0 {
		return nil
	}

	inDegree := make(map[string]int, len(g.nodes))
	for _, n := range g.nodes {
		inDegree[n.ID] = len(g.incoming[n.ID])
	}

	var levels [][]string
	placed := make(map[string]bool, len(g.nodes))

	var current []string
	for _, n := range g.nodes {
		if inDegree[n.ID] == 0 {
			current = append(current, n.ID)
		}
	}

	for len(current) > 0 {
		levels = append(levels, current)
		for _, id := range current {
			placed[id] = true
		}

		ready := make(map[string]bool)
		for _, id := range current {
			for _, child := range g.outgoing[id] {
				inDegree[child]--
				if inDegree[child] == 0 {
					ready[child] = true
				}
			}
		}
		current = inOrder(ready, g.nodes)
	}

	if len(placed) < len(g.nodes) {
		var rest []string
		for _, n := range g.nodes {
			if !placed[n.ID] {
				rest = append(rest, n.ID)
			}
		}
		levels = append(levels, rest)
	}
	return levels
}

// LevelOf returns the level index of every node, as assigned by Levels.
func (g *Graph) LevelOf() map[string]int {
	out := make(map[string]int, len(g.nodes))
	for i, ids := range g.Levels() {
		for _, id := range ids {
			out[id] = i
		}
	}
	return out
}

func inOrder(set map[string]bool, nodes []*Node) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for _, n := range nodes {
		if set[n.ID] {
			out = append(out, n.ID)
		}
	}
	return out
}
