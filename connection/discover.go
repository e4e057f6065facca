package connection

import "sort"

// DiscoverInputDeps returns every node transitively reachable from n by
// walking input (ancestor) edges, not including n itself, deduplicated
// and ordered by descending output-dependency count, ties broken by
// Identity.
func DiscoverInputDeps(n Node) []Node {
	return discover(n, func(x Node) []Node { return emitNodesOf(x.InputConnections()) })
}

// DiscoverOutputDeps returns every node transitively reachable from n by
// walking output (descendant) edges, not including n itself,
// deduplicated and ordered by descending output-dependency count, ties
// broken by Identity.
func DiscoverOutputDeps(n Node) []Node {
	return discover(n, func(x Node) []Node { return recvNodesOf(x.OutputConnections()) })
}

// DiscoverNeighbors returns n's direct input and output neighbors
// (distance 1 in either direction), deduplicated and ordered by
// descending output-dependency count, ties broken by Identity.
func DiscoverNeighbors(n Node) []Node {
	seen := map[string]Node{}
	for _, nb := range emitNodesOf(n.InputConnections()) {
		seen[nb.Identity()] = nb
	}
	for _, nb := range recvNodesOf(n.OutputConnections()) {
		seen[nb.Identity()] = nb
	}
	return sortedValues(seen)
}

// DiscoverGraph returns every node reachable from n in either direction
// (the full weakly-connected component containing n), including n
// itself, deduplicated and ordered by descending output-dependency
// count, ties broken by Identity.
func DiscoverGraph(n Node) []Node {
	seen := map[string]Node{n.Identity(): n}
	stack := []Node{n}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		neighbors := append(emitNodesOf(cur.InputConnections()), recvNodesOf(cur.OutputConnections())...)
		for _, nb := range neighbors {
			if _, ok := seen[nb.Identity()]; !ok {
				seen[nb.Identity()] = nb
				stack = append(stack, nb)
			}
		}
	}
	return sortedValues(seen)
}

// discover performs a BFS closure over n following the given expansion
// function, excluding n itself from the result, and sorts it.
func discover(n Node, expand func(Node) []Node) []Node {
	return sortedValues(discoverSet(n, expand))
}

// discoverSet is the unsorted BFS closure shared by discover and
// outputDepCount: every node reachable from n via expand, excluding n
// itself.
func discoverSet(n Node, expand func(Node) []Node) map[string]Node {
	seen := map[string]Node{n.Identity(): n}
	stack := expand(n)
	for _, s := range stack {
		seen[s.Identity()] = s
	}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, nb := range expand(cur) {
			if _, ok := seen[nb.Identity()]; !ok {
				seen[nb.Identity()] = nb
				stack = append(stack, nb)
			}
		}
	}

	delete(seen, n.Identity())
	return seen
}

// outputDepCount is n's output-dependency count, computed via the
// unsorted BFS directly (not DiscoverOutputDeps) so sortedValues never
// recurses back into itself.
func outputDepCount(n Node) int {
	return len(discoverSet(n, func(x Node) []Node { return recvNodesOf(x.OutputConnections()) }))
}

func emitNodesOf(conns []*Connection) []Node {
	out := make([]Node, len(conns))
	for i, c := range conns {
		out[i] = c.EmitNode
	}
	return out
}

func recvNodesOf(conns []*Connection) []Node {
	out := make([]Node, len(conns))
	for i, c := range conns {
		out[i] = c.RecvNode
	}
	return out
}

// sortedValues orders m's nodes the way the original's
// sort_discovered_nodes does: descending output-dependency count, ties
// broken by ascending Identity.
func sortedValues(m map[string]Node) []Node {
	out := make([]Node, 0, len(m))
	for _, n := range m {
		out = append(out, n)
	}

	counts := make(map[string]int, len(out))
	for _, n := range out {
		counts[n.Identity()] = outputDepCount(n)
	}

	sort.Slice(out, func(i, j int) bool {
		ci, cj := counts[out[i].Identity()], counts[out[j].Identity()]
		if ci != cj {
			return ci > cj
		}
		return out[i].Identity() < out[j].Identity()
	})
	return out
}
