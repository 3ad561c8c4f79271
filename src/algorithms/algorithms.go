// Package algorithms implements traversal and analysis operations over a
// graph.View, so each one runs identically over a live graph.Graph or a
// fixed-time graph.Snapshot. None of these error on missing node ids: an
// unknown id just yields an empty/false result rather than an error.
package algorithms

import (
	"slices"
	"strings"

	"github.com/jun-simons/chronograph/graph"
	"github.com/jun-simons/chronograph/timeline"
)

// nodeSet materializes the live node ids of v into a lookup set, used by
// the algorithms below that need to know "is this id even in the view".
func nodeSet(v graph.View) map[graph.NodeId]struct{} {
	set := make(map[graph.NodeId]struct{})
	for id := range v.IterNodes() {
		set[id] = struct{}{}
	}
	return set
}

// sortedNeighbors returns the lexicographically sorted list of direct
// successors of source, resolved through the view's edge set.
func sortedNeighbors(v graph.View, source graph.NodeId) []graph.NodeId {
	edgeIds := v.OutEdges(source)
	edges := make(map[graph.EdgeId]graph.EdgeView)
	for id, e := range v.IterEdges() {
		edges[id] = e
	}

	seen := make(map[graph.NodeId]struct{})
	var neighbors []graph.NodeId
	for _, edgeId := range edgeIds {
		edge, found := edges[edgeId]
		if !found {
			continue
		}
		if _, already := seen[edge.Target]; already {
			continue
		}
		seen[edge.Target] = struct{}{}
		neighbors = append(neighbors, edge.Target)
	}
	slices.Sort(neighbors)
	return neighbors
}

// IsReachable runs a directed BFS over outgoing adjacency, ignoring edge
// timestamps entirely.
func IsReachable(v graph.View, src, dst graph.NodeId) bool {
	nodes := nodeSet(v)
	if _, ok := nodes[src]; !ok {
		return false
	}
	if _, ok := nodes[dst]; !ok {
		return false
	}
	if src == dst {
		return true
	}

	visited := map[graph.NodeId]struct{}{src: {}}
	queue := []graph.NodeId{src}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range sortedNeighbors(v, current) {
			if next == dst {
				return true
			}
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}
			queue = append(queue, next)
		}
	}
	return false
}

// timeRespectingState is a BFS frontier state: the node reached, and the
// minimum Create time the next edge taken must satisfy.
type timeRespectingState struct {
	node        graph.NodeId
	minNextTime timeline.LogicalTime
}

// IsTimeRespectingReachable reports whether a path src=v0, e1, v1, ..., vk=dst
// exists such that consecutive edges' Create times are non-decreasing.
func IsTimeRespectingReachable(v graph.View, src, dst graph.NodeId) bool {
	nodes := nodeSet(v)
	if _, ok := nodes[src]; !ok {
		return false
	}
	if _, ok := nodes[dst]; !ok {
		return false
	}
	if src == dst {
		return true
	}

	type visitKey struct {
		node graph.NodeId
		t    timeline.LogicalTime
	}

	start := timeRespectingState{node: src, minNextTime: minLogicalTime()}
	visited := map[visitKey]struct{}{{src, start.minNextTime}: {}}
	queue := []timeRespectingState{start}

	edgesByTarget := func(source graph.NodeId) []graph.EdgeView {
		var result []graph.EdgeView
		edges := make(map[graph.EdgeId]graph.EdgeView)
		for id, e := range v.IterEdges() {
			edges[id] = e
		}
		for _, edgeId := range v.OutEdges(source) {
			if e, found := edges[edgeId]; found {
				result = append(result, e)
			}
		}
		return result
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, edge := range edgesByTarget(current.node) {
			if edge.CreateTime < current.minNextTime {
				continue
			}
			if edge.Target == dst {
				return true
			}
			nextState := visitKey{edge.Target, edge.CreateTime}
			if _, seen := visited[nextState]; seen {
				continue
			}
			visited[nextState] = struct{}{}
			queue = append(queue, timeRespectingState{node: edge.Target, minNextTime: edge.CreateTime})
		}
	}
	return false
}

// minLogicalTime is the floor every time-respecting walk starts from: any
// first edge qualifies, since LogicalTime is non-negative.
func minLogicalTime() timeline.LogicalTime { return 0 }

// ShortestPath returns the unweighted BFS shortest path from src to dst as
// a list of node ids starting with src and ending with dst, or an empty
// slice if unreachable. Ties break on lexicographic neighbor order at each
// frontier, for deterministic output.
func ShortestPath(v graph.View, src, dst graph.NodeId) []graph.NodeId {
	nodes := nodeSet(v)
	if _, ok := nodes[src]; !ok {
		return nil
	}
	if _, ok := nodes[dst]; !ok {
		return nil
	}
	if src == dst {
		return []graph.NodeId{src}
	}

	predecessor := map[graph.NodeId]graph.NodeId{}
	visited := map[graph.NodeId]struct{}{src: {}}
	queue := []graph.NodeId{src}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range sortedNeighbors(v, current) {
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}
			predecessor[next] = current
			if next == dst {
				return reconstructPath(predecessor, src, dst)
			}
			queue = append(queue, next)
		}
	}
	return nil
}

func reconstructPath(predecessor map[graph.NodeId]graph.NodeId, src, dst graph.NodeId) []graph.NodeId {
	path := []graph.NodeId{dst}
	for path[len(path)-1] != src {
		path = append(path, predecessor[path[len(path)-1]])
	}
	slices.Reverse(path)
	return path
}

// WeaklyConnectedComponents partitions the view's nodes via union-find on
// the undirected interpretation of its edges. Each inner list is sorted
// lexicographically; the outer list is ordered by each component's
// smallest element.
func WeaklyConnectedComponents(v graph.View) [][]graph.NodeId {
	parent := make(map[graph.NodeId]graph.NodeId)
	var order []graph.NodeId

	var find func(graph.NodeId) graph.NodeId
	find = func(n graph.NodeId) graph.NodeId {
		if parent[n] != n {
			parent[n] = find(parent[n])
		}
		return parent[n]
	}
	union := func(a, b graph.NodeId) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	for id := range v.IterNodes() {
		parent[id] = id
		order = append(order, id)
	}
	for _, edge := range v.IterEdges() {
		union(edge.Source, edge.Target)
	}

	groups := make(map[graph.NodeId][]graph.NodeId)
	for _, id := range order {
		root := find(id)
		groups[root] = append(groups[root], id)
	}

	var components [][]graph.NodeId
	for _, members := range groups {
		slices.Sort(members)
		components = append(components, members)
	}
	slices.SortFunc(components, func(a, b []graph.NodeId) int {
		return strings.Compare(a[0], b[0])
	})
	return components
}

// HasCycle runs a directed DFS with white/grey/black coloring; a grey-to-
// grey edge (including a self-loop) means a cycle.
func HasCycle(v graph.View) bool {
	const white, grey, black = 0, 1, 2
	color := make(map[graph.NodeId]int)
	for id := range v.IterNodes() {
		color[id] = white
	}

	var nodes []graph.NodeId
	for id := range color {
		nodes = append(nodes, id)
	}
	slices.Sort(nodes)

	var visit func(graph.NodeId) bool
	visit = func(n graph.NodeId) bool {
		color[n] = grey
		for _, next := range sortedNeighbors(v, n) {
			switch color[next] {
			case grey:
				return true
			case white:
				if visit(next) {
					return true
				}
			}
		}
		color[n] = black
		return false
	}

	for _, n := range nodes {
		if color[n] == white {
			if visit(n) {
				return true
			}
		}
	}
	return false
}

// TopologicalSort runs Kahn's algorithm, tie-breaking lexicographically
// among nodes with zero in-degree. It returns (nil, false) if the view
// contains a cycle — absent, not an error.
func TopologicalSort(v graph.View) ([]graph.NodeId, bool) {
	inDegree := make(map[graph.NodeId]int)
	for id := range v.IterNodes() {
		inDegree[id] = 0
	}
	for id := range inDegree {
		for _, next := range sortedNeighbors(v, id) {
			if _, tracked := inDegree[next]; tracked {
				inDegree[next]++
			}
		}
	}

	var ready []graph.NodeId
	for id, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	slices.Sort(ready)

	var order []graph.NodeId
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		var newlyReady []graph.NodeId
		for _, succ := range sortedNeighbors(v, next) {
			if _, tracked := inDegree[succ]; !tracked {
				continue
			}
			inDegree[succ]--
			if inDegree[succ] == 0 {
				newlyReady = append(newlyReady, succ)
			}
		}
		slices.Sort(newlyReady)
		ready = append(ready, newlyReady...)
		slices.Sort(ready)
	}

	if len(order) != len(inDegree) {
		return nil, false
	}
	return order, true
}
