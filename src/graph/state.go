package graph

import (
	"slices"

	"github.com/jun-simons/chronograph/timeline"
)

// CaptureState returns deep copies of every node history, every edge
// history (live or not — a commit's state is every entity's full history,
// so deletion and reactivation survive round-tripping through a commit),
// and the edge endpoint records. This is what vcs.Repository.Commit
// snapshots into a Commit.
func (g *Graph) CaptureState() (map[NodeId]timeline.History, map[EdgeId]timeline.History, map[EdgeId][]EdgeEndpointRecord) {
	return g.nodes.Snapshot(), g.edges.Snapshot(), cloneEndpoints(g.edgeEndpoints)
}

// FromState rebuilds a working Graph from previously captured histories,
// used by checkout and by merge to materialize a resolved GraphState. The
// resulting Graph's adjacency and Now() are rebuilt from the histories
// themselves, not copied: this is what makes the testable property "a
// commit's graph_state, re-materialised, has a live view equal to itself"
// hold regardless of how the caller obtained the histories.
func FromState(nodeHistories map[NodeId]timeline.History, edgeHistories map[EdgeId]timeline.History, edgeEndpoints map[EdgeId][]EdgeEndpointRecord, opts ...Option) *Graph {
	g := New(opts...)
	g.nodes.LoadHistories(nodeHistories)
	g.edges.LoadHistories(edgeHistories)
	g.edgeEndpoints = cloneEndpoints(edgeEndpoints)

	for _, history := range nodeHistories {
		for _, e := range history {
			g.advanceClock(e.Time)
		}
	}
	for _, history := range edgeHistories {
		for _, e := range history {
			g.advanceClock(e.Time)
		}
	}

	for id := range g.edgeEndpoints {
		if view, ok := g.edgeViewAt(id, g.maxTime); ok {
			g.linkAdjacency(id, view.Source, view.Target)
		}
	}

	return g
}

func cloneEndpoints(endpoints map[EdgeId][]EdgeEndpointRecord) map[EdgeId][]EdgeEndpointRecord {
	cloned := make(map[EdgeId][]EdgeEndpointRecord, len(endpoints))
	for id, records := range endpoints {
		cloned[id] = slices.Clone(records)
	}
	return cloned
}
