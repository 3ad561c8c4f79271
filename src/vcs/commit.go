// Package vcs layers commits, branches, checkout, and three-way merge on
// top of the timeline/graph packages.
package vcs

import (
	"github.com/jun-simons/chronograph/graph"
	"github.com/jun-simons/chronograph/timeline"
)

// CommitId is the content hash of a Commit's other fields.
type CommitId = string

// GraphState is an immutable snapshot of all entity histories: every node
// and edge history (live or not), plus the edge endpoint records needed to
// reconstruct adjacency.
type GraphState struct {
	NodeHistories map[graph.NodeId]timeline.History
	EdgeHistories map[graph.EdgeId]timeline.History
	EdgeEndpoints map[graph.EdgeId][]graph.EdgeEndpointRecord
}

// Commit is an immutable, content-addressed record of a graph state and
// its lineage. ID is the hash of the other fields, so equal content always
// produces equal ids (deduplication is a correctness property here, not an
// optimization).
type Commit struct {
	ID        CommitId
	Parents   []CommitId
	Message   string
	Author    string
	CreatedAt int64
	State     GraphState
}

// captureGraphState snapshots g's full history set into a GraphState.
func captureGraphState(g *graph.Graph) GraphState {
	nodeHistories, edgeHistories, endpoints := g.CaptureState()
	return GraphState{NodeHistories: nodeHistories, EdgeHistories: edgeHistories, EdgeEndpoints: endpoints}
}

// materialize rebuilds a working Graph from this state.
func (s GraphState) materialize(opts ...graph.Option) *graph.Graph {
	return graph.FromState(s.NodeHistories, s.EdgeHistories, s.EdgeEndpoints, opts...)
}
