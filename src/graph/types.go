// Package graph is the mutable working view over the timeline store plus
// the read-only Snapshot view over a fixed logical time. Both expose the
// same small capability set, View, so algorithms can run over either
// without caring which one they got.
package graph

import (
	"iter"

	"github.com/jun-simons/chronograph/timeline"
)

// NodeId and EdgeId are opaque, caller-chosen identifiers, unique within a
// graph.
type NodeId = string
type EdgeId = string

// EdgeEndpoints are an edge's fixed source/destination for one life segment,
// set at creation and carried alongside (not inside) the edge's attribute
// history — endpoints are structure, not user data.
type EdgeEndpoints struct {
	Source NodeId
	Target NodeId
}

// EdgeEndpointRecord pins an EdgeEndpoints to the time its life segment
// began. An edge id deleted and later recreated can be reconnected between
// different nodes; recording one entry per segment (instead of overwriting
// a single map slot) keeps a Snapshot taken during an earlier segment
// reporting that segment's own endpoints, not whatever the id currently
// points at.
type EdgeEndpointRecord struct {
	Since     timeline.LogicalTime
	Endpoints EdgeEndpoints
}

// endpointsAt returns the endpoints of whichever segment in records was
// open at time at: the record with the largest Since not exceeding at.
// Records are appended in non-decreasing Since order, so the first match
// scanning from the end is the answer.
func endpointsAt(records []EdgeEndpointRecord, at timeline.LogicalTime) (EdgeEndpoints, bool) {
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Since <= at {
			return records[i].Endpoints, true
		}
	}
	return EdgeEndpoints{}, false
}

// EdgeView is what algorithms and callers see for one live edge: its
// endpoints, its effective attributes, and its Create time (needed by
// IsTimeRespectingReachable).
type EdgeView struct {
	Source     NodeId
	Target     NodeId
	Attrs      map[string]string
	CreateTime timeline.LogicalTime
}

// View is the small capability set algorithms depend on: iterate live
// nodes, iterate live edges, and list a node's outgoing edges. Graph and
// Snapshot both implement it.
type View interface {
	IterNodes() iter.Seq2[NodeId, map[string]string]
	IterEdges() iter.Seq2[EdgeId, EdgeView]
	OutEdges(source NodeId) []EdgeId
}
