package graph

import (
	"iter"
	"slices"

	"github.com/jun-simons/chronograph/timeline"
)

// Snapshot is the read-only view over the timeline store at a fixed
// logical time T. It uses an eager-copy construction strategy: histories are
// deep-copied out of the Graph at construction time, so later mutation of
// the Graph is never observed through the Snapshot.
type Snapshot struct {
	nodes         *timeline.Store
	edges         *timeline.Store
	edgeEndpoints map[EdgeId][]EdgeEndpointRecord
	at            timeline.LogicalTime
}

// NewSnapshot builds a Snapshot of g as of time at.
func NewSnapshot(g *Graph, at timeline.LogicalTime) *Snapshot {
	nodes := timeline.NewStore()
	nodes.LoadHistories(g.nodes.Snapshot())

	edges := timeline.NewStore()
	edges.LoadHistories(g.edges.Snapshot())

	endpoints := make(map[EdgeId][]EdgeEndpointRecord, len(g.edgeEndpoints))
	for id, records := range g.edgeEndpoints {
		endpoints[id] = slices.Clone(records)
	}

	return &Snapshot{nodes: nodes, edges: edges, edgeEndpoints: endpoints, at: at}
}

// At returns the logical time this snapshot was taken at.
func (s *Snapshot) At() timeline.LogicalTime {
	return s.at
}

// GetNodes returns every node id live at s.At() with its effective
// attributes at that time.
func (s *Snapshot) GetNodes() map[NodeId]map[string]string {
	result := make(map[NodeId]map[string]string)
	for _, id := range s.nodes.Ids() {
		if attrs, live := s.nodes.LatestEffective(id, s.at); live {
			result[id] = attrs
		}
	}
	return result
}

// GetEdges returns every edge id live at s.At() whose endpoints are both
// live at s.At().
func (s *Snapshot) GetEdges() map[EdgeId]EdgeView {
	result := make(map[EdgeId]EdgeView)
	for _, id := range s.edges.Ids() {
		if view, ok := s.edgeViewAt(id); ok {
			result[id] = view
		}
	}
	return result
}

func (s *Snapshot) edgeViewAt(id EdgeId) (EdgeView, bool) {
	attrs, live := s.edges.LatestEffective(id, s.at)
	if !live {
		return EdgeView{}, false
	}
	endpoints, found := endpointsAt(s.edgeEndpoints[id], s.at)
	if !found || !s.nodes.ExistsAt(endpoints.Source, s.at) || !s.nodes.ExistsAt(endpoints.Target, s.at) {
		return EdgeView{}, false
	}
	createdAt, _ := s.edges.SegmentCreateTime(id, s.at)
	return EdgeView{
		Source:     endpoints.Source,
		Target:     endpoints.Target,
		Attrs:      attrs,
		CreateTime: createdAt,
	}, true
}

// IterNodes implements View over the nodes live at s.At().
func (s *Snapshot) IterNodes() iter.Seq2[NodeId, map[string]string] {
	nodes := s.GetNodes()
	return func(yield func(NodeId, map[string]string) bool) {
		for id, attrs := range nodes {
			if !yield(id, attrs) {
				return
			}
		}
	}
}

// IterEdges implements View over the edges live at s.At().
func (s *Snapshot) IterEdges() iter.Seq2[EdgeId, EdgeView] {
	edges := s.GetEdges()
	return func(yield func(EdgeId, EdgeView) bool) {
		for id, view := range edges {
			if !yield(id, view) {
				return
			}
		}
	}
}

// OutEdges implements View: source's live outgoing edges at s.At(), sorted.
// Snapshot has no standing adjacency index (it is a fixed-time view built
// rarely relative to the live Graph), so this scans the edge set.
func (s *Snapshot) OutEdges(source NodeId) []EdgeId {
	var ids []EdgeId
	for _, id := range s.edges.Ids() {
		view, ok := s.edgeViewAt(id)
		if ok && view.Source == source {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}
