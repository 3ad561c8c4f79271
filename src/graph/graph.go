package graph

import (
	"iter"
	"slices"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jun-simons/chronograph/chronoerr"
	"github.com/jun-simons/chronograph/timeline"
)

// Graph is the mutable working view over two Timeline stores (nodes,
// edges); it derives an adjacency index that reflects only currently-live
// edges, for O(1) current-state access.
//
// Graph is not reentrant: mutating methods must be externally serialized.
// Nothing here adds a mutex to paper over that contract.
type Graph struct {
	nodes *timeline.Store
	edges *timeline.Store

	edgeEndpoints map[EdgeId][]EdgeEndpointRecord
	outgoing      map[NodeId]map[EdgeId]struct{}
	incoming      map[NodeId]map[EdgeId]struct{}

	// maxTime is the highest LogicalTime seen across any mutating call; it
	// is the "now" used by GetNodes/GetEdges/GetOutgoing/GetIncoming.
	maxTime timeline.LogicalTime

	log *logrus.Logger
}

// New returns an empty working graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		nodes:         timeline.NewStore(),
		edges:         timeline.NewStore(),
		edgeEndpoints: make(map[EdgeId][]EdgeEndpointRecord),
		outgoing:      make(map[NodeId]map[EdgeId]struct{}),
		incoming:      make(map[NodeId]map[EdgeId]struct{}),
		log:           silentLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Graph) advanceClock(at timeline.LogicalTime) {
	if at > g.maxTime {
		g.maxTime = at
	}
}

// AddNode creates id with attrs at time at. It fails DuplicateLive if the
// node is already live at at; a Create appended after a prior Delete
// reactivates the node.
func (g *Graph) AddNode(id NodeId, attrs map[string]string, at timeline.LogicalTime) error {
	if g.nodes.ExistsAt(id, at) {
		return chronoerr.New(chronoerr.DuplicateLive, id, "node already live")
	}
	if err := g.nodes.Append(id, timeline.Event{Time: at, Kind: timeline.Create, Payload: attrs}); err != nil {
		return err
	}
	g.advanceClock(at)
	g.log.WithFields(logrus.Fields{"op_id": uuid.NewString(), "node": id, "time": at}).Debug("node created")
	return nil
}

// UpdateNode merges attrs key-wise into id's effective attributes as of at.
// To replace all attributes wholesale, delete then create.
func (g *Graph) UpdateNode(id NodeId, attrs map[string]string, at timeline.LogicalTime) error {
	if !g.nodes.ExistsAt(id, at) {
		return chronoerr.New(chronoerr.NotLive, id, "node not live")
	}
	if err := g.nodes.Append(id, timeline.Event{Time: at, Kind: timeline.Update, Payload: attrs}); err != nil {
		return err
	}
	g.advanceClock(at)
	return nil
}

// DelNode deletes id at time at and cascades Delete to every edge
// currently incident on it. Calling DelNode on an already-deleted node is
// a documented no-op: no error, no event appended, no cascade.
func (g *Graph) DelNode(id NodeId, at timeline.LogicalTime) error {
	if !g.nodes.ExistsAt(id, at) {
		return nil
	}
	if err := g.nodes.Append(id, timeline.Event{Time: at, Kind: timeline.Delete}); err != nil {
		return err
	}
	g.advanceClock(at)

	incident := make(map[EdgeId]struct{})
	for edgeId := range g.outgoing[id] {
		incident[edgeId] = struct{}{}
	}
	for edgeId := range g.incoming[id] {
		incident[edgeId] = struct{}{}
	}
	for edgeId := range incident {
		// already verified live above via adjacency; ignore idempotency no-op path
		_ = g.DelEdge(edgeId, at)
	}

	g.log.WithFields(logrus.Fields{"node": id, "time": at}).Debug("node deleted")
	return nil
}

// AddEdge creates id from src to dst with attrs at time at. It fails
// EndpointMissing unless both src and dst are live at at, and
// DuplicateLive if the edge is already live at at.
func (g *Graph) AddEdge(id EdgeId, src, dst NodeId, attrs map[string]string, at timeline.LogicalTime) error {
	if !g.nodes.ExistsAt(src, at) || !g.nodes.ExistsAt(dst, at) {
		return chronoerr.New(chronoerr.EndpointMissing, id, "source or target not live at the supplied time")
	}
	if g.edges.ExistsAt(id, at) {
		return chronoerr.New(chronoerr.DuplicateLive, id, "edge already live")
	}
	if err := g.edges.Append(id, timeline.Event{Time: at, Kind: timeline.Create, Payload: attrs}); err != nil {
		return err
	}
	g.advanceClock(at)

	g.edgeEndpoints[id] = append(g.edgeEndpoints[id], EdgeEndpointRecord{Since: at, Endpoints: EdgeEndpoints{Source: src, Target: dst}})
	g.linkAdjacency(id, src, dst)

	g.log.WithFields(logrus.Fields{"edge": id, "source": src, "target": dst, "time": at}).Debug("edge created")
	return nil
}

// UpdateEdge merges attrs key-wise into id's effective attributes as of at.
func (g *Graph) UpdateEdge(id EdgeId, attrs map[string]string, at timeline.LogicalTime) error {
	if !g.edges.ExistsAt(id, at) {
		return chronoerr.New(chronoerr.NotLive, id, "edge not live")
	}
	if err := g.edges.Append(id, timeline.Event{Time: at, Kind: timeline.Update, Payload: attrs}); err != nil {
		return err
	}
	g.advanceClock(at)
	return nil
}

// DelEdge deletes id at time at, removing it from adjacency. It is
// idempotent on an already-deleted edge, mirroring DelNode.
func (g *Graph) DelEdge(id EdgeId, at timeline.LogicalTime) error {
	if !g.edges.ExistsAt(id, at) {
		return nil
	}
	if err := g.edges.Append(id, timeline.Event{Time: at, Kind: timeline.Delete}); err != nil {
		return err
	}
	g.advanceClock(at)
	g.unlinkAdjacency(id)

	g.log.WithFields(logrus.Fields{"edge": id, "time": at}).Debug("edge deleted")
	return nil
}

func (g *Graph) linkAdjacency(id EdgeId, src, dst NodeId) {
	if g.outgoing[src] == nil {
		g.outgoing[src] = make(map[EdgeId]struct{})
	}
	g.outgoing[src][id] = struct{}{}

	if g.incoming[dst] == nil {
		g.incoming[dst] = make(map[EdgeId]struct{})
	}
	g.incoming[dst][id] = struct{}{}
}

func (g *Graph) unlinkAdjacency(id EdgeId) {
	records := g.edgeEndpoints[id]
	if len(records) == 0 {
		return
	}
	endpoints := records[len(records)-1].Endpoints
	delete(g.outgoing[endpoints.Source], id)
	delete(g.incoming[endpoints.Target], id)
}

// GetNodes returns every node live at the graph's current time (the
// highest LogicalTime seen so far) with its effective attributes.
func (g *Graph) GetNodes() map[NodeId]map[string]string {
	result := make(map[NodeId]map[string]string)
	for _, id := range g.nodes.Ids() {
		if attrs, live := g.nodes.LatestEffective(id, g.maxTime); live {
			result[id] = attrs
		}
	}
	return result
}

// GetEdges returns every edge live at the current time whose endpoints are
// both live at the current time, as id -> EdgeView.
func (g *Graph) GetEdges() map[EdgeId]EdgeView {
	result := make(map[EdgeId]EdgeView)
	for _, id := range g.edges.Ids() {
		if view, ok := g.edgeViewAt(id, g.maxTime); ok {
			result[id] = view
		}
	}
	return result
}

func (g *Graph) edgeViewAt(id EdgeId, at timeline.LogicalTime) (EdgeView, bool) {
	attrs, live := g.edges.LatestEffective(id, at)
	if !live {
		return EdgeView{}, false
	}
	endpoints, found := endpointsAt(g.edgeEndpoints[id], at)
	if !found || !g.nodes.ExistsAt(endpoints.Source, at) || !g.nodes.ExistsAt(endpoints.Target, at) {
		return EdgeView{}, false
	}
	createdAt, _ := g.edges.SegmentCreateTime(id, at)
	return EdgeView{
		Source:     endpoints.Source,
		Target:     endpoints.Target,
		Attrs:      attrs,
		CreateTime: createdAt,
	}, true
}

// GetOutgoing returns the current adjacency: each node's live outgoing
// edge ids, sorted for deterministic iteration.
func (g *Graph) GetOutgoing() map[NodeId][]EdgeId {
	return sortedAdjacency(g.outgoing)
}

// GetIncoming returns the current adjacency: each node's live incoming
// edge ids, sorted for deterministic iteration.
func (g *Graph) GetIncoming() map[NodeId][]EdgeId {
	return sortedAdjacency(g.incoming)
}

func sortedAdjacency(index map[NodeId]map[EdgeId]struct{}) map[NodeId][]EdgeId {
	result := make(map[NodeId][]EdgeId, len(index))
	for node, edges := range index {
		ids := make([]EdgeId, 0, len(edges))
		for id := range edges {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		result[node] = ids
	}
	return result
}

// IterNodes implements View over the current live nodes.
func (g *Graph) IterNodes() iter.Seq2[NodeId, map[string]string] {
	nodes := g.GetNodes()
	return func(yield func(NodeId, map[string]string) bool) {
		for id, attrs := range nodes {
			if !yield(id, attrs) {
				return
			}
		}
	}
}

// IterEdges implements View over the current live edges.
func (g *Graph) IterEdges() iter.Seq2[EdgeId, EdgeView] {
	edges := g.GetEdges()
	return func(yield func(EdgeId, EdgeView) bool) {
		for id, view := range edges {
			if !yield(id, view) {
				return
			}
		}
	}
}

// OutEdges implements View: the current, sorted outgoing edges of source.
func (g *Graph) OutEdges(source NodeId) []EdgeId {
	ids := make([]EdgeId, 0, len(g.outgoing[source]))
	for id := range g.outgoing[source] {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Now returns the graph's current logical time (the highest time seen
// across any mutating call).
func (g *Graph) Now() timeline.LogicalTime {
	return g.maxTime
}
