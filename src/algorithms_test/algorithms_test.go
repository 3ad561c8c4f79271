package algorithms_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jun-simons/chronograph/algorithms"
	"github.com/jun-simons/chronograph/graph"
)

// makeSampleGraph builds A->B->C, A->D->E, C->E: the shortest-path fixture
// used across several scenarios below. A->D->E (2 edges) is strictly shorter
// than A->B->C->E (3 edges), so ShortestPath must prefer it.
func makeSampleGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, id := range []string{"A", "B", "C", "D", "E"} {
		require.NoError(t, g.AddNode(id, nil, 1))
	}
	require.NoError(t, g.AddEdge("AD", "A", "D", nil, 2))
	require.NoError(t, g.AddEdge("DE", "D", "E", nil, 3))
	require.NoError(t, g.AddEdge("AB", "A", "B", nil, 2))
	require.NoError(t, g.AddEdge("BC", "B", "C", nil, 3))
	require.NoError(t, g.AddEdge("CE", "C", "E", nil, 4))
	return g
}

// TestReachableVsTimeRespectingReachable builds a graph where the only path
// from A to C runs through an edge created before the edge leading to it, so
// plain reachability and time-respecting reachability disagree.
func TestReachableVsTimeRespectingReachable(t *testing.T) {
	g := graph.New()
	for _, id := range []string{"A", "B", "C"} {
		require.NoError(t, g.AddNode(id, nil, 1))
	}
	require.NoError(t, g.AddEdge("AB", "A", "B", nil, 5))
	require.NoError(t, g.AddEdge("BC", "B", "C", nil, 1))

	assert.True(t, algorithms.IsReachable(g, "A", "C"))
	assert.False(t, algorithms.IsTimeRespectingReachable(g, "A", "C"))
}

func TestTimeRespectingReachableViaValidLeg(t *testing.T) {
	g := graph.New()
	for _, id := range []string{"A", "D", "E"} {
		require.NoError(t, g.AddNode(id, nil, 1))
	}
	require.NoError(t, g.AddEdge("AD", "A", "D", nil, 2))
	require.NoError(t, g.AddEdge("DE", "D", "E", nil, 3))

	assert.True(t, algorithms.IsTimeRespectingReachable(g, "A", "E"))
}

func TestShortestPathPrefersFewerEdges(t *testing.T) {
	g := makeSampleGraph(t)

	path := algorithms.ShortestPath(g, "A", "E")
	assert.Equal(t, []graph.NodeId{"A", "D", "E"}, path)
}

func TestShortestPathUnreachable(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode("A", nil, 1))
	require.NoError(t, g.AddNode("B", nil, 1))

	assert.Nil(t, algorithms.ShortestPath(g, "A", "B"))
}

func TestShortestPathSameNode(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode("A", nil, 1))

	assert.Equal(t, []graph.NodeId{"A"}, algorithms.ShortestPath(g, "A", "A"))
}

func TestWeaklyConnectedComponents(t *testing.T) {
	g := graph.New()
	for _, id := range []string{"A", "B", "C", "Z"} {
		require.NoError(t, g.AddNode(id, nil, 1))
	}
	require.NoError(t, g.AddEdge("AB", "A", "B", nil, 2))
	require.NoError(t, g.AddEdge("BC", "B", "C", nil, 3))

	components := algorithms.WeaklyConnectedComponents(g)
	assert.Equal(t, [][]graph.NodeId{{"A", "B", "C"}, {"Z"}}, components)
}

func TestHasCycleDetectsSelfLoop(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode("A", nil, 1))
	require.NoError(t, g.AddEdge("self", "A", "A", nil, 2))

	assert.True(t, algorithms.HasCycle(g))
}

func TestHasCycleFalseOnDAG(t *testing.T) {
	g := makeSampleGraph(t)
	assert.False(t, algorithms.HasCycle(g))
}

func TestTopologicalSortOnDAG(t *testing.T) {
	g := graph.New()
	for _, id := range []string{"A", "B", "C"} {
		require.NoError(t, g.AddNode(id, nil, 1))
	}
	require.NoError(t, g.AddEdge("AB", "A", "B", nil, 2))
	require.NoError(t, g.AddEdge("BC", "B", "C", nil, 3))

	order, ok := algorithms.TopologicalSort(g)
	assert.True(t, ok)
	assert.Equal(t, []graph.NodeId{"A", "B", "C"}, order)
}

func TestTopologicalSortDetectsCycle(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode("A", nil, 1))
	require.NoError(t, g.AddNode("B", nil, 1))
	require.NoError(t, g.AddEdge("AB", "A", "B", nil, 2))
	require.NoError(t, g.AddEdge("BA", "B", "A", nil, 3))

	order, ok := algorithms.TopologicalSort(g)
	assert.False(t, ok)
	assert.Nil(t, order)
}

func TestAlgorithmsOverSnapshot(t *testing.T) {
	g := makeSampleGraph(t)
	snap := graph.NewSnapshot(g, g.Now())

	assert.True(t, algorithms.IsReachable(snap, "A", "E"))
	assert.Equal(t, []graph.NodeId{"A", "D", "E"}, algorithms.ShortestPath(snap, "A", "E"))
}

func TestReachableUnknownNode(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode("A", nil, 1))

	assert.False(t, algorithms.IsReachable(g, "A", "ghost"))
	assert.False(t, algorithms.IsReachable(g, "ghost", "A"))
}
