package vcs

import (
	"maps"
	"slices"

	"github.com/jun-simons/chronograph/graph"
	"github.com/jun-simons/chronograph/timeline"
)

// MergePolicy governs how a three-way merge resolves an entity whose
// history diverged on both branches since the common ancestor.
type MergePolicy int

const (
	// OURS keeps the target (HEAD) branch's history for a divergent entity.
	OURS MergePolicy = iota
	// THEIRS takes the source branch's history for a divergent entity.
	THEIRS
	// UNION concatenates both branches' post-ancestor events in
	// non-decreasing time order, breaking ties target-before-source.
	UNION
)

// MergeResult reports the outcome of Repository.Merge: the commit produced
// (or reused, for a no-op/fast-forward) and the entity ids that required
// policy resolution. Conflicts is never an error channel — it is data about
// what diverged, not a failure signal.
type MergeResult struct {
	MergeCommitID CommitId
	Conflicts     []string
}

// resolveGraphState is the three-way merge body run once fast-forward and
// no-op merges have been ruled out: for every entity in target or source,
// diff against base and resolve divergence per policy.
func resolveGraphState(base, target, source GraphState, policy MergePolicy) (GraphState, []string) {
	mergedNodes, nodeConflicts := resolveEntities(base.NodeHistories, target.NodeHistories, source.NodeHistories, policy)
	mergedEdges, edgeConflicts := resolveEntities(base.EdgeHistories, target.EdgeHistories, source.EdgeHistories, policy)
	mergedEndpoints := resolveEndpoints(mergedEdges, target.EdgeEndpoints, source.EdgeEndpoints)

	conflicts := append(nodeConflicts, edgeConflicts...)
	slices.Sort(conflicts)

	return GraphState{
		NodeHistories: mergedNodes,
		EdgeHistories: mergedEdges,
		EdgeEndpoints: mergedEndpoints,
	}, conflicts
}

func resolveEntities(base, target, source map[string]timeline.History, policy MergePolicy) (map[string]timeline.History, []string) {
	ids := make(map[string]struct{})
	for id := range base {
		ids[id] = struct{}{}
	}
	for id := range target {
		ids[id] = struct{}{}
	}
	for id := range source {
		ids[id] = struct{}{}
	}

	result := make(map[string]timeline.History, len(ids))
	var conflicts []string

	for id := range ids {
		b := base[id]
		t := target[id]
		s := source[id]

		tDiff := suffixSince(t, b)
		sDiff := suffixSince(s, b)

		switch {
		case len(tDiff) == 0 && len(sDiff) == 0:
			if b != nil {
				result[id] = b
			}
		case len(sDiff) == 0:
			result[id] = t
		case len(tDiff) == 0:
			result[id] = s
		case historiesEqual(tDiff, sDiff):
			result[id] = t
		default:
			conflicts = append(conflicts, id)
			switch policy {
			case OURS:
				result[id] = t
			case THEIRS:
				result[id] = s
			case UNION:
				result[id] = append(slices.Clone(b), unionEvents(tDiff, sDiff)...)
			}
		}
	}

	return result, conflicts
}

func resolveEndpoints(mergedEdges map[string]timeline.History, target, source map[graph.EdgeId][]graph.EdgeEndpointRecord) map[graph.EdgeId][]graph.EdgeEndpointRecord {
	result := make(map[graph.EdgeId][]graph.EdgeEndpointRecord, len(mergedEdges))
	for id := range mergedEdges {
		if records, ok := target[id]; ok {
			result[id] = records
		} else if records, ok := source[id]; ok {
			result[id] = records
		}
	}
	return result
}

// suffixSince returns full's events that come after base, i.e. the part of
// full's history that was appended since base. If full does not start with
// base (should not happen for a proper descendant, but defensively
// handled), the whole of full is treated as the diff.
func suffixSince(full, base timeline.History) timeline.History {
	if len(base) > len(full) || !historiesEqual(full[:len(base)], base) {
		return full
	}
	return full[len(base):]
}

func historiesEqual(a, b timeline.History) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Time != b[i].Time || a[i].Kind != b[i].Kind {
			return false
		}
		if !maps.Equal(a[i].Payload, b[i].Payload) {
			return false
		}
	}
	return true
}

// unionEvents concatenates tDiff and sDiff in non-decreasing time order,
// breaking ties target-before-source for determinism.
func unionEvents(tDiff, sDiff timeline.History) timeline.History {
	type tagged struct {
		event  timeline.Event
		origin int // 0 = target, 1 = source; used only as a tie-break
	}

	combined := make([]tagged, 0, len(tDiff)+len(sDiff))
	for _, e := range tDiff {
		combined = append(combined, tagged{event: e, origin: 0})
	}
	for _, e := range sDiff {
		combined = append(combined, tagged{event: e, origin: 1})
	}

	slices.SortStableFunc(combined, func(a, b tagged) int {
		switch {
		case a.event.Time < b.event.Time:
			return -1
		case a.event.Time > b.event.Time:
			return 1
		case a.origin != b.origin:
			return a.origin - b.origin
		default:
			return 0
		}
	})

	result := make(timeline.History, len(combined))
	for i, c := range combined {
		result[i] = c.event
	}
	return result
}
