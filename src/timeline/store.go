package timeline

import "github.com/jun-simons/chronograph/chronoerr"

// Store is the append-only per-entity event log. It is deliberately not
// internally synchronized: mutation follows a single-writer,
// externally-serialized contract, and adding a mutex here would hide that
// contract behind a false promise of safety rather than express it.
// Concurrent readers are served by Snapshot, which copies out of a Store
// before sharing across goroutines.
type Store struct {
	histories map[string]History
}

// NewStore returns an empty timeline store.
func NewStore() *Store {
	return &Store{histories: make(map[string]History)}
}

// Append adds an event to entityId's history. It rejects a time strictly
// less than the entity's last recorded time (equal times are permitted;
// ties are broken by arrival order, i.e. append order).
func (s *Store) Append(entityId string, event Event) error {
	history := s.histories[entityId]
	if len(history) > 0 && event.Time < history[len(history)-1].Time {
		return chronoerr.New(chronoerr.InvalidTime, entityId, "event time regresses entity's clock")
	}
	s.histories[entityId] = append(history, event.Clone())
	return nil
}

// History returns the full event sequence for entityId, or UnknownEntity if
// the store has never seen that id.
func (s *Store) History(entityId string) (History, error) {
	history, found := s.histories[entityId]
	if !found {
		return nil, chronoerr.New(chronoerr.UnknownEntity, entityId, "no recorded history")
	}
	return history, nil
}

// Known reports whether entityId has ever appeared in the store, regardless
// of whether it is currently live.
func (s *Store) Known(entityId string) bool {
	_, found := s.histories[entityId]
	return found
}

// ExistsAt reports whether entityId is live at time T: its latest event
// with Time <= T exists and is not a Delete.
func (s *Store) ExistsAt(entityId string, at LogicalTime) bool {
	_, live := s.LatestEffective(entityId, at)
	return live
}

// LatestEffective returns the merged attribute map as of T, or (nil, false)
// if the entity is not live at T. The merge walks back to the most recent
// Create that starts the life segment containing the found event, then
// folds every Update in that segment on top of the Create's payload,
// key-wise, later wins.
func (s *Store) LatestEffective(entityId string, at LogicalTime) (map[string]string, bool) {
	history := s.histories[entityId]
	idx := history.lastIndexAtOrBefore(at)
	if idx < 0 || history[idx].Kind == Delete {
		return nil, false
	}

	// Walk back to the Create that opened this life segment.
	start := idx
	for start > 0 && history[start].Kind != Create {
		start--
	}

	effective := make(map[string]string)
	for i := start; i <= idx; i++ {
		for k, v := range history[i].Payload {
			effective[k] = v
		}
	}
	return effective, true
}

// SegmentCreateTime returns the time of the Create event that opened the
// life segment live at T — the same walk-back LatestEffective uses,
// exposed on its own so callers that already know an entity is live at T
// can recover which Create made it so (a reactivated entity's current
// segment may have been opened long after its first-ever Create).
func (s *Store) SegmentCreateTime(entityId string, at LogicalTime) (LogicalTime, bool) {
	history := s.histories[entityId]
	idx := history.lastIndexAtOrBefore(at)
	if idx < 0 || history[idx].Kind == Delete {
		return 0, false
	}

	start := idx
	for start > 0 && history[start].Kind != Create {
		start--
	}
	return history[start].Time, true
}

// LoadHistories bulk-replaces the store's content with already-validated
// histories (deep-copied), used by checkout and merge materialization. It
// skips the monotonic-time check since the data is, by construction, a
// previously validated graph state.
func (s *Store) LoadHistories(histories map[string]History) {
	s.histories = make(map[string]History, len(histories))
	for id, h := range histories {
		s.histories[id] = h.Clone()
	}
}

// Snapshot returns a deep copy of every history currently known to the
// store, for the eager-copy Snapshot construction strategy.
func (s *Store) Snapshot() map[string]History {
	out := make(map[string]History, len(s.histories))
	for id, h := range s.histories {
		out[id] = h.Clone()
	}
	return out
}

// Ids returns every entity id ever seen by the store (live or not).
func (s *Store) Ids() []string {
	ids := make([]string, 0, len(s.histories))
	for id := range s.histories {
		ids = append(ids, id)
	}
	return ids
}
