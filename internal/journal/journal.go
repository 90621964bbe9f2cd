// Package journal orders in-flight mutations per entity id. Remote
// completions can resolve out of issue order; the journal lets the engine
// discard completions that would overwrite newer optimistic state.
package journal

import "sync"

// Journal hands out a monotonically increasing sequence per entity id and
// records which sequence last touched the entity.
type Journal struct {
	mu      sync.Mutex
	next    map[string]uint64
	applied map[string]uint64
}

func New() *Journal {
	return &Journal{
		next:    make(map[string]uint64),
		applied: make(map[string]uint64),
	}
}

// Begin issues the sequence number for a new mutation on id.
func (j *Journal) Begin(id string) uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.next[id]++

	return j.next[id]
}

// Settle records the completion of a mutation. It returns false when a
// newer mutation already settled, meaning this completion is stale and its
// result must not be applied.
func (j *Journal) Settle(id string, seq uint64) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	if seq < j.applied[id] {
		return false
	}

	j.applied[id] = seq

	return true
}

// Rename carries an entity's history over to a new id, used when a
// provisional id is reconciled to the server-assigned one.
func (j *Journal) Rename(oldID, newID string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if v, ok := j.next[oldID]; ok {
		if v > j.next[newID] {
			j.next[newID] = v
		}

		delete(j.next, oldID)
	}

	if v, ok := j.applied[oldID]; ok {
		if v > j.applied[newID] {
			j.applied[newID] = v
		}

		delete(j.applied, oldID)
	}
}

// Reset forgets all history, used when the cached state is dropped.
func (j *Journal) Reset() {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.next = make(map[string]uint64)
	j.applied = make(map[string]uint64)
}
