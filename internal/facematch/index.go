package facematch

import "sync"

// Record is one enrollment embedding for a person. A person enrolled with
// several photos contributes several records sharing the same ID. Records
// are immutable once inserted; updates are append-only.
type Record struct {
	// ID is the record store's primary key for the person (opaque string).
	ID string
	// Name is the person's display name, used for annotation and reports.
	Name string
	// Vector is the fixed-length face embedding.
	Vector []float32
}

// Index is the shared in-memory embedding collection searched by every
// camera pipeline, together with the per-person search lifecycle sets.
//
// A single mutex guards the records and both sets: matching reads them
// together (a record is only a candidate when its person is neither pending
// nor resolved), so splitting the locks would reintroduce the race the
// lifecycle exists to close. Callers never iterate the live slice; they take
// a Snapshot and iterate the copy lock-free.
type Index struct {
	mu       sync.Mutex
	records  []Record
	pending  map[string]struct{}
	resolved map[string]struct{}
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		pending:  make(map[string]struct{}),
		resolved: make(map[string]struct{}),
	}
}

// Snapshot returns a point-in-time copy of all records. The returned slice
// is safe to iterate without holding any lock; embedding vectors are shared,
// not copied, and must be treated as read-only.
func (x *Index) Snapshot() []Record {
	x.mu.Lock()
	defer x.mu.Unlock()
	out := make([]Record, len(x.records))
	copy(out, x.records)
	return out
}

// Len returns the current record count.
func (x *Index) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.records)
}

// BulkReplace atomically clears and repopulates the index. It also resets
// the resolved set: a bulk reload re-derives the active population from the
// record store, which is authoritative about who is still lost.
func (x *Index) BulkReplace(records []Record) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.records = make([]Record, len(records))
	copy(x.records, records)
	x.resolved = make(map[string]struct{})
}

// Append adds one record per vector for the given person. Used by the live
// insert feed; never touches the lifecycle sets.
func (x *Index) Append(id, name string, vectors [][]float32) {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, vec := range vectors {
		x.records = append(x.records, Record{ID: id, Name: name, Vector: vec})
	}
}

// RemoveIdentity deletes every record for the given person.
func (x *Index) RemoveIdentity(id string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.removeLocked(id)
}

func (x *Index) removeLocked(id string) {
	kept := x.records[:0]
	for _, rec := range x.records {
		if rec.ID != id {
			kept = append(kept, rec)
		}
	}
	x.records = kept
}

// TryMarkPending transitions a person from searchable to pending, claiming
// the right to dispatch a report. It returns false when the person is
// already pending (another camera won the race) or permanently resolved.
// The transition happens before any network I/O on the caller's side.
func (x *Index) TryMarkPending(id string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.resolved[id]; ok {
		return false
	}
	if _, ok := x.pending[id]; ok {
		return false
	}
	x.pending[id] = struct{}{}
	return true
}

// ReleasePending rolls a person back from pending to searchable after a
// failed report dispatch, so the next detection cycle can retry.
func (x *Index) ReleasePending(id string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.pending, id)
}

// Resolve marks a person permanently found: the operator accepted the match.
// All records for the person are purged and any pending claim is dropped.
// Resolved entries never leave the set within the process lifetime.
func (x *Index) Resolve(id string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.resolved[id] = struct{}{}
	delete(x.pending, id)
	x.removeLocked(id)
}

// Research re-enables matching for a person whose report the operator
// rejected. Calling it for a person that is not pending is a no-op.
func (x *Index) Research(id string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.pending, id)
}

// Excluded reports whether a person is currently ineligible for matching,
// either because a report is in flight or because the case is closed.
func (x *Index) Excluded(id string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.pending[id]; ok {
		return true
	}
	_, ok := x.resolved[id]
	return ok
}
