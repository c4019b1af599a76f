package engine

import "sort"

// Queue is the total order over a pipeline's waiting entries: priority
// descending, approval timestamp ascending, entry id ascending.
type Queue struct {
	entries []Entry
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

func less(a, b Entry) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if !a.ApprovedAt.Equal(b.ApprovedAt) {
		return a.ApprovedAt.Before(b.ApprovedAt)
	}
	return a.ID < b.ID
}

func (q *Queue) sort() {
	sort.SliceStable(q.entries, func(i, j int) bool {
		return less(q.entries[i], q.entries[j])
	})
}

// indexByPRID returns the slice index of the entry with the given PR id, or
// -1 if absent.
func (q *Queue) indexByPRID(prID string) int {
	for i, e := range q.entries {
		if e.PRID == prID {
			return i
		}
	}
	return -1
}

// Upsert inserts a new entry, or replaces an existing entry for the same PR
// id (re-approval semantics per §4.2), then re-sorts.
func (q *Queue) Upsert(e Entry) {
	if i := q.indexByPRID(e.PRID); i >= 0 {
		q.entries[i] = e
	} else {
		q.entries = append(q.entries, e)
	}
	q.sort()
}

// Remove deletes the entry for prID, if present. Reports whether it removed
// anything.
func (q *Queue) Remove(prID string) bool {
	i := q.indexByPRID(prID)
	if i < 0 {
		return false
	}
	q.entries = append(q.entries[:i], q.entries[i+1:]...)
	return true
}

// PopFront removes and returns the highest-priority entry, if any.
func (q *Queue) PopFront() (Entry, bool) {
	if len(q.entries) == 0 {
		return Entry{}, false
	}
	e := q.entries[0]
	q.entries = q.entries[1:]
	return e, true
}

// Len reports the number of queued entries.
func (q *Queue) Len() int { return len(q.entries) }

// Snapshot returns a copy of the queue contents in order, for persistence or
// inspection.
func (q *Queue) Snapshot() []Entry {
	out := make([]Entry, len(q.entries))
	copy(out, q.entries)
	return out
}

// Contains reports whether prID is currently queued.
func (q *Queue) Contains(prID string) bool {
	return q.indexByPRID(prID) >= 0
}

// Load replaces the queue contents, used when restoring from persistence.
func (q *Queue) Load(entries []Entry) {
	q.entries = append([]Entry(nil), entries...)
	q.sort()
}
