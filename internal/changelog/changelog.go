// Package changelog keeps the per-transaction record of entity changes:
// insertion-ordered updates, a delete set, and the traversal bookkeeping the
// walker needs to stay cycle-safe and depth-bounded.
package changelog

import (
	"time"

	"graphql-cascade/internal/entity"
)

// Change is one recorded create/update for a single entity.
type Change struct {
	Key       entity.Key
	Operation Operation
	Snapshot  map[string]any
	At        time.Time
}

// Deletion records a tracked delete and when it was observed.
type Deletion struct {
	Key entity.Key
	At  time.Time
}

// Snapshot is the read-only view of a log handed to the response builder.
// Updated preserves first-seen insertion order; Deleted preserves the order
// deletes were emitted by the event source.
type Snapshot struct {
	Updated []Change
	Deleted []Deletion
	Depth   int
}

// Log accumulates entity changes for one transaction. Updates keep their
// first-seen order so response ordering is deterministic; a delete for a key
// removes any prior update and makes later changes for that key no-ops.
type Log struct {
	updates     map[entity.Key]*Change
	updateOrder []entity.Key
	deleted     map[entity.Key]struct{}
	deleteOrder []Deletion
	visited     map[entity.Key]struct{}
	depth       int
}

// New returns an empty log.
func New() *Log {
	return &Log{
		updates: make(map[entity.Key]*Change),
		deleted: make(map[entity.Key]struct{}),
		visited: make(map[entity.Key]struct{}),
	}
}

// RecordChange records a create or update for key, applying the operation
// merge rules. Changes for already-deleted keys are dropped.
func (l *Log) RecordChange(key entity.Key, op Operation, snapshot map[string]any) {
	if _, gone := l.deleted[key]; gone {
		return
	}

	if prior, ok := l.updates[key]; ok {
		prior.Operation = Merge(prior.Operation, op)
		prior.Snapshot = snapshot
		prior.At = time.Now()
		return
	}

	l.updates[key] = &Change{
		Key:       key,
		Operation: Merge("", op),
		Snapshot:  snapshot,
		At:        time.Now(),
	}
	l.updateOrder = append(l.updateOrder, key)
}

// RecordDelete records a delete for key and discards any prior update for it.
func (l *Log) RecordDelete(key entity.Key) {
	if _, gone := l.deleted[key]; gone {
		return
	}
	l.deleted[key] = struct{}{}
	l.deleteOrder = append(l.deleteOrder, Deletion{Key: key, At: time.Now()})

	if _, ok := l.updates[key]; ok {
		delete(l.updates, key)
		order := l.updateOrder[:0]
		for _, k := range l.updateOrder {
			if k != key {
				order = append(order, k)
			}
		}
		l.updateOrder = order
	}
}

// Contains reports whether key has been recorded as updated or deleted.
func (l *Log) Contains(key entity.Key) bool {
	if _, ok := l.updates[key]; ok {
		return true
	}
	_, ok := l.deleted[key]
	return ok
}

// Visit marks key as traversed and reports whether this is the first visit.
func (l *Log) Visit(key entity.Key) bool {
	if _, seen := l.visited[key]; seen {
		return false
	}
	l.visited[key] = struct{}{}
	return true
}

// ObserveDepth records the deepest traversal level reached.
func (l *Log) ObserveDepth(depth int) {
	if depth > l.depth {
		l.depth = depth
	}
}

// Depth returns the deepest traversal level reached so far.
func (l *Log) Depth() int { return l.depth }

// Len returns the number of recorded updates plus deletes.
func (l *Log) Len() int { return len(l.updates) + len(l.deleteOrder) }

// Snapshot copies the log contents in insertion order.
func (l *Log) Snapshot() Snapshot {
	updated := make([]Change, 0, len(l.updateOrder))
	for _, key := range l.updateOrder {
		updated = append(updated, *l.updates[key])
	}
	deleted := make([]Deletion, len(l.deleteOrder))
	copy(deleted, l.deleteOrder)

	return Snapshot{Updated: updated, Deleted: deleted, Depth: l.depth}
}
