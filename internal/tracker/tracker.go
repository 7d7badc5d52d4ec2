// Package tracker records entity changes for the duration of one mutation.
// A Tracker hands out a single Transaction at a time; the transaction handle
// carries the change log and drives the bounded relationship traversal.
package tracker

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"graphql-cascade/internal/cascade"
	"graphql-cascade/internal/changelog"
	"graphql-cascade/internal/entity"
	"graphql-cascade/internal/walker"
)

// Config controls tracking behavior for one mutation.
type Config struct {
	// MaxDepth bounds relationship traversal. The root entity is depth 0;
	// 0 means track the root only.
	MaxDepth int
	// IncludeRelated enables relationship traversal.
	IncludeRelated bool
	// ExcludeTypes lists typenames that are never recorded or traversed.
	ExcludeTypes []string
}

// DefaultConfig mirrors the @cascade directive defaults.
func DefaultConfig() Config {
	return Config{MaxDepth: 3, IncludeRelated: true}
}

// Tracker creates transactions. One tracker serves one mutation; trackers are
// never shared across requests, so no locking is needed.
type Tracker struct {
	cfg     Config
	exclude map[string]struct{}
	walker  *walker.Walker
	logger  *slog.Logger
	current *Transaction
}

// New creates a Tracker.
func New(cfg Config, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	exclude := make(map[string]struct{}, len(cfg.ExcludeTypes))
	for _, t := range cfg.ExcludeTypes {
		exclude[t] = struct{}{}
	}
	return &Tracker{
		cfg:     cfg,
		exclude: exclude,
		walker:  walker.New(),
		logger:  logger,
	}
}

// InProgress reports whether a transaction is currently open.
func (t *Tracker) InProgress() bool {
	return t.current != nil && t.current.open()
}

// Begin opens a transaction and returns its handle. Transactions do not
// nest; Begin while one is open fails with TRANSACTION_FAILED.
func (t *Tracker) Begin() (*Transaction, error) {
	if t.InProgress() {
		return nil, cascade.TransactionError("transaction already in progress")
	}
	tx := &Transaction{
		tracker:   t,
		id:        "cascade_" + uuid.New().String(),
		startedAt: time.Now(),
		log:       changelog.New(),
	}
	t.current = tx
	return tx, nil
}

// Data is the snapshot a transaction yields to the response builder.
type Data struct {
	TransactionID string
	StartedAt     time.Time
	Updated       []changelog.Change
	Deleted       []changelog.Deletion
	Depth         int
	AffectedCount int
	TrackingTime  time.Duration
}

// Transaction is the scope handle for one mutation's change tracking. It is
// returned by Begin and released by End or Abort; deferring Abort is safe
// after a successful End.
type Transaction struct {
	tracker   *Tracker
	id        string
	startedAt time.Time
	log       *changelog.Log

	ended   bool
	aborted bool
	final   *Data
}

// ID returns the opaque transaction id.
func (tx *Transaction) ID() string { return tx.id }

func (tx *Transaction) open() bool { return !tx.ended && !tx.aborted }

// TrackCreate records an entity creation and traverses its relationships.
func (tx *Transaction) TrackCreate(v any) error {
	return tx.track(v, changelog.OpCreated)
}

// TrackUpdate records an entity update and traverses its relationships.
func (tx *Transaction) TrackUpdate(v any) error {
	return tx.track(v, changelog.OpUpdated)
}

// TrackDelete records an entity deletion. Deletes are terminal for a key:
// any prior update is dropped and later changes are ignored. Relationships
// are not traversed for deletes; cascaded deletions arrive as their own
// events from the data layer.
func (tx *Transaction) TrackDelete(typename, id string) error {
	if !tx.open() {
		return cascade.TransactionError("no transaction in progress")
	}
	if _, excluded := tx.tracker.exclude[typename]; excluded {
		return nil
	}
	key := entity.Key{Typename: typename, ID: id}
	tx.log.Visit(key)
	tx.log.RecordDelete(key)
	return nil
}

func (tx *Transaction) track(v any, op changelog.Operation) error {
	if !tx.open() {
		return cascade.TransactionError("no transaction in progress")
	}

	key, err := entity.Identify(v)
	if err != nil {
		return cascade.InternalError("entity is unrepresentable: " + err.Error())
	}
	if _, excluded := tx.tracker.exclude[key.Typename]; excluded {
		tx.log.Visit(key)
		return nil
	}

	firstVisit := tx.log.Visit(key)
	tx.record(key, v, op)

	cfg := tx.tracker.cfg
	if firstVisit && cfg.IncludeRelated && cfg.MaxDepth > 0 {
		tx.walk(v)
	}
	return nil
}

// record serializes the entity and stores the change. A serialization
// failure drops this entity from the payload but never fails the cascade.
func (tx *Transaction) record(key entity.Key, v any, op changelog.Operation) {
	snapshot, err := entity.Serialize(v)
	if err != nil {
		tx.tracker.logger.Warn("skipping unserializable entity",
			slog.String("typename", key.Typename),
			slog.String("id", key.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	tx.log.RecordChange(key, op, snapshot)
}

type queueItem struct {
	value any
	depth int
}

// walk performs the bounded breadth-first traversal from a just-recorded
// root. Neighbors are recorded as UPDATED; the visited set breaks cycles and
// traversal stops once the next step would exceed MaxDepth.
func (tx *Transaction) walk(root any) {
	maxDepth := tx.tracker.cfg.MaxDepth
	queue := make([]queueItem, 0)
	for _, n := range tx.tracker.walker.Neighbors(root) {
		queue = append(queue, queueItem{value: n, depth: 1})
	}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		key, err := entity.Identify(item.value)
		if err != nil {
			continue
		}
		if _, excluded := tx.tracker.exclude[key.Typename]; excluded {
			tx.log.Visit(key)
			continue
		}
		if !tx.log.Visit(key) {
			continue
		}

		tx.log.ObserveDepth(item.depth)
		tx.record(key, item.value, changelog.OpUpdated)

		if item.depth < maxDepth {
			for _, n := range tx.tracker.walker.Neighbors(item.value) {
				queue = append(queue, queueItem{value: n, depth: item.depth + 1})
			}
		}
	}
}

func (tx *Transaction) buildData() *Data {
	snap := tx.log.Snapshot()
	return &Data{
		TransactionID: tx.id,
		StartedAt:     tx.startedAt,
		Updated:       snap.Updated,
		Deleted:       snap.Deleted,
		Depth:         snap.Depth,
		AffectedCount: len(snap.Updated) + len(snap.Deleted),
		TrackingTime:  time.Since(tx.startedAt),
	}
}

// Snapshot returns the in-progress cascade data without closing the
// transaction.
func (tx *Transaction) Snapshot() (Data, error) {
	if !tx.open() {
		return Data{}, cascade.TransactionError("no transaction in progress")
	}
	return *tx.buildData(), nil
}

// End closes the transaction and returns its final data. End is idempotent
// after success; calling it on an aborted transaction fails.
func (tx *Transaction) End() (Data, error) {
	if tx.aborted {
		return Data{}, cascade.TransactionError("transaction was aborted")
	}
	if tx.ended {
		return *tx.final, nil
	}
	tx.final = tx.buildData()
	tx.ended = true
	tx.tracker.release(tx)
	return *tx.final, nil
}

// Abort discards all transaction state. Aborting after a successful End is
// a no-op, which makes the handle safe to release with defer.
func (tx *Transaction) Abort() {
	if tx.ended || tx.aborted {
		return
	}
	tx.aborted = true
	tx.log = changelog.New()
	tx.tracker.release(tx)
}

func (t *Tracker) release(tx *Transaction) {
	if t.current == tx {
		t.current = nil
	}
}
