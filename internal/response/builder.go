// Package response assembles the final CascadeResponse from a transaction's
// change log, applying entity and size caps.
package response

import (
	"context"
	"log/slog"
	"time"

	"graphql-cascade/internal/cascade"
	"graphql-cascade/internal/invalidation"
	"graphql-cascade/internal/observability"
	"graphql-cascade/internal/tracker"
)

// Limits bounds the size of a cascade payload.
type Limits struct {
	MaxUpdatedEntities int
	MaxDeletedEntities int
	MaxInvalidations   int
	MaxResponseSizeMB  float64
}

// DefaultLimits returns the standard payload bounds.
func DefaultLimits() Limits {
	return Limits{
		MaxUpdatedEntities: 500,
		MaxDeletedEntities: 100,
		MaxInvalidations:   50,
		MaxResponseSizeMB:  5.0,
	}
}

// Per-record byte estimates for the response size check. Entities dominate;
// hints are small; the constant covers metadata and framing.
const (
	entitySizeEstimate   = 1024
	hintSizeEstimate     = 512
	metadataSizeEstimate = 1024
)

// sizeTruncateThreshold and sizeTruncateKeep implement the degradation rule:
// when the size estimate blows the budget and more than the threshold of
// entities are present, keep only the first sizeTruncateKeep of each list.
const (
	sizeTruncateThreshold = 100
	sizeTruncateKeep      = 50
)

// Builder constructs cascade responses. One Builder serves one mutation.
type Builder struct {
	planner *invalidation.Planner
	limits  Limits
	metrics *observability.CascadeMetrics
	logger  *slog.Logger
}

// New creates a Builder. planner may be nil (no invalidations are planned);
// metrics may be nil.
func New(planner *invalidation.Planner, limits Limits, metrics *observability.CascadeMetrics, logger *slog.Logger) *Builder {
	if limits.MaxUpdatedEntities <= 0 {
		limits.MaxUpdatedEntities = DefaultLimits().MaxUpdatedEntities
	}
	if limits.MaxDeletedEntities <= 0 {
		limits.MaxDeletedEntities = DefaultLimits().MaxDeletedEntities
	}
	if limits.MaxInvalidations <= 0 {
		limits.MaxInvalidations = DefaultLimits().MaxInvalidations
	}
	if limits.MaxResponseSizeMB <= 0 {
		limits.MaxResponseSizeMB = DefaultLimits().MaxResponseSizeMB
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{planner: planner, limits: limits, metrics: metrics, logger: logger}
}

// Build closes the transaction and assembles the response. On success the
// planner runs and the payload carries the tracked changes; on failure the
// transaction is discarded and the payload is empty.
func (b *Builder) Build(ctx context.Context, tx *tracker.Transaction, primary any, success bool, errs []*cascade.Error) *cascade.Response {
	start := time.Now()

	if !success {
		return b.buildFailure(ctx, tx, errs, start)
	}

	data, err := tx.End()
	if err != nil {
		b.logger.Error("failed to close cascade transaction",
			slog.String("error", err.Error()),
		)
		return b.buildFailure(ctx, tx, append(errs, cascade.FromError(err)), start)
	}

	payload := cascade.Payload{
		Updated:       updatedRecords(data),
		Deleted:       deletedRecords(data),
		Invalidations: []cascade.Hint{},
		Metadata: cascade.Metadata{
			TransactionID:   data.TransactionID,
			Timestamp:       time.Now().UTC().Format(time.RFC3339),
			Depth:           data.Depth,
			AffectedCount:   data.AffectedCount,
			TrackingTimeSec: data.TrackingTime.Seconds(),
		},
	}

	if b.planner != nil {
		planned := b.planner.Plan(payload.Updated, payload.Deleted, primary)
		payload.Invalidations = planned.Hints
		if planned.Truncated {
			payload.Metadata.Truncated = appendFlag(payload.Metadata.Truncated, cascade.TruncatedInvalidations)
		}
	}

	b.applyCaps(ctx, &payload)

	payload.Metadata.ConstructionTimeSec = time.Since(start).Seconds()
	b.metrics.TransactionFinished(ctx,
		float64(data.TrackingTime.Milliseconds()),
		data.AffectedCount, data.Depth, len(payload.Invalidations), true)

	return &cascade.Response{
		Success: true,
		Data:    primary,
		Errors:  normalizeErrors(errs),
		Cascade: payload,
	}
}

// BuildError assembles a failure response with an empty cascade. Any open
// transaction is discarded.
func (b *Builder) BuildError(ctx context.Context, tx *tracker.Transaction, errs []*cascade.Error) *cascade.Response {
	return b.buildFailure(ctx, tx, errs, time.Now())
}

func (b *Builder) buildFailure(ctx context.Context, tx *tracker.Transaction, errs []*cascade.Error, start time.Time) *cascade.Response {
	if tx != nil {
		tx.Abort()
	}

	payload := cascade.EmptyPayload()
	payload.Metadata.ConstructionTimeSec = time.Since(start).Seconds()

	errs = normalizeErrors(errs)
	for _, e := range errs {
		b.metrics.ErrorRecorded(ctx, string(e.Code))
	}
	b.metrics.TransactionFinished(ctx, 0, 0, 0, 0, false)

	return &cascade.Response{
		Success: false,
		Data:    nil,
		Errors:  errs,
		Cascade: payload,
	}
}

// applyCaps enforces the entity and invalidation caps, then the response
// size estimate, recording every truncation in metadata.
func (b *Builder) applyCaps(ctx context.Context, payload *cascade.Payload) {
	if len(payload.Updated) > b.limits.MaxUpdatedEntities {
		payload.Updated = payload.Updated[:b.limits.MaxUpdatedEntities]
		payload.Metadata.Truncated = appendFlag(payload.Metadata.Truncated, cascade.TruncatedUpdated)
		b.metrics.TruncationApplied(ctx, cascade.TruncatedUpdated)
	}
	if len(payload.Deleted) > b.limits.MaxDeletedEntities {
		payload.Deleted = payload.Deleted[:b.limits.MaxDeletedEntities]
		payload.Metadata.Truncated = appendFlag(payload.Metadata.Truncated, cascade.TruncatedDeleted)
		b.metrics.TruncationApplied(ctx, cascade.TruncatedDeleted)
	}
	if len(payload.Invalidations) > b.limits.MaxInvalidations {
		payload.Invalidations = payload.Invalidations[:b.limits.MaxInvalidations]
		payload.Metadata.Truncated = appendFlag(payload.Metadata.Truncated, cascade.TruncatedInvalidations)
		b.metrics.TruncationApplied(ctx, cascade.TruncatedInvalidations)
	}

	estimate := (len(payload.Updated)+len(payload.Deleted))*entitySizeEstimate +
		len(payload.Invalidations)*hintSizeEstimate +
		metadataSizeEstimate
	budget := int(b.limits.MaxResponseSizeMB * 1024 * 1024)

	if estimate > budget && len(payload.Updated)+len(payload.Deleted) > sizeTruncateThreshold {
		if len(payload.Updated) > sizeTruncateKeep {
			payload.Updated = payload.Updated[:sizeTruncateKeep]
		}
		if len(payload.Deleted) > sizeTruncateKeep {
			payload.Deleted = payload.Deleted[:sizeTruncateKeep]
		}
		payload.Metadata.Truncated = appendFlag(payload.Metadata.Truncated, cascade.TruncatedSize)
		b.metrics.TruncationApplied(ctx, cascade.TruncatedSize)
	}
}

func updatedRecords(data tracker.Data) []cascade.UpdatedRecord {
	out := make([]cascade.UpdatedRecord, 0, len(data.Updated))
	for _, change := range data.Updated {
		out = append(out, cascade.UpdatedRecord{
			Typename:  change.Key.Typename,
			ID:        change.Key.ID,
			Operation: string(change.Operation),
			Entity:    change.Snapshot,
		})
	}
	return out
}

func deletedRecords(data tracker.Data) []cascade.DeletedRecord {
	out := make([]cascade.DeletedRecord, 0, len(data.Deleted))
	for _, del := range data.Deleted {
		out = append(out, cascade.DeletedRecord{
			Typename:  del.Key.Typename,
			ID:        del.Key.ID,
			DeletedAt: del.At.UTC().Format(time.RFC3339),
		})
	}
	return out
}

func appendFlag(flags []string, flag string) []string {
	for _, f := range flags {
		if f == flag {
			return flags
		}
	}
	return append(flags, flag)
}

func normalizeErrors(errs []*cascade.Error) []*cascade.Error {
	out := make([]*cascade.Error, 0, len(errs))
	for _, e := range errs {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}
