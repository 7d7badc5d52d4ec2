package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CascadeMetrics holds the custom metrics for cascade tracking and response
// construction.
type CascadeMetrics struct {
	transactionDuration metric.Float64Histogram
	transactionCounter  metric.Int64Counter
	activeTransactions  metric.Int64UpDownCounter
	affectedEntities    metric.Int64Histogram
	traversalDepth      metric.Int64Histogram
	invalidationCount   metric.Int64Histogram
	truncationCounter   metric.Int64Counter
	errorCounter        metric.Int64Counter
}

// InitCascadeMetrics initializes cascade-specific metrics.
func InitCascadeMetrics() (*CascadeMetrics, error) {
	meter := otel.Meter("graphql-cascade")

	transactionDuration, err := meter.Float64Histogram(
		"cascade.transaction.duration",
		metric.WithDescription("Duration of cascade transactions in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction duration histogram: %w", err)
	}

	transactionCounter, err := meter.Int64Counter(
		"cascade.transactions.total",
		metric.WithDescription("Total number of cascade transactions"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction counter: %w", err)
	}

	activeTransactions, err := meter.Int64UpDownCounter(
		"cascade.transactions.active",
		metric.WithDescription("Number of cascade transactions currently open"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create active transactions counter: %w", err)
	}

	affectedEntities, err := meter.Int64Histogram(
		"cascade.entities.affected",
		metric.WithDescription("Entities affected per cascade transaction"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create affected entities histogram: %w", err)
	}

	traversalDepth, err := meter.Int64Histogram(
		"cascade.traversal.depth",
		metric.WithDescription("Relationship traversal depth reached per transaction"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create traversal depth histogram: %w", err)
	}

	invalidationCount, err := meter.Int64Histogram(
		"cascade.invalidations.count",
		metric.WithDescription("Invalidation hints emitted per response"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create invalidation count histogram: %w", err)
	}

	truncationCounter, err := meter.Int64Counter(
		"cascade.truncations.total",
		metric.WithDescription("Responses truncated by a cap, by kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create truncation counter: %w", err)
	}

	errorCounter, err := meter.Int64Counter(
		"cascade.errors.total",
		metric.WithDescription("Cascade responses built on the error path, by code"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create error counter: %w", err)
	}

	return &CascadeMetrics{
		transactionDuration: transactionDuration,
		transactionCounter:  transactionCounter,
		activeTransactions:  activeTransactions,
		affectedEntities:    affectedEntities,
		traversalDepth:      traversalDepth,
		invalidationCount:   invalidationCount,
		truncationCounter:   truncationCounter,
		errorCounter:        errorCounter,
	}, nil
}

// TransactionStarted records a transaction opening.
func (m *CascadeMetrics) TransactionStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.activeTransactions.Add(ctx, 1)
}

// TransactionFinished records a transaction closing with its outcome.
func (m *CascadeMetrics) TransactionFinished(ctx context.Context, durationMs float64, affected, depth, invalidations int, success bool) {
	if m == nil {
		return
	}
	m.activeTransactions.Add(ctx, -1)
	attrs := metric.WithAttributes(attribute.Bool("success", success))
	m.transactionCounter.Add(ctx, 1, attrs)
	m.transactionDuration.Record(ctx, durationMs, attrs)
	m.affectedEntities.Record(ctx, int64(affected))
	m.traversalDepth.Record(ctx, int64(depth))
	m.invalidationCount.Record(ctx, int64(invalidations))
}

// TruncationApplied records that a response was truncated by the given cap.
func (m *CascadeMetrics) TruncationApplied(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.truncationCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// ErrorRecorded counts an error response by code.
func (m *CascadeMetrics) ErrorRecorded(ctx context.Context, code string) {
	if m == nil {
		return
	}
	m.errorCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
}
