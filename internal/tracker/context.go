package tracker

import "context"

type contextKey struct{}

// WithTransaction attaches a transaction to the context so resolvers and ORM
// hooks further down the call chain can report changes into it.
func WithTransaction(ctx context.Context, tx *Transaction) context.Context {
	return context.WithValue(ctx, contextKey{}, tx)
}

// FromContext returns the transaction attached to the context, or nil.
func FromContext(ctx context.Context) *Transaction {
	tx, _ := ctx.Value(contextKey{}).(*Transaction)
	return tx
}
