// Package middleware binds cascade tracking to GraphQL execution: the
// per-mutation interceptor plus the HTTP middlewares used by the server.
package middleware

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"

	"graphql-cascade/internal/cascade"
	"graphql-cascade/internal/invalidation"
	"graphql-cascade/internal/logging"
	"graphql-cascade/internal/observability"
	"graphql-cascade/internal/response"
	"graphql-cascade/internal/schemarules"
	"graphql-cascade/internal/tracker"
)

// ExecuteFunc runs the wrapped resolver. The context carries the open
// cascade transaction so resolvers and ORM hooks can report changes.
type ExecuteFunc func(ctx context.Context) (any, error)

// Interceptor wraps mutation execution with cascade tracking for fields
// carrying the @cascade directive. It holds only read-only state and is safe
// for concurrent use across mutations.
type Interceptor struct {
	planner *invalidation.Planner
	limits  response.Limits
	base    tracker.Config
	metrics *observability.CascadeMetrics
	logger  *logging.Logger
}

// NewInterceptor creates an Interceptor. base supplies the tracker defaults
// that @cascade directive arguments override per mutation.
func NewInterceptor(planner *invalidation.Planner, limits response.Limits, base tracker.Config, metrics *observability.CascadeMetrics, logger *logging.Logger) *Interceptor {
	if logger == nil {
		logger = logging.FromContext(context.Background())
	}
	return &Interceptor{
		planner: planner,
		limits:  limits,
		base:    base,
		metrics: metrics,
		logger:  logger,
	}
}

// Intercept executes one mutation field. Fields without @cascade bypass the
// core entirely; fields with it run inside a tracking transaction and return
// a *cascade.Response in place of the raw resolver result.
func (i *Interceptor) Intercept(ctx context.Context, field *ast.FieldDefinition, args map[string]any, execute ExecuteFunc) (any, error) {
	if i == nil {
		return execute(ctx)
	}
	settings, present, err := schemarules.CascadeSettings(field)
	if err != nil {
		// Malformed directives should have failed the startup parse; fall
		// back to defaults rather than breaking the mutation.
		i.logger.Warn("ignoring malformed @cascade arguments",
			slog.String("error", err.Error()),
		)
	}
	if !present {
		return execute(ctx)
	}
	// Arguments the directive leaves out take the configured base values.
	given := make(map[string]bool)
	if d := schemarules.FindDirective(field.Directives, schemarules.DirectiveCascade); d != nil {
		for _, arg := range d.Arguments {
			if arg != nil && arg.Name != nil {
				given[arg.Name.Value] = true
			}
		}
	}
	if !given["maxDepth"] {
		settings.MaxDepth = i.base.MaxDepth
	}
	if !given["includeRelated"] {
		settings.IncludeRelated = i.base.IncludeRelated
	}
	return i.run(ctx, settings, execute)
}

func (i *Interceptor) run(ctx context.Context, settings schemarules.Settings, execute ExecuteFunc) (resp *cascade.Response, err error) {
	cfg := tracker.Config{
		MaxDepth:       settings.MaxDepth,
		IncludeRelated: settings.IncludeRelated,
		ExcludeTypes:   append(append([]string{}, i.base.ExcludeTypes...), settings.ExcludeTypes...),
	}

	tx, err := tracker.New(cfg, i.logger.Logger).Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Abort()
	i.metrics.TransactionStarted(ctx)

	var planner *invalidation.Planner
	if settings.AutoInvalidate {
		planner = i.planner
	}
	builder := response.New(planner, i.limits, i.metrics, i.logger.Logger)

	txLogger := i.logger.WithTransactionID(tx.ID())
	execCtx := tracker.WithTransaction(logging.WithLogger(ctx, txLogger), tx)

	defer func() {
		if rec := recover(); rec != nil {
			txLogger.Error("resolver panicked during cascade tracking",
				slog.String("panic", fmt.Sprint(rec)),
			)
			resp = builder.BuildError(ctx, tx, []*cascade.Error{
				cascade.InternalError(fmt.Sprint(rec)),
			})
			err = nil
		}
	}()

	result, execErr := execute(execCtx)

	if ctxErr := ctx.Err(); ctxErr != nil {
		tx.Abort()
		return builder.BuildError(ctx, tx, []*cascade.Error{
			cascade.TimeoutError("mutation cancelled: "+ctxErr.Error(), 0),
		}), nil
	}
	if execErr != nil {
		return builder.BuildError(ctx, tx, []*cascade.Error{cascade.FromError(execErr)}), nil
	}
	return builder.Build(ctx, tx, result, true, nil), nil
}

// WrapResolver adapts a graphql-go resolver so the host runtime invokes the
// interceptor for this mutation field. A nil Interceptor (cascade disabled)
// returns the resolver unchanged.
func (i *Interceptor) WrapResolver(field *ast.FieldDefinition, resolve graphql.FieldResolveFn) graphql.FieldResolveFn {
	if i == nil {
		return resolve
	}
	return func(p graphql.ResolveParams) (any, error) {
		return i.Intercept(p.Context, field, p.Args, func(ctx context.Context) (any, error) {
			p.Context = ctx
			return resolve(p)
		})
	}
}
