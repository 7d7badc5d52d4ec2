// Command server runs the demo GraphQL endpoint with cascade tracking
// enabled on its mutations.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	gqlhandler "github.com/graphql-go/handler"

	"graphql-cascade/internal/config"
	"graphql-cascade/internal/invalidation"
	"graphql-cascade/internal/middleware"
	"graphql-cascade/internal/naming"
	"graphql-cascade/internal/response"
	"graphql-cascade/internal/schemarules"
	"graphql-cascade/internal/serverapp"
	"graphql-cascade/internal/tracker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	app, err := serverapp.New(cfg)
	if err != nil {
		return err
	}

	rules, err := schemarules.Parse(demoSDL)
	if err != nil {
		return err
	}

	planner := invalidation.New(rules, naming.New(cfg.Naming), cfg.Response.MaxInvalidations)
	limits := response.Limits{
		MaxUpdatedEntities: cfg.Response.MaxUpdatedEntities,
		MaxDeletedEntities: cfg.Response.MaxDeletedEntities,
		MaxInvalidations:   cfg.Response.MaxInvalidations,
		MaxResponseSizeMB:  cfg.Response.MaxResponseSizeMB,
	}
	base := tracker.Config{
		MaxDepth:       cfg.Cascade.MaxDepth,
		IncludeRelated: cfg.Cascade.IncludeRelated,
		ExcludeTypes:   cfg.Cascade.ExcludeTypes,
	}
	var interceptor *middleware.Interceptor
	if cfg.Cascade.Enabled {
		interceptor = middleware.NewInterceptor(planner, limits, base, app.Metrics(), app.Logger())
	}

	schema, err := buildSchema(newStore(), rules, interceptor)
	if err != nil {
		return err
	}

	handler := gqlhandler.New(&gqlhandler.Config{
		Schema:   &schema,
		Pretty:   true,
		GraphiQL: true,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.Run(ctx, handler)
}
