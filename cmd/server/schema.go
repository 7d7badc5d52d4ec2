package main

import (
	"context"

	"github.com/graphql-go/graphql"

	"graphql-cascade/internal/middleware"
	"graphql-cascade/internal/schemarules"
	"graphql-cascade/internal/tracker"
)

// demoSDL declares the demo schema with its cascade directives. It is parsed
// once at startup into the directive rule table; the executable schema below
// mirrors it.
const demoSDL = `
directive @cascade(maxDepth: Int = 3, includeRelated: Boolean = true, autoInvalidate: Boolean = true, excludeTypes: [String!] = []) on FIELD_DEFINITION
directive @cascadeInvalidates(query: String, queryPattern: String, strategy: String, scope: String, arguments: JSON) on FIELD_DEFINITION

scalar JSON

type User {
  id: ID!
  name: String!
  email: String! @cascadeInvalidates(queryPattern: "userByEmail*", scope: PATTERN)
  created_at: String!
}

type Todo {
  id: ID!
  title: String!
  done: Boolean! @cascadeInvalidates(query: "listOpenTodos", strategy: INVALIDATE, scope: PREFIX)
  owner: User
}

type Query {
  getUser(id: ID!): User
  listUsers: [User!]!
  getTodo(id: ID!): Todo
  listTodos: [Todo!]!
}

type Mutation {
  createUser(name: String!, email: String!): JSON @cascade(maxDepth: 2)
  updateUser(id: ID!, name: String, email: String): JSON @cascade(maxDepth: 2)
  deleteUser(id: ID!): JSON @cascade
  createTodo(title: String!, ownerId: ID!): JSON @cascade(maxDepth: 2)
  completeTodo(id: ID!): JSON @cascade(maxDepth: 1)
  deleteTodo(id: ID!): JSON @cascade
}
`

var jsonScalar = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "JSON",
	Description: "Arbitrary JSON value, used for cascade responses.",
	Serialize:   func(value any) any { return value },
})

func buildSchema(s *store, rules *schemarules.Table, interceptor *middleware.Interceptor) (graphql.Schema, error) {
	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"name":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"email":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"created_at": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	todoType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Todo",
		Fields: graphql.Fields{
			"id":    &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"title": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"done":  &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"owner": &graphql.Field{Type: userType},
		},
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"getUser": &graphql.Field{
				Type: userType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return s.getUser(p.Args["id"].(string)), nil
				},
			},
			"listUsers": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(userType))),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return s.listUsers(), nil
				},
			},
			"getTodo": &graphql.Field{
				Type: todoType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return s.getTodo(p.Args["id"].(string)), nil
				},
			},
			"listTodos": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(todoType))),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return s.listTodos(), nil
				},
			},
		},
	})

	cascadeField := func(name string, args graphql.FieldConfigArgument, resolve graphql.FieldResolveFn) *graphql.Field {
		return &graphql.Field{
			Type:    jsonScalar,
			Args:    args,
			Resolve: interceptor.WrapResolver(rules.MutationField(name), resolve),
		}
	}

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createUser": cascadeField("createUser",
				graphql.FieldConfigArgument{
					"name":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"email": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				func(p graphql.ResolveParams) (any, error) {
					u := s.createUser(p.Args["name"].(string), p.Args["email"].(string))
					if err := trackCreate(p.Context, u); err != nil {
						return nil, err
					}
					return u, nil
				}),
			"updateUser": cascadeField("updateUser",
				graphql.FieldConfigArgument{
					"id":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"name":  &graphql.ArgumentConfig{Type: graphql.String},
					"email": &graphql.ArgumentConfig{Type: graphql.String},
				},
				func(p graphql.ResolveParams) (any, error) {
					name, _ := p.Args["name"].(string)
					email, _ := p.Args["email"].(string)
					u, err := s.updateUser(p.Args["id"].(string), name, email)
					if err != nil {
						return nil, err
					}
					if err := trackUpdate(p.Context, u); err != nil {
						return nil, err
					}
					return u, nil
				}),
			"deleteUser": cascadeField("deleteUser",
				graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				func(p graphql.ResolveParams) (any, error) {
					id := p.Args["id"].(string)
					todoIDs, err := s.deleteUser(id)
					if err != nil {
						return nil, err
					}
					tx := tracker.FromContext(p.Context)
					if tx != nil {
						if err := tx.TrackDelete("User", id); err != nil {
							return nil, err
						}
						for _, tid := range todoIDs {
							if err := tx.TrackDelete("Todo", tid); err != nil {
								return nil, err
							}
						}
					}
					return true, nil
				}),
			"createTodo": cascadeField("createTodo",
				graphql.FieldConfigArgument{
					"title":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"ownerId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				func(p graphql.ResolveParams) (any, error) {
					todo, err := s.createTodo(p.Args["title"].(string), p.Args["ownerId"].(string))
					if err != nil {
						return nil, err
					}
					if err := trackCreate(p.Context, todo); err != nil {
						return nil, err
					}
					return todo, nil
				}),
			"completeTodo": cascadeField("completeTodo",
				graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				func(p graphql.ResolveParams) (any, error) {
					todo, err := s.completeTodo(p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					if err := trackUpdate(p.Context, todo); err != nil {
						return nil, err
					}
					return todo, nil
				}),
			"deleteTodo": cascadeField("deleteTodo",
				graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				func(p graphql.ResolveParams) (any, error) {
					id := p.Args["id"].(string)
					if err := s.deleteTodo(id); err != nil {
						return nil, err
					}
					if tx := tracker.FromContext(p.Context); tx != nil {
						if err := tx.TrackDelete("Todo", id); err != nil {
							return nil, err
						}
					}
					return true, nil
				}),
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
}

func trackCreate(ctx context.Context, v any) error {
	if tx := tracker.FromContext(ctx); tx != nil {
		return tx.TrackCreate(v)
	}
	return nil
}

func trackUpdate(ctx context.Context, v any) error {
	if tx := tracker.FromContext(ctx); tx != nil {
		return tx.TrackUpdate(v)
	}
	return nil
}
