// Package gqlserver provides a GraphQL schema registry and its HTTP endpoint.
// Packages register fields from init() functions; the schema is built when the handler is created.
package gqlserver

import (
	"net/http"

	"github.com/bhoriuchi/graphql-go-tools/handler"
	"github.com/en751221/qdma/core/logging"
	"github.com/graphql-go/graphql"
	"go.uber.org/zap"
)

var logger = logging.New("gqlserver")

// Schema is the singleton of graphql.SchemaConfig.
var Schema = graphql.SchemaConfig{
	Query: graphql.NewObject(graphql.ObjectConfig{
		Name:   "Query",
		Fields: graphql.Fields{},
	}),
	Mutation: graphql.NewObject(graphql.ObjectConfig{
		Name:   "Mutation",
		Fields: graphql.Fields{},
	}),
}

// AddQuery adds a top-level query field.
func AddQuery(f *graphql.Field) {
	Schema.Query.AddFieldConfig(f.Name, f)
}

// AddMutation adds a top-level mutation field.
func AddMutation(f *graphql.Field) {
	Schema.Mutation.AddFieldConfig(f.Name, f)
}

// NewSchema builds the schema from registered fields.
func NewSchema() (*graphql.Schema, error) {
	sch, e := graphql.NewSchema(Schema)
	if e != nil {
		return nil, e
	}
	return &sch, nil
}

// NewHandler builds the schema and returns an HTTP handler serving it.
func NewHandler() (http.Handler, error) {
	sch, e := NewSchema()
	if e != nil {
		logger.Error("graphql.NewSchema error", zap.Error(e))
		return nil, e
	}

	h := handler.New(&handler.Config{
		Schema:           sch,
		Pretty:           true,
		PlaygroundConfig: handler.NewDefaultPlaygroundConfig(),
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Add("Content-Type", "text/plain")
		w.Write([]byte("User-Agent: *\nDisallow: /\n"))
	})
	mux.Handle("/", h)
	return mux, nil
}
