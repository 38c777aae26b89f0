package gqlserver

import (
	go2gql_scalars "github.com/EGT-Ukraine/go2gql/api/scalars"
	tools_scalars "github.com/bhoriuchi/graphql-go-tools/scalars"
	"github.com/graphql-go/graphql"
)

// Scalar types.
var (
	JSON   = tools_scalars.ScalarJSON
	Bytes  = go2gql_scalars.GraphQLBytesScalar
	Uint64 = go2gql_scalars.GraphQLUInt64Scalar

	NonNullJSON    = graphql.NewNonNull(JSON)
	NonNullUint64  = graphql.NewNonNull(Uint64)
	NonNullBoolean = graphql.NewNonNull(graphql.Boolean)
	NonNullInt     = graphql.NewNonNull(graphql.Int)
	NonNullString  = graphql.NewNonNull(graphql.String)
)

func toNonNull(ofType graphql.Type) graphql.Type {
	if _, ok := ofType.(*graphql.NonNull); ok {
		return ofType
	}
	return graphql.NewNonNull(ofType)
}

// NewListNonNullBoth constructs [T!]! type.
func NewListNonNullBoth(ofType graphql.Type) graphql.Type {
	return graphql.NewNonNull(graphql.NewList(toNonNull(ofType)))
}
