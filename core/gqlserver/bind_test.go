package gqlserver_test

import (
	"testing"

	"github.com/en751221/qdma/core/gqlserver"
	"github.com/en751221/qdma/core/testenv"
	"github.com/graphql-go/graphql"
)

var makeAR = testenv.MakeAR

type bindTestA struct {
	NoTag       int
	Skip        int      `json:"-"`
	RequiredInt int      `json:"requiredInt" gqldesc:"Required integer."`
	OptionalInt int      `json:"optionalInt,omitempty"`
	Bool        bool     `json:"bool"`
	Counter     uint64   `json:"counter"`
	String      string   `json:"string"`
	Slice       []uint32 `json:"slice"`
}

func TestBindFields(t *testing.T) {
	assert, require := makeAR(t)

	fields := gqlserver.BindFields[bindTestA](nil)
	assert.Len(fields, 6)
	assert.NotContains(fields, "NoTag")
	assert.NotContains(fields, "Skip")
	assert.Equal(gqlserver.NonNullInt, fields["requiredInt"].Type)
	assert.Equal("Required integer.", fields["requiredInt"].Description)
	assert.Equal(graphql.Int, fields["optionalInt"].Type)
	assert.Equal(gqlserver.NonNullBoolean, fields["bool"].Type)
	assert.Equal(gqlserver.NonNullUint64, fields["counter"].Type)
	assert.Equal(gqlserver.NonNullString, fields["string"].Type)
	assert.Equal(graphql.NewList(gqlserver.NonNullInt).String(), fields["slice"].Type.String())

	source := bindTestA{RequiredInt: 7, String: "s"}
	for _, src := range []any{source, &source} {
		v, e := fields["requiredInt"].Resolve(graphql.ResolveParams{Source: src})
		require.NoError(e)
		assert.Equal(7, v)
		v, e = fields["string"].Resolve(graphql.ResolveParams{Source: src})
		require.NoError(e)
		assert.Equal("s", v)
	}
}

func TestBindFieldsPanic(t *testing.T) {
	assert, _ := makeAR(t)
	type unsupported struct {
		F float64 `json:"f"`
	}
	assert.Panics(func() { gqlserver.BindFields[unsupported](nil) })
}
