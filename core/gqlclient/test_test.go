package gqlclient_test

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"testing"

	"github.com/en751221/qdma/core/gqlserver"
	"github.com/en751221/qdma/core/testenv"
	"github.com/gabstv/freeport"
	"github.com/graphql-go/graphql"
)

var (
	makeAR = testenv.MakeAR

	serverURI string
)

func TestMain(m *testing.M) {
	gqlserver.AddQuery(&graphql.Field{
		Name: "echo",
		Args: graphql.FieldConfigArgument{
			"s": &graphql.ArgumentConfig{Type: gqlserver.NonNullString},
		},
		Type: gqlserver.NonNullString,
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return p.Args["s"], nil
		},
	})

	port, e := freeport.TCP()
	if e != nil {
		panic(e)
	}
	h, e := gqlserver.NewHandler()
	if e != nil {
		panic(e)
	}
	listener, e := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if e != nil {
		panic(e)
	}
	go http.Serve(listener, h)
	serverURI = fmt.Sprintf("http://127.0.0.1:%d/", port)

	os.Exit(m.Run())
}
