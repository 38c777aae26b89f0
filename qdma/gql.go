package qdma

import (
	"errors"
	"reflect"

	"github.com/en751221/qdma/core/gqlserver"
	"github.com/en751221/qdma/core/logging"
	"github.com/graphql-go/graphql"
)

// GqlEngine is the Engine exposed through GraphQL.
// A process drives at most one QDMA block, so a single global suffices.
var GqlEngine *Engine

// GraphQL types.
var (
	GqlCountersType *graphql.Object
	GqlRegisterType *graphql.Object
	GqlSnapshotType *graphql.Object
)

var errNoGqlEngine = errors.New("QDMA engine not available")

func init() {
	GqlCountersType = graphql.NewObject(graphql.ObjectConfig{
		Name:   "QdmaCounters",
		Fields: gqlserver.BindFields[Counters](nil),
	})

	// 32-bit register values do not fit GraphQL Int, so they are rendered as hexadecimal strings.
	regFields := gqlserver.BindFields[RegisterValue](nil)
	regFields["value"] = &graphql.Field{
		Type: gqlserver.NonNullString,
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return logging.Hex(p.Source.(RegisterValue).Value).String(), nil
		},
	}
	GqlRegisterType = graphql.NewObject(graphql.ObjectConfig{
		Name:   "QdmaRegister",
		Fields: regFields,
	})

	fields := gqlserver.BindFields[Snapshot](gqlserver.FieldTypes{
		reflect.TypeOf(RegisterValue{}): GqlRegisterType,
		reflect.TypeOf(Counters{}):      GqlCountersType,
	})
	fields["irqQueue"] = &graphql.Field{
		Description: "Completion queue entries.",
		Type:        gqlserver.NewListNonNullBoth(graphql.String),
		Resolve: func(p graphql.ResolveParams) (any, error) {
			entries := p.Source.(Snapshot).IrqQueue
			list := make([]string, len(entries))
			for i, v := range entries {
				list[i] = logging.Hex(v).String()
			}
			return list, nil
		},
	}
	fields["tx"] = &graphql.Field{
		Description: "Formatted TX descriptors.",
		Type:        gqlserver.NewListNonNullBoth(graphql.String),
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return p.Source.(Snapshot).TxLines(), nil
		},
	}
	fields["rx"] = &graphql.Field{
		Description: "Formatted RX descriptors.",
		Type:        gqlserver.NewListNonNullBoth(graphql.String),
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return p.Source.(Snapshot).RxLines(), nil
		},
	}
	GqlSnapshotType = graphql.NewObject(graphql.ObjectConfig{
		Name:   "QdmaSnapshot",
		Fields: fields,
	})

	gqlserver.AddQuery(&graphql.Field{
		Name:        "qdma",
		Description: "QDMA engine state.",
		Type:        GqlSnapshotType,
		Resolve: func(p graphql.ResolveParams) (any, error) {
			if GqlEngine == nil {
				return nil, nil
			}
			return GqlEngine.Snapshot(), nil
		},
	})

	gqlserver.AddMutation(&graphql.Field{
		Name:        "qdmaTransmit",
		Description: "Transmit a frame on a QDMA port.",
		Args: graphql.FieldConfigArgument{
			"port": &graphql.ArgumentConfig{
				Type: gqlserver.NonNullInt,
			},
			"frame": &graphql.ArgumentConfig{
				Description: "Ethernet frame.",
				Type:        graphql.NewNonNull(gqlserver.Bytes),
			},
		},
		Type: gqlserver.NonNullBoolean,
		Resolve: func(p graphql.ResolveParams) (any, error) {
			if GqlEngine == nil {
				return nil, errNoGqlEngine
			}
			port := GqlEngine.Port(p.Args["port"].(int))
			if port == nil {
				return nil, ErrInvalidConfig
			}
			frame, _ := p.Args["frame"].([]byte)
			if e := port.Transmit(frame, nil); e != nil {
				return nil, e
			}
			return true, nil
		},
	})
}
