// Command qdmad bridges EN751221 QDMA ports to Linux TAP interfaces.
// It also provides diagnostic commands that dump rings and access PHY registers.
package main

import (
	"bytes"
	"os"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/en751221/qdma/core/gqlserver"
	"github.com/en751221/qdma/core/logging"
	"github.com/en751221/qdma/core/version"
	"github.com/graphql-go/graphql"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

var logger = logging.New("main")

func init() {
	versionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Version",
		Fields: graphql.Fields{
			"version": &graphql.Field{Type: gqlserver.NonNullString},
			"commit":  &graphql.Field{Type: gqlserver.NonNullString},
			"dirty":   &graphql.Field{Type: gqlserver.NonNullBoolean},
			"go":      &graphql.Field{Type: graphql.String},
		},
	})
	gqlserver.AddQuery(&graphql.Field{
		Name:        "version",
		Description: "Daemon version.",
		Type:        graphql.NewNonNull(versionType),
		Resolve: func(graphql.ResolveParams) (any, error) {
			return version.V, nil
		},
	})
}

var app = &cli.App{
	Version: version.V.String(),
	Usage:   "Bridge EN751221 QDMA ports to TAP interfaces.",
}

func defineCommand(command *cli.Command) {
	app.Commands = append(app.Commands, command)
}

func main() {
	var uname unix.Utsname
	unix.Uname(&uname)
	logger.Info("qdmad starting",
		zap.Any("version", version.V),
		zap.Int("uid", os.Getuid()),
		zap.ByteString("linux", bytes.TrimRight(uname.Release[:], string([]byte{0}))),
	)

	if e := app.Run(os.Args); e != nil {
		logger.Fatal("exit", zap.Error(e))
	}
}

func systemdNotify() {
	daemon.SdNotify(false, daemon.SdNotifyReady)

	d, e := daemon.SdWatchdogEnabled(false)
	if d == 0 || e != nil {
		logger.Debug("systemd watchdog not configured", zap.Error(e))
		return
	}

	d /= 2
	logger.Debug("systemd watchdog enabled", zap.Duration("duration", d))
	for range time.Tick(d) {
		daemon.SdNotify(false, daemon.SdNotifyWatchdog)
	}
}
