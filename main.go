package main

import (
	"context"
	"os"
	"path"

	"github.com/rancher/wrangler/v3/pkg/signals"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/ekristen/openblas-fetch/pkg/common"

	_ "github.com/ekristen/openblas-fetch/pkg/commands/download"
	_ "github.com/ekristen/openblas-fetch/pkg/commands/init"
	_ "github.com/ekristen/openblas-fetch/pkg/commands/releases"
	_ "github.com/ekristen/openblas-fetch/pkg/commands/status"
	_ "github.com/ekristen/openblas-fetch/pkg/commands/url"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			// log panics forces exit
			if _, ok := r.(*logrus.Entry); ok {
				os.Exit(1)
			}
			panic(r)
		}
	}()

	app := &cli.Command{
		Name:      path.Base(os.Args[0]),
		Usage:     "fetch the OpenBLAS source tree for native builds",
		Version:   common.AppVersion.Summary,
		Authors:   []any{"Erik Kristensen <erik@erikkristensen.com>"},
		Commands:  common.GetCommands(),
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
		CommandNotFound: func(ctx context.Context, cmd *cli.Command, command string) {
			logrus.Fatalf("Command %s not found.", command)
		},
	}

	ctx := signals.SetupSignalContext()

	if err := app.Run(ctx, os.Args); err != nil {
		logrus.Fatal(err)
	}
}
