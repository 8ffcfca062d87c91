package initialize

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/ekristen/openblas-fetch/pkg/commands"
	"github.com/ekristen/openblas-fetch/pkg/common"
	"github.com/ekristen/openblas-fetch/pkg/config"
)

func Execute(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return fmt.Errorf("file %s already exists", path)
	}

	if err := os.WriteFile(path, []byte(config.Template), 0644); err != nil {
		return err
	}

	logrus.Infof("generated %s", path)

	return nil
}

// NewCommand builds the cli command, a fresh instance per call
func NewCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "Path of the configuration file to write",
			Value: config.DefaultFile,
		},
	}

	return &cli.Command{
		Name:   "init",
		Usage:  "generates a " + config.DefaultFile + " file",
		Flags:  append(flags, commands.GlobalFlags()...),
		Before: commands.GlobalBefore,
		Action: Execute,
	}
}

func init() {
	common.RegisterCommand(NewCommand())
}
