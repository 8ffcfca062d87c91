package url

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/ekristen/openblas-fetch/pkg/commands"
	"github.com/ekristen/openblas-fetch/pkg/common"
)

func Execute(ctx context.Context, cmd *cli.Command) error {
	cfg, err := commands.LoadConfig(cmd)
	if err != nil {
		return err
	}

	source, _, err := commands.ResolveSource(ctx, cmd, cfg)
	if err != nil {
		return err
	}

	u, err := source.URL()
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.Root().Writer, u)

	return nil
}

// NewCommand builds the cli command, a fresh instance per call
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:   "url",
		Usage:  "print the source archive url",
		Flags:  append(commands.SourceFlags(), commands.GlobalFlags()...),
		Before: commands.GlobalBefore,
		Action: Execute,
	}
}

func init() {
	common.RegisterCommand(NewCommand())
}
