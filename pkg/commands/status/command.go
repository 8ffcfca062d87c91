package status

import (
	"context"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/ekristen/openblas-fetch/pkg/commands"
	"github.com/ekristen/openblas-fetch/pkg/common"
	"github.com/ekristen/openblas-fetch/pkg/state"
	"github.com/ekristen/openblas-fetch/pkg/utils"
)

func Execute(ctx context.Context, cmd *cli.Command) error {
	outDir := cmd.String("out-dir")
	if outDir == "" {
		return fmt.Errorf("--out-dir (or OUT_DIR) is required")
	}

	s, err := state.Load(outDir)
	if err != nil {
		return err
	}

	fetches := s.List()
	if len(fetches) == 0 {
		fmt.Fprintf(cmd.Root().Writer, "no sources fetched into %s\n", outDir)
		return nil
	}

	table := tablewriter.NewWriter(cmd.Root().Writer)
	table.Header("Version", "Path", "Present", "SHA256", "Fetched")

	for _, f := range fetches {
		present, err := utils.FileExists(f.Path)
		if err != nil {
			return err
		}

		if err := table.Append([]string{
			f.Version,
			f.Path,
			fmt.Sprintf("%t", present),
			f.SHA256,
			f.FetchedAt.Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}

	return table.Render()
}

// NewCommand builds the cli command, a fresh instance per call
func NewCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "out-dir",
			Usage:   "Directory sources were fetched into",
			Aliases: []string{"o"},
			Sources: cli.EnvVars("OUT_DIR", "OPENBLAS_FETCH_OUT_DIR"),
		},
	}

	return &cli.Command{
		Name:   "status",
		Usage:  "show sources fetched into an output directory",
		Flags:  append(flags, commands.GlobalFlags()...),
		Before: commands.GlobalBefore,
		Action: Execute,
	}
}

func init() {
	common.RegisterCommand(NewCommand())
}
