package releases

import (
	"context"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/ekristen/openblas-fetch/pkg/commands"
	"github.com/ekristen/openblas-fetch/pkg/common"
	"github.com/ekristen/openblas-fetch/pkg/httputil"
)

func Execute(ctx context.Context, cmd *cli.Command) error {
	cfg, err := commands.LoadConfig(cmd)
	if err != nil {
		return err
	}

	client, err := httputil.NewClientWithOptions(cfg.HTTPOptions())
	if err != nil {
		return err
	}

	rc, err := commands.NewReleaseClient(ctx, cmd, cfg, client)
	if err != nil {
		return err
	}

	releases, err := rc.List(ctx, cmd.Bool("pre-release"))
	if err != nil {
		return err
	}

	if limit := int(cmd.Int("limit")); limit > 0 && len(releases) > limit {
		releases = releases[:limit]
	}

	table := tablewriter.NewWriter(cmd.Root().Writer)
	table.Header("Version", "Tag", "Pre-release", "Published")

	for _, r := range releases {
		published := ""
		if !r.PublishedAt.IsZero() {
			published = r.PublishedAt.Format("2006-01-02")
		}

		if err := table.Append([]string{
			r.Version,
			r.Tag,
			fmt.Sprintf("%t", r.Prerelease),
			published,
		}); err != nil {
			return err
		}
	}

	return table.Render()
}

// NewCommand builds the cli command, a fresh instance per call
func NewCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:  "pre-release",
			Usage: "Include pre-release versions",
		},
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Only show the newest n releases, 0 shows all",
			Value: 20,
		},
	}

	flags = append(flags, commands.SourceFlags()...)

	return &cli.Command{
		Name:   "releases",
		Usage:  "list upstream OpenBLAS releases",
		Flags:  append(flags, commands.GlobalFlags()...),
		Before: commands.GlobalBefore,
		Action: Execute,
	}
}

func init() {
	common.RegisterCommand(NewCommand())
}
