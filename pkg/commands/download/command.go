package download

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/ekristen/openblas-fetch/pkg/commands"
	"github.com/ekristen/openblas-fetch/pkg/common"
	"github.com/ekristen/openblas-fetch/pkg/openblas"
)

func Execute(ctx context.Context, cmd *cli.Command) error {
	log := logrus.WithField("command", "download")

	outDir := cmd.String("out-dir")
	if outDir == "" {
		return fmt.Errorf("--out-dir (or OUT_DIR) is required")
	}

	cfg, err := commands.LoadConfig(cmd)
	if err != nil {
		return err
	}

	if cmd.IsSet("sha256") {
		cfg.OpenBLAS.SHA256 = cmd.String("sha256")
	}
	if cmd.IsSet("lock-timeout") {
		cfg.Fetch.LockTimeout = cmd.Duration("lock-timeout")
	}
	if cmd.IsSet("keep-archive") {
		cfg.Fetch.KeepArchive = cmd.Bool("keep-archive")
	}

	source, client, err := commands.ResolveSource(ctx, cmd, cfg)
	if err != nil {
		return err
	}

	log.WithField("version", source.Version).Debug("resolved source")

	fetcher := openblas.NewFetcher(source, client)
	fetcher.LockTimeout = cfg.Fetch.LockTimeout
	fetcher.KeepArchive = cfg.Fetch.KeepArchive

	dest, err := fetcher.Download(ctx, outDir)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.Root().Writer, dest)

	return nil
}

// NewCommand builds the cli command, a fresh instance per call
func NewCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "out-dir",
			Usage:   "Directory the source tree is extracted into",
			Aliases: []string{"o"},
			Sources: cli.EnvVars("OUT_DIR", "OPENBLAS_FETCH_OUT_DIR"),
		},
		&cli.StringFlag{
			Name:    "sha256",
			Usage:   "Expected sha256 of the source archive",
			Sources: cli.EnvVars("OPENBLAS_SHA256"),
		},
		&cli.DurationFlag{
			Name:    "lock-timeout",
			Usage:   "How long to wait for another process fetching into the same directory",
			Sources: cli.EnvVars("OPENBLAS_FETCH_LOCK_TIMEOUT"),
		},
		&cli.BoolFlag{
			Name:    "keep-archive",
			Usage:   "Keep the downloaded tarball next to the source tree",
			Sources: cli.EnvVars("OPENBLAS_FETCH_KEEP_ARCHIVE"),
		},
	}

	flags = append(flags, commands.SourceFlags()...)

	return &cli.Command{
		Name:    "download",
		Usage:   "download and extract the OpenBLAS source tree",
		Aliases: []string{"fetch"},
		Flags:   append(flags, commands.GlobalFlags()...),
		Before:  commands.GlobalBefore,
		Action:  Execute,
	}
}

func init() {
	common.RegisterCommand(NewCommand())
}
