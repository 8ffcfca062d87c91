package commands

import (
	"context"
	"net/http"

	"github.com/urfave/cli/v3"

	"github.com/ekristen/openblas-fetch/pkg/config"
	"github.com/ekristen/openblas-fetch/pkg/httputil"
	"github.com/ekristen/openblas-fetch/pkg/openblas"
	"github.com/ekristen/openblas-fetch/pkg/release"
)

// SourceFlags select which OpenBLAS release is fetched and how it is reached.
func SourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "Path to the configuration file",
			Value:   config.DefaultFile,
			Sources: cli.EnvVars("OPENBLAS_FETCH_CONFIG"),
		},
		&cli.StringFlag{
			Name:    "openblas-version",
			Usage:   "OpenBLAS version to fetch, or latest",
			Sources: cli.EnvVars("OPENBLAS_VERSION"),
		},
		&cli.StringFlag{
			Name:    "url-template",
			Usage:   "Go template for the download url (.Owner .Repo .Version .Tag)",
			Sources: cli.EnvVars("OPENBLAS_URL_TEMPLATE"),
		},
		&cli.StringFlag{
			Name:    "github-token",
			Usage:   "Used to authenticate to the GitHub API when resolving latest",
			Sources: cli.EnvVars("GITHUB_TOKEN", "OPENBLAS_FETCH_GITHUB_TOKEN"),
		},
		&cli.StringFlag{
			Name:    "github-api-url",
			Usage:   "GitHub API endpoint, for GitHub Enterprise mirrors",
			Sources: cli.EnvVars("GITHUB_API_URL"),
			Hidden:  true,
		},
		&cli.StringFlag{
			Name:    "ca-cert",
			Usage:   "PEM bundle to trust in addition to the system roots",
			Sources: cli.EnvVars("OPENBLAS_FETCH_CA_CERT"),
		},
		&cli.BoolFlag{
			Name:    "insecure-skip-verify",
			Usage:   "Disable TLS certificate verification",
			Sources: cli.EnvVars("OPENBLAS_FETCH_INSECURE_SKIP_VERIFY"),
			Hidden:  true,
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Usage:   "Timeout for a single HTTP request, 0 disables it",
			Sources: cli.EnvVars("OPENBLAS_FETCH_TIMEOUT"),
		},
	}
}

// LoadConfig reads the configuration file and applies explicitly set flags on top.
func LoadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("openblas-version") {
		cfg.OpenBLAS.Version = cmd.String("openblas-version")
	}
	if cmd.IsSet("url-template") {
		cfg.OpenBLAS.URLTemplate = cmd.String("url-template")
	}
	if cmd.IsSet("ca-cert") {
		cfg.HTTP.CACert = cmd.String("ca-cert")
	}
	if cmd.IsSet("insecure-skip-verify") {
		cfg.HTTP.InsecureSkipVerify = cmd.Bool("insecure-skip-verify")
	}
	if cmd.IsSet("timeout") {
		cfg.HTTP.Timeout = cmd.Duration("timeout")
	}

	if cfg.OpenBLAS.Version != release.Latest {
		cfg.OpenBLAS.Version, err = release.Normalize(cfg.OpenBLAS.Version)
		if err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ResolveSource builds the http client and the concrete source, looking up the
// newest release when the version is latest.
func ResolveSource(ctx context.Context, cmd *cli.Command, cfg *config.Config) (*openblas.Source, *http.Client, error) {
	client, err := httputil.NewClientWithOptions(cfg.HTTPOptions())
	if err != nil {
		return nil, nil, err
	}

	rc, err := NewReleaseClient(ctx, cmd, cfg, client)
	if err != nil {
		return nil, nil, err
	}

	version, err := rc.Resolve(ctx, cfg.OpenBLAS.Version)
	if err != nil {
		return nil, nil, err
	}

	source := cfg.Source()
	source.Version = version

	return source, client, nil
}

// NewReleaseClient returns a GitHub release client for the configured repository.
func NewReleaseClient(ctx context.Context, cmd *cli.Command, cfg *config.Config, client *http.Client) (*release.Client, error) {
	rc := release.New(ctx, cfg.OpenBLAS.Owner, cfg.OpenBLAS.Repo, cmd.String("github-token"), client)

	if apiURL := cmd.String("github-api-url"); apiURL != "" {
		if err := rc.SetBaseURL(apiURL); err != nil {
			return nil, err
		}
	}

	return rc, nil
}
