package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/ekristen/openblas-fetch/pkg/httputil"
	"github.com/ekristen/openblas-fetch/pkg/openblas"
)

// DefaultFile is looked up in the working directory
const DefaultFile = ".openblas-fetch.yml"

type Config struct {
	OpenBLAS OpenBLAS `yaml:"openblas"`
	HTTP     HTTP     `yaml:"http,omitempty"`
	Fetch    Fetch    `yaml:"fetch,omitempty"`
}

type OpenBLAS struct {
	Owner       string `yaml:"owner"`
	Repo        string `yaml:"repo"`
	Version     string `yaml:"version"`
	URLTemplate string `yaml:"url_template"`
	SHA256      string `yaml:"sha256,omitempty"`
}

type HTTP struct {
	CACert             string        `yaml:"ca_cert,omitempty"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify,omitempty"`
	Timeout            time.Duration `yaml:"timeout,omitempty"`
	UserAgent          string        `yaml:"user_agent,omitempty"`
}

type Fetch struct {
	LockTimeout time.Duration `yaml:"lock_timeout,omitempty"`
	KeepArchive bool          `yaml:"keep_archive,omitempty"`
}

// New returns the built in defaults
func New() *Config {
	return &Config{
		OpenBLAS: OpenBLAS{
			Owner:       openblas.DefaultOwner,
			Repo:        openblas.DefaultRepo,
			Version:     openblas.DefaultVersion,
			URLTemplate: openblas.DefaultURLTemplate,
		},
		Fetch: Fetch{
			LockTimeout: openblas.DefaultLockTimeout,
		},
	}
}

// Load reads path on top of the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := New()

	if path == "" {
		return cfg, nil
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, pkgerrors.Wrapf(err, "unable to parse %s", path)
	}

	return cfg, nil
}

// Validate checks the configuration, a version of "latest" is left for the
// caller to resolve.
func (c *Config) Validate() error {
	if c.OpenBLAS.Owner == "" || c.OpenBLAS.Repo == "" {
		return fmt.Errorf("openblas.owner and openblas.repo are required")
	}

	if c.HTTP.Timeout < 0 || c.Fetch.LockTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}

	source := c.Source()
	if c.OpenBLAS.Version == "latest" {
		// any valid version will do to check the template renders
		source.Version = openblas.DefaultVersion
	}

	return source.Validate()
}

func (c *Config) Source() *openblas.Source {
	return &openblas.Source{
		Owner:       c.OpenBLAS.Owner,
		Repo:        c.OpenBLAS.Repo,
		Version:     c.OpenBLAS.Version,
		URLTemplate: c.OpenBLAS.URLTemplate,
		SHA256:      c.OpenBLAS.SHA256,
	}
}

func (c *Config) HTTPOptions() *httputil.Options {
	return &httputil.Options{
		CACertFile:         c.HTTP.CACert,
		InsecureSkipVerify: c.HTTP.InsecureSkipVerify,
		Timeout:            c.HTTP.Timeout,
		UserAgent:          c.HTTP.UserAgent,
	}
}

// Template is written by the init command
const Template = `openblas:
  owner: xianyi
  repo: OpenBLAS
  # Pin the OpenBLAS release, "latest" asks the GitHub API
  version: 0.3.21
  url_template: "https://github.com/{{ .Owner }}/{{ .Repo }}/releases/download/{{ .Tag }}/OpenBLAS-{{ .Version }}.tar.gz"
  # Optional sha256 of the release tarball
  sha256: ""
http:
  # Extra PEM bundle trusted next to the system roots
  ca_cert: ""
  timeout: 0s
fetch:
  lock_timeout: 10m
  keep_archive: false
`
