package openblas

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/semver"
	"github.com/Masterminds/sprig/v3"
	"github.com/pkg/errors"
)

const (
	DefaultOwner   = "xianyi"
	DefaultRepo    = "OpenBLAS"
	DefaultVersion = "0.3.21"

	// DefaultURLTemplate points at the release asset uploaded by upstream,
	// not the tarball GitHub generates from the tag.
	DefaultURLTemplate = "https://github.com/{{ .Owner }}/{{ .Repo }}/releases/download/{{ .Tag }}/OpenBLAS-{{ .Version }}.tar.gz"
)

// Source identifies one OpenBLAS source release.
type Source struct {
	Owner       string
	Repo        string
	Version     string
	URLTemplate string
	// SHA256 is optional, when set the archive must match it
	SHA256 string
}

type templateData struct {
	Owner   string
	Repo    string
	Version string
	Tag     string
}

func DefaultSource() *Source {
	return &Source{
		Owner:       DefaultOwner,
		Repo:        DefaultRepo,
		Version:     DefaultVersion,
		URLTemplate: DefaultURLTemplate,
	}
}

// SourceURL returns the download url of the default release.
func SourceURL() string {
	return fmt.Sprintf("https://github.com/%s/%s/releases/download/v%s/OpenBLAS-%s.tar.gz",
		DefaultOwner, DefaultRepo, DefaultVersion, DefaultVersion)
}

func (s *Source) Validate() error {
	if s.Version == "" {
		return fmt.Errorf("version is required")
	}

	if strings.HasPrefix(s.Version, "v") {
		return fmt.Errorf("version must not start with v: %s", s.Version)
	}

	if _, err := semver.NewVersion(s.Version); err != nil {
		return errors.Wrapf(err, "invalid version %q", s.Version)
	}

	if s.URLTemplate == "" {
		return fmt.Errorf("url template is required")
	}

	_, err := s.URL()
	return err
}

// Tag is the git tag upstream releases the version under.
func (s *Source) Tag() string {
	return "v" + s.Version
}

// DirName is the top level directory inside the archive.
func (s *Source) DirName() string {
	return fmt.Sprintf("OpenBLAS-%s", s.Version)
}

func (s *Source) ArchiveName() string {
	return s.DirName() + ".tar.gz"
}

// URL renders URLTemplate, sprig functions are available to the template.
func (s *Source) URL() (string, error) {
	tmpl, err := template.New("url").
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(s.URLTemplate)
	if err != nil {
		return "", errors.Wrap(err, "unable to parse url template")
	}

	var out bytes.Buffer
	if err := tmpl.Execute(&out, templateData{
		Owner:   s.Owner,
		Repo:    s.Repo,
		Version: s.Version,
		Tag:     s.Tag(),
	}); err != nil {
		return "", errors.Wrap(err, "unable to render url template")
	}

	return strings.TrimSpace(out.String()), nil
}
