package release

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Masterminds/semver"
	"github.com/google/go-github/v69/github"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// Latest is accepted by Resolve in place of a version
const Latest = "latest"

// Release is the subset of a GitHub release the tool cares about
type Release struct {
	Tag         string
	Version     string
	Name        string
	Prerelease  bool
	PublishedAt time.Time
}

type Client struct {
	Owner string
	Repo  string

	github *github.Client
	log    *logrus.Entry
}

// New returns a release client. When token is set requests are authenticated,
// httpClient is used as the underlying transport in both cases.
func New(ctx context.Context, owner, repo, token string, httpClient *http.Client) *Client {
	c := &Client{
		Owner: owner,
		Repo:  repo,
		log:   logrus.WithField("component", "release").WithField("owner", owner).WithField("repo", repo),
	}

	if token != "" {
		c.log.Debug("using authenticated github client")
		if httpClient != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		}
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		httpClient = oauth2.NewClient(ctx, ts)
	} else {
		c.log.Debug("using unauthenticated github client, could result in API rate limiting")
	}

	c.github = github.NewClient(httpClient)

	return c
}

// SetBaseURL points the client at a GitHub Enterprise API, the /api/v3/
// suffix is added when missing.
func (c *Client) SetBaseURL(apiURL string) error {
	gh, err := c.github.WithEnterpriseURLs(apiURL, apiURL)
	if err != nil {
		return errors.Wrap(err, "invalid github api url")
	}

	c.github = gh
	return nil
}

// Latest returns the newest non pre-release version.
func (c *Client) Latest(ctx context.Context) (*Release, error) {
	c.log.Debug("fetching latest release")

	r, _, err := c.github.Repositories.GetLatestRelease(ctx, c.Owner, c.Repo)
	if err != nil {
		return nil, errors.Wrap(err, "unable to fetch latest release")
	}

	return convert(r), nil
}

// List returns releases as ordered by GitHub, newest first.
func (c *Client) List(ctx context.Context, includePreReleases bool) ([]*Release, error) {
	c.log.Debug("fetching releases")

	opts := &github.ListOptions{PerPage: 100}

	var releases []*Release
	for {
		page, resp, err := c.github.Repositories.ListReleases(ctx, c.Owner, c.Repo, opts)
		if err != nil {
			return nil, errors.Wrap(err, "error listing releases from github")
		}

		for _, r := range page {
			if r.GetDraft() {
				continue
			}
			if !includePreReleases && r.GetPrerelease() {
				continue
			}
			releases = append(releases, convert(r))
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return releases, nil
}

// Resolve turns a version flag into a concrete version without a leading v.
// Latest triggers an API lookup, anything else must parse as semver.
func (c *Client) Resolve(ctx context.Context, version string) (string, error) {
	if version == Latest {
		r, err := c.Latest(ctx)
		if err != nil {
			return "", err
		}
		c.log.WithField("version", r.Version).Info("resolved latest release")
		return r.Version, nil
	}

	return Normalize(version)
}

// Normalize strips a leading v and validates the result as semver.
func Normalize(version string) (string, error) {
	v := strings.TrimPrefix(strings.TrimSpace(version), "v")
	if v == "" {
		return "", fmt.Errorf("version is required")
	}

	if _, err := semver.NewVersion(v); err != nil {
		return "", errors.Wrapf(err, "invalid version %q", version)
	}

	return v, nil
}

func convert(r *github.RepositoryRelease) *Release {
	return &Release{
		Tag:         r.GetTagName(),
		Version:     strings.TrimPrefix(r.GetTagName(), "v"),
		Name:        r.GetName(),
		Prerelease:  r.GetPrerelease(),
		PublishedAt: r.GetPublishedAt().Time,
	}
}
