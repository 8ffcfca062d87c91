package openblas

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ekristen/openblas-fetch/pkg/cache"
	"github.com/ekristen/openblas-fetch/pkg/httputil"
	"github.com/ekristen/openblas-fetch/pkg/state"
	"github.com/ekristen/openblas-fetch/pkg/utils"
)

// DefaultLockTimeout bounds the wait for another process fetching into the
// same output directory.
const DefaultLockTimeout = 10 * time.Minute

// ErrSourceDirMissing is returned when the archive unpacked fine but did not
// contain OpenBLAS-<version>/ at its top level.
var ErrSourceDirMissing = errors.New("archive does not contain the expected source directory")

type Fetcher struct {
	Source      *Source
	LockTimeout time.Duration
	// KeepArchive leaves the downloaded tarball next to the source tree
	KeepArchive bool

	client *http.Client
	log    *logrus.Entry
}

// NewFetcher returns a fetcher for source. A nil client is replaced by
// httputil.NewClient.
func NewFetcher(source *Source, client *http.Client) *Fetcher {
	if client == nil {
		client = httputil.NewClient()
	}

	return &Fetcher{
		Source:      source,
		LockTimeout: DefaultLockTimeout,
		client:      client,
		log: logrus.WithField("component", "openblas").
			WithField("version", source.Version),
	}
}

// Download fetches the default release into outDir.
func Download(ctx context.Context, outDir string) (string, error) {
	return NewFetcher(DefaultSource(), nil).Download(ctx, outDir)
}

// Destination is where the source tree ends up for outDir.
func (f *Fetcher) Destination(outDir string) string {
	return filepath.Join(outDir, f.Source.DirName())
}

// Download makes sure outDir/OpenBLAS-<version> exists and returns its path.
// Nothing is downloaded when the directory is already present.
func (f *Fetcher) Download(ctx context.Context, outDir string) (string, error) {
	dest := f.Destination(outDir)
	log := f.log.WithField("dest", dest)

	if exists, err := utils.FileExists(dest); err != nil {
		return "", err
	} else if exists {
		log.Info("source already present, skipping download")
		return dest, nil
	}

	if err := f.Source.Validate(); err != nil {
		return "", err
	}

	out, err := cache.New(outDir)
	if err != nil {
		return "", pkgerrors.Wrap(err, "unable to create output directory")
	}

	unlock, err := f.lock(ctx, out.Join("."+f.Source.DirName()+".lock"))
	if err != nil {
		return "", err
	}
	defer unlock()

	// another process may have finished while we waited on the lock
	if exists, err := utils.FileExists(dest); err != nil {
		return "", err
	} else if exists {
		log.Info("source fetched by another process")
		return dest, nil
	}

	staging, err := out.NewTemp(".openblas-staging-")
	if err != nil {
		return "", pkgerrors.Wrap(err, "unable to create staging directory")
	}
	defer func() {
		if err := staging.Remove(); err != nil {
			log.WithError(err).Warn("unable to remove staging directory")
		}
	}()

	url, err := f.Source.URL()
	if err != nil {
		return "", err
	}

	archive := staging.Join(f.Source.ArchiveName())

	log.WithField("url", url).Info("downloading source archive")
	if err := utils.DownloadFile(ctx, url, archive, f.client, nil); err != nil {
		return "", pkgerrors.Wrap(err, "unable to download source archive")
	}

	var digest string
	if f.Source.SHA256 != "" {
		log.Info("validating archive checksum")
		digest, err = utils.VerifySHA256(archive, f.Source.SHA256)
	} else {
		digest, err = utils.FileSHA256(archive)
	}
	if err != nil {
		return "", err
	}
	log.WithField("sha256", digest).Debug("archive checksum")

	extractDir := staging.Join("src")

	log.Info("extracting source archive")
	if err := utils.ExtractArchive(ctx, archive, extractDir); err != nil {
		return "", pkgerrors.Wrap(err, "unable to extract source archive")
	}

	extracted := filepath.Join(extractDir, f.Source.DirName())
	if exists, err := utils.FileExists(extracted); err != nil {
		return "", err
	} else if !exists {
		return "", pkgerrors.Wrapf(ErrSourceDirMissing, "%s not found in %s", f.Source.DirName(), url)
	}

	if err := cache.Promote(extracted, dest); err != nil {
		return "", pkgerrors.Wrap(err, "unable to move source into place")
	}

	if f.KeepArchive {
		if err := cache.Promote(archive, out.Join(f.Source.ArchiveName())); err != nil {
			log.WithError(err).Warn("unable to keep source archive")
		}
	}

	f.record(ctx, outDir, url, digest, dest)

	log.Info("source ready")

	return dest, nil
}

func (f *Fetcher) lock(ctx context.Context, path string) (func(), error) {
	if f.LockTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.LockTimeout)
		defer cancel()
	}

	lock := flock.New(path)

	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to acquire lock")
	}
	if !locked {
		return nil, errors.New("failed to acquire lock: timeout")
	}

	return func() {
		if err := lock.Unlock(); err != nil {
			f.log.WithError(err).Warn("unable to release lock")
		}
	}, nil
}

func (f *Fetcher) record(ctx context.Context, outDir, url, digest, dest string) {
	err := state.Update(ctx, outDir, func(s *state.State) {
		s.SetFetchState(state.FetchState{
			Version:   f.Source.Version,
			URL:       url,
			SHA256:    digest,
			Path:      dest,
			FetchedAt: time.Now().UTC(),
		})
	})
	if err != nil {
		f.log.WithError(err).Warn("failed to save fetch state")
	}
}
