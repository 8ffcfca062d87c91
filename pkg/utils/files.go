package utils

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"
	"github.com/sirupsen/logrus"
)

// ErrUnsupportedArchive is returned when the format cannot be extracted.
var ErrUnsupportedArchive = errors.New("unsupported archive format")

func FileExists(name string) (bool, error) {
	_, err := os.Stat(name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// ExtractArchive unpacks file into dst. All writes go through an os.Root on
// dst, so neither entry names nor symlinks written earlier can place data
// outside of it.
func ExtractArchive(ctx context.Context, file string, dst string) error {
	log := logrus.WithField("component", "archive").WithField("file", filepath.Base(file))

	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	format, stream, err := archives.Identify(ctx, file, f)
	if err != nil {
		return err
	}

	ex, ok := format.(archives.Extractor)
	if !ok {
		return ErrUnsupportedArchive
	}

	if err := os.MkdirAll(dst, 0755); err != nil {
		return err
	}

	root, err := os.OpenRoot(dst)
	if err != nil {
		return err
	}
	defer root.Close()

	log.WithField("format", format.Extension()).Debug("extracting archive")

	return ex.Extract(ctx, stream, func(ctx context.Context, f archives.FileInfo) error {
		if f.NameInArchive == "pax_global_header" {
			return nil
		}

		name, err := securePath(f.NameInArchive)
		if err != nil {
			return err
		}

		if f.IsDir() {
			log.Tracef("archive > create directory %s", name)
			return root.MkdirAll(name, 0755)
		}

		if err := root.MkdirAll(filepath.Dir(name), 0755); err != nil {
			return err
		}

		if hdr, ok := f.Header.(*tar.Header); ok && hdr.Typeflag == tar.TypeLink {
			source, err := securePath(hdr.Linkname)
			if err != nil {
				return err
			}
			log.Tracef("archive > create hardlink %s -> %s", name, source)
			return root.Link(source, name)
		}

		if f.Mode()&os.ModeSymlink != 0 {
			if filepath.IsAbs(f.LinkTarget) {
				return fmt.Errorf("archive entry %s links outside of destination: %s", f.NameInArchive, f.LinkTarget)
			}
			if _, err := securePath(filepath.Join(filepath.Dir(name), f.LinkTarget)); err != nil {
				return err
			}
			log.Tracef("archive > create symlink %s -> %s", name, f.LinkTarget)
			return root.Symlink(f.LinkTarget, name)
		}

		if !f.Mode().IsRegular() {
			log.Tracef("archive > skipping special file %s", f.NameInArchive)
			return nil
		}

		tc, err := f.Open()
		if err != nil {
			return err
		}
		defer tc.Close()

		nf, err := root.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, f.Mode().Perm())
		if err != nil {
			return err
		}

		// copy over contents
		if _, err := io.Copy(nf, tc); err != nil {
			_ = nf.Close()
			return err
		}

		log.Tracef("writing destination file: %s", name)

		return nf.Close()
	})
}

// securePath cleans an archive name into a path relative to the extraction
// root and fails if it climbs out of it.
func securePath(name string) (string, error) {
	rel := filepath.Join(".", filepath.FromSlash(name))

	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("archive entry escapes destination: %s", name)
	}

	return rel, nil
}
