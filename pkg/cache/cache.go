package cache

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"

	cp "github.com/otiai10/copy"
	"github.com/sirupsen/logrus"
)

// rename is swapped in tests to simulate cross device moves
var rename = os.Rename

type Cache struct {
	Path string
}

func New(path string) (*Cache, error) {
	c := &Cache{
		Path: path,
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Cache) NewSubpath(path string) (*Cache, error) {
	nc := &Cache{
		Path: filepath.Join(c.Path, path),
	}

	if err := os.MkdirAll(nc.Path, 0755); err != nil {
		return nil, err
	}

	return nc, nil
}

// NewTemp creates a uniquely named subdirectory, callers remove it with Remove.
func (c *Cache) NewTemp(pattern string) (*Cache, error) {
	dir, err := os.MkdirTemp(c.Path, pattern)
	if err != nil {
		return nil, err
	}

	return &Cache{Path: dir}, nil
}

func (c *Cache) GetPath() string {
	return c.Path
}

// Join returns a path below the cache directory.
func (c *Cache) Join(elem ...string) string {
	return filepath.Join(append([]string{c.Path}, elem...)...)
}

func (c *Cache) Remove() error {
	return os.RemoveAll(c.Path)
}

// Promote moves src to dst. When src and dst live on different devices the
// tree is copied and src removed afterwards.
func Promote(src, dst string) error {
	err := rename(src, dst)
	if err == nil {
		return nil
	}

	if !errors.Is(err, syscall.EXDEV) {
		return err
	}

	logrus.WithField("component", "cache").
		WithField("src", src).WithField("dst", dst).
		Debug("cross device rename, copying instead")

	if err := cp.Copy(src, dst, cp.Options{
		OnSymlink: func(string) cp.SymlinkAction {
			return cp.Shallow
		},
	}); err != nil {
		_ = os.RemoveAll(dst)
		return err
	}

	return os.RemoveAll(src)
}
