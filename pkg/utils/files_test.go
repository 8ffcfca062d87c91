package utils

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	name     string
	body     string
	typeflag byte
	linkname string
}

func writeTarGz(t *testing.T, path string, entries []entry) {
	t.Helper()

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	for _, e := range entries {
		hdr := &tar.Header{
			Name:     e.name,
			Typeflag: e.typeflag,
			Linkname: e.linkname,
			Mode:     0644,
		}
		switch e.typeflag {
		case tar.TypeDir:
			hdr.Mode = 0755
		case tar.TypeReg:
			hdr.Size = int64(len(e.body))
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if e.typeflag == tar.TypeReg {
			_, err := tw.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}

	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func Test_FileExists(t *testing.T) {
	dir := t.TempDir()

	exists, err := FileExists(dir)
	assert.NoError(t, err)
	assert.True(t, exists)

	exists, err = FileExists(filepath.Join(dir, "missing"))
	assert.NoError(t, err)
	assert.False(t, exists)
}

func Test_ExtractArchive(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "OpenBLAS-0.3.21.tar.gz")

	writeTarGz(t, archive, []entry{
		{name: "OpenBLAS-0.3.21/", typeflag: tar.TypeDir},
		{name: "OpenBLAS-0.3.21/Makefile", body: "all:\n", typeflag: tar.TypeReg},
		{name: "OpenBLAS-0.3.21/kernel/x86_64/KERNEL", body: "SGEMMKERNEL\n", typeflag: tar.TypeReg},
		{name: "OpenBLAS-0.3.21/Makefile.link", typeflag: tar.TypeSymlink, linkname: "Makefile"},
		{name: "OpenBLAS-0.3.21/Makefile.hard", typeflag: tar.TypeLink, linkname: "OpenBLAS-0.3.21/Makefile"},
	})

	dst := filepath.Join(dir, "out")
	require.NoError(t, ExtractArchive(context.TODO(), archive, dst))

	data, err := os.ReadFile(filepath.Join(dst, "OpenBLAS-0.3.21", "Makefile"))
	require.NoError(t, err)
	assert.Equal(t, "all:\n", string(data))

	// parent directories are created even without directory entries
	data, err = os.ReadFile(filepath.Join(dst, "OpenBLAS-0.3.21", "kernel", "x86_64", "KERNEL"))
	require.NoError(t, err)
	assert.Equal(t, "SGEMMKERNEL\n", string(data))

	link, err := os.Readlink(filepath.Join(dst, "OpenBLAS-0.3.21", "Makefile.link"))
	require.NoError(t, err)
	assert.Equal(t, "Makefile", link)

	data, err = os.ReadFile(filepath.Join(dst, "OpenBLAS-0.3.21", "Makefile.hard"))
	require.NoError(t, err)
	assert.Equal(t, "all:\n", string(data))
}

func Test_ExtractArchive_Traversal(t *testing.T) {
	cases := map[string][]entry{
		"dotdot-file": {
			{name: "../evil", body: "x", typeflag: tar.TypeReg},
		},
		"absolute-symlink": {
			{name: "link", typeflag: tar.TypeSymlink, linkname: "/etc/passwd"},
		},
		"escaping-symlink": {
			{name: "a/link", typeflag: tar.TypeSymlink, linkname: "../../outside"},
		},
		"escaping-hardlink": {
			{name: "hard", typeflag: tar.TypeLink, linkname: "../outside"},
		},
		"symlink-chain": {
			{name: "T/d/up", typeflag: tar.TypeSymlink, linkname: ".."},
			{name: "T/a", typeflag: tar.TypeSymlink, linkname: "d/up"},
			{name: "T/b", typeflag: tar.TypeSymlink, linkname: "a/.."},
			{name: "T/c", typeflag: tar.TypeSymlink, linkname: "b/.."},
			{name: "T/c/evil", body: "x", typeflag: tar.TypeReg},
		},
	}

	for name, entries := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			archive := filepath.Join(dir, "evil.tar.gz")
			writeTarGz(t, archive, entries)

			err := ExtractArchive(context.TODO(), archive, filepath.Join(dir, "out"))
			assert.Error(t, err)

			exists, err := FileExists(filepath.Join(dir, "evil"))
			assert.NoError(t, err)
			assert.False(t, exists)
		})
	}
}

func Test_ExtractArchive_NotAnArchive(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "index.html")
	require.NoError(t, os.WriteFile(file, []byte("<html>rate limited</html>"), 0644))

	assert.Error(t, ExtractArchive(context.TODO(), file, filepath.Join(dir, "out")))
}

func Test_ExtractArchive_Missing(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, ExtractArchive(context.TODO(), filepath.Join(dir, "missing.tar.gz"), dir))
}

func Test_VerifySHA256(t *testing.T) {
	file := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.WriteFile(file, []byte("openblas"), 0644))

	sum, err := FileSHA256(file)
	require.NoError(t, err)
	assert.Len(t, sum, 64)

	actual, err := VerifySHA256(file, sum)
	assert.NoError(t, err)
	assert.Equal(t, sum, actual)

	_, err = VerifySHA256(file, "  "+sum+"\n")
	assert.NoError(t, err)

	_, err = VerifySHA256(file, "deadbeef")
	assert.Error(t, err)
}
