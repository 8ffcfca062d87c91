package url

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/ekristen/openblas-fetch/pkg/openblas"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	for _, name := range []string{"OPENBLAS_VERSION", "OPENBLAS_URL_TEMPLATE", "OPENBLAS_FETCH_CONFIG"} {
		if val, ok := os.LookupEnv(name); ok {
			require.NoError(t, os.Unsetenv(name))
			t.Cleanup(func() { _ = os.Setenv(name, val) })
		}
	}

	var stdout bytes.Buffer
	app := &cli.Command{
		Name:      "openblas-fetch",
		Commands:  []*cli.Command{NewCommand()},
		Writer:    &stdout,
		ErrWriter: io.Discard,
	}

	err := app.Run(context.TODO(), append([]string{"openblas-fetch", "url"}, args...))
	return stdout.String(), err
}

func Test_Execute_Default(t *testing.T) {
	stdout, err := run(t, "--config", filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	assert.Equal(t, openblas.SourceURL()+"\n", stdout)
}

func Test_Execute_Version(t *testing.T) {
	stdout, err := run(t, "--config", filepath.Join(t.TempDir(), "missing.yml"), "--openblas-version", "v0.3.26")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/xianyi/OpenBLAS/releases/download/v0.3.26/OpenBLAS-0.3.26.tar.gz\n", stdout)
}

func Test_Execute_BadTemplate(t *testing.T) {
	_, err := run(t, "--config", filepath.Join(t.TempDir(), "missing.yml"), "--url-template", "{{ .Nope")
	assert.Error(t, err)
}
