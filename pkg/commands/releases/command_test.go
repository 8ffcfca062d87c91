package releases

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/ekristen/openblas-fetch/pkg/httputil"
)

func Test_Execute(t *testing.T) {
	for _, name := range httputil.ProxyEnvVars {
		t.Setenv(name, "")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/xianyi/OpenBLAS/releases", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"tag_name":"v0.3.22-rc1","prerelease":true},
			{"tag_name":"v0.3.21","published_at":"2022-08-07T12:00:00Z"},
			{"tag_name":"v0.3.20","published_at":"2022-02-20T12:00:00Z"}
		]`)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	run := func(args ...string) string {
		var stdout bytes.Buffer
		app := &cli.Command{
			Name:      "openblas-fetch",
			Commands:  []*cli.Command{NewCommand()},
			Writer:    &stdout,
			ErrWriter: io.Discard,
		}

		base := []string{
			"openblas-fetch", "releases",
			"--github-api-url", srv.URL,
			"--config", filepath.Join(t.TempDir(), "missing.yml"),
			"--log-level", "error",
		}
		require.NoError(t, app.Run(context.TODO(), append(base, args...)))
		return stdout.String()
	}

	out := run()
	assert.Contains(t, out, "0.3.21")
	assert.Contains(t, out, "2022-08-07")
	assert.NotContains(t, out, "0.3.22-rc1")

	out = run("--pre-release")
	assert.Contains(t, out, "0.3.22-rc1")

	out = run("--limit", "1")
	assert.Contains(t, out, "0.3.21")
	assert.False(t, strings.Contains(out, "0.3.20"))
}
