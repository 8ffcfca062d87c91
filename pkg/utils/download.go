package utils

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/ekristen/openblas-fetch/pkg/httputil"
)

// StatusError is returned when the server answers with an error status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("received error code %d attempting to download %s", e.StatusCode, e.URL)
}

func DownloadFile(ctx context.Context, url string, dest string, httpClient *http.Client, headers map[string]string) error {
	if httpClient == nil {
		httpClient = httputil.NewClient()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	for k, v := range headers {
		req.Header.Add(k, v)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode > 399 {
		return &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		return err
	}

	return out.Close()
}
