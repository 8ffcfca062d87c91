package httputil

import (
	"net/http"
)

type transport struct {
	userAgent           string
	underlyingTransport http.RoundTripper
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}
	return t.underlyingTransport.RoundTrip(req)
}
