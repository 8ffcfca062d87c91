package httputil

import (
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ekristen/openblas-fetch/pkg/common"
)

// Options tune the client returned by NewClientWithOptions.
type Options struct {
	// CACertFile is an extra PEM bundle trusted next to the system roots.
	CACertFile string
	// InsecureSkipVerify disables server certificate verification.
	InsecureSkipVerify bool
	// Timeout bounds a whole request, zero means no limit.
	Timeout time.Duration
	// UserAgent defaults to the application name and version.
	UserAgent string
	// Proxy overrides the proxy discovered from the environment.
	Proxy *url.URL
}

// NewClient creates a new HTTP client that uses the proxy found by
// ProxyFromEnvironment and the system trust store.
func NewClient() *http.Client {
	c, err := NewClientWithOptions(nil)
	if err != nil {
		// nil options never fail
		panic(err)
	}
	return c
}

// NewClientWithOptions creates a new HTTP client from opts.
func NewClientWithOptions(opts *Options) (*http.Client, error) {
	if opts == nil {
		opts = &Options{}
	}

	rt, err := NewTransport(opts)
	if err != nil {
		return nil, err
	}

	return &http.Client{
		Transport: rt,
		Timeout:   opts.Timeout,
	}, nil
}

// NewTransport clones the default transport and applies proxy and TLS settings.
func NewTransport(opts *Options) (http.RoundTripper, error) {
	if opts == nil {
		opts = &Options{}
	}

	tlsConfig, err := TLSConfig(opts)
	if err != nil {
		return nil, err
	}

	proxy := opts.Proxy
	if proxy == nil {
		proxy = ProxyFromEnvironment()
	}

	t := http.DefaultTransport.(*http.Transport).Clone()
	t.TLSClientConfig = tlsConfig
	t.Proxy = proxyFunc(proxy)

	if proxy != nil {
		logrus.WithField("component", "httputil").
			WithField("proxy", proxy.Redacted()).Info("using proxy")
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = common.AppVersion.UserAgent()
	}

	return &transport{
		userAgent:           userAgent,
		underlyingTransport: t,
	}, nil
}
