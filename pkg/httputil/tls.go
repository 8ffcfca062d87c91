package httputil

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// TLSConfig builds the client TLS configuration on top of the system roots.
func TLSConfig(opts *Options) (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}

	if opts == nil {
		return cfg, nil
	}

	cfg.InsecureSkipVerify = opts.InsecureSkipVerify

	if opts.CACertFile != "" {
		pool, err := x509.SystemCertPool()
		if err != nil || pool == nil {
			pool = x509.NewCertPool()
		}

		pem, err := os.ReadFile(opts.CACertFile)
		if err != nil {
			return nil, errors.Wrap(err, "unable to read ca certificate")
		}

		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", opts.CACertFile)
		}

		cfg.RootCAs = pool
	}

	return cfg, nil
}
