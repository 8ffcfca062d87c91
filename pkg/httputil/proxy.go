package httputil

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/http/httpproxy"
)

// ProxyEnvVars are consulted in order, the first one holding a usable proxy
// URL wins.
var ProxyEnvVars = []string{
	"ALL_PROXY",
	"all_proxy",
	"HTTPS_PROXY",
	"https_proxy",
	"HTTP_PROXY",
	"http_proxy",
}

var supportedProxySchemes = map[string]bool{
	"http":    true,
	"https":   true,
	"socks5":  true,
	"socks5h": true,
}

// ProxyFromEnvironment returns the proxy of the first variable in ProxyEnvVars
// that is set and parses, or nil when none does.
func ProxyFromEnvironment() *url.URL {
	log := logrus.WithField("component", "httputil")

	for _, name := range ProxyEnvVars {
		val, ok := os.LookupEnv(name)
		if !ok {
			continue
		}

		proxy, err := ParseProxy(val)
		if err != nil {
			log.WithError(err).WithField("env", name).Debug("ignoring proxy variable")
			continue
		}

		log.WithField("env", name).WithField("proxy", proxy.Redacted()).Debug("using proxy from environment")
		return proxy
	}

	return nil
}

// ParseProxy parses a proxy value, a missing scheme is treated as http.
func ParseProxy(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty proxy url")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if !supportedProxySchemes[u.Scheme] {
		return nil, fmt.Errorf("unsupported proxy scheme: %s", u.Scheme)
	}

	if u.Hostname() == "" {
		return nil, fmt.Errorf("proxy url has no host: %s", u.Redacted())
	}

	return u, nil
}

// proxyFunc routes every request through proxy. When NO_PROXY/no_proxy is
// set, matching destinations and loopback hosts go direct.
func proxyFunc(proxy *url.URL) func(*http.Request) (*url.URL, error) {
	if proxy == nil {
		return nil
	}

	noProxy := getEnvAny("NO_PROXY", "no_proxy")
	if noProxy == "" {
		return http.ProxyURL(proxy)
	}

	cfg := &httpproxy.Config{
		HTTPProxy:  proxy.String(),
		HTTPSProxy: proxy.String(),
		NoProxy:    noProxy,
	}
	pf := cfg.ProxyFunc()

	return func(req *http.Request) (*url.URL, error) {
		return pf(req.URL)
	}
}

func getEnvAny(names ...string) string {
	for _, n := range names {
		if val, ok := os.LookupEnv(n); ok && val != "" {
			return val
		}
	}
	return ""
}
