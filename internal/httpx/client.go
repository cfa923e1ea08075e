// Package httpx builds the HTTP client used by the API transport, with
// optional proxy support (system settings, basic auth, or NTLM).
package httpx

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	ntlmssp "github.com/Azure/go-ntlmssp"
	"golang.org/x/net/http/httpproxy"
	"golang.org/x/net/http2"
)

// ProxyOptions selects how outbound connections reach the course server.
type ProxyOptions struct {
	// Mode is one of "", "no-proxy", "system", "basic", "ntlm".
	Mode     string
	Host     string
	Port     int
	User     string
	Password string
	// NoProxy is a comma-separated bypass list of hosts and CIDRs.
	NoProxy string
}

// NewClient creates an HTTP client honoring the given proxy options.
// Downloads can run for a long time, so the client carries no overall
// timeout; callers bound requests with contexts.
func NewClient(opts ProxyOptions) (*http.Client, error) {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 2 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	_ = http2.ConfigureTransport(transport)

	switch strings.ToLower(opts.Mode) {
	case "", "no-proxy":
		transport.Proxy = nil

	case "system":
		transport.Proxy = http.ProxyFromEnvironment

	case "basic":
		if opts.Host == "" {
			return nil, fmt.Errorf("proxy mode is basic but no host is configured")
		}
		transport.Proxy = proxyFuncWithBypass(buildProxyURL(opts), opts.NoProxy)

	case "ntlm":
		if opts.Host == "" {
			return nil, fmt.Errorf("proxy mode is ntlm but no host is configured")
		}
		transport.Proxy = proxyFuncWithBypass(buildProxyURL(opts), opts.NoProxy)
		// NTLM handshakes live in a negotiating round tripper around the
		// plain transport.
		return &http.Client{
			Transport: ntlmssp.Negotiator{RoundTripper: transport},
		}, nil

	default:
		return nil, fmt.Errorf("unsupported proxy mode: %s", opts.Mode)
	}

	return &http.Client{Transport: transport}, nil
}

// buildProxyURL constructs the proxy URL from the configured host and port.
func buildProxyURL(opts ProxyOptions) *url.URL {
	port := opts.Port
	if port == 0 {
		port = 8080
	}

	proxyURL := &url.URL{
		Scheme: "http",
		Host:   fmt.Sprintf("%s:%d", opts.Host, port),
	}

	// Embed credentials only when both parts are present; an empty password
	// in the URL breaks auth with some proxies.
	if opts.User != "" && opts.Password != "" {
		proxyURL.User = url.UserPassword(opts.User, opts.Password)
	}

	return proxyURL
}

// proxyFuncWithBypass returns a proxy function honoring the NoProxy list.
// With an empty list it behaves like http.ProxyURL.
func proxyFuncWithBypass(proxyURL *url.URL, noProxy string) func(*http.Request) (*url.URL, error) {
	if noProxy == "" {
		return http.ProxyURL(proxyURL)
	}
	cfg := httpproxy.Config{
		HTTPProxy:  proxyURL.String(),
		HTTPSProxy: proxyURL.String(),
		NoProxy:    noProxy,
	}
	proxyFunc := cfg.ProxyFunc()
	return func(req *http.Request) (*url.URL, error) {
		return proxyFunc(req.URL)
	}
}
