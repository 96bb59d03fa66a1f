// Package tlsutil provides a centralized, hardened HTTP client used by
// every outbound adapter call in the gateway (TLS 1.2+, AEAD-only cipher
// suites, and environment-proxy support for providers that need it).
package tlsutil

import (
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"
)

// DefaultTLSConfig returns a hardened TLS configuration.
func DefaultTLSConfig() *tls.Config {
	return &tls.Config{
		MinVersion: tls.VersionTLS12,
		CipherSuites: []uint16{
			tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
			tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
		},
	}
}

// proxyFromEnvironment behaves like http.ProxyFromEnvironment, but also
// honors GLOBAL_AGENT_HTTPS_PROXY as a fallback for HTTPS_PROXY — the
// proxy variable the global-agent ecosystem this gateway was ported
// from reads, which Go's stdlib proxy resolution doesn't know about.
func proxyFromEnvironment(req *http.Request) (*url.URL, error) {
	if req.URL.Scheme == "https" {
		if os.Getenv("HTTPS_PROXY") == "" && os.Getenv("https_proxy") == "" {
			if v := os.Getenv("GLOBAL_AGENT_HTTPS_PROXY"); v != "" {
				return url.Parse(v)
			}
		}
	}
	return http.ProxyFromEnvironment(req)
}

// SecureTransport returns an http.Transport with TLS hardening and
// environment-proxy support (HTTPS_PROXY / HTTP_PROXY / NO_PROXY /
// GLOBAL_AGENT_HTTPS_PROXY).
func SecureTransport() *http.Transport {
	return &http.Transport{
		TLSClientConfig: DefaultTLSConfig(),
		Proxy:           proxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// SecureHTTPClient returns an http.Client with TLS hardening. Drop-in
// replacement for &http.Client{Timeout: timeout}.
func SecureHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: SecureTransport(),
	}
}
