// Package util provides the shared logger, HTTP plumbing and CLI helpers.
package util

import (
	"crypto/tls"
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"
)

// Default timeouts for the two request classes the pipeline makes: regular
// document fetches, and the short-fused Ajax polls against server slots.
const (
	PageTimeout = 15 * time.Second
	PollTimeout = 5 * time.Second
)

// newTransport builds a pooled transport tuned for scraping a single host.
func newTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
}

// NewSessionClients returns a page client and a poll client sharing one
// cookie jar, so anti-bot cookies set by document fetches carry over to the
// Ajax calls. Each call creates a fresh jar: a new session.
func NewSessionClients() (page *http.Client, poll *http.Client) {
	jar, _ := cookiejar.New(nil)
	transport := newTransport()
	page = &http.Client{
		Transport: transport,
		Jar:       jar,
		Timeout:   PageTimeout,
	}
	poll = &http.Client{
		Transport: transport,
		Jar:       jar,
		Timeout:   PollTimeout,
	}
	return page, poll
}
