// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"crypto/tls"
	"net"
	"net/http"

	"golang.org/x/net/http2"
)

// A Client is an HTTP doer built from a Config. It wraps a standard
// http.Client whose Transport dials through a Pool, so that pooled
// connections are retired once they exceed the configured lifetime.
//
// The http.Client has no overall Timeout: the client-level timeout is
// applied per request by the executor through the request context.
type Client struct {
	// HTTP is the underlying standard client.
	HTTP *http.Client
	// Pool tracks connection ages.
	Pool *Pool
	// MaxResponseBufferSize is copied from the Config.
	MaxResponseBufferSize int64
}

// NewClient builds a Client from cfg. Zero-valued fields of cfg take
// their defaults. NewClient returns an error if cfg is invalid or
// HTTP/2 cannot be configured.
func NewClient(cfg Config) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t, pool, err := NewTransport(cfg)
	if err != nil {
		return nil, err
	}

	return &Client{
		HTTP:                  &http.Client{Transport: t},
		Pool:                  pool,
		MaxResponseBufferSize: cfg.MaxResponseBufferSize,
	}, nil
}

// NewTransport builds the http.Transport described by cfg, together
// with the Pool its connections are dialled through. Unless HTTP/2 is
// disabled, the transport is configured for HTTP/2 with health-check
// pings so that half-open multiplexed connections are detected.
func NewTransport(cfg Config) (*http.Transport, *Pool, error) {
	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: cfg.KeepAlive,
	}
	pool := NewPool(dialer, cfg.PooledConnectionLifetime)

	t := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           pool.DialContext,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       cfg.idleConnTimeout(),
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ExpectContinueTimeout: defaultExpectContinueTimeout,
		DisableCompression:    cfg.DisableCompression,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec
		},
	}

	if cfg.DisableHTTP2 {
		t.TLSNextProto = map[string]func(string, *tls.Conn) http.RoundTripper{}
		pool.bind(t, nil)
		return t, pool, nil
	}

	h2, err := http2.ConfigureTransports(t)
	if err != nil {
		return nil, nil, err
	}
	h2.ReadIdleTimeout = cfg.HTTP2ReadIdleTimeout
	h2.PingTimeout = cfg.HTTP2PingTimeout
	pool.bind(t, h2)
	return t, pool, nil
}

// Do sends the request using the underlying http.Client, tracking the
// connection it uses so the Pool can retire it once it is idle and past
// its lifetime.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.HTTP.Do(req.WithContext(c.Pool.Track(req.Context())))
}

// CloseIdleConnections closes idle connections held by the transport,
// HTTP/2 connections included.
func (c *Client) CloseIdleConnections() {
	c.HTTP.CloseIdleConnections()
	c.Pool.closeIdleMultiplexed()
}
