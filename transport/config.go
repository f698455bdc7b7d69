// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	// DefaultMaxResponseBufferSize is the default limit on the number
	// of response body bytes buffered for one request.
	DefaultMaxResponseBufferSize int64 = math.MaxInt32
	// DefaultPooledConnectionLifetime is the default maximum age of a
	// pooled connection. Older connections are retired instead of
	// being reused.
	DefaultPooledConnectionLifetime = 20 * time.Minute

	defaultDialTimeout           = 30 * time.Second
	defaultKeepAlive             = 30 * time.Second
	defaultTLSHandshakeTimeout   = 10 * time.Second
	defaultMaxIdleConns          = 100
	defaultMaxIdleConnsPerHost   = 10
	defaultIdleConnTimeout       = 90 * time.Second
	defaultExpectContinueTimeout = time.Second
	defaultHTTP2ReadIdleTimeout  = 30 * time.Second
	defaultHTTP2PingTimeout      = 15 * time.Second
)

// Config holds the process-wide transport settings. They are fixed when
// a Client is built and cannot be changed per request.
type Config struct {
	// MaxResponseBufferSize limits how many response body bytes are
	// buffered for one request. A larger body fails the request.
	MaxResponseBufferSize int64 `yaml:"max_response_buffer_size" mapstructure:"max_response_buffer_size" validate:"gte=0"`

	// PooledConnectionLifetime is the maximum age of a pooled
	// connection. Zero means DefaultPooledConnectionLifetime.
	PooledConnectionLifetime time.Duration `yaml:"pooled_connection_lifetime" mapstructure:"pooled_connection_lifetime" validate:"gte=0"`

	DialTimeout         time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout" validate:"gte=0"`
	KeepAlive           time.Duration `yaml:"keep_alive" mapstructure:"keep_alive"`
	TLSHandshakeTimeout time.Duration `yaml:"tls_handshake_timeout" mapstructure:"tls_handshake_timeout" validate:"gte=0"`
	MaxIdleConns        int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns" validate:"gte=0"`
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host" mapstructure:"max_idle_conns_per_host" validate:"gte=0"`

	// DisableCompression turns off transparent gzip decompression of
	// response bodies.
	DisableCompression bool `yaml:"disable_compression" mapstructure:"disable_compression"`
	// DisableHTTP2 restricts the client to HTTP/1.1.
	DisableHTTP2 bool `yaml:"disable_http2" mapstructure:"disable_http2"`
	// HTTP2ReadIdleTimeout is how long an HTTP/2 connection may go
	// without receiving a frame before a health-check ping is sent.
	HTTP2ReadIdleTimeout time.Duration `yaml:"http2_read_idle_timeout" mapstructure:"http2_read_idle_timeout" validate:"gte=0"`
	// HTTP2PingTimeout is how long to wait for the health-check ping
	// response before the connection is closed.
	HTTP2PingTimeout time.Duration `yaml:"http2_ping_timeout" mapstructure:"http2_ping_timeout" validate:"gte=0"`

	// InsecureSkipVerify disables TLS certificate verification. It is
	// intended for testing only.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`
}

// DefaultConfig returns the default transport configuration.
func DefaultConfig() Config {
	var cfg Config
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults sets every zero-valued field to its default.
func (c *Config) ApplyDefaults() {
	if c.MaxResponseBufferSize == 0 {
		c.MaxResponseBufferSize = DefaultMaxResponseBufferSize
	}
	if c.PooledConnectionLifetime == 0 {
		c.PooledConnectionLifetime = DefaultPooledConnectionLifetime
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = defaultDialTimeout
	}
	if c.KeepAlive == 0 {
		c.KeepAlive = defaultKeepAlive
	}
	if c.TLSHandshakeTimeout == 0 {
		c.TLSHandshakeTimeout = defaultTLSHandshakeTimeout
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = defaultMaxIdleConns
	}
	if c.MaxIdleConnsPerHost == 0 {
		c.MaxIdleConnsPerHost = defaultMaxIdleConnsPerHost
	}
	if c.HTTP2ReadIdleTimeout == 0 {
		c.HTTP2ReadIdleTimeout = defaultHTTP2ReadIdleTimeout
	}
	if c.HTTP2PingTimeout == 0 {
		c.HTTP2PingTimeout = defaultHTTP2PingTimeout
	}
}

// Validate reports every invalid field, joined into one error.
func (c *Config) Validate() error {
	var errs []error
	if c.MaxResponseBufferSize < 0 {
		errs = append(errs, fmt.Errorf("max_response_buffer_size must not be negative, got %d", c.MaxResponseBufferSize))
	}
	if c.PooledConnectionLifetime < 0 {
		errs = append(errs, fmt.Errorf("pooled_connection_lifetime must not be negative, got %s", c.PooledConnectionLifetime))
	}
	if c.DialTimeout < 0 || c.TLSHandshakeTimeout < 0 || c.HTTP2ReadIdleTimeout < 0 || c.HTTP2PingTimeout < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}
	if c.MaxIdleConns < 0 || c.MaxIdleConnsPerHost < 0 {
		errs = append(errs, errors.New("idle connection limits must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("courier/transport: invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) idleConnTimeout() time.Duration {
	if c.PooledConnectionLifetime > 0 && c.PooledConnectionLifetime < defaultIdleConnTimeout {
		return c.PooledConnectionLifetime
	}
	return defaultIdleConnTimeout
}
