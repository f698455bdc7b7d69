// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fault

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/gogama/courier/response"
	"github.com/gogama/courier/transport"
	"golang.org/x/net/http2"
)

// A Class is the classification of one request attempt error.
//
// Kind is always one of ClientTimeout, SocketError or RequestError.
// Socket is only set for SocketError.
type Class struct {
	Kind    response.Kind
	Socket  response.SocketCode
	Request response.RequestCode
}

// Response builds the failure response described by the class. The
// cancelled flag is only used when the class is a ClientTimeout.
func (c Class) Response(elapsed time.Duration, err error, cancelled bool) *response.Response {
	switch c.Kind {
	case response.ClientTimeout:
		return response.NewClientTimeout(elapsed, cancelled)
	case response.SocketError:
		return response.NewSocketError(elapsed, c.Socket, c.Request, err)
	default:
		return response.NewRequestError(elapsed, c.Request, err)
	}
}

// String returns the status form of the class, for example
// "SocketError ConnectionRefused".
func (c Class) String() string {
	switch c.Kind {
	case response.ClientTimeout:
		return c.Kind.String()
	case response.SocketError:
		return c.Kind.String() + " " + c.Socket.String()
	default:
		return c.Kind.String() + " " + c.Request.String()
	}
}

// Classify returns the class of err, an error returned while sending a
// request or reading its response body under the attempt context ctx.
// A nil ctx is treated as never done.
//
// The priority order is:
//
//  1. An operating system error number anywhere in the chain gives a
//     SocketError.
//  2. If ctx is done, or the error is a context cancellation or
//     deadline, the result is a ClientTimeout.
//  3. A DNS error, or a failure to dial, gives a SocketError.
//  4. Anything else gives a RequestError.
//
// Classify must not be called with a nil err.
func Classify(ctx context.Context, err error) Class {
	op := opName(err)

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return Class{
			Kind:    response.SocketError,
			Socket:  socketCode(errno),
			Request: opRequestCode(op),
		}
	}

	if (ctx != nil && ctx.Err() != nil) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Class{Kind: response.ClientTimeout}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		sc := response.HostNotFound
		if dnsErr.IsTemporary || dnsErr.IsTimeout {
			sc = response.TryAgain
		}
		return Class{
			Kind:    response.SocketError,
			Socket:  sc,
			Request: response.NameResolutionError,
		}
	}

	if op == "dial" || op == "proxyconnect" {
		sc := response.SocketOther
		var t hasTimeout
		if errors.As(err, &t) && t.Timeout() {
			sc = response.TimedOut
		}
		return Class{
			Kind:    response.SocketError,
			Socket:  sc,
			Request: opRequestCode(op),
		}
	}

	return Class{
		Kind:    response.RequestError,
		Request: requestCode(err),
	}
}

type hasTimeout interface {
	Timeout() bool
}

func opName(err error) string {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op
	}
	return ""
}

func opRequestCode(op string) response.RequestCode {
	switch op {
	case "dial":
		return response.ConnectionError
	case "proxyconnect":
		return response.ProxyTunnelError
	default:
		return response.Unknown
	}
}

var errnoCodes = map[syscall.Errno]response.SocketCode{
	syscall.ECONNREFUSED:  response.ConnectionRefused,
	syscall.ECONNRESET:    response.ConnectionReset,
	syscall.ECONNABORTED:  response.ConnectionAborted,
	syscall.EHOSTUNREACH:  response.HostUnreachable,
	syscall.ENETUNREACH:   response.NetworkUnreachable,
	syscall.ENETDOWN:      response.NetworkDown,
	syscall.ETIMEDOUT:     response.TimedOut,
	syscall.EADDRINUSE:    response.AddressInUse,
	syscall.EADDRNOTAVAIL: response.AddressNotAvailable,
	syscall.EPIPE:         response.Shutdown,
}

func socketCode(errno syscall.Errno) response.SocketCode {
	if sc, ok := errnoCodes[errno]; ok {
		return sc
	}
	return response.SocketOther
}

func requestCode(err error) response.RequestCode {
	switch {
	case errors.Is(err, transport.ErrBodyTooLarge):
		return response.ConfigurationLimitExceeded
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return response.ResponseEnded
	case isVersionError(err):
		return response.VersionNegotiationError
	case isTLSError(err):
		return response.SecureConnectionError
	case isHTTP2Error(err):
		return response.HTTPProtocolError
	case strings.Contains(err.Error(), "malformed HTTP"):
		return response.InvalidResponse
	default:
		return response.Unknown
	}
}

const alertProtocolVersion tls.AlertError = 70

func isVersionError(err error) bool {
	var alert tls.AlertError
	if errors.As(err, &alert) && alert == alertProtocolVersion {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "malformed HTTP version") ||
		strings.Contains(msg, "unsupported protocol version")
}

func isTLSError(err error) bool {
	var (
		recordErr    tls.RecordHeaderError
		alertErr     tls.AlertError
		verifyErr    *tls.CertificateVerificationError
		authorityErr x509.UnknownAuthorityError
		hostnameErr  x509.HostnameError
		invalidErr   x509.CertificateInvalidError
	)
	return errors.As(err, &recordErr) ||
		errors.As(err, &alertErr) ||
		errors.As(err, &verifyErr) ||
		errors.As(err, &authorityErr) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &invalidErr) ||
		errors.Is(err, http.ErrSchemeMismatch)
}

func isHTTP2Error(err error) bool {
	var (
		streamErr http2.StreamError
		connErr   http2.ConnectionError
		goAwayErr http2.GoAwayError
	)
	return errors.As(err, &streamErr) ||
		errors.As(err, &connErr) ||
		errors.As(err, &goAwayErr)
}
