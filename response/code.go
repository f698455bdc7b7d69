// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package response

import "fmt"

// A SocketCode identifies a socket-level failure.
type SocketCode int

const (
	// SocketNone is the zero SocketCode. It is never the code of a
	// SocketError response.
	SocketNone SocketCode = iota
	// SocketOther is a socket failure without a more specific code.
	SocketOther
	ConnectionRefused
	ConnectionReset
	ConnectionAborted
	// HostNotFound means the host name does not resolve.
	HostNotFound
	// TryAgain means name resolution failed temporarily.
	TryAgain
	HostUnreachable
	NetworkUnreachable
	NetworkDown
	// TimedOut means a socket operation timed out below the client
	// timeout, for example a dial timeout set on the transport.
	TimedOut
	AddressInUse
	AddressNotAvailable
	// Shutdown means the peer closed its end while data was still
	// being written (EPIPE).
	Shutdown
)

var socketCodeNames = []string{
	"None",
	"SocketOther",
	"ConnectionRefused",
	"ConnectionReset",
	"ConnectionAborted",
	"HostNotFound",
	"TryAgain",
	"HostUnreachable",
	"NetworkUnreachable",
	"NetworkDown",
	"TimedOut",
	"AddressInUse",
	"AddressNotAvailable",
	"Shutdown",
}

// String returns the name of the socket code.
func (c SocketCode) String() string {
	if c < 0 || int(c) >= len(socketCodeNames) {
		return fmt.Sprintf("SocketCode(%d)", int(c))
	}
	return socketCodeNames[c]
}

// A RequestCode is the transport-level classification of a failure.
type RequestCode int

const (
	// Unknown is a failure the transport did not classify further.
	Unknown RequestCode = iota
	NameResolutionError
	ConnectionError
	SecureConnectionError
	HTTPProtocolError
	VersionNegotiationError
	ProxyTunnelError
	// InvalidResponse means the server sent something which is not a
	// well-formed HTTP response.
	InvalidResponse
	// ResponseEnded means the connection closed before the full
	// response was read.
	ResponseEnded
	// ConfigurationLimitExceeded means the response body was larger
	// than the executor's maximum response buffer size.
	ConfigurationLimitExceeded
)

var requestCodeNames = []string{
	"Unknown",
	"NameResolutionError",
	"ConnectionError",
	"SecureConnectionError",
	"HTTPProtocolError",
	"VersionNegotiationError",
	"ProxyTunnelError",
	"InvalidResponse",
	"ResponseEnded",
	"ConfigurationLimitExceeded",
}

// String returns the name of the request code.
func (c RequestCode) String() string {
	if c < 0 || int(c) >= len(requestCodeNames) {
		return fmt.Sprintf("RequestCode(%d)", int(c))
	}
	return requestCodeNames[c]
}
