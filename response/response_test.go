// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package response

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind(t *testing.T) {
	assert.Equal(t, "Completed", Completed.String())
	assert.Equal(t, "ClientTimeout", ClientTimeout.String())
	assert.Equal(t, "SocketError", SocketError.String())
	assert.Equal(t, "RequestError", RequestError.String())
	assert.Equal(t, "Kind(99)", Kind(99).String())
	assert.Equal(t, "Kind(-1)", Kind(-1).String())
}

func TestCodes(t *testing.T) {
	assert.Len(t, socketCodeNames, int(Shutdown)+1)
	assert.Len(t, requestCodeNames, int(ConfigurationLimitExceeded)+1)
	assert.Equal(t, "ConnectionRefused", ConnectionRefused.String())
	assert.Equal(t, "HostNotFound", HostNotFound.String())
	assert.Equal(t, "SocketCode(77)", SocketCode(77).String())
	assert.Equal(t, "ConfigurationLimitExceeded", ConfigurationLimitExceeded.String())
	assert.Equal(t, "Unknown", Unknown.String())
	assert.Equal(t, "RequestCode(-3)", RequestCode(-3).String())
}

func TestNewCompleted(t *testing.T) {
	x := &Exchange{StatusCode: 404, Reason: "Not Found", Body: []byte("nope")}
	r := NewCompleted(time.Millisecond, x)
	assert.Equal(t, Completed, r.Kind)
	assert.Equal(t, time.Millisecond, r.Elapsed)
	assert.Same(t, x, r.Exchange)
	assert.Nil(t, r.Fault)
	assert.False(t, r.ExceededClientTimeout())
	assert.Equal(t, 404, r.StatusCode())
	assert.Equal(t, []byte("nope"), r.Body())
	assert.Equal(t, "404 Not Found", r.Status())
	assert.Equal(t, "", r.Message())

	assert.PanicsWithValue(t, negativeElapsedMsg, func() { NewCompleted(-1, x) })
	assert.Panics(t, func() { NewCompleted(0, nil) })
}

func TestCompletedStatus(t *testing.T) {
	assert.Equal(t, "200 OK", NewCompleted(1, &Exchange{StatusCode: 200}).Status())
	assert.Equal(t, "599", NewCompleted(1, &Exchange{StatusCode: 599}).Status())
	assert.Equal(t, "200 Fine", NewCompleted(1, &Exchange{StatusCode: 200, Reason: "Fine"}).Status())
}

func TestNewClientTimeout(t *testing.T) {
	r := NewClientTimeout(2*time.Second, false)
	assert.Equal(t, ClientTimeout, r.Kind)
	assert.True(t, r.ExceededClientTimeout())
	assert.False(t, r.Cancelled)
	assert.Nil(t, r.Exchange)
	assert.Nil(t, r.Fault)
	assert.Equal(t, 0, r.StatusCode())
	assert.Nil(t, r.Body())
	assert.Equal(t, "ClientTimeout", r.Status())
	assert.Equal(t, "client timeout exceeded after 2s", r.Message())

	c := NewClientTimeout(time.Second, true)
	assert.True(t, c.ExceededClientTimeout())
	assert.True(t, c.Cancelled)
	assert.Equal(t, "ClientTimeout (cancelled)", c.Status())
	assert.Equal(t, "request cancelled after 1s", c.Message())

	assert.Panics(t, func() { NewClientTimeout(-time.Nanosecond, true) })
}

func TestNewSocketError(t *testing.T) {
	err := errors.New("connect: connection refused")
	r := NewSocketError(time.Millisecond, ConnectionRefused, ConnectionError, err)
	assert.Equal(t, SocketError, r.Kind)
	assert.False(t, r.ExceededClientTimeout())
	require.NotNil(t, r.Fault)
	assert.Equal(t, ConnectionRefused, r.Fault.Socket)
	assert.Equal(t, ConnectionError, r.Fault.Request)
	assert.Same(t, err, r.Fault.Err)
	assert.Nil(t, r.Exchange)
	assert.Equal(t, "SocketError ConnectionRefused", r.Status())
	assert.Equal(t, "SocketError ConnectionRefused: connect: connection refused", r.Message())

	other := NewSocketError(0, SocketNone, Unknown, nil)
	assert.Equal(t, SocketOther, other.Fault.Socket)
	assert.Equal(t, "SocketError SocketOther", other.Message())

	assert.Panics(t, func() { NewSocketError(-1, SocketOther, Unknown, nil) })
}

func TestNewRequestError(t *testing.T) {
	r := NewRequestError(time.Millisecond, InvalidResponse, nil)
	assert.Equal(t, RequestError, r.Kind)
	assert.False(t, r.ExceededClientTimeout())
	require.NotNil(t, r.Fault)
	assert.Equal(t, SocketNone, r.Fault.Socket)
	assert.Equal(t, InvalidResponse, r.Fault.Request)
	assert.Equal(t, "RequestError InvalidResponse", r.Message())

	assert.Panics(t, func() { NewRequestError(-1, Unknown, nil) })
}
