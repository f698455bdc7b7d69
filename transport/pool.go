// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"net/http/httptrace"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/idna"
)

// A Pool enforces a maximum age on pooled connections.
//
// The standard http.Transport has no notion of connection age, only of
// idle time. Pool fills the gap from the outside. Its DialContext
// stamps each new connection with its birth time, and then:
//
//   - An HTTP/1 connection past its lifetime is retired the moment the
//     transport returns it to the idle pool, by closing the transport's
//     idle connections. A connection carrying a request is never closed.
//   - An HTTP/2 connection past its lifetime is withdrawn from the pool
//     the next time a request asks for one and marked not to be reused.
//     Streams already running finish, the connection closes after the
//     last of them, and new requests go to a fresh connection.
//
// The HTTP/2 side works because Pool is the http2.ClientConnPool of the
// transport built by NewTransport.
type Pool struct {
	lifetime time.Duration
	dialer   *net.Dialer
	now      func() time.Time

	// closeIdle closes the idle HTTP/1 connections of the transport.
	closeIdle func()
	h2        *http2.Transport

	mu      sync.Mutex
	conns   map[string][]multiplexed
	retired int64
}

type multiplexed struct {
	cc   *http2.ClientConn
	born time.Time
}

// NewPool returns a Pool which dials with dialer and retires
// connections older than lifetime. A non-positive lifetime disables
// retirement.
func NewPool(dialer *net.Dialer, lifetime time.Duration) *Pool {
	if dialer == nil {
		dialer = &net.Dialer{}
	}
	return &Pool{
		lifetime: lifetime,
		dialer:   dialer,
		now:      time.Now,
	}
}

// bind attaches the pool to t, and to t2 if HTTP/2 is enabled, so that
// the pool can retire idle HTTP/1 connections and owns every HTTP/2
// connection t2 uses.
func (p *Pool) bind(t *http.Transport, t2 *http2.Transport) {
	p.closeIdle = t.CloseIdleConnections
	if t2 == nil {
		return
	}
	p.h2 = t2
	t2.ConnPool = p
	t.TLSNextProto[http2.NextProtoTLS] = p.upgrade
	// Cleartext HTTP/2 is never enabled; its upgrade would bypass the pool.
	delete(t.TLSNextProto, "unencrypted_http2")
}

// DialContext dials a new connection and records its birth time. It
// has the signature of http.Transport.DialContext.
func (p *Pool) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	c, err := p.dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	return &agedConn{Conn: c, born: p.now()}, nil
}

// Track returns a context carrying a client trace which retires the
// connection a request used if, by the time the transport puts it back
// in the idle pool, the connection has outlived the pool lifetime.
func (p *Pool) Track(ctx context.Context) context.Context {
	if p.lifetime <= 0 {
		return ctx
	}

	var mu sync.Mutex
	var conn net.Conn
	trace := &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			mu.Lock()
			conn = info.Conn
			mu.Unlock()
		},
		PutIdleConn: func(err error) {
			if err != nil {
				return
			}
			mu.Lock()
			c := conn
			mu.Unlock()
			if ac := aged(c); ac != nil && !ac.multiplexed.Load() && p.expired(ac.born) {
				p.retireIdle(ac)
			}
		},
	}
	return httptrace.WithClientTrace(ctx, trace)
}

func (p *Pool) retireIdle(ac *agedConn) {
	if ac.retired.CompareAndSwap(false, true) {
		p.mu.Lock()
		p.retired++
		p.mu.Unlock()
	}
	if p.closeIdle != nil {
		p.closeIdle()
	}
}

// Retired returns the number of connections the pool has retired for
// exceeding their lifetime.
func (p *Pool) Retired() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.retired
}

func (p *Pool) expired(born time.Time) bool {
	return p.lifetime > 0 && p.now().Sub(born) >= p.lifetime
}

// GetClientConn implements http2.ClientConnPool. It never dials: when
// no young connection to addr can take the request it returns
// http2.ErrNoCachedConn, and the HTTP/1 transport dials a new
// connection which arrives back through upgrade.
func (p *Pool) GetClientConn(_ *http.Request, addr string) (*http2.ClientConn, error) {
	var (
		found *http2.ClientConn
		old   []*http2.ClientConn
	)

	p.mu.Lock()
	conns := p.conns[addr]
	kept := conns[:0]
	for _, m := range conns {
		if p.expired(m.born) {
			old = append(old, m.cc)
			p.retired++
			continue
		}
		kept = append(kept, m)
		if found == nil && m.cc.ReserveNewRequest() {
			found = m.cc
		}
	}
	p.setConnsLocked(addr, kept)
	p.mu.Unlock()

	for _, cc := range old {
		retire(cc)
	}
	if found == nil {
		return nil, http2.ErrNoCachedConn
	}
	return found, nil
}

// MarkDead implements http2.ClientConnPool.
func (p *Pool) MarkDead(cc *http2.ClientConn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for addr, conns := range p.conns {
		kept := conns[:0]
		for _, m := range conns {
			if m.cc != cc {
				kept = append(kept, m)
			}
		}
		p.setConnsLocked(addr, kept)
	}
}

// closeIdleMultiplexed shuts down the HTTP/2 connections which carry no
// streams.
func (p *Pool) closeIdleMultiplexed() {
	var idle []*http2.ClientConn

	p.mu.Lock()
	for addr, conns := range p.conns {
		kept := conns[:0]
		for _, m := range conns {
			st := m.cc.State()
			if st.StreamsActive == 0 && st.StreamsReserved == 0 && st.StreamsPending == 0 {
				idle = append(idle, m.cc)
				continue
			}
			kept = append(kept, m)
		}
		p.setConnsLocked(addr, kept)
	}
	p.mu.Unlock()

	for _, cc := range idle {
		retire(cc)
	}
}

func (p *Pool) setConnsLocked(addr string, conns []multiplexed) {
	if len(conns) == 0 {
		delete(p.conns, addr)
		return
	}
	if p.conns == nil {
		p.conns = make(map[string][]multiplexed)
	}
	p.conns[addr] = conns
}

// upgrade takes over a TLS connection which negotiated HTTP/2. It has
// the signature of an http.Transport.TLSNextProto entry.
func (p *Pool) upgrade(authority string, c *tls.Conn) http.RoundTripper {
	cc, err := p.h2.NewClientConn(c)
	if err != nil {
		go c.Close()
		return failedUpgrade{err}
	}

	born := p.now()
	if ac, ok := c.NetConn().(*agedConn); ok {
		ac.multiplexed.Store(true)
		born = ac.born
	}

	addr := authorityAddr(authority)
	p.mu.Lock()
	p.setConnsLocked(addr, append(p.conns[addr], multiplexed{cc: cc, born: born}))
	p.mu.Unlock()
	return p.h2
}

// retire stops cc taking new requests. The HTTP/2 transport closes a
// connection marked this way when its last stream ends; one with no
// streams at all is closed here.
func retire(cc *http2.ClientConn) {
	cc.SetDoNotReuse()
	if st := cc.State(); st.StreamsActive == 0 && st.StreamsReserved == 0 && st.StreamsPending == 0 {
		_ = cc.Close()
	}
}

// authorityAddr returns the pool key for authority, in the form the
// HTTP/2 transport uses when it asks for a connection.
func authorityAddr(authority string) string {
	host, port, err := net.SplitHostPort(authority)
	if err != nil {
		host, port = authority, ""
	}
	if port == "" {
		port = "443"
	}
	if a, err := idna.ToASCII(host); err == nil {
		host = a
	}
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		return host + ":" + port
	}
	return net.JoinHostPort(host, port)
}

// failedUpgrade reports an HTTP/2 set-up failure. The RoundTripErr
// method lets net/http surface err instead of retrying the connection.
type failedUpgrade struct{ err error }

func (f failedUpgrade) RoundTrip(*http.Request) (*http.Response, error) { return nil, f.err }
func (f failedUpgrade) RoundTripErr() error                             { return f.err }

type agedConn struct {
	net.Conn
	born        time.Time
	multiplexed atomic.Bool
	retired     atomic.Bool
}

func aged(c net.Conn) *agedConn {
	if tc, ok := c.(*tls.Conn); ok {
		c = tc.NetConn()
	}
	ac, _ := c.(*agedConn)
	return ac
}
