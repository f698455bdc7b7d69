// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package courier

import (
	"bytes"
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/gogama/courier/request"
	"github.com/gogama/courier/response"
	"github.com/gogama/courier/urltemplate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var ctxKey = struct{ name string }{"interface_test"}

func TestGet(t *testing.T) {
	ctx := context.WithValue(context.Background(), ctxKey, "get")
	t.Run("OK", func(t *testing.T) {
		expected := response.NewClientTimeout(time.Second, false)
		m := newMockSender(t)
		m.On("Send", ctx, mock.MatchedBy(func(p *request.Plan) bool {
			return p.Method == "GET" && p.URL.String() == "foo"
		})).Return(expected, nil).Once()
		r, err := Get(ctx, m, "foo")
		assert.Same(t, expected, r)
		assert.NoError(t, err)
		m.AssertExpectations(t)
	})
	t.Run("error invalid URL", func(t *testing.T) {
		m := newMockSender(t)
		r, err := Get(ctx, m, ":::")
		assert.Nil(t, r)
		assert.Error(t, err)
		m.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})
}

func TestHead(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		expected := response.NewClientTimeout(time.Second, true)
		m := newMockSender(t)
		m.On("Send", mock.Anything, mock.MatchedBy(func(p *request.Plan) bool {
			return p.Method == "HEAD" && p.URL.String() == "bar"
		})).Return(expected, nil).Once()
		r, err := Head(context.Background(), m, "bar")
		assert.Same(t, expected, r)
		assert.NoError(t, err)
		m.AssertExpectations(t)
	})
	t.Run("error invalid URL", func(t *testing.T) {
		m := newMockSender(t)
		r, err := Head(context.Background(), m, ":::")
		assert.Nil(t, r)
		assert.Error(t, err)
		m.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})
}

func TestPost(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		expected := response.NewClientTimeout(time.Second, false)
		m := newMockSender(t)
		m.On("Send", mock.Anything, mock.MatchedBy(func(p *request.Plan) bool {
			return p.Method == "POST" && p.URL.String() == "baz" &&
				p.Header.Get("Content-Type") == "ham" &&
				bytes.Equal(p.Body, []byte("eggs"))
		})).Return(expected, nil).Once()
		r, err := Post(context.Background(), m, "baz", "ham", "eggs")
		assert.Same(t, expected, r)
		assert.NoError(t, err)
		m.AssertExpectations(t)
	})
	t.Run("error invalid URL", func(t *testing.T) {
		m := newMockSender(t)
		r, err := Post(context.Background(), m, ":::", "text/plain", []byte{'a', 'b', 'c'})
		assert.Nil(t, r)
		assert.Error(t, err)
		m.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})
	t.Run("error invalid body", func(t *testing.T) {
		m := newMockSender(t)
		r, err := Post(context.Background(), m, "http://example.com", "text/plain", 123)
		assert.Nil(t, r)
		assert.ErrorIs(t, err, request.ErrBadBodyType)
		m.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})
}

func TestPostForm(t *testing.T) {
	expected := response.NewClientTimeout(time.Second, false)
	m := newMockSender(t)
	m.On("Send", mock.Anything, mock.MatchedBy(func(p *request.Plan) bool {
		return p.Method == "POST" && p.URL.String() == "poster%20boy" &&
			p.Header.Get("Content-Type") == "application/x-www-form-urlencoded" &&
			len(p.Body) == 0
	})).Return(expected, nil).Once()
	r, err := PostForm(context.Background(), m, "poster boy", url.Values{})
	assert.Same(t, expected, r)
	assert.NoError(t, err)
	m.AssertExpectations(t)
}

func TestSendTemplate(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		tpl, err := urltemplate.Create("https://api.example.com/users/uid",
			[]urltemplate.Param{{Name: "uid", Value: "a b"}},
			[]urltemplate.Param{{Name: "max_length", Value: "20"}})
		require.NoError(t, err)
		expected := response.NewClientTimeout(time.Second, false)
		m := newMockSender(t)
		m.On("Send", mock.Anything, mock.MatchedBy(func(p *request.Plan) bool {
			return p.Method == "PUT" &&
				p.URL.String() == "https://api.example.com/users/a%20b?max_length=20" &&
				bytes.Equal(p.Body, []byte("{}"))
		})).Return(expected, nil).Once()
		r, err := SendTemplate(context.Background(), m, "PUT", tpl, "{}")
		assert.Same(t, expected, r)
		assert.NoError(t, err)
		m.AssertExpectations(t)
	})
	t.Run("error unresolvable template", func(t *testing.T) {
		tpl, err := urltemplate.Create("not-a-url", nil, nil)
		require.NoError(t, err)
		m := newMockSender(t)
		r, err := SendTemplate(context.Background(), m, "GET", tpl, nil)
		assert.Nil(t, r)
		assert.ErrorIs(t, err, urltemplate.ErrInvalidURL)
		m.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})
	t.Run("error invalid method", func(t *testing.T) {
		tpl, err := urltemplate.Create("https://example.com", nil, nil)
		require.NoError(t, err)
		m := newMockSender(t)
		r, err := SendTemplate(context.Background(), m, "BREW", tpl, nil)
		assert.Nil(t, r)
		assert.ErrorIs(t, err, request.ErrInvalidMethod)
	})
}

func TestInflate(t *testing.T) {
	t.Run("Inflate", func(t *testing.T) {
		t.Run("nil sender", func(t *testing.T) {
			assert.PanicsWithValue(t, "courier: nil sender", func() {
				Inflate(nil)
			})
		})
		t.Run("already a Requester", func(t *testing.T) {
			x := &Executor{}
			r := Inflate(x)
			assert.Same(t, x, r)
		})
		t.Run("not yet a Requester", func(t *testing.T) {
			m := newMockSender(t)
			r := Inflate(m)
			assert.NotSame(t, m, r)
		})
	})
	expected := response.NewClientTimeout(time.Second, false)
	t.Run("Send", func(t *testing.T) {
		p, err := request.NewPlan("PUT", "http://www.randomcollections.com/widgets/1", "foo")
		require.NotNil(t, p)
		require.NoError(t, err)
		m := newMockSender(t)
		m.On("Send", context.Background(), p).Return(expected, nil).Once()
		x := Inflate(m)
		r, err := x.Send(context.Background(), p)
		assert.Same(t, expected, r)
		assert.NoError(t, err)
		m.AssertExpectations(t)
	})
	t.Run("Get", func(t *testing.T) {
		m := newMockSender(t)
		m.On("Send", mock.Anything, mock.MatchedBy(func(p *request.Plan) bool {
			return p.Method == "GET" && p.URL.String() == "bar"
		})).Return(expected, nil).Once()
		r, err := Inflate(m).Get(context.Background(), "bar")
		assert.Same(t, expected, r)
		assert.NoError(t, err)
		m.AssertExpectations(t)
	})
	t.Run("Head", func(t *testing.T) {
		m := newMockSender(t)
		m.On("Send", mock.Anything, mock.MatchedBy(func(p *request.Plan) bool {
			return p.Method == "HEAD" && p.URL.String() == "baz"
		})).Return(expected, nil).Once()
		r, err := Inflate(m).Head(context.Background(), "baz")
		assert.Same(t, expected, r)
		assert.NoError(t, err)
		m.AssertExpectations(t)
	})
	t.Run("Post", func(t *testing.T) {
		m := newMockSender(t)
		m.On("Send", mock.Anything, mock.MatchedBy(func(p *request.Plan) bool {
			return p.Method == "POST" && p.URL.String() == "ham" &&
				p.Header.Get("Content-Type") == "eggs" &&
				p.Body == nil
		})).Return(expected, nil).Once()
		r, err := Inflate(m).Post(context.Background(), "ham", "eggs", nil)
		assert.Same(t, expected, r)
		assert.NoError(t, err)
		m.AssertExpectations(t)
	})
	t.Run("PostForm", func(t *testing.T) {
		m := newMockSender(t)
		m.On("Send", mock.Anything, mock.MatchedBy(func(p *request.Plan) bool {
			return p.Method == "POST" && p.URL.String() == "form" &&
				p.Header.Get("Content-Type") == "application/x-www-form-urlencoded" &&
				bytes.Equal(p.Body, []byte("x=y"))
		})).Return(expected, nil).Once()
		r, err := Inflate(m).PostForm(context.Background(), "form", url.Values{"x": []string{"y"}})
		assert.Same(t, expected, r)
		assert.NoError(t, err)
		m.AssertExpectations(t)
	})
	t.Run("CloseIdleConnections", func(t *testing.T) {
		t.Run("Sender does not implement IdleCloser", func(t *testing.T) {
			m := newMockSender(t)
			x := Inflate(m)
			x.CloseIdleConnections()
			m.AssertNotCalled(t, "CloseIdleConnections")
		})
		t.Run("Sender implements IdleCloser", func(t *testing.T) {
			m := newMockSenderWithCloseIdleConnections(t)
			m.On("CloseIdleConnections").Once()
			x := Inflate(m)
			x.CloseIdleConnections()
			m.AssertExpectations(t)
		})
	})
}

type mockSender struct {
	mock.Mock
}

func newMockSender(t *testing.T) *mockSender {
	m := &mockSender{}
	m.Test(t)
	return m
}

func (m *mockSender) Send(ctx context.Context, p *request.Plan) (*response.Response, error) {
	args := m.Called(ctx, p)
	r := args.Get(0)
	err := args.Error(1)
	if r == nil {
		return nil, err
	}
	return r.(*response.Response), err
}

type mockSenderWithCloseIdleConnections struct {
	mockSender
}

func newMockSenderWithCloseIdleConnections(t *testing.T) *mockSenderWithCloseIdleConnections {
	m := &mockSenderWithCloseIdleConnections{}
	m.Test(t)
	return m
}

func (m *mockSenderWithCloseIdleConnections) CloseIdleConnections() {
	m.Called()
}
