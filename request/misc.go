// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"io"
)

// ErrBadBodyType is returned by BodyBytes for a body of an unsupported
// type.
var ErrBadBodyType = errors.New("courier/request: invalid type (for body use nil, " +
	"string, []byte, io.Reader or io.ReadCloser)")

// BodyBytes converts a generic body parameter to a byte slice for use
// as a request plan body.
//
// The body parameter may be nil, a string, a []byte, an io.Reader, or
// an io.ReadCloser. A reader is read to the end, and closed if it is
// an io.ReadCloser; if either fails, the error is returned with a nil
// slice. Any other type yields ErrBadBodyType.
func BodyBytes(body interface{}) ([]byte, error) {
	switch x := body.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(x), nil
	case []byte:
		return x, nil
	case io.ReadCloser:
		b, err := io.ReadAll(x)
		if err != nil {
			_ = x.Close()
			return nil, err
		}
		if err = x.Close(); err != nil {
			return nil, err
		}
		return b, nil
	case io.Reader:
		return BodyBytes(io.NopCloser(x))
	default:
		return nil, ErrBadBodyType
	}
}
