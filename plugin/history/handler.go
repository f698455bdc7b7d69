// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package history

import (
	"context"
	"time"

	"github.com/gogama/courier"
	"github.com/gogama/courier/request"
)

// DefaultSaveTimeout bounds each save made by a Handler.
const DefaultSaveTimeout = 5 * time.Second

// A Handler saves a Record for every execution when it ends.
type Handler struct {
	Store *Store
	// SaveTimeout bounds each save. Zero means DefaultSaveTimeout.
	SaveTimeout time.Duration
	// OnError, if not nil, is called when a save fails.
	OnError func(e *request.Execution, err error)
}

// Install creates a Handler for s and adds it to the AfterExecutionEnd
// chain of g.
func Install(g *courier.HandlerGroup, s *Store) *Handler {
	h := &Handler{Store: s}
	g.PushBack(courier.AfterExecutionEnd, h)
	return h
}

// Handle saves the execution on AfterExecutionEnd and ignores other
// events.
func (h *Handler) Handle(evt courier.Event, e *request.Execution) {
	if evt != courier.AfterExecutionEnd {
		return
	}

	d := h.SaveTimeout
	if d <= 0 {
		d = DefaultSaveTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	if err := h.Store.Save(ctx, FromExecution(e)); err != nil && h.OnError != nil {
		h.OnError(e, err)
	}
}
