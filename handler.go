// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package courier

import (
	"github.com/gogama/courier/request"
)

// A Handler is called when an event occurs during Send. Handlers run
// on the goroutine calling Send, one after another, and observe the
// same *request.Execution for every event of one send.
type Handler interface {
	Handle(Event, *request.Execution)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(Event, *request.Execution)

// Handle calls f(evt, e).
func (f HandlerFunc) Handle(evt Event, e *request.Execution) {
	f(evt, e)
}

// A HandlerGroup holds one ordered chain of handlers per event. The
// zero value is an empty group, and so is a nil *HandlerGroup.
//
// Build the group before handing it to an Executor: adding handlers is
// not safe while Send is running.
type HandlerGroup struct {
	chains [numEvents][]Handler
}

// PushBack appends h to the chain for evt, so that it runs after the
// handlers already there.
//
// PushBack panics if h is nil or evt is not one of the values returned
// by Events.
func (g *HandlerGroup) PushBack(evt Event, h Handler) {
	checkHandler(evt, h)
	g.chains[evt] = append(g.chains[evt], h)
}

// PushFront prepends h to the chain for evt, so that it runs before
// the handlers already there. Plug-ins which set up state other
// handlers read, such as a trace span, use it.
//
// PushFront panics if h is nil or evt is not one of the values
// returned by Events.
func (g *HandlerGroup) PushFront(evt Event, h Handler) {
	checkHandler(evt, h)
	chain := make([]Handler, 0, len(g.chains[evt])+1)
	g.chains[evt] = append(append(chain, h), g.chains[evt]...)
}

// Len returns the number of handlers in the chain for evt.
func (g *HandlerGroup) Len(evt Event) int {
	if g == nil || !evt.valid() {
		return 0
	}
	return len(g.chains[evt])
}

func (g *HandlerGroup) run(evt Event, e *request.Execution) {
	if g == nil {
		return
	}
	for _, h := range g.chains[evt] {
		h.Handle(evt, e)
	}
}

func checkHandler(evt Event, h Handler) {
	if h == nil {
		panic("courier: nil handler")
	}
	if !evt.valid() {
		panic("courier: unknown event " + evt.Name())
	}
}
