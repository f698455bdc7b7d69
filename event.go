// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package courier

import "fmt"

// An Event identifies the event type when installing or running a
// Handler. Install event handlers in an Executor to extend it with
// custom functionality such as logging, metrics or tracing.
type Event int

const (
	// BeforeExecutionStart identifies the event that occurs before the
	// plan is sent.
	//
	// When Executor fires BeforeExecutionStart, the execution is
	// non-nil but only its plan and ID have been set.
	BeforeExecutionStart Event = iota
	// BeforeAttempt identifies the event that occurs immediately before
	// the HTTP request is sent.
	//
	// When Executor fires BeforeAttempt, the execution's request field
	// is set to the HTTP request that WILL BE sent after all
	// BeforeAttempt handlers have finished.
	//
	// BeforeAttempt handlers may modify the execution's request, or
	// some of its fields, thus changing the HTTP request that will be
	// sent. They should clone the URL before changing it, as it
	// initially references the plan's URL.
	//
	// BeforeAttempt does not fire if the context was already done when
	// the plan was sent.
	BeforeAttempt
	// BeforeReadBody identifies the event that occurs after the HTTP
	// request has resulted in an HTTP response (as opposed to an error)
	// but before the response body is read and buffered.
	//
	// BeforeReadBody never fires if the HTTP request ended in error,
	// but always fires if an HTTP response is received, regardless of
	// its status code.
	BeforeReadBody
	// AfterClientTimeout identifies the event that occurs after the
	// attempt was classified as a ClientTimeout, either because the
	// per-request timeout elapsed or because the caller cancelled.
	//
	// When Executor fires AfterClientTimeout, the execution's error
	// and result fields are set.
	AfterClientTimeout
	// AfterAttempt identifies the event that occurs after the attempt
	// is concluded and classified, regardless of its outcome.
	//
	// When Executor fires AfterAttempt, the execution's result field is
	// set. Either its response field or its error field OR BOTH may be
	// non-nil, but never both nil; both are set if there was an error
	// reading the response body.
	AfterAttempt
	// AfterExecutionEnd identifies the last event, which occurs after
	// the attempt, just before Send returns.
	AfterExecutionEnd
	// eventSentinel provides the total number of events typed as an
	// Event.
	eventSentinel

	// numEvents provides the total number of events types as an int.
	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"BeforeExecutionStart",
	"BeforeAttempt",
	"BeforeReadBody",
	"AfterClientTimeout",
	"AfterAttempt",
	"AfterExecutionEnd",
}

// Events returns a slice containing all events which can occur while
// an Executor sends a plan, in the order in which they would occur.
func Events() []Event {
	return []Event{
		BeforeExecutionStart,
		BeforeAttempt,
		BeforeReadBody,
		AfterClientTimeout,
		AfterAttempt,
		AfterExecutionEnd,
	}
}

// Name returns the name of the event.
func (evt Event) Name() string {
	if !evt.valid() {
		return fmt.Sprintf("Event(%d)", int(evt))
	}
	return eventNames[int(evt)]
}

// String returns the name of the event.
func (evt Event) String() string {
	return evt.Name()
}

func (evt Event) valid() bool {
	return evt >= 0 && evt < eventSentinel
}
