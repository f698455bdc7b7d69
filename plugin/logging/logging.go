// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gogama/courier"
	"github.com/gogama/courier/request"
	"github.com/gogama/courier/response"
	"github.com/rs/zerolog"
)

// Field names used by Handler.
const (
	FieldID          = "execution_id"
	FieldMethod      = "method"
	FieldURL         = "url"
	FieldKind        = "kind"
	FieldStatus      = "status"
	FieldStatusCode  = "status_code"
	FieldElapsed     = "elapsed"
	FieldSocketCode  = "socket_code"
	FieldRequestCode = "request_code"
	FieldCancelled   = "cancelled"
	FieldBytes       = "bytes"
)

// New builds a logger from cfg. Zero-valued fields of cfg take their
// defaults. When cfg.Output names a file, the file is opened for
// appending and stays open for the life of the process.
func New(cfg Config) (zerolog.Logger, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return zerolog.Nop(), err
	}

	var w io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("courier/logging: open output: %w", err)
		}
		w = f
		cfg.NoColor = true
	}
	return NewWriter(cfg, w)
}

// NewWriter builds a logger from cfg which writes to w, ignoring
// cfg.Output.
func NewWriter(cfg Config, w io.Writer) (zerolog.Logger, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return zerolog.Nop(), err
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("courier/logging: %w", err)
	}

	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: "15:04:05.000",
			NoColor:    cfg.NoColor,
		}
	}
	zl := zerolog.New(w).Level(level)
	if cfg.Timestamp {
		zl = zl.With().Timestamp().Logger()
	}
	return zl, nil
}

// A Handler logs request attempts to a zerolog logger.
//
// BeforeAttempt is logged at debug level. AfterAttempt is logged at
// info level for a Completed response, warn for a ClientTimeout and
// error for a SocketError or RequestError.
type Handler struct {
	Logger zerolog.Logger
}

// Install creates a Handler for logger and adds it to the BeforeAttempt
// and AfterAttempt chains of g.
func Install(g *courier.HandlerGroup, logger zerolog.Logger) *Handler {
	h := &Handler{Logger: logger}
	g.PushBack(courier.BeforeAttempt, h)
	g.PushBack(courier.AfterAttempt, h)
	return h
}

// Handle logs the event. Events other than BeforeAttempt and
// AfterAttempt are ignored.
func (h *Handler) Handle(evt courier.Event, e *request.Execution) {
	switch evt {
	case courier.BeforeAttempt:
		h.Logger.Debug().
			Str(FieldID, e.ID).
			Str(FieldMethod, e.Request.Method).
			Str(FieldURL, e.Request.URL.Redacted()).
			Msg("sending request")
	case courier.AfterAttempt:
		h.afterAttempt(e)
	}
}

func (h *Handler) afterAttempt(e *request.Execution) {
	r := e.Result

	var ev *zerolog.Event
	switch r.Kind {
	case response.Completed:
		ev = h.Logger.Info()
	case response.ClientTimeout:
		ev = h.Logger.Warn()
	default:
		ev = h.Logger.Error()
	}
	if ev == nil {
		return
	}

	ev = ev.Str(FieldID, e.ID).
		Str(FieldMethod, e.Plan.Method).
		Str(FieldURL, e.Plan.URL.Redacted()).
		Stringer(FieldKind, r.Kind).
		Str(FieldStatus, r.Status()).
		Dur(FieldElapsed, r.Elapsed)

	switch r.Kind {
	case response.Completed:
		ev.Int(FieldStatusCode, r.StatusCode()).
			Int(FieldBytes, len(r.Body())).
			Msg("request completed")
	case response.ClientTimeout:
		ev.Bool(FieldCancelled, r.Cancelled).
			Msg(r.Message())
	default:
		if r.Kind == response.SocketError {
			ev = ev.Stringer(FieldSocketCode, r.Fault.Socket)
		}
		ev.Stringer(FieldRequestCode, r.Fault.Request).
			Err(r.Fault.Err).
			Msg("request failed")
	}
}
