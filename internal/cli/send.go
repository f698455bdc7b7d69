// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gogama/courier"
	"github.com/gogama/courier/plugin/history"
	"github.com/gogama/courier/plugin/logging"
	"github.com/gogama/courier/plugin/metrics"
	"github.com/gogama/courier/plugin/stats"
	"github.com/gogama/courier/plugin/tracing"
	"github.com/gogama/courier/request"
	"github.com/gogama/courier/response"
	"github.com/gogama/courier/timeout"
	"github.com/gogama/courier/urltemplate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

type sendOptions struct {
	headers       []string
	data          string
	routes        []string
	queries       []string
	standardQuery bool
	timeout       time.Duration
	include       bool
	selectPath    string
	repeat        int
	rate          float64
	concurrency   int
	metricsFile   string
	history       bool
	trace         bool
}

func newSendCommand(a *app) *cobra.Command {
	var o sendOptions

	cmd := &cobra.Command{
		Use:   "send METHOD URL",
		Short: "Send a request and print the response",
		Long: `Send one request, or the same request repeatedly, and print the
outcome. The exit status is 0 only if every request completed, whatever
its HTTP status.`,
		Example: `  courier send GET https://example.com
  courier send POST https://example.com/things -H 'Content-Type: application/json' -d @thing.json
  courier send GET https://example.com/users/ID --route ID=42 --query verbose=true
  courier send GET https://example.com/health --repeat 100 --rate 10 --concurrency 4`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.send(cmd, args, &o)
		},
	}

	f := cmd.Flags()
	f.StringArrayVarP(&o.headers, "header", "H", nil, `request header "Name: value" (repeatable)`)
	f.StringVarP(&o.data, "data", "d", "", "request body, or @path to read it from a file")
	f.StringArrayVar(&o.routes, "route", nil, "route parameter name=value (repeatable)")
	f.StringArrayVar(&o.queries, "query", nil, "query parameter name=value (repeatable)")
	f.BoolVar(&o.standardQuery, "standard-query", false, "join query parameters with '&'")
	f.DurationVar(&o.timeout, "timeout", 0, "request timeout (default from configuration)")
	f.BoolVarP(&o.include, "include", "i", false, "print the response status line and headers")
	f.StringVar(&o.selectPath, "select", "", "print only the part of a JSON body matching this gjson path")
	f.IntVar(&o.repeat, "repeat", 1, "number of times to send the request")
	f.Float64Var(&o.rate, "rate", 0, "maximum requests per second when repeating (0 means unlimited)")
	f.IntVar(&o.concurrency, "concurrency", 1, "maximum requests in flight when repeating")
	f.StringVar(&o.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile on exit")
	f.BoolVar(&o.history, "history", false, "record the request in the history database")
	f.BoolVar(&o.trace, "trace", false, "export a trace span to the OTLP collector")
	return cmd
}

func (a *app) send(cmd *cobra.Command, args []string, o *sendOptions) error {
	if o.repeat < 1 {
		return usageError(fmt.Errorf("--repeat must be at least 1, got %d", o.repeat))
	}
	if o.concurrency < 1 {
		return usageError(fmt.Errorf("--concurrency must be at least 1, got %d", o.concurrency))
	}
	if o.rate < 0 {
		return usageError(fmt.Errorf("--rate must not be negative, got %g", o.rate))
	}

	p, err := buildPlan(strings.ToUpper(args[0]), args[1], o)
	if err != nil {
		return usageError(err)
	}

	ctx := cmd.Context()
	x, finish, err := a.executor(ctx, o)
	if err != nil {
		return err
	}
	defer finish()
	defer x.CloseIdleConnections()

	rd := &renderer{
		out:        cmd.OutOrStdout(),
		errOut:     cmd.ErrOrStderr(),
		include:    o.include,
		selectPath: o.selectPath,
	}

	if o.repeat == 1 {
		r, err := x.Send(ctx, p)
		if err != nil {
			return usageError(err)
		}
		rd.summary(p, r)
		if err := rd.response(r); err != nil {
			return &exitError{code: ExitFailure, err: err}
		}
		if r.Kind != response.Completed {
			return &exitError{code: ExitFailure}
		}
		return nil
	}

	collector := stats.New()
	stats.Install(x.Handlers, collector)
	res := repeat(ctx, x, p, o.repeat, o.concurrency, o.rate)
	if err := collector.Summary().Write(rd.errOut); err != nil {
		return err
	}
	if res.err != nil {
		return usageError(res.err)
	}
	if res.failed > 0 || res.sent < o.repeat {
		fmt.Fprintf(rd.errOut, "%d of %d requests did not complete\n", o.repeat-res.sent+res.failed, o.repeat)
		return &exitError{code: ExitFailure}
	}
	return nil
}

func buildPlan(method, rawURL string, o *sendOptions) (*request.Plan, error) {
	var body interface{}
	if o.data != "" {
		if path, ok := strings.CutPrefix(o.data, "@"); ok {
			b, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read body: %w", err)
			}
			body = b
		} else {
			body = o.data
		}
	}

	var (
		p   *request.Plan
		err error
	)
	if len(o.routes) > 0 || len(o.queries) > 0 || o.standardQuery {
		var tpl *urltemplate.Template
		tpl, err = buildTemplate(rawURL, o.routes, o.queries, o.standardQuery)
		if err != nil {
			return nil, err
		}
		p, err = request.NewTemplatePlan(method, tpl, body)
	} else {
		p, err = request.NewPlan(method, rawURL, body)
	}
	if err != nil {
		return nil, err
	}

	for _, h := range o.headers {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q, want \"Name: value\"", h)
		}
		p.Header.Add(name, strings.TrimSpace(value))
	}
	if o.timeout < 0 {
		return nil, fmt.Errorf("--timeout must not be negative, got %s", o.timeout)
	}
	p.Timeout = o.timeout
	return p, nil
}

func parseParams(pairs []string) ([]urltemplate.Param, error) {
	params := make([]urltemplate.Param, 0, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid parameter %q, want name=value", pair)
		}
		params = append(params, urltemplate.Param{Name: name, Value: value})
	}
	return params, nil
}

func buildTemplate(base string, routes, queries []string, standardQuery bool) (*urltemplate.Template, error) {
	route, err := parseParams(routes)
	if err != nil {
		return nil, err
	}
	query, err := parseParams(queries)
	if err != nil {
		return nil, err
	}
	var opts []urltemplate.Option
	if standardQuery {
		opts = append(opts, urltemplate.StandardQuery())
	}
	return urltemplate.Create(base, route, query, opts...)
}

// executor builds an Executor from the configuration with the plug-ins
// selected by the configuration and o installed. The returned function
// flushes and releases the plug-ins.
func (a *app) executor(ctx context.Context, o *sendOptions) (*courier.Executor, func(), error) {
	cfg := a.cfg
	x, err := courier.New(cfg.Transport)
	if err != nil {
		return nil, nil, usageError(err)
	}
	if cfg.Timeout > 0 {
		x.TimeoutPolicy = timeout.Fixed(cfg.Timeout)
	}
	x.Handlers = &courier.HandlerGroup{}
	logging.Install(x.Handlers, a.logger)

	var closers []func()
	finish := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	metricsFile := o.metricsFile
	if metricsFile == "" {
		metricsFile = cfg.Metrics.File
	}
	if cfg.Metrics.Enabled || metricsFile != "" {
		reg := prometheus.NewRegistry()
		metrics.Install(x.Handlers, metrics.New(cfg.Metrics.Namespace, reg))
		if metricsFile != "" {
			closers = append(closers, func() {
				if err := metrics.WriteTextfile(metricsFile, reg); err != nil {
					a.logger.Error().Err(err).Msg("metrics not written")
				}
			})
		}
	}

	if cfg.History.Enabled || o.history {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			finish()
			return nil, nil, err
		}
		h := history.Install(x.Handlers, store)
		h.OnError = func(e *request.Execution, err error) {
			a.logger.Warn().Err(err).Str(logging.FieldID, e.ID).Msg("history not recorded")
		}
		closers = append(closers, func() { _ = store.Close() })
	}

	if cfg.Tracing.Enabled || o.trace {
		tp, err := tracing.NewProvider(ctx, cfg.Tracing.Config, a.version)
		if err != nil {
			finish()
			return nil, nil, err
		}
		tracing.Install(x.Handlers, tracing.New(tp, nil))
		closers = append(closers, func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn().Err(err).Msg("trace export failed")
			}
		})
	}

	return x, finish, nil
}
