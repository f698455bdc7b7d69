// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package cli implements the courier command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/gogama/courier/config"
	"github.com/gogama/courier/plugin/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Exit codes.
const (
	ExitSuccess = 0
	// ExitFailure means a request did not complete or the command
	// failed.
	ExitFailure = 1
	// ExitUsage means the command line or configuration was invalid.
	ExitUsage = 2
)

// An exitError ends the command with a specific exit code. A nil err
// means the failure has already been reported.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func usageError(err error) error {
	return &exitError{code: ExitUsage, err: err}
}

type globalOptions struct {
	configFile string
	envFile    string
	logLevel   string
	logFormat  string
	noColor    bool
}

// app holds the state shared by the commands of one invocation.
type app struct {
	version string
	opts    globalOptions
	cfg     config.Config
	logger  zerolog.Logger
}

// NewRootCommand returns the courier command tree.
func NewRootCommand(version string) *cobra.Command {
	a := &app{version: version, logger: zerolog.Nop()}

	root := &cobra.Command{
		Use:   "courier",
		Short: "Send HTTP requests and classify the outcome",
		Long: `courier sends HTTP requests and reports each outcome as one of:

  Completed      a response was received and its body buffered
  ClientTimeout  the request timed out or was cancelled
  SocketError    the connection failed at the socket level
  RequestError   the transport failed for another reason

Configuration is read from an optional YAML file and COURIER_*
environment variables.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	flags := root.PersistentFlags()
	flags.StringVarP(&a.opts.configFile, "config", "c", "", "path to a YAML configuration file")
	flags.StringVar(&a.opts.envFile, "env-file", "", "path to a dotenv file loaded before configuration")
	flags.StringVar(&a.opts.logLevel, "log-level", "", "log level: trace, debug, info, warn, error or disabled")
	flags.StringVar(&a.opts.logFormat, "log-format", "", "log format: console or json")
	flags.BoolVar(&a.opts.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newSendCommand(a),
		newTemplateCommand(a),
		newHistoryCommand(a),
		newConfigCommand(a),
		newVersionCommand(a),
	)
	return root
}

// setup loads the configuration and builds the logger before any
// command runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var opts []config.Option
	if a.opts.configFile != "" {
		opts = append(opts, config.WithFile(a.opts.configFile))
	}
	if a.opts.envFile != "" {
		opts = append(opts, config.WithEnvFile(a.opts.envFile))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return usageError(err)
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = a.opts.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = a.opts.logFormat
	}
	if a.opts.noColor {
		cfg.Log.NoColor = true
	}
	if err := cfg.Log.Validate(); err != nil {
		return usageError(err)
	}
	if cfg.Log.NoColor {
		color.NoColor = true
	}

	if cfg.Log.Output == "stderr" {
		a.logger, err = logging.NewWriter(cfg.Log, cmd.ErrOrStderr())
	} else {
		a.logger, err = logging.New(cfg.Log)
	}
	if err != nil {
		return usageError(err)
	}

	a.cfg = cfg
	return nil
}

// Execute runs the courier command with os.Args and returns the process
// exit code. An interrupt or termination signal cancels the command's
// context.
func Execute(version string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, NewRootCommand(version), os.Args[1:], os.Stderr)
}

func run(ctx context.Context, cmd *cobra.Command, args []string, stderr io.Writer) int {
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintln(stderr, "Error:", ee.err)
		}
		return ee.code
	}
	fmt.Fprintln(stderr, "Error:", err)
	return ExitFailure
}
