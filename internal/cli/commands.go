// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/gogama/courier/config"
	"github.com/gogama/courier/plugin/history"
	"github.com/spf13/cobra"
)

func newTemplateCommand(a *app) *cobra.Command {
	var (
		routes        []string
		queries       []string
		standardQuery bool
	)

	cmd := &cobra.Command{
		Use:   "template BASE",
		Short: "Print a templated URL and the URL it resolves to",
		Example: `  courier template https://example.com/users/ID --route ID=42 --query q=a+b
  courier template https://example.com/search --query q=x --query page=2 --standard-query`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tpl, err := buildTemplate(args[0], routes, queries, standardQuery)
			if err != nil {
				return usageError(err)
			}
			u, err := tpl.ToURL()
			if err != nil {
				return &exitError{code: ExitFailure, err: err}
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "template: %s\n", tpl.URL)
			fmt.Fprintf(out, "url:      %s\n", u)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringArrayVar(&routes, "route", nil, "route parameter name=value (repeatable)")
	f.StringArrayVar(&queries, "query", nil, "query parameter name=value (repeatable)")
	f.BoolVar(&standardQuery, "standard-query", false, "join query parameters with '&'")
	return cmd
}

func newHistoryCommand(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [ID]",
		Short: "List recorded requests, or show one",
		Long: `List the requests recorded by "courier send --history", most recent
first, or show every detail of the request with the given ID.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := history.Open(a.cfg.History.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				rec, err := store.Get(cmd.Context(), args[0])
				if errors.Is(err, history.ErrNotFound) {
					return &exitError{code: ExitFailure, err: fmt.Errorf("no request with ID %s", args[0])}
				} else if err != nil {
					return err
				}
				writeRecord(cmd, rec)
				return nil
			}

			records, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "STARTED\tID\tMETHOD\tURL\tOUTCOME\tELAPSED")
			for _, rec := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					rec.Start.Format(time.DateTime), rec.ID, rec.Method, rec.URL, rec.Status, rec.Elapsed)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of requests to list (0 for all)")
	return cmd
}

func writeRecord(cmd *cobra.Command, rec *history.Record) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 1, ' ', 0)
	row := func(name string, value any) { fmt.Fprintf(tw, "%s:\t%v\n", name, value) }
	row("ID", rec.ID)
	row("Started", rec.Start.Format(time.RFC3339Nano))
	row("Method", rec.Method)
	row("URL", rec.URL)
	row("Kind", rec.Kind)
	row("Status", rec.Status)
	row("Elapsed", rec.Elapsed)
	if rec.StatusCode != 0 {
		row("Bytes", rec.Bytes)
	}
	if rec.SocketCode != "" {
		row("Socket code", rec.SocketCode)
	}
	if rec.RequestCode != "" {
		row("Request code", rec.RequestCode)
	}
	if rec.Kind == "ClientTimeout" {
		row("Cancelled", rec.Cancelled)
	}
	if rec.Error != "" {
		row("Error", rec.Error)
	}
	_ = tw.Flush()
}

func newConfigCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return config.Dump(cmd.OutOrStdout(), a.cfg)
		},
	}
}

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "courier version %s\n", a.version)
		},
	}
}
