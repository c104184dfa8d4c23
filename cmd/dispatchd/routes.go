package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/dispatch/core/config"
	"github.com/dmitrymomot/dispatch/core/logger"
)

func routesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the demo application routes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var cfg Config
			if err := config.Load(&cfg); err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			d := newApp(cfg, logger.Discard(), nil)
			if err := d.Seal(); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "METHOD\tTEMPLATE\tPARAMS")
			for _, r := range d.Routes() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.Method, r.Template, strings.Join(r.Params, ","))
			}
			return w.Flush()
		},
	}
}
