// Copyright © 2024 The Quill authors

package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/luthersystems/quill/httpapi"
	"github.com/luthersystems/quill/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// ServeCommand creates the "serve" cobra command.
func ServeCommand(opts ...Option) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [flags]",
		Short: "Serve the analysis over a JSON API",
		Long: `Serve the analysis over HTTP until interrupted.

Routes:
  POST   /v1/analyze                                {"uri", "text"}
  GET    /v1/snapshots/{id}/hover?line=&col=
  GET    /v1/snapshots/{id}/definition?line=&col=
  GET    /v1/snapshots/{id}/references?line=&col=
  POST   /v1/snapshots/{id}/rename                  {"line", "col", "newName"}
  POST   /v1/snapshots/{id}/commit                  {"edits": [...]}
  DELETE /v1/documents?uri=
  GET    /metrics
  GET    /healthz

The listen address defaults to the serve.addr setting.

Example:
  quill serve --addr :7878`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := newCmdConfig(opts)
			if addr == "" {
				addr = currentSettings().Serve.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			svc := cfg.newService(service.WithMetrics(service.NewMetrics(reg)))
			srv := httpapi.New(svc, httpapi.WithLogger(logger), httpapi.WithGatherer(reg))
			return srv.Serve(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from serve.addr)")
	cmd.SilenceUsage = true
	return cmd
}

func init() {
	rootCmd.AddCommand(ServeCommand())
}
