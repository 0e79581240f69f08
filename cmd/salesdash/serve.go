package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/salesdash"
	"github.com/nao1215/salesdash/internal/logging"
	"github.com/nao1215/salesdash/internal/metrics"
	"github.com/nao1215/salesdash/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API, charts and metrics over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			m := metrics.New()

			table, err := a.loadTable(ctx)
			m.ObserveLoad(a.dataFormat(), tableLen(table), err)
			if err != nil {
				return fmt.Errorf("load orders: %w", err)
			}
			for _, w := range table.Warnings() {
				logging.Warn(ctx, "schema warning", slog.String("warning", w.Message))
			}

			resolver, closeResolver, err := a.newResolver(ctx, m)
			if err != nil {
				return err
			}
			defer closeQuietly(ctx, "geocode cache", closeResolver)

			srv := server.New(table,
				server.WithLogger(a.logger),
				server.WithLoader(salesdash.NewLoader(salesdash.WithLoaderLogger(a.logger))),
				server.WithResolver(resolver),
				server.WithMetrics(m),
				server.WithMaxUploadBytes(a.cfg.Server.MaxUploadBytes),
				server.WithDashboardOptions(a.dashboardOptions()...),
			)
			return srv.ListenAndServe(ctx, a.cfg.Server.Addr, a.cfg.Server.ReadTimeout)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default server.addr)")
	return cmd
}
