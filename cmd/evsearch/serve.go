package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"evsearch/internal/catalog"
	appLog "evsearch/internal/log"
	"evsearch/internal/web"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the search API and refresh on schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}

			appLog.Info("evsearch starting", "version", version)
			appLog.Info("effective config",
				"listen", cfg.Listen,
				"timezone", cfg.Timezone,
				"refresh", cfg.RefreshCron,
				"horizon_days", cfg.HorizonDays,
				"ics_count", len(cfg.ICS),
				"index_locations", cfg.Search.LocationsIndexed(),
			)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)
			go func() {
				select {
				case sig := <-sigCh:
					appLog.Info("signal received, shutting down", "signal", sig.String())
					cancel()
				case <-ctx.Done():
				}
			}()

			cat := buildCatalog(cfg)

			// A failed first load leaves an empty index; the schedule retries.
			if _, err := cat.Refresh(ctx); err != nil {
				appLog.Error("initial refresh failed", err)
			}

			sched := catalog.NewScheduler(cat, cfg.RefreshCron, resolveLocationOrLocal(cfg.Timezone))
			if err := sched.Start(ctx); err != nil {
				return err
			}
			defer sched.Stop()

			err = web.NewServer(cfg, cat).ListenAndServe(ctx)
			appLog.Info("evsearch exiting")
			return err
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}
