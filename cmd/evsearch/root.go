package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"evsearch/internal/catalog"
	"evsearch/internal/config"
	"evsearch/internal/ics"
	appLog "evsearch/internal/log"
	"evsearch/internal/prefixindex"
)

const version = "0.1.0"

// rootOptions holds persistent flag values shared by all subcommands.
type rootOptions struct {
	configPath string
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "evsearch",
		Short:         "Search-as-you-type over calendar events",
		Long:          "evsearch indexes the events of ICS subscriptions by name and location and answers prefix queries.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "/etc/evsearch/config.yaml", "Path to config file")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(
		newServeCmd(opts),
		newSearchCmd(opts),
		newRefreshCmd(opts),
	)
	return cmd
}

// load reads the config file and applies the log level.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", o.configPath)
		return nil, fmt.Errorf("load config: %w", err)
	}

	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))
	if o.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}
	return cfg, nil
}

// buildCatalog wires the ICS loader and a fresh index into a Catalog.
func buildCatalog(cfg *config.Config) *catalog.Catalog {
	loc := resolveLocationOrLocal(cfg.Timezone)

	sources := make([]ics.Source, 0, len(cfg.ICS))
	for _, c := range cfg.ICS {
		sources = append(sources, ics.Source{ID: c.SourceID(), URL: c.URL})
	}

	loader := &ics.Loader{
		Fetcher:  ics.NewFetcher(cfg.CacheDir),
		Sources:  sources,
		Location: loc,
		Horizon:  time.Duration(cfg.HorizonDays) * 24 * time.Hour,
		Backfill: time.Duration(cfg.BackfillDays) * 24 * time.Hour,
	}

	return catalog.New(loader, prefixindex.NewShared(nil),
		catalog.WithLocations(cfg.Search.LocationsIndexed()),
		catalog.WithIndexOptions(
			prefixindex.WithMaxRecordsPerNode(cfg.Search.MaxRecordsPerNode),
			prefixindex.WithMaxWordLength(cfg.Search.MaxWordLength),
			prefixindex.WithMaxResults(cfg.Search.DefaultLimit),
		),
	)
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}
