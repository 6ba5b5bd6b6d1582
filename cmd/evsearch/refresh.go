package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRefreshCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Fetch all calendars once, build the index and print its size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}

			stats, err := buildCatalog(cfg).Refresh(cmd.Context())
			if err != nil {
				return fmt.Errorf("refresh failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "events: %d\nwords:  %d\nnodes:  %d\n", stats.Events, stats.Words, stats.Nodes)
			return nil
		},
	}
}
