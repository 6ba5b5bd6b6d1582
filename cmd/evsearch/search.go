package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"evsearch/internal/catalog"
)

func newSearchCmd(root *rootOptions) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "search <prefix>...",
		Short: "Load the configured calendars once and print prefix matches",
		Long: `Fetches every configured ICS feed, builds the index and prints the
events whose name or location starts with the given prefix. Multiple
arguments are joined with spaces, so "search jazz n" looks up "jazz n".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}

			cat := buildCatalog(cfg)
			if _, err := cat.Refresh(cmd.Context()); err != nil {
				return fmt.Errorf("refresh failed: %w", err)
			}

			hits := cat.Search(strings.Join(args, " "), limit)
			if asJSON {
				return outputSearchJSON(cmd.OutOrStdout(), hits)
			}
			outputSearchTable(cmd.OutOrStdout(), hits)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum number of results")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output results as JSON")
	return cmd
}

type searchHitJSON struct {
	Word     string `json:"word"`
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Start    string `json:"start,omitempty"`
}

func outputSearchJSON(w io.Writer, hits []catalog.Hit) error {
	out := make([]searchHitJSON, 0, len(hits))
	for _, h := range hits {
		j := searchHitJSON{
			Word:     h.Word,
			ID:       h.Record.ID,
			Name:     h.Record.Name,
			Location: h.Record.Location,
		}
		if !h.Event.Start.IsZero() {
			j.Start = h.Event.Start.Format(time.RFC3339)
		}
		out = append(out, j)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func outputSearchTable(w io.Writer, hits []catalog.Hit) {
	if len(hits) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	for i, h := range hits {
		// Format: [N] word  Name @ Location (start)
		line := fmt.Sprintf("[%d] %s  %s", i+1, h.Word, h.Record.Name)
		if h.Record.Location != "" {
			line += " @ " + h.Record.Location
		}
		if !h.Event.Start.IsZero() {
			line += " (" + h.Event.Start.Format("2006-01-02 15:04") + ")"
		}
		fmt.Fprintln(w, line)
	}
}
