package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"campaignwiki/internal/campaign"
	"campaignwiki/internal/prep"
)

func prepCmd() *cobra.Command {
	var (
		since  string
		seed   string
		party  partyFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "prep <doc>",
		Short: "Build session prep helpers for a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := campaign.PrepRequest{Party: party.party(), Seed: seed}
			if since != "" {
				t, err := parseSince(since, time.Now())
				if err != nil {
					return err
				}
				req.Since = &t
			}

			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			helpers, err := a.svc.Prep(ctx, args[0], req)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), helpers)
			}
			printPrep(cmd.OutOrStdout(), helpers)
			return nil
		},
	}
	cmd.Flags().StringVar(&since, "since", "", "Only changes after this RFC3339 time or duration ago (e.g. 72h)")
	cmd.Flags().StringVar(&seed, "seed", "", "Seed for the encounter suggestion")
	addPartyFlags(cmd, &party)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON output")
	return cmd
}

// parseSince accepts an RFC3339 timestamp or a Go duration counted back from now.
func parseSince(raw string, now time.Time) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return time.Time{}, fmt.Errorf("--since %q: expected RFC3339 time or duration", raw)
	}
	return now.Add(-d), nil
}

func printPrep(out io.Writer, h *prep.Helpers) {
	printEncounter(out, h.SuggestEncounter)

	fmt.Fprintln(out)
	printHeader(out, "Who's involved")
	if len(h.WhosInvolved) == 0 {
		fmt.Fprintln(out, "  nobody linked")
	}
	for _, inv := range h.WhosInvolved {
		fmt.Fprintf(out, "  - %s %s\n", inv.Title, mutedStyle.Render("("+inv.Type+", "+joinOrDash(inv.Sources)+")"))
	}

	fmt.Fprintln(out)
	printHeader(out, "What changed recently")
	if len(h.WhatChangedRecently) == 0 {
		fmt.Fprintln(out, "  no recent changes")
	}
	for _, c := range h.WhatChangedRecently {
		fmt.Fprintf(out, "  - %s %s\n", c.Title, mutedStyle.Render(c.UpdatedAt.Format("2006-01-02")+" "+c.Reason))
		if c.Change != "" {
			fmt.Fprintf(out, "    %s\n", c.Change)
		}
	}
}
