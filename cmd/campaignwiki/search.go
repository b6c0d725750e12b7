package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func searchCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over the wiki",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			results, err := a.svc.Search(ctx, strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, results)
			}
			if len(results) == 0 {
				fmt.Fprintln(out, "No results.")
				return nil
			}
			for _, r := range results {
				fmt.Fprintf(out, "%s %s\n", headerStyle.Render(r.Title), mutedStyle.Render(fmt.Sprintf("%.2f", r.Score)))
				if r.Snippet != "" {
					fmt.Fprintf(out, "  %s\n", r.Snippet)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum results")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON output")
	return cmd
}
