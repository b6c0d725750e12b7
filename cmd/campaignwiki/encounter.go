package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"campaignwiki/internal/campaign"
	"campaignwiki/internal/encounter"
)

func encounterCmd() *cobra.Command {
	var (
		tags   []string
		doc    string
		party  partyFlags
		seed   string
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "encounter",
		Short: "Suggest encounters from tags or a document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			result, err := a.svc.Encounter(ctx, campaign.EncounterRequest{
				Tags:   tags,
				DocRef: doc,
				Party:  party.party(),
				Seed:   seed,
				Limit:  limit,
			})
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), result)
			}
			printEncounter(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "Tag as namespace:value (repeatable)")
	cmd.Flags().StringVar(&doc, "doc", "", "Use the tags of this document instead of --tag")
	addPartyFlags(cmd, &party)
	cmd.Flags().StringVar(&seed, "seed", "", "Seed for reproducible rolls")
	cmd.Flags().IntVar(&limit, "limit", 0, "Number of suggestions (default 3)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON output")
	return cmd
}

func addPartyFlags(cmd *cobra.Command, p *partyFlags) {
	cmd.Flags().IntVar(&p.size, "size", 0, "Party size (default from config)")
	cmd.Flags().IntVar(&p.level, "level", 0, "Average party level (default from config)")
	cmd.Flags().StringVar(&p.difficulty, "difficulty", "", "easy, medium, hard or deadly")
}

func printEncounter(out io.Writer, result encounter.Result) {
	logic := result.Logic
	printHeader(out, fmt.Sprintf("Encounters from %s", logic.TableTitle))
	fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("party %d x L%d %s, budget %d XP, buckets %s",
		logic.Party.Size, logic.Party.Level, logic.Party.Difficulty,
		result.Plan.Budget, joinOrDash(result.Plan.CRBuckets))))
	if len(result.Suggestions) == 0 {
		fmt.Fprintln(out, "No suggestions.")
	}
	for i, s := range result.Suggestions {
		fmt.Fprintf(out, "%d. [%d] %s\n", i+1, s.Roll, s.Text)
		details := []string{"CR " + s.CRBucket}
		if len(s.Monsters) > 0 {
			details = append(details, strings.Join(s.Monsters, ", "))
		}
		if s.NeedsHomebrew {
			details = append(details, "needs homebrew")
		}
		fmt.Fprintf(out, "   %s\n", mutedStyle.Render(strings.Join(details, " | ")))
	}
	printWarnings(out, result.Warnings)
	printExplain(out, result.Explain)
}
