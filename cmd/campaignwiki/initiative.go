package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"campaignwiki/internal/initiative"
)

func initiativeCmd() *cobra.Command {
	var (
		players  []string
		monsters []string
		seed     string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "initiative",
		Short: "Roll and order initiative",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := initiative.Request{Seed: seed}
			for _, raw := range players {
				p, err := parsePlayer(raw)
				if err != nil {
					return err
				}
				req.Players = append(req.Players, p)
			}
			for _, raw := range monsters {
				m, err := parseInitiativeMonster(raw)
				if err != nil {
					return err
				}
				req.Monsters = append(req.Monsters, m)
			}

			if err := initiative.CheckLimits(req); err != nil {
				return err
			}

			// Initiative needs no store.
			order := initiative.Build(req, nil)
			if asJSON {
				return printJSON(cmd.OutOrStdout(), order)
			}
			printInitiative(cmd.OutOrStdout(), order)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&players, "player", nil, "Player as Name:+DEX or Name:+DEX=TOTAL (repeatable)")
	cmd.Flags().StringArrayVar(&monsters, "monster", nil, "Monster as Name:+DEX[xCOUNT][=TOTAL] (repeatable)")
	cmd.Flags().StringVar(&seed, "seed", "", "Seed for reproducible rolls")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON output")
	return cmd
}

func printInitiative(out io.Writer, order initiative.Order) {
	printHeader(out, "Initiative")
	for i, e := range order.Entries {
		detail := fmt.Sprintf("(d20 %d%+d, %s)", e.Roll, e.DexMod, e.Kind)
		if e.Source == initiative.SourceProvided {
			detail = fmt.Sprintf("(provided, %s)", e.Kind)
		}
		fmt.Fprintf(out, "%2d. %-20s %3d %s\n", i+1, e.Name, e.Initiative, mutedStyle.Render(detail))
	}
	printWarnings(out, order.Warnings)
}
