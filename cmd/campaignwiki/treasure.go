package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"campaignwiki/internal/config"
	"campaignwiki/internal/treasure"
)

func treasureCmd() *cobra.Command {
	var (
		monsters []string
		mode     string
		seed     string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "treasure",
		Short: "Roll individual or hoard treasure for defeated monsters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := treasure.Request{Mode: mode, Seed: seed}
			for _, raw := range monsters {
				m, err := parseTreasureMonster(raw)
				if err != nil {
					return err
				}
				req.Monsters = append(req.Monsters, m)
			}

			// Treasure reads only rule data, so no store is opened.
			cfg, err := config.LoadProjectConfig(configPath)
			if err != nil {
				return err
			}
			_, loot, err := loadRules(cfg)
			if err != nil {
				return err
			}

			result := treasure.Generate(req, treasure.Deps{Loot: loot})
			if asJSON {
				return printJSON(cmd.OutOrStdout(), result)
			}
			printTreasure(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&monsters, "monster", nil, "Monster as Name:CR, e.g. Goblin:1/4 (repeatable)")
	cmd.Flags().StringVar(&mode, "mode", "individual", "individual or hoard")
	cmd.Flags().StringVar(&seed, "seed", "", "Seed for reproducible rolls")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON output")
	return cmd
}

func printTreasure(out io.Writer, result treasure.Result) {
	printHeader(out, "Treasure ("+result.InputsUsed.Mode+")")
	for _, code := range result.CoinCodes() {
		fmt.Fprintf(out, "  %d %s\n", result.Coins[code], code)
	}
	for _, v := range result.Valuables {
		fmt.Fprintf(out, "  %s (%d gp %s)\n", v.Name, v.ValueGP, v.Kind)
	}
	for _, item := range result.MagicItems {
		fmt.Fprintf(out, "  %s %s\n", item.Name, mutedStyle.Render("["+item.Table+"]"))
	}
	fmt.Fprintf(out, "Total: %.2f gp\n", result.TotalGP())
	printWarnings(out, result.Warnings)
	printExplain(out, result.Explain)
}
