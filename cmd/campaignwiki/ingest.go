package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"campaignwiki/internal/config"
	"campaignwiki/internal/ingest"
)

var ingestFull bool

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Synchronise the store with the markdown vault",
		Args:  cobra.NoArgs,
		RunE:  runIngest,
	}
	cmd.Flags().BoolVar(&ingestFull, "full", false, "Force full re-ingestion (ignore incremental hashes)")
	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return err
	}

	db, err := connectStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	result, err := ingest.Run(ctx, ingestConfig(cfg), db, ingest.Options{Full: ingestFull})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, successStyle.Render("Ingestion complete."))
	fmt.Fprintf(out, "  Documents upserted: %d\n", result.DocumentsUpserted)
	fmt.Fprintf(out, "  Folders upserted:   %d\n", result.FoldersUpserted)
	fmt.Fprintf(out, "  Edges upserted:     %d\n", result.EdgesUpserted)
	fmt.Fprintf(out, "  Documents removed:  %d\n", result.DocumentsRemoved)
	fmt.Fprintf(out, "  Files skipped:      %d\n", result.FilesSkipped)
	if len(result.Unresolved) > 0 {
		fmt.Fprintf(out, "  Unresolved links:   %d (run validate for details)\n", len(result.Unresolved))
	}
	if cfg.Database.Driver == config.DriverMemory {
		fmt.Fprintln(out, mutedStyle.Render("  memory driver: nothing was persisted"))
	}

	if len(result.Errors) > 0 {
		fmt.Fprintf(out, "\n%s\n", errorStyle.Render(fmt.Sprintf("Errors (%d):", len(result.Errors))))
		for _, item := range result.Errors {
			fmt.Fprintf(out, "  - %v\n", item)
		}
		return fmt.Errorf("ingestion completed with errors")
	}
	return nil
}
