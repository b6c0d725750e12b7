package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"campaignwiki/internal/ingest"
	"campaignwiki/internal/store/memory"
	"campaignwiki/internal/validate"
)

func validateCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Lint the vault for tag, title and link problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON output")
	return cmd
}

func runValidate(cmd *cobra.Command, asJSON bool) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	// Unresolved links are only known at ingest time, so a dry run into a
	// scratch store recovers them for persistent drivers.
	ingested := a.ingested
	if ingested == nil {
		ingested, err = ingest.Run(ctx, ingestConfig(a.cfg), memory.New(), ingest.Options{Full: true})
		if err != nil {
			return err
		}
	}

	report, err := validate.Run(ctx, a.store, validate.Input{
		WorkspaceID: a.cfg.Workspace,
		Registry:    a.registry,
		Unresolved:  ingested.Unresolved,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		if err := printJSON(out, report); err != nil {
			return err
		}
	} else {
		printReport(out, report)
	}
	if report.Errors() > 0 {
		return fmt.Errorf("validation found errors")
	}
	return nil
}

func printReport(out io.Writer, report *validate.Report) {
	var errorIssues []validate.Issue
	var warnIssues []validate.Issue
	for _, issue := range report.Issues {
		switch issue.Severity {
		case validate.SeverityError:
			errorIssues = append(errorIssues, issue)
		case validate.SeverityWarn:
			warnIssues = append(warnIssues, issue)
		}
	}

	if len(errorIssues) == 0 && len(warnIssues) == 0 {
		fmt.Fprintln(out, successStyle.Render("No issues found."))
		return
	}
	if len(errorIssues) > 0 {
		fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("Errors (%d):", len(errorIssues))))
		printIssues(out, errorIssues)
	}
	if len(warnIssues) > 0 {
		if len(errorIssues) > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("Warnings (%d):", len(warnIssues))))
		printIssues(out, warnIssues)
	}
}

func printIssues(out io.Writer, issues []validate.Issue) {
	for _, issue := range issues {
		location := issue.Title
		if location == "" {
			location = issue.DocID
		}
		if issue.FilePath != "" {
			location = fmt.Sprintf("%s (%s)", location, issue.FilePath)
		}
		fmt.Fprintf(out, "  - %s: %s (%s)\n", location, issue.Message, issue.Code)
	}
}
