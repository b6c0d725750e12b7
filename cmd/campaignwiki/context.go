package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"campaignwiki/internal/world"
)

func contextCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "context <doc>",
		Short: "Show the world context around a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			snapshot, err := a.svc.Context(ctx, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), snapshot)
			}
			printSnapshot(cmd, snapshot)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON output")
	return cmd
}

func printSnapshot(cmd *cobra.Command, s *world.Snapshot) {
	out := cmd.OutOrStdout()
	printHeader(out, s.Current.Title)
	if s.Current.Excerpt != "" {
		fmt.Fprintln(out, mutedStyle.Render(s.Current.Excerpt))
	}
	tags := make([]string, 0, len(s.Current.Tags))
	for _, tag := range s.Current.Tags {
		tags = append(tags, tag.Namespace+":"+tag.Value)
	}
	fmt.Fprintf(out, "Tags: %s\n", joinOrDash(tags))

	printRefs(cmd, "Links", s.LinkedDocs)
	printRefs(cmd, "Backlinks", s.Backlinks)
	for _, group := range s.TagGroups {
		printRefs(cmd, "Also "+group.Namespace+":"+group.Value, group.Docs)
	}
	if s.Folder.Folder != nil {
		printRefs(cmd, "In "+s.Folder.Folder.Name, s.Folder.Siblings)
	}
	printRefs(cmd, "Recently updated", s.RecentlyUpdated)
}

func printRefs(cmd *cobra.Command, label string, refs []world.DocRef) {
	if len(refs) == 0 {
		return
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	printHeader(out, label)
	for _, ref := range refs {
		fmt.Fprintf(out, "  - %s\n", ref.Title)
	}
}
