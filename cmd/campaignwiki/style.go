package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"campaignwiki/internal/trace"
)

var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F780FF")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4")).Italic(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B"))
)

func printHeader(out io.Writer, title string) {
	fmt.Fprintln(out, headerStyle.Render(title))
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printWarnings(out io.Writer, warnings []string) {
	for _, w := range warnings {
		fmt.Fprintln(out, warnStyle.Render("! "+w))
	}
}

func printExplain(out io.Writer, steps []trace.Step) {
	if len(steps) == 0 {
		return
	}
	fmt.Fprintln(out)
	printHeader(out, "Explain")
	for _, step := range steps {
		fmt.Fprintf(out, "  %s %s\n", mutedStyle.Render(step.Step+":"), step.Detail)
	}
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
