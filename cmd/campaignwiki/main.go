package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"campaignwiki/internal/config"
)

var configPath string

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "campaignwiki",
		Short:         "Campaign notes wiki with deterministic prep helpers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Project config file")

	root.AddCommand(initCmd())
	root.AddCommand(ingestCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(httpCmd())
	root.AddCommand(contextCmd())
	root.AddCommand(encounterCmd())
	root.AddCommand(treasureCmd())
	root.AddCommand(initiativeCmd())
	root.AddCommand(prepCmd())
	root.AddCommand(searchCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		os.Exit(1)
	}
}
