package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	var projectName string
	var driver string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new campaignwiki project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return fmt.Errorf("--name is required")
			}
			if err := runInit(configPath, projectName, driver); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Wrote "+configPath))
			return nil
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name")
	cmd.Flags().StringVar(&driver, "driver", "sqlite", "Database driver (memory, sqlite, postgres, neo4j)")
	return cmd
}

func runInit(path, projectName, driver string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	workspace := slugify(projectName)
	var database string
	switch driver {
	case "memory":
		database = "database:\n  driver: memory\n"
	case "sqlite":
		database = fmt.Sprintf("database:\n  driver: sqlite\n  dsn: sqlite://%s.db\n", workspace)
	case "postgres":
		database = fmt.Sprintf("database:\n  driver: postgres\n  dsn: postgres://localhost:5432/%s\n", workspace)
	case "neo4j":
		database = "database:\n  driver: neo4j\n\nneo4j:\n  uri: bolt://localhost:7687\n  username: neo4j\n  password: changeme\n  database: neo4j\n"
	default:
		return fmt.Errorf("unknown driver %q", driver)
	}

	contents := fmt.Sprintf("project: %s\nversion: 1\nworkspace: %s\n\nvault:\n  paths:\n    - ./notes/\n  exclude:\n    - ./notes/templates/\n\n%s\nparty:\n  size: 4\n  level: 3\n  difficulty: medium\n\nhttp:\n  addr: 127.0.0.1:8080\n", projectName, workspace, database)
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
