package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the project config file name looked up in the working directory.
const DefaultPath = "campaignwiki.yaml"

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverNeo4j    = "neo4j"
)

type ProjectConfig struct {
	Project     string            `yaml:"project"`
	Version     int               `yaml:"version"`
	Workspace   string            `yaml:"workspace"`
	Vault       VaultConfig       `yaml:"vault"`
	Database    DatabaseConfig    `yaml:"database"`
	Neo4j       Neo4jConfig       `yaml:"neo4j"`
	Party       PartyConfig       `yaml:"party"`
	Rules       RulesConfig       `yaml:"rules"`
	HTTP        HTTPConfig        `yaml:"http"`
	Involvement []InvolvementType `yaml:"involvement"`
}

type VaultConfig struct {
	Paths   []string `yaml:"paths"`
	Exclude []string `yaml:"exclude"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver" env:"CAMPAIGNWIKI_DATABASE_DRIVER"`
	DSN    string `yaml:"dsn" env:"CAMPAIGNWIKI_DATABASE_DSN"`
}

type Neo4jConfig struct {
	URI      string `yaml:"uri" env:"CAMPAIGNWIKI_NEO4J_URI"`
	Username string `yaml:"username" env:"CAMPAIGNWIKI_NEO4J_USERNAME"`
	Password string `yaml:"password" env:"CAMPAIGNWIKI_NEO4J_PASSWORD"`
	Database string `yaml:"database"`
}

// PartyConfig holds the default party used when a command does not pass one.
type PartyConfig struct {
	Size       int    `yaml:"size"`
	Level      int    `yaml:"level"`
	Difficulty string `yaml:"difficulty"`
}

// RulesConfig points at rule data overriding the embedded tables.
type RulesConfig struct {
	Encounters string `yaml:"encounters"`
	Loot       string `yaml:"loot"`
}

type HTTPConfig struct {
	Addr        string   `yaml:"addr" env:"CAMPAIGNWIKI_HTTP_ADDR"`
	CORSOrigins []string `yaml:"cors_origins"`
}

func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: parse env: %w", err)
	}

	applyDefaults(&cfg)
	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *ProjectConfig) {
	if strings.TrimSpace(cfg.Workspace) == "" {
		cfg.Workspace = cfg.Project
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverSQLite
	}
	if cfg.Database.Driver == DriverSQLite && cfg.Database.DSN == "" {
		cfg.Database.DSN = "sqlite://campaignwiki.db"
	}
	if cfg.Party.Size == 0 {
		cfg.Party.Size = 4
	}
	if cfg.Party.Level == 0 {
		cfg.Party.Level = 1
	}
	if cfg.Party.Difficulty == "" {
		cfg.Party.Difficulty = "medium"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = "127.0.0.1:8080"
	}
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if len(cfg.Vault.Paths) == 0 {
		return fmt.Errorf("at least one vault path is required")
	}
	for i, p := range cfg.Vault.Paths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("vault path %d is empty", i)
		}
	}

	switch cfg.Database.Driver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if strings.TrimSpace(cfg.Database.DSN) == "" {
			return fmt.Errorf("database dsn is required for %s", cfg.Database.Driver)
		}
	case DriverNeo4j:
		if strings.TrimSpace(cfg.Neo4j.URI) == "" {
			return fmt.Errorf("neo4j uri is required")
		}
	default:
		return fmt.Errorf("unknown database driver: %q", cfg.Database.Driver)
	}

	if cfg.Party.Size < 1 || cfg.Party.Size > 10 {
		return fmt.Errorf("party size must be between 1 and 10, got %d", cfg.Party.Size)
	}
	if cfg.Party.Level < 1 || cfg.Party.Level > 20 {
		return fmt.Errorf("party level must be between 1 and 20, got %d", cfg.Party.Level)
	}
	switch strings.ToLower(cfg.Party.Difficulty) {
	case "easy", "medium", "hard", "deadly":
	default:
		return fmt.Errorf("unknown party difficulty: %q", cfg.Party.Difficulty)
	}

	return validateInvolvement(cfg.Involvement)
}
