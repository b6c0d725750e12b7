package main

import (
	"context"
	"fmt"

	"campaignwiki/internal/campaign"
	"campaignwiki/internal/config"
	"campaignwiki/internal/encounter"
	"campaignwiki/internal/graph"
	"campaignwiki/internal/ingest"
	"campaignwiki/internal/rules"
	"campaignwiki/internal/store"
	"campaignwiki/internal/store/memory"
	"campaignwiki/internal/store/postgres"
	"campaignwiki/internal/store/sqlite"
)

// app bundles what most commands need. Close releases the store.
type app struct {
	cfg      *config.ProjectConfig
	store    store.Store
	registry *rules.Registry
	svc      *campaign.Service
	// ingested is set when the memory driver loaded the vault on open.
	ingested *ingest.Result
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return nil, err
	}
	registry, loot, err := loadRules(cfg)
	if err != nil {
		return nil, err
	}
	st, err := connectStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	var ingested *ingest.Result
	if cfg.Database.Driver == config.DriverMemory {
		ingested, err = ingest.Run(ctx, ingestConfig(cfg), st, ingest.Options{Full: true})
		if err != nil {
			_ = st.Close(ctx)
			return nil, err
		}
	}

	svc := campaign.New(st, campaign.Options{
		WorkspaceID: cfg.Workspace,
		Registry:    registry,
		Loot:        loot,
		Party: encounter.Party{
			Size:       cfg.Party.Size,
			Level:      cfg.Party.Level,
			Difficulty: cfg.Party.Difficulty,
		},
		FolderTypes: cfg.FolderTypes(),
	})
	return &app{cfg: cfg, store: st, registry: registry, svc: svc, ingested: ingested}, nil
}

func (a *app) Close(ctx context.Context) error {
	return a.store.Close(ctx)
}

// connectStore opens the configured driver and makes sure its schema exists.
// A memory store starts empty.
func connectStore(ctx context.Context, cfg *config.ProjectConfig) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Database.Driver {
	case config.DriverMemory:
		st = memory.New()
	case config.DriverSQLite:
		st, err = sqlite.New(ctx, cfg.Database.DSN)
	case config.DriverPostgres:
		st, err = postgres.New(ctx, cfg.Database.DSN)
	case config.DriverNeo4j:
		st, err = graph.NewClient(ctx, cfg.Neo4j.URI, cfg.Neo4j.Username, cfg.Neo4j.Password, cfg.Neo4j.Database)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.EnsureSchema(ctx); err != nil {
		_ = st.Close(ctx)
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return st, nil
}

func loadRules(cfg *config.ProjectConfig) (*rules.Registry, *rules.Loot, error) {
	var (
		registry *rules.Registry
		loot     *rules.Loot
		err      error
	)
	if cfg.Rules.Encounters != "" {
		registry, err = rules.LoadRegistry(cfg.Rules.Encounters)
	} else {
		registry, err = rules.DefaultRegistry()
	}
	if err != nil {
		return nil, nil, err
	}
	if cfg.Rules.Loot != "" {
		loot, err = rules.LoadLoot(cfg.Rules.Loot)
	} else {
		loot, err = rules.DefaultLoot()
	}
	if err != nil {
		return nil, nil, err
	}
	return registry, loot, nil
}

func ingestConfig(cfg *config.ProjectConfig) ingest.Config {
	return ingest.Config{
		Workspace: cfg.Workspace,
		Paths:     cfg.Vault.Paths,
		Exclude:   cfg.Vault.Exclude,
	}
}
