package mcp

import (
	"context"
	"testing"
	"time"

	"campaignwiki/internal/campaign"
	"campaignwiki/internal/encounter"
	"campaignwiki/internal/initiative"
	"campaignwiki/internal/rules"
	"campaignwiki/internal/store"
	"campaignwiki/internal/store/memory"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	registry, err := rules.DefaultRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	loot, err := rules.DefaultLoot()
	if err != nil {
		t.Fatalf("loot: %v", err)
	}

	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	s := memory.New()
	s.Hydrate(
		[]store.Document{
			{ID: "warren", Title: "Goblin Warren", Body: "Goblins lurk beneath [[Thornwood]].", WorkspaceID: "ws", UpdatedAt: recent},
			{ID: "thornwood", Title: "Thornwood", Body: "A dark forest.", WorkspaceID: "ws", UpdatedAt: old},
		},
		[]store.Tag{
			{DocID: "warren", Namespace: "terrain", Value: "forest"},
			{DocID: "warren", Namespace: "creature", Value: "goblin"},
		},
		[]store.Edge{{FromDocID: "warren", ToDocID: "thornwood", LinkText: "Thornwood"}},
		nil,
	)

	svc := campaign.New(s, campaign.Options{
		WorkspaceID: "ws",
		Registry:    registry,
		Loot:        loot,
		Party:       encounter.Party{Size: 4, Level: 1, Difficulty: encounter.DifficultyMedium},
	})
	return NewServer(svc, "test")
}

func TestWorldContext(t *testing.T) {
	server := newTestServer(t)

	_, output, err := server.handleWorldContext(context.Background(), nil, DocInput{Doc: "Goblin Warren"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Current.ID != "warren" || len(output.LinkedDocs) != 1 {
		t.Fatalf("unexpected snapshot: %+v", output)
	}

	if _, _, err := server.handleWorldContext(context.Background(), nil, DocInput{Doc: "Missing"}); err == nil {
		t.Fatalf("expected error for missing document")
	}
	if _, _, err := server.handleWorldContext(context.Background(), nil, DocInput{}); err == nil {
		t.Fatalf("expected error for empty doc")
	}
}

func TestSuggestEncounter(t *testing.T) {
	server := newTestServer(t)

	_, byDoc, err := server.handleSuggestEncounter(context.Background(), nil, SuggestEncounterInput{Doc: "warren", Seed: "s"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, byTags, err := server.handleSuggestEncounter(context.Background(), nil, SuggestEncounterInput{
		Tags: []string{"terrain:forest", "creature:goblin"},
		Seed: "s",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if byDoc.Logic.TableID != byTags.Logic.TableID || len(byDoc.Suggestions) != len(byTags.Suggestions) {
		t.Fatalf("expected doc and tag requests to match: %+v vs %+v", byDoc.Logic, byTags.Logic)
	}
	for i := range byDoc.Suggestions {
		if byDoc.Suggestions[i].Roll != byTags.Suggestions[i].Roll {
			t.Fatalf("roll %d differs", i)
		}
	}
}

func TestSuggestTreasure(t *testing.T) {
	server := newTestServer(t)

	_, output, err := server.handleSuggestTreasure(context.Background(), nil, SuggestTreasureInput{
		Monsters: []TreasureMonsterInput{{Name: "Goblin", CR: "1/4"}},
		Seed:     "loot",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.InputsUsed.Mode != "individual" || len(output.InputsUsed.CRs) != 1 || output.InputsUsed.CRs[0] != 0.25 {
		t.Fatalf("unexpected inputs: %+v", output.InputsUsed)
	}

	if _, _, err := server.handleSuggestTreasure(context.Background(), nil, SuggestTreasureInput{
		Monsters: []TreasureMonsterInput{{Name: "Odd", CR: "x"}},
	}); err == nil {
		t.Fatalf("expected error for invalid cr")
	}
}

func TestRollInitiative(t *testing.T) {
	server := newTestServer(t)
	fixed := 15

	_, output, err := server.handleRollInitiative(context.Background(), nil, RollInitiativeInput{
		Players:  []initiative.Player{{Name: "Aria", Roll: &fixed}},
		Monsters: []initiative.Monster{{Name: "Goblin", Count: 2}},
		Seed:     "init",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(output.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %+v", output.Entries)
	}
	for _, e := range output.Entries {
		if e.Name == "Aria" && e.Source != initiative.SourceProvided {
			t.Fatalf("expected provided source for Aria, got %q", e.Source)
		}
	}

	if _, _, err := server.handleRollInitiative(context.Background(), nil, RollInitiativeInput{
		Monsters: []initiative.Monster{{Name: "Rat", Count: initiative.MaxGroupCount + 1}},
		Seed:     "init",
	}); err == nil {
		t.Fatalf("expected error for oversized monster group")
	}
}

func TestPrepHelpers(t *testing.T) {
	server := newTestServer(t)

	_, output, err := server.handlePrepHelpers(context.Background(), nil, PrepHelpersInput{
		Doc:   "warren",
		Since: "2026-03-01T00:00:00Z",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.SuggestEncounter.InputsUsed.Seed != "warren" {
		t.Fatalf("expected seed default, got %q", output.SuggestEncounter.InputsUsed.Seed)
	}
	for _, change := range output.WhatChangedRecently {
		if change.ID == "thornwood" {
			t.Fatalf("expected since filter to drop thornwood")
		}
	}

	if _, _, err := server.handlePrepHelpers(context.Background(), nil, PrepHelpersInput{Doc: "warren", Since: "yesterday"}); err == nil {
		t.Fatalf("expected error for bad since")
	}
}

func TestSearchWiki(t *testing.T) {
	server := newTestServer(t)

	_, output, err := server.handleSearchWiki(context.Background(), nil, SearchWikiInput{Query: "goblins"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(output.Results) != 1 || output.Results[0].DocID != "warren" {
		t.Fatalf("unexpected results: %+v", output.Results)
	}
	if _, _, err := server.handleSearchWiki(context.Background(), nil, SearchWikiInput{}); err == nil {
		t.Fatalf("expected error for empty query")
	}
}
