package prep

import (
	"context"
	"reflect"
	"testing"
	"time"

	"campaignwiki/internal/encounter"
	"campaignwiki/internal/rules"
	"campaignwiki/internal/store"
	"campaignwiki/internal/store/memory"
	"campaignwiki/internal/world"
)

var base = time.Date(2026, 5, 10, 18, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func fixture() (*memory.Store, []store.Folder) {
	folders := []store.Folder{
		{ID: "npcs", Name: "NPCs", WorkspaceID: "ws"},
		{ID: "locs", Name: "Locations", WorkspaceID: "ws"},
		{ID: "notes", Name: "Session Notes", WorkspaceID: "ws"},
	}
	docs := []store.Document{
		{ID: "inn", Title: "The Gilded Stag", Body: "---\nchange_summary: Rebuilt after the fire\n---\nThe inn [[Mara]] runs.", FolderID: strPtr("locs"), WorkspaceID: "ws", UpdatedAt: base},
		{ID: "mara", Title: "Mara", Body: "\n\nInnkeeper with a secret.\nMore.", FolderID: strPtr("npcs"), WorkspaceID: "ws", UpdatedAt: base.Add(-1 * time.Hour)},
		{ID: "bram", Title: "bram", Body: "Drinks at the [[The Gilded Stag]].", FolderID: strPtr("npcs"), WorkspaceID: "ws", UpdatedAt: base.Add(-2 * time.Hour)},
		{ID: "cellar", Title: "Cellar", Body: "Dark and damp.", FolderID: strPtr("locs"), WorkspaceID: "ws", UpdatedAt: base.Add(-3 * time.Hour)},
		{ID: "s1", Title: "Session 1", Body: "Party arrived.", FolderID: strPtr("notes"), WorkspaceID: "ws", UpdatedAt: base.Add(-30 * time.Minute)},
		{ID: "old", Title: "Old Map", Body: "Faded.", FolderID: strPtr("locs"), WorkspaceID: "ws", UpdatedAt: base.Add(-72 * time.Hour)},
	}
	tags := []store.Tag{
		{DocID: "inn", Namespace: "location", Value: "harrowgate"},
		{DocID: "inn", Namespace: "terrain", Value: "urban"},
		{DocID: "cellar", Namespace: "location", Value: "harrowgate"},
		{DocID: "mara", Namespace: "location", Value: "harrowgate"},
	}
	edges := []store.Edge{
		{FromDocID: "inn", ToDocID: "mara", LinkText: "Mara"},
		{FromDocID: "bram", ToDocID: "inn", LinkText: "The Gilded Stag"},
	}
	s := memory.New()
	s.Hydrate(docs, tags, edges, folders)
	return s, folders
}

func snapshot(t *testing.T) (*world.Snapshot, []store.Folder) {
	t.Helper()
	s, folders := fixture()
	snap, err := world.NewResolver(s).Build(context.Background(), "inn")
	if err != nil {
		t.Fatalf("building snapshot: %v", err)
	}
	if snap == nil {
		t.Fatalf("expected snapshot")
	}
	return snap, folders
}

func TestBuildNilSnapshot(t *testing.T) {
	if got := Build(nil, nil, Options{}, Deps{}); got != nil {
		t.Fatalf("expected nil helpers, got %+v", got)
	}
}

func TestBuildSeedsEncounterWithDocumentID(t *testing.T) {
	snap, folders := snapshot(t)
	registry, err := rules.DefaultRegistry()
	if err != nil {
		t.Fatalf("loading registry: %v", err)
	}
	party := encounter.Party{Size: 4, Level: 5, Difficulty: encounter.DifficultyHard}

	helpers := Build(snap, folders, Options{Party: party}, Deps{Registry: registry})
	if helpers.SuggestEncounter.InputsUsed.Seed != "inn" {
		t.Fatalf("expected document id seed, got %q", helpers.SuggestEncounter.InputsUsed.Seed)
	}
	if helpers.SuggestEncounter.Logic.TableID != "urban_encounters_d100" {
		t.Fatalf("expected urban table, got %q", helpers.SuggestEncounter.Logic.TableID)
	}

	again := Build(snap, folders, Options{Party: party}, Deps{Registry: registry})
	if !reflect.DeepEqual(helpers.SuggestEncounter, again.SuggestEncounter) {
		t.Fatalf("expected the default seed to be deterministic")
	}

	custom := Build(snap, folders, Options{Party: party, EncounterSeed: "other"}, Deps{Registry: registry})
	if custom.SuggestEncounter.InputsUsed.Seed != "other" {
		t.Fatalf("expected explicit seed, got %q", custom.SuggestEncounter.InputsUsed.Seed)
	}
}

func TestWhosInvolved(t *testing.T) {
	snap, folders := snapshot(t)
	got := WhosInvolved(snap, folders, nil)
	want := []Involvement{
		{ID: "cellar", Title: "Cellar", Type: TypeLocation, Sources: []string{SourceLocationTag}},
		{ID: "bram", Title: "bram", Type: TypeNPC, Sources: []string{SourceBacklink}},
		{ID: "mara", Title: "Mara", Type: TypeNPC, Sources: []string{SourceLinked, SourceLocationTag}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected involvement:\n got %+v\nwant %+v", got, want)
	}
}

func TestWhosInvolvedCustomFolders(t *testing.T) {
	snap, folders := snapshot(t)
	got := WhosInvolved(snap, folders, map[string]string{"npcs": TypePC})
	if len(got) != 2 || got[0].Type != TypePC || got[1].Type != TypePC {
		t.Fatalf("expected only pc entries, got %+v", got)
	}
}

func TestWhatChangedRecently(t *testing.T) {
	snap, _ := snapshot(t)

	t.Run("related first", func(t *testing.T) {
		got := WhatChangedRecently(snap, nil)
		var ids, reasons []string
		for _, c := range got {
			ids = append(ids, c.ID)
			reasons = append(reasons, c.Reason)
		}
		wantIDs := []string{"inn", "mara", "bram", "cellar", "s1", "old"}
		wantReasons := []string{ReasonCurrentDoc, ReasonLinked, ReasonBacklink, ReasonLocationTag, ReasonRecentCampaign, ReasonRecentCampaign}
		if !reflect.DeepEqual(ids, wantIDs) || !reflect.DeepEqual(reasons, wantReasons) {
			t.Fatalf("unexpected changes: %v %v", ids, reasons)
		}
		if got[0].Change != "Rebuilt after the fire" {
			t.Fatalf("expected change summary, got %q", got[0].Change)
		}
		if got[1].Change != "Innkeeper with a secret." {
			t.Fatalf("expected first body line, got %q", got[1].Change)
		}
	})

	t.Run("since filter", func(t *testing.T) {
		since := base.Add(-90 * time.Minute)
		got := WhatChangedRecently(snap, &since)
		if len(got) != 3 {
			t.Fatalf("expected 3 changes since cutoff, got %+v", got)
		}
		for _, c := range got {
			if c.UpdatedAt.Before(since) {
				t.Fatalf("change before cutoff: %+v", c)
			}
		}
	})
}

func TestChangeText(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{"---\nchange_summary: Allied with the guild\n---\nbody", "Allied with the guild"},
		{"---\ntitle: x\n---\n\nFirst real line\n", "First real line"},
		{"---\nchange_summary: \"\"\n---\nFallback", "Fallback"},
		{"plain text", "plain text"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ChangeText(tt.body); got != tt.want {
			t.Fatalf("ChangeText(%q) = %q, want %q", tt.body, got, tt.want)
		}
	}
}
