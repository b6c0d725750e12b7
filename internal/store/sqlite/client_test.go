package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"campaignwiki/internal/store"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	c, err := New(ctx, "sqlite://"+filepath.Join(t.TempDir(), "wiki.db"))
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	t.Cleanup(func() { c.Close(ctx) })
	if err := c.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return c
}

func TestClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)
	updated := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	folder := "f-loc"

	if err := c.UpsertFolder(ctx, store.Folder{ID: folder, Name: "Locations", WorkspaceID: "ws", SortIndex: 1}); err != nil {
		t.Fatalf("upsert folder: %v", err)
	}
	if err := c.UpsertFolder(ctx, store.Folder{ID: "f-npc", Name: "NPCs", WorkspaceID: "ws"}); err != nil {
		t.Fatalf("upsert folder: %v", err)
	}
	inputs := []store.DocumentInput{
		{
			Document: store.Document{ID: "inn", Title: "Rusty Flagon", Body: "An inn on the road.", FolderID: &folder, WorkspaceID: "ws", UpdatedAt: updated, SourceFile: "Locations/Rusty Flagon.md", SourceHash: "h1"},
			Tags:     []store.Tag{{Namespace: "travel", Value: "road"}, {Namespace: "terrain", Value: "urban"}},
		},
		{
			Document: store.Document{ID: "mara", Title: "Mara", Body: "Mara keeps the inn.", WorkspaceID: "ws", UpdatedAt: updated, SourceFile: "Mara.md", SourceHash: "h2"},
			Tags:     []store.Tag{{Namespace: "terrain", Value: "urban"}},
		},
	}
	for _, in := range inputs {
		if err := c.UpsertDocument(ctx, in); err != nil {
			t.Fatalf("upsert document: %v", err)
		}
	}
	if err := c.ReplaceEdges(ctx, "mara", []store.Edge{{ToDocID: "inn", LinkText: "Rusty Flagon"}}); err != nil {
		t.Fatalf("replace edges: %v", err)
	}

	doc, err := c.GetDocument(ctx, "inn")
	if err != nil || doc == nil {
		t.Fatalf("get document: %v %v", doc, err)
	}
	if !doc.UpdatedAt.Equal(updated) || doc.FolderKey() != folder || doc.DeletedAt != nil {
		t.Fatalf("unexpected document: %#v", doc)
	}
	if missing, _ := c.GetDocument(ctx, "nope"); missing != nil {
		t.Fatalf("expected nil for missing document")
	}

	tags, _ := c.GetTagsForDocument(ctx, "inn")
	if len(tags) != 2 || tags[0].Namespace != "travel" || tags[1].Value != "urban" {
		t.Fatalf("unexpected tags: %#v", tags)
	}
	urban, _ := c.GetTagsByNamespaceValue(ctx, "terrain", "urban")
	if len(urban) != 2 || urban[0].DocID != "inn" || urban[1].DocID != "mara" {
		t.Fatalf("unexpected tag lookup: %#v", urban)
	}

	incoming, _ := c.GetIncomingEdges(ctx, "inn")
	if len(incoming) != 1 || incoming[0].FromDocID != "mara" || incoming[0].LinkText != "Rusty Flagon" {
		t.Fatalf("unexpected incoming edges: %#v", incoming)
	}

	folders, _ := c.GetFoldersByWorkspace(ctx, "ws")
	if len(folders) != 2 || folders[0].Name != "NPCs" {
		t.Fatalf("unexpected folder order: %#v", folders)
	}

	// Re-upserting replaces tags.
	inputs[0].Tags = []store.Tag{{Namespace: "terrain", Value: "forest"}}
	if err := c.UpsertDocument(ctx, inputs[0]); err != nil {
		t.Fatalf("re-upsert document: %v", err)
	}
	tags, _ = c.GetTagsForDocument(ctx, "inn")
	if len(tags) != 1 || tags[0].Value != "forest" {
		t.Fatalf("expected replaced tags, got %#v", tags)
	}
}

func TestClientSoftDeleteAndSearch(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)
	fixed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	for _, d := range []store.Document{
		{ID: "lair", Title: "Dragon Lair", Body: "A red dragon sleeps on gold.", WorkspaceID: "ws", SourceFile: "lair.md", SourceHash: "a"},
		{ID: "bard", Title: "Aria", Body: "A bard who sings about the dragon.", WorkspaceID: "ws", SourceFile: "aria.md", SourceHash: "b"},
		{ID: "gone", Title: "Old Dragon", Body: "Retired.", WorkspaceID: "ws", SourceFile: "old.md", SourceHash: "c"},
		{ID: "idx", Title: "Index", Body: "dragon", WorkspaceID: "ws"},
	} {
		d.UpdatedAt = fixed
		if err := c.UpsertDocument(ctx, store.DocumentInput{Document: d}); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	n, err := c.SoftDeleteMissing(ctx, "ws", []string{"lair", "bard", "idx"})
	if err != nil || n != 1 {
		t.Fatalf("expected 1 soft-deleted, got %d (%v)", n, err)
	}
	gone, _ := c.GetDocument(ctx, "gone")
	if gone.DeletedAt == nil || !gone.DeletedAt.Equal(fixed) {
		t.Fatalf("expected gone deleted at %v, got %v", fixed, gone.DeletedAt)
	}

	hashes, _ := c.GetSourceHashes(ctx, "ws")
	if len(hashes) != 2 || hashes["lair.md"] != "a" {
		t.Fatalf("unexpected hashes: %#v", hashes)
	}

	results, err := c.Search(ctx, "ws", "dragon", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 || results[0].DocID != "lair" {
		t.Fatalf("unexpected search results: %#v", results)
	}

	if _, err := c.Search(ctx, "ws", " ", 10); err == nil {
		t.Fatalf("expected error for empty query")
	}
}

func TestParseDSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "sqlite://:memory:", want: ":memory:", ok: true},
		{in: "sqlite:///var/lib/wiki.db", want: "/var/lib/wiki.db", ok: true},
		{in: "sqlite://campaignwiki.db", want: "./campaignwiki.db", ok: true},
		{in: "sqlite://./notes/wiki.db", want: "./notes/wiki.db", ok: true},
		{in: "sqlite://my%20wiki.db?_pragma=foreign_keys(1)", want: "./my wiki.db?_pragma=foreign_keys(1)", ok: true},
		{in: "sqlite://", ok: false},
		{in: "postgres://x", ok: false},
	}
	for _, tt := range tests {
		got, err := parseDSN(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Fatalf("parseDSN(%q) = %q, %v", tt.in, got, err)
		}
	}
}
