package world

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"campaignwiki/internal/store"
	"campaignwiki/internal/store/memory"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func newFixture() *memory.Store {
	deletedAt := base
	docs := []store.Document{
		{ID: "cur", Title: "Thornwood", Body: "The [[Goblin Warren|warren]] lies deep in the wood. #terrain:forest", FolderID: strPtr("locs"), WorkspaceID: "ws", UpdatedAt: base.Add(5 * time.Hour)},
		{ID: "warren", Title: "Goblin Warren", FolderID: strPtr("locs"), WorkspaceID: "ws", UpdatedAt: base.Add(1 * time.Hour), SortIndex: 2},
		{ID: "boss", Title: "Grik the Boss", FolderID: strPtr("npcs"), WorkspaceID: "ws", UpdatedAt: base.Add(3 * time.Hour)},
		{ID: "camp", Title: "Old Camp", FolderID: strPtr("locs"), WorkspaceID: "ws", UpdatedAt: base.Add(9 * time.Hour), DeletedAt: &deletedAt},
		{ID: "idx", Title: "Index", FolderID: strPtr("locs"), WorkspaceID: "ws", UpdatedAt: base.Add(8 * time.Hour)},
		{ID: "aria", Title: "aria", FolderID: strPtr("npcs"), WorkspaceID: "ws", UpdatedAt: base.Add(2 * time.Hour)},
		{ID: "far", Title: "Far Goblins", WorkspaceID: "ws2", UpdatedAt: base},
	}
	tags := []store.Tag{
		{DocID: "cur", Namespace: "terrain", Value: "forest"},
		{DocID: "cur", Namespace: "creature", Value: "goblin"},
		{DocID: "cur", Namespace: "creature", Value: "goblin"},
		{DocID: "cur", Namespace: "ecosystem", Value: "forest"},
		{DocID: "warren", Namespace: "creature", Value: "goblin"},
		{DocID: "boss", Namespace: "creature", Value: "goblin"},
		{DocID: "camp", Namespace: "creature", Value: "goblin"},
		{DocID: "idx", Namespace: "creature", Value: "goblin"},
		{DocID: "far", Namespace: "creature", Value: "goblin"},
		{DocID: "warren", Namespace: "terrain", Value: "forest"},
	}
	edges := []store.Edge{
		{FromDocID: "cur", ToDocID: "warren", LinkText: "warren"},
		{FromDocID: "cur", ToDocID: "camp", LinkText: "Old Camp"},
		{FromDocID: "cur", ToDocID: "boss", LinkText: "Grik the Boss"},
		{FromDocID: "cur", ToDocID: "boss", LinkText: "Grik"},
		{FromDocID: "idx", ToDocID: "cur", LinkText: "Thornwood"},
		{FromDocID: "aria", ToDocID: "cur", LinkText: "Thornwood"},
	}
	folders := []store.Folder{
		{ID: "locs", Name: "Locations", WorkspaceID: "ws"},
		{ID: "npcs", Name: "NPCs", WorkspaceID: "ws"},
	}
	s := memory.New()
	s.Hydrate(docs, tags, edges, folders)
	return s
}

func titles(refs []DocRef) string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		out = append(out, ref.Title)
	}
	return strings.Join(out, ",")
}

func TestBuild(t *testing.T) {
	snapshot, err := NewResolver(newFixture()).Build(context.Background(), "cur")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snapshot == nil {
		t.Fatalf("expected snapshot")
	}

	if snapshot.Current.Title != "Thornwood" || snapshot.Current.WorkspaceID != "ws" {
		t.Fatalf("unexpected current doc: %+v", snapshot.Current)
	}
	if snapshot.Current.Excerpt != "The warren lies deep in the wood." {
		t.Fatalf("unexpected excerpt: %q", snapshot.Current.Excerpt)
	}
	if len(snapshot.Current.Tags) != 4 {
		t.Fatalf("expected raw tags to be kept, got %d", len(snapshot.Current.Tags))
	}

	if got := titles(snapshot.LinkedDocs); got != "Goblin Warren,Grik the Boss" {
		t.Fatalf("unexpected linked docs: %s", got)
	}
	if got := titles(snapshot.Backlinks); got != "aria" {
		t.Fatalf("unexpected backlinks: %s", got)
	}

	if len(snapshot.TagGroups) != 2 {
		t.Fatalf("expected two tag groups, got %+v", snapshot.TagGroups)
	}
	creature := snapshot.TagGroups[0]
	if creature.Namespace != "creature" || creature.Value != "goblin" {
		t.Fatalf("unexpected first group: %+v", creature)
	}
	if got := titles(creature.Docs); got != "Goblin Warren,Grik the Boss" {
		t.Fatalf("unexpected creature group docs: %s", got)
	}
	ecosystem := snapshot.TagGroups[1]
	if ecosystem.Namespace != "ecosystem" || len(ecosystem.Docs) != 0 {
		t.Fatalf("unexpected ecosystem group: %+v", ecosystem)
	}

	if got := titles(snapshot.RecentlyUpdated); got != "Thornwood,Grik the Boss,aria,Goblin Warren" {
		t.Fatalf("unexpected recent docs: %s", got)
	}

	if snapshot.Folder.Folder == nil || snapshot.Folder.Folder.Name != "Locations" {
		t.Fatalf("unexpected folder: %+v", snapshot.Folder.Folder)
	}
	if got := titles(snapshot.Folder.Siblings); got != "Goblin Warren" {
		t.Fatalf("unexpected siblings: %s", got)
	}
}

func TestBuildNeverReturnsHiddenDocuments(t *testing.T) {
	snapshot, err := NewResolver(newFixture()).Build(context.Background(), "cur")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lists := [][]DocRef{snapshot.LinkedDocs, snapshot.Backlinks, snapshot.RecentlyUpdated, snapshot.Folder.Siblings}
	for _, group := range snapshot.TagGroups {
		lists = append(lists, group.Docs)
	}
	for _, list := range lists {
		for _, ref := range list {
			if ref.ID == "camp" || ref.ID == "idx" {
				t.Fatalf("hidden document %s leaked into snapshot", ref.ID)
			}
		}
	}
}

func TestBuildMissingOrDeleted(t *testing.T) {
	resolver := NewResolver(newFixture())
	for _, id := range []string{"nope", "camp"} {
		snapshot, err := resolver.Build(context.Background(), id)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if snapshot != nil {
			t.Fatalf("expected nil snapshot for %s", id)
		}
	}
}

func TestBuildRootFolderAndLimits(t *testing.T) {
	s := memory.New()
	var docs []store.Document
	for i := 0; i < 20; i++ {
		docs = append(docs, store.Document{
			ID:          fmt.Sprintf("d%02d", i),
			Title:       fmt.Sprintf("Doc %02d", i),
			WorkspaceID: "ws",
			UpdatedAt:   base.Add(time.Duration(i) * time.Minute),
			SortIndex:   20 - i,
		})
	}
	s.Hydrate(docs, nil, nil, nil)

	snapshot, err := NewResolver(s).Build(context.Background(), "d00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snapshot.RecentlyUpdated) != RecentLimit {
		t.Fatalf("expected %d recent docs, got %d", RecentLimit, len(snapshot.RecentlyUpdated))
	}
	if snapshot.RecentlyUpdated[0].ID != "d19" {
		t.Fatalf("expected newest first, got %s", snapshot.RecentlyUpdated[0].ID)
	}
	if len(snapshot.Folder.Siblings) != SiblingLimit {
		t.Fatalf("expected %d siblings, got %d", SiblingLimit, len(snapshot.Folder.Siblings))
	}
	if snapshot.Folder.Siblings[0].ID != "d19" {
		t.Fatalf("expected lowest sort index first, got %s", snapshot.Folder.Siblings[0].ID)
	}
	if snapshot.Folder.Folder != nil {
		t.Fatalf("root documents have no folder")
	}
	if snapshot.LinkedDocs == nil || snapshot.Backlinks == nil {
		t.Fatalf("empty lists should be non-nil")
	}
}

type failingReader struct {
	*memory.Store
}

func (f failingReader) GetIncomingEdges(ctx context.Context, id string) ([]store.Edge, error) {
	return nil, errors.New("connection reset")
}

func TestBuildPropagatesStoreErrors(t *testing.T) {
	_, err := NewResolver(failingReader{newFixture()}).Build(context.Background(), "cur")
	if err == nil || !strings.Contains(err.Error(), "connection reset") {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestExcerpt(t *testing.T) {
	body := "Meet   [[Aria|the bard]]\n\nat #location:inn [[The Prancing Pony]]."
	if got := Excerpt(body, ExcerptLimit); got != "Meet the bard at The Prancing Pony." {
		t.Fatalf("unexpected excerpt: %q", got)
	}
	long := strings.Repeat("word ", 100)
	got := Excerpt(long, 12)
	if got != "word word wo…" {
		t.Fatalf("unexpected truncated excerpt: %q", got)
	}
	withFrontmatter := "---\nchange_summary: moved\n---\nThe inn burned."
	if got := Excerpt(withFrontmatter, ExcerptLimit); got != "The inn burned." {
		t.Fatalf("expected front matter to be dropped, got %q", got)
	}
}
