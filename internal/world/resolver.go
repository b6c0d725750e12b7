// Package world resolves the graph neighbourhood of a document into an
// immutable Snapshot for the prep generators.
package world

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"campaignwiki/internal/store"
)

const (
	RecentLimit  = 12
	SiblingLimit = 12
)

// CorrelationNamespaces are the tag namespaces used to find related documents.
var CorrelationNamespaces = []string{"ecosystem", "creature", "location"}

type Resolver struct {
	store store.Reader
}

func NewResolver(reader store.Reader) *Resolver {
	return &Resolver{store: reader}
}

// Build returns nil when the document does not exist or is soft-deleted.
func (r *Resolver) Build(ctx context.Context, docID string) (*Snapshot, error) {
	doc, err := r.store.GetDocument(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("getting document %s: %w", docID, err)
	}
	if doc == nil || doc.Deleted() {
		return nil, nil
	}

	snapshot := &Snapshot{
		Current: CurrentDoc{
			ID:          doc.ID,
			Title:       doc.Title,
			Excerpt:     Excerpt(doc.Body, ExcerptLimit),
			FolderID:    doc.FolderID,
			WorkspaceID: doc.WorkspaceID,
		},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		tags, err := r.store.GetTagsForDocument(gctx, doc.ID)
		if err != nil {
			return fmt.Errorf("getting tags: %w", err)
		}
		snapshot.Current.Tags = tags
		groups, err := r.tagGroups(gctx, doc, tags)
		if err != nil {
			return err
		}
		snapshot.TagGroups = groups
		return nil
	})

	g.Go(func() error {
		edges, err := r.store.GetOutgoingEdges(gctx, doc.ID)
		if err != nil {
			return fmt.Errorf("getting outgoing edges: %w", err)
		}
		ids := make([]string, 0, len(edges))
		for _, edge := range edges {
			ids = append(ids, edge.ToDocID)
		}
		refs, err := r.visibleRefs(gctx, ids, "")
		if err != nil {
			return fmt.Errorf("getting linked documents: %w", err)
		}
		snapshot.LinkedDocs = refs
		return nil
	})

	g.Go(func() error {
		edges, err := r.store.GetIncomingEdges(gctx, doc.ID)
		if err != nil {
			return fmt.Errorf("getting incoming edges: %w", err)
		}
		ids := make([]string, 0, len(edges))
		for _, edge := range edges {
			ids = append(ids, edge.FromDocID)
		}
		refs, err := r.visibleRefs(gctx, ids, "")
		if err != nil {
			return fmt.Errorf("getting backlinks: %w", err)
		}
		snapshot.Backlinks = refs
		return nil
	})

	g.Go(func() error {
		docs, err := r.store.GetDocumentsByWorkspace(gctx, doc.WorkspaceID)
		if err != nil {
			return fmt.Errorf("getting workspace documents: %w", err)
		}
		snapshot.RecentlyUpdated = recentlyUpdated(docs, RecentLimit)
		snapshot.Folder.Siblings = siblings(docs, doc, SiblingLimit)
		return nil
	})

	if doc.FolderID != nil {
		g.Go(func() error {
			folder, err := r.store.GetFolder(gctx, *doc.FolderID)
			if err != nil {
				return fmt.Errorf("getting folder: %w", err)
			}
			snapshot.Folder.Folder = folder
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if snapshot.Current.Tags == nil {
		snapshot.Current.Tags = []store.Tag{}
	}
	return snapshot, nil
}

func (r *Resolver) tagGroups(ctx context.Context, doc *store.Document, tags []store.Tag) ([]TagGroup, error) {
	type key struct{ namespace, value string }
	var keys []key
	seen := make(map[key]struct{})
	for _, tag := range tags {
		if !isCorrelationNamespace(tag.Namespace) {
			continue
		}
		k := key{namespace: tag.Namespace, value: tag.Value}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}

	groups := make([]TagGroup, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	for i, k := range keys {
		g.Go(func() error {
			matches, err := r.store.GetTagsByNamespaceValue(gctx, k.namespace, k.value)
			if err != nil {
				return fmt.Errorf("getting tag %s:%s: %w", k.namespace, k.value, err)
			}
			ids := make([]string, 0, len(matches))
			for _, match := range matches {
				if match.DocID != doc.ID {
					ids = append(ids, match.DocID)
				}
			}
			refs, err := r.visibleRefs(gctx, ids, doc.WorkspaceID)
			if err != nil {
				return fmt.Errorf("getting documents for tag %s:%s: %w", k.namespace, k.value, err)
			}
			groups[i] = TagGroup{Namespace: k.namespace, Value: k.value, Docs: refs}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return groups, nil
}

// visibleRefs loads ids, drops deleted and index documents, optionally
// restricts to a workspace, and sorts by title.
func (r *Resolver) visibleRefs(ctx context.Context, ids []string, workspaceID string) ([]DocRef, error) {
	refs := []DocRef{}
	if len(ids) == 0 {
		return refs, nil
	}
	docs, err := r.store.GetDocumentsByIDs(ctx, dedupe(ids))
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if !doc.Visible() {
			continue
		}
		if workspaceID != "" && doc.WorkspaceID != workspaceID {
			continue
		}
		refs = append(refs, refFromDocument(doc))
	}
	sortByTitle(refs)
	return refs, nil
}

func recentlyUpdated(docs []store.Document, limit int) []DocRef {
	refs := []DocRef{}
	for _, doc := range docs {
		if doc.Visible() {
			refs = append(refs, refFromDocument(doc))
		}
	}
	sort.SliceStable(refs, func(i, j int) bool {
		if !refs[i].UpdatedAt.Equal(refs[j].UpdatedAt) {
			return refs[i].UpdatedAt.After(refs[j].UpdatedAt)
		}
		return lessTitle(refs[i], refs[j])
	})
	if len(refs) > limit {
		refs = refs[:limit]
	}
	return refs
}

func siblings(docs []store.Document, current *store.Document, limit int) []DocRef {
	refs := []DocRef{}
	folder := current.FolderKey()
	for _, doc := range docs {
		if doc.ID == current.ID || !doc.Visible() || doc.FolderKey() != folder {
			continue
		}
		refs = append(refs, refFromDocument(doc))
	}
	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].SortIndex != refs[j].SortIndex {
			return refs[i].SortIndex < refs[j].SortIndex
		}
		return lessTitle(refs[i], refs[j])
	})
	if len(refs) > limit {
		refs = refs[:limit]
	}
	return refs
}

func sortByTitle(refs []DocRef) {
	sort.SliceStable(refs, func(i, j int) bool { return lessTitle(refs[i], refs[j]) })
}

// lessTitle orders case-insensitively, then by exact title, then by id.
func lessTitle(a, b DocRef) bool {
	la, lb := strings.ToLower(a.Title), strings.ToLower(b.Title)
	if la != lb {
		return la < lb
	}
	if a.Title != b.Title {
		return a.Title < b.Title
	}
	return a.ID < b.ID
}

func isCorrelationNamespace(namespace string) bool {
	for _, ns := range CorrelationNamespaces {
		if strings.EqualFold(ns, namespace) {
			return true
		}
	}
	return false
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
