// Package memory provides an in-memory graph store.
// Documents live in an arena keyed by id; edges are held in by-source and
// by-target adjacency lists so no document references another directly.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"campaignwiki/internal/store"
)

var (
	_ store.Store    = (*Store)(nil)
	_ store.Searcher = (*Store)(nil)
)

// Store is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	docs     map[string]store.Document
	tags     map[string][]store.Tag
	folders  map[string]store.Folder
	bySource map[string][]store.Edge
	byTarget map[string][]store.Edge
	now      func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		docs:     make(map[string]store.Document),
		tags:     make(map[string][]store.Tag),
		folders:  make(map[string]store.Folder),
		bySource: make(map[string][]store.Edge),
		byTarget: make(map[string][]store.Edge),
		now:      time.Now,
	}
}

func (s *Store) Close(ctx context.Context) error { return nil }

func (s *Store) EnsureSchema(ctx context.Context) error { return nil }

// Hydrate bulk-loads a graph. Edges are appended to any already present.
func (s *Store) Hydrate(docs []store.Document, tags []store.Tag, edges []store.Edge, folders []store.Folder) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range docs {
		s.docs[doc.ID] = doc
	}
	for _, tag := range tags {
		s.tags[tag.DocID] = append(s.tags[tag.DocID], tag)
	}
	for _, edge := range edges {
		s.addEdgeLocked(edge)
	}
	for _, folder := range folders {
		s.folders[folder.ID] = folder
	}
}

func (s *Store) addEdgeLocked(edge store.Edge) {
	s.bySource[edge.FromDocID] = append(s.bySource[edge.FromDocID], edge)
	s.byTarget[edge.ToDocID] = append(s.byTarget[edge.ToDocID], edge)
}

func (s *Store) UpsertFolder(ctx context.Context, f store.Folder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.folders[f.ID] = f
	return nil
}

func (s *Store) UpsertDocument(ctx context.Context, in store.DocumentInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs[in.Document.ID] = in.Document
	tags := make([]store.Tag, 0, len(in.Tags))
	for _, tag := range in.Tags {
		tag.DocID = in.Document.ID
		tags = append(tags, tag)
	}
	s.tags[in.Document.ID] = tags
	return nil
}

func (s *Store) ReplaceEdges(ctx context.Context, fromDocID string, edges []store.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, old := range s.bySource[fromDocID] {
		kept := s.byTarget[old.ToDocID][:0]
		for _, edge := range s.byTarget[old.ToDocID] {
			if edge.FromDocID != fromDocID {
				kept = append(kept, edge)
			}
		}
		if len(kept) == 0 {
			delete(s.byTarget, old.ToDocID)
		} else {
			s.byTarget[old.ToDocID] = kept
		}
	}
	delete(s.bySource, fromDocID)

	for _, edge := range edges {
		edge.FromDocID = fromDocID
		s.addEdgeLocked(edge)
	}
	return nil
}

func (s *Store) SoftDeleteMissing(ctx context.Context, workspaceID string, keepIDs []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keep := make(map[string]struct{}, len(keepIDs))
	for _, id := range keepIDs {
		keep[id] = struct{}{}
	}

	now := s.now()
	var deleted int64
	for id, doc := range s.docs {
		if doc.WorkspaceID != workspaceID || doc.Deleted() {
			continue
		}
		if _, ok := keep[id]; ok {
			continue
		}
		doc.DeletedAt = &now
		s.docs[id] = doc
		deleted++
	}
	return deleted, nil
}

func (s *Store) GetSourceHashes(ctx context.Context, workspaceID string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hashes := make(map[string]string)
	for _, doc := range s.docs {
		if doc.WorkspaceID == workspaceID && !doc.Deleted() && doc.SourceFile != "" {
			hashes[doc.SourceFile] = doc.SourceHash
		}
	}
	return hashes, nil
}

func (s *Store) GetDocument(ctx context.Context, id string) (*store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, nil
	}
	return &doc, nil
}

func (s *Store) GetTagsForDocument(ctx context.Context, id string) ([]store.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]store.Tag{}, s.tags[id]...), nil
}

func (s *Store) GetOutgoingEdges(ctx context.Context, id string) ([]store.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]store.Edge{}, s.bySource[id]...), nil
}

func (s *Store) GetIncomingEdges(ctx context.Context, id string) ([]store.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]store.Edge{}, s.byTarget[id]...), nil
}

func (s *Store) GetDocumentsByIDs(ctx context.Context, ids []string) ([]store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{}, len(ids))
	docs := make([]store.Document, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if doc, ok := s.docs[id]; ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (s *Store) GetDocumentsByWorkspace(ctx context.Context, workspaceID string) ([]store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]store.Document, 0)
	for _, doc := range s.docs {
		if doc.WorkspaceID == workspaceID {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (s *Store) GetTagsByNamespaceValue(ctx context.Context, namespace, value string) ([]store.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tags := make([]store.Tag, 0)
	for _, docTags := range s.tags {
		for _, tag := range docTags {
			if tag.Namespace == namespace && tag.Value == value {
				tags = append(tags, tag)
			}
		}
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].DocID < tags[j].DocID })
	return tags, nil
}

func (s *Store) GetFolder(ctx context.Context, id string) (*store.Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	folder, ok := s.folders[id]
	if !ok {
		return nil, nil
	}
	return &folder, nil
}

func (s *Store) GetFoldersByWorkspace(ctx context.Context, workspaceID string) ([]store.Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	folders := make([]store.Folder, 0)
	for _, folder := range s.folders {
		if folder.WorkspaceID == workspaceID {
			folders = append(folders, folder)
		}
	}
	sort.Slice(folders, func(i, j int) bool {
		if folders[i].SortIndex != folders[j].SortIndex {
			return folders[i].SortIndex < folders[j].SortIndex
		}
		return folders[i].Name < folders[j].Name
	})
	return folders, nil
}
