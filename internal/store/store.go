package store

import "context"

// Reader is the read-only graph surface consumed by the world context resolver.
// Lookups return nil or empty results on a miss; errors are reserved for I/O failures.
type Reader interface {
	GetDocument(ctx context.Context, id string) (*Document, error)
	GetTagsForDocument(ctx context.Context, id string) ([]Tag, error)
	GetOutgoingEdges(ctx context.Context, id string) ([]Edge, error)
	GetIncomingEdges(ctx context.Context, id string) ([]Edge, error)
	GetDocumentsByIDs(ctx context.Context, ids []string) ([]Document, error)
	GetDocumentsByWorkspace(ctx context.Context, workspaceID string) ([]Document, error)
	GetTagsByNamespaceValue(ctx context.Context, namespace, value string) ([]Tag, error)
	GetFolder(ctx context.Context, id string) (*Folder, error)
	GetFoldersByWorkspace(ctx context.Context, workspaceID string) ([]Folder, error)
}

// Writer is the surface used by ingest to synchronise the vault.
type Writer interface {
	EnsureSchema(ctx context.Context) error
	UpsertFolder(ctx context.Context, f Folder) error
	UpsertDocument(ctx context.Context, in DocumentInput) error
	ReplaceEdges(ctx context.Context, fromDocID string, edges []Edge) error
	SoftDeleteMissing(ctx context.Context, workspaceID string, keepIDs []string) (int64, error)
	GetSourceHashes(ctx context.Context, workspaceID string) (map[string]string, error)
}

type Store interface {
	Reader
	Writer
	Close(ctx context.Context) error
}

type SearchResult struct {
	DocID   string  `json:"docId"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// Searcher is implemented by stores with full-text search. Results exclude
// soft-deleted and index documents.
type Searcher interface {
	Search(ctx context.Context, workspaceID, query string, limit int) ([]SearchResult, error)
}
