package store

import (
	"strings"
	"time"
)

type Document struct {
	ID          string
	Title       string
	Body        string
	FolderID    *string
	WorkspaceID string
	UpdatedAt   time.Time
	DeletedAt   *time.Time
	SortIndex   int
	SourceFile  string
	SourceHash  string
}

// Deleted reports whether the document is soft-deleted.
func (d *Document) Deleted() bool {
	return d.DeletedAt != nil
}

// IsIndex reports whether the document is a synthetic folder-listing page.
func (d *Document) IsIndex() bool {
	title := strings.ToLower(strings.TrimSpace(d.Title))
	return title == "index" || title == "_index"
}

// Visible reports whether the document may appear in graph traversal results.
func (d *Document) Visible() bool {
	return !d.Deleted() && !d.IsIndex()
}

// FolderKey returns the folder id, or "" for the workspace root.
func (d *Document) FolderKey() string {
	if d.FolderID == nil {
		return ""
	}
	return *d.FolderID
}

type Tag struct {
	DocID     string `json:"docId"`
	Namespace string `json:"namespace"`
	Value     string `json:"value"`
}

type Edge struct {
	FromDocID string
	ToDocID   string
	LinkText  string
}

type Folder struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	ParentID    *string `json:"parentId,omitempty"`
	WorkspaceID string  `json:"workspaceId"`
	SortIndex   int     `json:"sortIndex"`
}

// DocumentInput is the write model produced by ingest.
type DocumentInput struct {
	Document Document
	Tags     []Tag
}
