package world

import (
	"time"

	"campaignwiki/internal/store"
)

// Snapshot is the bounded neighbourhood of one document at resolution time.
type Snapshot struct {
	Current         CurrentDoc    `json:"currentDoc"`
	LinkedDocs      []DocRef      `json:"linkedDocs"`
	Backlinks       []DocRef      `json:"backlinks"`
	TagGroups       []TagGroup    `json:"tagGroups"`
	RecentlyUpdated []DocRef      `json:"recentlyUpdated"`
	Folder          FolderContext `json:"folder"`
}

type CurrentDoc struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Tags        []store.Tag `json:"tags"`
	Excerpt     string      `json:"excerpt"`
	FolderID    *string     `json:"folderId"`
	WorkspaceID string      `json:"workspaceId"`
}

// DocRef summarises a neighbouring document. Body is kept for downstream
// summaries but never serialised.
type DocRef struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	FolderID  *string   `json:"folderId"`
	UpdatedAt time.Time `json:"updatedAt"`
	SortIndex int       `json:"sortIndex"`
	Body      string    `json:"-"`
}

type TagGroup struct {
	Namespace string   `json:"namespace"`
	Value     string   `json:"value"`
	Docs      []DocRef `json:"docs"`
}

type FolderContext struct {
	Folder   *store.Folder `json:"folder"`
	Siblings []DocRef      `json:"siblings"`
}

func refFromDocument(doc store.Document) DocRef {
	return DocRef{
		ID:        doc.ID,
		Title:     doc.Title,
		FolderID:  doc.FolderID,
		UpdatedAt: doc.UpdatedAt,
		SortIndex: doc.SortIndex,
		Body:      doc.Body,
	}
}
