package graph

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"campaignwiki/internal/store"
)

// Tag keys are stored as a flat list so membership can use IN.
func tagKey(namespace, value string) string {
	return namespace + ":" + value
}

func documentFromNode(node neo4j.Node) store.Document {
	props := node.Props
	return store.Document{
		ID:          toString(props["id"]),
		Title:       toString(props["title"]),
		Body:        toString(props["body"]),
		FolderID:    toStringPtr(props["folder_id"]),
		WorkspaceID: toString(props["workspace_id"]),
		UpdatedAt:   toTime(props["updated_at"]),
		DeletedAt:   toTimePtr(props["deleted_at"]),
		SortIndex:   toInt(props["sort_index"]),
		SourceFile:  toString(props["source_file"]),
		SourceHash:  toString(props["source_hash"]),
	}
}

func folderFromNode(node neo4j.Node) store.Folder {
	props := node.Props
	return store.Folder{
		ID:          toString(props["id"]),
		Name:        toString(props["name"]),
		ParentID:    toStringPtr(props["parent_id"]),
		WorkspaceID: toString(props["workspace_id"]),
		SortIndex:   toInt(props["sort_index"]),
	}
}

func toStringSlice(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case []string:
		return append([]string{}, v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func toString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return ""
}

func toStringPtr(value any) *string {
	s, ok := value.(string)
	if !ok {
		return nil
	}
	return &s
}

func toInt(value any) int {
	if n, ok := value.(int64); ok {
		return int(n)
	}
	return 0
}

func toTime(value any) time.Time {
	if t, ok := value.(time.Time); ok {
		return t.UTC()
	}
	return time.Time{}
}

func toTimePtr(value any) *time.Time {
	t, ok := value.(time.Time)
	if !ok {
		return nil
	}
	t = t.UTC()
	return &t
}

func derefString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func derefTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
