package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"campaignwiki/internal/store"
)

func (c *Client) UpsertDocument(ctx context.Context, in store.DocumentInput) error {
	d := in.Document
	namespaces := make([]string, len(in.Tags))
	values := make([]string, len(in.Tags))
	keys := make([]string, len(in.Tags))
	for i, tag := range in.Tags {
		namespaces[i] = tag.Namespace
		values[i] = tag.Value
		keys[i] = tagKey(tag.Namespace, tag.Value)
	}

	params := map[string]any{
		"id":             d.ID,
		"title":          d.Title,
		"body":           d.Body,
		"folder_id":      derefString(d.FolderID),
		"workspace_id":   d.WorkspaceID,
		"updated_at":     d.UpdatedAt,
		"deleted_at":     derefTime(d.DeletedAt),
		"sort_index":     int64(d.SortIndex),
		"source_file":    d.SourceFile,
		"source_hash":    d.SourceHash,
		"tag_namespaces": namespaces,
		"tag_values":     values,
		"tag_keys":       keys,
	}

	query := `
MERGE (d:Document {id: $id})
SET d.title = $title,
    d.body = $body,
    d.folder_id = $folder_id,
    d.workspace_id = $workspace_id,
    d.updated_at = $updated_at,
    d.deleted_at = $deleted_at,
    d.sort_index = $sort_index,
    d.source_file = $source_file,
    d.source_hash = $source_hash,
    d.tag_namespaces = $tag_namespaces,
    d.tag_values = $tag_values,
    d.tag_keys = $tag_keys
`
	if err := c.write(ctx, statement{query: query, params: params}); err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}
	return nil
}

func (c *Client) UpsertFolder(ctx context.Context, f store.Folder) error {
	query := `
MERGE (f:Folder {id: $id})
SET f.name = $name,
    f.parent_id = $parent_id,
    f.workspace_id = $workspace_id,
    f.sort_index = $sort_index
`
	params := map[string]any{
		"id":           f.ID,
		"name":         f.Name,
		"parent_id":    derefString(f.ParentID),
		"workspace_id": f.WorkspaceID,
		"sort_index":   int64(f.SortIndex),
	}
	if err := c.write(ctx, statement{query: query, params: params}); err != nil {
		return fmt.Errorf("upserting folder: %w", err)
	}
	return nil
}

func (c *Client) GetDocument(ctx context.Context, id string) (*store.Document, error) {
	docs, err := c.queryDocuments(ctx, `MATCH (d:Document {id: $id}) RETURN d`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return &docs[0], nil
}

func (c *Client) GetDocumentsByIDs(ctx context.Context, ids []string) ([]store.Document, error) {
	if len(ids) == 0 {
		return []store.Document{}, nil
	}
	docs, err := c.queryDocuments(ctx, `MATCH (d:Document) WHERE d.id IN $ids RETURN d ORDER BY d.id`, map[string]any{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("getting documents: %w", err)
	}
	return docs, nil
}

func (c *Client) GetDocumentsByWorkspace(ctx context.Context, workspaceID string) ([]store.Document, error) {
	docs, err := c.queryDocuments(ctx,
		`MATCH (d:Document {workspace_id: $workspace_id}) RETURN d ORDER BY d.id`,
		map[string]any{"workspace_id": workspaceID},
	)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return docs, nil
}

func (c *Client) GetTagsForDocument(ctx context.Context, id string) ([]store.Tag, error) {
	tags := []store.Tag{}
	err := c.read(ctx,
		`MATCH (d:Document {id: $id}) RETURN d.tag_namespaces AS namespaces, d.tag_values AS values`,
		map[string]any{"id": id},
		func(record *neo4j.Record) error {
			namespaces, _ := record.Get("namespaces")
			values, _ := record.Get("values")
			ns := toStringSlice(namespaces)
			vs := toStringSlice(values)
			for i := range min(len(ns), len(vs)) {
				tags = append(tags, store.Tag{DocID: id, Namespace: ns[i], Value: vs[i]})
			}
			return nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("getting tags: %w", err)
	}
	return tags, nil
}

func (c *Client) GetTagsByNamespaceValue(ctx context.Context, namespace, value string) ([]store.Tag, error) {
	tags := []store.Tag{}
	err := c.read(ctx,
		`MATCH (d:Document) WHERE $key IN d.tag_keys RETURN d.id AS id ORDER BY d.id`,
		map[string]any{"key": tagKey(namespace, value)},
		func(record *neo4j.Record) error {
			id, _ := record.Get("id")
			tags = append(tags, store.Tag{DocID: toString(id), Namespace: namespace, Value: value})
			return nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("looking up tags: %w", err)
	}
	return tags, nil
}

func (c *Client) GetFolder(ctx context.Context, id string) (*store.Folder, error) {
	folders, err := c.queryFolders(ctx, `MATCH (f:Folder {id: $id}) RETURN f`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("getting folder: %w", err)
	}
	if len(folders) == 0 {
		return nil, nil
	}
	return &folders[0], nil
}

func (c *Client) GetFoldersByWorkspace(ctx context.Context, workspaceID string) ([]store.Folder, error) {
	folders, err := c.queryFolders(ctx,
		`MATCH (f:Folder {workspace_id: $workspace_id}) RETURN f ORDER BY f.sort_index, f.name`,
		map[string]any{"workspace_id": workspaceID},
	)
	if err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}
	return folders, nil
}

func (c *Client) queryDocuments(ctx context.Context, query string, params map[string]any) ([]store.Document, error) {
	docs := []store.Document{}
	err := c.read(ctx, query, params, func(record *neo4j.Record) error {
		value, _ := record.Get("d")
		node, ok := value.(neo4j.Node)
		if !ok {
			return fmt.Errorf("unexpected document value %T", value)
		}
		docs = append(docs, documentFromNode(node))
		return nil
	})
	return docs, err
}

func (c *Client) queryFolders(ctx context.Context, query string, params map[string]any) ([]store.Folder, error) {
	folders := []store.Folder{}
	err := c.read(ctx, query, params, func(record *neo4j.Record) error {
		value, _ := record.Get("f")
		node, ok := value.(neo4j.Node)
		if !ok {
			return fmt.Errorf("unexpected folder value %T", value)
		}
		folders = append(folders, folderFromNode(node))
		return nil
	})
	return folders, err
}
