package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"campaignwiki/internal/store"
)

const documentColumns = `id, title, body, folder_id, workspace_id, updated_at, deleted_at, sort_index, source_file, source_hash`

func (c *Client) UpsertDocument(ctx context.Context, in store.DocumentInput) error {
	d := in.Document
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO documents (id, title, body, folder_id, workspace_id, updated_at, deleted_at, sort_index, source_file, source_hash)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		title = excluded.title,
		body = excluded.body,
		folder_id = excluded.folder_id,
		workspace_id = excluded.workspace_id,
		updated_at = excluded.updated_at,
		deleted_at = excluded.deleted_at,
		sort_index = excluded.sort_index,
		source_file = excluded.source_file,
		source_hash = excluded.source_hash
	`
	_, err = tx.ExecContext(ctx, query,
		d.ID,
		d.Title,
		d.Body,
		nullString(d.FolderID),
		d.WorkspaceID,
		formatTime(d.UpdatedAt),
		nullTime(d.DeletedAt),
		d.SortIndex,
		d.SourceFile,
		d.SourceHash,
	)
	if err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE doc_id = ?`, d.ID); err != nil {
		return fmt.Errorf("clearing tags: %w", err)
	}
	for i, tag := range in.Tags {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO tags (doc_id, namespace, value, position) VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING`,
			d.ID, tag.Namespace, tag.Value, i,
		)
		if err != nil {
			return fmt.Errorf("inserting tag %s:%s: %w", tag.Namespace, tag.Value, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing document: %w", err)
	}
	return nil
}

func (c *Client) UpsertFolder(ctx context.Context, f store.Folder) error {
	query := `
	INSERT INTO folders (id, name, parent_id, workspace_id, sort_index)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		name = excluded.name,
		parent_id = excluded.parent_id,
		workspace_id = excluded.workspace_id,
		sort_index = excluded.sort_index
	`
	if _, err := c.db.ExecContext(ctx, query, f.ID, f.Name, nullString(f.ParentID), f.WorkspaceID, f.SortIndex); err != nil {
		return fmt.Errorf("upserting folder: %w", err)
	}
	return nil
}

func (c *Client) GetDocument(ctx context.Context, id string) (*store.Document, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}
	return &doc, nil
}

func (c *Client) GetDocumentsByIDs(ctx context.Context, ids []string) ([]store.Document, error) {
	if len(ids) == 0 {
		return []store.Document{}, nil
	}
	placeholders, args := inClause(ids)
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE id IN (%s) ORDER BY id`, documentColumns, placeholders)
	return c.queryDocuments(ctx, query, args...)
}

func (c *Client) GetDocumentsByWorkspace(ctx context.Context, workspaceID string) ([]store.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE workspace_id = ? ORDER BY id`
	return c.queryDocuments(ctx, query, workspaceID)
}

func (c *Client) GetTagsForDocument(ctx context.Context, id string) ([]store.Tag, error) {
	return c.queryTags(ctx, `SELECT doc_id, namespace, value FROM tags WHERE doc_id = ? ORDER BY position`, id)
}

func (c *Client) GetTagsByNamespaceValue(ctx context.Context, namespace, value string) ([]store.Tag, error) {
	return c.queryTags(ctx,
		`SELECT doc_id, namespace, value FROM tags WHERE namespace = ? AND value = ? ORDER BY doc_id`,
		namespace, value,
	)
}

func (c *Client) GetFolder(ctx context.Context, id string) (*store.Folder, error) {
	row := c.db.QueryRowContext(ctx, `SELECT id, name, parent_id, workspace_id, sort_index FROM folders WHERE id = ?`, id)
	folder, err := scanFolder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting folder: %w", err)
	}
	return &folder, nil
}

func (c *Client) GetFoldersByWorkspace(ctx context.Context, workspaceID string) ([]store.Folder, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, name, parent_id, workspace_id, sort_index FROM folders WHERE workspace_id = ? ORDER BY sort_index, name`,
		workspaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("query folders: %w", err)
	}
	defer rows.Close()

	folders := []store.Folder{}
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning folder: %w", err)
		}
		folders = append(folders, folder)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating folders: %w", err)
	}
	return folders, nil
}

func (c *Client) queryDocuments(ctx context.Context, query string, args ...any) ([]store.Document, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	docs := []store.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

func (c *Client) queryTags(ctx context.Context, query string, args ...any) ([]store.Tag, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	tags := []store.Tag{}
	for rows.Next() {
		var tag store.Tag
		if err := rows.Scan(&tag.DocID, &tag.Namespace, &tag.Value); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tags: %w", err)
	}
	return tags, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (store.Document, error) {
	var (
		doc       store.Document
		folderID  sql.NullString
		updatedAt string
		deletedAt sql.NullString
	)
	err := s.Scan(
		&doc.ID,
		&doc.Title,
		&doc.Body,
		&folderID,
		&doc.WorkspaceID,
		&updatedAt,
		&deletedAt,
		&doc.SortIndex,
		&doc.SourceFile,
		&doc.SourceHash,
	)
	if err != nil {
		return store.Document{}, err
	}
	if folderID.Valid {
		doc.FolderID = &folderID.String
	}
	if doc.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return store.Document{}, err
	}
	if deletedAt.Valid {
		t, err := parseTime(deletedAt.String)
		if err != nil {
			return store.Document{}, err
		}
		doc.DeletedAt = &t
	}
	return doc, nil
}

func scanFolder(s scanner) (store.Folder, error) {
	var (
		folder   store.Folder
		parentID sql.NullString
	)
	if err := s.Scan(&folder.ID, &folder.Name, &parentID, &folder.WorkspaceID, &folder.SortIndex); err != nil {
		return store.Folder{}, err
	}
	if parentID.Valid {
		folder.ParentID = &parentID.String
	}
	return folder, nil
}

func inClause(values []string) (string, []any) {
	placeholders := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		args[i] = v
	}
	return strings.Join(placeholders, ", "), args
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}
