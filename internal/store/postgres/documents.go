package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"campaignwiki/internal/store"
)

const documentColumns = `id, title, body, folder_id, workspace_id, updated_at, deleted_at, sort_index, source_file, source_hash`

func (c *Client) UpsertDocument(ctx context.Context, in store.DocumentInput) error {
	d := in.Document

	return pgx.BeginFunc(ctx, c.pool, func(tx pgx.Tx) error {
		query := `
INSERT INTO documents (id, title, body, folder_id, workspace_id, updated_at, deleted_at, sort_index, source_file, source_hash, search_vector)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
    setweight(to_tsvector('simple', coalesce($2, '')), 'A') ||
    setweight(to_tsvector('english', coalesce($3, '')), 'C')
)
ON CONFLICT (id) DO UPDATE SET
    title = EXCLUDED.title,
    body = EXCLUDED.body,
    folder_id = EXCLUDED.folder_id,
    workspace_id = EXCLUDED.workspace_id,
    updated_at = EXCLUDED.updated_at,
    deleted_at = EXCLUDED.deleted_at,
    sort_index = EXCLUDED.sort_index,
    source_file = EXCLUDED.source_file,
    source_hash = EXCLUDED.source_hash,
    search_vector = EXCLUDED.search_vector
`
		_, err := tx.Exec(ctx, query,
			d.ID,
			d.Title,
			d.Body,
			d.FolderID,
			d.WorkspaceID,
			d.UpdatedAt,
			d.DeletedAt,
			d.SortIndex,
			d.SourceFile,
			d.SourceHash,
		)
		if err != nil {
			return fmt.Errorf("upserting document: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM tags WHERE doc_id = $1`, d.ID); err != nil {
			return fmt.Errorf("clearing tags: %w", err)
		}

		batch := &pgx.Batch{}
		for i, tag := range in.Tags {
			batch.Queue(
				`INSERT INTO tags (doc_id, namespace, value, position) VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING`,
				d.ID, tag.Namespace, tag.Value, i,
			)
		}
		if batch.Len() > 0 {
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return fmt.Errorf("inserting tags: %w", err)
			}
		}
		return nil
	})
}

func (c *Client) GetDocument(ctx context.Context, id string) (*store.Document, error) {
	rows, err := c.pool.Query(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}
	doc, err := pgx.CollectOneRow(rows, scanDocument)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	return &doc, nil
}

func (c *Client) GetDocumentsByIDs(ctx context.Context, ids []string) ([]store.Document, error) {
	if len(ids) == 0 {
		return []store.Document{}, nil
	}
	return c.queryDocuments(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ANY($1) ORDER BY id`, ids)
}

func (c *Client) GetDocumentsByWorkspace(ctx context.Context, workspaceID string) ([]store.Document, error) {
	return c.queryDocuments(ctx, `SELECT `+documentColumns+` FROM documents WHERE workspace_id = $1 ORDER BY id`, workspaceID)
}

func (c *Client) GetTagsForDocument(ctx context.Context, id string) ([]store.Tag, error) {
	return c.queryTags(ctx, `SELECT doc_id, namespace, value FROM tags WHERE doc_id = $1 ORDER BY position`, id)
}

func (c *Client) GetTagsByNamespaceValue(ctx context.Context, namespace, value string) ([]store.Tag, error) {
	return c.queryTags(ctx,
		`SELECT doc_id, namespace, value FROM tags WHERE namespace = $1 AND value = $2 ORDER BY doc_id`,
		namespace, value,
	)
}

func (c *Client) queryDocuments(ctx context.Context, query string, args ...any) ([]store.Document, error) {
	rows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	docs, err := pgx.CollectRows(rows, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("scanning documents: %w", err)
	}
	if docs == nil {
		docs = []store.Document{}
	}
	return docs, nil
}

func (c *Client) queryTags(ctx context.Context, query string, args ...any) ([]store.Tag, error) {
	rows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	tags, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.Tag, error) {
		var tag store.Tag
		err := row.Scan(&tag.DocID, &tag.Namespace, &tag.Value)
		return tag, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning tags: %w", err)
	}
	if tags == nil {
		tags = []store.Tag{}
	}
	return tags, nil
}

func scanDocument(row pgx.CollectableRow) (store.Document, error) {
	var doc store.Document
	err := row.Scan(
		&doc.ID,
		&doc.Title,
		&doc.Body,
		&doc.FolderID,
		&doc.WorkspaceID,
		&doc.UpdatedAt,
		&doc.DeletedAt,
		&doc.SortIndex,
		&doc.SourceFile,
		&doc.SourceHash,
	)
	return doc, err
}
