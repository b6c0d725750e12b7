package postgres

import (
	"context"
	"fmt"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	// All statements run in one implicit transaction.
	ddl := `
CREATE TABLE IF NOT EXISTS folders (
    id           TEXT PRIMARY KEY,
    name         TEXT NOT NULL,
    parent_id    TEXT,
    workspace_id TEXT NOT NULL,
    sort_index   INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS documents (
    id            TEXT PRIMARY KEY,
    title         TEXT NOT NULL,
    body          TEXT NOT NULL DEFAULT '',
    folder_id     TEXT,
    workspace_id  TEXT NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    deleted_at    TIMESTAMPTZ,
    sort_index    INTEGER NOT NULL DEFAULT 0,
    source_file   TEXT NOT NULL DEFAULT '',
    source_hash   TEXT NOT NULL DEFAULT '',
    search_vector TSVECTOR
);

CREATE TABLE IF NOT EXISTS tags (
    doc_id    TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    namespace TEXT NOT NULL,
    value     TEXT NOT NULL,
    position  INTEGER NOT NULL DEFAULT 0,
    CONSTRAINT uq_tag UNIQUE (doc_id, namespace, value)
);

CREATE TABLE IF NOT EXISTS edges (
    from_doc_id TEXT NOT NULL,
    to_doc_id   TEXT NOT NULL,
    link_text   TEXT NOT NULL DEFAULT '',
    position    INTEGER NOT NULL DEFAULT 0,
    CONSTRAINT uq_edge UNIQUE (from_doc_id, to_doc_id, link_text)
);

CREATE INDEX IF NOT EXISTS idx_documents_search ON documents USING GIN (search_vector);
CREATE INDEX IF NOT EXISTS idx_documents_workspace ON documents (workspace_id);
CREATE INDEX IF NOT EXISTS idx_documents_folder ON documents (folder_id);
CREATE INDEX IF NOT EXISTS idx_documents_source_file ON documents (source_file);
CREATE INDEX IF NOT EXISTS idx_documents_live ON documents (workspace_id) WHERE deleted_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_folders_workspace ON folders (workspace_id);
CREATE INDEX IF NOT EXISTS idx_tags_namespace_value ON tags (namespace, value);
CREATE INDEX IF NOT EXISTS idx_edges_from ON edges (from_doc_id);
CREATE INDEX IF NOT EXISTS idx_edges_to ON edges (to_doc_id);
`
	_, err := c.pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
