package sqlite

import (
	"context"
	"fmt"
	"strings"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS folders (
		id           TEXT PRIMARY KEY,
		name         TEXT NOT NULL,
		parent_id    TEXT,
		workspace_id TEXT NOT NULL,
		sort_index   INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS documents (
		id           TEXT PRIMARY KEY,
		title        TEXT NOT NULL,
		body         TEXT NOT NULL DEFAULT '',
		folder_id    TEXT,
		workspace_id TEXT NOT NULL,
		updated_at   TEXT NOT NULL,
		deleted_at   TEXT,
		sort_index   INTEGER NOT NULL DEFAULT 0,
		source_file  TEXT NOT NULL DEFAULT '',
		source_hash  TEXT NOT NULL DEFAULT ''
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

	CREATE INDEX IF NOT EXISTS idx_documents_workspace ON documents (workspace_id);
	CREATE INDEX IF NOT EXISTS idx_documents_folder ON documents (folder_id);
	CREATE INDEX IF NOT EXISTS idx_documents_source_file ON documents (source_file);
	CREATE INDEX IF NOT EXISTS idx_folders_workspace ON folders (workspace_id);
	CREATE INDEX IF NOT EXISTS idx_tags_namespace_value ON tags (namespace, value);
	CREATE INDEX IF NOT EXISTS idx_edges_from ON edges (from_doc_id);
	CREATE INDEX IF NOT EXISTS idx_edges_to ON edges (to_doc_id);

	CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
		title,
		body,
		content=documents,
		content_rowid=rowid
	);

	CREATE TRIGGER IF NOT EXISTS documents_ai AFTER INSERT ON documents BEGIN
		INSERT INTO documents_fts(rowid, title, body)
		VALUES (new.rowid, new.title, new.body);
	END;

	CREATE TRIGGER IF NOT EXISTS documents_ad AFTER DELETE ON documents BEGIN
		INSERT INTO documents_fts(documents_fts, rowid, title, body)
		VALUES ('delete', old.rowid, old.title, old.body);
	END;

	CREATE TRIGGER IF NOT EXISTS documents_au AFTER UPDATE ON documents BEGIN
		INSERT INTO documents_fts(documents_fts, rowid, title, body)
		VALUES ('delete', old.rowid, old.title, old.body);
		INSERT INTO documents_fts(rowid, title, body)
		VALUES (new.rowid, new.title, new.body);
	END;
	`

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	statements := splitStatements(ddl)
	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}

	return nil
}

// splitStatements splits on lines ending in ";". Trigger bodies end their
// inner statements with ";" too, so lines inside BEGIN...END are joined.
func splitStatements(ddl string) []string {
	var statements []string
	var current strings.Builder
	inTrigger := false

	for _, line := range strings.Split(ddl, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		upper := strings.ToUpper(stripped)
		if strings.HasPrefix(upper, "CREATE TRIGGER") {
			inTrigger = true
		}
		if inTrigger {
			if upper == "END;" {
				inTrigger = false
				statements = append(statements, current.String())
				current.Reset()
			}
			continue
		}

		if strings.HasSuffix(stripped, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}

	if current.Len() > 0 {
		statements = append(statements, current.String())
	}

	return statements
}
