package sqlite

import (
	"context"
	"fmt"
)

func (c *Client) SoftDeleteMissing(ctx context.Context, workspaceID string, keepIDs []string) (int64, error) {
	query := `UPDATE documents SET deleted_at = ? WHERE workspace_id = ? AND deleted_at IS NULL`
	args := []any{formatTime(c.now()), workspaceID}
	if len(keepIDs) > 0 {
		placeholders, keep := inClause(keepIDs)
		query += fmt.Sprintf(` AND id NOT IN (%s)`, placeholders)
		args = append(args, keep...)
	}

	result, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("soft-deleting documents: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	return affected, nil
}

func (c *Client) GetSourceHashes(ctx context.Context, workspaceID string) (map[string]string, error) {
	query := `
	SELECT source_file, source_hash FROM documents
	WHERE workspace_id = ?
	  AND source_file <> ''
	  AND deleted_at IS NULL
	`

	rows, err := c.db.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("query source hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var sourceFile, sourceHash string
		if err := rows.Scan(&sourceFile, &sourceHash); err != nil {
			return nil, fmt.Errorf("scanning source hash: %w", err)
		}
		hashes[sourceFile] = sourceHash
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating source hashes: %w", err)
	}

	return hashes, nil
}
