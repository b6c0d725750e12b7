package postgres

import (
	"context"
	"fmt"
)

func (c *Client) SoftDeleteMissing(ctx context.Context, workspaceID string, keepIDs []string) (int64, error) {
	if keepIDs == nil {
		keepIDs = []string{}
	}
	query := `
UPDATE documents SET deleted_at = now()
WHERE workspace_id = $1
  AND deleted_at IS NULL
  AND NOT (id = ANY($2))
`

	tag, err := c.pool.Exec(ctx, query, workspaceID, keepIDs)
	if err != nil {
		return 0, fmt.Errorf("soft-deleting documents: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (c *Client) GetSourceHashes(ctx context.Context, workspaceID string) (map[string]string, error) {
	query := `
SELECT source_file, source_hash FROM documents
WHERE workspace_id = $1
  AND source_file <> ''
  AND deleted_at IS NULL
`

	rows, err := c.pool.Query(ctx, query, workspaceID)
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
