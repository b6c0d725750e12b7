package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func (c *Client) SoftDeleteMissing(ctx context.Context, workspaceID string, keepIDs []string) (int64, error) {
	if keepIDs == nil {
		keepIDs = []string{}
	}

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
	defer session.Close(ctx)

	query := `
MATCH (d:Document {workspace_id: $workspace_id})
WHERE d.deleted_at IS NULL
  AND NOT d.id IN $keep
SET d.deleted_at = $now
RETURN count(d) AS deleted
`

	params := map[string]any{
		"workspace_id": workspaceID,
		"keep":         keepIDs,
		"now":          time.Now().UTC(),
	}

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		if res.Next(ctx) {
			value, _ := res.Record().Get("deleted")
			if count, ok := value.(int64); ok {
				return count, nil
			}
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return int64(0), nil
	})
	if err != nil {
		return 0, fmt.Errorf("soft-deleting documents: %w", err)
	}

	return result.(int64), nil
}

func (c *Client) GetSourceHashes(ctx context.Context, workspaceID string) (map[string]string, error) {
	hashes := make(map[string]string)
	err := c.read(ctx, `
MATCH (d:Document {workspace_id: $workspace_id})
WHERE d.deleted_at IS NULL AND d.source_file <> ''
RETURN d.source_file AS source_file, d.source_hash AS source_hash`,
		map[string]any{"workspace_id": workspaceID},
		func(record *neo4j.Record) error {
			sourceFile, _ := record.Get("source_file")
			sourceHash, _ := record.Get("source_hash")
			if file := toString(sourceFile); file != "" {
				hashes[file] = toString(sourceHash)
			}
			return nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("query source hashes: %w", err)
	}
	return hashes, nil
}
