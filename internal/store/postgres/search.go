package postgres

import (
	"context"
	"fmt"
	"strings"

	"campaignwiki/internal/store"
)

func (c *Client) Search(ctx context.Context, workspaceID, query string, limit int) ([]store.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	if limit <= 0 {
		limit = 50
	}

	sql := `
SELECT id, title,
    ts_rank(search_vector, websearch_to_tsquery('english', $1)) AS score,
    CASE WHEN body <> '' THEN
        ts_headline('english', body, websearch_to_tsquery('english', $1),
            'MaxFragments=2, MaxWords=40, MinWords=20, StartSel=**, StopSel=**')
    ELSE '' END AS snippet
FROM documents
WHERE search_vector @@ websearch_to_tsquery('english', $1)
  AND workspace_id = $2
  AND deleted_at IS NULL
  AND lower(title) NOT IN ('index', '_index')
ORDER BY score DESC, title ASC
LIMIT $3
`

	rows, err := c.pool.Query(ctx, sql, query, workspaceID, limit)
	if err != nil {
		return nil, fmt.Errorf("searching documents: %w", err)
	}
	defer rows.Close()

	results := []store.SearchResult{}
	for rows.Next() {
		var r store.SearchResult
		if err := rows.Scan(&r.DocID, &r.Title, &r.Score, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}

	return results, nil
}
