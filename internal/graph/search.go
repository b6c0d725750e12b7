package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"campaignwiki/internal/store"
)

const snippetRunes = 160

// Search queries the Lucene full-text index over title and body.
func (c *Client) Search(ctx context.Context, workspaceID, query string, limit int) ([]store.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	if limit <= 0 {
		limit = 50
	}

	cypher := `
CALL db.index.fulltext.queryNodes('document_fulltext', $query) YIELD node, score
WHERE node.workspace_id = $workspace_id
  AND node.deleted_at IS NULL
  AND NOT toLower(node.title) IN ['index', '_index']
RETURN node.id AS id, node.title AS title, node.body AS body, score
ORDER BY score DESC, title ASC
LIMIT $limit
`
	params := map[string]any{"query": query, "workspace_id": workspaceID, "limit": int64(limit)}

	results := []store.SearchResult{}
	err := c.read(ctx, cypher, params, func(record *neo4j.Record) error {
		id, _ := record.Get("id")
		title, _ := record.Get("title")
		body, _ := record.Get("body")
		score, _ := record.Get("score")
		s, _ := score.(float64)
		results = append(results, store.SearchResult{
			DocID:   toString(id),
			Title:   toString(title),
			Snippet: snippet(toString(body)),
			Score:   s,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("searching documents: %w", err)
	}
	return results, nil
}

func snippet(body string) string {
	runes := []rune(strings.Join(strings.Fields(body), " "))
	if len(runes) <= snippetRunes {
		return string(runes)
	}
	return string(runes[:snippetRunes]) + "..."
}
