package sqlite

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"campaignwiki/internal/store"
)

func (c *Client) Search(ctx context.Context, workspaceID, query string, limit int) ([]store.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	if limit <= 0 {
		limit = 50
	}

	ftsQuery := convertWebsearchToFTS5(query)
	if ftsQuery == "" {
		return []store.SearchResult{}, nil
	}

	sqlQuery := `
	SELECT d.id, d.title,
		   -bm25(documents_fts, 10.0, 1.0) AS score,
		   snippet(documents_fts, 1, '**', '**', '...', 24) AS snippet
	FROM documents_fts
	JOIN documents d ON documents_fts.rowid = d.rowid
	WHERE documents_fts MATCH ?
	  AND d.workspace_id = ?
	  AND d.deleted_at IS NULL
	  AND lower(d.title) NOT IN ('index', '_index')
	ORDER BY score DESC, d.title ASC
	LIMIT ?
	`

	rows, err := c.db.QueryContext(ctx, sqlQuery, ftsQuery, workspaceID, limit)
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

type ftsToken struct {
	text     string
	phrase   bool
	negated  bool
	operator bool
}

// tokenizeQuery splits a web-style query into phrases, terms and the
// operators AND, OR and NOT. A leading '-' negates a term.
func tokenizeQuery(query string) []ftsToken {
	var tokens []ftsToken
	for rest := strings.TrimSpace(query); rest != ""; rest = strings.TrimSpace(rest) {
		if rest[0] == '"' {
			phrase, after, closed := strings.Cut(rest[1:], `"`)
			if !closed {
				after = ""
			}
			if phrase = strings.TrimSpace(phrase); phrase != "" {
				tokens = append(tokens, ftsToken{text: phrase, phrase: true})
			}
			rest = after
			continue
		}
		end := strings.IndexAny(rest, " \t\"")
		if end < 0 {
			end = len(rest)
		}
		word := rest[:end]
		rest = rest[end:]
		switch upper := strings.ToUpper(word); upper {
		case "AND", "OR", "NOT":
			tokens = append(tokens, ftsToken{text: upper, operator: true})
		default:
			if strings.HasPrefix(word, "-") && len(word) > 1 {
				tokens = append(tokens, ftsToken{text: word[1:], negated: true})
			} else if word != "-" && word != "*" {
				tokens = append(tokens, ftsToken{text: word})
			}
		}
	}
	return tokens
}

// convertWebsearchToFTS5 renders a web-style query as an FTS5 MATCH
// expression. Adjacent terms are joined with AND and negated terms become
// binary NOT, which FTS5 cannot express at the start of a query, so leading
// negations are dropped.
func convertWebsearchToFTS5(query string) string {
	var parts []string
	pendingOp := ""
	for _, tok := range tokenizeQuery(query) {
		if tok.operator {
			if len(parts) > 0 {
				pendingOp = tok.text
			}
			continue
		}
		if len(parts) == 0 && tok.negated {
			continue
		}
		if len(parts) > 0 {
			op := pendingOp
			if tok.negated {
				op = "NOT"
			} else if op == "" {
				op = "AND"
			}
			parts = append(parts, op)
		}
		parts = append(parts, ftsTerm(tok))
		pendingOp = ""
	}
	return strings.Join(parts, " ")
}

// ftsTerm quotes anything FTS5 would read as syntax, keeping a trailing '*'
// as a prefix query.
func ftsTerm(tok ftsToken) string {
	if tok.phrase {
		return `"` + strings.ReplaceAll(tok.text, `"`, `""`) + `"`
	}
	word, prefix := strings.CutSuffix(tok.text, "*")
	if isBareword(word) {
		return tok.text
	}
	quoted := `"` + strings.ReplaceAll(word, `"`, `""`) + `"`
	if prefix {
		quoted += "*"
	}
	return quoted
}

func isBareword(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}
