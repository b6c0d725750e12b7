package memory

import (
	"context"
	"errors"
	"sort"
	"strings"

	"campaignwiki/internal/store"
)

const snippetRadius = 60

// Search performs a case-insensitive term match. Every positive term must
// appear in the title or body; terms prefixed with "-" exclude documents.
// Title hits weigh ten times body hits, mirroring the SQL stores.
func (s *Store) Search(ctx context.Context, workspaceID, query string, limit int) ([]store.SearchResult, error) {
	include, exclude := splitTerms(query)
	if len(include) == 0 {
		return nil, errors.New("query must not be empty")
	}
	if limit <= 0 {
		limit = 50
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]store.SearchResult, 0)
	for _, doc := range s.docs {
		if doc.WorkspaceID != workspaceID || !doc.Visible() {
			continue
		}
		title := strings.ToLower(doc.Title)
		body := strings.ToLower(doc.Body)

		if containsAny(title, body, exclude) {
			continue
		}

		score := 0.0
		matched := true
		for _, term := range include {
			hits := 10*strings.Count(title, term) + strings.Count(body, term)
			if hits == 0 {
				matched = false
				break
			}
			score += float64(hits)
		}
		if !matched {
			continue
		}

		results = append(results, store.SearchResult{
			DocID:   doc.ID,
			Title:   doc.Title,
			Snippet: snippet(doc.Body, body, include[0]),
			Score:   score,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Title < results[j].Title
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func splitTerms(query string) (include, exclude []string) {
	for _, field := range strings.Fields(strings.ToLower(query)) {
		field = strings.Trim(field, `"*`)
		switch field {
		case "", "and", "or", "not":
			continue
		}
		if strings.HasPrefix(field, "-") {
			if term := strings.TrimPrefix(field, "-"); term != "" {
				exclude = append(exclude, term)
			}
			continue
		}
		include = append(include, field)
	}
	return include, exclude
}

func containsAny(title, body string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(title, term) || strings.Contains(body, term) {
			return true
		}
	}
	return false
}

// snippet returns the text around the first body occurrence of term.
// lowered must be strings.ToLower(body).
func snippet(body, lowered, term string) string {
	idx := strings.Index(lowered, term)
	if idx < 0 || len(lowered) != len(body) {
		return firstRunes(body, 2*snippetRadius)
	}
	start := max(idx-snippetRadius, 0)
	end := min(idx+len(term)+snippetRadius, len(body))
	out := strings.TrimSpace(body[start:end])
	if start > 0 {
		out = "..." + out
	}
	if end < len(body) {
		out += "..."
	}
	return out
}

func firstRunes(s string, n int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n]) + "..."
}
