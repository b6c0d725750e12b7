package world

import (
	"strings"

	"campaignwiki/internal/parser"
)

const (
	ExcerptLimit = 280
	ellipsis     = "…"
)

// Excerpt renders body as plain text: front matter dropped, wikilinks
// unwrapped to their labels, inline tags removed, whitespace collapsed and
// the result truncated to limit runes.
func Excerpt(body string, limit int) string {
	if _, rest, err := parser.SplitFrontmatter([]byte(body)); err == nil {
		body = rest
	}
	text := parser.UnwrapWikilinks(body)
	text = parser.StripInlineTags(text)
	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return strings.TrimRight(string(runes[:limit]), " ") + ellipsis
}
