package parser

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// DefaultNamespace is given to tags written without a namespace.
const DefaultNamespace = "tag"

type Tag struct {
	Namespace string
	Value     string
}

// Link is an outgoing reference. Target is a page title for wikilinks and a
// relative path for markdown links.
type Link struct {
	Target   string
	Label    string
	Wikilink bool
}

type Document struct {
	Frontmatter   map[string]any
	Title         string
	Tags          []Tag
	Links         []Link
	Body          string
	ChangeSummary string
	SortIndex     int
	SourceFile    string
}

var (
	ErrInvalidYAML             = errors.New("invalid YAML in frontmatter")
	ErrUnterminatedFrontmatter = errors.New("frontmatter is not terminated")
)

var (
	wikilinkPattern  = regexp.MustCompile(`\[\[([^\]|#]+)(?:#[^\]|]*)?(?:\|([^\]]+))?\]\]`)
	inlineTagPattern = regexp.MustCompile(`(^|\s)#([A-Za-z][\w-]*(?::[\w'+-]+)?)`)
	headingPattern   = regexp.MustCompile(`(?m)^#\s+(.+?)\s*$`)
)

func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	doc.SourceFile = path
	if doc.Title == "" {
		doc.Title = TitleFromPath(path)
	}
	return doc, nil
}

// TitleFromPath is the file name without its extension.
func TitleFromPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// Parse reads optional YAML front matter followed by a markdown body.
func Parse(content []byte) (*Document, error) {
	frontmatter, body, err := SplitFrontmatter(content)
	if err != nil {
		return nil, err
	}

	title, _ := frontmatter["title"].(string)
	title = strings.TrimSpace(title)
	if title == "" {
		if match := headingPattern.FindStringSubmatch(body); match != nil {
			title = UnwrapWikilinks(match[1])
		}
	}

	tags, err := parseTags(frontmatter["tags"])
	if err != nil {
		return nil, err
	}
	tags = append(tags, InlineTags(body)...)

	summary, _ := frontmatter["change_summary"].(string)

	return &Document{
		Frontmatter:   frontmatter,
		Title:         title,
		Tags:          dedupeTags(tags),
		Links:         extractLinks(body),
		Body:          body,
		ChangeSummary: strings.TrimSpace(summary),
		SortIndex:     toInt(frontmatter["sort"]),
	}, nil
}

// SplitFrontmatter separates front matter from the body. Content without a
// leading `---` line has an empty front matter map.
func SplitFrontmatter(content []byte) (map[string]any, string, error) {
	trimmed := bytes.TrimLeft(content, "\ufeff\n\r\t ")
	trimmed = bytes.ReplaceAll(trimmed, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(trimmed, []byte("---\n")) {
		return map[string]any{}, string(content), nil
	}

	rest := trimmed[len("---\n"):]
	var yamlBytes, body []byte
	switch {
	case bytes.HasPrefix(rest, []byte("---\n")):
		body = rest[len("---\n"):]
	default:
		end := bytes.Index(rest, []byte("\n---\n"))
		if end == -1 {
			if bytes.HasSuffix(rest, []byte("\n---")) {
				end = len(rest) - len("\n---")
				yamlBytes = rest[:end]
				break
			}
			return nil, "", ErrUnterminatedFrontmatter
		}
		yamlBytes = rest[:end]
		body = rest[end+len("\n---\n"):]
	}

	frontmatter := map[string]any{}
	if len(bytes.TrimSpace(yamlBytes)) > 0 {
		if err := yaml.Unmarshal(yamlBytes, &frontmatter); err != nil {
			return nil, "", ErrInvalidYAML
		}
		if frontmatter == nil {
			frontmatter = map[string]any{}
		}
	}
	return frontmatter, string(body), nil
}

// ParseTag splits "namespace:value". Bare values get DefaultNamespace.
func ParseTag(raw string) (Tag, bool) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "#"))
	if raw == "" {
		return Tag{}, false
	}
	namespace, value, found := strings.Cut(raw, ":")
	if !found {
		return Tag{Namespace: DefaultNamespace, Value: strings.ToLower(raw)}, true
	}
	namespace = strings.ToLower(strings.TrimSpace(namespace))
	value = strings.TrimSpace(value)
	if namespace == "" || value == "" {
		return Tag{}, false
	}
	return Tag{Namespace: namespace, Value: value}, true
}

func parseTags(value any) ([]Tag, error) {
	if value == nil {
		return nil, nil
	}
	var raw []string
	switch v := value.(type) {
	case string:
		raw = strings.Split(v, ",")
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("tags must be strings")
			}
			raw = append(raw, s)
		}
	default:
		return nil, fmt.Errorf("tags must be string or list of strings")
	}

	tags := make([]Tag, 0, len(raw))
	for _, item := range raw {
		if tag, ok := ParseTag(item); ok {
			tags = append(tags, tag)
		}
	}
	return tags, nil
}

// InlineTags returns `#tag` and `#namespace:value` tokens found in body.
func InlineTags(body string) []Tag {
	var tags []Tag
	for _, match := range inlineTagPattern.FindAllStringSubmatch(body, -1) {
		if tag, ok := ParseTag(match[2]); ok {
			tags = append(tags, tag)
		}
	}
	return tags
}

// StripInlineTags removes inline tag tokens from text.
func StripInlineTags(s string) string {
	return inlineTagPattern.ReplaceAllString(s, "$1")
}

// UnwrapWikilinks replaces `[[Target|Label]]` with Label and `[[Target]]` with Target.
func UnwrapWikilinks(s string) string {
	return wikilinkPattern.ReplaceAllStringFunc(s, func(m string) string {
		parts := wikilinkPattern.FindStringSubmatch(m)
		if strings.TrimSpace(parts[2]) != "" {
			return strings.TrimSpace(parts[2])
		}
		return strings.TrimSpace(parts[1])
	})
}

// FirstLine returns the first non-empty line of body, trimmed.
func FirstLine(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

func extractLinks(body string) []Link {
	var links []Link
	seen := make(map[string]struct{})
	add := func(link Link) {
		key := strings.ToLower(link.Target)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		links = append(links, link)
	}

	for _, match := range wikilinkPattern.FindAllStringSubmatch(body, -1) {
		target := strings.TrimSpace(match[1])
		if target == "" {
			continue
		}
		label := strings.TrimSpace(match[2])
		if label == "" {
			label = target
		}
		add(Link{Target: target, Label: label, Wikilink: true})
	}

	source := []byte(body)
	root := goldmark.DefaultParser().Parse(text.NewReader(source))
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		link, ok := n.(*ast.Link)
		if !ok {
			return ast.WalkContinue, nil
		}
		dest := string(link.Destination)
		if strings.Contains(dest, "://") || !strings.HasSuffix(strings.ToLower(stripFragment(dest)), ".md") {
			return ast.WalkSkipChildren, nil
		}
		add(Link{Target: stripFragment(dest), Label: nodeText(link, source)})
		return ast.WalkSkipChildren, nil
	})

	return links
}

func nodeText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
			continue
		}
		buf.WriteString(nodeText(child, source))
	}
	return buf.String()
}

func stripFragment(dest string) string {
	if i := strings.IndexAny(dest, "#?"); i >= 0 {
		return dest[:i]
	}
	return dest
}

func dedupeTags(tags []Tag) []Tag {
	seen := make(map[Tag]struct{}, len(tags))
	out := make([]Tag, 0, len(tags))
	for _, tag := range tags {
		key := Tag{Namespace: tag.Namespace, Value: strings.ToLower(tag.Value)}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func toInt(value any) int {
	switch v := value.(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
