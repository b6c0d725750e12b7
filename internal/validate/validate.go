// Package validate lints an ingested vault: tags the rule data cannot
// use, documents nothing links to, ambiguous titles and broken links.
package validate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"campaignwiki/internal/ingest"
	"campaignwiki/internal/rules"
	"campaignwiki/internal/store"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeInvalidCR      = "invalid_cr_bucket"
	codeUnknownTerrain = "unknown_terrain"
	codeUnknownTravel  = "unknown_travel"
	codeOrphanedDoc    = "orphaned_document"
	codeDuplicateTitle = "duplicate_title"
	codeUnresolvedLink = "unresolved_link"
)

// wilderness marks off-road travel and never selects a table.
const wildernessTravel = "wilderness"

type Issue struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	DocID    string   `json:"docId,omitempty"`
	Title    string   `json:"title,omitempty"`
	FilePath string   `json:"filePath,omitempty"`
}

type Report struct {
	Issues []Issue `json:"issues"`
}

// Errors counts issues with error severity.
func (r *Report) Errors() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			n++
		}
	}
	return n
}

type Input struct {
	WorkspaceID string
	// Registry is optional; without it terrain and travel tags are not checked.
	Registry   *rules.Registry
	Unresolved []ingest.UnresolvedLink
}

func Run(ctx context.Context, reader store.Reader, in Input) (*Report, error) {
	if reader == nil {
		return nil, fmt.Errorf("store is required")
	}
	if strings.TrimSpace(in.WorkspaceID) == "" {
		return nil, fmt.Errorf("workspace is required")
	}

	docs, err := reader.GetDocumentsByWorkspace(ctx, in.WorkspaceID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	visible := make(map[string]store.Document, len(docs))
	for _, doc := range docs {
		if doc.Visible() {
			visible[doc.ID] = doc
		}
	}

	issues := make([]Issue, 0)
	for _, doc := range docs {
		if !doc.Visible() {
			continue
		}
		tags, err := reader.GetTagsForDocument(ctx, doc.ID)
		if err != nil {
			return nil, fmt.Errorf("get tags for %s: %w", doc.ID, err)
		}
		issues = append(issues, validateTags(doc, tags, in.Registry)...)

		orphaned, err := isOrphaned(ctx, reader, doc.ID, visible)
		if err != nil {
			return nil, err
		}
		if orphaned {
			issues = append(issues, issueFor(doc, SeverityWarn, codeOrphanedDoc, "no other document links to or from this page"))
		}
	}

	issues = append(issues, duplicateTitles(docs)...)

	for _, link := range in.Unresolved {
		issues = append(issues, Issue{
			Severity: SeverityWarn,
			Code:     codeUnresolvedLink,
			Message:  fmt.Sprintf("link target %q does not match any document", link.Target),
			FilePath: link.SourceFile,
		})
	}

	return &Report{Issues: issues}, nil
}

func validateTags(doc store.Document, tags []store.Tag, registry *rules.Registry) []Issue {
	var issues []Issue
	for _, tag := range tags {
		value := strings.ToLower(strings.TrimSpace(tag.Value))
		switch tag.Namespace {
		case "cr":
			if !rules.IsCRBucket(value) {
				issues = append(issues, issueFor(doc, SeverityError, codeInvalidCR,
					fmt.Sprintf("cr:%s is not one of %s", tag.Value, strings.Join(rules.CRBuckets, ", "))))
			}
		case rules.KindTerrain:
			if registry == nil {
				continue
			}
			if _, ok := registry.Terrain(value); !ok {
				issues = append(issues, issueFor(doc, SeverityWarn, codeUnknownTerrain,
					fmt.Sprintf("no encounter table for terrain:%s", tag.Value)))
			}
		case rules.KindTravel:
			if registry == nil || value == wildernessTravel {
				continue
			}
			if _, ok := registry.Travel(value); !ok {
				issues = append(issues, issueFor(doc, SeverityWarn, codeUnknownTravel,
					fmt.Sprintf("no encounter table for travel:%s", tag.Value)))
			}
		}
	}
	return issues
}

// isOrphaned ignores links from index pages, which reach every member.
func isOrphaned(ctx context.Context, reader store.Reader, id string, visible map[string]store.Document) (bool, error) {
	outgoing, err := reader.GetOutgoingEdges(ctx, id)
	if err != nil {
		return false, fmt.Errorf("get outgoing edges for %s: %w", id, err)
	}
	for _, edge := range outgoing {
		if _, ok := visible[edge.ToDocID]; ok {
			return false, nil
		}
	}
	incoming, err := reader.GetIncomingEdges(ctx, id)
	if err != nil {
		return false, fmt.Errorf("get incoming edges for %s: %w", id, err)
	}
	for _, edge := range incoming {
		if _, ok := visible[edge.FromDocID]; ok {
			return false, nil
		}
	}
	return true, nil
}

func duplicateTitles(docs []store.Document) []Issue {
	byTitle := make(map[string][]store.Document)
	for _, doc := range docs {
		if !doc.Visible() {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(doc.Title))
		byTitle[key] = append(byTitle[key], doc)
	}

	keys := make([]string, 0, len(byTitle))
	for key, group := range byTitle {
		if len(group) > 1 {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var issues []Issue
	for _, key := range keys {
		group := byTitle[key]
		for _, doc := range group {
			issues = append(issues, issueFor(doc, SeverityError, codeDuplicateTitle,
				fmt.Sprintf("title shared by %d documents; wiki links to it are ambiguous", len(group))))
		}
	}
	return issues
}

func issueFor(doc store.Document, severity Severity, code, message string) Issue {
	return Issue{
		Severity: severity,
		Code:     code,
		Message:  message,
		DocID:    doc.ID,
		Title:    doc.Title,
		FilePath: doc.SourceFile,
	}
}
