// Package campaign wires a store and the rule data to the prep generators.
// The MCP server, the HTTP API and the CLI all call through a Service.
package campaign

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"campaignwiki/internal/encounter"
	"campaignwiki/internal/initiative"
	"campaignwiki/internal/parser"
	"campaignwiki/internal/prep"
	"campaignwiki/internal/rules"
	"campaignwiki/internal/store"
	"campaignwiki/internal/treasure"
	"campaignwiki/internal/world"
)

var (
	ErrNotFound          = errors.New("document not found")
	ErrSearchUnsupported = errors.New("store does not support search")
)

type Options struct {
	WorkspaceID string
	Registry    *rules.Registry
	Loot        *rules.Loot
	Party       encounter.Party
	// FolderTypes overrides prep.DefaultFolderTypes when non-nil.
	FolderTypes map[string]string
	// Budget defaults to encounter.Budget.
	Budget encounter.BudgetFunc
}

type Service struct {
	reader   store.Reader
	resolver *world.Resolver
	opts     Options
}

func New(reader store.Reader, opts Options) *Service {
	if opts.Budget == nil {
		opts.Budget = encounter.Budget
	}
	return &Service{
		reader:   reader,
		resolver: world.NewResolver(reader),
		opts:     opts,
	}
}

func (s *Service) WorkspaceID() string { return s.opts.WorkspaceID }

// DefaultParty is the configured party used when a request omits one.
func (s *Service) DefaultParty() encounter.Party { return s.opts.Party }

// Resolve finds a live document by id, then by case-insensitive title, then
// by source path suffix within the configured workspace.
func (s *Service) Resolve(ctx context.Context, ref string) (*store.Document, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrNotFound
	}
	doc, err := s.reader.GetDocument(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", ref, err)
	}
	if doc != nil && !doc.Deleted() {
		return doc, nil
	}
	if s.opts.WorkspaceID == "" {
		return nil, ErrNotFound
	}

	docs, err := s.reader.GetDocumentsByWorkspace(ctx, s.opts.WorkspaceID)
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", ref, err)
	}
	want := strings.ToLower(ref)
	for i := range docs {
		if docs[i].Visible() && strings.ToLower(docs[i].Title) == want {
			return &docs[i], nil
		}
	}
	suffix := "/" + strings.TrimPrefix(path.Clean(strings.ReplaceAll(ref, "\\", "/")), "/")
	for i := range docs {
		if !docs[i].Visible() {
			continue
		}
		source := "/" + strings.TrimPrefix(strings.ReplaceAll(docs[i].SourceFile, "\\", "/"), "/")
		if strings.HasSuffix(source, suffix) || strings.HasSuffix(source, suffix+".md") {
			return &docs[i], nil
		}
	}
	return nil, ErrNotFound
}

// Context resolves ref and builds its world snapshot.
func (s *Service) Context(ctx context.Context, ref string) (*world.Snapshot, error) {
	doc, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.resolver.Build(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, ErrNotFound
	}
	return snapshot, nil
}

type PrepRequest struct {
	Party *encounter.Party
	Since *time.Time
	Seed  string
}

func (s *Service) Prep(ctx context.Context, ref string, req PrepRequest) (*prep.Helpers, error) {
	snapshot, err := s.Context(ctx, ref)
	if err != nil {
		return nil, err
	}
	folders, err := s.reader.GetFoldersByWorkspace(ctx, snapshot.Current.WorkspaceID)
	if err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}
	helpers := prep.Build(snapshot, folders, prep.Options{
		Party:         s.party(req.Party),
		Since:         req.Since,
		EncounterSeed: req.Seed,
		FolderTypes:   s.opts.FolderTypes,
	}, prep.Deps{Registry: s.opts.Registry, Budget: s.opts.Budget})
	return helpers, nil
}

type EncounterRequest struct {
	// Tags are "namespace:value" strings; ignored when DocRef is set.
	Tags   []string
	DocRef string
	Party  *encounter.Party
	Seed   string
	Limit  int
}

func (s *Service) Encounter(ctx context.Context, req EncounterRequest) (encounter.Result, error) {
	var tags []store.Tag
	if req.DocRef != "" {
		snapshot, err := s.Context(ctx, req.DocRef)
		if err != nil {
			return encounter.Result{}, err
		}
		tags = snapshot.Current.Tags
	} else {
		tags = ParseTags(req.Tags)
	}
	result := encounter.Generate(encounter.Request{
		Tags:  tags,
		Party: s.party(req.Party),
		Seed:  req.Seed,
		Limit: req.Limit,
	}, encounter.Deps{Registry: s.opts.Registry, Budget: s.opts.Budget})
	return result, nil
}

func (s *Service) Treasure(req treasure.Request) treasure.Result {
	return treasure.Generate(req, treasure.Deps{Loot: s.opts.Loot})
}

func (s *Service) Initiative(req initiative.Request) initiative.Order {
	return initiative.Build(req, nil)
}

func (s *Service) Search(ctx context.Context, query string, limit int) ([]store.SearchResult, error) {
	searcher, ok := s.reader.(store.Searcher)
	if !ok {
		return nil, ErrSearchUnsupported
	}
	return searcher.Search(ctx, s.opts.WorkspaceID, query, limit)
}

func (s *Service) party(p *encounter.Party) encounter.Party {
	if p == nil {
		return s.opts.Party
	}
	party := *p
	if party.Size == 0 {
		party.Size = s.opts.Party.Size
	}
	if party.Level == 0 {
		party.Level = s.opts.Party.Level
	}
	if party.Difficulty == "" {
		party.Difficulty = s.opts.Party.Difficulty
	}
	return party
}

// ParseTags converts "namespace:value" strings with the wiki's tag rules.
// Unparseable entries are skipped.
func ParseTags(raw []string) []store.Tag {
	tags := make([]store.Tag, 0, len(raw))
	for _, r := range raw {
		tag, ok := parser.ParseTag(r)
		if !ok {
			continue
		}
		tags = append(tags, store.Tag{Namespace: tag.Namespace, Value: tag.Value})
	}
	return tags
}
