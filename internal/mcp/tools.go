package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"campaignwiki/internal/campaign"
	"campaignwiki/internal/encounter"
	"campaignwiki/internal/initiative"
	"campaignwiki/internal/prep"
	"campaignwiki/internal/store"
	"campaignwiki/internal/treasure"
	"campaignwiki/internal/world"
)

type DocInput struct {
	Doc string `json:"doc" jsonschema:"document id, title or vault path"`
}

type PartyInput struct {
	Size       int    `json:"size,omitempty" jsonschema:"number of characters"`
	Level      int    `json:"level,omitempty" jsonschema:"average character level"`
	Difficulty string `json:"difficulty,omitempty" jsonschema:"easy, medium, hard or deadly"`
}

type SuggestEncounterInput struct {
	Doc   string      `json:"doc,omitempty" jsonschema:"take tags from this document"`
	Tags  []string    `json:"tags,omitempty" jsonschema:"namespace:value tags such as terrain:forest or cr:2-4"`
	Party *PartyInput `json:"party,omitempty" jsonschema:"party overriding the configured default"`
	Seed  string      `json:"seed,omitempty" jsonschema:"seed for reproducible rolls"`
	Limit int         `json:"limit,omitempty" jsonschema:"maximum suggestions"`
}

type TreasureMonsterInput struct {
	Name string `json:"name,omitempty"`
	CR   string `json:"cr" jsonschema:"challenge rating such as 1/4 or 5"`
}

type SuggestTreasureInput struct {
	Monsters []TreasureMonsterInput `json:"monsters" jsonschema:"defeated monsters"`
	Mode     string                 `json:"mode,omitempty" jsonschema:"individual or hoard"`
	Seed     string                 `json:"seed,omitempty" jsonschema:"seed for reproducible rolls"`
}

type RollInitiativeInput struct {
	Players  []initiative.Player  `json:"players,omitempty" jsonschema:"player characters"`
	Monsters []initiative.Monster `json:"monsters,omitempty" jsonschema:"monster groups"`
	Seed     string               `json:"seed,omitempty" jsonschema:"seed for reproducible rolls"`
}

type PrepHelpersInput struct {
	Doc   string      `json:"doc" jsonschema:"document id, title or vault path"`
	Party *PartyInput `json:"party,omitempty" jsonschema:"party overriding the configured default"`
	Since string      `json:"since,omitempty" jsonschema:"RFC 3339 timestamp; only report changes at or after it"`
	Seed  string      `json:"seed,omitempty" jsonschema:"encounter seed; defaults to the document id"`
}

type SearchWikiInput struct {
	Query string `json:"query" jsonschema:"search terms"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum results"`
}

type SearchWikiOutput struct {
	Results []store.SearchResult `json:"results"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "world_context",
		Description: "Resolve a document's links, backlinks, tag groups, folder siblings and recent updates",
	}, s.handleWorldContext)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "suggest_encounter",
		Description: "Roll seeded encounter suggestions from terrain and travel tables",
	}, s.handleSuggestEncounter)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "suggest_treasure",
		Description: "Roll individual or hoard treasure for defeated monsters",
	}, s.handleSuggestTreasure)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "roll_initiative",
		Description: "Roll and sort initiative for players and monster groups",
	}, s.handleRollInitiative)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "prep_helpers",
		Description: "Encounter suggestion, who is involved and what changed recently for a document",
	}, s.handlePrepHelpers)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "search_wiki",
		Description: "Full-text search over document titles and bodies",
	}, s.handleSearchWiki)
}

func (s *Server) handleWorldContext(ctx context.Context, req *sdk.CallToolRequest, input DocInput) (*sdk.CallToolResult, world.Snapshot, error) {
	if strings.TrimSpace(input.Doc) == "" {
		return nil, world.Snapshot{}, fmt.Errorf("doc is required")
	}
	snapshot, err := s.svc.Context(ctx, input.Doc)
	if err != nil {
		return nil, world.Snapshot{}, err
	}
	return nil, *snapshot, nil
}

func (s *Server) handleSuggestEncounter(ctx context.Context, req *sdk.CallToolRequest, input SuggestEncounterInput) (*sdk.CallToolResult, encounter.Result, error) {
	result, err := s.svc.Encounter(ctx, campaign.EncounterRequest{
		Tags:   input.Tags,
		DocRef: input.Doc,
		Party:  partyFromInput(input.Party),
		Seed:   input.Seed,
		Limit:  input.Limit,
	})
	if err != nil {
		return nil, encounter.Result{}, err
	}
	return nil, result, nil
}

func (s *Server) handleSuggestTreasure(ctx context.Context, req *sdk.CallToolRequest, input SuggestTreasureInput) (*sdk.CallToolResult, treasure.Result, error) {
	monsters := make([]treasure.Monster, 0, len(input.Monsters))
	for _, m := range input.Monsters {
		cr, ok := treasure.ParseCR(m.CR)
		if !ok {
			return nil, treasure.Result{}, fmt.Errorf("monster %q: invalid cr %q", m.Name, m.CR)
		}
		monsters = append(monsters, treasure.Monster{Name: m.Name, CR: cr})
	}
	mode := treasure.NormalizeMode(input.Mode)
	return nil, s.svc.Treasure(treasure.Request{Monsters: monsters, Mode: mode, Seed: input.Seed}), nil
}

func (s *Server) handleRollInitiative(ctx context.Context, req *sdk.CallToolRequest, input RollInitiativeInput) (*sdk.CallToolResult, initiative.Order, error) {
	initReq := initiative.Request{
		Players:  input.Players,
		Monsters: input.Monsters,
		Seed:     input.Seed,
	}
	if err := initiative.CheckLimits(initReq); err != nil {
		return nil, initiative.Order{}, err
	}
	return nil, s.svc.Initiative(initReq), nil
}

func (s *Server) handlePrepHelpers(ctx context.Context, req *sdk.CallToolRequest, input PrepHelpersInput) (*sdk.CallToolResult, prep.Helpers, error) {
	if strings.TrimSpace(input.Doc) == "" {
		return nil, prep.Helpers{}, fmt.Errorf("doc is required")
	}
	var since *time.Time
	if input.Since != "" {
		t, err := time.Parse(time.RFC3339, input.Since)
		if err != nil {
			return nil, prep.Helpers{}, fmt.Errorf("since must be RFC 3339: %w", err)
		}
		since = &t
	}
	helpers, err := s.svc.Prep(ctx, input.Doc, campaign.PrepRequest{
		Party: partyFromInput(input.Party),
		Since: since,
		Seed:  input.Seed,
	})
	if err != nil {
		return nil, prep.Helpers{}, err
	}
	return nil, *helpers, nil
}

func (s *Server) handleSearchWiki(ctx context.Context, req *sdk.CallToolRequest, input SearchWikiInput) (*sdk.CallToolResult, SearchWikiOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchWikiOutput{}, fmt.Errorf("query is required")
	}
	results, err := s.svc.Search(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, SearchWikiOutput{}, err
	}
	return nil, SearchWikiOutput{Results: results}, nil
}

func partyFromInput(p *PartyInput) *encounter.Party {
	if p == nil {
		return nil
	}
	return &encounter.Party{Size: p.Size, Level: p.Level, Difficulty: p.Difficulty}
}
