// Package prep combines a world snapshot with the generators into the prep
// helpers shown next to a document: an encounter suggestion, who is
// involved, and what changed recently.
package prep

import (
	"sort"
	"strings"
	"time"

	"campaignwiki/internal/encounter"
	"campaignwiki/internal/parser"
	"campaignwiki/internal/random"
	"campaignwiki/internal/rules"
	"campaignwiki/internal/store"
	"campaignwiki/internal/world"
)

// Involvement types, in the order folders are matched against them.
const (
	TypeNPC      = "npc"
	TypePC       = "pc"
	TypeLocation = "location"
	TypeFaction  = "faction"
	TypeItem     = "item"
	TypeQuest    = "quest"
	TypeCreature = "creature"
	TypeEvent    = "event"
)

const (
	SourceLinked      = "linked"
	SourceBacklink    = "backlink"
	SourceLocationTag = "locationTag"
)

const (
	ReasonCurrentDoc     = "currentDoc"
	ReasonLinked         = "linked"
	ReasonBacklink       = "backlink"
	ReasonLocationTag    = "locationTag"
	ReasonRecentCampaign = "recentCampaignUpdate"
)

const changeSummaryKey = "change_summary"

// DefaultFolderTypes maps lower-cased folder names to involvement types.
var DefaultFolderTypes = map[string]string{
	"npc": TypeNPC, "npcs": TypeNPC, "character": TypeNPC, "characters": TypeNPC, "people": TypeNPC,
	"pc": TypePC, "pcs": TypePC, "player": TypePC, "players": TypePC, "party": TypePC,
	"location": TypeLocation, "locations": TypeLocation, "places": TypeLocation,
	"faction": TypeFaction, "factions": TypeFaction, "organizations": TypeFaction, "organisations": TypeFaction,
	"item": TypeItem, "items": TypeItem, "artifacts": TypeItem, "loot": TypeItem,
	"quest": TypeQuest, "quests": TypeQuest,
	"creature": TypeCreature, "creatures": TypeCreature, "monsters": TypeCreature, "bestiary": TypeCreature,
	"event": TypeEvent, "events": TypeEvent, "timeline": TypeEvent,
}

type Deps struct {
	Registry *rules.Registry
	Budget   encounter.BudgetFunc
	Rng      random.Func
}

type Options struct {
	Party         encounter.Party
	Since         *time.Time
	EncounterSeed string
	// FolderTypes overrides DefaultFolderTypes when non-nil.
	FolderTypes map[string]string
}

type Involvement struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Type    string   `json:"type"`
	Sources []string `json:"sources"`
}

type Change struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updatedAt"`
	Reason    string    `json:"reason"`
	Change    string    `json:"change"`
}

type Helpers struct {
	SuggestEncounter    encounter.Result `json:"suggestEncounter"`
	WhosInvolved        []Involvement    `json:"whosInvolved"`
	WhatChangedRecently []Change         `json:"whatChangedRecently"`
}

// Build returns nil when snapshot is nil.
func Build(snapshot *world.Snapshot, folders []store.Folder, opts Options, deps Deps) *Helpers {
	if snapshot == nil {
		return nil
	}
	seed := opts.EncounterSeed
	if seed == "" {
		seed = snapshot.Current.ID
	}
	return &Helpers{
		SuggestEncounter: encounter.Generate(encounter.Request{
			Tags:  snapshot.Current.Tags,
			Party: opts.Party,
			Seed:  seed,
		}, encounter.Deps{Registry: deps.Registry, Budget: deps.Budget, Rng: deps.Rng}),
		WhosInvolved:        WhosInvolved(snapshot, folders, opts.FolderTypes),
		WhatChangedRecently: WhatChangedRecently(snapshot, opts.Since),
	}
}

// WhosInvolved lists linked, backlinking and location-tagged documents whose
// folder classifies them, merged by id and sorted by type then title.
// A nil folderTypes uses DefaultFolderTypes.
func WhosInvolved(snapshot *world.Snapshot, folders []store.Folder, folderTypes map[string]string) []Involvement {
	if folderTypes == nil {
		folderTypes = DefaultFolderTypes
	}
	names := make(map[string]string, len(folders))
	for _, f := range folders {
		names[f.ID] = f.Name
	}

	byID := make(map[string]*Involvement)
	var order []string
	add := func(ref world.DocRef, source string) {
		if ref.ID == snapshot.Current.ID {
			return
		}
		if existing, ok := byID[ref.ID]; ok {
			if !contains(existing.Sources, source) {
				existing.Sources = append(existing.Sources, source)
			}
			return
		}
		kind, ok := classify(ref, names, folderTypes)
		if !ok {
			return
		}
		byID[ref.ID] = &Involvement{ID: ref.ID, Title: ref.Title, Type: kind, Sources: []string{source}}
		order = append(order, ref.ID)
	}

	for _, ref := range snapshot.LinkedDocs {
		add(ref, SourceLinked)
	}
	for _, ref := range snapshot.Backlinks {
		add(ref, SourceBacklink)
	}
	for _, group := range snapshot.TagGroups {
		if group.Namespace != "location" {
			continue
		}
		for _, ref := range group.Docs {
			add(ref, SourceLocationTag)
		}
	}

	out := make([]Involvement, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		ti, tj := strings.ToLower(out[i].Title), strings.ToLower(out[j].Title)
		if ti != tj {
			return ti < tj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// WhatChangedRecently lists recently updated documents at or after since,
// documents related to the current one first.
func WhatChangedRecently(snapshot *world.Snapshot, since *time.Time) []Change {
	reasons := make(map[string]string)
	mark := func(refs []world.DocRef, reason string) {
		for _, ref := range refs {
			if _, ok := reasons[ref.ID]; !ok {
				reasons[ref.ID] = reason
			}
		}
	}
	reasons[snapshot.Current.ID] = ReasonCurrentDoc
	mark(snapshot.LinkedDocs, ReasonLinked)
	mark(snapshot.Backlinks, ReasonBacklink)
	for _, group := range snapshot.TagGroups {
		if group.Namespace == "location" {
			mark(group.Docs, ReasonLocationTag)
		}
	}

	var related, rest []Change
	for _, ref := range snapshot.RecentlyUpdated {
		if since != nil && ref.UpdatedAt.Before(*since) {
			continue
		}
		change := Change{ID: ref.ID, Title: ref.Title, UpdatedAt: ref.UpdatedAt, Change: ChangeText(ref.Body)}
		if reason, ok := reasons[ref.ID]; ok {
			change.Reason = reason
			related = append(related, change)
			continue
		}
		change.Reason = ReasonRecentCampaign
		rest = append(rest, change)
	}
	return append(append(make([]Change, 0, len(related)+len(rest)), related...), rest...)
}

// ChangeText is the change_summary front matter field, or the first
// non-empty line of the body.
func ChangeText(body string) string {
	frontmatter, rest, err := parser.SplitFrontmatter([]byte(body))
	if err != nil {
		return parser.FirstLine(body)
	}
	if summary, ok := frontmatter[changeSummaryKey].(string); ok && strings.TrimSpace(summary) != "" {
		return strings.TrimSpace(summary)
	}
	return parser.FirstLine(rest)
}

func classify(ref world.DocRef, folderNames, folderTypes map[string]string) (string, bool) {
	if ref.FolderID == nil {
		return "", false
	}
	name := strings.ToLower(strings.TrimSpace(folderNames[*ref.FolderID]))
	kind, ok := folderTypes[name]
	return kind, ok
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
