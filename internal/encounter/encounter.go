// Package encounter suggests encounters for a document's tags by sampling the
// terrain and travel d100 tables with a seeded source. Every result carries
// the resolved parameters, an explain trace and warnings so a run can be
// audited and reproduced.
package encounter

import (
	"strings"
	"unicode"

	"campaignwiki/internal/random"
	"campaignwiki/internal/rules"
	"campaignwiki/internal/store"
	"campaignwiki/internal/trace"
)

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
	DifficultyDeadly = "deadly"

	DefaultLimit = 6
	maxRetries   = 12

	// excludedTravelTag never selects a travel table.
	excludedTravelTag = "wilderness"
)

const (
	SourceTravel   = "travel"
	SourceTerrain  = "terrain"
	SourceFallback = "fallback"
)

type Party struct {
	Size       int    `json:"size"`
	Level      int    `json:"level"`
	Difficulty string `json:"difficulty"`
}

type Request struct {
	Tags  []store.Tag
	Party Party
	Seed  string
	Limit int
}

// Deps are the collaborators of Generate. Rng overrides the seed-derived source.
type Deps struct {
	Registry *rules.Registry
	Budget   BudgetFunc
	Rng      random.Func
}

// TagSet is the partitioned, deduplicated tag snapshot used for matching.
type TagSet struct {
	Creature []string `json:"creature"`
	Terrain  []string `json:"terrain"`
	Travel   []string `json:"travel"`
	CR       []string `json:"cr"`
}

type Suggestion struct {
	TableID       string   `json:"tableId"`
	TableTitle    string   `json:"tableTitle"`
	Roll          int      `json:"roll"`
	Range         [2]int   `json:"range"`
	Text          string   `json:"text"`
	Type          string   `json:"type"`
	CRBucket      string   `json:"crBucket"`
	Monsters      []string `json:"monsterSuggestions"`
	NeedsHomebrew bool     `json:"needsHomebrew"`
	Fallback      bool     `json:"fallback"`
	MatchedTags   TagSet   `json:"matchedTags"`
}

type Logic struct {
	TableID        string `json:"tableId"`
	TableTitle     string `json:"tableTitle"`
	TableSource    string `json:"tableSource"`
	SelectedBy     string `json:"selectedBy,omitempty"`
	Party          Party  `json:"party"`
	Seeded         bool   `json:"seeded"`
	Limit          int    `json:"limit"`
	BucketFilter   bool   `json:"bucketFilter"`
	CreatureFilter bool   `json:"creatureFilter"`
	CandidateCount int    `json:"candidateCount"`
}

type InputsUsed struct {
	Tags  TagSet `json:"tags"`
	Party Party  `json:"party"`
	Seed  string `json:"seed"`
	Limit int    `json:"limit"`
}

type Plan struct {
	Budget    int      `json:"budget"`
	Rolls     []int    `json:"rolls"`
	CRBuckets []string `json:"crBuckets"`
}

type Result struct {
	Suggestions []Suggestion `json:"results"`
	Logic       Logic        `json:"logic"`
	Explain     []trace.Step `json:"explain"`
	Warnings    []string     `json:"warnings"`
	InputsUsed  InputsUsed   `json:"inputsUsed"`
	Plan        Plan         `json:"encounterPlan"`
}

// Generate rolls up to Limit distinct entries from the table selected by the tags.
func Generate(req Request, deps Deps) Result {
	var rec trace.Recorder
	party := normalizeParty(req.Party)
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	tags := PartitionTags(req.Tags)

	result := Result{
		Suggestions: []Suggestion{},
		InputsUsed:  InputsUsed{Tags: tags, Party: party, Seed: req.Seed, Limit: limit},
		Plan:        Plan{Rolls: []int{}},
	}
	result.Logic.Party = party
	result.Logic.Limit = limit

	rng := deps.Rng
	switch {
	case rng != nil:
		result.Logic.Seeded = true
	case req.Seed != "":
		rng = random.New(req.Seed)
		result.Logic.Seeded = true
	default:
		rng = random.Platform()
		rec.Warn("No seed provided; encounter rolls are not reproducible.")
	}
	rec.Explain("tags", "creature=%s terrain=%s travel=%s cr=%s",
		joinOrNone(tags.Creature), joinOrNone(tags.Terrain), joinOrNone(tags.Travel), joinOrNone(tags.CR))

	table, source, selectedBy := selectTable(deps.Registry, tags, rng)
	if table == nil {
		rec.Warn("No encounter tables are available.")
		result.Explain = rec.Steps()
		result.Warnings = rec.Warnings()
		return result
	}
	result.Logic.TableID = table.ID
	result.Logic.TableTitle = table.Title
	result.Logic.TableSource = source
	result.Logic.SelectedBy = selectedBy
	switch source {
	case SourceFallback:
		rec.Warn("No terrain or travel table matched the tags; using default table %s.", table.ID)
		rec.Explain("table", "%s (fallback)", table.ID)
	default:
		rec.Explain("table", "%s selected by %s tag %q", table.ID, source, selectedBy)
	}

	buckets := ResolveCRBuckets(tags.CR, party.Level, party.Difficulty)
	result.Plan.CRBuckets = buckets
	if len(tags.CR) > 0 {
		rec.Explain("crBuckets", "explicit cr tags: %s", strings.Join(buckets, ", "))
	} else {
		rec.Explain("crBuckets", "party level %d at %s difficulty: %s", party.Level, party.Difficulty, strings.Join(buckets, ", "))
	}

	candidates, bucketActive, creatureActive := filterEntries(table, buckets, tags.Creature, &rec)
	result.Logic.BucketFilter = bucketActive
	result.Logic.CreatureFilter = creatureActive
	result.Logic.CandidateCount = len(candidates)
	rec.Explain("filter", "%d of %d entries eligible", len(candidates), len(table.Entries))

	eligible := make(map[int]bool, len(candidates))
	for _, i := range candidates {
		eligible[i] = true
	}
	used := make(map[int]bool)

	picks := min(limit, len(table.Entries))
	for p := 0; p < picks; p++ {
		picked, roll := -1, 0
		for attempt := 0; attempt < maxRetries; attempt++ {
			roll = random.D100(rng)
			result.Plan.Rolls = append(result.Plan.Rolls, roll)
			i, ok := table.EntryForRoll(roll)
			if !ok || !eligible[i] || used[i] {
				continue
			}
			picked = i
			break
		}

		fallback := false
		if picked < 0 {
			var unused []int
			for _, i := range candidates {
				if !used[i] {
					unused = append(unused, i)
				}
			}
			if len(unused) == 0 {
				rec.Explain("stop", "no unused entries remain after %d suggestions", len(result.Suggestions))
				break
			}
			picked = unused[random.Index(rng, len(unused))]
			fallback = true
			rec.Warn("Roll %d fell outside filtered entries; using fallback pick.", roll)
		}

		used[picked] = true
		entry := table.Entries[picked]
		rec.Explain("roll", "d100=%d -> %d-%d %s", roll, entry.Min, entry.Max, entry.Type)
		result.Suggestions = append(result.Suggestions, Suggestion{
			TableID:       table.ID,
			TableTitle:    table.Title,
			Roll:          roll,
			Range:         [2]int{entry.Min, entry.Max},
			Text:          entry.Text,
			Type:          entry.Type,
			CRBucket:      entry.CRBucket,
			Monsters:      append([]string{}, entry.Monsters...),
			NeedsHomebrew: entry.NeedsHomebrew,
			Fallback:      fallback,
			MatchedTags:   tags,
		})
	}

	budget := deps.Budget
	if budget == nil {
		budget = Budget
	}
	result.Plan.Budget = budget(BudgetInput{PartySize: party.Size, PartyLevel: party.Level, Difficulty: party.Difficulty})
	rec.Explain("budget", "%d XP for %d characters of level %d (%s)", result.Plan.Budget, party.Size, party.Level, party.Difficulty)

	for _, s := range result.Suggestions {
		if s.NeedsHomebrew {
			rec.Warn("Entry %d-%d of %s needs homebrew stat blocks.", s.Range[0], s.Range[1], s.TableID)
		}
	}

	result.Explain = rec.Steps()
	result.Warnings = rec.Warnings()
	return result
}

// PartitionTags splits tags into creature, terrain, travel and CR sets.
// Values are trimmed, lower-cased and deduplicated in first-seen order.
func PartitionTags(tags []store.Tag) TagSet {
	set := TagSet{Creature: []string{}, Terrain: []string{}, Travel: []string{}, CR: []string{}}
	for _, tag := range tags {
		value := strings.ToLower(strings.TrimSpace(tag.Value))
		if value == "" {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(tag.Namespace)) {
		case "creature", "creature_type", "creature-type":
			set.Creature = appendUnique(set.Creature, value)
		case "terrain", "ecosystem":
			set.Terrain = appendUnique(set.Terrain, value)
		case "travel":
			set.Travel = appendUnique(set.Travel, value)
		case "cr":
			set.CR = appendUnique(set.CR, value)
		}
	}
	return set
}

func selectTable(registry *rules.Registry, tags TagSet, rng random.Func) (*rules.Table, string, string) {
	type candidate struct {
		table *rules.Table
		tag   string
	}

	var travel []candidate
	for _, tag := range tags.Travel {
		if tag == excludedTravelTag {
			continue
		}
		if table, ok := registry.Travel(tag); ok {
			travel = append(travel, candidate{table: table, tag: tag})
		}
	}
	if len(travel) > 0 {
		c := travel[random.Index(rng, len(travel))]
		return c.table, SourceTravel, c.tag
	}

	var terrain []candidate
	for _, tag := range tags.Terrain {
		if table, ok := registry.Terrain(tag); ok {
			terrain = append(terrain, candidate{table: table, tag: tag})
		}
	}
	if len(terrain) > 0 {
		c := terrain[random.Index(rng, len(terrain))]
		return c.table, SourceTerrain, c.tag
	}

	if table := registry.Default(); table != nil {
		return table, SourceFallback, ""
	}
	if tables := registry.Tables(); len(tables) > 0 {
		return &tables[0], SourceFallback, ""
	}
	return nil, "", ""
}

// filterEntries returns the indices of eligible entries and which filters held.
func filterEntries(table *rules.Table, buckets []string, creatures []string, rec *trace.Recorder) ([]int, bool, bool) {
	labels := bucketLabels(buckets)
	var bucketed []int
	for i, entry := range table.Entries {
		if _, ok := labels[entry.CRBucket]; ok {
			bucketed = append(bucketed, i)
		}
	}
	bucketActive := len(bucketed) > 0
	if !bucketActive {
		rec.Warn("No entries matched CR buckets %s; showing full table.", strings.Join(buckets, ", "))
		bucketed = make([]int, len(table.Entries))
		for i := range table.Entries {
			bucketed[i] = i
		}
	}

	if len(creatures) == 0 {
		return bucketed, bucketActive, false
	}

	var matched []int
	for _, i := range bucketed {
		if matchesCreature(table.Entries[i], creatures) {
			matched = append(matched, i)
		}
	}
	if len(matched) == 0 {
		rec.Warn("No entries matched creature tags; showing full CR bucket.")
		return bucketed, bucketActive, false
	}
	return matched, bucketActive, true
}

func matchesCreature(entry rules.Entry, creatures []string) bool {
	text := normalizeText(entry.Text)
	for _, creature := range creatures {
		needle := normalizeText(creature)
		if needle == "" {
			continue
		}
		if strings.Contains(text, needle) {
			return true
		}
		for _, monster := range entry.Monsters {
			if strings.Contains(normalizeText(monster), needle) {
				return true
			}
		}
	}
	return false
}

// normalizeText lower-cases and drops everything but letters and digits.
func normalizeText(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func normalizeParty(p Party) Party {
	p.Size = clamp(p.Size, 1, 10)
	p.Level = clamp(p.Level, 1, 20)
	p.Difficulty = normalizeDifficulty(p.Difficulty)
	return p
}

func normalizeDifficulty(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	if _, ok := difficultyDelta[d]; ok {
		return d
	}
	return DifficultyMedium
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ",")
}
