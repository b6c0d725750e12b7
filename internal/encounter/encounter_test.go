package encounter

import (
	"reflect"
	"testing"

	"campaignwiki/internal/rules"
	"campaignwiki/internal/store"
)

func defaultDeps(t *testing.T) Deps {
	t.Helper()
	registry, err := rules.DefaultRegistry()
	if err != nil {
		t.Fatalf("loading registry: %v", err)
	}
	return Deps{Registry: registry}
}

func tags(pairs ...string) []store.Tag {
	out := make([]store.Tag, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, store.Tag{Namespace: pairs[i], Value: pairs[i+1]})
	}
	return out
}

func TestGenerateForestScenario(t *testing.T) {
	result := Generate(Request{
		Tags:  tags("terrain", "forest", "cr", "0-1"),
		Party: Party{Size: 4, Level: 3, Difficulty: DifficultyMedium},
		Seed:  "forest-seed",
	}, defaultDeps(t))

	if result.Logic.TableID != "forest_encounters_d100" {
		t.Fatalf("expected forest table, got %q", result.Logic.TableID)
	}
	if result.Logic.TableSource != SourceTerrain || result.Logic.SelectedBy != "forest" {
		t.Fatalf("unexpected provenance: %s/%s", result.Logic.TableSource, result.Logic.SelectedBy)
	}
	if !reflect.DeepEqual(result.Plan.CRBuckets, []string{"cr:0-1"}) {
		t.Fatalf("unexpected buckets: %v", result.Plan.CRBuckets)
	}
	if result.Plan.Budget != 600 {
		t.Fatalf("expected budget 600, got %d", result.Plan.Budget)
	}

	type pick struct {
		roll     int
		min      int
		fallback bool
	}
	want := []pick{{32, 25, false}, {11, 9, false}, {74, 17, true}, {2, 1, false}}
	if len(result.Suggestions) != len(want) {
		t.Fatalf("expected %d suggestions, got %d", len(want), len(result.Suggestions))
	}
	for i, w := range want {
		got := result.Suggestions[i]
		if got.Roll != w.roll || got.Range[0] != w.min || got.Fallback != w.fallback {
			t.Fatalf("suggestion %d: got roll %d range %v fallback %v", i, got.Roll, got.Range, got.Fallback)
		}
		if got.CRBucket != "0-1" {
			t.Fatalf("suggestion %d outside bucket: %q", i, got.CRBucket)
		}
	}

	wantRolls := []int{52, 32, 11, 53, 88, 69, 69, 57, 38, 43, 77, 82, 45, 95, 74, 18, 9, 2, 4, 18, 58, 45, 47, 35, 90, 1, 47, 94, 30, 56}
	if !reflect.DeepEqual(result.Plan.Rolls, wantRolls) {
		t.Fatalf("unexpected rolls: %v", result.Plan.Rolls)
	}
	wantWarnings := []string{"Roll 74 fell outside filtered entries; using fallback pick."}
	if !reflect.DeepEqual(result.Warnings, wantWarnings) {
		t.Fatalf("unexpected warnings: %v", result.Warnings)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	req := Request{
		Tags:  tags("terrain", "swamp", "creature", "lizardfolk"),
		Party: Party{Size: 5, Level: 7, Difficulty: DifficultyHard},
		Seed:  "bog",
	}
	first := Generate(req, defaultDeps(t))
	second := Generate(req, defaultDeps(t))
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results for identical seeds")
	}
}

func TestGenerateCreatureFallback(t *testing.T) {
	result := Generate(Request{
		Tags:  tags("terrain", "forest", "cr", "0-1", "creature", "dragon"),
		Party: Party{Size: 4, Level: 3},
		Seed:  "forest-seed",
	}, defaultDeps(t))

	if result.Logic.CreatureFilter {
		t.Fatalf("creature filter should be inactive after fallback")
	}
	if len(result.Warnings) == 0 || result.Warnings[0] != "No entries matched creature tags; showing full CR bucket." {
		t.Fatalf("expected creature fallback warning, got %v", result.Warnings)
	}
	for _, s := range result.Suggestions {
		if s.CRBucket != "0-1" {
			t.Fatalf("fallback drew outside the bucket pool: %+v", s)
		}
	}
	if len(result.Suggestions) != 4 {
		t.Fatalf("expected 4 suggestions, got %d", len(result.Suggestions))
	}
}

func TestGenerateBucketFallbackUsesFullTable(t *testing.T) {
	deps := defaultDeps(t)
	table, ok := deps.Registry.Terrain("forest")
	if !ok {
		t.Fatalf("expected forest table")
	}

	result := Generate(Request{
		Tags:  tags("terrain", "forest", "cr", "nonsense"),
		Party: Party{Size: 4, Level: 3, Difficulty: DifficultyMedium},
		Seed:  "bucket-fallback",
	}, deps)

	if result.Logic.BucketFilter {
		t.Fatalf("bucket filter should be inactive when no entry matches")
	}
	if result.Logic.CandidateCount != len(table.Entries) {
		t.Fatalf("expected %d candidates, got %d", len(table.Entries), result.Logic.CandidateCount)
	}
	want := "No entries matched CR buckets cr:nonsense; showing full table."
	if len(result.Warnings) == 0 || result.Warnings[0] != want {
		t.Fatalf("expected bucket fallback warning, got %v", result.Warnings)
	}
	if len(result.Suggestions) == 0 {
		t.Fatalf("expected suggestions from the full table")
	}
}

func TestGenerateCreatureFilterNarrowsPool(t *testing.T) {
	result := Generate(Request{
		Tags:  tags("terrain", "forest", "cr", "0-1", "creature", "Goblin"),
		Party: Party{Size: 4, Level: 3},
		Seed:  "forest-seed",
	}, defaultDeps(t))

	if !result.Logic.CreatureFilter || result.Logic.CandidateCount != 1 {
		t.Fatalf("expected a single creature match, got %+v", result.Logic)
	}
	if len(result.Suggestions) != 1 || result.Suggestions[0].Roll != 11 {
		t.Fatalf("unexpected suggestions: %+v", result.Suggestions)
	}
	if len(result.Plan.Rolls) != 15 {
		t.Fatalf("expected 15 rolls, got %d", len(result.Plan.Rolls))
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", result.Warnings)
	}
}

func TestGenerateTravelTakesPriority(t *testing.T) {
	result := Generate(Request{
		Tags:  tags("travel", "wilderness", "travel", "road", "terrain", "forest"),
		Party: Party{Size: 4, Level: 3},
		Seed:  "road-seed",
		Limit: 3,
	}, defaultDeps(t))

	if result.Logic.TableID != "road_travel_d100" || result.Logic.TableSource != SourceTravel {
		t.Fatalf("expected road travel table, got %+v", result.Logic)
	}
	if !reflect.DeepEqual(result.Plan.CRBuckets, []string{"cr:2-4"}) {
		t.Fatalf("unexpected buckets: %v", result.Plan.CRBuckets)
	}
	if len(result.Suggestions) != 2 {
		t.Fatalf("expected early stop after 2 suggestions, got %d", len(result.Suggestions))
	}
	if result.Suggestions[0].Roll != 82 || result.Suggestions[1].Roll != 47 {
		t.Fatalf("unexpected rolls: %d, %d", result.Suggestions[0].Roll, result.Suggestions[1].Roll)
	}
	if len(result.Plan.Rolls) != 24 {
		t.Fatalf("expected 24 rolls, got %d", len(result.Plan.Rolls))
	}
}

func TestGenerateFallbackTableAndNoSeed(t *testing.T) {
	result := Generate(Request{Tags: tags("terrain", "moon")}, defaultDeps(t))

	if result.Logic.TableSource != SourceFallback || result.Logic.TableID != "forest_encounters_d100" {
		t.Fatalf("expected fallback forest table, got %+v", result.Logic)
	}
	if result.Logic.Seeded {
		t.Fatalf("expected unseeded run")
	}
	if len(result.Warnings) < 2 {
		t.Fatalf("expected seed and table warnings, got %v", result.Warnings)
	}
	if result.Logic.Party != (Party{Size: 1, Level: 1, Difficulty: DifficultyMedium}) {
		t.Fatalf("unexpected normalized party: %+v", result.Logic.Party)
	}
	if result.Logic.Limit != DefaultLimit {
		t.Fatalf("expected default limit, got %d", result.Logic.Limit)
	}
}

func TestGenerateHomebrewWarning(t *testing.T) {
	calls := 0
	deps := defaultDeps(t)
	// 0.975 rolls 98 on the d100, inside the homebrew entry.
	deps.Rng = func() float64 { calls++; return 0.975 }
	deps.Budget = func(in BudgetInput) int { return 42 }

	result := Generate(Request{
		Tags:  tags("terrain", "forest", "cr", "17-20"),
		Party: Party{Size: 4, Level: 20},
		Limit: 1,
	}, deps)

	if len(result.Suggestions) != 1 || !result.Suggestions[0].NeedsHomebrew {
		t.Fatalf("expected a homebrew suggestion, got %+v", result.Suggestions)
	}
	if result.Plan.Budget != 42 {
		t.Fatalf("expected injected budget, got %d", result.Plan.Budget)
	}
	want := []string{"Entry 98-100 of forest_encounters_d100 needs homebrew stat blocks."}
	if !reflect.DeepEqual(result.Warnings, want) {
		t.Fatalf("unexpected warnings: %v", result.Warnings)
	}
	if calls != 2 {
		t.Fatalf("expected table pick and one roll, got %d draws", calls)
	}
}

func TestGenerateEmptyRegistry(t *testing.T) {
	result := Generate(Request{Seed: "x"}, Deps{Registry: &rules.Registry{}})
	if len(result.Suggestions) != 0 {
		t.Fatalf("expected no suggestions")
	}
	if !reflect.DeepEqual(result.Warnings, []string{"No encounter tables are available."}) {
		t.Fatalf("unexpected warnings: %v", result.Warnings)
	}
}

func TestPartitionTags(t *testing.T) {
	got := PartitionTags(tags(
		"Creature", " Goblin ",
		"creature_type", "goblin",
		"ecosystem", "Forest",
		"terrain", "forest",
		"travel", "Road",
		"cr", "0-1",
		"location", "thornwood",
	))
	want := TagSet{
		Creature: []string{"goblin"},
		Terrain:  []string{"forest"},
		Travel:   []string{"road"},
		CR:       []string{"0-1"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected partition: %+v", got)
	}
}

func TestResolveCRBuckets(t *testing.T) {
	tests := []struct {
		name       string
		crTags     []string
		level      int
		difficulty string
		want       []string
	}{
		{name: "explicit tags", crTags: []string{"0-1", "2-4", "0-1"}, level: 10, want: []string{"cr:0-1", "cr:2-4"}},
		{name: "medium dedupes", level: 3, difficulty: "medium", want: []string{"cr:2-4"}},
		{name: "hard shifts up", level: 3, difficulty: "hard", want: []string{"cr:5-10", "cr:2-4"}},
		{name: "easy clamps low", level: 1, difficulty: "easy", want: []string{"cr:0-1"}},
		{name: "deadly clamps high", level: 20, difficulty: "deadly", want: []string{"cr:21+", "cr:17-20"}},
		{name: "unknown difficulty", level: 12, difficulty: "brutal", want: []string{"cr:11-16"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveCRBuckets(tt.crTags, tt.level, tt.difficulty)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBudget(t *testing.T) {
	tests := []struct {
		in   BudgetInput
		want int
	}{
		{BudgetInput{PartySize: 4, PartyLevel: 3, Difficulty: "medium"}, 600},
		{BudgetInput{PartySize: 4, PartyLevel: 1, Difficulty: "easy"}, 100},
		{BudgetInput{PartySize: 5, PartyLevel: 20, Difficulty: "deadly"}, 63500},
		{BudgetInput{PartySize: 0, PartyLevel: 0, Difficulty: ""}, 50},
		{BudgetInput{PartySize: 12, PartyLevel: 25, Difficulty: "hard"}, 85000},
	}
	for _, tt := range tests {
		if got := Budget(tt.in); got != tt.want {
			t.Fatalf("Budget(%+v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
