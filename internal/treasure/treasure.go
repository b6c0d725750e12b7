// Package treasure rolls individual and hoard treasure against the loot tables.
package treasure

import (
	"fmt"
	"strconv"
	"strings"

	"campaignwiki/internal/dice"
	"campaignwiki/internal/random"
	"campaignwiki/internal/rules"
	"campaignwiki/internal/trace"
)

const (
	ModeIndividual = "individual"
	ModeHoard      = "hoard"
)

const (
	KindGem = "gem"
	KindArt = "art"
)

type Monster struct {
	Name string  `json:"name"`
	CR   float64 `json:"cr"`
}

type Request struct {
	Monsters []Monster
	Mode     string
	Seed     string
}

type Deps struct {
	Loot *rules.Loot
	Rng  random.Func
}

type Valuable struct {
	Kind    string `json:"kind"`
	Name    string `json:"name"`
	ValueGP int    `json:"valueGp"`
	Table   string `json:"table"`
	Roll    int    `json:"roll"`
}

type MagicItem struct {
	Name  string `json:"name"`
	Table string `json:"table"`
	Roll  int    `json:"roll"`
}

type InputsUsed struct {
	Mode string    `json:"mode"`
	CRs  []float64 `json:"crs"`
	Seed string    `json:"seed"`
}

type Result struct {
	Coins      map[string]int `json:"coins"`
	Valuables  []Valuable     `json:"valuables"`
	MagicItems []MagicItem    `json:"magicItems"`
	Explain    []trace.Step   `json:"explain"`
	Warnings   []string       `json:"warnings"`
	InputsUsed InputsUsed     `json:"inputsUsed"`
}

// CoinCodes returns the coin codes of r in display order.
func (r Result) CoinCodes() []string {
	codes := make([]string, 0, len(r.Coins))
	for code := range r.Coins {
		codes = append(codes, code)
	}
	return rules.OrderCoinCodes(codes)
}

// TotalGP is the gold value of coins and valuables. Magic items are not valued.
func (r Result) TotalGP() float64 {
	rates := map[string]float64{"cp": 0.01, "sp": 0.1, "ep": 0.5, "gp": 1, "pp": 10}
	var total float64
	for code, amount := range r.Coins {
		total += rates[code] * float64(amount)
	}
	for _, v := range r.Valuables {
		total += float64(v.ValueGP)
	}
	return total
}

// NormalizeMode maps anything other than "hoard" to individual.
func NormalizeMode(mode string) string {
	if strings.EqualFold(strings.TrimSpace(mode), ModeHoard) {
		return ModeHoard
	}
	return ModeIndividual
}

// ParseCR reads a challenge rating written as "2", "0.25" or "1/4".
func ParseCR(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err1 := strconv.ParseFloat(strings.TrimSpace(num), 64)
		d, err2 := strconv.ParseFloat(strings.TrimSpace(den), 64)
		if err1 != nil || err2 != nil || d == 0 || n < 0 || d < 0 {
			return 0, false
		}
		return n / d, true
	}
	cr, err := strconv.ParseFloat(s, 64)
	if err != nil || cr < 0 {
		return 0, false
	}
	return cr, true
}

// Generate rolls treasure for the monsters. It never fails; problems become warnings.
func Generate(req Request, deps Deps) Result {
	var rec trace.Recorder
	mode := NormalizeMode(req.Mode)
	crs := make([]float64, 0, len(req.Monsters))
	for _, m := range req.Monsters {
		crs = append(crs, m.CR)
	}
	result := Result{
		Coins:      map[string]int{},
		Valuables:  []Valuable{},
		MagicItems: []MagicItem{},
		InputsUsed: InputsUsed{Mode: mode, CRs: crs, Seed: req.Seed},
	}

	rng := deps.Rng
	switch {
	case rng != nil:
	case req.Seed != "":
		rng = random.New(req.Seed)
	default:
		rng = random.Platform()
		rec.Warn("No seed provided; treasure rolls are not reproducible.")
	}

	switch {
	case len(req.Monsters) == 0:
		rec.Warn("No monsters supplied; no treasure rolled.")
	case deps.Loot == nil:
		rec.Warn("No loot tables are loaded.")
	case mode == ModeHoard:
		rollHoard(&result, req.Monsters, deps.Loot, rng, &rec)
	default:
		rollIndividual(&result, req.Monsters, deps.Loot, rng, &rec)
	}

	result.Explain = rec.Steps()
	result.Warnings = rec.Warnings()
	return result
}

func rollIndividual(result *Result, monsters []Monster, loot *rules.Loot, rng random.Func, rec *trace.Recorder) {
	if len(loot.Individual) == 0 {
		rec.Warn("No individual treasure buckets are defined.")
		return
	}
	for _, m := range monsters {
		bucket, matched := loot.IndividualBucketFor(m.CR)
		if !matched {
			rec.Explain("bucket", "%s CR %s matched no bucket; using CR %s-%s", m.Name, formatCR(m.CR), formatCR(bucket.CRMin), formatCR(bucket.CRMax))
		}
		roll := random.D100(rng)
		i, ok := lookupCoinRow(bucket.Rows, roll)
		if !ok {
			rec.Warn("Roll %d matched no individual treasure row for CR %s.", roll, formatCR(m.CR))
			continue
		}
		rec.Explain("individual", "%s (CR %s) d100=%d", m.Name, formatCR(m.CR), roll)
		addCoins(result, bucket.Rows[i].Coins, rng, rec)
	}
}

func rollHoard(result *Result, monsters []Monster, loot *rules.Loot, rng random.Func, rec *trace.Recorder) {
	if len(loot.Hoard) == 0 {
		rec.Warn("No hoard treasure buckets are defined.")
		return
	}
	maxCR := monsters[0].CR
	for _, m := range monsters[1:] {
		maxCR = max(maxCR, m.CR)
	}
	bucket, matched := loot.HoardBucketFor(maxCR)
	if !matched {
		rec.Explain("bucket", "CR %s matched no hoard bucket; using CR %s-%s", formatCR(maxCR), formatCR(bucket.CRMin), formatCR(bucket.CRMax))
	}
	rec.Explain("hoard", "highest CR %s selects CR %s-%s", formatCR(maxCR), formatCR(bucket.CRMin), formatCR(bucket.CRMax))
	addCoins(result, bucket.Coins, rng, rec)

	roll := random.D100(rng)
	row, ok := lookupHoardRow(bucket.Rows, roll)
	if !ok {
		rec.Warn("Roll %d matched no hoard row.", roll)
		return
	}
	rec.Explain("hoardRow", "d100=%d -> %d-%d", roll, row.Min, row.Max)
	addCoins(result, row.Coins, rng, rec)

	if row.Gems != nil {
		drawValuables(result, KindGem, *row.Gems, loot.Gems, rng, rec)
	}
	if row.Art != nil {
		drawValuables(result, KindArt, *row.Art, loot.Art, rng, rec)
	}
	for _, draw := range row.Magic {
		drawMagic(result, draw, loot.MagicItems, rng, rec)
	}
}

func addCoins(result *Result, coins map[string]string, rng random.Func, rec *trace.Recorder) {
	for _, code := range rules.SortedCoinCodes(coins) {
		amount := dice.Evaluate(coins[code], rng)
		result.Coins[code] += amount
		rec.Explain("coins", "%s %s = %d", coins[code], code, amount)
	}
}

func drawValuables(result *Result, kind string, draw rules.SubDraw, tables map[string]rules.ValuableTable, rng random.Func, rec *trace.Recorder) {
	table, ok := tables[draw.Table]
	if !ok {
		rec.Warn("Unknown %s table %q.", kind, draw.Table)
		return
	}
	count := dice.Evaluate(draw.Count, rng)
	rec.Explain(kind, "%s x %s = %d", draw.Count, draw.Table, count)
	for n := 0; n < count; n++ {
		roll := random.D100(rng)
		row, ok := table.Lookup(roll)
		if !ok {
			continue
		}
		result.Valuables = append(result.Valuables, Valuable{
			Kind:    kind,
			Name:    row.Name,
			ValueGP: table.ValueGP,
			Table:   draw.Table,
			Roll:    roll,
		})
	}
}

func drawMagic(result *Result, draw rules.SubDraw, tables map[string][]string, rng random.Func, rec *trace.Recorder) {
	items := tables[draw.Table]
	if len(items) == 0 {
		rec.Warn("Magic item table %s is empty.", draw.Table)
		return
	}
	count := dice.Evaluate(draw.Count, rng)
	rec.Explain("magic", "%s x table %s = %d", draw.Count, draw.Table, count)
	for n := 0; n < count; n++ {
		roll := random.D100(rng)
		result.MagicItems = append(result.MagicItems, MagicItem{
			Name:  items[scaleRoll(roll, len(items))],
			Table: draw.Table,
			Roll:  roll,
		})
	}
}

// scaleRoll maps a d100 roll onto [0, n).
func scaleRoll(roll, n int) int {
	i := (roll - 1) * n / 100
	return min(max(i, 0), n-1)
}

func lookupCoinRow(rows []rules.CoinRow, roll int) (int, bool) {
	for i, row := range rows {
		if roll >= row.Min && roll <= row.Max {
			return i, true
		}
	}
	return 0, false
}

func lookupHoardRow(rows []rules.HoardRow, roll int) (rules.HoardRow, bool) {
	for _, row := range rows {
		if roll >= row.Min && roll <= row.Max {
			return row, true
		}
	}
	return rules.HoardRow{}, false
}

func formatCR(cr float64) string {
	switch cr {
	case 0.125:
		return "1/8"
	case 0.25:
		return "1/4"
	case 0.5:
		return "1/2"
	}
	return fmt.Sprint(cr)
}
