// Package initiative builds a sorted initiative order for players and monster groups.
package initiative

import (
	"fmt"
	"sort"

	"campaignwiki/internal/random"
	"campaignwiki/internal/trace"
)

const (
	KindPlayer  = "player"
	KindMonster = "monster"

	SourceProvided = "provided"
	SourceRolled   = "rolled"
)

// MaxGroupCount bounds Monster.Count for requests arriving over a transport.
const MaxGroupCount = 100

// Player rolls d20+DexMod unless Roll is set, in which case Roll is the total.
type Player struct {
	Name   string `json:"name"`
	Roll   *int   `json:"roll,omitempty"`
	DexMod int    `json:"dexMod"`
}

// Monster describes a group of Count identical monsters.
type Monster struct {
	Name   string `json:"name"`
	DexMod int    `json:"dexMod"`
	Count  int    `json:"count,omitempty"`
	Roll   *int   `json:"roll,omitempty"`
}

type Request struct {
	Players  []Player
	Monsters []Monster
	Seed     string
}

type Entry struct {
	Name       string `json:"name"`
	Initiative int    `json:"initiative"`
	Roll       int    `json:"roll"`
	DexMod     int    `json:"dexMod"`
	Source     string `json:"source"`
	Kind       string `json:"kind"`
}

type Order struct {
	Entries  []Entry      `json:"entries"`
	Explain  []trace.Step `json:"explain"`
	Warnings []string     `json:"warnings"`
}

// CheckLimits rejects monster groups larger than MaxGroupCount. Build itself
// accepts any count.
func CheckLimits(req Request) error {
	for _, m := range req.Monsters {
		if m.Count > MaxGroupCount {
			return fmt.Errorf("monster %q: count %d exceeds %d", m.Name, m.Count, MaxGroupCount)
		}
	}
	return nil
}

// Build rolls initiative for everyone and sorts by total, then DexMod, then name.
// rng overrides the seed when non-nil.
func Build(req Request, rng random.Func) Order {
	var rec trace.Recorder
	switch {
	case rng != nil:
	case req.Seed != "":
		rng = random.New(req.Seed)
	default:
		rng = random.Platform()
		rec.Warn("No seed provided; initiative rolls are not reproducible.")
	}

	entries := []Entry{}
	for _, p := range req.Players {
		entries = append(entries, roll(p.Name, p.DexMod, p.Roll, KindPlayer, rng, &rec))
	}
	for _, m := range req.Monsters {
		count := max(m.Count, 1)
		if count > 1 && m.Roll != nil {
			rec.Warn("%s group uses a shared initiative roll (%d).", m.Name, *m.Roll)
		}
		for n := 1; n <= count; n++ {
			name := m.Name
			if count > 1 {
				name = fmt.Sprintf("%s#%d", m.Name, n)
			}
			entries = append(entries, roll(name, m.DexMod, m.Roll, KindMonster, rng, &rec))
		}
	}

	if len(entries) == 0 {
		rec.Warn("No combatants supplied.")
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Initiative != b.Initiative {
			return a.Initiative > b.Initiative
		}
		if a.DexMod != b.DexMod {
			return a.DexMod > b.DexMod
		}
		return a.Name < b.Name
	})
	rec.Explain("order", "%d combatants sorted by initiative, dex modifier, name", len(entries))

	return Order{Entries: entries, Explain: rec.Steps(), Warnings: rec.Warnings()}
}

func roll(name string, dexMod int, fixed *int, kind string, rng random.Func, rec *trace.Recorder) Entry {
	if fixed != nil {
		rec.Explain(name, "provided %d", *fixed)
		return Entry{Name: name, Initiative: *fixed, Roll: *fixed, DexMod: dexMod, Source: SourceProvided, Kind: kind}
	}
	d20 := random.D20(rng)
	rec.Explain(name, "d20=%d%+d = %d", d20, dexMod, d20+dexMod)
	return Entry{Name: name, Initiative: d20 + dexMod, Roll: d20, DexMod: dexMod, Source: SourceRolled, Kind: kind}
}
