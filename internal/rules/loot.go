package rules

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"campaignwiki/internal/dice"
)

// CoinOrder is the order coin codes are rolled and reported in.
var CoinOrder = []string{"cp", "sp", "ep", "gp", "pp"}

// CoinRow maps a d100 range to coin dice expressions keyed by coin code.
type CoinRow struct {
	Min   int               `yaml:"min" json:"min"`
	Max   int               `yaml:"max" json:"max"`
	Coins map[string]string `yaml:"coins" json:"coins"`
}

func (r CoinRow) bounds() (int, int) { return r.Min, r.Max }

type IndividualBucket struct {
	CRMin float64   `yaml:"cr_min" json:"crMin"`
	CRMax float64   `yaml:"cr_max" json:"crMax"`
	Rows  []CoinRow `yaml:"rows" json:"rows"`
}

// SubDraw rolls Count units from a named sub-table.
type SubDraw struct {
	Count string `yaml:"count" json:"count"`
	Table string `yaml:"table" json:"table"`
}

// HoardRow is a d100 row of a hoard bucket. Every draw is optional.
type HoardRow struct {
	Min   int               `yaml:"min" json:"min"`
	Max   int               `yaml:"max" json:"max"`
	Coins map[string]string `yaml:"coins" json:"coins,omitempty"`
	Gems  *SubDraw          `yaml:"gems" json:"gems,omitempty"`
	Art   *SubDraw          `yaml:"art" json:"art,omitempty"`
	Magic []SubDraw         `yaml:"magic" json:"magic,omitempty"`
}

func (r HoardRow) bounds() (int, int) { return r.Min, r.Max }

type HoardBucket struct {
	CRMin float64           `yaml:"cr_min" json:"crMin"`
	CRMax float64           `yaml:"cr_max" json:"crMax"`
	Coins map[string]string `yaml:"coins" json:"coins"`
	Rows  []HoardRow        `yaml:"rows" json:"rows"`
}

type ValuableRow struct {
	Min  int    `yaml:"min" json:"min"`
	Max  int    `yaml:"max" json:"max"`
	Name string `yaml:"name" json:"name"`
}

func (r ValuableRow) bounds() (int, int) { return r.Min, r.Max }

// ValuableTable is a gem or art-object table where every row shares a value.
type ValuableTable struct {
	ValueGP int           `yaml:"value_gp" json:"valueGp"`
	Rows    []ValuableRow `yaml:"rows" json:"rows"`
}

// Lookup returns the row containing roll.
func (t ValuableTable) Lookup(roll int) (ValuableRow, bool) {
	i, ok := lookupD100(t.Rows, roll)
	if !ok {
		return ValuableRow{}, false
	}
	return t.Rows[i], true
}

type Loot struct {
	Version    int                      `yaml:"version" json:"version"`
	Individual []IndividualBucket       `yaml:"individual" json:"individual"`
	Hoard      []HoardBucket            `yaml:"hoard" json:"hoard"`
	Gems       map[string]ValuableTable `yaml:"gems" json:"gems"`
	Art        map[string]ValuableTable `yaml:"art" json:"art"`
	MagicItems map[string][]string      `yaml:"magic_items" json:"magicItems"`
}

// LoadLoot reads a loot dataset from a YAML file.
func LoadLoot(path string) (*Loot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading loot tables: %w", err)
	}
	return parseLoot(data)
}

// DefaultLoot returns the loot dataset shipped with the binary.
func DefaultLoot() (*Loot, error) {
	data, err := embedded.ReadFile("data/loot.yaml")
	if err != nil {
		return nil, fmt.Errorf("loading loot tables: %w", err)
	}
	return parseLoot(data)
}

func parseLoot(data []byte) (*Loot, error) {
	var loot Loot
	if err := yaml.Unmarshal(data, &loot); err != nil {
		return nil, fmt.Errorf("loading loot tables: %w", err)
	}
	if loot.Version != 1 {
		return nil, fmt.Errorf("loading loot tables: unsupported version: %d", loot.Version)
	}
	if err := loot.Validate(); err != nil {
		return nil, fmt.Errorf("loading loot tables: %w", err)
	}
	return &loot, nil
}

// Validate checks row coverage, dice expressions and sub-table references.
func (l *Loot) Validate() error {
	if len(l.Individual) == 0 {
		return fmt.Errorf("at least one individual bucket is required")
	}
	if len(l.Hoard) == 0 {
		return fmt.Errorf("at least one hoard bucket is required")
	}

	for i, bucket := range l.Individual {
		if bucket.CRMin > bucket.CRMax {
			return fmt.Errorf("individual bucket %d has cr_min greater than cr_max", i)
		}
		if err := validateD100(bucket.Rows); err != nil {
			return fmt.Errorf("individual bucket %d: %w", i, err)
		}
		for _, row := range bucket.Rows {
			if err := validateCoins(row.Coins); err != nil {
				return fmt.Errorf("individual bucket %d row %d-%d: %w", i, row.Min, row.Max, err)
			}
		}
	}

	for i, bucket := range l.Hoard {
		if bucket.CRMin > bucket.CRMax {
			return fmt.Errorf("hoard bucket %d has cr_min greater than cr_max", i)
		}
		if err := validateCoins(bucket.Coins); err != nil {
			return fmt.Errorf("hoard bucket %d: %w", i, err)
		}
		if err := validateD100(bucket.Rows); err != nil {
			return fmt.Errorf("hoard bucket %d: %w", i, err)
		}
		for _, row := range bucket.Rows {
			if err := l.validateHoardRow(row); err != nil {
				return fmt.Errorf("hoard bucket %d row %d-%d: %w", i, row.Min, row.Max, err)
			}
		}
	}

	for name, table := range l.Gems {
		if err := validateD100(table.Rows); err != nil {
			return fmt.Errorf("gem table %s: %w", name, err)
		}
	}
	for name, table := range l.Art {
		if err := validateD100(table.Rows); err != nil {
			return fmt.Errorf("art table %s: %w", name, err)
		}
	}
	for name, items := range l.MagicItems {
		if len(items) == 0 {
			return fmt.Errorf("magic item table %s is empty", name)
		}
	}
	return nil
}

func (l *Loot) validateHoardRow(row HoardRow) error {
	if err := validateCoins(row.Coins); err != nil {
		return err
	}
	if row.Gems != nil {
		if err := validateDraw(*row.Gems, func(name string) bool { _, ok := l.Gems[name]; return ok }); err != nil {
			return fmt.Errorf("gems: %w", err)
		}
	}
	if row.Art != nil {
		if err := validateDraw(*row.Art, func(name string) bool { _, ok := l.Art[name]; return ok }); err != nil {
			return fmt.Errorf("art: %w", err)
		}
	}
	for _, draw := range row.Magic {
		if err := validateDraw(draw, func(name string) bool { _, ok := l.MagicItems[name]; return ok }); err != nil {
			return fmt.Errorf("magic: %w", err)
		}
	}
	return nil
}

func validateDraw(draw SubDraw, exists func(string) bool) error {
	if !dice.Valid(draw.Count) {
		return fmt.Errorf("invalid count expression %q", draw.Count)
	}
	if !exists(draw.Table) {
		return fmt.Errorf("unknown table %q", draw.Table)
	}
	return nil
}

func validateCoins(coins map[string]string) error {
	for code, expr := range coins {
		if strings.TrimSpace(code) == "" {
			return fmt.Errorf("empty coin code")
		}
		if !dice.Valid(expr) {
			return fmt.Errorf("invalid dice expression %q for %s", expr, code)
		}
	}
	return nil
}

// SortedCoinCodes returns the codes of coins in CoinOrder, then any others alphabetically.
func SortedCoinCodes(coins map[string]string) []string {
	codes := make([]string, 0, len(coins))
	for code := range coins {
		codes = append(codes, code)
	}
	return OrderCoinCodes(codes)
}

// OrderCoinCodes sorts codes in place by CoinOrder, unknown codes last and alphabetical.
func OrderCoinCodes(codes []string) []string {
	sort.Slice(codes, func(i, j int) bool {
		ri, rj := coinRank(codes[i]), coinRank(codes[j])
		switch {
		case ri >= 0 && rj >= 0:
			return ri < rj
		case ri >= 0:
			return true
		case rj >= 0:
			return false
		default:
			return codes[i] < codes[j]
		}
	})
	return codes
}

func coinRank(code string) int {
	for i, c := range CoinOrder {
		if c == code {
			return i
		}
	}
	return -1
}

// IndividualBucketFor returns the first bucket containing cr, or the first bucket.
func (l *Loot) IndividualBucketFor(cr float64) (IndividualBucket, bool) {
	for _, bucket := range l.Individual {
		if cr >= bucket.CRMin && cr <= bucket.CRMax {
			return bucket, true
		}
	}
	return l.Individual[0], false
}

// HoardBucketFor returns the first hoard bucket containing cr, or the first bucket.
func (l *Loot) HoardBucketFor(cr float64) (HoardBucket, bool) {
	for _, bucket := range l.Hoard {
		if cr >= bucket.CRMin && cr <= bucket.CRMax {
			return bucket, true
		}
	}
	return l.Hoard[0], false
}
