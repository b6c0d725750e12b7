package rules

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	KindTerrain = "terrain"
	KindTravel  = "travel"
)

// DefaultTerrain is the table used when no tag selects one.
const DefaultTerrain = "forest"

type Entry struct {
	Min           int      `yaml:"min" json:"min"`
	Max           int      `yaml:"max" json:"max"`
	Text          string   `yaml:"text" json:"text"`
	Type          string   `yaml:"type" json:"type"`
	CRBucket      string   `yaml:"cr_bucket" json:"crBucket"`
	Monsters      []string `yaml:"monsters" json:"monsters,omitempty"`
	NeedsHomebrew bool     `yaml:"needs_homebrew" json:"needsHomebrew,omitempty"`
}

func (e Entry) bounds() (int, int) { return e.Min, e.Max }

// Table is a d100 encounter table selected by a terrain or travel key.
type Table struct {
	ID      string  `yaml:"id" json:"id"`
	Title   string  `yaml:"title" json:"title"`
	Kind    string  `yaml:"kind" json:"kind"`
	Key     string  `yaml:"key" json:"key"`
	Entries []Entry `yaml:"entries" json:"entries"`
}

// EntryForRoll returns the index of the entry whose range contains roll.
func (t *Table) EntryForRoll(roll int) (int, bool) {
	return lookupD100(t.Entries, roll)
}

type encounterFile struct {
	Version int     `yaml:"version"`
	Tables  []Table `yaml:"tables"`
}

// Registry indexes encounter tables by kind and key.
type Registry struct {
	tables []Table
	index  map[string]int
}

// NewRegistry validates tables and indexes them.
func NewRegistry(tables []Table) (*Registry, error) {
	r := &Registry{
		tables: tables,
		index:  make(map[string]int, len(tables)),
	}
	ids := make(map[string]struct{}, len(tables))
	for i := range tables {
		table := &tables[i]
		if strings.TrimSpace(table.ID) == "" {
			return nil, fmt.Errorf("encounter table %d id is required", i)
		}
		if _, exists := ids[table.ID]; exists {
			return nil, fmt.Errorf("duplicate encounter table id: %s", table.ID)
		}
		ids[table.ID] = struct{}{}

		if table.Kind != KindTerrain && table.Kind != KindTravel {
			return nil, fmt.Errorf("encounter table %s has invalid kind: %q", table.ID, table.Kind)
		}
		if strings.TrimSpace(table.Key) == "" {
			return nil, fmt.Errorf("encounter table %s key is required", table.ID)
		}
		if err := validateD100(table.Entries); err != nil {
			return nil, fmt.Errorf("encounter table %s: %w", table.ID, err)
		}
		for _, entry := range table.Entries {
			if !IsCRBucket(entry.CRBucket) {
				return nil, fmt.Errorf("encounter table %s entry %d-%d has unknown cr bucket %q", table.ID, entry.Min, entry.Max, entry.CRBucket)
			}
		}

		key := indexKey(table.Kind, table.Key)
		if _, exists := r.index[key]; exists {
			return nil, fmt.Errorf("duplicate %s table for key %q", table.Kind, table.Key)
		}
		r.index[key] = i
	}
	return r, nil
}

// LoadRegistry reads encounter tables from a YAML file.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading encounter tables: %w", err)
	}
	return parseRegistry(data)
}

// DefaultRegistry returns the tables shipped with the binary.
func DefaultRegistry() (*Registry, error) {
	data, err := embedded.ReadFile("data/encounters.yaml")
	if err != nil {
		return nil, fmt.Errorf("loading encounter tables: %w", err)
	}
	return parseRegistry(data)
}

func parseRegistry(data []byte) (*Registry, error) {
	var file encounterFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("loading encounter tables: %w", err)
	}
	if file.Version != 1 {
		return nil, fmt.Errorf("loading encounter tables: unsupported version: %d", file.Version)
	}
	registry, err := NewRegistry(file.Tables)
	if err != nil {
		return nil, fmt.Errorf("loading encounter tables: %w", err)
	}
	if _, ok := registry.Terrain(DefaultTerrain); !ok {
		return nil, fmt.Errorf("loading encounter tables: missing default %s table", DefaultTerrain)
	}
	return registry, nil
}

func indexKey(kind, key string) string {
	return kind + ":" + strings.ToLower(strings.TrimSpace(key))
}

func (r *Registry) lookup(kind, key string) (*Table, bool) {
	if r == nil {
		return nil, false
	}
	i, ok := r.index[indexKey(kind, key)]
	if !ok {
		return nil, false
	}
	return &r.tables[i], true
}

func (r *Registry) Terrain(key string) (*Table, bool) { return r.lookup(KindTerrain, key) }

func (r *Registry) Travel(key string) (*Table, bool) { return r.lookup(KindTravel, key) }

// Default returns the fallback terrain table.
func (r *Registry) Default() *Table {
	table, _ := r.Terrain(DefaultTerrain)
	return table
}

// Tables returns every table in declaration order.
func (r *Registry) Tables() []Table {
	if r == nil {
		return nil
	}
	return r.tables
}
