package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"campaignwiki/internal/config"
)

func TestParseTreasureMonster(t *testing.T) {
	tests := []struct {
		input   string
		name    string
		cr      float64
		wantErr bool
	}{
		{input: "Goblin:1/4", name: "Goblin", cr: 0.25},
		{input: "Goblin Boss:1", name: "Goblin Boss", cr: 1},
		{input: "Goblin", wantErr: true},
		{input: ":3", wantErr: true},
		{input: "Ogre:big", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseTreasureMonster(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got.Name != tt.name || got.CR != tt.cr {
				t.Fatalf("unexpected monster: %+v", got)
			}
		})
	}
}

func TestParsePlayer(t *testing.T) {
	p, err := parsePlayer("Aria:+3")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if p.Name != "Aria" || p.DexMod != 3 || p.Roll != nil {
		t.Fatalf("unexpected player: %+v", p)
	}

	p, err = parsePlayer("Bram:-1=15")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if p.DexMod != -1 || p.Roll == nil || *p.Roll != 15 {
		t.Fatalf("unexpected fixed player: %+v", p)
	}

	for _, bad := range []string{"Aria", "Aria:x", "Aria:+1=abc"} {
		if _, err := parsePlayer(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestParseInitiativeMonster(t *testing.T) {
	m, err := parseInitiativeMonster("Goblin:+2x3")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if m.Name != "Goblin" || m.DexMod != 2 || m.Count != 3 {
		t.Fatalf("unexpected monster: %+v", m)
	}

	m, err = parseInitiativeMonster("Ogre:-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if m.Count != 1 || m.DexMod != -1 {
		t.Fatalf("unexpected monster: %+v", m)
	}

	if _, err := parseInitiativeMonster("Wolf:+1x0"); err == nil {
		t.Fatalf("expected error for zero count")
	}

	m, err = parseInitiativeMonster("Wolf:+2x3=13")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if m.Count != 3 || m.DexMod != 2 || m.Roll == nil || *m.Roll != 13 {
		t.Fatalf("unexpected shared-roll group: %+v", m)
	}
	m, err = parseInitiativeMonster("Ogre:-1=9")
	if err != nil || m.Count != 1 || m.Roll == nil || *m.Roll != 9 {
		t.Fatalf("unexpected fixed monster: %+v, %v", m, err)
	}
	if _, err := parseInitiativeMonster("Wolf:+1x2=soon"); err == nil {
		t.Fatalf("expected error for invalid roll")
	}
}

func TestParseSince(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	got, err := parseSince("2024-05-01T00:00:00Z", now)
	if err != nil || !got.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp: %v, %v", got, err)
	}
	got, err = parseSince("48h", now)
	if err != nil || !got.Equal(now.Add(-48*time.Hour)) {
		t.Fatalf("unexpected duration: %v, %v", got, err)
	}
	if _, err := parseSince("last week", now); err == nil {
		t.Fatalf("expected error")
	}
}

func TestPartyFlags(t *testing.T) {
	if (partyFlags{}).party() != nil {
		t.Fatalf("expected nil party when no flags set")
	}
	p := partyFlags{level: 5}.party()
	if p == nil || p.Level != 5 || p.Size != 0 {
		t.Fatalf("unexpected party: %+v", p)
	}
}

func TestRunInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.DefaultPath)
	if err := runInit(path, "The Thornwood Saga", "sqlite"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading config: %v", err)
	}
	if !strings.Contains(string(contents), "workspace: the-thornwood-saga") {
		t.Fatalf("expected slugged workspace, got:\n%s", contents)
	}

	cfg, err := config.LoadProjectConfig(path)
	if err != nil {
		t.Fatalf("scaffolded config should load: %v", err)
	}
	if cfg.Database.Driver != config.DriverSQLite || cfg.Party.Level != 3 {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	if err := runInit(path, "Again", "sqlite"); err == nil {
		t.Fatalf("expected error when config exists")
	}
	if err := runInit(filepath.Join(t.TempDir(), "x.yaml"), "X", "oracle"); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestLoadRulesDefaults(t *testing.T) {
	registry, loot, err := loadRules(&config.ProjectConfig{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if registry == nil || loot == nil {
		t.Fatalf("expected embedded rules, got %v, %v", registry, loot)
	}
	if _, ok := registry.Terrain("forest"); !ok {
		t.Fatalf("expected default forest table")
	}

	cfg := &config.ProjectConfig{Rules: config.RulesConfig{Loot: filepath.Join(t.TempDir(), "missing.yaml")}}
	if _, _, err := loadRules(cfg); err == nil {
		t.Fatalf("expected error for missing loot file")
	}
}
