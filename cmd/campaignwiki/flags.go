package main

import (
	"fmt"
	"strconv"
	"strings"

	"campaignwiki/internal/encounter"
	"campaignwiki/internal/initiative"
	"campaignwiki/internal/treasure"
)

type partyFlags struct {
	size       int
	level      int
	difficulty string
}

// party returns nil when no party flag was set so the configured default applies.
func (p partyFlags) party() *encounter.Party {
	if p.size == 0 && p.level == 0 && p.difficulty == "" {
		return nil
	}
	return &encounter.Party{Size: p.size, Level: p.level, Difficulty: p.difficulty}
}

// parseTreasureMonster parses "Name:CR", e.g. "Goblin Boss:1/2".
func parseTreasureMonster(raw string) (treasure.Monster, error) {
	idx := strings.LastIndex(raw, ":")
	if idx <= 0 {
		return treasure.Monster{}, fmt.Errorf("monster %q: expected Name:CR", raw)
	}
	name := strings.TrimSpace(raw[:idx])
	cr, ok := treasure.ParseCR(raw[idx+1:])
	if name == "" || !ok {
		return treasure.Monster{}, fmt.Errorf("monster %q: expected Name:CR", raw)
	}
	return treasure.Monster{Name: name, CR: cr}, nil
}

// parsePlayer parses "Name:+2" or "Name:+2=15" where =15 fixes the total.
func parsePlayer(raw string) (initiative.Player, error) {
	name, rest, ok := strings.Cut(raw, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return initiative.Player{}, fmt.Errorf("player %q: expected Name:DEX[=ROLL]", raw)
	}
	modText, rollText, fixed := strings.Cut(rest, "=")
	dexMod, err := parseModifier(modText)
	if err != nil {
		return initiative.Player{}, fmt.Errorf("player %q: %w", raw, err)
	}
	player := initiative.Player{Name: name, DexMod: dexMod}
	if fixed {
		roll, err := strconv.Atoi(strings.TrimSpace(rollText))
		if err != nil {
			return initiative.Player{}, fmt.Errorf("player %q: invalid roll %q", raw, rollText)
		}
		player.Roll = &roll
	}
	return player, nil
}

// parseInitiativeMonster parses "Name:+2", "Name:+2x3" for a group of three,
// and an optional "=ROLL" suffix giving the group a shared total.
func parseInitiativeMonster(raw string) (initiative.Monster, error) {
	name, rest, ok := strings.Cut(raw, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return initiative.Monster{}, fmt.Errorf("monster %q: expected Name:DEX[xCOUNT][=ROLL]", raw)
	}
	group, rollText, fixed := strings.Cut(rest, "=")
	modText, countText, grouped := strings.Cut(strings.ToLower(group), "x")
	dexMod, err := parseModifier(modText)
	if err != nil {
		return initiative.Monster{}, fmt.Errorf("monster %q: %w", raw, err)
	}
	monster := initiative.Monster{Name: name, DexMod: dexMod, Count: 1}
	if grouped {
		count, err := strconv.Atoi(strings.TrimSpace(countText))
		if err != nil || count < 1 {
			return initiative.Monster{}, fmt.Errorf("monster %q: invalid count %q", raw, countText)
		}
		monster.Count = count
	}
	if fixed {
		roll, err := strconv.Atoi(strings.TrimSpace(rollText))
		if err != nil {
			return initiative.Monster{}, fmt.Errorf("monster %q: invalid roll %q", raw, rollText)
		}
		monster.Roll = &roll
	}
	return monster, nil
}

func parseModifier(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimPrefix(s, "+"))
	if err != nil {
		return 0, fmt.Errorf("invalid modifier %q", s)
	}
	return n, nil
}
