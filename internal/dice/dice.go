// Package dice evaluates NdM+K style expressions against an injected float source.
package dice

import (
	"regexp"
	"strconv"
	"strings"

	"campaignwiki/internal/random"
)

var (
	dicePattern    = regexp.MustCompile(`^(\d*)d(\d+)(?:([+-])(\d+))?(?:[*x](\d+))?$`)
	integerPattern = regexp.MustCompile(`^[+-]?\d+$`)
)

// Expr is a parsed dice expression. Sides is zero for a flat integer.
// Multiplier is zero when the expression carries none.
type Expr struct {
	Count      int
	Sides      int
	Modifier   int
	Multiplier int
}

// Parse accepts `[N]d[M][+/-K]` or a bare integer. Loot tables also use a
// trailing `*X` multiplier (`2d6*100`). Whitespace and case are ignored.
func Parse(expr string) (Expr, bool) {
	normalized := strings.ToLower(strings.Join(strings.Fields(expr), ""))
	if normalized == "" {
		return Expr{}, false
	}

	if integerPattern.MatchString(normalized) {
		value, err := strconv.Atoi(normalized)
		if err != nil {
			return Expr{}, false
		}
		return Expr{Modifier: value}, true
	}

	match := dicePattern.FindStringSubmatch(normalized)
	if match == nil {
		return Expr{}, false
	}

	count := 1
	if match[1] != "" {
		n, err := strconv.Atoi(match[1])
		if err != nil {
			return Expr{}, false
		}
		count = n
	}
	sides, err := strconv.Atoi(match[2])
	if err != nil || sides < 1 {
		return Expr{}, false
	}

	modifier := 0
	if match[3] != "" {
		k, err := strconv.Atoi(match[4])
		if err != nil {
			return Expr{}, false
		}
		if match[3] == "-" {
			k = -k
		}
		modifier = k
	}

	multiplier := 0
	if match[5] != "" {
		x, err := strconv.Atoi(match[5])
		if err != nil || x < 1 {
			return Expr{}, false
		}
		multiplier = x
	}

	return Expr{Count: count, Sides: sides, Modifier: modifier, Multiplier: multiplier}, true
}

// Valid reports whether expr parses.
func Valid(expr string) bool {
	_, ok := Parse(expr)
	return ok
}

// Roll evaluates a parsed expression.
func (e Expr) Roll(rng random.Func) int {
	total := e.Modifier
	if e.Sides == 0 {
		return total
	}
	for i := 0; i < e.Count; i++ {
		total += random.Roll(rng, e.Sides)
	}
	if e.Multiplier > 0 {
		total *= e.Multiplier
	}
	return total
}

// Evaluate rolls expr. Expressions that do not parse evaluate to 0.
func Evaluate(expr string, rng random.Func) int {
	parsed, ok := Parse(expr)
	if !ok {
		return 0
	}
	return parsed.Roll(rng)
}
