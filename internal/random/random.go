// Package random provides the seeded float sources shared by the prep generators.
//
// A Func is passed explicitly into every generator so tests can substitute
// deterministic stubs. New derives a reproducible sequence from a string seed;
// the same seed yields the same sequence on every platform.
package random

import (
	"math/rand/v2"
	"strconv"
	"unicode/utf16"
)

// Func returns floats in [0,1).
type Func func() float64

// New returns a deterministic source for seed.
func New(seed string) Func {
	state := hashSeed(seed)
	return func() float64 {
		state += 0x6D2B79F5
		t := state
		t = (t ^ t>>15) * (t | 1)
		t ^= t + (t^t>>7)*(t|61)
		return float64(t^t>>14) / 4294967296
	}
}

// FromInt renders a numeric seed so numeric and string seeds share one path.
func FromInt(n int64) string {
	return strconv.FormatInt(n, 10)
}

// Platform returns a non-deterministic source.
func Platform() Func {
	return rand.Float64
}

// hashSeed is 32-bit FNV-1a over UTF-16 code units.
func hashSeed(seed string) uint32 {
	h := uint32(0x811c9dc5)
	for _, unit := range utf16.Encode([]rune(seed)) {
		h ^= uint32(unit)
		h *= 0x01000193
	}
	return h
}

// Index returns an integer in [0,n). n must be positive.
func Index(rng Func, n int) int {
	i := int(rng() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// Roll returns a die result in [1,sides].
func Roll(rng Func, sides int) int {
	if sides < 1 {
		return 0
	}
	return Index(rng, sides) + 1
}

func D20(rng Func) int  { return Roll(rng, 20) }
func D100(rng Func) int { return Roll(rng, 100) }
