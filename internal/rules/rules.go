// Package rules holds the static rule data consumed by the prep generators:
// terrain and travel encounter tables and the loot dataset. Data is decoded
// from YAML and validated once at load; generators only read it afterwards.
package rules

import (
	"embed"
	"fmt"
	"sort"
)

//go:embed data/*.yaml
var embedded embed.FS

// CRBuckets are the six challenge rating ranges, in order.
var CRBuckets = []string{"0-1", "2-4", "5-10", "11-16", "17-20", "21+"}

// IsCRBucket reports whether label is one of CRBuckets.
func IsCRBucket(label string) bool {
	return BucketIndex(label) >= 0
}

// BucketIndex returns the position of label in CRBuckets, or -1.
func BucketIndex(label string) int {
	for i, bucket := range CRBuckets {
		if bucket == label {
			return i
		}
	}
	return -1
}

type ranged interface {
	bounds() (int, int)
}

// validateD100 checks rows are ordered, contiguous and cover 1..100 exactly.
func validateD100[T ranged](rows []T) error {
	if len(rows) == 0 {
		return fmt.Errorf("no rows")
	}
	next := 1
	for i, row := range rows {
		lo, hi := row.bounds()
		if lo > hi {
			return fmt.Errorf("row %d has min %d greater than max %d", i, lo, hi)
		}
		if lo != next {
			if lo < next {
				return fmt.Errorf("row %d (%d-%d) overlaps previous row", i, lo, hi)
			}
			return fmt.Errorf("gap before row %d: expected min %d, got %d", i, next, lo)
		}
		next = hi + 1
	}
	if next != 101 {
		return fmt.Errorf("rows end at %d, expected 100", next-1)
	}
	return nil
}

// lookupD100 returns the row whose range contains roll.
func lookupD100[T ranged](rows []T, roll int) (int, bool) {
	i := sort.Search(len(rows), func(i int) bool {
		_, hi := rows[i].bounds()
		return hi >= roll
	})
	if i == len(rows) {
		return 0, false
	}
	lo, _ := rows[i].bounds()
	if roll < lo {
		return 0, false
	}
	return i, true
}
