package encounter

import (
	"strings"

	"campaignwiki/internal/rules"
)

const bucketPrefix = "cr:"

var difficultyDelta = map[string]int{
	DifficultyEasy:   -1,
	DifficultyMedium: 0,
	DifficultyHard:   1,
	DifficultyDeadly: 2,
}

// ResolveCRBuckets returns explicit CR tags verbatim (prefixed "cr:"), or the
// difficulty-shifted bucket followed by the party level's base bucket.
func ResolveCRBuckets(crTags []string, level int, difficulty string) []string {
	if len(crTags) > 0 {
		out := make([]string, 0, len(crTags))
		for _, tag := range crTags {
			out = appendUnique(out, bucketPrefix+tag)
		}
		return out
	}

	base := baseBucket(level)
	shifted := base + difficultyDelta[normalizeDifficulty(difficulty)]
	if shifted < 0 {
		shifted = 0
	}
	if shifted > len(rules.CRBuckets)-1 {
		shifted = len(rules.CRBuckets) - 1
	}

	out := []string{bucketPrefix + rules.CRBuckets[shifted]}
	return appendUnique(out, bucketPrefix+rules.CRBuckets[base])
}

func baseBucket(level int) int {
	switch {
	case level <= 1:
		return 0
	case level <= 4:
		return 1
	case level <= 10:
		return 2
	case level <= 16:
		return 3
	case level <= 20:
		return 4
	default:
		return 5
	}
}

// bucketLabels strips the "cr:" prefix for comparison with table entries.
func bucketLabels(buckets []string) map[string]struct{} {
	labels := make(map[string]struct{}, len(buckets))
	for _, bucket := range buckets {
		labels[strings.TrimPrefix(bucket, bucketPrefix)] = struct{}{}
	}
	return labels
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}
