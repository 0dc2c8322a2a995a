package config

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
)

// maxLevenshteinDistance bounds how far a typo can be from a known key
// before we stop suggesting it.
const maxLevenshteinDistance = 3

var knownKeys = map[string]bool{
	"engine":               true,
	"engine.provider":      true,
	"engine.dsn":           true,
	"session":              true,
	"session.email":        true,
	"transfers":            true,
	"transfers.parallel":   true,
	"streaming":            true,
	"streaming.chunk_size": true,
	"journal":              true,
	"journal.enabled":      true,
	"journal.path":         true,
	"logging":              true,
	"logging.level":        true,
	"logging.format":       true,
	"logging.file":         true,
}

func knownKeyList() []string {
	keys := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// checkUnknownKeys rejects config keys that did not decode into the
// Config struct, suggesting the closest known key for likely typos.
func checkUnknownKeys(md toml.MetaData) error {
	for _, key := range md.Undecoded() {
		name := key.String()
		if suggestion := closestMatch(name); suggestion != "" {
			return fmt.Errorf("unknown config key %q (did you mean %q?)", name, suggestion)
		}
		return fmt.Errorf("unknown config key %q", name)
	}
	return nil
}

// closestMatch returns the known key nearest to key, or "" when
// nothing is within maxLevenshteinDistance.
func closestMatch(key string) string {
	best := ""
	bestDistance := maxLevenshteinDistance + 1
	for _, known := range knownKeyList() {
		d := levenshtein(key, known)
		if d < bestDistance {
			best = known
			bestDistance = d
		}
	}
	return best
}

// levenshtein computes edit distance with a single reusable row.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	row := make([]int, len(b)+1)
	for i := range row {
		row[i] = i
	}

	for i := 1; i <= len(a); i++ {
		prev := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			current := row[j]
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			row[j] = minOf(row[j]+1, row[j-1]+1, prev+cost)
			prev = current
		}
	}

	return row[len(b)]
}

func minOf(nums ...int) int {
	m := nums[0]
	for _, n := range nums[1:] {
		if n < m {
			m = n
		}
	}
	return m
}
