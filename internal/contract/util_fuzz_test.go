package contract

import (
	"strings"
	"testing"
)

// FuzzShouldIgnore fuzzes the ShouldIgnore function with random authors and exclude patterns.
func FuzzShouldIgnore(f *testing.F) {
	seeds := []struct {
		author   string
		excludes string // comma-separated
	}{
		{"alice", "[bot]"},
		{"dependabot[bot]", "[bot]"},
		{"ci@example.com", "*@example.com"},
		{"", ""},
		{"Renovate", "[a-"},
	}
	for _, seed := range seeds {
		f.Add(seed.author, seed.excludes)
	}

	f.Fuzz(func(_ *testing.T, author string, excludesStr string) {
		var excludes []string
		for ex := range strings.SplitSeq(excludesStr, ",") {
			if trimmed := strings.TrimSpace(ex); trimmed != "" {
				excludes = append(excludes, trimmed)
			}
		}
		_ = ShouldIgnore(author, excludes)
	})
}
