package agg

import (
	"fmt"
	"strings"
	"time"
)

// gitLogScenario represents a single commit scenario for test data generation.
type gitLogScenario struct {
	commitHash string
	author     string
	email      string
	date       time.Time
	files      []fileChange
}

// fileChange represents a single file change in a commit.
type fileChange struct {
	path      string
	additions int
	deletions int
}

// generateTestGitLog creates a programmatic git log fixture for testing.
func generateTestGitLog(scenarios []gitLogScenario) []byte {
	var lines []string
	for _, scenario := range scenarios {
		lines = append(lines, fmt.Sprintf("--%s|%s|%s|%s", scenario.commitHash, scenario.author, scenario.email, scenario.date.Format(time.RFC3339)))
		for _, file := range scenario.files {
			lines = append(lines, fmt.Sprintf("%d\t%d\t%s", file.additions, file.deletions, file.path))
		}
		lines = append(lines, "") // Empty line between commits
	}
	return []byte(strings.Join(lines, "\n"))
}

// monthlyScenarios creates one commit per author per month, starting at base.
func monthlyScenarios(base time.Time, months int, authors ...string) []gitLogScenario {
	var scenarios []gitLogScenario
	for m := range months {
		for i, author := range authors {
			scenarios = append(scenarios, gitLogScenario{
				commitHash: fmt.Sprintf("%02d%02d", m, i),
				author:     author,
				email:      strings.ToLower(author) + "@example.com",
				date:       base.AddDate(0, m, 0),
				files:      []fileChange{{"main.go", m + 1, i}},
			})
		}
	}
	return scenarios
}
