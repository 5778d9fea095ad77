// Package agg has aggregation logic that turns Git history into activity tables.
package agg

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/racebar/internal/contract"
	"github.com/huangsam/racebar/schema"
)

// noreplyDomain is the GitHub address used for private commit emails.
const noreplyDomain = "@users.noreply.github.com"

// commitActivity is one commit as read from the activity log.
type commitActivity struct {
	Hash   string
	Author string
	Email  string
	Date   time.Time
	Churn  int
}

// BuildActivityTable runs a single repository-wide git log and aggregates it
// into a chronological activity table. It runs over the entire history if
// cfg.StartTime is zero, or since cfg.StartTime otherwise.
func BuildActivityTable(ctx context.Context, cfg *contract.Config, client contract.GitClient) (*schema.ActivityTable, error) {
	out, err := client.GetActivityLog(ctx, cfg.RepoPath, cfg.StartTime, cfg.EndTime)
	if err != nil {
		return nil, err
	}
	commits := parseActivityLog(out)
	contract.LogDebug("parsed activity log", "commits", len(commits), "repo", cfg.RepoPath)
	return aggregateCommits(commits, cfg), nil
}

// LoadTableFile reads an activity table from a JSON file. Bucket order is the
// key order of the document.
func LoadTableFile(path string) (*schema.ActivityTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading activity table: %w", err)
	}
	table := schema.NewActivityTable()
	if err := json.Unmarshal(data, table); err != nil {
		return nil, fmt.Errorf("decoding activity table %s: %w", path, err)
	}
	return table, nil
}

// parseActivityLog splits the git log output into commits with their total churn.
func parseActivityLog(out []byte) []commitActivity {
	var commits []commitActivity
	var current *commitActivity

	for l := range strings.SplitSeq(string(out), "\n") {
		l = strings.Trim(l, " \t\r\n'")

		if strings.HasPrefix(l, "--") {
			// Commit header line
			c, ok := parseCommitHeader(l)
			if !ok {
				current = nil
				continue
			}
			commits = append(commits, c)
			current = &commits[len(commits)-1]
			continue
		}
		if l == "" || current == nil {
			continue
		}
		current.Churn += parseFileStatsLine(l)
	}
	return commits
}

// parseCommitHeader extracts hash, author, email and date from a commit header line.
func parseCommitHeader(line string) (commitActivity, bool) {
	if !strings.HasPrefix(line, "--") || len(line) < 9 { // --h|a|e|d minimum
		return commitActivity{}, false
	}
	parts := strings.SplitN(line[2:], "|", 4) // commit|author|email|date
	if len(parts) != 4 {
		return commitActivity{}, false
	}
	date, err := time.Parse(time.RFC3339, parts[3])
	if err != nil {
		return commitActivity{}, false
	}
	return commitActivity{
		Hash:   parts[0],
		Author: strings.TrimSpace(parts[1]),
		Email:  strings.TrimSpace(parts[2]),
		Date:   date,
	}, true
}

// parseFileStatsLine returns the lines added plus deleted of a numstat line.
func parseFileStatsLine(line string) int {
	parts := strings.SplitN(line, "\t", 3)
	if len(parts) < 3 {
		return 0
	}
	return parseChurnValue(parts[0]) + parseChurnValue(parts[1])
}

// parseChurnValue converts a churn string to int, handling "-" as 0.
func parseChurnValue(s string) int {
	if s == "-" {
		return 0
	}
	if val, err := strconv.Atoi(s); err == nil && val >= 0 {
		return val
	}
	return 0
}

// EntityID picks the identity of a commit author.
func EntityID(author, email string, identity schema.Identity) string {
	if identity != schema.EmailIdentity {
		return author
	}
	email = strings.ToLower(email)
	if login, ok := strings.CutSuffix(email, noreplyDomain); ok {
		// 12345+login@users.noreply.github.com
		if _, after, found := strings.Cut(login, "+"); found {
			return after
		}
		return login
	}
	return email
}

// aggregateCommits buckets commits and sums the configured metric per entity.
func aggregateCommits(commits []commitActivity, cfg *contract.Config) *schema.ActivityTable {
	totals := make(map[string]map[string]float64)
	for _, c := range commits {
		if c.Author == "" && c.Email == "" {
			continue
		}
		id := EntityID(c.Author, c.Email, cfg.Identity)
		if id == "" || contract.ShouldIgnore(c.Author, cfg.Excludes) || contract.ShouldIgnore(id, cfg.Excludes) {
			continue
		}
		bucket := BucketKey(c.Date, cfg.Granularity)
		if totals[bucket] == nil {
			totals[bucket] = make(map[string]float64)
		}
		switch cfg.Metric {
		case schema.ChurnMetric:
			totals[bucket][id] += float64(c.Churn)
		default:
			totals[bucket][id]++
		}
	}

	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	if cfg.FillGaps && len(keys) > 1 {
		keys = fillGaps(keys[0], keys[len(keys)-1], cfg.Granularity)
	}

	table := schema.NewActivityTable()
	for _, bucket := range keys {
		byEntity := totals[bucket]
		ids := make([]string, 0, len(byEntity))
		for id := range byEntity {
			ids = append(ids, id)
		}
		slices.Sort(ids)

		records := make([]schema.ActivityRecord, 0, len(ids))
		for _, id := range ids {
			records = append(records, schema.ActivityRecord{EntityID: id, Value: byEntity[id]})
		}
		table.SetBucket(bucket, records)
	}
	return table
}
