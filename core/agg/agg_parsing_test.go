package agg

import (
	"testing"
	"time"

	"github.com/huangsam/racebar/schema"
	"github.com/stretchr/testify/assert"
)

func TestParseCommitHeader(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		ok     bool
		author string
		email  string
	}{
		{name: "valid", line: "--abc|Alice|alice@x.io|2024-01-02T03:04:05Z", ok: true, author: "Alice", email: "alice@x.io"},
		{name: "offset date", line: "--abc|A|a@x|2024-01-02T03:04:05+01:00", ok: true, author: "A", email: "a@x"},
		{name: "missing email", line: "--abc|Alice|2024-01-02T03:04:05Z", ok: false},
		{name: "bad date", line: "--abc|Alice|a@x|yesterday", ok: false},
		{name: "too short", line: "--a", ok: false},
		{name: "not a header", line: "12\t3\tfile.go", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := parseCommitHeader(tt.line)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.author, c.Author)
				assert.Equal(t, tt.email, c.Email)
				assert.False(t, c.Date.IsZero())
			}
		})
	}
}

func TestParseChurnValue(t *testing.T) {
	assert.Equal(t, 0, parseChurnValue("-"))
	assert.Equal(t, 42, parseChurnValue("42"))
	assert.Equal(t, 0, parseChurnValue("-5"))
	assert.Equal(t, 0, parseChurnValue("abc"))
}

func TestParseActivityLog(t *testing.T) {
	commits := parseActivityLog(gitLogBasicFixture)
	assert.Len(t, commits, 6)
	assert.Equal(t, "a1b2c3d4", commits[0].Hash)
	assert.Equal(t, 19, commits[0].Churn)
	assert.Equal(t, 50, commits[2].Churn, "binary files count as zero")

	t.Run("quoted headers and stray stats", func(t *testing.T) {
		out := []byte("5\t5\torphan.go\n'--h1|Q|q@x|2024-01-01T00:00:00Z'\n1\t2\ta.go\n--broken\n9\t9\tb.go\n")
		commits := parseActivityLog(out)
		assert.Len(t, commits, 1)
		assert.Equal(t, 3, commits[0].Churn, "stats after a broken header are dropped")
	})
}

func TestBucketKey(t *testing.T) {
	ts := time.Date(2024, time.February, 29, 23, 0, 0, 0, time.FixedZone("minus3", -3*3600)) // 2024-03-01 02:00 UTC
	tests := []struct {
		g    schema.Granularity
		want string
	}{
		{schema.MonthGranularity, "2024-03"},
		{schema.QuarterGranularity, "2024-Q1"},
		{schema.YearGranularity, "2024"},
		{schema.WeekGranularity, "2024-W09"},
	}

	for _, tt := range tests {
		t.Run(string(tt.g), func(t *testing.T) {
			assert.Equal(t, tt.want, BucketKey(ts, tt.g))
		})
	}

	// ISO week-year differs from the calendar year around new year
	assert.Equal(t, "2020-W53", BucketKey(time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC), schema.WeekGranularity))
}

func TestFillGaps(t *testing.T) {
	tests := []struct {
		name  string
		first string
		last  string
		g     schema.Granularity
		want  []string
	}{
		{"months across year", "2023-11", "2024-02", schema.MonthGranularity, []string{"2023-11", "2023-12", "2024-01", "2024-02"}},
		{"quarters", "2023-Q3", "2024-Q2", schema.QuarterGranularity, []string{"2023-Q3", "2023-Q4", "2024-Q1", "2024-Q2"}},
		{"years", "2020", "2022", schema.YearGranularity, []string{"2020", "2021", "2022"}},
		{"weeks across ISO year", "2020-W52", "2021-W02", schema.WeekGranularity, []string{"2020-W52", "2020-W53", "2021-W01", "2021-W02"}},
		{"unparseable keeps endpoints", "bogus", "2024-02", schema.MonthGranularity, []string{"bogus", "2024-02"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fillGaps(tt.first, tt.last, tt.g))
		})
	}
}
