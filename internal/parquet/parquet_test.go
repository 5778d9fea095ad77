package parquet

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/racebar/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleRuns returns runs with and without the nullable fields populated.
func sampleRuns() []Run {
	now := time.Now()
	end := now.Add(90 * time.Second)
	durationMs := int32(90000)
	params := `{"speed":1,"max_bars":10}`

	return []Run{
		{RunID: 1, RepoPath: "/repo/a", StartTime: now, EndTime: &end, RunDurationMs: &durationMs, TotalFrames: 12, ConfigParams: &params},
		{RunID: 2, RepoPath: "/repo/b", StartTime: now.Add(time.Minute)},
	}
}

func sampleRankings() []Ranking {
	return []Ranking{
		{RunID: 1, Bucket: "2023-01", Rank: 1, EntityID: "alice", Value: 5, Color0: "#111111", Color1: "#222222"},
		{RunID: 1, Bucket: "2023-01", Rank: 2, EntityID: "renovate[bot]", Value: 3, Color0: "#333333", Color1: "#444444", Bot: true},
		{RunID: 1, Bucket: "2023-02", Rank: 1, EntityID: "bob", Value: 7, Color0: "#8b949e", Color1: "#6e7681", Fallback: true},
	}
}

// readAll reads every row of a Parquet file written for T.
func readAll[T any](t *testing.T, path string) []T {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[T](file)
	defer func() { _ = reader.Close() }()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	return rows[:n]
}

func TestStructTags(t *testing.T) {
	tests := []struct {
		name    string
		model   any
		columns []string
	}{
		{"run", new(Run), []string{"run_id", "repo_path", "start_time", "end_time", "run_duration_ms", "total_frames", "config_params"}},
		{"ranking", new(Ranking), []string{"run_id", "bucket", "rank", "entity_id", "value", "color0", "color1", "bot", "fallback"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := parquet.SchemaOf(tt.model)
			for _, col := range tt.columns {
				_, ok := s.Lookup(col)
				assert.True(t, ok, "column %s should exist", col)
			}
		})
	}
}

func TestWriteRunsParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.parquet")
	data := sampleRuns()
	require.NoError(t, WriteRunsParquet(data, path))

	got := readAll[Run](t, path)
	require.Len(t, got, len(data))

	assert.Equal(t, int64(1), got[0].RunID)
	assert.Equal(t, "/repo/a", got[0].RepoPath)
	assert.Equal(t, int32(12), got[0].TotalFrames)
	require.NotNil(t, got[0].EndTime)
	assert.WithinDuration(t, *data[0].EndTime, *got[0].EndTime, time.Nanosecond)
	require.NotNil(t, got[0].RunDurationMs)
	assert.Equal(t, int32(90000), *got[0].RunDurationMs)
	require.NotNil(t, got[0].ConfigParams)
	assert.Equal(t, *data[0].ConfigParams, *got[0].ConfigParams)

	// Nullable fields survive as nil
	assert.Nil(t, got[1].EndTime)
	assert.Nil(t, got[1].RunDurationMs)
	assert.Nil(t, got[1].ConfigParams)
	assert.WithinDuration(t, data[1].StartTime, got[1].StartTime, time.Nanosecond)
}

func TestWriteRankingsParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rankings.parquet")
	data := sampleRankings()
	require.NoError(t, WriteRankingsParquet(data, path))

	got := readAll[Ranking](t, path)
	assert.Equal(t, data, got)
}

func TestWriteParquetEmptyData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.parquet")
	require.NoError(t, WriteRankingsParquet([]Ranking{}, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0), "file should contain the schema even if empty")
}

func TestWriteParquetInvalidPath(t *testing.T) {
	assert.Error(t, WriteRunsParquet(sampleRuns(), "/nonexistent/directory/runs.parquet"))
	assert.Error(t, WriteRankingsParquet(sampleRankings(), "/nonexistent/directory/rankings.parquet"))
}

func TestConvertRecords(t *testing.T) {
	end := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	runs := ConvertRunRecords([]schema.RunRecord{
		{RunID: 7, RepoPath: "/r", StartTime: end.Add(-time.Minute), EndTime: &end, TotalFrames: 3},
	})
	require.Len(t, runs, 1)
	assert.Equal(t, int64(7), runs[0].RunID)
	assert.Equal(t, &end, runs[0].EndTime)
	assert.Equal(t, int32(3), runs[0].TotalFrames)

	rankings := ConvertRankingRecords([]schema.RankingRecord{
		{RunID: 7, Bucket: "2024-Q1", Rank: 1, EntityID: "alice", Value: 2, Color0: "#a", Color1: "#b", Bot: false, Fallback: true},
	})
	assert.Equal(t, []Ranking{{RunID: 7, Bucket: "2024-Q1", Rank: 1, EntityID: "alice", Value: 2, Color0: "#a", Color1: "#b", Fallback: true}}, rankings)
}

func TestConvertFrames(t *testing.T) {
	frames := []*schema.ChartFrame{
		{Bucket: "2023-01", Ranking: []schema.RankedBar{
			{Rank: 1, EntityID: "bob", Value: 7, Colors: schema.ColorPair{"#1", "#2"}},
			{Rank: 2, EntityID: "alice", Value: 5, Colors: schema.ColorPair{"#3", "#4"}},
		}},
		{Bucket: "2023-02"},
		{Bucket: "2023-03", Ranking: []schema.RankedBar{
			{Rank: 1, EntityID: "dependabot[bot]", Value: 1, Colors: schema.DefaultColors, Bot: true, Fallback: true},
		}},
	}

	rows := ConvertFrames(0, frames)
	require.Len(t, rows, 3)
	assert.Equal(t, Ranking{Bucket: "2023-01", Rank: 1, EntityID: "bob", Value: 7, Color0: "#1", Color1: "#2"}, rows[0])
	assert.Equal(t, "2023-03", rows[2].Bucket)
	assert.True(t, rows[2].Bot)
	assert.True(t, rows[2].Fallback)
}
