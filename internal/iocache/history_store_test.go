package iocache

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/racebar/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteHistory(t *testing.T) (*HistoryStoreImpl, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := NewHistoryStore(schema.SQLiteBackend, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store.(*HistoryStoreImpl), path
}

func sampleBars() []schema.RankedBar {
	return []schema.RankedBar{
		{Rank: 1, EntityID: "bob", Value: 7, Colors: schema.ColorPair{"#111111", "#222222"}, RichKey: "avatarbob"},
		{Rank: 2, EntityID: "alice", Value: 5, Colors: schema.ColorPair{"#333333", "#444444"}, RichKey: "avataralice"},
		{Rank: 3, EntityID: "renovate[bot]", Value: 1, Colors: schema.DefaultColors, Bot: true, Fallback: true},
	}
}

func TestHistoryStoreNoneBackend(t *testing.T) {
	store, err := NewHistoryStore(schema.NoneBackend, "")
	require.NoError(t, err)

	id, err := store.BeginRun("/repo", time.Now(), nil)
	assert.NoError(t, err)
	assert.Zero(t, id)
	assert.NoError(t, store.RecordRanking(id, "2024-01", sampleBars()))
	assert.NoError(t, store.EndRun(id, time.Now(), 1))

	runs, err := store.GetAllRuns()
	assert.NoError(t, err)
	assert.Empty(t, runs)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestHistoryStoreSQLite(t *testing.T) {
	store, _ := newSQLiteHistory(t)

	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	runID, err := store.BeginRun("/repo", start, map[string]any{"speed": 2.0, "max_bars": 10})
	require.NoError(t, err)
	assert.Positive(t, runID)

	require.NoError(t, store.RecordRanking(runID, "2024-01", sampleBars()))
	require.NoError(t, store.RecordRanking(runID, "2024-02", sampleBars()[:1]))
	require.NoError(t, store.RecordRanking(runID, "2024-03", nil))
	require.NoError(t, store.EndRun(runID, start.Add(1500*time.Millisecond), 3))

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, runID, run.RunID)
	assert.Equal(t, "/repo", run.RepoPath)
	assert.True(t, start.Equal(run.StartTime))
	require.NotNil(t, run.EndTime)
	require.NotNil(t, run.RunDurationMs)
	assert.Equal(t, int32(1500), *run.RunDurationMs)
	assert.Equal(t, int32(3), run.TotalFrames)
	require.NotNil(t, run.ConfigParams)
	assert.JSONEq(t, `{"speed":2,"max_bars":10}`, *run.ConfigParams)

	rankings, err := store.GetAllRankings()
	require.NoError(t, err)
	require.Len(t, rankings, 4)
	assert.Equal(t, schema.RankingRecord{RunID: runID, Bucket: "2024-01", Rank: 1, EntityID: "bob", Value: 7, Color0: "#111111", Color1: "#222222"}, rankings[0])
	assert.Equal(t, "renovate[bot]", rankings[2].EntityID)
	assert.True(t, rankings[2].Bot)
	assert.True(t, rankings[2].Fallback)
	assert.Equal(t, "2024-02", rankings[3].Bucket)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 1, status.TotalRuns)
	assert.Equal(t, runID, status.LastRunID)
	assert.Equal(t, 3, status.TotalFrames)
	assert.Equal(t, int64(1), status.TableSizes[runsTable])
	assert.Equal(t, int64(4), status.TableSizes[rankingsTable])
}

func TestHistoryStoreDuplicateRank(t *testing.T) {
	store, _ := newSQLiteHistory(t)
	runID, err := store.BeginRun("/repo", time.Now(), nil)
	require.NoError(t, err)

	bars := []schema.RankedBar{{Rank: 1, EntityID: "a"}, {Rank: 1, EntityID: "b"}}
	assert.Error(t, store.RecordRanking(runID, "2024-01", bars))

	rankings, err := store.GetAllRankings()
	require.NoError(t, err)
	assert.Empty(t, rankings, "a failed bucket is rolled back")
}

func TestHistoryStoreMultipleRuns(t *testing.T) {
	store, path := newSQLiteHistory(t)
	for i := range 3 {
		id, err := store.BeginRun("/repo", time.Now().Add(time.Duration(i)*time.Second), nil)
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), id)
	}
	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 3, status.TotalRuns)
	assert.Equal(t, int64(3), status.LastRunID)
	assert.True(t, status.OldestRunTime.Before(status.LastRunTime))

	require.NoError(t, store.Close())
	require.NoError(t, ClearHistory(schema.SQLiteBackend, path, ""))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestMigrateHistory(t *testing.T) {
	t.Run("none backend", func(t *testing.T) {
		_, err := MigrateHistory(schema.NoneBackend, "", -1)
		assert.Error(t, err)
	})

	t.Run("sqlite up, down and to version", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "history.db")

		result, err := MigrateHistory(schema.SQLiteBackend, path, -1)
		require.NoError(t, err)
		assert.Equal(t, MigrationResult{From: 0, To: 2, Changed: true}, result)

		result, err = MigrateHistory(schema.SQLiteBackend, path, -1)
		require.NoError(t, err)
		assert.False(t, result.Changed)
		assert.Equal(t, uint(2), result.To)

		result, err = MigrateHistory(schema.SQLiteBackend, path, 1)
		require.NoError(t, err)
		assert.Equal(t, MigrationResult{From: 2, To: 1, Changed: true}, result)

		result, err = MigrateHistory(schema.SQLiteBackend, path, 0)
		require.NoError(t, err)
		assert.Equal(t, MigrationResult{From: 1, To: 0, Changed: true}, result)
	})
}

func TestExecuteHistoryExport(t *testing.T) {
	t.Run("requires output file", func(t *testing.T) {
		err := ExecuteHistoryExport(&bytes.Buffer{}, &MockHistoryStore{}, "")
		assert.ErrorContains(t, err, "--output-file")
	})

	t.Run("requires store", func(t *testing.T) {
		err := ExecuteHistoryExport(&bytes.Buffer{}, nil, "out")
		assert.ErrorContains(t, err, "history store is not configured")
	})

	t.Run("no data", func(t *testing.T) {
		store := &MockHistoryStore{}
		store.On("GetStatus").Return(schema.HistoryStatus{Backend: "sqlite", Connected: true}, nil)
		err := ExecuteHistoryExport(&bytes.Buffer{}, store, "out")
		assert.ErrorContains(t, err, "no history data")
	})

	t.Run("status failure", func(t *testing.T) {
		store := &MockHistoryStore{}
		store.On("GetStatus").Return(schema.HistoryStatus{}, errors.New("boom"))
		err := ExecuteHistoryExport(&bytes.Buffer{}, store, "out")
		assert.ErrorContains(t, err, "boom")
	})

	t.Run("writes both files", func(t *testing.T) {
		store := &MockHistoryStore{}
		store.On("GetStatus").Return(schema.HistoryStatus{Backend: "sqlite", Connected: true, TotalRuns: 1, TableSizes: map[string]int64{rankingsTable: 1}}, nil)
		store.On("GetAllRuns").Return([]schema.RunRecord{{RunID: 1, RepoPath: "/repo", StartTime: time.Now()}}, nil)
		store.On("GetAllRankings").Return([]schema.RankingRecord{{RunID: 1, Bucket: "2024-01", Rank: 1, EntityID: "bob", Value: 2}}, nil)

		base := filepath.Join(t.TempDir(), "history")
		var out bytes.Buffer
		require.NoError(t, ExecuteHistoryExport(&out, store, base))

		assert.FileExists(t, base+runsExportSuffix)
		assert.FileExists(t, base+rankingsExportSuffix)
		assert.Contains(t, out.String(), "Exported 1 runs")
		assert.Contains(t, out.String(), "Exported 1 ranking rows")
		store.AssertExpectations(t)
	})

	t.Run("sqlite round trip", func(t *testing.T) {
		store, _ := newSQLiteHistory(t)
		runID, err := store.BeginRun("/repo", time.Now(), nil)
		require.NoError(t, err)
		require.NoError(t, store.RecordRanking(runID, "2024-01", sampleBars()))
		require.NoError(t, store.EndRun(runID, time.Now(), 1))

		base := filepath.Join(t.TempDir(), "export")
		require.NoError(t, ExecuteHistoryExport(&bytes.Buffer{}, store, base))
		assert.FileExists(t, base+rankingsExportSuffix)
	})

}

func TestPrintStatus(t *testing.T) {
	var out bytes.Buffer
	PrintCacheStatus(&out, "Activity", schema.CacheStatus{Backend: "none"})
	assert.Equal(t, "Activity Cache Backend: none\nConnected: false\n", out.String())

	out.Reset()
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)
	PrintCacheStatus(&out, "Color", schema.CacheStatus{Backend: "sqlite", Connected: true, TotalEntries: 2, LastEntryTime: ts, OldestEntryTime: ts, TableSizeBytes: 4096})
	assert.Contains(t, out.String(), "Total Entries: 2")
	assert.Contains(t, out.String(), "Last Entry: 2024-01-02 03:04:05")
	assert.Contains(t, out.String(), "Table Size: 4096 bytes")

	out.Reset()
	PrintHistoryStatus(&out, schema.HistoryStatus{
		Backend: "sqlite", Connected: true, TotalRuns: 1, LastRunID: 9, LastRunTime: ts, OldestRunTime: ts, TotalFrames: 12,
		TableSizes: map[string]int64{rankingsTable: 40, runsTable: 1},
	})
	assert.Contains(t, out.String(), "Last Run ID: 9")
	assert.Contains(t, out.String(), "Total Frames Recorded: 12")
	assert.Contains(t, out.String(), "  racebar_rankings: 40 rows\n  racebar_runs: 1 rows\n")
}
