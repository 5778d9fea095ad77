package schema

import "time"

// CacheStatus represents the status of the cache store.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// HistoryStatus represents the status of the ranking history store.
type HistoryStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalRuns     int              `json:"total_runs"`
	LastRunID     int64            `json:"last_run_id"`
	LastRunTime   time.Time        `json:"last_run_time"`
	OldestRunTime time.Time        `json:"oldest_run_time"`
	TotalFrames   int              `json:"total_frames"`
	TableSizes    map[string]int64 `json:"table_sizes"`
}

// RunRecord represents a row from the racebar_runs table.
type RunRecord struct {
	RunID         int64
	RepoPath      string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	TotalFrames   int32
	ConfigParams  *string
}

// RankingRecord represents a row from the racebar_rankings table.
type RankingRecord struct {
	RunID    int64
	Bucket   string
	Rank     int32
	EntityID string
	Value    float64
	Color0   string
	Color1   string
	Bot      bool
	Fallback bool
}
