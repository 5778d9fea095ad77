// Package parquet provides data structures and functions for exporting racebar
// rankings to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/racebar/schema"
	"github.com/parquet-go/parquet-go"
)

// Run represents a single recorded frames run with metadata.
// This struct maps to the racebar_runs database table.
type Run struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// RepoPath is the repository (or input file) the run was built from
	RepoPath string `parquet:"repo_path,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// TotalFrames is the number of frames built in this run
	TotalFrames int32 `parquet:"total_frames,snappy"`

	// ConfigParams contains the JSON-encoded frame options (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// Ranking is one ranked bar of one frame.
// This struct maps to the racebar_rankings database table.
type Ranking struct {
	RunID    int64   `parquet:"run_id,snappy"`
	Bucket   string  `parquet:"bucket,dict,snappy"`
	Rank     int32   `parquet:"rank,snappy"`
	EntityID string  `parquet:"entity_id,dict,snappy"`
	Value    float64 `parquet:"value,snappy"`
	Color0   string  `parquet:"color0,dict,snappy"`
	Color1   string  `parquet:"color1,dict,snappy"`
	Bot      bool    `parquet:"bot"`
	Fallback bool    `parquet:"fallback"`
}

// writeParquet writes rows to a new file at outputPath using struct schema inference.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	// Close writes the footer
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteRunsParquet writes a slice of Run structs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteRankingsParquet writes a slice of Ranking structs to a Parquet file.
func WriteRankingsParquet(data []Ranking, outputPath string) error {
	return writeParquet(data, outputPath)
}

// ConvertRunRecords converts schema.RunRecord to Run for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		result[i] = Run{
			RunID:         record.RunID,
			RepoPath:      record.RepoPath,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			TotalFrames:   record.TotalFrames,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertRankingRecords converts schema.RankingRecord to Ranking for Parquet export.
func ConvertRankingRecords(records []schema.RankingRecord) []Ranking {
	result := make([]Ranking, len(records))
	for i, record := range records {
		result[i] = Ranking{
			RunID:    record.RunID,
			Bucket:   record.Bucket,
			Rank:     record.Rank,
			EntityID: record.EntityID,
			Value:    record.Value,
			Color0:   record.Color0,
			Color1:   record.Color1,
			Bot:      record.Bot,
			Fallback: record.Fallback,
		}
	}
	return result
}

// ConvertFrames flattens the ranked bars of built frames into ranking rows.
// Frames that were never recorded carry run ID 0.
func ConvertFrames(runID int64, frames []*schema.ChartFrame) []Ranking {
	var result []Ranking
	for _, f := range frames {
		for _, bar := range f.Ranking {
			result = append(result, Ranking{
				RunID:    runID,
				Bucket:   f.Bucket,
				Rank:     int32(bar.Rank),
				EntityID: bar.EntityID,
				Value:    bar.Value,
				Color0:   bar.Colors[0],
				Color1:   bar.Colors[1],
				Bot:      bar.Bot,
				Fallback: bar.Fallback,
			})
		}
	}
	return result
}
