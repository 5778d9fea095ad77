// Package core has the entry points that turn git history into tenure reports and racing bar frames.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/racebar/core/algo"
	"github.com/huangsam/racebar/core/frame"
	"github.com/huangsam/racebar/internal/contract"
	"github.com/huangsam/racebar/internal/outwriter"
	"github.com/huangsam/racebar/internal/palette"
	"github.com/huangsam/racebar/schema"
)

// ExecutorFunc defines the function signature for executing the different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// ErrNoBuckets is returned when a frame is requested from a table without buckets.
var ErrNoBuckets = errors.New("activity table has no buckets")

// ExecuteTenure classifies every entity of the activity table and prints the report.
func ExecuteTenure(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	result, duration, err := GetTenureResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.WriteTenureResults(result, cfg, duration)
}

// ExecuteFrame builds the frame of a single bucket and prints it.
func ExecuteFrame(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	chartFrame, duration, err := GetFrameResult(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.WriteFrameResult(chartFrame, cfg, duration)
}

// ExecuteFrames builds the frame of every bucket, records the run in the
// history store when one is configured, and prints the frames.
func ExecuteFrames(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	frames, runID, duration, err := GetFramesResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.WriteFramesResults(frames, runID, cfg, duration)
}

// ExecutePlay plays the activity table bucket by bucket at the configured speed,
// writing each frame as one line of JSON.
func ExecutePlay(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	table, err := loadTable(WithSuppressHeader(ctx), cfg, mgr)
	if err != nil {
		return err
	}
	opts := frame.OptionsFromConfig(cfg)
	if err := opts.Validate(); err != nil {
		return err
	}
	player := frame.NewPlayer(newColorResolver(cfg, mgr), table, opts)

	start := time.Now()
	err = outwriter.WriteFrameStream(cfg, func(emit func(*schema.ChartFrame) error) error {
		return frame.Play(ctx, player, opts.Interval(), emit)
	})
	contract.Timed("playback finished", start)
	return err
}

// ExecuteBuckets lists the buckets of the activity table.
func ExecuteBuckets(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	summaries, duration, err := GetBucketResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.WriteBucketResults(summaries, cfg, duration)
}

// GetTenureResults loads the activity table and classifies its entities.
func GetTenureResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (schema.LongTermResult, time.Duration, error) {
	start := time.Now()
	table, err := loadTable(ctx, cfg, mgr)
	if err != nil {
		return schema.LongTermResult{}, 0, err
	}
	result, err := algo.ClassifyTenure(table)
	if err != nil {
		return schema.LongTermResult{}, 0, err
	}
	return result, time.Since(start), nil
}

// GetFrameResult loads the activity table and builds the frame of cfg.Bucket.
// An empty bucket selects the most recent one.
func GetFrameResult(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (*schema.ChartFrame, time.Duration, error) {
	start := time.Now()
	table, err := loadTable(ctx, cfg, mgr)
	if err != nil {
		return nil, 0, err
	}
	bucket, err := selectBucket(table, cfg.Bucket)
	if err != nil {
		return nil, 0, err
	}
	chartFrame, err := frame.BuildFrame(ctx, newColorResolver(cfg, mgr), table, bucket, frame.OptionsFromConfig(cfg))
	if err != nil {
		return nil, 0, err
	}
	return chartFrame, time.Since(start), nil
}

// GetFramesResults builds one frame per bucket in table order. The returned run ID
// is zero unless the run was recorded in the history store.
func GetFramesResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) ([]*schema.ChartFrame, int64, time.Duration, error) {
	start := time.Now()
	table, err := loadTable(ctx, cfg, mgr)
	if err != nil {
		return nil, 0, 0, err
	}
	opts := frame.OptionsFromConfig(cfg)
	if err := opts.Validate(); err != nil {
		return nil, 0, 0, err
	}
	colors := newColorResolver(cfg, mgr)

	ctx = beginHistoryRun(ctx, cfg, mgr)
	frames := make([]*schema.ChartFrame, 0, table.Len())
	for _, bucket := range table.Keys() {
		chartFrame, err := frame.BuildFrame(ctx, colors, table, bucket, opts)
		if err != nil {
			return nil, 0, 0, err
		}
		recordFrame(ctx, mgr, chartFrame)
		frames = append(frames, chartFrame)
	}
	endHistoryRun(ctx, mgr, len(frames))

	runID, _ := getRunID(ctx)
	return frames, runID, time.Since(start), nil
}

// GetBucketResults loads the activity table and summarizes each bucket.
func GetBucketResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) ([]schema.BucketSummary, time.Duration, error) {
	start := time.Now()
	table, err := loadTable(ctx, cfg, mgr)
	if err != nil {
		return nil, 0, err
	}
	return algo.Summarize(table), time.Since(start), nil
}

// loadTable prints the run header unless suppressed and loads the activity table.
func loadTable(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (*schema.ActivityTable, error) {
	if !shouldSuppressHeader(ctx) && cfg.Output == schema.TextOut {
		outwriter.LogRunHeader(cfg)
	}
	defer contract.Timed("activity table loaded", time.Now())
	return LoadActivityTable(ctx, cfg, contract.NewLocalGitClient(), mgr)
}

// selectBucket resolves the requested bucket, defaulting to the last one.
func selectBucket(table *schema.ActivityTable, requested string) (string, error) {
	if requested != "" {
		return requested, nil
	}
	keys := table.Keys()
	if len(keys) == 0 {
		return "", ErrNoBuckets
	}
	return keys[len(keys)-1], nil
}

// newColorResolver stacks the memoizing cache over the persistent color store,
// which in turn falls back to hash-derived colors.
func newColorResolver(cfg *contract.Config, mgr contract.CacheManager) *palette.Cache {
	var source palette.Source = palette.DefaultHashSource()
	if mgr != nil {
		if store := mgr.GetColorStore(); store != nil {
			source = palette.NewStoreSource(store, source)
		}
	}
	return palette.NewCache(source, cfg.ColorTimeout)
}

// runConfigParams captures the settings that shaped a run for the history store.
func runConfigParams(cfg *contract.Config) map[string]any {
	return map[string]any{
		"granularity": string(cfg.Granularity),
		"metric":      string(cfg.Metric),
		"identity":    string(cfg.Identity),
		"speed":       cfg.Speed,
		"max_bars":    cfg.MaxBars,
		"animate":     cfg.Animate,
		"input_file":  cfg.InputFile,
		"workers":     cfg.Workers,
	}
}

// beginHistoryRun starts a history run and stores its ID in the returned context.
func beginHistoryRun(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) context.Context {
	store := historyStore(mgr)
	if store == nil {
		return ctx
	}
	source := cfg.RepoPath
	if cfg.InputFile != "" {
		source = cfg.InputFile
	}
	runID, err := store.BeginRun(source, time.Now(), runConfigParams(cfg))
	if err != nil {
		contract.LogWarn("History tracking initialization failed", err)
		return ctx
	}
	if runID > 0 {
		ctx = withRunID(ctx, runID)
	}
	return ctx
}

// recordFrame stores the ranking of one frame under the current run.
func recordFrame(ctx context.Context, mgr contract.CacheManager, chartFrame *schema.ChartFrame) {
	runID, ok := getRunID(ctx)
	if !ok {
		return
	}
	if err := historyStore(mgr).RecordRanking(runID, chartFrame.Bucket, chartFrame.Ranking); err != nil {
		logTrackingError("RecordRanking", chartFrame.Bucket, err)
	}
}

// endHistoryRun finalizes the current run.
func endHistoryRun(ctx context.Context, mgr contract.CacheManager, totalFrames int) {
	runID, ok := getRunID(ctx)
	if !ok {
		return
	}
	if err := historyStore(mgr).EndRun(runID, time.Now(), totalFrames); err != nil {
		contract.LogWarn("Failed to finalize history tracking", err)
	}
}

func historyStore(mgr contract.CacheManager) contract.HistoryStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetHistoryStore()
}

// logTrackingError logs history write failures without stopping the run.
func logTrackingError(operation, bucket string, err error) {
	contract.LogWarn(fmt.Sprintf("History tracking failed for %s (%s)", bucket, operation), err)
}
