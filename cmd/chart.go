package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/huangsam/racebar/core"
	"github.com/huangsam/racebar/internal/contract"
	"github.com/spf13/cobra"
)

// tenureCmd classifies contributors by how long they keep showing up.
var tenureCmd = &cobra.Command{
	Use:   "tenure [repo-path]",
	Short: "Classify contributors as new, regular or long-term",
	Long: `Count how many time buckets each contributor appears in after their first one.

Tenure is the number of additional buckets in which a contributor has activity.
Contributors at or above the long-term threshold are counted as long-term.

Examples:
  # Monthly tenure for the current repository
  racebar tenure

  # Quarterly tenure keyed by email, as JSON
  racebar tenure --granularity quarter --identity email --output json

  # Classify a pre-built activity table
  racebar tenure --input activity.json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteTenure(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot classify tenure", err)
		}
	},
}

// frameCmd builds the chart configuration for a single bucket.
var frameCmd = &cobra.Command{
	Use:   "frame [repo-path]",
	Short: "Build the racing bar chart frame for one bucket",
	Long: `Rank contributors for one time bucket and emit the chart configuration.

The frame holds the top --max-bars contributors, their colors and avatar
labels, and animation timings scaled by --speed.

Examples:
  # Latest bucket as renderer JSON
  racebar frame --output json

  # A specific month with five bars at double speed
  racebar frame --bucket 2024-03 --max-bars 5 --speed 2 --output json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteFrame(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot build frame", err)
		}
	},
}

// framesCmd builds frames for every bucket.
var framesCmd = &cobra.Command{
	Use:   "frames [repo-path]",
	Short: "Build racing bar chart frames for every bucket",
	Long: `Build one chart frame per time bucket in chronological order.

When --history-backend is set, every frame ranking is recorded as part of a
history run for later export.

Examples:
  # All frames as a JSON array
  racebar frames --output json --output-file frames.json

  # Rankings as Parquet for analytics
  racebar frames --output parquet --output-file rankings.parquet

  # Record the run in the default SQLite history store
  racebar frames --history-backend sqlite`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteFrames(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot build frames", err)
		}
	},
}

// playCmd streams frames at the playback cadence.
var playCmd = &cobra.Command{
	Use:   "play [repo-path]",
	Short: "Stream frames as newline-delimited JSON at playback speed",
	Long: `Play the racing bar chart by emitting one JSON frame per line.

Frames are spaced by the update interval divided by --speed. Press Ctrl+C to
stop playback early.

Examples:
  # Pipe frames into a renderer
  racebar play --speed 4 | my-renderer

  # Stream a pre-built table
  racebar play --input activity.json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := core.ExecutePlay(ctx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot play frames", err)
		}
	},
}

// bucketsCmd lists the buckets of the activity table.
var bucketsCmd = &cobra.Command{
	Use:   "buckets [repo-path]",
	Short: "List time buckets with totals and leaders",
	Long: `Show every bucket of the activity table with its record count,
total activity and leading contributor.

Examples:
  # Monthly buckets since the start of last year
  racebar buckets --start 2023-01-01

  # Weekly buckets with gaps filled in
  racebar buckets --granularity week --fill-gaps`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteBuckets(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot list buckets", err)
		}
	},
}
