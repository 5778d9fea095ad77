package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/racebar/internal/contract"
	"github.com/huangsam/racebar/internal/parquet"
	"github.com/huangsam/racebar/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// rankingCSVHeader is shared by single frame and multi frame CSV output.
var rankingCSVHeader = []string{"bucket", "rank", "entity_id", "value", "color0", "color1", "bot", "fallback"}

// WriteFrameResult outputs a single frame. JSON is the renderer configuration itself.
func WriteFrameResult(chartFrame *schema.ChartFrame, cfg *contract.Config, duration time.Duration) error {
	return writeFrames([]*schema.ChartFrame{chartFrame}, chartFrame, 0, cfg, duration)
}

// WriteFramesResults outputs every frame of a run, dispatching based on the output format configured.
// JSON output is an array of renderer configurations in bucket order.
func WriteFramesResults(frames []*schema.ChartFrame, runID int64, cfg *contract.Config, duration time.Duration) error {
	return writeFrames(frames, frames, runID, cfg, duration)
}

func writeFrames(frames []*schema.ChartFrame, jsonValue any, runID int64, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, jsonValue)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVFrames(w, frames, fmtFloat)
		}, "Wrote CSV")
	case schema.ParquetOut:
		if cfg.OutputFile == "" {
			return errParquetNeedsFile
		}
		if err := parquet.WriteRankingsParquet(parquet.ConvertFrames(runID, frames), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing parquet output: %w", err)
		}
		contract.LogDebug("wrote parquet rankings", "file", cfg.OutputFile, "frames", len(frames))
		return nil
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			for _, f := range frames {
				if err := writeFrameTable(w, f, cfg, fmtFloat); err != nil {
					return err
				}
			}
			return writeFramesSummary(w, frames, runID, cfg, duration)
		}, "Wrote table")
	}
}

func writeCSVFrames(w io.Writer, frames []*schema.ChartFrame, fmtFloat func(float64) string) error {
	return writeCSVWithHeader(w, rankingCSVHeader, func(cw *csv.Writer) error {
		for _, f := range frames {
			for _, bar := range f.Ranking {
				rec := []string{
					f.Bucket,
					strconv.Itoa(bar.Rank),
					bar.EntityID,
					fmtFloat(bar.Value),
					bar.Colors[0],
					bar.Colors[1],
					strconv.FormatBool(bar.Bot),
					strconv.FormatBool(bar.Fallback),
				}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// writeFrameTable prints the ranking of one frame under its bucket heading.
func writeFrameTable(w io.Writer, f *schema.ChartFrame, cfg *contract.Config, fmtFloat func(float64) string) error {
	if _, err := fmt.Fprintf(w, "▶ %s\n", f.Bucket); err != nil {
		return err
	}
	if len(f.Ranking) == 0 {
		_, err := fmt.Fprintln(w, "  (no activity)")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Entity", "Value", "Colors", "Note"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	width := getMaxTableLabelWidth(cfg)
	data := make([][]string, 0, len(f.Ranking))
	for _, bar := range f.Ranking {
		entity := contract.TruncateLabel(bar.EntityID, width)
		if bar.Bot && cfg.UseColors {
			entity = contract.BotColor.Sprint(entity)
		}
		data = append(data, []string{
			strconv.Itoa(bar.Rank),
			entity,
			fmtFloat(bar.Value),
			bar.Colors[0] + " → " + bar.Colors[1],
			barNote(bar),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// barNote marks bots and bars drawn with fallback colors.
func barNote(bar schema.RankedBar) string {
	switch {
	case bar.Bot && bar.Fallback:
		return "bot, default colors"
	case bar.Bot:
		return "bot"
	case bar.Fallback:
		return "default colors"
	default:
		return ""
	}
}

func writeFramesSummary(w io.Writer, frames []*schema.ChartFrame, runID int64, cfg *contract.Config, duration time.Duration) error {
	failures := 0
	for _, f := range frames {
		failures += len(f.StyleFailures)
	}
	if _, err := fmt.Fprintf(w, "Built %d frames (max bars: %d, speed: %gx, color fallbacks: %d)\n", len(frames), cfg.MaxBars, cfg.Speed, failures); err != nil {
		return err
	}
	if runID > 0 {
		if _, err := fmt.Fprintf(w, "Recorded as history run %d\n", runID); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Completed in %v with %d workers. Cache backend: %s\n", duration.Round(time.Millisecond), cfg.Workers, cfg.CacheBackend)
	return err
}

// WriteFrameStream hands play an emit function that writes each frame as one
// line of JSON to the configured output.
func WriteFrameStream(cfg *contract.Config, play func(emit func(*schema.ChartFrame) error) error) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return play(newFrameEmitter(w))
	}, "Wrote NDJSON")
}

// newFrameEmitter returns an emit function writing NDJSON to w.
func newFrameEmitter(w io.Writer) func(*schema.ChartFrame) error {
	encoder := json.NewEncoder(w)
	return func(f *schema.ChartFrame) error {
		if err := encoder.Encode(f); err != nil {
			return fmt.Errorf("failed to encode frame %q: %w", f.Bucket, err)
		}
		return nil
	}
}
