package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/racebar/internal/contract"
	"github.com/huangsam/racebar/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteBucketResults outputs the bucket listing, dispatching based on the output format configured.
func WriteBucketResults(summaries []schema.BucketSummary, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, summaries)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVBuckets(w, summaries, fmtFloat)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for bucket listings")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeBucketTable(w, summaries, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
}

func writeCSVBuckets(w io.Writer, summaries []schema.BucketSummary, fmtFloat func(float64) string) error {
	header := []string{"bucket", "records", "total", "leader"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, s := range summaries {
			if err := cw.Write([]string{s.Bucket, strconv.Itoa(s.Records), fmtFloat(s.Total), s.Leader}); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeBucketTable(w io.Writer, summaries []schema.BucketSummary, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Bucket", "Records", "Total", "Leader"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	width := getMaxTableLabelWidth(cfg)
	data := make([][]string, 0, len(summaries))
	empty := 0
	for _, s := range summaries {
		if s.Records == 0 {
			empty++
		}
		data = append(data, []string{
			s.Bucket,
			strconv.Itoa(s.Records),
			fmtFloat(s.Total),
			contract.TruncateLabel(s.Leader, width),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Showing %d buckets (%d without activity)\n", len(summaries), empty); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Listed in %v. Cache backend: %s\n", duration.Round(time.Millisecond), cfg.CacheBackend)
	return err
}
