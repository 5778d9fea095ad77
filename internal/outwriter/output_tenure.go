package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/huangsam/racebar/core/algo"
	"github.com/huangsam/racebar/internal/contract"
	"github.com/huangsam/racebar/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// tenureRow is one entity of the tenure report.
type tenureRow struct {
	EntityID string `json:"entity_id"`
	Records  int    `json:"records"` // Appearances across all buckets
	Tenure   int    `json:"tenure"`
	Label    string `json:"label"`
	Bot      bool   `json:"bot"`
}

// tenureRows orders entities by tenure, keeping first-seen order for ties.
func tenureRows(result schema.LongTermResult) []tenureRow {
	rows := make([]tenureRow, len(result.EntityIDs))
	for i, id := range result.EntityIDs {
		tenure := result.Tenure[id]
		rows[i] = tenureRow{
			EntityID: id,
			Records:  tenure + 1,
			Tenure:   tenure,
			Label:    contract.GetPlainTenureLabel(tenure),
			Bot:      algo.IsBot(id),
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Tenure > rows[j].Tenure
	})
	return rows
}

// WriteTenureResults outputs the tenure report, dispatching based on the output format configured.
func WriteTenureResults(result schema.LongTermResult, cfg *contract.Config, duration time.Duration) error {
	rows := tenureRows(result)
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSONTenure(w, result, rows)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVTenure(w, rows)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for tenure reports")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTenureTable(w, result, rows, cfg, duration)
		}, "Wrote table")
	}
}

func writeJSONTenure(w io.Writer, result schema.LongTermResult, rows []tenureRow) error {
	type jsonTenureReport struct {
		schema.LongTermResult
		Threshold int         `json:"threshold"`
		Entities  []tenureRow `json:"entities"`
	}
	return writeJSON(w, jsonTenureReport{
		LongTermResult: result,
		Threshold:      schema.LongTermThreshold,
		Entities:       rows,
	})
}

func writeCSVTenure(w io.Writer, rows []tenureRow) error {
	header := []string{"entity_id", "records", "tenure", "label", "bot"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range rows {
			rec := []string{
				r.EntityID,
				strconv.Itoa(r.Records),
				strconv.Itoa(r.Tenure),
				r.Label,
				strconv.FormatBool(r.Bot),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeTenureTable(w io.Writer, result schema.LongTermResult, rows []tenureRow, cfg *contract.Config, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Entity", "Records", "Tenure", "Label"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	width := getMaxTableLabelWidth(cfg)
	data := make([][]string, 0, len(rows))
	for i, r := range rows {
		entity := contract.TruncateLabel(r.EntityID, width)
		label := r.Label
		if cfg.UseColors {
			label = contract.GetColorTenureLabel(r.Tenure)
			if r.Bot {
				entity = contract.BotColor.Sprint(entity)
			}
		}
		data = append(data, []string{
			strconv.Itoa(i + 1),
			entity,
			strconv.Itoa(r.Records),
			strconv.Itoa(r.Tenure),
			label,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Long-term entities: %d of %d (tenure >= %d)\n", result.Count, len(rows), schema.LongTermThreshold); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Classified in %v. Cache backend: %s\n", duration.Round(time.Millisecond), cfg.CacheBackend)
	return err
}
