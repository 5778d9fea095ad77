package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/racebar/internal/contract"
	"github.com/huangsam/racebar/internal/parquet"
)

// Suffixes appended to the export base name.
const (
	runsExportSuffix     = ".runs.parquet"
	rankingsExportSuffix = ".rankings.parquet"
)

// ExecuteHistoryExport exports every run and ranking in store to Parquet files
// named after outputFile.
func ExecuteHistoryExport(w io.Writer, store contract.HistoryStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("history store is not configured. Set --history-backend")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no history data found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total ranking rows: %d\n", status.TableSizes[rankingsTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	rankings, err := store.GetAllRankings()
	if err != nil {
		return fmt.Errorf("failed to retrieve rankings: %w", err)
	}

	runsFile := outputFile + runsExportSuffix
	if err := parquet.WriteRunsParquet(parquet.ConvertRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(runs), runsFile)

	rankingsFile := outputFile + rankingsExportSuffix
	if err := parquet.WriteRankingsParquet(parquet.ConvertRankingRecords(rankings), rankingsFile); err != nil {
		return fmt.Errorf("failed to write rankings: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d ranking rows to: %s\n", len(rankings), rankingsFile)
	return nil
}
