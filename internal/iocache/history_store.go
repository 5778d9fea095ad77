package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/racebar/internal/contract"
	"github.com/huangsam/racebar/schema"
)

// Table names for ranking history.
const (
	runsTable     = "racebar_runs"
	rankingsTable = "racebar_rankings"
)

// HistoryStoreImpl implements the HistoryStore interface.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore creates a HistoryStore with the specified backend and
// migrates its tables to the latest version.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (contract.HistoryStore, error) {
	if backend == schema.NoneBackend {
		// No-op store for disabled tracking
		return &HistoryStoreImpl{backend: backend}, nil
	}

	if _, err := MigrateHistory(backend, connStr, -1); err != nil {
		return nil, fmt.Errorf("failed to prepare history tables: %w", err)
	}

	db, err := openDatabase(backend, connStr, contract.GetHistoryDBFilePath())
	if err != nil {
		return nil, err
	}
	return &HistoryStoreImpl{db: db, backend: backend}, nil
}

func (hs *HistoryStoreImpl) disabled() bool {
	return hs.backend == schema.NoneBackend || hs.db == nil
}

// rankColumn quotes the rank column where it is a reserved word.
func (hs *HistoryStoreImpl) rankColumn() string {
	if hs.backend == schema.MySQLBackend {
		return "`rank`"
	}
	return "rank"
}

// BeginRun creates a new run and returns its unique ID.
func (hs *HistoryStoreImpl) BeginRun(repoPath string, startTime time.Time, configParams map[string]any) (int64, error) {
	if hs.disabled() {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	table := quoteTableName(runsTable, hs.backend)
	args := []any{repoPath, formatTime(startTime, hs.backend), string(configJSON)}

	var runID int64
	switch hs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (repo_path, start_time, config_params) VALUES ($1, $2, $3) RETURNING run_id`, table)
		err = hs.db.QueryRow(query, args...).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (repo_path, start_time, config_params) VALUES (?, ?, ?)`, table)
		var result sql.Result
		result, err = hs.db.Exec(query, args...)
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// RecordRanking stores the ranked bars of one bucket in a single transaction.
func (hs *HistoryStoreImpl) RecordRanking(runID int64, bucket string, bars []schema.RankedBar) error {
	if hs.disabled() || len(bars) == 0 {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO %s (run_id, bucket, %s, entity_id, value, color0, color1, bot, fallback) VALUES (%s)`,
		quoteTableName(rankingsTable, hs.backend), hs.rankColumn(), placeholders(hs.backend, 9))

	tx, err := hs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin ranking transaction: %w", err)
	}
	stmt, err := tx.Prepare(query)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare ranking insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, bar := range bars {
		if _, err := stmt.Exec(runID, bucket, bar.Rank, bar.EntityID, bar.Value, bar.Colors[0], bar.Colors[1], bar.Bot, bar.Fallback); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert ranking for %s in %s: %w", bar.EntityID, bucket, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rankings for %s: %w", bucket, err)
	}
	return nil
}

// EndRun updates the run with completion data.
func (hs *HistoryStoreImpl) EndRun(runID int64, endTime time.Time, totalFrames int) error {
	if hs.disabled() {
		return nil
	}

	table := quoteTableName(runsTable, hs.backend)
	selectQuery := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, table, placeholders(hs.backend, 1))
	startTime, err := scanTime(hs.db.QueryRow(selectQuery, runID), hs.backend)
	if err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}

	durationMs := endTime.Sub(startTime).Milliseconds()

	var updateQuery string
	switch hs.backend {
	case schema.PostgreSQLBackend:
		updateQuery = fmt.Sprintf(`UPDATE %s SET end_time = $1, run_duration_ms = $2, total_frames = $3 WHERE run_id = $4`, table)
	default: // SQLite and MySQL
		updateQuery = fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?, total_frames = ? WHERE run_id = ?`, table)
	}
	if _, err := hs.db.Exec(updateQuery, formatTime(endTime, hs.backend), durationMs, totalFrames, runID); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if hs.disabled() {
		return status, nil
	}

	table := quoteTableName(runsTable, hs.backend)
	if err := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		lastQuery := fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", table)
		lastID, lastTime, err := scanIDAndTime(hs.db.QueryRow(lastQuery), hs.backend)
		if err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		status.LastRunID = lastID
		status.LastRunTime = lastTime

		oldestQuery := fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", table)
		if status.OldestRunTime, err = scanTime(hs.db.QueryRow(oldestQuery), hs.backend); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}

		framesQuery := fmt.Sprintf("SELECT COALESCE(SUM(total_frames), 0) FROM %s", table)
		if err := hs.db.QueryRow(framesQuery).Scan(&status.TotalFrames); err != nil {
			return status, fmt.Errorf("failed to get total frames: %w", err)
		}
	}

	for _, name := range []string{runsTable, rankingsTable} {
		var count int64
		countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(name, hs.backend))
		if err := hs.db.QueryRow(countQuery).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", name, err)
		}
		status.TableSizes[name] = count
	}
	return status, nil
}

// GetAllRuns retrieves all runs ordered by ID.
func (hs *HistoryStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if hs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT run_id, repo_path, start_time, end_time, run_duration_ms, total_frames, config_params FROM %s ORDER BY run_id",
		quoteTableName(runsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord
		switch hs.backend {
		case schema.SQLiteBackend:
			var startStr string
			var endStr *string
			if err := rows.Scan(&record.RunID, &record.RepoPath, &startStr, &endStr, &record.RunDurationMs, &record.TotalFrames, &record.ConfigParams); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
			if record.StartTime, err = time.Parse(time.RFC3339Nano, startStr); err != nil {
				return nil, fmt.Errorf("failed to parse start_time: %w", err)
			}
			if endStr != nil {
				endTime, err := time.Parse(time.RFC3339Nano, *endStr)
				if err != nil {
					return nil, fmt.Errorf("failed to parse end_time: %w", err)
				}
				record.EndTime = &endTime
			}
		default: // MySQL and PostgreSQL
			if err := rows.Scan(&record.RunID, &record.RepoPath, &record.StartTime, &record.EndTime, &record.RunDurationMs, &record.TotalFrames, &record.ConfigParams); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllRankings retrieves all ranking rows ordered by run, bucket and rank.
func (hs *HistoryStoreImpl) GetAllRankings() ([]schema.RankingRecord, error) {
	if hs.disabled() {
		return nil, nil
	}

	rank := hs.rankColumn()
	query := fmt.Sprintf("SELECT run_id, bucket, %s, entity_id, value, color0, color1, bot, fallback FROM %s ORDER BY run_id, bucket, %s",
		rank, quoteTableName(rankingsTable, hs.backend), rank)
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query rankings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RankingRecord
	for rows.Next() {
		var r schema.RankingRecord
		if err := rows.Scan(&r.RunID, &r.Bucket, &r.Rank, &r.EntityID, &r.Value, &r.Color0, &r.Color1, &r.Bot, &r.Fallback); err != nil {
			return nil, fmt.Errorf("failed to scan ranking: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rankings: %w", err)
	}
	return results, nil
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	if backend == schema.SQLiteBackend {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return t
}

// scanTime reads a single time column stored by formatTime.
func scanTime(row *sql.Row, backend schema.DatabaseBackend) (time.Time, error) {
	if backend != schema.SQLiteBackend {
		var t time.Time
		err := row.Scan(&t)
		return t, err
	}
	var s string
	if err := row.Scan(&s); err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, s)
}

// scanIDAndTime reads an ID column followed by a time column.
func scanIDAndTime(row *sql.Row, backend schema.DatabaseBackend) (int64, time.Time, error) {
	var id int64
	if backend != schema.SQLiteBackend {
		var t time.Time
		err := row.Scan(&id, &t)
		return id, t, err
	}
	var s string
	if err := row.Scan(&id, &s); err != nil {
		return 0, time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	return id, t, err
}
