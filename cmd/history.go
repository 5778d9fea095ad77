package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/racebar/internal/contract"
	"github.com/huangsam/racebar/internal/iocache"
	"github.com/huangsam/racebar/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// loadHistoryBackend reads and validates the history backend settings.
// An empty backend falls back to NoneBackend.
func loadHistoryBackend() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	backendStr := viper.GetString("history-backend")
	connStr := viper.GetString("history-db-connect")

	backend := schema.NoneBackend
	if backendStr != "" {
		backend = schema.DatabaseBackend(backendStr)
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", backendStr)
	}
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// historySetup loads minimal configuration and opens the history store.
func historySetup() error {
	backend, connStr, err := loadHistoryBackend()
	if err != nil {
		return err
	}

	// Initialize history tracking only (no caching for history commands)
	if err := iocache.InitStores("", "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize history store: %w", err)
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr

	return nil
}

// historySetupWrapper wraps historySetup to provide PreRunE for history commands.
func historySetupWrapper(_ *cobra.Command, _ []string) error {
	return historySetup()
}

// historyMigrateSetup loads minimal configuration needed for migrate operations.
// This does NOT initialize stores or create tables, allowing migrations to run on
// a fresh database.
func historyMigrateSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := loadHistoryBackend()
	if err != nil {
		return err
	}
	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	return nil
}

// historyDBFilePath is the SQLite file holding recorded runs.
func historyDBFilePath() string {
	if cfg.HistoryBackend == schema.SQLiteBackend && cfg.HistoryDBConnect != "" {
		return cfg.HistoryDBConnect
	}
	return contract.GetHistoryDBFilePath()
}

// historyCmd focused on frame history management.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage recorded frame rankings and exports",
	Long: `Manage the rankings recorded by "racebar frames" when --history-backend is set.

Each run stores its repository, options and timing, plus the ranked bars of
every frame it built.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show history statistics
  export  - Export runs and rankings to Parquet
  clear   - Remove all recorded history
  migrate - Run database schema migrations

Examples:
  # Check history status
  racebar history status --history-backend sqlite

  # Export for analysis in pandas/DuckDB
  racebar history export --history-backend sqlite --output-file history`,
}

// historyClearCmd clears the recorded history.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded runs and rankings",
	Long: `Delete all stored runs and frame rankings.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  racebar history export --history-backend sqlite --output-file backup
  racebar history clear --history-backend sqlite`,
	PreRunE: historyMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearHistory(cfg.HistoryBackend, historyDBFilePath(), cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Failed to clear history", err)
		}
		fmt.Println("History cleared successfully.")
	},
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display history statistics and connection details",
	Long: `Show run counts, timestamps and table sizes for the history store.

Examples:
  # Check history status
  racebar history status --history-backend sqlite`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetHistoryStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		iocache.PrintHistoryStatus(os.Stdout, status)
	},
}

// historyExportCmd exports history data to Parquet files.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded history to Parquet for BI tools and analytics",
	Long: `Export all stored runs and rankings to Parquet.

Writes two files next to --output-file:
- <output-file>.runs.parquet - one row per run
- <output-file>.rankings.parquet - one row per ranked bar

Requires: --output-file parameter

Examples:
  # Export all data
  racebar history export --history-backend sqlite --output-file racebar

  # Query with DuckDB
  duckdb -c "SELECT bucket, entity_id, value FROM read_parquet('racebar.rankings.parquet') WHERE rank = 1"`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		outputFile := viper.GetString("output-file")
		if err := iocache.ExecuteHistoryExport(os.Stdout, iocache.Manager.GetHistoryStore(), outputFile); err != nil {
			contract.LogFatal("Failed to export history", err)
		}
	},
}

// historyMigrateCmd runs database migrations for the history store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  racebar history migrate --history-backend sqlite

  # Migrate to specific version
  racebar history migrate --history-backend sqlite --target-version 1

  # Rollback all migrations
  racebar history migrate --history-backend sqlite --target-version 0`,
	PreRunE: historyMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		result, err := iocache.MigrateHistory(cfg.HistoryBackend, cfg.HistoryDBConnect, targetVersion)
		if err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		if !result.Changed {
			fmt.Printf("History schema already at version %d.\n", result.To)
			return
		}
		fmt.Printf("Migrated history schema from version %d to %d.\n", result.From, result.To)
	},
}
