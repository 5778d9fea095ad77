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

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Get cache-related config values
	backend := schema.DatabaseBackend(viper.GetString("cache-backend"))
	connStr := viper.GetString("cache-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// Initialize caching with the loaded config (no history tracking for cache commands)
	if err := iocache.InitStores(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr

	return nil
}

// cacheSetupWrapper wraps cacheSetup to provide PreRunE for cache commands.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// cacheDBFilePath is the SQLite file holding the activity and color caches.
func cacheDBFilePath() string {
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.CacheDBConnect != "" {
		return cfg.CacheDBConnect
	}
	return contract.GetCacheDBFilePath()
}

// cacheCmd focused on cache management.
//
// Note: Cache subcommands use minimal initialization (cacheSetup) instead of
// the full sharedSetup used by chart commands. This avoids Git repo validation
// and complex config processing for simple cache operations.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage activity and color caches (improves performance)",
	Long: `Manage the caches that speed up repeated runs.

Racebar caches aggregated activity tables keyed by repository HEAD and options,
and the colors resolved for each contributor.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (in-memory)

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached data

Examples:
  # Check cache status
  racebar cache status

  # Clear cache after rewriting history
  racebar cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached activity tables and colors",
	Long: `Delete all cached data from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache tables

Examples:
  # Clear SQLite cache (default)
  racebar cache clear

  # Clear MySQL cache (set connection string via env variable)
  RACEBAR_CACHE_BACKEND=mysql RACEBAR_CACHE_DB_CONNECT="..." racebar cache clear`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		// Release the SQLite handles opened during setup before removing the file
		iocache.CloseStores()
		if err := iocache.ClearCache(cfg.CacheBackend, cacheDBFilePath(), cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show entry counts, timestamps and sizes for the activity and color caches.

Examples:
  # Check cache status
  racebar cache status`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		stores := []struct {
			name  string
			store contract.CacheStore
		}{
			{name: "Activity", store: iocache.Manager.GetActivityStore()},
			{name: "Color", store: iocache.Manager.GetColorStore()},
		}
		for i, s := range stores {
			if s.store == nil {
				continue
			}
			status, err := s.store.GetStatus()
			if err != nil {
				contract.LogFatal(fmt.Sprintf("Failed to get %s cache status", s.name), err)
			}
			if i > 0 {
				fmt.Println()
			}
			iocache.PrintCacheStatus(os.Stdout, s.name, status)
		}
	},
}
