// Package cmd defines the command-line interface for racebar.
package cmd

import (
	"github.com/huangsam/racebar/internal/contract"
	"github.com/huangsam/racebar/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(tenureCmd)
	rootCmd.AddCommand(frameCmd)
	rootCmd.AddCommand(framesCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(bucketsCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().StringP("input", "i", "", "Activity table JSON file to use instead of Git history")
	rootCmd.PersistentFlags().String("start", "", "Start date in ISO8601 or time ago (default: beginning of history)")
	rootCmd.PersistentFlags().String("end", "", "End date in ISO8601 or time ago")
	rootCmd.PersistentFlags().String("granularity", string(schema.MonthGranularity), "Bucket width: month or quarter or year or week")
	rootCmd.PersistentFlags().String("metric", string(schema.CommitsMetric), "Bar value: commits or churn")
	rootCmd.PersistentFlags().String("identity", string(schema.NameIdentity), "Author identity: name or email")
	rootCmd.PersistentFlags().String("exclude-authors", "", "Comma-separated list of author names, emails or patterns to ignore")
	rootCmd.PersistentFlags().Bool("fill-gaps", false, "Emit empty buckets for periods without commits")
	rootCmd.PersistentFlags().Float64("speed", contract.DefaultSpeed, "Playback speed multiplier")
	rootCmd.PersistentFlags().IntP("max-bars", "n", contract.DefaultMaxBars, "Number of bars per frame")
	rootCmd.PersistentFlags().String("animate", "yes", "Animate axis and label transitions (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("avatar-url", schema.DefaultAvatarURL, "Avatar URL template with one %s for the entity id")
	rootCmd.PersistentFlags().String("color-timeout", contract.DefaultColorTimeout.String(), "Time limit for a single color lookup")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent color lookups")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug details to stderr")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("history-backend", "", "Frame history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for frame history (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of frameCmd to Viper
	frameCmd.Flags().StringP("bucket", "b", "", "Bucket key to render (default: most recent bucket)")
	if err := viper.BindPFlags(frameCmd.Flags()); err != nil {
		contract.LogFatal("Error binding frame flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
