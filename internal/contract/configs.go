package contract

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/huangsam/racebar/schema"
)

// Default values for configuration.
const (
	DefaultSpeed        = 1.0
	DefaultMaxBars      = 10
	MaxBarsLimit        = 1000
	DefaultPrecision    = 1
	DefaultColorTimeout = 2 * time.Second
)

// CacheGranularity defines the time granularity for caching activity tables.
// This ensures consistent cache key generation and time window alignment across
// the application and tests.
const CacheGranularity = time.Hour

// DefaultWorkers is the default number of concurrent color lookups per frame.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// Config holds the runtime configuration.
// This struct remains the "final, validated" config.
type Config struct {
	RepoPath  string
	InputFile string // ActivityTable JSON; when set, git is not consulted
	StartTime time.Time
	EndTime   time.Time

	Granularity schema.Granularity
	Metric      schema.Metric
	Identity    schema.Identity
	Excludes    []string // Author patterns to drop
	FillGaps    bool

	Bucket       string
	Speed        float64
	MaxBars      int
	Animate      bool
	AvatarURL    string
	ColorTimeout time.Duration
	Workers      int

	Precision  int
	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool
	Verbose    bool

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	RepoPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Input            string  `mapstructure:"input"`
	Start            string  `mapstructure:"start"`
	End              string  `mapstructure:"end"`
	Granularity      string  `mapstructure:"granularity"`
	Metric           string  `mapstructure:"metric"`
	Identity         string  `mapstructure:"identity"`
	ExcludeAuthors   string  `mapstructure:"exclude-authors"`
	FillGaps         bool    `mapstructure:"fill-gaps"`
	Speed            float64 `mapstructure:"speed"`
	MaxBars          int     `mapstructure:"max-bars"`
	Animate          string  `mapstructure:"animate"`
	AvatarURL        string  `mapstructure:"avatar-url"`
	ColorTimeout     string  `mapstructure:"color-timeout"`
	Workers          int     `mapstructure:"workers"`
	Precision        int     `mapstructure:"precision"`
	Output           string  `mapstructure:"output"`
	OutputFile       string  `mapstructure:"output-file"`
	Width            int     `mapstructure:"width"`
	Color            string  `mapstructure:"color"`
	Verbose          bool    `mapstructure:"verbose"`
	CacheBackend     string  `mapstructure:"cache-backend"`
	CacheDBConnect   string  `mapstructure:"cache-db-connect"`
	HistoryBackend   string  `mapstructure:"history-backend"`
	HistoryDBConnect string  `mapstructure:"history-db-connect"`

	// --- Fields from frameCmd.Flags() ---
	Bucket string `mapstructure:"bucket"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Excludes != nil {
		clone.Excludes = make([]string, len(c.Excludes))
		copy(clone.Excludes, c.Excludes)
	}
	return &clone
}

// GetWindowStartTime returns the configured start time, truncated to the caching granularity.
func (c *Config) GetWindowStartTime() time.Time {
	return c.StartTime.Truncate(CacheGranularity)
}

// GetWindowEndTime returns the configured end time, truncated to the caching granularity.
func (c *Config) GetWindowEndTime() time.Time {
	return c.EndTime.Truncate(CacheGranularity)
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := ValidateFrameInputs(input.Speed, input.MaxBars); err != nil {
		return err
	}
	cfg.Speed = input.Speed
	cfg.MaxBars = input.MaxBars
	if err := processFrameOptions(cfg, input); err != nil {
		return err
	}
	if err := processActivityOptions(cfg, input); err != nil {
		return err
	}
	if err := processTimeRange(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return resolveSource(ctx, cfg, client, input)
}

// ValidateFrameInputs checks the playback speed and bar count.
// Violations are InvalidInputErrors so callers can tell them apart from I/O failures.
func ValidateFrameInputs(speed float64, maxBars int) error {
	if speed <= 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
		return schema.NewInvalidInput("speed", fmt.Sprintf("must be a positive finite number (received %v)", speed))
	}
	if maxBars <= 0 || maxBars > MaxBarsLimit {
		return schema.NewInvalidInput("max_bars", fmt.Sprintf("must be greater than 0 and cannot exceed %d (received %d)", MaxBarsLimit, maxBars))
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- History Backend Validation ---
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if cfg.HistoryBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return err
	}

	// Cache and history must not share a SQLite file
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		historyDBPath := cfg.HistoryDBConnect
		if historyDBPath == "" {
			historyDBPath = GetHistoryDBFilePath()
		}
		if cacheDBPath == historyDBPath {
			return fmt.Errorf("cache and history storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates output and worker settings.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Verbose = input.Verbose
	cfg.Bucket = strings.TrimSpace(input.Bucket)

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	return nil
}

// ValidateAvatarTemplate checks that tmpl has exactly one %s and no other
// formatting verb. A literal percent sign is written as %%.
func ValidateAvatarTemplate(tmpl string) error {
	rest := strings.ReplaceAll(tmpl, "%%", "")
	if strings.Count(rest, "%s") != 1 {
		return fmt.Errorf("avatar-url must contain exactly one %%s placeholder (received %q)", tmpl)
	}
	if strings.Contains(strings.Replace(rest, "%s", "", 1), "%") {
		return fmt.Errorf("avatar-url may only use %%s and %%%% (received %q)", tmpl)
	}
	return nil
}

// processFrameOptions handles animation, avatar and color lookup settings.
func processFrameOptions(cfg *Config, input *ConfigRawInput) error {
	animate, err := ParseBoolString(input.Animate)
	if err != nil {
		return fmt.Errorf("invalid --animate value: %w", err)
	}
	cfg.Animate = animate

	cfg.AvatarURL = strings.TrimSpace(input.AvatarURL)
	if cfg.AvatarURL == "" {
		cfg.AvatarURL = schema.DefaultAvatarURL
	}
	if err := ValidateAvatarTemplate(cfg.AvatarURL); err != nil {
		return err
	}

	cfg.ColorTimeout = DefaultColorTimeout
	if input.ColorTimeout != "" {
		d, err := time.ParseDuration(input.ColorTimeout)
		if err != nil {
			return fmt.Errorf("invalid --color-timeout value: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("color-timeout must be positive (received %s)", d)
		}
		cfg.ColorTimeout = d
	}
	return nil
}

// processActivityOptions handles how git history becomes an activity table.
func processActivityOptions(cfg *Config, input *ConfigRawInput) error {
	cfg.Granularity = schema.Granularity(strings.ToLower(input.Granularity))
	if _, ok := schema.ValidGranularities[cfg.Granularity]; !ok {
		return fmt.Errorf("invalid granularity '%s'. must be month, quarter, year, week", input.Granularity)
	}

	cfg.Metric = schema.Metric(strings.ToLower(input.Metric))
	if _, ok := schema.ValidMetrics[cfg.Metric]; !ok {
		return fmt.Errorf("invalid metric '%s'. must be commits, churn", input.Metric)
	}

	cfg.Identity = schema.Identity(strings.ToLower(input.Identity))
	if _, ok := schema.ValidIdentities[cfg.Identity]; !ok {
		return fmt.Errorf("invalid identity '%s'. must be name, email", input.Identity)
	}

	cfg.FillGaps = input.FillGaps
	cfg.Excludes = nil
	for p := range strings.SplitSeq(input.ExcludeAuthors, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			cfg.Excludes = append(cfg.Excludes, trimmed)
		}
	}
	return nil
}

// processTimeRange handles the date parsing and time range validation.
// An empty start means the whole history.
func processTimeRange(cfg *Config, input *ConfigRawInput) error {
	now := time.Now()
	cfg.StartTime = time.Time{}
	cfg.EndTime = now

	parse := func(flag, s string) (time.Time, error) {
		if t, err := time.Parse(DateTimeFormat, s); err == nil {
			return t, nil
		}
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			return t, nil
		}
		t, err := ParseRelativeTime(s, now)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid %s date format for '%s'. Expected absolute ISO8601 or 'N [units] ago'", flag, s)
		}
		return t, nil
	}

	if input.Start != "" {
		t, err := parse("start", input.Start)
		if err != nil {
			return err
		}
		cfg.StartTime = t
	}
	if input.End != "" {
		t, err := parse("end", input.End)
		if err != nil {
			return err
		}
		cfg.EndTime = t
	}

	if !cfg.StartTime.IsZero() && cfg.StartTime.After(cfg.EndTime) {
		return fmt.Errorf("start time (%s) cannot be after end time (%s)", cfg.StartTime.Format(DateTimeFormat), cfg.EndTime.Format(DateTimeFormat))
	}
	return nil
}

// resolveSource decides where the activity table comes from: an input file or a Git repository.
func resolveSource(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	if in := strings.TrimSpace(input.Input); in != "" {
		abs, err := filepath.Abs(in)
		if err != nil {
			return err
		}
		if _, err := os.Stat(abs); err != nil {
			return fmt.Errorf("cannot read --input file: %w", err)
		}
		cfg.InputFile = abs
		cfg.RepoPath = ""
		return nil
	}

	absSearchPath, err := filepath.Abs(input.RepoPathStr)
	if err != nil {
		return err
	}
	absSearchPath = filepath.Clean(absSearchPath)

	gitContextPath := absSearchPath
	if info, statErr := os.Stat(absSearchPath); statErr == nil && !info.IsDir() {
		gitContextPath = filepath.Dir(absSearchPath)
	}

	gitRoot, err := client.GetRepoRoot(ctx, gitContextPath)
	if err != nil {
		return err
	}
	cfg.RepoPath = gitRoot
	cfg.InputFile = ""
	return nil
}
