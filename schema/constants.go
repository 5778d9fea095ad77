package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching.
	DatabaseBackend string

	// Granularity represents the width of a time bucket.
	Granularity string

	// Metric represents what an ActivityRecord value measures.
	Metric string

	// Identity represents how a commit author is turned into an entity id.
	Identity string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All cache backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All bucket granularities supported.
const (
	MonthGranularity   Granularity = "month" // default
	QuarterGranularity Granularity = "quarter"
	YearGranularity    Granularity = "year"
	WeekGranularity    Granularity = "week"
)

// All activity metrics supported.
const (
	CommitsMetric Metric = "commits" // default
	ChurnMetric   Metric = "churn"
)

// All author identities supported.
const (
	NameIdentity  Identity = "name" // default
	EmailIdentity Identity = "email"
)

// Frame timing and styling constants shared by the frame builder and renderers.
const (
	// BaseFrequency is the bar transition period in milliseconds at speed 1.
	BaseFrequency = 2000.0

	// AxisUpdateDuration is the axis and label transition in milliseconds when animated.
	AxisUpdateDuration = 200.0

	// LinearEasing is the only easing racebar emits.
	LinearEasing = "linear"

	// BotSuffix marks automated accounts, which never get an avatar glyph.
	BotSuffix = "[bot]"

	// DarkTextColor is used for axis labels, bar labels and the bucket overlay.
	DarkTextColor = "rgba(230, 237, 243, 0.9)"

	// DefaultAvatarURL is the avatar template; %s is replaced by the entity id.
	DefaultAvatarURL = "https://avatars.githubusercontent.com/%s?s=48&v=4"

	// AvatarHeight is the rich label glyph height in pixels.
	AvatarHeight = 20

	// RichKeyPrefix prefixes every style registry key.
	RichKeyPrefix = "avatar"
)

// DefaultColors is the neutral gradient used when an entity's colors cannot be resolved.
var DefaultColors = ColorPair{"#8b949e", "#6e7681"}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid cache backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidGranularities lists all valid bucket granularities.
var ValidGranularities = map[Granularity]struct{}{
	MonthGranularity:   {},
	QuarterGranularity: {},
	YearGranularity:    {},
	WeekGranularity:    {},
}

// ValidMetrics lists all valid activity metrics.
var ValidMetrics = map[Metric]struct{}{
	CommitsMetric: {},
	ChurnMetric:   {},
}

// ValidIdentities lists all valid author identities.
var ValidIdentities = map[Identity]struct{}{
	NameIdentity:  {},
	EmailIdentity: {},
}
