// Package contract provides interfaces and shared utilities for racebar's internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/racebar/schema"
)

// GitClient defines the Git operations needed to build activity tables.
// This allows the aggregation logic to be tested without needing a real git executable.
type GitClient interface {
	// Run executes a git command and returns its output.
	// Its use should be minimized in favor of the explicit methods below.
	Run(ctx context.Context, repoPath string, args ...string) ([]byte, error)

	// GetRepoHash returns the current HEAD commit hash of the repository.
	GetRepoHash(ctx context.Context, repoPath string) (string, error)

	// GetRepoRoot returns the absolute path to the root of the Git repository
	// containing the given context path.
	GetRepoRoot(ctx context.Context, contextPath string) (string, error)

	// GetActivityLog returns the raw commit log with numstat lines for repository-wide aggregation.
	GetActivityLog(ctx context.Context, repoPath string, startTime, endTime time.Time) ([]byte, error)
}

// ColorResolver resolves the gradient for an entity. Implementations must be
// safe for concurrent use and should memoize per entity.
type ColorResolver interface {
	GetColors(ctx context.Context, entityID string) (schema.ColorPair, error)
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetActivityStore() CacheStore
	GetColorStore() CacheStore
	GetHistoryStore() HistoryStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// HistoryStore records ranking runs and the bars of every frame they produced.
type HistoryStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(repoPath string, startTime time.Time, configParams map[string]any) (int64, error)

	// RecordRanking stores the ranked bars of one bucket
	RecordRanking(runID int64, bucket string, bars []schema.RankedBar) error

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, totalFrames int) error

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// GetAllRuns returns every stored run ordered by ID
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllRankings returns every stored ranking row ordered by run, bucket and rank
	GetAllRankings() ([]schema.RankingRecord, error)

	// Close closes the underlying connection
	Close() error
}
