package core

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/racebar/core/agg"
	"github.com/huangsam/racebar/internal/contract"
	"github.com/huangsam/racebar/schema"
)

// currentCacheVersion defines the version of the cached activity table format
const currentCacheVersion = 1

// cacheTTL is how long a cached activity table stays valid
const cacheTTL = 7 * 24 * time.Hour

// LoadActivityTable returns the activity table described by cfg. An input file
// wins over the repository; repository tables go through the activity cache.
func LoadActivityTable(ctx context.Context, cfg *contract.Config, client contract.GitClient, mgr contract.CacheManager) (*schema.ActivityTable, error) {
	if cfg.InputFile != "" {
		return agg.LoadTableFile(cfg.InputFile)
	}
	return cachedBuildActivityTable(ctx, cfg, client, mgr)
}

// cachedBuildActivityTable reads the table from the activity store or builds and stores it.
func cachedBuildActivityTable(ctx context.Context, cfg *contract.Config, client contract.GitClient, mgr contract.CacheManager) (*schema.ActivityTable, error) {
	var activity contract.CacheStore
	if mgr != nil {
		activity = mgr.GetActivityStore()
	}
	if activity == nil {
		// Fallback to direct computation
		return agg.BuildActivityTable(ctx, cfg, client)
	}

	key := generateCacheKey(ctx, cfg, client)

	if table := checkCacheHit(activity, key); table != nil {
		contract.LogDebug("activity cache hit", "repo", cfg.RepoPath, "buckets", table.Len())
		return table, nil
	}

	return computeAndStore(ctx, cfg, client, activity, key)
}

// checkCacheHit attempts to retrieve and validate a cached table
func checkCacheHit(activity contract.CacheStore, key string) *schema.ActivityTable {
	data, version, ts, err := activity.Get(key)
	if err != nil || version != currentCacheVersion {
		return nil
	}
	if time.Since(time.Unix(ts, 0)) > cacheTTL {
		return nil
	}
	table := schema.NewActivityTable()
	if err := json.Unmarshal(data, table); err != nil {
		return nil
	}
	return table
}

// computeAndStore builds the table and stores it in the cache
func computeAndStore(ctx context.Context, cfg *contract.Config, client contract.GitClient, activity contract.CacheStore, key string) (*schema.ActivityTable, error) {
	table, err := agg.BuildActivityTable(ctx, cfg, client)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(table); err == nil {
		if err := activity.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
			contract.LogWarn("Failed to store activity table in cache", err)
		}
	}

	return table, nil
}

// generateCacheKey creates a unique key from everything that shapes the table
func generateCacheKey(ctx context.Context, cfg *contract.Config, client contract.GitClient) string {
	startHour := cfg.GetWindowStartTime()
	endHour := cfg.GetWindowEndTime()

	// Include repo hash to invalidate cache when repository state changes
	repoHash, err := client.GetRepoHash(ctx, cfg.RepoPath)
	if err != nil {
		repoHash = ""
	}

	key := fmt.Sprintf("%s:%s:%s:%s:%s:%s:%t:%d:%d",
		cfg.RepoPath,
		repoHash,
		cfg.Granularity,
		cfg.Metric,
		cfg.Identity,
		strings.Join(cfg.Excludes, ","),
		cfg.FillGaps,
		startHour.Unix(),
		endHour.Unix(),
	)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}
