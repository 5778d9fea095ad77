package palette

import (
	"context"
	"encoding/json"
	"time"

	"github.com/huangsam/racebar/internal/contract"
	"github.com/huangsam/racebar/schema"
)

// colorCacheVersion is bumped whenever HashSource output changes.
const colorCacheVersion = 1

// StoreSource reads gradients from a persistent cache store and falls back to
// another Source on a miss, writing the result back.
type StoreSource struct {
	store contract.CacheStore
	next  Source
}

// NewStoreSource wraps next with the given store.
func NewStoreSource(store contract.CacheStore, next Source) *StoreSource {
	return &StoreSource{store: store, next: next}
}

func colorKey(entityID string) string {
	return "color:" + entityID
}

// Colors implements Source.
func (s *StoreSource) Colors(ctx context.Context, entityID string) (schema.ColorPair, error) {
	key := colorKey(entityID)
	if value, version, _, err := s.store.Get(key); err == nil && version == colorCacheVersion {
		var pair schema.ColorPair
		if err := json.Unmarshal(value, &pair); err == nil {
			return pair, nil
		}
	}

	pair, err := s.next.Colors(ctx, entityID)
	if err != nil {
		return schema.ColorPair{}, err
	}

	value, err := json.Marshal(pair)
	if err != nil {
		return pair, nil
	}
	if err := s.store.Set(key, value, colorCacheVersion, time.Now().Unix()); err != nil {
		contract.LogDebug("color cache write failed", "entity", entityID, "err", err)
	}
	return pair, nil
}
