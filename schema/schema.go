// Package schema has models, constants and errors for all parts of racebar.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"math"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// LongTermThreshold is the minimum tenure count for a long-term entity.
// Tenure starts at 0 on first sighting, so this means four appearances.
const LongTermThreshold = 3

// ActivityRecord is one entity's activity within a bucket.
// Its JSON form is a two element array: ["alice", 5].
type ActivityRecord struct {
	EntityID string
	Value    float64
}

// MarshalJSON encodes the record as [entityId, value].
func (r ActivityRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{r.EntityID, r.Value})
}

// UnmarshalJSON decodes [entityId, value] and rejects anything else.
func (r *ActivityRecord) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return &InvalidInputError{Field: "record", Reason: "expected [entityId, value] pair", Err: err}
	}
	if len(raw) != 2 {
		return &InvalidInputError{Field: "record", Reason: fmt.Sprintf("expected 2 elements, got %d", len(raw))}
	}
	var id string
	if err := json.Unmarshal(raw[0], &id); err != nil {
		return &InvalidInputError{Field: "record", Reason: "entity id must be a string", Err: err}
	}
	var value float64
	if err := json.Unmarshal(raw[1], &value); err != nil {
		return &InvalidInputError{Field: "record", Reason: "value must be a number", Err: err}
	}
	if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return &InvalidInputError{Field: "record", Reason: fmt.Sprintf("value for %q must be a non-negative number", id)}
	}
	r.EntityID = id
	r.Value = value
	return nil
}

// ActivityTable maps bucket keys to activity records. Bucket order is insertion
// order and is treated as chronological; records within a bucket keep their order.
type ActivityTable struct {
	buckets *orderedmap.OrderedMap[string, []ActivityRecord]
}

// NewActivityTable returns an empty table.
func NewActivityTable() *ActivityTable {
	return &ActivityTable{buckets: orderedmap.New[string, []ActivityRecord]()}
}

func (t *ActivityTable) ensure() {
	if t.buckets == nil {
		t.buckets = orderedmap.New[string, []ActivityRecord]()
	}
}

// SetBucket stores the records for a bucket. An existing bucket keeps its position.
func (t *ActivityTable) SetBucket(bucket string, records []ActivityRecord) {
	t.ensure()
	t.buckets.Set(bucket, records)
}

// Append adds records to a bucket, creating it at the end if it is new.
func (t *ActivityTable) Append(bucket string, records ...ActivityRecord) {
	t.ensure()
	existing, _ := t.buckets.Get(bucket)
	t.buckets.Set(bucket, append(existing, records...))
}

// Bucket returns the records for a bucket and whether the bucket exists.
func (t *ActivityTable) Bucket(bucket string) ([]ActivityRecord, bool) {
	if t == nil || t.buckets == nil {
		return nil, false
	}
	return t.buckets.Get(bucket)
}

// Len returns the number of buckets.
func (t *ActivityTable) Len() int {
	if t == nil || t.buckets == nil {
		return 0
	}
	return t.buckets.Len()
}

// Keys returns bucket keys in stored order.
func (t *ActivityTable) Keys() []string {
	keys := make([]string, 0, t.Len())
	for k := range t.All() {
		keys = append(keys, k)
	}
	return keys
}

// All iterates buckets in stored order.
func (t *ActivityTable) All() iter.Seq2[string, []ActivityRecord] {
	return func(yield func(string, []ActivityRecord) bool) {
		if t == nil || t.buckets == nil {
			return
		}
		for pair := t.buckets.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// MarshalJSON encodes the table as an object whose keys keep bucket order.
func (t *ActivityTable) MarshalJSON() ([]byte, error) {
	if t == nil || t.buckets == nil {
		return []byte("{}"), nil
	}
	return t.buckets.MarshalJSON()
}

// UnmarshalJSON decodes an object of bucket -> [[entityId, value], ...]
// and keeps the key order found in the document.
func (t *ActivityTable) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return NewInvalidInput("table", "table must be a JSON object")
	}
	if trimmed[0] != '{' {
		return NewInvalidInput("table", "table must be a JSON object")
	}
	raw := orderedmap.New[string, json.RawMessage]()
	if err := raw.UnmarshalJSON(trimmed); err != nil {
		return &InvalidInputError{Field: "table", Reason: "table must be an object of buckets", Err: err}
	}
	buckets := orderedmap.New[string, []ActivityRecord](orderedmap.WithCapacity[string, []ActivityRecord](raw.Len()))
	for pair := raw.Oldest(); pair != nil; pair = pair.Next() {
		contents := bytes.TrimSpace(pair.Value)
		if len(contents) == 0 || contents[0] != '[' {
			return NewInvalidInput("bucket", fmt.Sprintf("contents of %q must be an array of [entityId, value] pairs", pair.Key))
		}
		var records []ActivityRecord
		if err := json.Unmarshal(contents, &records); err != nil {
			return &InvalidInputError{Field: "bucket", Reason: fmt.Sprintf("contents of %q must be an array of [entityId, value] pairs", pair.Key), Err: err}
		}
		buckets.Set(pair.Key, records)
	}
	t.buckets = buckets
	return nil
}

// ColorPair is the two-stop gradient for one entity's bar.
type ColorPair [2]string

// LongTermResult is the output of tenure classification.
type LongTermResult struct {
	Count     int            `json:"count"`      // Entities with tenure >= LongTermThreshold
	EntityIDs []string       `json:"entity_ids"` // Every entity in first-seen order
	Tenure    map[string]int `json:"tenure"`     // Tenure count per entity
}

// IsLongTerm reports whether an entity qualifies as long-term.
func (r LongTermResult) IsLongTerm(entityID string) bool {
	return r.Tenure[entityID] >= LongTermThreshold
}

// RankedBar is one bar of a frame after sorting, truncation and style resolution.
type RankedBar struct {
	Rank     int       `json:"rank"`
	EntityID string    `json:"entity_id"`
	Value    float64   `json:"value"`
	Colors   ColorPair `json:"colors"`
	RichKey  string    `json:"rich_key"`
	Bot      bool      `json:"bot"`
	Fallback bool      `json:"fallback"` // Colors are DefaultColors after a failed lookup
}

// BucketSummary describes one bucket for listings.
type BucketSummary struct {
	Bucket  string  `json:"bucket"`
	Records int     `json:"records"`
	Total   float64 `json:"total"`
	Leader  string  `json:"leader"`
}
