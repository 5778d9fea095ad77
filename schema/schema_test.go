package schema

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityTableOrder(t *testing.T) {
	table := NewActivityTable()
	table.SetBucket("2024-03", []ActivityRecord{{EntityID: "carol", Value: 1}})
	table.SetBucket("2024-01", []ActivityRecord{{EntityID: "alice", Value: 2}})
	table.Append("2024-03", ActivityRecord{EntityID: "bob", Value: 4})
	table.Append("2024-02")

	assert.Equal(t, []string{"2024-03", "2024-01", "2024-02"}, table.Keys(), "buckets keep insertion order")
	records, ok := table.Bucket("2024-03")
	require.True(t, ok)
	assert.Equal(t, []ActivityRecord{{EntityID: "carol", Value: 1}, {EntityID: "bob", Value: 4}}, records)

	_, ok = table.Bucket("2025-01")
	assert.False(t, ok)
	assert.Equal(t, 3, table.Len())
}

func TestActivityTableZeroValue(t *testing.T) {
	var nilTable *ActivityTable
	assert.Equal(t, 0, nilTable.Len())
	assert.Empty(t, nilTable.Keys())

	var table ActivityTable
	table.Append("2024-01", ActivityRecord{EntityID: "alice", Value: 1})
	assert.Equal(t, 1, table.Len())
}

func TestActivityTableJSON(t *testing.T) {
	const doc = `{"2024-02":[["bob",7],["alice",2]],"2024-01":[["alice",5]],"2024-03":[]}`

	var table ActivityTable
	require.NoError(t, json.Unmarshal([]byte(doc), &table))
	assert.Equal(t, []string{"2024-02", "2024-01", "2024-03"}, table.Keys())

	records, _ := table.Bucket("2024-02")
	assert.Equal(t, []ActivityRecord{{EntityID: "bob", Value: 7}, {EntityID: "alice", Value: 2}}, records)

	out, err := json.Marshal(&table)
	require.NoError(t, err)
	assert.JSONEq(t, doc, string(out))
	assert.Equal(t, `{"2024-02":[["bob",7],["alice",2]],"2024-01":[["alice",5]],"2024-03":[]}`, string(out))
}

func TestActivityTableJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "array", doc: `[1,2]`},
		{name: "null", doc: `null`},
		{name: "record not a pair", doc: `{"2024-01":[["alice"]]}`},
		{name: "id not a string", doc: `{"2024-01":[[1,2]]}`},
		{name: "value not a number", doc: `{"2024-01":[["alice","x"]]}`},
		{name: "negative value", doc: `{"2024-01":[["alice",-1]]}`},
		{name: "bucket not an array", doc: `{"2024-01":5}`},
		{name: "null bucket", doc: `{"2024-01":null,"2024-02":[["alice",1]]}`},
		{name: "object bucket", doc: `{"2024-01":{"alice":1}}`},
		{name: "null record", doc: `{"2024-01":[null]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var table ActivityTable
			err := json.Unmarshal([]byte(tt.doc), &table)
			require.Error(t, err)
			assert.True(t, IsInvalidInput(err), "got %v", err)
		})
	}
}

func TestLongTermResultIsLongTerm(t *testing.T) {
	result := LongTermResult{Tenure: map[string]int{"alice": LongTermThreshold, "bob": LongTermThreshold - 1}}
	assert.True(t, result.IsLongTerm("alice"))
	assert.False(t, result.IsLongTerm("bob"))
	assert.False(t, result.IsLongTerm("nobody"))
}

func TestErrors(t *testing.T) {
	t.Run("invalid input", func(t *testing.T) {
		err := NewInvalidInput("speed", "must be positive")
		assert.EqualError(t, err, "invalid speed: must be positive")
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.True(t, IsInvalidInput(err))
		assert.False(t, IsInvalidInput(errors.New("speed")))

		wrapped := &InvalidInputError{Field: "table", Reason: "bad", Err: assert.AnError}
		assert.ErrorIs(t, wrapped, assert.AnError)
		assert.Contains(t, wrapped.Error(), assert.AnError.Error())
	})

	t.Run("style resolution", func(t *testing.T) {
		err := error(&StyleResolutionError{EntityID: "alice", Err: assert.AnError})
		assert.ErrorIs(t, err, ErrStyleResolution)
		assert.ErrorIs(t, err, assert.AnError)
		assert.False(t, IsInvalidInput(err))

		var styleErr *StyleResolutionError
		require.ErrorAs(t, err, &styleErr)
		assert.Equal(t, "alice", styleErr.EntityID)
	})
}
