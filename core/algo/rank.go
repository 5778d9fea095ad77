package algo

import (
	"sort"

	"github.com/huangsam/racebar/schema"
)

// RankRecords sorts a copy of the records by value in descending order and returns
// the top 'limit' records. Ties keep their original relative order. If limit is
// greater than the number of records, all records are returned in sorted order.
func RankRecords(records []schema.ActivityRecord, limit int) []schema.ActivityRecord {
	ranked := make([]schema.ActivityRecord, len(records))
	copy(ranked, records)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Value > ranked[j].Value
	})
	if limit >= 0 && len(ranked) > limit {
		return ranked[:limit]
	}
	return ranked
}

// Summarize describes each bucket of the table in stored order.
func Summarize(table *schema.ActivityTable) []schema.BucketSummary {
	summaries := make([]schema.BucketSummary, 0, table.Len())
	for bucket, records := range table.All() {
		summary := schema.BucketSummary{Bucket: bucket, Records: len(records)}
		for _, rec := range records {
			summary.Total += rec.Value
		}
		if top := RankRecords(records, 1); len(top) == 1 {
			summary.Leader = top[0].EntityID
		}
		summaries = append(summaries, summary)
	}
	return summaries
}
