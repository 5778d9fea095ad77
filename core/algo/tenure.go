// Package algo holds the pure ranking and classification logic behind racebar frames.
package algo

import "github.com/huangsam/racebar/schema"

// ClassifyTenure scans the table in bucket order and counts how often each entity
// reappears after its first sighting. The first record of an entity sets its count
// to 0 and every later record adds one, so an entity needs four appearances to
// reach LongTermThreshold.
func ClassifyTenure(table *schema.ActivityTable) (schema.LongTermResult, error) {
	if table == nil {
		return schema.LongTermResult{}, schema.NewInvalidInput("table", "table is nil")
	}

	result := schema.LongTermResult{
		EntityIDs: []string{},
		Tenure:    make(map[string]int),
	}
	for _, records := range table.All() {
		for _, rec := range records {
			if count, ok := result.Tenure[rec.EntityID]; ok {
				result.Tenure[rec.EntityID] = count + 1
				continue
			}
			result.Tenure[rec.EntityID] = 0
			result.EntityIDs = append(result.EntityIDs, rec.EntityID)
		}
	}

	for _, id := range result.EntityIDs {
		if result.IsLongTerm(id) {
			result.Count++
		}
	}
	return result, nil
}
