package algo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/huangsam/racebar/schema"
)

// SanitizeStyleKey turns an entity id into a rich style key. Rich style names may
// only hold ASCII letters and digits, so everything else is dropped.
func SanitizeStyleKey(entityID string) string {
	var b strings.Builder
	b.Grow(len(schema.RichKeyPrefix) + len(entityID))
	b.WriteString(schema.RichKeyPrefix)
	for _, r := range entityID {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// AssignStyleKeys maps every distinct entity id to a unique style key.
// Ids that sanitize to an already used key get the lowest free numeric suffix,
// in the order the ids are given.
func AssignStyleKeys(entityIDs []string) map[string]string {
	keys := make(map[string]string, len(entityIDs))
	used := make(map[string]struct{}, len(entityIDs))
	for _, id := range entityIDs {
		if _, ok := keys[id]; ok {
			continue
		}
		base := SanitizeStyleKey(id)
		key := base
		for n := 2; ; n++ {
			if _, taken := used[key]; !taken {
				break
			}
			key = base + strconv.Itoa(n)
		}
		used[key] = struct{}{}
		keys[id] = key
	}
	return keys
}

// IsBot reports whether an entity id names an automated account.
func IsBot(entityID string) bool {
	return strings.HasSuffix(entityID, schema.BotSuffix)
}

// FormatCategoryLabel renders a y-axis label. Empty and bot ids stay plain text,
// everyone else gets their avatar glyph appended.
func FormatCategoryLabel(entityID, styleKey string) string {
	if entityID == "" || IsBot(entityID) || styleKey == "" {
		return entityID
	}
	return fmt.Sprintf("%s {%s|}", entityID, styleKey)
}
