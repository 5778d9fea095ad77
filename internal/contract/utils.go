package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/racebar/schema"
)

// Tenure label constants.
const (
	LongTermValue = "Long-term" // Present for more than LongTermThreshold later appearances
	RegularValue  = "Regular"   // Seen again at least once
	NewValue      = "New"       // Only seen once
)

// Color variables for console output.
var (
	LongTermColor = color.New(color.FgGreen, color.Bold) // LongTermColor marks core contributors.
	RegularColor  = color.New(color.FgYellow)            // RegularColor marks returning contributors.
	NewColor      = color.New(color.FgCyan)              // NewColor marks first-time contributors.
	BotColor      = color.New(color.FgHiBlack)           // BotColor dims automated accounts.
)

// GetPlainTenureLabel returns a plain text label for a tenure count.
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainTenureLabel(tenure int) string {
	switch {
	case tenure >= schema.LongTermThreshold:
		return LongTermValue
	case tenure > 0:
		return RegularValue
	default:
		return NewValue
	}
}

// GetColorTenureLabel returns a colored tenure label for console output.
func GetColorTenureLabel(tenure int) string {
	text := GetPlainTenureLabel(tenure)
	switch text {
	case LongTermValue:
		return LongTermColor.Sprint(text)
	case RegularValue:
		return RegularColor.Sprint(text)
	default:
		return NewColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, falling back to os.Stdout
// when no file path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// ShouldIgnore returns true if the given author matches any of the exclude patterns.
// Patterns with wildcard characters (*, ?, [ ]) are matched with filepath.Match,
// everything else is a case-insensitive substring match.
// A user can provide patterns like "[bot]", "*@users.noreply.github.com", "ci-*".
func ShouldIgnore(author string, excludes []string) bool {
	lower := strings.ToLower(author)
	for _, ex := range excludes {
		ex = strings.ToLower(strings.TrimSpace(ex))
		if ex == "" {
			continue
		}
		// "[bot]" is a literal suffix, not a character class
		if ex == strings.ToLower(schema.BotSuffix) {
			if strings.HasSuffix(lower, ex) {
				return true
			}
			continue
		}
		if strings.ContainsAny(ex, "*?[") {
			if ok, err := filepath.Match(ex, lower); err == nil && ok {
				return true
			}
			continue
		}
		if strings.Contains(lower, ex) {
			return true
		}
	}
	return false
}

// GetCacheDBFilePath returns the path to the SQLite DB file for cache storage.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".racebar_cache.db"
	}
	return filepath.Join(homeDir, ".racebar_cache.db")
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for ranking history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".racebar_history.db"
	}
	return filepath.Join(homeDir, ".racebar_history.db")
}

// TruncateLabel truncates a label to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so there is space for the ellipsis and at least one character.
func TruncateLabel(label string, maxWidth int) string {
	runes := []rune(label)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return label
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
