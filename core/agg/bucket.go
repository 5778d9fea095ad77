package agg

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/racebar/schema"
)

// BucketKey formats the bucket a moment falls into. Keys of one granularity
// sort chronologically as plain strings.
func BucketKey(t time.Time, g schema.Granularity) string {
	t = t.UTC()
	switch g {
	case schema.QuarterGranularity:
		return fmt.Sprintf("%04d-Q%d", t.Year(), (int(t.Month())-1)/3+1)
	case schema.YearGranularity:
		return fmt.Sprintf("%04d", t.Year())
	case schema.WeekGranularity:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	default:
		return t.Format("2006-01")
	}
}

// bucketStart parses a key produced by BucketKey back into the first moment of its bucket.
func bucketStart(key string, g schema.Granularity) (time.Time, error) {
	switch g {
	case schema.QuarterGranularity:
		yearStr, qStr, ok := strings.Cut(key, "-Q")
		if !ok {
			return time.Time{}, fmt.Errorf("invalid quarter bucket %q", key)
		}
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			return time.Time{}, err
		}
		q, err := strconv.Atoi(qStr)
		if err != nil || q < 1 || q > 4 {
			return time.Time{}, fmt.Errorf("invalid quarter bucket %q", key)
		}
		return time.Date(year, time.Month((q-1)*3+1), 1, 0, 0, 0, 0, time.UTC), nil
	case schema.YearGranularity:
		return time.Parse("2006", key)
	case schema.WeekGranularity:
		yearStr, wStr, ok := strings.Cut(key, "-W")
		if !ok {
			return time.Time{}, fmt.Errorf("invalid week bucket %q", key)
		}
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			return time.Time{}, err
		}
		week, err := strconv.Atoi(wStr)
		if err != nil || week < 1 || week > 53 {
			return time.Time{}, fmt.Errorf("invalid week bucket %q", key)
		}
		// January 4th is always in ISO week 1
		jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
		offset := (int(jan4.Weekday()) + 6) % 7
		monday := jan4.AddDate(0, 0, -offset)
		return monday.AddDate(0, 0, 7*(week-1)), nil
	default:
		return time.Parse("2006-01", key)
	}
}

// nextBucket returns the start of the bucket after the one starting at t.
func nextBucket(t time.Time, g schema.Granularity) time.Time {
	switch g {
	case schema.QuarterGranularity:
		return t.AddDate(0, 3, 0)
	case schema.YearGranularity:
		return t.AddDate(1, 0, 0)
	case schema.WeekGranularity:
		return t.AddDate(0, 0, 7)
	default:
		return t.AddDate(0, 1, 0)
	}
}

// fillGaps lists every bucket key from first to last inclusive.
// It falls back to the two endpoints if either key cannot be parsed.
func fillGaps(first, last string, g schema.Granularity) []string {
	start, errA := bucketStart(first, g)
	end, errB := bucketStart(last, g)
	if errA != nil || errB != nil || end.Before(start) {
		return []string{first, last}
	}
	var keys []string
	for t := start; !t.After(end); t = nextBucket(t, g) {
		keys = append(keys, BucketKey(t, g))
	}
	return keys
}
