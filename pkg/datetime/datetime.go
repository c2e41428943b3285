// Package datetime normalizes client supplied ISO-8601 timestamps into the
// UTC wall-clock values stored in timestamp columns.
package datetime

import (
	"fmt"
	"strings"
	"time"
)

// StorageLayout is how stored timestamps are rendered back to clients.
const StorageLayout = "2006-01-02 15:04:05"

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseISO accepts "2025-11-23T23:33:00.000Z", "2025-11-23T23:33:00",
// "2025-11-23T23:33:00+02:00" and similar forms. Offsets are converted to
// UTC, values without zone information are taken as UTC already. Sub-second
// precision is dropped.
func ParseISO(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty datetime")
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC().Truncate(time.Second), nil
		}
	}

	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.Truncate(time.Second), nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid datetime %q, expected ISO-8601", value)
}

// Format renders t in StorageLayout.
func Format(t time.Time) string {
	return t.UTC().Format(StorageLayout)
}
