package utils

import (
	"time"
	"unicode/utf8"
)

// Truncate cuts s to at most n runes
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}

	return s
}

// FormatTimestamp formats t as ISO-8601 with local offset, empty for zero time
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format(time.RFC3339)
}

func GetOkJSON() []byte {
	return []byte(`{"is_ok":true}`)
}
