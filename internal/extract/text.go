package extract

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Fetcher retrieves the raw bytes and headers behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (FetchedContent, error)
}

// TrimSpace strips leading and trailing Unicode whitespace.
func TrimSpace(s string) string {
	return strings.TrimFunc(s, unicode.IsSpace)
}

// CollapseWhitespace replaces every run of whitespace with a single space and trims the ends.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate returns at most limit characters of s, never splitting a rune.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

// WordCount counts whitespace-separated tokens.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
