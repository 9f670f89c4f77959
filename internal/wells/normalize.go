package wells

import (
	"strings"
	"unicode/utf8"
)

// Normalize trims surrounding whitespace and cuts the result to at most
// maxLen characters. A maxLen of zero or less leaves the length alone.
// The text is otherwise stored exactly as read.
func Normalize(raw string, maxLen int) string {
	return truncate(strings.TrimSpace(raw), maxLen)
}

// truncate cuts s to maxLen characters with no ellipsis.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	n := 0
	for i := range s {
		if n == maxLen {
			return s[:i]
		}
		n++
	}
	return s
}
