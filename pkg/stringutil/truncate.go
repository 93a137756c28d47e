package stringutil

import "strings"

// Truncate returns at most n characters (runes) of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// TruncateWithEllipsis cuts s to n characters and appends suffix only when
// something was actually cut.
func TruncateWithEllipsis(s string, n int, suffix string) string {
	cut := Truncate(s, n)
	if len(cut) < len(s) {
		return cut + suffix
	}
	return s
}

// Redact keeps a short prefix of a secret for display.
func Redact(value string) string {
	if len([]rune(value)) > 10 {
		return Truncate(value, 10) + "..."
	}
	return Truncate(value, 5) + "..."
}

// FirstNonEmpty returns the first non-empty string after trimming.
func FirstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
