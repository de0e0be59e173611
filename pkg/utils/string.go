package utils

import "strings"

// Truncate caps s at maxLen bytes, appending an ellipsis when it cuts.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// Flatten collapses newlines to spaces so multi-line content renders as a
// single display line.
func Flatten(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
