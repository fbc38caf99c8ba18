package utils

import (
	"strings"
)

// NormalizeField lowercases a price field name and drops inner whitespace.
func NormalizeField(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

// SafeFilenamePart strips characters that break download file names.
func SafeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
