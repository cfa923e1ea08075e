// Package sanitize turns remote entity names into safe file names.
//
// This package removes problematic characters from names before they touch
// the local filesystem:
//   - Path separators (/, \) are collapsed into a dash
//   - Characters illegal on Windows/Mac filesystems are stripped
//   - Invisible Unicode characters (zero-width spaces, etc.) are removed
//
// Case is never changed here; case folding happens only where names are
// compared, because some target filesystems are case-insensitive.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	separators   = regexp.MustCompile(`[\\/]+`)
	illegalChars = regexp.MustCompile(`[<>:"|?*]+`)
)

// FileName sanitizes a remote name for use as a local file or directory name.
func FileName(name string) string {
	if name == "" {
		return name
	}

	name = separators.ReplaceAllString(name, "-")
	name = illegalChars.ReplaceAllString(name, "")
	name = removeInvisibleChars(name)

	return strings.TrimSpace(name)
}

// Fold normalizes a name for case-insensitive comparison.
func Fold(name string) string {
	return strings.ToLower(FileName(name))
}

// removeInvisibleChars removes zero-width and other invisible Unicode characters
func removeInvisibleChars(s string) string {
	invisibleChars := []string{
		"\u200B", // Zero-width space
		"\u200C", // Zero-width non-joiner
		"\u200D", // Zero-width joiner
		"\uFEFF", // Zero-width no-break space (BOM)
		"\u00AD", // Soft hyphen
		"\u2060", // Word joiner
	}

	for _, char := range invisibleChars {
		s = strings.ReplaceAll(s, char, "")
	}

	return s
}
