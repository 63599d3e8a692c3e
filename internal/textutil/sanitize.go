package textutil

import (
	"strings"
	"unicode"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName makes a disc or playlist label safe to use as a single
// path segment. Unsafe separators become dashes, runs of whitespace collapse
// to one space and trailing dots are dropped. Returns fallback when nothing
// usable remains.
func SanitizeFileName(name, fallback string) string {
	name = fileNameReplacer.Replace(strings.TrimSpace(name))
	name = strings.Join(strings.Fields(name), " ")
	name = strings.TrimRight(name, ". ")
	if name == "" || name == "-" {
		return fallback
	}
	return name
}

// SanitizeToken converts a string to a lowercase filesystem-safe token for
// temp directory names. Letters and digits are kept, dashes and underscores
// pass through, and everything else collapses to a single underscore.
// Returns "input" for empty results.
func SanitizeToken(value string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.TrimSpace(value) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(unicode.ToLower(r))
			lastUnderscore = false
		case r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "input"
	}
	return out
}
