package strings

import (
	"strings"
)

// DefaultDescriptionMaxLen is the maximum width for command descriptions in
// listing output. Shared so every listing truncates the same way.
const DefaultDescriptionMaxLen = 60

// MinTruncateLen is the smallest maxLen Truncate accepts. Anything shorter
// would not leave room for content plus "...".
const MinTruncateLen = 4

// FirstLine returns the first line of a value, trimmed. Multi-line stored
// values are shortened to this in listings unless the caller asked for the
// full value.
func FirstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSpace(line)
}

// Truncate caps a string at maxLen runes, collapsing internal whitespace
// into single spaces and appending "..." when content was cut. Operating on
// runes keeps multi-byte characters intact.
func Truncate(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
