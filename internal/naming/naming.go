package naming

import (
	"strings"
	"unicode/utf8"
)

// replacer maps characters that are reserved on common filesystems to
// visually similar safe characters.
var replacer = strings.NewReplacer(
	"*", "＊",
	":", "：",
	"?", "？",
	"/", "／",
	"|", "-",
	"\\", "_",
	"\"", "'",
	"<", "'",
	">", "'",
)

// Normalize makes name safe to use as a single path element.
func Normalize(name string) string {
	return strings.TrimSpace(replacer.Replace(name))
}

// CutTags drops trailing elements of tags until the space-joined result
// fits into maxLen characters. The input slice is not modified.
func CutTags(tags []string, maxLen int) []string {
	n := len(tags)
	for n > 0 && utf8.RuneCountInString(strings.Join(tags[:n], " ")) > maxLen {
		n--
	}
	return tags[:n:n]
}
