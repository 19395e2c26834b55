// Package strings holds text helpers shared by hawk's output code.
package strings

import (
	"strings"
	"unicode/utf8"
)

// DefaultDescriptionMaxLen is the width table cells are cut to unless wide
// output is requested.
const DefaultDescriptionMaxLen = 60

const ellipsis = "..."

// TruncateDescription flattens s onto one line and shortens it to at most
// maxLen runes, ending in "..." when something was cut. The cut prefers the
// last word boundary in the second half of the budget. maxLen below 4 is
// treated as 4.
func TruncateDescription(s string, maxLen int) string {
	maxLen = max(maxLen, len(ellipsis)+1)
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}

	keep := []rune(s)[:maxLen-len(ellipsis)]
	if i := lastSpace(keep); i >= len(keep)/2 {
		keep = keep[:i]
	}
	return string(keep) + ellipsis
}

func lastSpace(rs []rune) int {
	for i := len(rs) - 1; i >= 0; i-- {
		if rs[i] == ' ' {
			return i
		}
	}
	return -1
}
