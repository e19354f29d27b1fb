package eoltrim

import "strings"

// shQuote wraps s in single quotes for POSIX sh, closing and reopening the
// quoting around a backslash-escaped quote for any embedded single quote.
func shQuote(s string) string {
	if s == "" {
		return "''"
	}

	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
