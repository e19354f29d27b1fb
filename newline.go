package eoltrim

import "bytes"

var (
	lf   = []byte{'\n'}
	crlf = []byte{'\r', '\n'}
)

// EndsWithNewline reports whether the final byte of b is a line feed.
func EndsWithNewline(b []byte) bool {
	return bytes.HasSuffix(b, lf)
}

// StripOneTrailingNewline removes at most one trailing newline from b,
// counting a CR LF pair as a single newline. The returned slice aliases b.
// Repeated application is needed to remove multiple trailing newlines.
func StripOneTrailingNewline(b []byte) ([]byte, bool) {
	switch {
	case bytes.HasSuffix(b, crlf):
		return b[:len(b)-2], true
	case bytes.HasSuffix(b, lf):
		return b[:len(b)-1], true
	default:
		return b, false
	}
}

// AddedEOFNewline reports whether newb gained a trailing newline that oldb
// did not have. This is the sole trigger for every repair in this package.
func AddedEOFNewline(oldb, newb []byte) bool {
	return !EndsWithNewline(oldb) && EndsWithNewline(newb)
}
