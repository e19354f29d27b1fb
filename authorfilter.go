package eoltrim

import (
	"strings"

	"github.com/go-git/go-git/v5/plumbing/object"
)

// AuthorFilter gates commits by case-insensitive substring match on the
// author name and email. Empty fields match everything, so the zero value
// passes every commit.
type AuthorFilter struct {
	Name  string
	Email string
}

// Match reports whether the author signature passes the filter.
func (f AuthorFilter) Match(sig object.Signature) bool {
	if f.Name != "" && !strings.Contains(strings.ToLower(sig.Name), strings.ToLower(f.Name)) {
		return false
	}
	if f.Email != "" && !strings.Contains(strings.ToLower(sig.Email), strings.ToLower(f.Email)) {
		return false
	}

	return true
}
