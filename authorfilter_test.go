package eoltrim

import (
	"testing"

	"github.com/go-git/go-git/v5/plumbing/object"
)

func TestAuthorFilterMatch(t *testing.T) {
	alice := object.Signature{Name: "Alice Cooper", Email: "Alice@Example.COM"}

	tests := []struct {
		name   string
		filter AuthorFilter
		want   bool
	}{
		{"empty filter matches", AuthorFilter{}, true},
		{"name substring", AuthorFilter{Name: "cooper"}, true},
		{"name case insensitive", AuthorFilter{Name: "ALICE"}, true},
		{"email substring", AuthorFilter{Email: "alice@example.com"}, true},
		{"name mismatch", AuthorFilter{Name: "bob"}, false},
		{"email mismatch", AuthorFilter{Email: "bob@"}, false},
		{"both must match", AuthorFilter{Name: "alice", Email: "bob@"}, false},
		{"both match", AuthorFilter{Name: "alice", Email: "example"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Match(alice); got != tt.want {
				t.Errorf("Match(%+v) = %v, want %v", tt.filter, got, tt.want)
			}
		})
	}
}
