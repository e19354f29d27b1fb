// eoltrim detects and reverses unintended end-of-file newline additions in
// git repositories.
//
// It works on three surfaces: the uncommitted working tree and index
// ([Fixer.FixWorktree]), the most recent commit ([Fixer.FixHead], which
// amends in place), and a range of recent commits ([Fixer.FixRange], which
// drives git filter-branch with a per-commit callback re-invoking the
// eoltrim binary through [Fixer.FilterStep]).
//
// A path qualifies for repair only when its old content did not end in a
// newline and its new content does. See [AddedEOFNewline].
package eoltrim
