// errors

package eoltrim

import "errors"

var (
	ErrNotInWorktree    = errors.New("not inside a git worktree")
	ErrDirtyWorktree    = errors.New("working tree is not clean; refusing to amend commits")
	ErrRebaseInProgress = errors.New("detected an ongoing rebase; refusing to start another rewrite")
	ErrNoParent         = errors.New("commit has no parent")
	ErrMergeCommit      = errors.New("merge commit; not supported")
	ErrBlobTooLarge     = errors.New("blob too large")
	ErrNotFound         = errors.New("object not found")
)
