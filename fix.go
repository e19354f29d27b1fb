package eoltrim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/go-git/go-git/v5/plumbing/object"
)

// Fixer applies the end-of-file newline repair to one repository.
// Repo serves the read side, Git the mutations.
type Fixer struct {
	Repo *Repo
	Git  *Git

	// Author gates which commits are processed. The zero value processes
	// everything.
	Author AuthorFilter
	// DryRun reports matches without mutating anything.
	DryRun bool
	// InRebase marks an invocation from a rebase exec step, where the
	// caller owns the clean worktree precondition.
	InRebase bool
	// Exe is the program the filter-branch callback re-invokes. Empty
	// means the current executable.
	Exe string
	// Dir is the worktree directory file repairs happen in. Empty means
	// the process working directory.
	Dir string

	// Out receives dry run reports, Diag per-path diagnostics. They
	// default to [os.Stdout] and [os.Stderr].
	Out  io.Writer
	Diag io.Writer
}

func (f *Fixer) out() io.Writer {
	if f.Out != nil {
		return f.Out
	}
	return os.Stdout
}

func (f *Fixer) diag() io.Writer {
	if f.Diag != nil {
		return f.Diag
	}
	return os.Stderr
}

func (f *Fixer) filePath(p string) string {
	if f.Dir == "" {
		return p
	}
	return filepath.Join(f.Dir, p)
}

// skippable errors mean a path cannot be evaluated and is valid
// non-qualifying data, never a failure.
func skippable(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrBlobTooLarge)
}

type fixTarget string

const (
	targetWorktree fixTarget = "worktree"
	targetIndex    fixTarget = "index"
)

// FixWorktree scans the uncommitted diff against HEAD and strips newlines
// added to previously newline-less files. Paths with both staged and
// unstaged changes are ambiguous and skipped with a diagnostic. Repairs on
// the staged side are re-staged; repairs on the unstaged side are left
// unstaged.
func (f *Fixer) FixWorktree(ctx context.Context) error {
	unstaged, err := f.Git.DiffNames(ctx, false)
	if err != nil {
		return err
	}
	staged, err := f.Git.DiffNames(ctx, true)
	if err != nil {
		return err
	}

	head, err := f.Repo.ResolveCommit("HEAD")
	if err != nil {
		return err
	}

	for _, p := range intersect(unstaged, staged) {
		fmt.Fprintf(f.diag(), "skipping partially-staged file: %s\n", p)
	}

	// handledAny mirrors the per-path results; nothing consumes it.
	handledAny := false

	for _, p := range subtract(unstaged, staged) {
		handled, err := f.fixAgainstHead(ctx, head, p, targetWorktree)
		if err != nil {
			return err
		}
		handledAny = handledAny || handled
	}

	for _, p := range subtract(staged, unstaged) {
		handled, err := f.fixAgainstHead(ctx, head, p, targetIndex)
		if err != nil {
			return err
		}
		handledAny = handledAny || handled
	}

	_ = handledAny

	return nil
}

// fixAgainstHead compares one path against its committed content and
// repairs it when the newline was introduced by the uncommitted change.
func (f *Fixer) fixAgainstHead(ctx context.Context, head *object.Commit, path string, target fixTarget) (bool, error) {
	oldb, err := f.Repo.BlobAtPath(head, path, MaxBlobSize)
	if err != nil {
		if skippable(err) {
			logger.Debug("skipping path", "path", path, "reason", err)
			return false, nil
		}
		return false, err
	}

	var newb []byte
	switch target {
	case targetWorktree:
		newb, err = os.ReadFile(f.filePath(path))
		if err != nil {
			return false, nil
		}
	case targetIndex:
		h, err := f.Repo.StagedEntryHash(path)
		if err != nil {
			if skippable(err) {
				return false, nil
			}
			return false, err
		}
		newb, err = f.Repo.BlobBytes(h, MaxBlobSize)
		if err != nil {
			if skippable(err) {
				logger.Debug("skipping path", "path", path, "reason", err)
				return false, nil
			}
			return false, err
		}
	}

	if !AddedEOFNewline(oldb, newb) {
		return false, nil
	}

	if f.DryRun {
		fmt.Fprintf(f.out(), "n=0 match (%s): %s\n", target, path)
		return true, nil
	}

	if err := f.stripFile(path); err != nil {
		return false, err
	}
	if target == targetIndex {
		if err := f.Git.Add(ctx, path); err != nil {
			return false, err
		}
	}

	return true, nil
}

// FixHead repairs newlines introduced by the most recent commit and amends
// it in place, preserving the commit message. A clean worktree is required
// unless running as a rebase step. When the author filter excludes HEAD the
// whole operation is a no-op.
func (f *Fixer) FixHead(ctx context.Context) error {
	if !f.InRebase {
		if err := f.Git.EnsureClean(ctx); err != nil {
			return err
		}
	}

	head, err := f.Repo.ResolveCommit("HEAD")
	if err != nil {
		return err
	}
	if !f.Author.Match(head.Author) {
		return nil
	}

	tofix, err := f.qualifyingPaths(ctx, head, false)
	if err != nil {
		return err
	}
	if len(tofix) == 0 {
		return nil
	}

	for _, p := range tofix {
		if f.DryRun {
			fmt.Fprintf(f.out(), "n=1 match: %s\n", p)
			continue
		}
		if err := f.stripFile(p); err != nil {
			return err
		}
		if err := f.Git.Add(ctx, p); err != nil {
			return err
		}
	}

	if f.DryRun {
		return nil
	}

	return f.Git.AmendHead(ctx)
}

// qualifyingPaths returns the modified paths of c whose content gained a
// trailing newline relative to the first parent. With firstonly set it
// short-circuits after the first hit.
func (f *Fixer) qualifyingPaths(ctx context.Context, c *object.Commit, firstonly bool) ([]string, error) {
	changes, err := f.Repo.Changes(c)
	if err != nil {
		return nil, err
	}

	var result []string
	for _, ch := range changes {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		oldb, err := f.Repo.BlobBytes(ch.From, MaxBlobSize)
		if err != nil {
			if skippable(err) {
				logger.Debug("skipping path", "commit", c.Hash, "path", ch.Path, "reason", err)
				continue
			}
			return nil, err
		}
		newb, err := f.Repo.BlobBytes(ch.To, MaxBlobSize)
		if err != nil {
			if skippable(err) {
				logger.Debug("skipping path", "commit", c.Hash, "path", ch.Path, "reason", err)
				continue
			}
			return nil, err
		}

		if !AddedEOFNewline(oldb, newb) {
			continue
		}

		result = append(result, ch.Path)
		if firstonly {
			break
		}
	}

	return result, nil
}

// stripFile removes one trailing newline from a worktree file.
func (f *Fixer) stripFile(path string) error {
	p := f.filePath(path)

	b, err := os.ReadFile(p)
	if err != nil {
		return fmt.Errorf("cannot read file %s: %w", path, err)
	}

	stripped, changed := StripOneTrailingNewline(b)
	if !changed {
		return nil
	}

	if err := os.WriteFile(p, stripped, 0o644); err != nil {
		return fmt.Errorf("cannot write file %s: %w", path, err)
	}

	return nil
}

func intersect(a, b []string) []string {
	var result []string
	for _, v := range a {
		if slices.Contains(b, v) {
			result = append(result, v)
		}
	}
	slices.Sort(result)

	return result
}

func subtract(a, b []string) []string {
	var result []string
	for _, v := range a {
		if !slices.Contains(b, v) {
			result = append(result, v)
		}
	}
	slices.Sort(result)

	return result
}
