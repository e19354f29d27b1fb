package eoltrim

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/object"
)

// FixRange scans the n most recent first-parent commits and, when any of
// them introduced a trailing newline, rewrites history from the first
// parent of the oldest such commit with git filter-branch, re-invoking this
// program once per commit through [Fixer.FilterStep].
//
// The scan is read-only: when no commit in range needs repair the call is a
// no-op success and the rewrite mechanism is never invoked. A merge commit
// anywhere among the scanned (non author-filtered) commits fails the whole
// operation.
func (f *Fixer) FixRange(ctx context.Context, n int) error {
	if n <= 1 {
		return fmt.Errorf("FixRange requires n > 1, got %d", n)
	}

	if err := f.Git.EnsureClean(ctx); err != nil {
		return err
	}
	if err := f.Git.EnsureNoRebase(ctx); err != nil {
		return err
	}

	commits, err := f.firstParentHistory(ctx, n)
	if err != nil {
		return err
	}

	var needsfix []*object.Commit
	for _, c := range commits {
		if !f.Author.Match(c.Author) {
			continue
		}

		hits, err := f.qualifyingPaths(ctx, c, true)
		if err != nil {
			return err
		}
		if len(hits) > 0 {
			needsfix = append(needsfix, c)
		}
	}

	if len(needsfix) == 0 {
		return nil
	}

	// Rewriting from the parent of the oldest offender keeps the range
	// minimal while covering every offender; non-offending commits in
	// between pass through the mechanism unchanged.
	base, err := f.Repo.FirstParent(needsfix[0])
	if err != nil {
		return err
	}

	if f.DryRun {
		fmt.Fprintf(f.out(), "will run filter-branch starting at base: %s\n", base.Hash)
		for _, c := range needsfix {
			fmt.Fprintf(f.out(), "n>1 match commit: %s\n", c.Hash)
		}
		return nil
	}

	treefilter, err := f.treeFilterCommand()
	if err != nil {
		return err
	}

	logger.Info("rewriting history",
		"base", base.Hash, "commits", len(needsfix), "filter", treefilter)

	return f.Git.FilterBranch(ctx, base.Hash.String(), treefilter)
}

// firstParentHistory collects up to n commits along the first-parent
// lineage from HEAD, oldest first. A root commit inside the range ends the
// walk early.
func (f *Fixer) firstParentHistory(ctx context.Context, n int) ([]*object.Commit, error) {
	c, err := f.Repo.ResolveCommit("HEAD")
	if err != nil {
		return nil, err
	}

	commits := make([]*object.Commit, 0, n)
	for len(commits) < n {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		commits = append(commits, c)
		if c.NumParents() == 0 {
			break
		}

		c, err = c.Parent(0)
		if err != nil {
			return nil, fmt.Errorf("cannot get parent of %s: %w", commits[len(commits)-1].Hash, err)
		}
	}

	slices.Reverse(commits)

	return commits, nil
}

// treeFilterCommand builds the sh command line filter-branch runs per
// commit: this executable in filter-step mode, with the author filters
// forwarded.
func (f *Fixer) treeFilterCommand() (string, error) {
	exe := f.Exe
	if exe == "" {
		var err error
		exe, err = os.Executable()
		if err != nil {
			return "", fmt.Errorf("cannot locate current executable: %w", err)
		}
	}

	parts := []string{shQuote(exe), "--in-filter-branch", "--n", "1"}
	if f.Author.Name != "" {
		parts = append(parts, "--author-name", shQuote(f.Author.Name))
	}
	if f.Author.Email != "" {
		parts = append(parts, "--author-email", shQuote(f.Author.Email))
	}

	return strings.Join(parts, " "), nil
}
