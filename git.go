package eoltrim

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Git runs the git command line tool. Reads that must agree with git's own
// view of the worktree, and every mutation, go through here: git add inside
// a filter-branch step has to honor GIT_INDEX_FILE, amend has to honor
// hooks and config, and filter-branch itself is the rewrite mechanism.
// The zero value runs git in the current directory with stdio passed
// through.
type Git struct {
	// Dir is the working directory for every git invocation. Empty means
	// the process working directory.
	Dir string
	// Stdout and Stderr receive the output of pass-through commands such
	// as filter-branch and amend. They default to [os.Stdout] and
	// [os.Stderr].
	Stdout io.Writer
	Stderr io.Writer
}

func (g *Git) command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.Dir
	return cmd
}

// output runs git and captures stdout, folding stderr into the error.
func (g *Git) output(ctx context.Context, args ...string) ([]byte, error) {
	cmd := g.command(ctx, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git %s failed: %w: %s",
			strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}

	return out, nil
}

// run runs git with stdout and stderr passed through.
func (g *Git) run(ctx context.Context, env []string, args ...string) error {
	cmd := g.command(ctx, args...)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}

	cmd.Stdout = g.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = g.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git %s failed: %w", strings.Join(args, " "), err)
	}

	return nil
}

// EnsureInWorktree fails with [ErrNotInWorktree] unless the working
// directory is inside a git worktree.
func (g *Git) EnsureInWorktree(ctx context.Context) error {
	out, err := g.output(ctx, "rev-parse", "--is-inside-work-tree")
	if err != nil || strings.TrimSpace(string(out)) != "true" {
		return ErrNotInWorktree
	}

	return nil
}

// GitDir returns the absolute path of the .git directory serving the
// current worktree. Inside a filter-branch step this resolves through the
// GIT_DIR the mechanism exports, back to the original store.
func (g *Git) GitDir(ctx context.Context) (string, error) {
	out, err := g.output(ctx, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(out)), nil
}

// EnsureClean fails with [ErrDirtyWorktree] when the working tree or index
// holds uncommitted changes.
func (g *Git) EnsureClean(ctx context.Context) error {
	out, err := g.output(ctx, "status", "--porcelain")
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(out)) != 0 {
		return ErrDirtyWorktree
	}

	return nil
}

// EnsureNoRebase fails with [ErrRebaseInProgress] when rebase session state
// is present in the git directory.
func (g *Git) EnsureNoRebase(ctx context.Context) error {
	for _, marker := range []string{"rebase-apply", "rebase-merge"} {
		out, err := g.output(ctx, "rev-parse", "--git-path", marker)
		if err != nil {
			return err
		}

		p := strings.TrimSpace(string(out))
		if !pathExists(g.Dir, p) {
			continue
		}

		return ErrRebaseInProgress
	}

	return nil
}

// DiffNames lists the paths that differ from HEAD, either unstaged
// (worktree against index) or, with cached, staged (index against HEAD).
// Paths are NUL delimited on the wire and relative to the repository root.
func (g *Git) DiffNames(ctx context.Context, cached bool) ([]string, error) {
	args := []string{"diff", "--name-only", "-z"}
	if cached {
		args = []string{"diff", "--cached", "--name-only", "-z"}
	}

	out, err := g.output(ctx, args...)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, p := range bytes.Split(out, []byte{0}) {
		if len(p) == 0 {
			continue
		}
		paths = append(paths, string(p))
	}

	return paths, nil
}

// Add stages a single path.
func (g *Git) Add(ctx context.Context, path string) error {
	return g.run(ctx, nil, "add", "--", path)
}

// AddAll stages every working tree change, matching the commit
// reconstruction contract of filter-branch.
func (g *Git) AddAll(ctx context.Context) error {
	return g.run(ctx, nil, "add", "-A")
}

// AmendHead amends HEAD in place, keeping the original commit message and
// allowing the amended commit to be empty.
func (g *Git) AmendHead(ctx context.Context) error {
	return g.run(ctx, nil, "commit", "--amend", "--no-edit", "--allow-empty")
}

// FilterBranch rewrites the half open range (base, HEAD] of the current
// branch, running treefilter once per commit against its checked out tree.
func (g *Git) FilterBranch(ctx context.Context, base, treefilter string) error {
	return g.run(ctx,
		[]string{"FILTER_BRANCH_SQUELCH_WARNING=1"},
		"filter-branch", "-f", "--prune-empty", "--tree-filter", treefilter, base+"..HEAD",
	)
}

func pathExists(dir, p string) bool {
	if dir != "" && !filepath.IsAbs(p) {
		p = filepath.Join(dir, p)
	}
	_, err := os.Stat(p)

	return err == nil
}
