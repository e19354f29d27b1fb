package eoltrim

import (
	"context"
	"os"
)

// FilterStep is the per-commit callback of the history rewrite: it runs
// against the checked-out tree of a single commit, where the checkout is
// the only copy and there is no staged/unstaged distinction.
//
// commitrev identifies the commit being rewritten; the caller injects it
// (the CLI reads the GIT_COMMIT value filter-branch exports, falling back
// to HEAD). When the author filter excludes the commit nothing happens.
// When any file changed, every working tree change is staged so the
// mechanism reconstructs the commit from the repaired tree.
func (f *Fixer) FilterStep(ctx context.Context, commitrev string) error {
	c, err := f.Repo.ResolveCommit(commitrev)
	if err != nil {
		return err
	}

	if !f.Author.Match(c.Author) {
		return nil
	}

	changes, err := f.Repo.Changes(c)
	if err != nil {
		return err
	}

	changedany := false
	for _, ch := range changes {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		oldb, err := f.Repo.BlobBytes(ch.From, MaxBlobSize)
		if err != nil {
			if skippable(err) {
				logger.Debug("skipping path", "commit", c.Hash, "path", ch.Path, "reason", err)
				continue
			}
			return err
		}

		newb, err := os.ReadFile(f.filePath(ch.Path))
		if err != nil {
			continue
		}

		if !AddedEOFNewline(oldb, newb) {
			continue
		}
		if f.DryRun {
			continue
		}

		if err := f.stripFile(ch.Path); err != nil {
			return err
		}
		changedany = true
	}

	if changedany {
		return f.Git.AddAll(ctx)
	}

	return nil
}
