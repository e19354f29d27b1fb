package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fardream/eoltrim"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := execute(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// execute runs the root command, folding a help request into the same
// error path as every other usage problem.
func execute(ctx context.Context) error {
	c := newRootCmd()
	if err := c.ExecuteContext(ctx); err != nil {
		return err
	}
	if c.helpRequested {
		return errors.New(c.UsageString())
	}

	return nil
}

type rootCmd struct {
	*cobra.Command

	n              uint
	dryRun         bool
	inRebase       bool
	inFilterBranch bool
	authorName     string
	authorEmail    string

	helpRequested bool
}

func newRootCmd() *rootCmd {
	c := &rootCmd{
		Command: &cobra.Command{
			Use:           "eoltrim",
			Short:         "detect and undo end-of-file newlines added to git history",
			SilenceUsage:  true,
			SilenceErrors: true,
		},
	}

	c.Flags().UintVar(&c.n, "n", 1, "check the last n commits (0 = uncommitted diff)")
	c.Flags().BoolVar(&c.dryRun, "dry-run", c.dryRun, "print what would change without modifying anything")
	c.Flags().BoolVar(&c.inRebase, "in-rebase", c.inRebase, "internal: run as a rebase exec step")
	c.Flags().BoolVar(&c.inFilterBranch, "in-filter-branch", c.inFilterBranch, "internal: run as git filter-branch tree-filter")
	c.Flags().StringVar(&c.authorName, "author-name", c.authorName, "only process commits whose author name contains this")
	c.Flags().StringVar(&c.authorEmail, "author-email", c.authorEmail, "only process commits whose author email contains this")

	// Usage is an error payload: help, unknown flags and stray arguments
	// all exit non-zero with the usage text on stderr. Cobra handles the
	// help flag before RunE, so the help func only records the request
	// and execute turns it into an error.
	c.SetHelpFunc(func(*cobra.Command, []string) {
		c.helpRequested = true
	})
	c.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w\n\n%s", err, cmd.UsageString())
	})
	c.Args = func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return fmt.Errorf("unknown argument: %s\n\n%s", args[0], cmd.UsageString())
		}
		return nil
	}

	c.RunE = func(cmd *cobra.Command, _ []string) error {
		return c.run(cmd.Context())
	}

	return c
}

func (c *rootCmd) run(ctx context.Context) error {
	g := &eoltrim.Git{}
	if err := g.EnsureInWorktree(ctx); err != nil {
		return err
	}

	gitdir, err := g.GitDir(ctx)
	if err != nil {
		return err
	}
	repo, err := eoltrim.OpenRepo(gitdir)
	if err != nil {
		return err
	}

	fixer := &eoltrim.Fixer{
		Repo:     repo,
		Git:      g,
		Author:   eoltrim.AuthorFilter{Name: c.authorName, Email: c.authorEmail},
		DryRun:   c.dryRun,
		InRebase: c.inRebase,
	}

	if c.inFilterBranch {
		if c.n != 1 {
			return errors.New("--in-filter-branch can only be used with --n 1")
		}
		commit := os.Getenv("GIT_COMMIT")
		if commit == "" {
			commit = "HEAD"
		}
		return fixer.FilterStep(ctx, commit)
	}

	switch {
	case c.n == 0 && c.inRebase:
		return errors.New("--in-rebase cannot be used with --n 0")
	case c.n == 0:
		return fixer.FixWorktree(ctx)
	case c.n == 1:
		return fixer.FixHead(ctx)
	case c.inRebase:
		return errors.New("--in-rebase can only be used with --n 1")
	default:
		return fixer.FixRange(ctx, int(c.n))
	}
}
