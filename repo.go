package eoltrim

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-git/go-billy/v5/osfs"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/go-git/go-git/v5/utils/merkletrie"
)

// MaxBlobSize is the ceiling above which blobs are skipped rather than
// compared.
const MaxBlobSize = 10_000_000

// Repo is a read-only accessor over a git object store. It is opened from
// the .git directory itself rather than the worktree, so the same accessor
// works in a regular checkout and inside a filter-branch scratch directory
// where only GIT_DIR identifies the store.
type Repo struct {
	r *git.Repository
}

// OpenRepo opens the object store at gitdir, the path of the .git directory.
func OpenRepo(gitdir string) (*Repo, error) {
	st := filesystem.NewStorage(osfs.New(gitdir), cache.NewObjectLRUDefault())

	r, err := git.Open(st, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot open git dir %s: %w", gitdir, err)
	}

	return &Repo{r: r}, nil
}

// ResolveCommit resolves rev, either a full hex object id or a revision
// expression such as HEAD, to a commit.
func (r *Repo) ResolveCommit(rev string) (*object.Commit, error) {
	if h, err := DecodeHashHex(rev); err == nil {
		c, err := r.r.CommitObject(h)
		if err != nil {
			return nil, fmt.Errorf("cannot load commit %s: %w", rev, err)
		}
		return c, nil
	}

	h, err := r.r.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve %s: %w", rev, err)
	}

	c, err := r.r.CommitObject(*h)
	if err != nil {
		return nil, fmt.Errorf("cannot load commit %s: %w", h, err)
	}

	return c, nil
}

// FirstParent returns the first parent of c. Root commits yield
// [ErrNoParent] and merge commits [ErrMergeCommit].
func (r *Repo) FirstParent(c *object.Commit) (*object.Commit, error) {
	switch c.NumParents() {
	case 0:
		return nil, fmt.Errorf("%s: %w", c.Hash, ErrNoParent)
	case 1:
		p, err := c.Parent(0)
		if err != nil {
			return nil, fmt.Errorf("cannot get parent of %s: %w", c.Hash, err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%s: %w", c.Hash, ErrMergeCommit)
	}
}

// Change is one modified path between a commit and its first parent, with
// the blob ids on both sides.
type Change struct {
	Path string
	From plumbing.Hash
	To   plumbing.Hash
}

// Changes diffs c against its first parent and returns the entries whose
// status is exactly modified, in tree order. Added, deleted and renamed
// paths are excluded. Root and merge commits fail as in [Repo.FirstParent].
func (r *Repo) Changes(c *object.Commit) ([]Change, error) {
	parent, err := r.FirstParent(c)
	if err != nil {
		return nil, err
	}

	fromtree, err := parent.Tree()
	if err != nil {
		return nil, fmt.Errorf("cannot obtain tree for commit %s: %w", parent.Hash, err)
	}
	totree, err := c.Tree()
	if err != nil {
		return nil, fmt.Errorf("cannot obtain tree for commit %s: %w", c.Hash, err)
	}

	diffs, err := object.DiffTree(fromtree, totree)
	if err != nil {
		return nil, fmt.Errorf("cannot diff %s against %s: %w", c.Hash, parent.Hash, err)
	}

	result := make([]Change, 0, len(diffs))
	for _, d := range diffs {
		action, err := d.Action()
		if err != nil {
			return nil, err
		}
		if action != merkletrie.Modify {
			continue
		}

		result = append(result, Change{
			Path: d.To.Name,
			From: d.From.TreeEntry.Hash,
			To:   d.To.TreeEntry.Hash,
		})
	}

	return result, nil
}

// BlobBytes reads the blob content for hash. Blobs whose declared size
// exceeds limit fail with [ErrBlobTooLarge]; call sites treat that as a
// skip, not a failure. A non-positive limit disables the ceiling.
func (r *Repo) BlobBytes(hash plumbing.Hash, limit int64) ([]byte, error) {
	blob, err := r.r.BlobObject(hash)
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, fmt.Errorf("blob %s: %w", hash, ErrNotFound)
		}
		return nil, fmt.Errorf("cannot load blob %s: %w", hash, err)
	}

	if limit > 0 && blob.Size > limit {
		return nil, fmt.Errorf("blob %s is %d bytes: %w", hash, blob.Size, ErrBlobTooLarge)
	}

	rd, err := blob.Reader()
	if err != nil {
		return nil, fmt.Errorf("cannot open blob %s: %w", hash, err)
	}
	defer rd.Close()

	b, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("cannot read blob %s: %w", hash, err)
	}

	return b, nil
}

// BlobAtPath reads the content of path in the tree of c. A path absent from
// the tree yields [ErrNotFound].
func (r *Repo) BlobAtPath(c *object.Commit, path string, limit int64) ([]byte, error) {
	f, err := c.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, fmt.Errorf("%s:%s: %w", c.Hash, path, ErrNotFound)
		}
		return nil, fmt.Errorf("cannot look up %s in %s: %w", path, c.Hash, err)
	}

	return r.BlobBytes(f.Blob.Hash, limit)
}

// StagedEntryHash returns the blob id recorded in the index for path, or
// [ErrNotFound] when the path is not staged.
func (r *Repo) StagedEntryHash(path string) (plumbing.Hash, error) {
	idx, err := r.r.Storer.Index()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("cannot read index: %w", err)
	}

	e, err := idx.Entry(path)
	if err != nil {
		if errors.Is(err, index.ErrEntryNotFound) {
			return plumbing.ZeroHash, fmt.Errorf("index entry %s: %w", path, ErrNotFound)
		}
		return plumbing.ZeroHash, fmt.Errorf("cannot look up index entry %s: %w", path, err)
	}

	return e.Hash, nil
}
