package repo

import (
	"context"
	"fmt"
	"path/filepath"

	"minivcs/pkg/core"
	"minivcs/pkg/index"
	"minivcs/pkg/types"

	"go.uber.org/zap"
)

// CommitOptions controls what goes into a new commit.
type CommitOptions struct {
	Title   string
	Message string

	// Paths, when set, are staged first and only they are committed. Other
	// staged entries stay in the index untouched.
	Paths []string

	// All re-stages every file recorded in the HEAD commit from the working
	// tree before committing the whole index.
	All bool
}

// Commit records the staged files as a new commit whose parent is the
// current HEAD. The commit object is durable before HEAD moves to it; a
// crash in between leaves HEAD on the old commit.
func (r *Repository) Commit(ctx context.Context, opts CommitOptions) (*core.Commit, error) {
	// 1. parent
	parent, err := r.head.GetHead(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read HEAD: %w", err)
	}

	if opts.All {
		if err := r.restageTracked(ctx, parent); err != nil {
			return nil, err
		}
	}

	var only map[string]bool
	if len(opts.Paths) > 0 {
		added, err := r.index.Add(opts.Paths...)
		if err != nil {
			return nil, err
		}
		only = make(map[string]bool, len(added))
		for _, e := range added {
			only[e.Name] = true
		}
	}

	// 2. one clock reading for both the date and time lines
	now := r.now()

	// 3. staged entries
	entries, err := r.index.List()
	if err != nil {
		return nil, err
	}
	files := make([]core.FileEntry, 0, len(entries))
	for _, e := range entries {
		if only != nil && !only[e.Name] {
			continue
		}
		files = append(files, core.FileEntry{Name: e.Name, Size: e.Size})
	}
	if len(files) == 0 {
		return nil, ErrNothingToCommit
	}

	// 4. serialize and hash
	c, err := core.NewCommit(parent, files, opts.Title, opts.Message, now)
	if err != nil {
		return nil, err
	}

	// 5. store, then 6. point
	if err := r.publish(ctx, c); err != nil {
		return nil, err
	}

	r.log.Info("committed",
		zap.String("hash", c.ID().String()),
		zap.String("parent", parent.String()),
		zap.Int("count", c.Count),
		zap.Int64("size", c.Size),
	)
	return c, nil
}

// restageTracked copies every file named by the commit at parent from the
// working tree into the index again.
func (r *Repository) restageTracked(ctx context.Context, parent types.Hash) error {
	if parent.IsRoot() {
		return nil
	}
	c, err := r.ReadCommit(ctx, parent)
	if err != nil {
		return err
	}
	if len(c.Files) == 0 {
		return nil
	}

	paths := make([]string, len(c.Files))
	for i, name := range c.Files {
		paths[i] = filepath.Join(r.layout.Root, name)
	}
	if _, err := r.index.Add(paths...); err != nil {
		return err
	}
	r.log.Debug("restaged tracked files", zap.Int("count", len(paths)))
	return nil
}

// Status returns the entries currently staged.
func (r *Repository) Status(ctx context.Context) ([]index.Entry, error) {
	return r.index.List()
}
