// Package repo ties the object store, the staging area and HEAD together
// into a repository rooted at a working directory.
package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"minivcs/pkg/core"
	"minivcs/pkg/index"
	"minivcs/pkg/logging"
	"minivcs/pkg/refs"
	"minivcs/pkg/storage"
	"minivcs/pkg/storage/disk"
	"minivcs/pkg/types"

	"go.uber.org/zap"
)

var (
	ErrAlreadyInitialized = errors.New("repository already initialized")
	ErrNothingToCommit    = errors.New("nothing to commit (index is empty)")
	ErrCorruptObject      = errors.New("stored object does not match its hash")

	// ErrUninitialized is returned when no .vcs directory or HEAD exists.
	ErrUninitialized = refs.ErrUninitialized
)

// Layout names the on-disk locations under a repository root.
type Layout struct {
	Root string
}

func (l Layout) MetaDir() string    { return filepath.Join(l.Root, ".vcs") }
func (l Layout) IndexDir() string   { return filepath.Join(l.MetaDir(), "index") }
func (l Layout) CommitsDir() string { return filepath.Join(l.MetaDir(), "commits") }
func (l Layout) HeadPath() string   { return filepath.Join(l.MetaDir(), "HEAD") }

// HeadPointer is the mutable reference to the tip commit.
type HeadPointer interface {
	GetHead(ctx context.Context) (types.Hash, error)
	UpdateHead(ctx context.Context, hash types.Hash) error
}

// CommitIndexer receives every commit after HEAD has moved to it.
// meta.Repository implements it.
type CommitIndexer interface {
	IndexCommit(ctx context.Context, c *core.Commit) error
}

// Options customizes how a Repository is assembled. Zero values pick the
// local defaults.
type Options struct {
	Store   storage.Store    // defaults to a disk store in .vcs/commits
	Head    HeadPointer      // defaults to the .vcs/HEAD file
	Indexer CommitIndexer    // optional
	Logger  *zap.Logger      // defaults to a no-op logger
	Clock   func() time.Time // defaults to time.Now
}

// Repository is an explicit handle on one repository. All state lives on
// durable storage; the handle only carries paths and collaborators.
type Repository struct {
	layout  Layout
	store   storage.Store
	index   *index.Index
	head    HeadPointer
	indexer CommitIndexer
	log     *zap.Logger
	now     func() time.Time
}

// Init creates the layout in root, stores the genesis commit and points HEAD
// at it. A repository counts as initialized once HEAD exists, so rerunning
// Init after a failure part way completes it.
func Init(ctx context.Context, root string, opts Options) (*Repository, *core.Commit, error) {
	layout := Layout{Root: root}

	if ok, err := Initialized(root); err != nil {
		return nil, nil, err
	} else if ok {
		return nil, nil, fmt.Errorf("%w in %s", ErrAlreadyInitialized, layout.MetaDir())
	}

	for _, dir := range []string{layout.MetaDir(), layout.IndexDir(), layout.CommitsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create repo directory: %w", err)
		}
	}

	r, err := assemble(layout, opts)
	if err != nil {
		return nil, nil, err
	}
	// an interrupted run may have left staged files behind
	if err := r.index.Clear(); err != nil {
		return nil, nil, fmt.Errorf("failed to reset index: %w", err)
	}

	genesis, err := core.NewGenesisCommit(r.now())
	if err != nil {
		return nil, nil, err
	}
	if err := r.publish(ctx, genesis); err != nil {
		return nil, nil, fmt.Errorf("could not initialize repository: %w", err)
	}
	return r, genesis, nil
}

// Initialized reports whether root holds a repository, that is, whether HEAD
// exists.
func Initialized(root string) (bool, error) {
	_, err := os.Stat(Layout{Root: root}.HeadPath())
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}

// Open attaches to an initialized repository in root.
func Open(ctx context.Context, root string, opts Options) (*Repository, error) {
	layout := Layout{Root: root}

	ok, err := Initialized(root)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: no repository in %s", ErrUninitialized, root)
	}

	// an interrupted reset can leave the index directory missing
	if err := os.MkdirAll(layout.IndexDir(), 0755); err != nil {
		return nil, fmt.Errorf("failed to restore index directory: %w", err)
	}

	return assemble(layout, opts)
}

// uncached unwraps caching decorators so HEAD is only ever moved to an
// object the backend itself holds.
func uncached(store storage.Store) storage.Store {
	for {
		c, ok := store.(interface{ Backend() storage.Store })
		if !ok {
			return store
		}
		store = c.Backend()
	}
}

func assemble(layout Layout, opts Options) (*Repository, error) {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}

	store := opts.Store
	if store == nil {
		d, err := disk.NewAdapter(layout.CommitsDir())
		if err != nil {
			return nil, err
		}
		store = d
	}

	idx, err := index.NewIndex(layout.IndexDir(), log)
	if err != nil {
		return nil, err
	}

	head := opts.Head
	if head == nil {
		head = refs.NewManager(layout.MetaDir(), uncached(store), log)
	}

	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	return &Repository{
		layout:  layout,
		store:   store,
		index:   idx,
		head:    head,
		indexer: opts.Indexer,
		log:     log,
		now:     now,
	}, nil
}

func (r *Repository) Layout() Layout        { return r.layout }
func (r *Repository) Root() string          { return r.layout.Root }
func (r *Repository) Store() storage.Store  { return r.store }
func (r *Repository) Index() *index.Index   { return r.index }
func (r *Repository) Logger() *zap.Logger   { return r.log }

// Head returns the tip commit hash.
func (r *Repository) Head(ctx context.Context) (types.Hash, error) {
	return r.head.GetHead(ctx)
}

// Add stages files. See index.Index.Add for the all-or-nothing policy.
func (r *Repository) Add(ctx context.Context, paths ...string) ([]index.Entry, error) {
	return r.index.Add(paths...)
}

// ReadCommit loads and parses the commit stored under hash, checking that
// the bytes still hash to their key.
func (r *Repository) ReadCommit(ctx context.Context, hash types.Hash) (*core.Commit, error) {
	data, err := storage.ReadObject(ctx, r.store, hash)
	if err != nil {
		return nil, err
	}
	if got := core.CalculateBlobHash(data); got != hash {
		return nil, fmt.Errorf("%w: %s hashes to %s", ErrCorruptObject, hash, got)
	}
	c, err := core.ParseCommit(data)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", hash, err)
	}
	return c, nil
}

// Resolve turns "HEAD", "" or an abbreviated hash into a full hash.
func (r *Repository) Resolve(ctx context.Context, rev string) (types.Hash, error) {
	if rev == "" || rev == "HEAD" {
		return r.head.GetHead(ctx)
	}
	return r.store.ExpandHash(ctx, types.HashPrefix(rev))
}

// Show resolves rev and returns the commit it names.
func (r *Repository) Show(ctx context.Context, rev string) (*core.Commit, error) {
	h, err := r.Resolve(ctx, rev)
	if err != nil {
		return nil, err
	}
	return r.ReadCommit(ctx, h)
}

// Log calls fn for every commit from HEAD back to genesis. Returning
// ErrStopWalk from fn ends the walk early without error.
func (r *Repository) Log(ctx context.Context, fn func(*core.Commit) error) error {
	h, err := r.head.GetHead(ctx)
	if err != nil {
		return err
	}
	return r.walk(ctx, h, fn)
}

// ErrStopWalk lets a Log callback stop early.
var ErrStopWalk = errors.New("stop walk")

func (r *Repository) walk(ctx context.Context, from types.Hash, fn func(*core.Commit) error) error {
	for h := from; !h.IsRoot(); {
		c, err := r.ReadCommit(ctx, h)
		if err != nil {
			return fmt.Errorf("failed to read commit %s: %w", h, err)
		}
		if err := fn(c); err != nil {
			if errors.Is(err, ErrStopWalk) {
				return nil
			}
			return err
		}
		h = c.Parent
	}
	return nil
}

// publish stores c and only then moves HEAD to it. A failure after the put
// leaves HEAD on its previous, still valid commit and c as an orphan.
func (r *Repository) publish(ctx context.Context, c *core.Commit) error {
	if err := r.store.Put(ctx, c); err != nil {
		return fmt.Errorf("failed to store commit: %w", err)
	}
	r.log.Debug("put object", zap.String("hash", c.ID().String()), zap.Int("bytes", len(c.Bytes())))

	if err := r.head.UpdateHead(ctx, c.ID()); err != nil {
		r.log.Warn("commit stored but HEAD not moved", zap.String("orphan", c.ID().String()), zap.Error(err))
		return fmt.Errorf("failed to update HEAD: %w", err)
	}

	if r.indexer != nil {
		if err := r.indexer.IndexCommit(ctx, c); err != nil {
			// metadata is derived; the commit itself already succeeded
			r.log.Warn("failed to index commit metadata", zap.String("hash", c.ID().String()), zap.Error(err))
		}
	}
	return nil
}
