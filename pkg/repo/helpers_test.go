package repo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"minivcs/pkg/core"
	"minivcs/pkg/logging"
	"minivcs/pkg/storage"
	"minivcs/pkg/types"

	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2024, time.March, 9, 7, 5, 3, 0, time.UTC)

// tickingClock returns fixedTime and advances one second per call.
func tickingClock() func() time.Time {
	t := fixedTime
	return func() time.Time {
		now := t
		t = t.Add(time.Second)
		return now
	}
}

func setupRepo(t *testing.T, opts Options) (*Repository, *core.Commit) {
	t.Helper()
	if opts.Clock == nil {
		opts.Clock = tickingClock()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	r, genesis, err := Init(context.Background(), t.TempDir(), opts)
	require.NoError(t, err)
	return r, genesis
}

func writeWork(t *testing.T, r *Repository, name, content string) string {
	t.Helper()
	p := filepath.Join(r.Root(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

var errInjected = errors.New("injected failure")

// failingHead wraps a real HEAD pointer and fails every update.
type failingHead struct {
	HeadPointer
}

func (f failingHead) UpdateHead(ctx context.Context, hash types.Hash) error {
	return errInjected
}

// failingPutStore rejects writes but serves reads from the wrapped store.
type failingPutStore struct {
	storage.Store
}

func (f failingPutStore) Put(ctx context.Context, obj core.Object) error {
	return errInjected
}

type recordingIndexer struct {
	seen []types.Hash
	err  error
}

func (r *recordingIndexer) IndexCommit(ctx context.Context, c *core.Commit) error {
	r.seen = append(r.seen, c.ID())
	return r.err
}

// staleCacheStore claims every object exists, like an existence cache holding
// markers from an earlier repository at the same path.
type staleCacheStore struct {
	storage.Store
}

func (s staleCacheStore) Has(ctx context.Context, hash types.Hash) (bool, error) {
	return true, nil
}

func (s staleCacheStore) Backend() storage.Store { return s.Store }
