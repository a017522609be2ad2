package repo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"minivcs/pkg/core"
	"minivcs/pkg/storage"
	"minivcs/pkg/types"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// verifyConcurrency bounds how many objects are rehashed at once.
const verifyConcurrency = 8

// Problem is one object that failed verification.
type Problem struct {
	Hash types.Hash
	Err  error
}

// VerifyReport summarizes a full repository check.
type VerifyReport struct {
	Head      types.Hash
	Objects   int          // objects in the store
	Reachable []types.Hash // HEAD back to genesis
	Orphans   []types.Hash // intact objects not on the chain
	Problems  []Problem    // corrupt, unparsable or missing objects
}

// OK reports whether the chain is complete and every object is intact.
// Orphans alone do not fail a check.
func (v *VerifyReport) OK() bool { return len(v.Problems) == 0 }

// Verify rehashes every stored object, walks the chain from HEAD to genesis
// and reports corrupt objects, broken links and orphans. Only failures to
// reach the store are returned as errors.
func (r *Repository) Verify(ctx context.Context) (*VerifyReport, error) {
	head, err := r.head.GetHead(ctx)
	if err != nil {
		return nil, err
	}

	all, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}

	report := &VerifyReport{Head: head, Objects: len(all)}
	bad := make(map[types.Hash]error)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(verifyConcurrency)
	for _, h := range all {
		g.Go(func() error {
			perr, err := r.checkObject(gctx, h)
			if err != nil {
				return err
			}
			if perr != nil {
				mu.Lock()
				bad[h] = perr
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	onChain := make(map[types.Hash]bool)
	for h := head; !h.IsRoot(); {
		if onChain[h] {
			bad[h] = fmt.Errorf("%w: cycle at %s", core.ErrMalformedCommit, h)
			break
		}
		if perr, ok := bad[h]; ok {
			r.log.Debug("chain broken at corrupt object", zap.String("hash", h.String()), zap.Error(perr))
			break
		}
		c, err := r.ReadCommit(ctx, h)
		if errors.Is(err, storage.ErrNotFound) {
			bad[h] = fmt.Errorf("missing from chain: %w", err)
			break
		}
		if err != nil {
			bad[h] = err
			break
		}
		onChain[h] = true
		report.Reachable = append(report.Reachable, h)
		h = c.Parent
	}

	for _, h := range all {
		if !onChain[h] && bad[h] == nil {
			report.Orphans = append(report.Orphans, h)
		}
	}
	for h, perr := range bad {
		report.Problems = append(report.Problems, Problem{Hash: h, Err: perr})
	}
	sort.Slice(report.Problems, func(i, j int) bool { return report.Problems[i].Hash < report.Problems[j].Hash })

	r.log.Info("verify finished",
		zap.Int("objects", report.Objects),
		zap.Int("reachable", len(report.Reachable)),
		zap.Int("orphans", len(report.Orphans)),
		zap.Int("problems", len(report.Problems)),
	)
	return report, nil
}

// checkObject returns a non-nil problem when the object is damaged and a
// non-nil error only when the store itself failed.
func (r *Repository) checkObject(ctx context.Context, h types.Hash) (problem error, err error) {
	rc, err := r.store.Get(ctx, h)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return err, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", h, err)
	}
	defer rc.Close()

	var buf bytes.Buffer
	got, _, err := core.HashReader(io.TeeReader(rc, &buf))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", h, err)
	}
	if got != h {
		return fmt.Errorf("%w: content hashes to %s", ErrCorruptObject, got), nil
	}
	if _, err := core.ParseCommit(buf.Bytes()); err != nil {
		return err, nil
	}
	return nil, nil
}
