package disk

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"minivcs/pkg/core"
	"minivcs/pkg/fsutil"
	"minivcs/pkg/storage"
	"minivcs/pkg/types"
)

// Adapter implements storage.Store on a local directory.
// Layout is flat: <root>/<hash>, one file per object.
type Adapter struct {
	rootPath string // e.g. /work/project/.vcs/commits
}

// NewAdapter opens (and if needed creates) the object directory.
func NewAdapter(root string) (*Adapter, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root storage dir: %w", err)
	}
	return &Adapter{rootPath: root}, nil
}

func (s *Adapter) Root() string { return s.rootPath }

func (s *Adapter) layout(hash types.Hash) string {
	return filepath.Join(s.rootPath, string(hash))
}

func (s *Adapter) Put(ctx context.Context, obj core.Object) error {
	if err := storage.CheckObject(obj); err != nil {
		return err
	}
	targetPath := s.layout(obj.ID())

	// content addressed: an existing key already holds these exact bytes
	if _, err := os.Stat(targetPath); err == nil {
		return nil
	}

	if err := fsutil.SafeWrite(targetPath, obj.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write object %s: %w", obj.ID(), err)
	}
	return nil
}

func (s *Adapter) Get(ctx context.Context, hash types.Hash) (io.ReadCloser, error) {
	if !hash.IsValid() {
		return nil, fmt.Errorf("%w: %q", storage.ErrNotFound, hash)
	}

	f, err := os.Open(s.layout(hash))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, hash)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Adapter) Has(ctx context.Context, hash types.Hash) (bool, error) {
	if !hash.IsValid() {
		return false, nil
	}
	_, err := os.Stat(s.layout(hash))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (s *Adapter) ExpandHash(ctx context.Context, short types.HashPrefix) (types.Hash, error) {
	prefix, err := storage.CheckPrefix(short)
	if err != nil {
		return "", err
	}

	all, err := s.List(ctx)
	if err != nil {
		return "", err
	}

	var match types.Hash
	for _, h := range all {
		if !prefix.Matches(h) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("%w: %s", storage.ErrAmbiguousHash, prefix)
		}
		match = h
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", storage.ErrNotFound, prefix)
	}
	return match, nil
}

func (s *Adapter) List(ctx context.Context) ([]types.Hash, error) {
	entries, err := os.ReadDir(s.rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}

	hashes := make([]types.Hash, 0, len(entries))
	for _, e := range entries {
		h := types.Hash(e.Name())
		// skips temp files from interrupted writes
		if e.IsDir() || !h.IsValid() {
			continue
		}
		hashes = append(hashes, h)
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })
	return hashes, nil
}
