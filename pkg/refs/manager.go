package refs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"minivcs/pkg/fsutil"
	"minivcs/pkg/logging"
	"minivcs/pkg/types"

	"go.uber.org/zap"
)

var (
	ErrUninitialized = errors.New("HEAD not found (repository not initialized)")
	ErrCorruptHead   = errors.New("HEAD does not contain a valid hash")
	ErrDanglingHead  = errors.New("refusing to point HEAD at an object that is not stored")
)

// ObjectChecker is the part of the object store HEAD needs: it may only move
// to keys that already exist.
type ObjectChecker interface {
	Has(ctx context.Context, hash types.Hash) (bool, error)
}

// Manager owns the HEAD file.
type Manager struct {
	rootPath string // .vcs
	objects  ObjectChecker
	log      *zap.Logger
}

func NewManager(rootPath string, objects ObjectChecker, log *zap.Logger) *Manager {
	if log == nil {
		log = logging.Nop()
	}
	return &Manager{rootPath: rootPath, objects: objects, log: log.Named("refs")}
}

// HeadPath is the physical location of .vcs/HEAD.
func (m *Manager) HeadPath() string {
	return filepath.Join(m.rootPath, "HEAD")
}

// GetHead returns the tip commit hash, or ErrUninitialized when no HEAD has
// been written yet.
func (m *Manager) GetHead(ctx context.Context) (types.Hash, error) {
	data, err := os.ReadFile(m.HeadPath())
	if os.IsNotExist(err) {
		return "", ErrUninitialized
	}
	if err != nil {
		return "", fmt.Errorf("failed to read HEAD: %w", err)
	}

	// tolerate the trailing newline and hand edits
	h := types.Hash(strings.TrimSpace(string(data)))
	if !h.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrCorruptHead, h)
	}
	return h, nil
}

// UpdateHead points HEAD at hash. The object must already be stored, and the
// file is replaced atomically so readers see either the old or the new value.
func (m *Manager) UpdateHead(ctx context.Context, hash types.Hash) error {
	if !hash.IsValid() {
		return fmt.Errorf("%w: %q", ErrCorruptHead, hash)
	}

	ok, err := m.objects.Has(ctx, hash)
	if err != nil {
		return fmt.Errorf("failed to check object %s: %w", hash, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrDanglingHead, hash)
	}

	if err := fsutil.SafeWrite(m.HeadPath(), []byte(hash.String()+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to update HEAD: %w", err)
	}
	m.log.Debug("update head", zap.String("hash", hash.String()))
	return nil
}
