package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"minivcs/pkg/core"
	"minivcs/pkg/types"
)

var (
	ErrNotFound       = errors.New("object not found")
	ErrAmbiguousHash  = errors.New("ambiguous hash prefix")
	ErrPrefixTooShort = errors.New("hash prefix too short")
	ErrInvalidObject  = errors.New("object id does not match its content")
)

// MinPrefixLen is the shortest abbreviated hash ExpandHash accepts.
const MinPrefixLen = 4

// Store is a content-addressed, append-only object store.
// Implementations: local disk, S3, and a Redis-cached decorator.
type Store interface {
	// Put persists obj under obj.ID(). Writing an existing key is a no-op
	// success, and a failed write never leaves a readable partial object.
	Put(ctx context.Context, obj core.Object) error

	// Get opens the object stored under hash, or returns ErrNotFound.
	Get(ctx context.Context, hash types.Hash) (io.ReadCloser, error)

	Has(ctx context.Context, hash types.Hash) (bool, error)

	// ExpandHash resolves a unique abbreviated hash to the full key.
	ExpandHash(ctx context.Context, short types.HashPrefix) (types.Hash, error)

	// List returns every stored key in ascending order.
	List(ctx context.Context) ([]types.Hash, error)
}

// PutBytes hashes data, stores it and returns the key.
func PutBytes(ctx context.Context, s Store, data []byte) (types.Hash, error) {
	blob := core.NewBlob(data)
	if err := s.Put(ctx, blob); err != nil {
		return "", err
	}
	return blob.ID(), nil
}

// ReadObject fetches the full content stored under hash.
func ReadObject(ctx context.Context, s Store, hash types.Hash) ([]byte, error) {
	rc, err := s.Get(ctx, hash)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", hash, err)
	}
	return data, nil
}

// CheckPrefix validates user input before a backend lookup.
func CheckPrefix(short types.HashPrefix) (types.HashPrefix, error) {
	p := short.Normalize()
	if len(p) < MinPrefixLen {
		return "", fmt.Errorf("%w: %q (need at least %d characters)", ErrPrefixTooShort, p, MinPrefixLen)
	}
	return p, nil
}

// CheckObject rejects objects whose declared id is not a well-formed hash of
// their bytes.
func CheckObject(obj core.Object) error {
	if !obj.ID().IsValid() || core.CalculateBlobHash(obj.Bytes()) != obj.ID() {
		return fmt.Errorf("%w: %q", ErrInvalidObject, obj.ID())
	}
	return nil
}
