package meta

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"minivcs/pkg/core"
	"minivcs/pkg/types"

	"github.com/stretchr/testify/require"
)

// mockHash builds a valid hash for fixtures.
func mockHash(input string) types.Hash {
	sum := sha256.Sum256([]byte(input))
	return types.Hash(hex.EncodeToString(sum[:]))
}

func mustNewCommit(t *testing.T, parent types.Hash, files []core.FileEntry, title, msg string, at time.Time, msgAndArgs ...any) *core.Commit {
	t.Helper()
	c, err := core.NewCommit(parent, files, title, msg, at)
	require.NoError(t, err, msgAndArgs...)
	return c
}

func mustIndexCommit(t *testing.T, repo *Repository, c *core.Commit, msgAndArgs ...any) {
	t.Helper()
	err := repo.IndexCommit(context.Background(), c)
	require.NoError(t, err, msgAndArgs...)
}
