package core

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"minivcs/pkg/types"

	"github.com/stretchr/testify/require"
)

// fixedTime keeps records reproducible across runs.
var fixedTime = time.Date(2024, time.March, 9, 7, 5, 3, 0, time.UTC)

// mockHash builds a valid 64-char hex hash from an arbitrary label.
func mockHash(input string) types.Hash {
	sum := sha256.Sum256([]byte(input))
	return types.Hash(hex.EncodeToString(sum[:]))
}

func mustNewCommit(t *testing.T, parent types.Hash, files []FileEntry, title, msg string, msgAndArgs ...any) *Commit {
	t.Helper()
	c, err := NewCommit(parent, files, title, msg, fixedTime)
	require.NoError(t, err, msgAndArgs...)
	return c
}
