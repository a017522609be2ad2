package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"minivcs/pkg/types"
)

// CalculateBlobHash returns the lowercase hex SHA-256 of data.
// Any input, including an empty slice, is hashable.
func CalculateBlobHash(data []byte) types.Hash {
	hashBytes := sha256.Sum256(data)
	return types.Hash(hex.EncodeToString(hashBytes[:]))
}

// HashReader streams r through SHA-256. Used when re-verifying stored objects.
func HashReader(r io.Reader) (types.Hash, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, fmt.Errorf("failed to hash stream: %w", err)
	}
	return types.Hash(hex.EncodeToString(h.Sum(nil))), n, nil
}
