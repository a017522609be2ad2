// pkg/types/common.go
package types

import "strings"

// Hash is the identity of a stored object: lowercase hex SHA-256 (64 chars).
// It is a value object and must be treated as immutable.
type Hash string

// NoParent is the sentinel written in the parent field of the genesis commit.
const NoParent Hash = "0"

func (h Hash) String() string { return string(h) }

func (h Hash) IsZero() bool { return h == "" }

// IsValid checks length and alphabet. Uppercase hex is rejected because
// hashes double as file names.
func (h Hash) IsValid() bool {
	if len(h) != 64 {
		return false
	}
	for i := 0; i < len(h); i++ {
		c := h[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// IsRoot reports whether h is the genesis parent sentinel.
func (h Hash) IsRoot() bool { return h == NoParent }

// Short returns the first 8 characters, for display.
func (h Hash) Short() string {
	if len(h) <= 8 {
		return string(h)
	}
	return string(h[:8])
}

// HashPrefix is user input that may be an abbreviated hash.
type HashPrefix string

func (p HashPrefix) String() string { return string(p) }

// Normalize trims whitespace and lowercases the prefix.
func (p HashPrefix) Normalize() HashPrefix {
	return HashPrefix(strings.ToLower(strings.TrimSpace(string(p))))
}

// Matches reports whether h starts with the prefix.
func (p HashPrefix) Matches(h Hash) bool {
	return strings.HasPrefix(string(h), string(p))
}
