package core

import "minivcs/pkg/types"

// ObjectType tags the kind of object held in a store.
type ObjectType string

const (
	TypeBlob   ObjectType = "blob"   // raw bytes with no interpretation
	TypeCommit ObjectType = "commit" // serialized commit record
)

// Object is anything that can be written to a content-addressed store.
// ID must equal CalculateBlobHash(Bytes()).
type Object interface {
	Type() ObjectType
	ID() types.Hash
	Bytes() []byte
}
