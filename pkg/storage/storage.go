// Package storage defines the uniform put/get-bytes contract the pipeline
// uses for every artifact read and write, with local-filesystem and remote
// object-store implementations behind it.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned (wrapped) by GetBytes and Rename when the named
// object does not exist.
var ErrNotFound = errors.New("object not found")

// Store is the artifact storage contract.
type Store interface {
	GetBytes(ctx context.Context, name string) ([]byte, error)
	PutBytes(ctx context.Context, name string, b []byte) error
	Exists(ctx context.Context, name string) (bool, error)
	Rename(ctx context.Context, oldName, newName string) error

	// Description is a human-readable destination label for run summaries.
	Description() string
}

// IsNotFound reports whether err indicates a missing object.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
