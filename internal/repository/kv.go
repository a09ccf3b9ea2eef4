package repository

import (
	"context"
	"errors"
)

// ErrNotFound is returned by KV implementations when a key has never been
// written or has been deleted.
var ErrNotFound = errors.New("repository: key not found")

// KV is the durable key/value store the Adapter mirrors conversation state
// into. Implementations must make Put visible to a subsequent Get on the
// same device, overwrite on Put and treat Delete of a missing key as success.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

