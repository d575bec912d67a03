// Copyright © 2018 One Concern

package blobstore

import (
	"context"
	"fmt"
)

// Blobstore implementations know how to get and put blobs by key.
//
// Blobs are immutable: a put either creates the blob or overwrites it with
// the same content. Implementations must be safe for concurrent use.
//
// Get reports a missing key with an error matching status.ErrNotExists.
type Blobstore interface {
	fmt.Stringer
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Compactor is implemented by stores which may postpone background
// compaction during a bulk load and run it explicitly afterwards.
type Compactor interface {
	Compact(ctx context.Context) error
}
