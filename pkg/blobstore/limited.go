// Copyright © 2018 One Concern

package blobstore

import (
	"context"
	"strconv"
)

// Limited wraps a store so that values of maxBlobSize bytes or more are
// silently discarded.
//
// A discarded put still reports success: with a size limit, a successful put
// does not imply the blob was persisted. Gets are passed through.
func Limited(store Blobstore, maxBlobSize int) Blobstore {
	return &limitedStore{
		store:       store,
		maxBlobSize: maxBlobSize,
	}
}

type limitedStore struct {
	store       Blobstore
	maxBlobSize int
}

func (l *limitedStore) Get(ctx context.Context, key string) ([]byte, error) {
	return l.store.Get(ctx, key)
}

func (l *limitedStore) Put(ctx context.Context, key string, value []byte) error {
	if len(value) >= l.maxBlobSize {
		return nil
	}
	return l.store.Put(ctx, key, value)
}

func (l *limitedStore) String() string {
	return l.store.String() + "<" + strconv.Itoa(l.maxBlobSize)
}

// Compact forwards to the limited store when it supports compaction
func (l *limitedStore) Compact(ctx context.Context) error {
	if c, ok := l.store.(Compactor); ok {
		return c.Compact(ctx)
	}
	return nil
}
