// Copyright © 2018 One Concern

package kvblob

import (
	"errors"
	"fmt"
	"os"

	"github.com/cockroachdb/pebble"
	"github.com/oneconcern/blobimport/pkg/blobstore/status"
)

// with automatic compactions disabled, L0 keeps growing until Compact is called:
// the default stop-writes threshold would stall the bulk load forever.
const postponedL0StopWritesThreshold = 1 << 20

type (
	// kvPebble provides a KV store implementation based on cockroachdb/pebble
	kvPebble struct {
		*pebble.DB
	}
)

func (kv *kvPebble) Get(key []byte) ([]byte, error) {
	val, closer, err := kv.DB.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, status.ErrNotExists.Wrap(err)
		}
		return nil, err
	}
	defer func() {
		_ = closer.Close()
	}()

	dest := make([]byte, len(val))
	copy(dest, val)

	return dest, nil
}

func (kv *kvPebble) Set(key, value []byte) error {
	return kv.DB.Set(key, value, pebble.NoSync)
}

func (kv *kvPebble) Compact() error {
	iterator := kv.DB.NewIter(nil)
	defer func() {
		_ = iterator.Close()
	}()

	if !iterator.First() {
		return nil // empty DB
	}
	start := append([]byte(nil), iterator.Key()...)
	if !iterator.Last() {
		return nil
	}
	// the end bound is exclusive
	end := append(append([]byte(nil), iterator.Key()...), 0)

	return kv.DB.Compact(start, end, true)
}

func (kv *kvPebble) Close() error {
	if err := kv.DB.Flush(); err != nil {
		_ = kv.DB.Close()
		return fmt.Errorf("flush KV: %w", err)
	}
	return kv.DB.Close()
}

func makeKVPebble(pth string, o *options) (*kvPebble, error) {
	if !o.createIfMissing {
		if _, err := os.Stat(pth); err != nil {
			return nil, status.ErrNotFoundStore.Wrap(err)
		}
	} else if err := os.MkdirAll(pth, 0700); err != nil {
		return nil, fmt.Errorf("makeKV: mkdir: %w", err)
	}

	options := new(pebble.Options)
	options.EnsureDefaults()
	options.ErrorIfNotExists = !o.createIfMissing
	if o.postponeCompaction {
		options.DisableAutomaticCompactions = true
		options.L0StopWritesThreshold = postponedL0StopWritesThreshold
	}

	db, err := pebble.Open(pth, options)
	if err != nil {
		if !o.createIfMissing {
			return nil, status.ErrNotFoundStore.Wrap(err)
		}
		return nil, fmt.Errorf("open KV: %w", err)
	}

	return &kvPebble{DB: db}, nil
}
