// Copyright © 2018 One Concern

package kvblob

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dgraph-io/badger/v3"
	"github.com/oneconcern/blobimport/pkg/blobstore/status"
	"go.uber.org/zap"
)

// with compactors stopped, level 0 is only drained by Compact
const postponedNumLevelZeroTablesStall = 1 << 20

type (
	// kvBadger provides a KV store implementation based on dgraph-io/badger/v3
	kvBadger struct {
		*badger.DB
	}

	// badgerLogger routes badger logs to zap
	badgerLogger struct {
		*zap.SugaredLogger
	}
)

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.Warnf(format, args...)
}

func (kv *kvBadger) Get(key []byte) ([]byte, error) {
	var value []byte
	err := kv.DB.View(func(txn *badger.Txn) error {
		item, e := txn.Get(key)
		if e != nil {
			return e
		}
		value, e = item.ValueCopy(nil)

		return e
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, status.ErrNotExists.Wrap(err)
		}
		return nil, err
	}

	return value, nil
}

func (kv *kvBadger) Set(key, value []byte) error {
	return backoff.Retry(func() error {
		err := kv.DB.Update(func(txn *badger.Txn) error {
			e := txn.Set(key, value)
			if e != nil {
				if errors.Is(e, badger.ErrConflict) {
					return e // retry
				}

				return backoff.Permanent(e)
			}

			return nil
		})

		return err
	},
		backoff.NewConstantBackOff(10*time.Millisecond),
	)
}

func (kv *kvBadger) Compact() error {
	return kv.DB.Flatten(runtime.NumCPU())
}

func (kv *kvBadger) Close() error {
	return kv.DB.Close()
}

func makeKVBadger(pth string, o *options) (*kvBadger, error) {
	if !o.createIfMissing {
		if _, err := os.Stat(filepath.Join(pth, badger.ManifestFilename)); err != nil {
			return nil, status.ErrNotFoundStore.Wrap(err)
		}
	} else if err := os.MkdirAll(pth, 0700); err != nil {
		return nil, fmt.Errorf("makeKV: mkdir: %w", err)
	}

	options := badger.DefaultOptions(pth).
		WithLogger(badgerLogger{SugaredLogger: o.l.Sugar()}).
		WithLoggingLevel(badger.WARNING)
	if o.postponeCompaction {
		options = options.
			WithNumCompactors(0).
			WithNumLevelZeroTablesStall(postponedNumLevelZeroTablesStall)
	}

	db, err := badger.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open KV: %w", err)
	}

	return &kvBadger{DB: db}, nil
}
