// Copyright © 2018 One Concern

package kvblob

import (
	"context"
	"fmt"
	"sync"

	"github.com/oneconcern/blobimport/pkg/blobstore"
	"go.uber.org/zap"
)

type (
	// kvStore provides an abstraction of what the blob store expects
	// from some underlying KV engine.
	kvStore interface {
		// Get the value for a key, or a status.ErrNotExists error
		Get([]byte) ([]byte, error)
		// Set a key with some value
		Set([]byte, []byte) error
		// Compact the whole key range
		Compact() error
		// Close the DB
		Close() error
	}
)

// Store is a blob store backed by an embedded KV engine
type Store struct {
	kv       kvStore
	engine   string
	pth      string
	l        *zap.Logger
	closeMx  sync.RWMutex
	isClosed bool
}

var (
	_ blobstore.Blobstore = &Store{}
	_ blobstore.Compactor = &Store{}
)

// OpenPebble opens a pebble-backed blob store at pth
func OpenPebble(pth string, opts ...Option) (*Store, error) {
	o := defaultOptions(opts)
	kv, err := makeKVPebble(pth, o)
	if err != nil {
		return nil, err
	}
	return newStore(kv, "pebble", pth, o), nil
}

// OpenBadger opens a badger-backed blob store at pth
func OpenBadger(pth string, opts ...Option) (*Store, error) {
	o := defaultOptions(opts)
	kv, err := makeKVBadger(pth, o)
	if err != nil {
		return nil, err
	}
	return newStore(kv, "badger", pth, o), nil
}

func newStore(kv kvStore, engine, pth string, o *options) *Store {
	o.l.Info("opened KV blob store",
		zap.String("engine", engine),
		zap.String("path", pth),
		zap.Bool("postponeCompaction", o.postponeCompaction),
	)
	return &Store{
		kv:     kv,
		engine: engine,
		pth:    pth,
		l:      o.l,
	}
}

// Get a blob, or a status.ErrNotExists error
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.closeMx.RLock()
	defer s.closeMx.RUnlock()
	if s.isClosed {
		return nil, errClosed
	}
	return s.kv.Get([]byte(key))
}

// Put a blob. Rewriting a key replaces its value.
func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.closeMx.RLock()
	defer s.closeMx.RUnlock()
	if s.isClosed {
		return errClosed
	}
	if err := s.kv.Set([]byte(key), value); err != nil {
		return fmt.Errorf("%s put %q: %w", s.engine, key, err)
	}
	return nil
}

// Compact runs a full manual compaction
func (s *Store) Compact(_ context.Context) error {
	s.closeMx.RLock()
	defer s.closeMx.RUnlock()
	if s.isClosed {
		return errClosed
	}
	s.l.Info("compaction started", zap.String("engine", s.engine))
	if err := s.kv.Compact(); err != nil {
		return fmt.Errorf("%s compaction: %w", s.engine, err)
	}
	s.l.Info("compaction finished", zap.String("engine", s.engine))
	return nil
}

// Close the underlying DB. Closing twice is a no-op.
func (s *Store) Close() error {
	s.closeMx.Lock()
	defer s.closeMx.Unlock()
	if s.isClosed {
		return nil
	}
	s.isClosed = true
	return s.kv.Close()
}

func (s *Store) String() string {
	return s.engine + "@" + s.pth
}
