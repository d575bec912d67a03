// Copyright © 2018 One Concern

// Package memblob provides an in-memory blob store.
//
// It is meant for tests and dry runs: nothing is persisted.
package memblob

import (
	"context"
	"sort"
	"sync"

	"github.com/oneconcern/blobimport/pkg/blobstore"
	"github.com/oneconcern/blobimport/pkg/blobstore/status"
)

// Store keeps blobs in a map
type Store struct {
	mx    sync.RWMutex
	blobs map[string][]byte
	puts  map[string]int
}

var _ blobstore.Blobstore = &Store{}

// New in-memory blob store
func New() *Store {
	return &Store{
		blobs: make(map[string][]byte),
		puts:  make(map[string]int),
	}
}

// Get a copy of a blob
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mx.RLock()
	defer s.mx.RUnlock()

	value, ok := s.blobs[key]
	if !ok {
		return nil, status.ErrNotExists
	}
	return append([]byte(nil), value...), nil
}

// Put a copy of a blob
func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.mx.Lock()
	defer s.mx.Unlock()

	s.blobs[key] = append([]byte(nil), value...)
	s.puts[key]++
	return nil
}

// Keys stored so far, in lexicographic order
func (s *Store) Keys() []string {
	s.mx.RLock()
	defer s.mx.RUnlock()

	keys := make([]string, 0, len(s.blobs))
	for k := range s.blobs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Puts tells how many times a key has been written
func (s *Store) Puts(key string) int {
	s.mx.RLock()
	defer s.mx.RUnlock()
	return s.puts[key]
}

func (s *Store) String() string {
	return "memblob"
}
