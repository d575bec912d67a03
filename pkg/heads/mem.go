// Copyright © 2018 One Concern

package heads

import (
	"context"
	"sync"

	"github.com/oneconcern/blobimport/pkg/model"
)

// NewMem builds an in-memory heads store
func NewMem() *Mem {
	return &Mem{
		heads: make(map[model.NodeHash]string),
	}
}

// Mem keeps heads in a map
type Mem struct {
	mx    sync.RWMutex
	heads map[model.NodeHash]string
}

// Add records head as a tip of branch
func (m *Mem) Add(_ context.Context, head model.NodeHash, branch string) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.heads[head] = branch
	return nil
}

// Get the branch of a head
func (m *Mem) Get(_ context.Context, head model.NodeHash) (string, error) {
	m.mx.RLock()
	defer m.mx.RUnlock()
	branch, ok := m.heads[head]
	if !ok {
		return "", notFound(head)
	}
	return branch, nil
}

// List all heads, sorted by hash
func (m *Mem) List(context.Context) ([]model.NodeHash, error) {
	m.mx.RLock()
	defer m.mx.RUnlock()
	hashes := make([]model.NodeHash, 0, len(m.heads))
	for head := range m.heads {
		hashes = append(hashes, head)
	}
	sortHashes(hashes)
	return hashes, nil
}

// Len is the number of heads
func (m *Mem) Len() int {
	m.mx.RLock()
	defer m.mx.RUnlock()
	return len(m.heads)
}
