// Copyright © 2018 One Concern

package linknodes

import (
	"context"
	"sync"

	"github.com/oneconcern/blobimport/pkg/model"
)

type memKey struct {
	path model.RepoPath
	node model.NodeHash
}

// Mem keeps linknodes in a map
type Mem struct {
	mx        sync.RWMutex
	linknodes map[memKey]model.NodeHash
}

// NewMem builds an in-memory linknodes store
func NewMem() *Mem {
	return &Mem{
		linknodes: make(map[memKey]model.NodeHash),
	}
}

// Add a linknode; a differing value for a known key is an AlreadyExistsError
func (m *Mem) Add(_ context.Context, path model.RepoPath, node, linknode model.NodeHash) error {
	m.mx.Lock()
	defer m.mx.Unlock()

	k := memKey{path: path, node: node}
	if old, ok := m.linknodes[k]; ok {
		if old == linknode {
			return nil
		}
		return &AlreadyExistsError{Path: path, Node: node, Old: old, New: linknode}
	}
	m.linknodes[k] = linknode
	return nil
}

// Get the linknode of a (path, node) pair, or an ErrNotFound error
func (m *Mem) Get(_ context.Context, path model.RepoPath, node model.NodeHash) (model.NodeHash, error) {
	m.mx.RLock()
	defer m.mx.RUnlock()

	linknode, ok := m.linknodes[memKey{path: path, node: node}]
	if !ok {
		return model.NullHash, notFound(path, node)
	}
	return linknode, nil
}

// Len is the number of recorded linknodes
func (m *Mem) Len() int {
	m.mx.RLock()
	defer m.mx.RUnlock()
	return len(m.linknodes)
}
