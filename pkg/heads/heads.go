// Copyright © 2018 One Concern

// Package heads records the tip changesets of a repository.
package heads

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/oneconcern/blobimport/pkg/errors"
	"github.com/oneconcern/blobimport/pkg/model"
)

// ErrNotFound is returned when a changeset is not a known head
var ErrNotFound = errors.New("head not found")

// Heads is a store of head changesets, keyed by node hash. The value kept for
// each head is the name of its branch.
//
// Implementations are safe for concurrent use. A branch may have several heads.
// Adding a known head again replaces its branch.
type Heads interface {
	Add(ctx context.Context, head model.NodeHash, branch string) error
	Get(ctx context.Context, head model.NodeHash) (string, error)
	List(ctx context.Context) ([]model.NodeHash, error)
}

// Share wraps a heads store in a handle that delegates every operation
func Share(h Heads) Heads {
	return shared{inner: h}
}

type shared struct {
	inner Heads
}

func (s shared) Add(ctx context.Context, head model.NodeHash, branch string) error {
	return s.inner.Add(ctx, head, branch)
}

func (s shared) Get(ctx context.Context, head model.NodeHash) (string, error) {
	return s.inner.Get(ctx, head)
}

func (s shared) List(ctx context.Context) ([]model.NodeHash, error) {
	return s.inner.List(ctx)
}

// Noop discards every head
func Noop() Heads {
	return noop{}
}

type noop struct{}

func (noop) Add(context.Context, model.NodeHash, string) error { return nil }

func (noop) Get(_ context.Context, head model.NodeHash) (string, error) {
	return "", notFound(head)
}

func (noop) List(context.Context) ([]model.NodeHash, error) { return nil, nil }

func notFound(head model.NodeHash) error {
	return ErrNotFound.Wrap(fmt.Errorf("changeset %s", head))
}

func sortHashes(hashes []model.NodeHash) {
	sort.Slice(hashes, func(i, j int) bool {
		return bytes.Compare(hashes[i][:], hashes[j][:]) < 0
	})
}
