// Copyright © 2018 One Concern

// Package linknodes records, for every (path, node) pair, the changeset which
// introduced it.
package linknodes

import (
	"context"
	"fmt"

	"github.com/oneconcern/blobimport/pkg/errors"
	"github.com/oneconcern/blobimport/pkg/model"
)

var (
	// ErrNotFound is returned when no linknode is known for a (path, node) pair
	ErrNotFound = errors.New("linknode not found")

	// ErrAlreadyExists is matched by AlreadyExistsError
	ErrAlreadyExists = errors.New("linknode already exists")

	// ErrStorage indicates a failure of the underlying storage
	ErrStorage = errors.New("linknode storage error")
)

// Linknodes is a keyed store of (path, node) -> linknode.
//
// A (path, node) pair is introduced by one single changeset: adding the same
// linknode again succeeds, adding a different one fails with an AlreadyExistsError.
type Linknodes interface {
	Add(ctx context.Context, path model.RepoPath, node, linknode model.NodeHash) error
	Get(ctx context.Context, path model.RepoPath, node model.NodeHash) (model.NodeHash, error)
}

// AlreadyExistsError reports a conflicting linknode for a (path, node) pair
type AlreadyExistsError struct {
	Path model.RepoPath
	Node model.NodeHash
	Old  model.NodeHash
	New  model.NodeHash
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("linknode already exists for %s@%s: old %s, new %s", e.Path, e.Node, e.Old, e.New)
}

// Is matches ErrAlreadyExists
func (e *AlreadyExistsError) Is(target error) bool {
	return target == error(ErrAlreadyExists)
}

func notFound(path model.RepoPath, node model.NodeHash) error {
	return ErrNotFound.Wrap(fmt.Errorf("%s@%s", path, node))
}

// Share wraps a linknodes store in a handle that delegates every operation
func Share(l Linknodes) Linknodes {
	return shared{inner: l}
}

type shared struct {
	inner Linknodes
}

func (s shared) Add(ctx context.Context, path model.RepoPath, node, linknode model.NodeHash) error {
	return s.inner.Add(ctx, path, node, linknode)
}

func (s shared) Get(ctx context.Context, path model.RepoPath, node model.NodeHash) (model.NodeHash, error) {
	return s.inner.Get(ctx, path, node)
}

// Noop accepts and discards every linknode: lookups always fail with ErrNotFound
func Noop() Linknodes {
	return noop{}
}

type noop struct{}

func (noop) Add(context.Context, model.RepoPath, model.NodeHash, model.NodeHash) error {
	return nil
}

func (noop) Get(_ context.Context, path model.RepoPath, node model.NodeHash) (model.NodeHash, error) {
	return model.NullHash, notFound(path, node)
}
