// Copyright © 2018 One Concern

// Package source declares what the importer reads repository history from.
package source

import (
	"context"

	"github.com/oneconcern/blobimport/pkg/model"
)

// Source walks the history of a repository.
//
// Implementations must support concurrent calls to Changeset.
type Source interface {
	// Changesets lists changeset IDs in commit order: parents come before their children
	Changesets(ctx context.Context) ([]model.NodeHash, error)

	// Changeset loads a changeset and the manifest and file entries it references
	Changeset(ctx context.Context, id model.NodeHash) (*model.Changeset, []model.Entry, error)

	// Heads lists the changesets which are branch tips
	Heads(ctx context.Context) ([]model.NodeHash, error)
}
