// Copyright © 2018 One Concern

package importer

import (
	"github.com/oneconcern/blobimport/pkg/model"
)

// ItemKind tells what a work item holds
type ItemKind uint8

const (
	// ChangesetItem holds a changeset record, serialized by the consumer
	ChangesetItem ItemKind = iota + 1

	// BlobItem holds a content-addressed manifest or file payload
	BlobItem
)

func (k ItemKind) String() string {
	switch k {
	case ChangesetItem:
		return "changeset"
	case BlobItem:
		return "blob"
	default:
		return "unknown"
	}
}

// WorkItem is a unit of storage work handed over from the converter to the consumer
type WorkItem struct {
	Kind ItemKind

	// Key under which the item is stored
	Key string

	// Payload of a blob item
	Payload []byte

	// Changeset of a changeset item
	Changeset *model.Changeset
}

// NewChangesetItem builds the work item storing a changeset
func NewChangesetItem(cs *model.Changeset) WorkItem {
	return WorkItem{Kind: ChangesetItem, Key: cs.Key(), Changeset: cs}
}

// NewBlobItem builds the work item storing a manifest or file payload
func NewBlobItem(key string, payload []byte) WorkItem {
	return WorkItem{Kind: BlobItem, Key: key, Payload: payload}
}

// payload to store for this item
func (w WorkItem) payload() ([]byte, error) {
	if w.Kind == ChangesetItem {
		return w.Changeset.Encode()
	}
	return w.Payload, nil
}
