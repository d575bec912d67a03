// Copyright © 2018 One Concern

package model

import (
	"crypto/sha1" // nolint: gosec
	"encoding/hex"
)

const contentKeyPrefix = "sha1-"

// Entry is a manifest or file revision referenced by a changeset
type Entry struct {
	Path RepoPath
	Node NodeHash

	// Linknode is the changeset which introduced this revision.
	// A null linknode means the referencing changeset introduced it.
	Linknode NodeHash

	Data []byte
}

// Key is the content-derived blob key of the entry payload
func (e Entry) Key() string {
	return ContentKey(e.Data)
}

// IntroducedBy tells if the entry was introduced by the given changeset
func (e Entry) IntroducedBy(changeset NodeHash) bool {
	return e.Linknode.IsNull() || e.Linknode == changeset
}

// ContentKey derives the blob key of some payload
func ContentKey(data []byte) string {
	sum := sha1.Sum(data) // nolint: gosec
	return contentKeyPrefix + hex.EncodeToString(sum[:])
}
