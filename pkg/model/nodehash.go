// Copyright © 2018 One Concern

package model

import (
	"bytes"
	"crypto/sha1" // nolint: gosec
	"encoding/hex"
	"fmt"
)

const (
	// NodeHashSize is the size in bytes of a node hash
	NodeHashSize = sha1.Size

	// NodeHashSizeHex is the size of the hexadecimal representation of a node hash
	NodeHashSizeHex = 2 * NodeHashSize
)

// NullHash is the hash of the null revision
var NullHash NodeHash

// NodeHash identifies a changeset, a manifest or a file revision
type NodeHash [NodeHashSize]byte

// NewNodeHash builds a node hash from its binary representation
func NewNodeHash(data []byte) (NodeHash, error) {
	var h NodeHash
	if len(data) != NodeHashSize {
		return NullHash, &BadNodeHash{Hash: string(data)}
	}
	copy(h[:], data)
	return h, nil
}

// NodeHashFromHex parses the 40 characters hexadecimal form of a node hash.
// Both lower and upper case digits are accepted.
func NodeHashFromHex(s string) (NodeHash, error) {
	var h NodeHash
	if len(s) != NodeHashSizeHex {
		return NullHash, &BadNodeHash{Hash: s}
	}
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return NullHash, &BadNodeHash{Hash: s, err: err}
	}
	return h, nil
}

// MustNodeHashFromHex parses a node hash but panics if there is an error
func MustNodeHashFromHex(s string) NodeHash {
	h, err := NodeHashFromHex(s)
	if err != nil {
		panic(err.Error())
	}
	return h
}

// HashNode computes the node hash of some revision text, given its parents.
//
// This is sha1(min(p1, p2) || max(p1, p2) || text).
func HashNode(p1, p2 NodeHash, text []byte) NodeHash {
	if bytes.Compare(p1[:], p2[:]) > 0 {
		p1, p2 = p2, p1
	}
	hasher := sha1.New() // nolint: gosec
	_, _ = hasher.Write(p1[:])
	_, _ = hasher.Write(p2[:])
	_, _ = hasher.Write(text)

	var h NodeHash
	copy(h[:], hasher.Sum(nil))
	return h
}

func (h NodeHash) String() string {
	return hex.EncodeToString(h[:])
}

// IsNull tells if this is the hash of the null revision
func (h NodeHash) IsNull() bool {
	return h == NullHash
}

// MarshalText encodes the hash in hexadecimal
func (h NodeHash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText decodes an hexadecimal hash
func (h *NodeHash) UnmarshalText(text []byte) error {
	parsed, err := NodeHashFromHex(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// BadNodeHash is an error that's returned when some input is not a valid node hash.
type BadNodeHash struct {
	Hash string
	err  error
}

func (b *BadNodeHash) Error() string {
	if b.err != nil {
		return fmt.Sprintf("%q is not a valid node hash: %v", b.Hash, b.err)
	}
	return fmt.Sprintf("%q is not a valid node hash: expected %d hex characters", b.Hash, NodeHashSizeHex)
}

func (b *BadNodeHash) Unwrap() error {
	return b.err
}
