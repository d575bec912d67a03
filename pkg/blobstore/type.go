// Copyright © 2018 One Concern

package blobstore

import (
	"fmt"
	"strings"
)

// Type selects a blob store backend
type Type string

// Supported backends
const (
	Files    Type = "files"
	RocksDB  Type = "rocksdb"
	Badger   Type = "badger"
	Manifold Type = "manifold"
	GCS      Type = "gcs"
)

// Types lists all known backends
func Types() []Type {
	return []Type{Files, RocksDB, Badger, Manifold, GCS}
}

// ParseType validates a backend tag
func ParseType(s string) (Type, error) {
	for _, t := range Types() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unexpected blobstore type %q, expected one of: %s", s, typeNames())
}

func typeNames() string {
	names := make([]string, 0, len(Types()))
	for _, t := range Types() {
		names = append(names, string(t))
	}
	return strings.Join(names, "|")
}

// IsLocal tells if the backend persists blobs under the output root
func (t Type) IsLocal() bool {
	return t == Files || t.IsKV()
}

// IsKV tells if the backend is an embedded KV engine
func (t Type) IsKV() bool {
	return t == RocksDB || t == Badger
}

// IsRemote tells if the backend is a remote bucket
func (t Type) IsRemote() bool {
	return t == Manifold || t == GCS
}

func (t Type) String() string {
	return string(t)
}

// Set implements pflag.Value
func (t *Type) Set(s string) error {
	parsed, err := ParseType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Type implements pflag.Value
func (t *Type) Type() string {
	return typeNames()
}
