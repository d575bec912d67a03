// Copyright © 2018 One Concern

// Package bookmarks reads the bookmarks of a stock mercurial repository from
// .hg/bookmarks.
//
// The file holds one entry per line:
//
//	<hash1> <bookmark1-name>
//	<hash2> <bookmark2-name>
//
// Bookmark names are arbitrary byte strings and hashes are always node hashes.
// Writing is not supported, since it would require taking part in mercurial's
// locking protocol.
package bookmarks

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/oneconcern/blobimport/pkg/model"
	"github.com/spf13/afero"
)

const (
	// File is the name of the bookmarks file in a .hg directory
	File = "bookmarks"

	// a line is <hash><space><name> with a name of at least one byte
	minLineSize = model.NodeHashSizeHex + 2
)

// Version of a bookmark. Stock bookmarks are not versioned and always report CurrentVersion.
type Version uint64

// CurrentVersion is the version reported for every stock bookmark
const CurrentVersion Version = 1

// InvalidBookmarkLineError reports a line which does not have the <hash> <name> layout
type InvalidBookmarkLineError struct {
	Line string
}

func (e *InvalidBookmarkLineError) Error() string {
	return "invalid bookmarks line: " + e.Line
}

// InvalidHashError reports a hash field which is not an hexadecimal node hash
type InvalidHashError struct {
	Hash string
	Err  error
}

func (e *InvalidHashError) Error() string {
	return "invalid hash: " + e.Hash
}

func (e *InvalidHashError) Unwrap() error {
	return e.Err
}

// Bookmarks is a read-only set of bookmarks
type Bookmarks struct {
	bookmarks map[string]model.NodeHash
}

// Read the bookmarks file in the base directory (usually .hg).
//
// A missing file holds no bookmarks.
func Read(fs afero.Fs, base string) (*Bookmarks, error) {
	file, err := fs.Open(filepath.Join(base, File))
	if err != nil {
		if os.IsNotExist(err) {
			return &Bookmarks{bookmarks: make(map[string]model.NodeHash)}, nil
		}
		return nil, err
	}
	defer func() {
		_ = file.Close()
	}()

	return FromReader(file)
}

// FromReader parses bookmarks.
//
// Lines are split on line feeds only: names may hold any byte, including carriage returns.
func FromReader(r io.Reader) (*Bookmarks, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	b := &Bookmarks{bookmarks: make(map[string]model.NodeHash)}
	if len(data) == 0 {
		return b, nil
	}

	lines := bytes.Split(data, []byte{'\n'})
	if len(lines[len(lines)-1]) == 0 {
		lines = lines[:len(lines)-1]
	}

	for _, line := range lines {
		if len(line) < minLineSize || line[model.NodeHashSizeHex] != ' ' {
			return nil, &InvalidBookmarkLineError{Line: lossy(line)}
		}

		hashField := line[:model.NodeHashSizeHex]
		if !isASCII(hashField) {
			return nil, &InvalidHashError{Hash: lossy(hashField), Err: fmt.Errorf("hash is not ASCII")}
		}
		hash, err := model.NodeHashFromHex(string(hashField))
		if err != nil {
			return nil, &InvalidHashError{Hash: lossy(hashField), Err: err}
		}

		b.bookmarks[string(line[model.NodeHashSizeHex+1:])] = hash
	}

	return b, nil
}

// Get the target of a bookmark
func (b *Bookmarks) Get(name string) (model.NodeHash, Version, bool) {
	hash, ok := b.bookmarks[name]
	if !ok {
		return model.NullHash, 0, false
	}
	return hash, CurrentVersion, true
}

// Keys returns the names of all bookmarks, in no particular order
func (b *Bookmarks) Keys() []string {
	keys := make([]string, 0, len(b.bookmarks))
	for k := range b.bookmarks {
		keys = append(keys, k)
	}
	return keys
}

// Len is the number of bookmarks
func (b *Bookmarks) Len() int {
	return len(b.bookmarks)
}

func isASCII(s []byte) bool {
	for _, c := range s {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func lossy(s []byte) string {
	return strings.ToValidUTF8(string(s), "�")
}
