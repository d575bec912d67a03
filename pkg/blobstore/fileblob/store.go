// Copyright © 2018 One Concern

// Package fileblob stores one file per blob under a root directory.
package fileblob

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/oneconcern/blobimport/pkg/blobstore"
	"github.com/oneconcern/blobimport/pkg/blobstore/status"
	"github.com/spf13/afero"
)

const (
	blobPrefix = "blob-"

	// staging area for puts, renamed into place once complete
	putStageName = ".put-stage"
)

// Create a file blob store rooted at pth on the local file system.
// The directory is created if missing.
func Create(pth string) (blobstore.Blobstore, error) {
	if err := os.MkdirAll(pth, 0700); err != nil {
		return nil, fmt.Errorf("ensuring blob directory %q: %w", pth, err)
	}
	return New(afero.NewBasePathFs(afero.NewOsFs(), pth))
}

// New creates a blob store on top of some file system.
//
// Puts are atomic: blobs are written to a staging area then renamed into
// place, so that concurrent readers never see a partially written blob.
func New(fs afero.Fs) (blobstore.Blobstore, error) {
	if err := fs.MkdirAll(putStageName, 0700); err != nil {
		return nil, fmt.Errorf("ensuring put staging directory for %q: %w", putStageName, err)
	}
	return &fileStore{fs: fs}, nil
}

type fileStore struct {
	fs afero.Fs
}

// keyPath maps a key to a file name. Keys are percent-encoded so that they
// never traverse directories.
func keyPath(key string) (string, error) {
	if key == "" {
		return "", status.ErrInvalidKey.Wrap(fmt.Errorf("empty key"))
	}
	return blobPrefix + url.PathEscape(key), nil
}

func (f *fileStore) Get(_ context.Context, key string) ([]byte, error) {
	pth, err := keyPath(key)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(f.fs, pth)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, status.ErrNotExists.Wrap(err)
		}
		return nil, fmt.Errorf("read blob %q: %w", key, err)
	}
	return data, nil
}

func (f *fileStore) Put(_ context.Context, key string, value []byte) error {
	pth, err := keyPath(key)
	if err != nil {
		return err
	}

	staged, err := afero.TempFile(f.fs, putStageName, pth+".*")
	if err != nil {
		return fmt.Errorf("create staged record for %q: %w", key, err)
	}
	stagedName := staged.Name()

	if _, err = staged.Write(value); err != nil {
		_ = staged.Close()
		_ = f.fs.Remove(stagedName)
		return fmt.Errorf("write record for %q: %w", key, err)
	}
	if err = staged.Sync(); err != nil {
		_ = staged.Close()
		_ = f.fs.Remove(stagedName)
		return fmt.Errorf("sync record for %q: %w", key, err)
	}
	if err = staged.Close(); err != nil {
		_ = f.fs.Remove(stagedName)
		return fmt.Errorf("close record for %q: %w", key, err)
	}

	if err = f.fs.Rename(stagedName, pth); err != nil {
		_ = f.fs.Remove(stagedName)
		return fmt.Errorf("rename record for %q: %w", key, err)
	}
	return nil
}

// Keys lists the keys of all stored blobs
func (f *fileStore) Keys(_ context.Context) ([]string, error) {
	infos, err := afero.ReadDir(f.fs, ".")
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(infos))
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || !strings.HasPrefix(name, blobPrefix) {
			continue
		}
		key, err := url.PathUnescape(strings.TrimPrefix(name, blobPrefix))
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (f *fileStore) String() string {
	const fileblob = "fileblob"
	switch fs := f.fs.(type) {
	case *afero.BasePathFs:
		pp, err := fs.RealPath("")
		if err != nil {
			return fileblob
		}
		return fileblob + "@" + pp
	default:
		return fileblob
	}
}
