// Copyright © 2018 One Concern

package heads

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oneconcern/blobimport/pkg/model"
	"github.com/spf13/afero"
)

const (
	// Dir is the subtree of the output root where heads are kept
	Dir = "heads"

	headPrefix = "head-"
)

// Create a file heads store under <root>/heads
func Create(root string) (*File, error) {
	pth := filepath.Join(root, Dir)
	if err := os.MkdirAll(pth, 0o700); err != nil {
		return nil, fmt.Errorf("create heads directory %q: %w", pth, err)
	}
	return NewFile(afero.NewBasePathFs(afero.NewOsFs(), pth)), nil
}

// NewFile builds a heads store with one file per head at the root of fs.
//
// A head file is named after the hex node hash and holds the branch name
// followed by a new line.
func NewFile(fs afero.Fs) *File {
	return &File{fs: fs}
}

// File stores heads as files
type File struct {
	fs afero.Fs
}

func headFile(head model.NodeHash) string {
	return headPrefix + head.String()
}

// Add records head as a tip of branch
func (f *File) Add(_ context.Context, head model.NodeHash, branch string) error {
	tmp, err := afero.TempFile(f.fs, ".", ".head-")
	if err != nil {
		return fmt.Errorf("stage head %s: %w", head, err)
	}
	staged := tmp.Name()
	defer func() {
		_ = f.fs.Remove(staged)
	}()

	if _, err = tmp.WriteString(branch + "\n"); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write head %s: %w", head, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("write head %s: %w", head, err)
	}
	if err = f.fs.Rename(staged, headFile(head)); err != nil {
		return fmt.Errorf("commit head %s: %w", head, err)
	}
	return nil
}

// Get the branch of a head
func (f *File) Get(_ context.Context, head model.NodeHash) (string, error) {
	data, err := afero.ReadFile(f.fs, headFile(head))
	if err != nil {
		if os.IsNotExist(err) {
			return "", notFound(head)
		}
		return "", fmt.Errorf("read head %s: %w", head, err)
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}

// List all heads, sorted by hash
func (f *File) List(context.Context) ([]model.NodeHash, error) {
	infos, err := afero.ReadDir(f.fs, ".")
	if err != nil {
		return nil, fmt.Errorf("list heads: %w", err)
	}
	hashes := make([]model.NodeHash, 0, len(infos))
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || !strings.HasPrefix(name, headPrefix) {
			continue
		}
		head, err := model.NodeHashFromHex(strings.TrimPrefix(name, headPrefix))
		if err != nil {
			continue
		}
		hashes = append(hashes, head)
	}
	sortHashes(hashes)
	return hashes, nil
}
