// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/oneconcern/blobimport/pkg/blobstore"
	"github.com/oneconcern/blobimport/pkg/blobstore/fileblob"
	"github.com/oneconcern/blobimport/pkg/blobstore/gcsblob"
	"github.com/oneconcern/blobimport/pkg/blobstore/kvblob"
	"github.com/oneconcern/blobimport/pkg/blobstore/s3blob"
	"github.com/oneconcern/blobimport/pkg/heads"
	"github.com/oneconcern/blobimport/pkg/linknodes"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// blobsDir is the subtree of the output root holding local blob stores
const blobsDir = "blobs"

var errNoOutput = errors.New("output path is not specified")

// closers are closed in reverse order of opening
type closers []io.Closer

func (c *closers) add(closer io.Closer) {
	*c = append(*c, closer)
}

func (c closers) Close() error {
	var err error
	for i := len(c) - 1; i >= 0; i-- {
		err = multierr.Append(err, c[i].Close())
	}
	return err
}

func openKV(kind blobstore.Type, pth string, opts ...kvblob.Option) (*kvblob.Store, error) {
	switch kind {
	case blobstore.RocksDB:
		return kvblob.OpenPebble(pth, opts...)
	case blobstore.Badger:
		return kvblob.OpenBadger(pth, opts...)
	default:
		return nil, fmt.Errorf("%s is not an embedded KV blob store", kind)
	}
}

// openBlobstore opens the selected backend. Local backends live under <output>/blobs.
func openBlobstore(ctx context.Context, kind blobstore.Type, output string, c *closers, l *zap.Logger) (blobstore.Blobstore, error) {
	if kind.IsLocal() && output == "" {
		return nil, errNoOutput
	}
	pth := filepath.Join(output, blobsDir)
	f := blobimportFlags.store

	switch kind {
	case blobstore.Files:
		return fileblob.Create(pth)

	case blobstore.RocksDB, blobstore.Badger:
		s, err := openKV(kind, pth,
			kvblob.PostponeCompaction(blobimportFlags.importer.postponeCompaction),
			kvblob.Logger(l),
		)
		if err != nil {
			return nil, err
		}
		c.add(s)
		return s, nil

	case blobstore.Manifold:
		return s3blob.New(f.bucket,
			s3blob.Region(f.s3Region),
			s3blob.Endpoint(f.s3Endpoint),
			s3blob.Logger(l),
		)

	case blobstore.GCS:
		s, err := gcsblob.New(ctx, f.bucket, gcsblob.Logger(l))
		if err != nil {
			return nil, err
		}
		c.add(s)
		return s, nil

	default:
		return nil, fmt.Errorf("a blob store is required, expected one of: %v", blobstore.Types())
	}
}

// openHeads persists heads under the output path, if any
func openHeads(output string) (heads.Heads, error) {
	if output == "" {
		return heads.NewMem(), nil
	}
	h, err := heads.Create(output)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// openLinknodes persists linknodes under the output path when enabled
func openLinknodes(output string, enabled bool, c *closers, l *zap.Logger) (linknodes.Linknodes, error) {
	if !enabled {
		return linknodes.Noop(), nil
	}
	if output == "" {
		return nil, errNoOutput
	}
	s, err := linknodes.Open(output, linknodes.Logger(l))
	if err != nil {
		return nil, err
	}
	c.add(s)
	return linknodes.Share(s), nil
}
