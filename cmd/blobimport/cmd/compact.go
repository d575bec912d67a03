// Copyright © 2018 One Concern

package cmd

import (
	"path/filepath"

	"github.com/oneconcern/blobimport/pkg/blobstore"
	"github.com/oneconcern/blobimport/pkg/blobstore/kvblob"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func newCompactCmd() *cobra.Command {
	compactCmd := &cobra.Command{
		Use:   "compact <output>",
		Short: "Compact the embedded KV blob store of a previous import",
		Long: `Compact the rocksdb or badger blob store found under <output>/blobs.

This is the maintenance pass run by "import --postpone-compaction" once the import is done.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			kind := blobimportFlags.store.kind
			pth := filepath.Join(args[0], blobsDir)
			l := logger.With(zap.Stringer("blobstore_type", kind), zap.String("path", pth))

			s, err := openKV(kind, pth, kvblob.CreateIfMissing(false), kvblob.Logger(l))
			if err != nil {
				return err
			}
			defer func() {
				err = multierr.Append(err, s.Close())
			}()

			l.Info("compacting blob store")
			return s.Compact(cmd.Context())
		},
	}

	requireFlags(compactCmd, addBlobstoreFlag(compactCmd, blobstore.RocksDB, blobstore.Badger))
	return compactCmd
}
