// Copyright © 2018 One Concern

package cmd

import (
	"fmt"
	"os"

	"github.com/oneconcern/blobimport/pkg/blobstore"
	"github.com/oneconcern/blobimport/pkg/importer"
	"github.com/oneconcern/blobimport/pkg/source/histdump"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func newImportCmd() *cobra.Command {
	importCmd := &cobra.Command{
		Use:   "import <input repo> [<output>]",
		Short: "Import a repository into a blob store",
		Long: `Import the history of the repository at <input repo> into a blob store.

Local blob stores (files, rocksdb, badger) are created under <output>/blobs.
Branch heads are written under <output>/heads, and linknodes under
<output>/linknodes when --linknodes is set. Without an output path, heads are
only kept in memory.

The import may be run again after a failure: blobs are content-addressed and
rewriting them is harmless.
`,
		Example: `blobimport import ./repo ./out --blobstore rocksdb --postpone-compaction --linknodes
blobimport import ./repo --blobstore manifold --bucket mononoke_prod --max-blob-size 10MB`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, output := args[0], ""
			if len(args) > 1 {
				output = args[1]
			}
			return runImport(cmd, input, output)
		},
	}

	requireFlags(importCmd, addBlobstoreFlag(importCmd, blobstore.Types()...))
	addBucketFlag(importCmd)
	addS3EndpointFlag(importCmd)
	addS3RegionFlag(importCmd)
	addLinknodesFlag(importCmd)
	addChannelSizeFlag(importCmd)
	addSkipFlag(importCmd)
	addCommitsLimitFlag(importCmd)
	addWorkersFlag(importCmd)
	addMaxBlobSizeFlag(importCmd)
	addPostponeCompactionFlag(importCmd)
	addPortFlag(importCmd)

	return importCmd
}

func checkInput(input string) error {
	info, err := os.Stat(input)
	if err != nil {
		return fmt.Errorf("input repo: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("input repo %s is not a directory", input)
	}
	return nil
}

func runImport(cmd *cobra.Command, input, output string) (err error) {
	ctx := cmd.Context()
	f := blobimportFlags
	kind := f.store.kind
	l := logger.With(zap.Stringer("blobstore_type", kind))

	if err = checkInput(input); err != nil {
		return err
	}
	if (kind.IsLocal() || f.importer.linknodes) && output == "" {
		return errNoOutput
	}
	if f.importer.postponeCompaction && !kind.IsKV() {
		l.Warn("--postpone-compaction only applies to embedded KV blob stores: ignored")
	}

	src, err := histdump.Open(afero.NewOsFs(), input)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	if f.importer.port > 0 {
		_, stop, e := serveMetrics(f.importer.port, reg, l)
		if e != nil {
			return e
		}
		defer stop()
	}

	var opened closers
	defer func() {
		err = multierr.Append(err, opened.Close())
	}()

	store, err := openBlobstore(ctx, kind, output, &opened, l)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed(maxBlobSizeFlag) {
		store = blobstore.Limited(store, int(f.importer.maxBlobSize))
	}
	store = blobstore.Instrument(opentracing.GlobalTracer(), l, store)

	h, err := openHeads(output)
	if err != nil {
		return err
	}
	links, err := openLinknodes(output, f.importer.linknodes, &opened, l)
	if err != nil {
		return err
	}

	result, err := importer.Run(ctx, src, store,
		importer.ChannelSize(f.importer.channelSize),
		importer.Skip(f.importer.skip),
		importer.Limit(f.importer.commitsLimit),
		importer.Workers(f.importer.workers),
		importer.Heads(h),
		importer.Linknodes(links),
		importer.Registry(reg),
		importer.Logger(l),
	)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d changesets (%d blobs written, %d duplicates, %d heads)\n",
		result.Changesets, result.Successes, result.Duplicates, result.Heads)

	if f.importer.postponeCompaction && kind.IsKV() {
		l.Info("compacting blob store")
		if err = store.(blobstore.Compactor).Compact(ctx); err != nil {
			return fmt.Errorf("compact: %w", err)
		}
	}
	return nil
}
