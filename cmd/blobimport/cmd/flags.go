// Copyright © 2018 One Concern

package cmd

import (
	"fmt"
	"strconv"

	units "github.com/docker/go-units"
	"github.com/oneconcern/blobimport/pkg/blobstore"
	"github.com/oneconcern/blobimport/pkg/dlogger"
	"github.com/oneconcern/blobimport/pkg/importer"
	"github.com/spf13/cobra"
)

const defaultBucket = "mononoke_prod"

type flagsT struct {
	root struct {
		logLevel string
		debug    bool
	}
	store struct {
		kind       blobstore.Type
		bucket     string
		s3Endpoint string
		s3Region   string
	}
	importer struct {
		linknodes          bool
		channelSize        int
		skip               int
		commitsLimit       int
		workers            int
		maxBlobSize        byteSize
		postponeCompaction bool
		port               int
	}
}

var blobimportFlags = flagsT{}

// byteSize accepts a number of bytes or a human readable size such as 10MB
type byteSize int64

func (b *byteSize) Set(s string) error {
	size, err := units.RAMInBytes(s)
	if err != nil {
		return err
	}
	if size < 0 {
		return fmt.Errorf("invalid negative size %q", s)
	}
	*b = byteSize(size)
	return nil
}

func (b *byteSize) String() string {
	return strconv.FormatInt(int64(*b), 10)
}

func (b *byteSize) Type() string {
	return "size"
}

func addLogLevelFlag(cmd *cobra.Command) string {
	loglevel := "loglevel"
	cmd.PersistentFlags().StringVar(&blobimportFlags.root.logLevel, loglevel, dlogger.LogLevelInfo,
		"The logging level. Levels by increasing order of verbosity: none, error, warn, info, debug")
	return loglevel
}

func addDebugFlag(cmd *cobra.Command) string {
	debug := "debug"
	cmd.PersistentFlags().BoolVar(&blobimportFlags.root.debug, debug, false, "Shorthand for --loglevel debug")
	return debug
}

func addBlobstoreFlag(cmd *cobra.Command, types ...blobstore.Type) string {
	kind := "blobstore"
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, t.String())
	}
	cmd.Flags().Var(&blobimportFlags.store.kind, kind, fmt.Sprintf("The blob store backend %v", names))
	return kind
}

func addBucketFlag(cmd *cobra.Command) string {
	bucket := "bucket"
	cmd.Flags().StringVar(&blobimportFlags.store.bucket, bucket, defaultBucket, "The bucket of a remote blob store (manifold, gcs)")
	return bucket
}

func addS3EndpointFlag(cmd *cobra.Command) string {
	endpoint := "s3-endpoint"
	cmd.Flags().StringVar(&blobimportFlags.store.s3Endpoint, endpoint, "", "The endpoint of an S3 compatible service for the manifold blob store")
	return endpoint
}

func addS3RegionFlag(cmd *cobra.Command) string {
	region := "s3-region"
	cmd.Flags().StringVar(&blobimportFlags.store.s3Region, region, "", "The AWS region of the manifold blob store")
	return region
}

func addLinknodesFlag(cmd *cobra.Command) string {
	linknodes := "linknodes"
	cmd.Flags().BoolVar(&blobimportFlags.importer.linknodes, linknodes, false, "Generate linknodes under the output path")
	return linknodes
}

func addChannelSizeFlag(cmd *cobra.Command) string {
	size := "channel-size"
	cmd.Flags().IntVar(&blobimportFlags.importer.channelSize, size, importer.DefaultChannelSize,
		"The capacity of the import channel, which also bounds the number of concurrent writes")
	return size
}

func addSkipFlag(cmd *cobra.Command) string {
	skip := "skip"
	cmd.Flags().IntVar(&blobimportFlags.importer.skip, skip, 0, "The number of leading changesets to skip")
	return skip
}

func addCommitsLimitFlag(cmd *cobra.Command) string {
	limit := "commits-limit"
	cmd.Flags().IntVar(&blobimportFlags.importer.commitsLimit, limit, -1, "The maximum number of changesets to import (-1: all)")
	return limit
}

func addWorkersFlag(cmd *cobra.Command) string {
	workers := "workers"
	cmd.Flags().IntVar(&blobimportFlags.importer.workers, workers, 0, "The number of changesets loaded concurrently (0: number of CPUs)")
	return workers
}

const maxBlobSizeFlag = "max-blob-size"

func addMaxBlobSizeFlag(cmd *cobra.Command) string {
	cmd.Flags().Var(&blobimportFlags.importer.maxBlobSize, maxBlobSizeFlag,
		"Silently drop blobs of this size or larger, e.g. 10MB. Without this flag, blobs of any size are written")
	return maxBlobSizeFlag
}

func addPostponeCompactionFlag(cmd *cobra.Command) string {
	postpone := "postpone-compaction"
	cmd.Flags().BoolVar(&blobimportFlags.importer.postponeCompaction, postpone, false,
		"Disable background compaction of an embedded KV blob store during the import, and compact once done")
	return postpone
}

func addPortFlag(cmd *cobra.Command) string {
	port := "port"
	cmd.Flags().IntVar(&blobimportFlags.importer.port, port, 0, "Serve metrics on this port while importing (0: disabled)")
	return port
}

func requireFlags(cmd *cobra.Command, flags ...string) {
	for _, flag := range flags {
		if err := cmd.MarkFlagRequired(flag); err != nil {
			panic(fmt.Sprintf("error attempting to mark the required flag %q: %v", flag, err))
		}
	}
}
