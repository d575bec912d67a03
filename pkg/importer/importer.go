// Copyright © 2018 One Concern

// Package importer converts the history of a repository into blob store writes.
//
// A converter loads changesets from a source and emits work items into a
// bounded channel. A single consumer writes them to the blob store,
// skipping manifest and file blobs already written during the run.
//
// Blob keys are content-derived and writes are idempotent: a failed import is
// recovered by running it again.
package importer

import (
	"context"
	"time"

	"github.com/oneconcern/blobimport/pkg/blobstore"
	"github.com/oneconcern/blobimport/pkg/source"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Run an import of src into store.
//
// The first error stops the run: no new writes are issued, in-flight writes
// complete, and the error is returned along with the statistics gathered so far.
func Run(ctx context.Context, src source.Source, store blobstore.Blobstore, opts ...Option) (Result, error) {
	o := defaultOptions()
	for _, apply := range opts {
		apply(o)
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
	}

	stats, err := NewStats(o.registry)
	if err != nil {
		return Result{}, err
	}

	l := o.l.With(zap.Stringer("blobstore", store))
	ch := NewChannel(o.channelSize)
	conv := &converter{
		src:       src,
		heads:     o.heads,
		linknodes: o.linknodes,
		stats:     stats,
		l:         l,
		skip:      o.skip,
		limit:     o.limit,
		workers:   o.workers,
	}
	cons := newConsumer(store, stats, l, ch.Cap())

	start := time.Now()
	l.Info("import started", zap.Int("channel_size", ch.Cap()), zap.Int("skip", o.skip), zap.Int("limit", o.limit))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return conv.run(gctx, ch)
	})
	g.Go(func() error {
		return cons.run(gctx, ch)
	})
	err = g.Wait()

	result := stats.Result()
	if err != nil {
		l.Error("import failed", append(result.Fields(), zap.Error(err))...)
		return result, err
	}
	l.Info("import done", append(result.Fields(), zap.Duration("elapsed", time.Since(start)))...)
	return result, nil
}
