// Copyright © 2018 One Concern

package importer

import (
	"context"
	"fmt"
	"sync"

	"github.com/oneconcern/blobimport/pkg/blobstore"
	"go.uber.org/zap"
)

// consumer drains the import channel into the blob store.
//
// It is run by a single goroutine which owns the set of seen blob keys.
// Writes are dispatched concurrently, with at most maxInFlight pending writes.
type consumer struct {
	store       blobstore.Blobstore
	stats       *Stats
	l           *zap.Logger
	maxInFlight int
	seen        map[string]struct{}
}

func newConsumer(store blobstore.Blobstore, stats *Stats, l *zap.Logger, maxInFlight int) *consumer {
	if maxInFlight < 1 {
		maxInFlight = 1
	}
	return &consumer{
		store:       store,
		stats:       stats,
		l:           l,
		maxInFlight: maxInFlight,
		seen:        make(map[string]struct{}),
	}
}

// firstError keeps the first write failure and signals it once
type firstError struct {
	once   sync.Once
	err    error
	failed chan struct{}
	stop   context.CancelFunc
}

func (f *firstError) set(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.failed)
		f.stop()
	})
}

func (c *consumer) run(ctx context.Context, in *Channel) error {
	var wg sync.WaitGroup
	inFlight := make(chan struct{}, c.maxInFlight)
	// receiving stops on the first failure, in-flight writes keep ctx
	rctx, stop := context.WithCancel(ctx)
	defer stop()
	first := &firstError{failed: make(chan struct{}), stop: stop}

	err := c.dispatch(ctx, rctx, in, &wg, inFlight, first)
	wg.Wait()

	if first.err != nil {
		return first.err
	}
	return err
}

func (c *consumer) dispatch(ctx, rctx context.Context, in *Channel, wg *sync.WaitGroup, inFlight chan struct{}, first *firstError) error {
	for {
		item, ok, err := in.Receive(rctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		if item.Kind == BlobItem {
			if _, dup := c.seen[item.Key]; dup {
				c.stats.duplicates.Inc()
				continue
			}
			c.seen[item.Key] = struct{}{}
		}

		select {
		case inFlight <- struct{}{}:
		case <-first.failed:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}

		// stop issuing writes after the first failure
		select {
		case <-first.failed:
			<-inFlight
			return nil
		default:
		}

		wg.Add(1)
		go func() {
			defer func() {
				<-inFlight
				wg.Done()
			}()

			if err := c.write(ctx, item); err != nil {
				c.stats.failures.Inc()
				c.l.Debug("write failed", zap.String("key", item.Key), zap.Error(err))
				first.set(err)
				return
			}
			c.stats.successes.Inc()
		}()
	}
}

func (c *consumer) write(ctx context.Context, item WorkItem) error {
	payload, err := item.payload()
	if err != nil {
		return err
	}
	if err := c.store.Put(ctx, item.Key, payload); err != nil {
		return fmt.Errorf("put %q: %w", item.Key, err)
	}
	return nil
}
