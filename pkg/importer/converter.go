// Copyright © 2018 One Concern

package importer

import (
	"context"
	"fmt"

	"github.com/oneconcern/blobimport/pkg/heads"
	"github.com/oneconcern/blobimport/pkg/linknodes"
	"github.com/oneconcern/blobimport/pkg/model"
	"github.com/oneconcern/blobimport/pkg/source"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// converter walks the source in commit order and feeds the import channel.
//
// Changesets are loaded by a pool of workers, but their work items are
// emitted in commit order. Head and linknode records are written by the
// emitting goroutine. Every tip reported by the source is recorded as a head,
// including several tips on one branch.
type converter struct {
	src       source.Source
	heads     heads.Heads
	linknodes linknodes.Linknodes
	stats     *Stats
	l         *zap.Logger
	skip      int
	limit     int
	workers   int
}

type converted struct {
	id      model.NodeHash
	cs      *model.Changeset
	entries []model.Entry
	keys    []string
	err     error
}

// window applies skip and limit to the changesets in commit order. A negative limit means no limit.
func window(ids []model.NodeHash, skip, limit int) []model.NodeHash {
	if skip >= len(ids) {
		return nil
	}
	if skip > 0 {
		ids = ids[skip:]
	}
	if limit >= 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	return ids
}

func (c *converter) run(ctx context.Context, out *Channel) error {
	defer out.Close()

	ids, err := c.src.Changesets(ctx)
	if err != nil {
		return fmt.Errorf("list changesets: %w", err)
	}
	tips, err := c.src.Heads(ctx)
	if err != nil {
		return fmt.Errorf("list heads: %w", err)
	}
	isHead := make(map[model.NodeHash]bool, len(tips))
	for _, tip := range tips {
		isHead[tip] = true
	}

	ids = window(ids, c.skip, c.limit)
	c.l.Info("converting changesets", zap.Int("changesets", len(ids)), zap.Int("workers", c.workers))

	g, gctx := errgroup.WithContext(ctx)
	pending := make(chan chan converted, c.workers)

	// emit results in commit order
	g.Go(func() error {
		for res := range pending {
			r := <-res
			if r.err != nil {
				return fmt.Errorf("convert changeset %s: %w", r.id, r.err)
			}
			if err := c.emit(gctx, out, r, isHead[r.id]); err != nil {
				return fmt.Errorf("convert changeset %s: %w", r.id, err)
			}
		}
		return nil
	})

	// load changesets concurrently
	g.Go(func() error {
		defer close(pending)

		workers, wctx := errgroup.WithContext(gctx)
		workers.SetLimit(c.workers)
		for _, id := range ids {
			res := make(chan converted, 1)
			select {
			case pending <- res:
			case <-gctx.Done():
				_ = workers.Wait()
				return gctx.Err()
			}

			workers.Go(func() error {
				res <- c.load(wctx, id)
				return nil
			})
		}
		return workers.Wait()
	})

	return g.Wait()
}

func (c *converter) load(ctx context.Context, id model.NodeHash) converted {
	r := converted{id: id}
	if err := ctx.Err(); err != nil {
		r.err = err
		return r
	}

	r.cs, r.entries, r.err = c.src.Changeset(ctx, id)
	if r.err != nil {
		return r
	}
	if r.cs == nil {
		r.err = fmt.Errorf("source returned no changeset")
		return r
	}
	if r.cs.ID != id {
		r.err = fmt.Errorf("source returned changeset %s", r.cs.ID)
		return r
	}
	if computed := r.cs.ComputeID(); computed != id {
		r.err = fmt.Errorf("changeset content hashes to %s", computed)
		return r
	}

	r.keys = make([]string, len(r.entries))
	for i, e := range r.entries {
		r.keys[i] = e.Key()
	}
	return r
}

func (c *converter) emit(ctx context.Context, out *Channel, r converted, isHead bool) error {
	c.l.Debug("emitting changeset", zap.Stringer("changeset", r.id), zap.Int("entries", len(r.entries)))

	if err := out.Send(ctx, NewChangesetItem(r.cs)); err != nil {
		return err
	}
	c.stats.changesets.Inc()

	for i, e := range r.entries {
		if err := out.Send(ctx, NewBlobItem(r.keys[i], e.Data)); err != nil {
			return err
		}
		if !e.IntroducedBy(r.id) {
			continue
		}
		if err := c.linknodes.Add(ctx, e.Path, e.Node, r.id); err != nil {
			return fmt.Errorf("add linknode for %s: %w", e.Path, err)
		}
	}

	if isHead {
		if err := c.heads.Add(ctx, r.id, r.cs.Branch()); err != nil {
			return fmt.Errorf("add head: %w", err)
		}
		c.stats.heads.Inc()
	}
	return nil
}
