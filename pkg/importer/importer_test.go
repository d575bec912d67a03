// Copyright © 2018 One Concern

package importer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/oneconcern/blobimport/pkg/blobstore"
	"github.com/oneconcern/blobimport/pkg/blobstore/fileblob"
	"github.com/oneconcern/blobimport/pkg/blobstore/memblob"
	"github.com/oneconcern/blobimport/pkg/heads"
	"github.com/oneconcern/blobimport/pkg/linknodes"
	"github.com/oneconcern/blobimport/pkg/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

type keyLister interface {
	Keys(context.Context) ([]string, error)
}

func TestRunEndToEnd(t *testing.T) {
	ctx := context.Background()
	src, manifest := sharedManifestHistory()

	store, err := fileblob.New(afero.NewMemMapFs())
	require.NoError(t, err)
	h := heads.NewMem()
	links := linknodes.NewMem()
	reg := prometheus.NewRegistry()

	result, err := Run(ctx, src, store, Heads(h), Linknodes(links), Registry(reg), Workers(2))
	require.NoError(t, err)

	keys, err := store.(keyLister).Keys(ctx)
	require.NoError(t, err)

	var changesets, contents []string
	for _, k := range keys {
		if strings.HasPrefix(k, "changeset-") {
			changesets = append(changesets, k)
			continue
		}
		contents = append(contents, k)
	}
	assert.Len(t, changesets, 2)
	assert.Len(t, contents, 3)
	assert.Contains(t, contents, manifest.Key())

	assert.Equal(t, Result{Changesets: 2, Heads: 1, Duplicates: 1, Successes: 5}, result)
	const expectedDuplicates = `
# HELP blobimport_duplicate_blobs_total Number of manifest or file blobs skipped because their key was already written.
# TYPE blobimport_duplicate_blobs_total counter
blobimport_duplicate_blobs_total 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expectedDuplicates), "blobimport_duplicate_blobs_total"))

	t.Run("should store decodable changesets", func(t *testing.T) {
		for _, id := range src.order {
			data, err := store.Get(ctx, model.ChangesetKey(id))
			require.NoError(t, err)
			cs, err := model.DecodeChangeset(data)
			require.NoError(t, err)
			assert.Equal(t, id, cs.ID)
			assert.Equal(t, id, cs.ComputeID())
		}
	})

	t.Run("should record heads and linknodes", func(t *testing.T) {
		branch, err := h.Get(ctx, src.order[1])
		require.NoError(t, err)
		assert.Equal(t, model.DefaultBranch, branch)
		assert.Equal(t, 1, h.Len())

		// the shared manifest is introduced once, then each file
		assert.Equal(t, 3, links.Len())
		linknode, err := links.Get(ctx, manifest.Path, manifest.Node)
		require.NoError(t, err)
		assert.Equal(t, src.order[0], linknode)
	})

	t.Run("should be idempotent", func(t *testing.T) {
		again, err := Run(ctx, src, store, Heads(h), Linknodes(links))
		require.NoError(t, err)
		assert.Equal(t, result, again)

		keys, err := store.(keyLister).Keys(ctx)
		require.NoError(t, err)
		assert.Len(t, keys, 5)
	})
}

func TestRunSeveralHeadsOnBranch(t *testing.T) {
	ctx := context.Background()
	src := forkedHistory()

	for _, toPin := range []struct {
		name  string
		heads func() heads.Heads
	}{
		{name: "mem", heads: func() heads.Heads { return heads.NewMem() }},
		{name: "file", heads: func() heads.Heads { return heads.NewFile(afero.NewMemMapFs()) }},
	} {
		fixture := toPin
		t.Run(fixture.name, func(t *testing.T) {
			h := fixture.heads()
			result, err := Run(ctx, src, memblob.New(), Heads(h))
			require.NoError(t, err)

			stored, err := h.List(ctx)
			require.NoError(t, err)
			assert.ElementsMatch(t, src.heads, stored)
			assert.Equal(t, int64(len(stored)), result.Heads)

			for _, tip := range src.heads {
				branch, err := h.Get(ctx, tip)
				require.NoError(t, err)
				assert.Equal(t, model.DefaultBranch, branch)
			}
		})
	}
}

func TestRunDedup(t *testing.T) {
	src, manifest := sharedManifestHistory()
	store := memblob.New()

	result, err := Run(context.Background(), src, store, ChannelSize(1))
	require.NoError(t, err)

	assert.Equal(t, 1, store.Puts(manifest.Key()))
	assert.Equal(t, int64(1), result.Duplicates)
	for _, id := range src.order {
		assert.Equal(t, 1, store.Puts(model.ChangesetKey(id)))
	}
}

func TestRunSkipLimit(t *testing.T) {
	src := longHistory(10)

	store := memblob.New()
	result, err := Run(context.Background(), src, store, Skip(3), Limit(4))
	require.NoError(t, err)
	assert.Equal(t, int64(4), result.Changesets)
	assert.Equal(t, int64(12), result.Successes)
	assert.Equal(t, int64(0), result.Heads, "the tip is out of range")

	for i, id := range src.order {
		_, err := store.Get(context.Background(), model.ChangesetKey(id))
		if i >= 3 && i < 7 {
			assert.NoError(t, err, i)
			continue
		}
		assert.Error(t, err, i)
	}

	t.Run("should skip everything", func(t *testing.T) {
		result, err := Run(context.Background(), src, memblob.New(), Skip(20))
		require.NoError(t, err)
		assert.Equal(t, Result{}, result)
	})
}

func TestWindow(t *testing.T) {
	ids := longHistory(5).order
	assert.Equal(t, ids, window(ids, 0, -1))
	assert.Equal(t, ids[2:], window(ids, 2, -1))
	assert.Equal(t, ids[1:3], window(ids, 1, 2))
	assert.Empty(t, window(ids, 0, 0))
	assert.Empty(t, window(ids, 5, 1))
	assert.Equal(t, ids, window(ids, 0, 50))
}

// slowStore records the number of concurrent puts
type slowStore struct {
	*memblob.Store
	delay    time.Duration
	inFlight atomic.Int32
	max      atomic.Int32
}

func (s *slowStore) Put(ctx context.Context, key string, value []byte) error {
	current := s.inFlight.Inc()
	defer s.inFlight.Dec()
	for {
		observed := s.max.Load()
		if current <= observed || s.max.CompareAndSwap(observed, current) {
			break
		}
	}
	time.Sleep(s.delay)
	return s.Store.Put(ctx, key, value)
}

func TestRunBackpressure(t *testing.T) {
	src := longHistory(20)
	store := &slowStore{Store: memblob.New(), delay: 5 * time.Millisecond}

	result, err := Run(context.Background(), src, store, ChannelSize(3), Workers(4))
	require.NoError(t, err)

	assert.LessOrEqual(t, store.max.Load(), int32(3))
	assert.Equal(t, int64(60), result.Successes)
	assert.Len(t, store.Keys(), 60)
	for _, k := range store.Keys() {
		assert.Equal(t, 1, store.Puts(k), k)
	}
}

// failingStore fails puts of some keys
type failingStore struct {
	*memblob.Store
	fail  func(string) bool
	calls atomic.Int64
}

func (f *failingStore) Put(ctx context.Context, key string, value []byte) error {
	f.calls.Inc()
	if f.fail(key) {
		return errBoom
	}
	return f.Store.Put(ctx, key, value)
}

func TestRunWriteFailure(t *testing.T) {
	src := longHistory(50)
	failed := model.ChangesetKey(src.order[2])
	store := &failingStore{
		Store: memblob.New(),
		fail:  func(key string) bool { return key == failed },
	}

	result, err := Run(context.Background(), src, store, ChannelSize(2))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errBoom))
	assert.Contains(t, err.Error(), failed)

	assert.Equal(t, int64(1), result.Failures)
	assert.Less(t, store.calls.Load(), int64(150), "writes should stop after the first failure")
}

func TestRunSourceFailure(t *testing.T) {
	t.Run("should tie the error to the changeset", func(t *testing.T) {
		src := longHistory(10)
		src.failOn = src.order[4]

		result, err := Run(context.Background(), src, memblob.New(), Workers(3))
		require.Error(t, err)
		assert.True(t, errors.Is(err, errBoom))
		assert.Contains(t, err.Error(), "convert changeset "+src.order[4].String())
		assert.Equal(t, int64(4), result.Changesets, "changesets are emitted in commit order")
	})

	t.Run("should reject a corrupted changeset", func(t *testing.T) {
		src := longHistory(3)
		c := src.byID[src.order[1]]
		corrupted := *c.cs
		corrupted.Message = "tampered"
		src.byID[src.order[1]] = fakeChangeset{cs: &corrupted, entries: c.entries}

		_, err := Run(context.Background(), src, memblob.New())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "hashes to")
	})

	t.Run("should reject a missing changeset", func(t *testing.T) {
		src := longHistory(3)
		src.emptyOn = src.order[1]

		_, err := Run(context.Background(), src, memblob.New())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "convert changeset "+src.order[1].String())
		assert.Contains(t, err.Error(), "no changeset")
	})

	t.Run("should fail to list changesets", func(t *testing.T) {
		src := &fakeSource{listErr: errBoom}
		_, err := Run(context.Background(), src, memblob.New())
		assert.True(t, errors.Is(err, errBoom))
	})
}

func TestRunConflictingLinknode(t *testing.T) {
	src, manifest := sharedManifestHistory()
	links := linknodes.NewMem()
	require.NoError(t, links.Add(context.Background(), manifest.Path, manifest.Node, model.NullHash))

	_, err := Run(context.Background(), src, memblob.New(), Linknodes(linknodes.Share(links)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, linknodes.ErrAlreadyExists))
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, longHistory(10), memblob.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRunDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := Run(context.Background(), longHistory(1), memblob.New(), Registry(reg))
	require.NoError(t, err)

	_, err = Run(context.Background(), longHistory(1), memblob.New(), Registry(reg))
	require.Error(t, err)
}

func TestChannelBackpressure(t *testing.T) {
	ctx := context.Background()
	ch := NewChannel(3)
	for i := 0; i < 3; i++ {
		require.NoError(t, ch.Send(ctx, NewBlobItem(string(rune('a'+i)), nil)))
	}
	assert.Equal(t, 3, ch.Len())

	var sent atomic.Bool
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, ch.Send(ctx, NewBlobItem("d", nil)))
		sent.Store(true)
	}()

	assert.Never(t, sent.Load, 50*time.Millisecond, 5*time.Millisecond, "the 4th item should wait for room")

	item, ok, err := ch.Receive(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", item.Key)
	assert.Eventually(t, sent.Load, time.Second, 5*time.Millisecond)
	wg.Wait()
	ch.Close()

	var keys []string
	for {
		item, ok, err := ch.Receive(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		keys = append(keys, item.Key)
	}
	assert.Equal(t, []string{"b", "c", "d"}, keys)

	t.Run("should give up when cancelled", func(t *testing.T) {
		full := NewChannel(1)
		require.NoError(t, full.Send(ctx, NewBlobItem("a", nil)))

		cctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, full.Send(cctx, NewBlobItem("b", nil)), context.DeadlineExceeded)
	})
}

var _ blobstore.Blobstore = &slowStore{}
