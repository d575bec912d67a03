// Copyright © 2018 One Concern

package blobstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/oneconcern/blobimport/pkg/blobstore"
	"github.com/oneconcern/blobimport/pkg/blobstore/memblob"
	"github.com/oneconcern/blobimport/pkg/blobstore/status"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLimited(t *testing.T) {
	ctx := context.Background()
	inner := memblob.New()
	bs := blobstore.Limited(inner, 4)

	t.Run("should store a blob below the limit", func(t *testing.T) {
		require.NoError(t, bs.Put(ctx, "small", []byte("abc")))
		value, err := bs.Get(ctx, "small")
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), value)
	})

	t.Run("should silently discard a blob at the limit", func(t *testing.T) {
		require.NoError(t, bs.Put(ctx, "exact", []byte("abcd")))
		_, err := bs.Get(ctx, "exact")
		require.Error(t, err)
		assert.True(t, errors.Is(err, status.ErrNotExists))
	})

	t.Run("should silently discard a blob above the limit", func(t *testing.T) {
		require.NoError(t, bs.Put(ctx, "large", []byte("abcdefgh")))
		assert.Equal(t, 0, inner.Puts("large"))
	})

	assert.Equal(t, []string{"small"}, inner.Keys())
	assert.Equal(t, "memblob<4", bs.String())
}

type compactingStore struct {
	*memblob.Store
	compactions int
}

func (c *compactingStore) Compact(context.Context) error {
	c.compactions++
	return nil
}

func TestInstrument(t *testing.T) {
	ctx := context.Background()
	tracer := mocktracer.New()
	core, logs := observer.New(zapcore.DebugLevel)
	inner := &compactingStore{Store: memblob.New()}

	bs := blobstore.Instrument(tracer, zap.New(core), blobstore.Limited(inner, 1024))
	require.NoError(t, bs.Put(ctx, "key", []byte("value")))

	value, err := bs.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), value)

	_, err = bs.Get(ctx, "missing")
	assert.True(t, errors.Is(err, status.ErrNotExists))

	compactor, ok := bs.(blobstore.Compactor)
	require.True(t, ok)
	require.NoError(t, compactor.Compact(ctx))
	assert.Equal(t, 1, inner.compactions)

	spans := tracer.FinishedSpans()
	require.Len(t, spans, 4)
	assert.Equal(t, "blobstore.memblob<1024.Put", spans[0].OperationName)
	assert.Nil(t, spans[1].Tag("error"))
	assert.Equal(t, true, spans[2].Tag("error"))

	assert.Equal(t, 1, logs.FilterMessage("blobstore put").Len())
	assert.Equal(t, 2, logs.FilterMessage("blobstore get").Len())
	assert.Equal(t, 1, logs.FilterMessage("blobstore compact").Len())

	t.Run("should default tracer and logger", func(t *testing.T) {
		bs := blobstore.Instrument(nil, nil, memblob.New())
		require.NoError(t, bs.Put(ctx, "key", []byte("value")))
		require.NoError(t, bs.(blobstore.Compactor).Compact(ctx))
	})
}

func TestParseType(t *testing.T) {
	for _, expected := range blobstore.Types() {
		typ, err := blobstore.ParseType(expected.String())
		require.NoError(t, err)
		assert.Equal(t, expected, typ)
	}

	assert.True(t, blobstore.Badger.IsKV())
	assert.True(t, blobstore.Files.IsLocal())
	assert.False(t, blobstore.Files.IsKV())
	assert.True(t, blobstore.Manifold.IsRemote())

	_, err := blobstore.ParseType("floppy")
	require.Error(t, err)
}
