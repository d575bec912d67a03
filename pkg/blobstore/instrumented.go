// Copyright © 2018 One Concern

package blobstore

import (
	"context"
	"strings"

	opentracing "github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
)

// Instrument decorates a store with a debug log and a tracing span per operation.
//
// A nil tracer defaults to opentracing.NoopTracer and a nil logger to zap.NewNop().
func Instrument(tr opentracing.Tracer, l *zap.Logger, store Blobstore) Blobstore {
	if tr == nil {
		tr = opentracing.NoopTracer{}
	}
	if l == nil {
		l = zap.NewNop()
	}
	return &instrumentedStore{
		tr:    tr,
		store: store,
		l:     l.With(zap.String("blobstore", store.String())),
	}
}

type instrumentedStore struct {
	store Blobstore
	tr    opentracing.Tracer
	l     *zap.Logger
}

func (i *instrumentedStore) opName(name string) string {
	return strings.Join([]string{"blobstore", i.String(), name}, ".")
}

func (i *instrumentedStore) spanFromContext(ctx context.Context, name string) opentracing.Span {
	parent := opentracing.SpanFromContext(ctx)
	if parent != nil {
		return i.tr.StartSpan(name, opentracing.ChildOf(parent.Context()))
	}
	return i.tr.StartSpan(name)
}

func (i *instrumentedStore) Get(ctx context.Context, key string) ([]byte, error) {
	span := i.spanFromContext(ctx, i.opName("Get"))
	defer span.Finish()

	i.l.Debug("blobstore get", zap.String("key", key))
	value, err := i.store.Get(ctx, key)
	if err != nil {
		span.SetTag("error", true)
	}
	return value, err
}

func (i *instrumentedStore) Put(ctx context.Context, key string, value []byte) error {
	span := i.spanFromContext(ctx, i.opName("Put"))
	defer span.Finish()

	i.l.Debug("blobstore put", zap.String("key", key), zap.Int("size", len(value)))
	err := i.store.Put(ctx, key, value)
	if err != nil {
		span.SetTag("error", true)
		i.l.Debug("blobstore put failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Compact forwards to the decorated store when it supports compaction
func (i *instrumentedStore) Compact(ctx context.Context) error {
	c, ok := i.store.(Compactor)
	if !ok {
		return nil
	}
	span := i.spanFromContext(ctx, i.opName("Compact"))
	defer span.Finish()
	i.l.Debug("blobstore compact")

	return c.Compact(ctx)
}

func (i *instrumentedStore) String() string {
	return i.store.String()
}
