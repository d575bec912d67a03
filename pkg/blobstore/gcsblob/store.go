// Package gcsblob stores blobs in a google cloud storage bucket.
package gcsblob

import (
	"context"
	"fmt"
	"io"

	gcsStorage "cloud.google.com/go/storage"
	"github.com/cenkalti/backoff/v4"
	"github.com/oneconcern/blobimport/pkg/blobstore"
	"github.com/oneconcern/blobimport/pkg/blobstore/status"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

type gcs struct {
	client     *gcsStorage.Client
	bucket     string
	clientOpts []option.ClientOption
	maxRetries uint64
	l          *zap.Logger
}

// New creates a blob store for a bucket.
//
// The returned store holds a storage client: it must be closed.
func New(ctx context.Context, bucket string, opts ...Option) (*Store, error) {
	if bucket == "" {
		return nil, status.ErrInvalidResource.Wrap(fmt.Errorf("a bucket name is required"))
	}
	g := &gcs{
		bucket:     bucket,
		clientOpts: []option.ClientOption{option.WithScopes(gcsStorage.ScopeReadWrite)},
		maxRetries: defaultMaxRetries,
		l:          zap.NewNop(),
	}
	for _, apply := range opts {
		apply(g)
	}

	var err error
	g.client, err = gcsStorage.NewClient(ctx, g.clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Store{gcs: g}, nil
}

// Store is a blob store backed by a google cloud storage bucket
type Store struct {
	*gcs
}

var _ blobstore.Blobstore = &Store{}

func (g *gcs) String() string {
	return "gcs://" + g.bucket
}

func (g *gcs) Get(ctx context.Context, key string) ([]byte, error) {
	objectReader, err := g.client.Bucket(g.bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, toSentinelErrors(err)
	}
	defer func() {
		_ = objectReader.Close()
	}()

	data, err := io.ReadAll(objectReader)
	if err != nil {
		return nil, toSentinelErrors(err)
	}
	return data, nil
}

func (g *gcs) Put(ctx context.Context, key string, value []byte) error {
	put := func() error {
		writer := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
		if _, err := writer.Write(value); err != nil {
			_ = writer.Close()
			return g.retryable(key, err)
		}
		return g.retryable(key, writer.Close())
	}

	return backoff.Retry(put,
		backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), g.maxRetries), ctx),
	)
}

func (g *gcs) retryable(key string, err error) error {
	if err == nil {
		return nil
	}
	if !isTransient(err) {
		return backoff.Permanent(toSentinelErrors(err))
	}
	g.l.Debug("retrying put", zap.String("key", key), zap.Error(err))
	return toSentinelErrors(err)
}

// Close releases the storage client
func (s *Store) Close() error {
	return s.client.Close()
}
