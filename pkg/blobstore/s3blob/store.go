// Package s3blob stores blobs in an S3 (or S3-compatible) bucket.
package s3blob

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/cenkalti/backoff/v4"
	"github.com/oneconcern/blobimport/pkg/blobstore"
	"github.com/oneconcern/blobimport/pkg/blobstore/status"
	"go.uber.org/zap"
)

// New creates a blob store for a bucket.
//
// No request is issued at construction time: credentials and bucket
// existence are checked by the first operation.
func New(bucket string, opts ...Option) (blobstore.Blobstore, error) {
	if bucket == "" {
		return nil, status.ErrInvalidResource.Wrap(fmt.Errorf("a bucket name is required"))
	}

	s := &s3Store{
		bucket:     bucket,
		awsConfig:  aws.NewConfig(),
		maxRetries: defaultMaxRetries,
		l:          zap.NewNop(),
	}
	for _, apply := range opts {
		apply(s)
	}

	sess, err := session.NewSession(s.awsConfig)
	if err != nil {
		return nil, fmt.Errorf("create AWS session: %w", err)
	}
	s.s3 = s3.New(sess)
	s.uploader = s3manager.NewUploaderWithClient(s.s3)
	return s, nil
}

// MustNew creates a blob store for a bucket, but panics if misconfigured
func MustNew(bucket string, opts ...Option) blobstore.Blobstore {
	s, err := New(bucket, opts...)
	if err != nil {
		panic(err.Error())
	}
	return s
}

type s3Store struct {
	bucket     string
	awsConfig  *aws.Config
	maxRetries uint64
	s3         *s3.S3
	uploader   *s3manager.Uploader
	l          *zap.Logger
}

func (s *s3Store) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.s3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, toSentinelErrors(err)
	}
	defer func() {
		_ = obj.Body.Close()
	}()

	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return nil, fmt.Errorf("read object %q: %w", key, err)
	}
	return data, nil
}

func (s *s3Store) Put(ctx context.Context, key string, value []byte) error {
	put := func() error {
		_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(value),
		})
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return backoff.Permanent(toSentinelErrors(err))
		}
		s.l.Debug("retrying put", zap.String("key", key), zap.Error(err))
		return toSentinelErrors(err)
	}

	return backoff.Retry(put,
		backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.maxRetries), ctx),
	)
}

func (s *s3Store) String() string {
	return "s3@" + s.bucket
}
