// Copyright © 2018 One Concern

// Package blobstore provides an interface to store immutable blobs by key.
//
// This package supports the following backends:
//   - local file system, one file per key (fileblob)
//   - embedded sorted KV engines: pebble and badger (kvblob)
//   - S3-compatible buckets (s3blob)
//   - GCS buckets (gcsblob)
//
// Decorators wrap any backend: Limited drops oversized puts, Instrument logs
// and traces every operation.
package blobstore
