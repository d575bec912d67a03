// Copyright © 2018 One Concern

// Package kvblob stores blobs in an embedded sorted KV engine.
//
// Two engines are supported: cockroachdb/pebble (an LSM engine in the RocksDB
// family, used for the "rocksdb" blob store type) and dgraph-io/badger/v3.
//
// Both engines may postpone background compaction during a bulk load. The
// caller is then expected to run Compact once the load completes.
package kvblob
