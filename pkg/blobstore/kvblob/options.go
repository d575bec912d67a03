// Copyright © 2018 One Concern

package kvblob

import (
	"github.com/oneconcern/blobimport/pkg/errors"
	"go.uber.org/zap"
)

var errClosed = errors.New("KV blob store is closed")

type options struct {
	createIfMissing    bool
	postponeCompaction bool
	l                  *zap.Logger
}

// Option to configure a KV blob store
type Option func(*options)

// CreateIfMissing creates the DB when it does not exist yet (the default).
// When false, opening a missing DB fails.
func CreateIfMissing(enabled bool) Option {
	return func(o *options) {
		o.createIfMissing = enabled
	}
}

// PostponeCompaction disables automatic background compactions.
// Compaction must then be triggered with Compact.
func PostponeCompaction(enabled bool) Option {
	return func(o *options) {
		o.postponeCompaction = enabled
	}
}

// Logger sets a logger for this store
func Logger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.l = l
		}
	}
}

func defaultOptions(opts []Option) *options {
	o := &options{
		createIfMissing: true,
		l:               zap.NewNop(),
	}
	for _, apply := range opts {
		apply(o)
	}
	return o
}
