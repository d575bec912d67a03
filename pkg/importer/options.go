// Copyright © 2018 One Concern

package importer

import (
	"runtime"

	"github.com/oneconcern/blobimport/pkg/heads"
	"github.com/oneconcern/blobimport/pkg/linknodes"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type options struct {
	channelSize int
	skip        int
	limit       int
	workers     int
	heads       heads.Heads
	linknodes   linknodes.Linknodes
	registry    prometheus.Registerer
	l           *zap.Logger
}

func defaultOptions() *options {
	return &options{
		channelSize: DefaultChannelSize,
		limit:       -1,
		workers:     runtime.NumCPU(),
		heads:       heads.Noop(),
		linknodes:   linknodes.Noop(),
		l:           zap.NewNop(),
	}
}

// Option configures an import run
type Option func(*options)

// ChannelSize is the capacity of the import channel, which also bounds the number of in-flight writes
func ChannelSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.channelSize = size
		}
	}
}

// Skip a number of leading changesets
func Skip(skip int) Option {
	return func(o *options) {
		if skip > 0 {
			o.skip = skip
		}
	}
}

// Limit the number of converted changesets. A negative limit converts all of them.
func Limit(limit int) Option {
	return func(o *options) {
		o.limit = limit
	}
}

// Workers is the number of changesets loaded concurrently
func Workers(workers int) Option {
	return func(o *options) {
		if workers > 0 {
			o.workers = workers
		}
	}
}

// Heads receives the branch heads. Heads are discarded by default.
func Heads(h heads.Heads) Option {
	return func(o *options) {
		if h != nil {
			o.heads = h
		}
	}
}

// Linknodes receives the linknodes. Linknodes are discarded by default.
func Linknodes(l linknodes.Linknodes) Option {
	return func(o *options) {
		if l != nil {
			o.linknodes = l
		}
	}
}

// Registry registers the import statistics. A private registry is used by default.
func Registry(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// Logger for the import run
func Logger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.l = l
		}
	}
}
