package gcsblob

import (
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const defaultMaxRetries = 5

// Option is a functor to pass optional parameters to the gcs store
type Option func(*gcs)

// Logger specifies a logger for this store
func Logger(logger *zap.Logger) Option {
	return func(g *gcs) {
		if logger != nil {
			g.l = logger
		}
	}
}

// ClientOptions are passed to the google storage client, e.g. credentials or an emulator endpoint
func ClientOptions(opts ...option.ClientOption) Option {
	return func(g *gcs) {
		g.clientOpts = append(g.clientOpts, opts...)
	}
}

// MaxRetries bounds the number of retries of a failed put
func MaxRetries(retries uint64) Option {
	return func(g *gcs) {
		g.maxRetries = retries
	}
}
