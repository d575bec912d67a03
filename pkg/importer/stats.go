// Copyright © 2018 One Concern

package importer

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"
)

const namespace = "blobimport"

// Stats are the counters of an import run.
//
// They are registered on an explicit registry, shared by the converter and the consumer.
type Stats struct {
	changesets prometheus.Counter
	heads      prometheus.Counter
	duplicates prometheus.Counter
	successes  prometheus.Counter
	failures   prometheus.Counter
}

// NewStats builds and registers the import counters
func NewStats(reg prometheus.Registerer) (*Stats, error) {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		})
	}

	s := &Stats{
		changesets: counter("changesets_total", "Number of changesets converted."),
		heads:      counter("heads_total", "Number of branch heads recorded."),
		duplicates: counter("duplicate_blobs_total", "Number of manifest or file blobs skipped because their key was already written."),
		successes:  counter("writes_succeeded_total", "Number of successful blob store writes."),
		failures:   counter("writes_failed_total", "Number of failed blob store writes."),
	}

	for _, c := range []prometheus.Collector{s.changesets, s.heads, s.duplicates, s.successes, s.failures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Result summarizes an import run
type Result struct {
	Changesets int64
	Heads      int64
	Duplicates int64
	Successes  int64
	Failures   int64
}

// Result reads the current value of the counters
func (s *Stats) Result() Result {
	return Result{
		Changesets: value(s.changesets),
		Heads:      value(s.heads),
		Duplicates: value(s.duplicates),
		Successes:  value(s.successes),
		Failures:   value(s.failures),
	}
}

func value(c prometheus.Counter) int64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return int64(m.GetCounter().GetValue())
}

// Fields renders the result for logging
func (r Result) Fields() []zap.Field {
	return []zap.Field{
		zap.Int64("changesets", r.Changesets),
		zap.Int64("heads", r.Heads),
		zap.Int64("duplicates", r.Duplicates),
		zap.Int64("successes", r.Successes),
		zap.Int64("failures", r.Failures),
	}
}
