// Package sink provides destinations for the pipeline's two output
// streams: accepted records go to a durable sink, rejected records to
// a quarantine store for inspection.
package sink

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/javierturcios2607/ingestor/pkg/validate"
)

// Prometheus metrics for sink operations.
var (
	recordsWrittenTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_records_written_total",
		Help: "Total accepted records written by sink type",
	}, []string{"sink"})

	quarantinedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ingest_quarantined_total",
		Help: "Total rejected records routed to quarantine",
	})
)

// Sink accepts a finished collection of clean records.
type Sink interface {
	Write(ctx context.Context, records []validate.Record) error
}

// Quarantine receives rejected records one at a time.
type Quarantine interface {
	Add(ctx context.Context, rejection validate.Rejection) error
}
