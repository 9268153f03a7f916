// Package metrics provides the centralized Prometheus metrics reference
// for the ingest pipeline. All metrics are defined in their respective
// packages (fetch, batch, validate, sink) to maintain modularity and
// avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the pipeline.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Dispatcher Metrics (pkg/fetch):
//   - ingest_fetch_requests_total{class} (Counter): Dispatched fetches by outcome class
//   - ingest_fetch_duration_seconds{class} (Histogram): Fetch duration by outcome class
//   - ingest_fetch_gate_wait_seconds (Histogram): Time spent waiting for a gate slot
//   - ingest_fetch_in_flight (Gauge): Fetches currently holding a gate slot
//
// Retry Metrics (pkg/fetch):
//   - ingest_fetch_retries_total{error_class} (Counter): Retry attempts by error class
//   - ingest_fetch_retry_exhausted_total{error_class} (Counter): Fetches that exhausted retries
//
// Batch Metrics (pkg/batch):
//   - ingest_batches_total (Counter): Total batch runs
//   - ingest_batch_duration_seconds (Histogram): Wall-clock duration of batch runs
//   - ingest_batch_outcomes_total{class} (Counter): Aggregated outcomes by class
//
// Validation Metrics (pkg/validate):
//   - ingest_verdicts_total{verdict} (Counter): Verdicts by result (accepted, rejected)
//
// Sink Metrics (pkg/sink):
//   - ingest_records_written_total{sink} (Counter): Accepted records written by sink type
//   - ingest_quarantined_total (Counter): Rejected records routed to quarantine
//
// Example Prometheus Queries:
//
//   # Fetch success rate
//   sum(rate(ingest_fetch_requests_total{class="success"}[5m])) /
//   sum(rate(ingest_fetch_requests_total[5m]))
//
//   # Gate saturation (waiting a long time for slots)
//   histogram_quantile(0.95, rate(ingest_fetch_gate_wait_seconds_bucket[5m]))
//
//   # Rejection rate of the data-quality gate
//   rate(ingest_verdicts_total{verdict="rejected"}[5m])
//
//   # P95 fetch latency
//   histogram_quantile(0.95, rate(ingest_fetch_duration_seconds_bucket[5m]))
