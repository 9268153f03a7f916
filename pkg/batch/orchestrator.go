// Package batch provides the fan-out/fan-in orchestrator: one dispatch
// per identifier, bounded by the dispatcher's gate, with full accounting.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/javierturcios2607/ingestor/pkg/fetch"
	"github.com/javierturcios2607/ingestor/pkg/logging"
	"github.com/javierturcios2607/ingestor/pkg/notify"
)

// Prometheus metrics for batch runs.
var (
	batchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ingest_batches_total",
		Help: "Total batch runs",
	})

	batchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ingest_batch_duration_seconds",
		Help:    "Wall-clock duration of batch runs",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})

	batchOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_batch_outcomes_total",
		Help: "Total outcomes aggregated by class",
	}, []string{"class"})
)

// Dispatcher is the capability the orchestrator fans out over.
// *fetch.Dispatcher implements it; tests substitute stubs.
type Dispatcher interface {
	Dispatch(ctx context.Context, id fetch.Identifier) fetch.Outcome
}

// Result is the aggregate of one batch run. Immutable after Run returns.
type Result struct {
	Outcomes []fetch.Outcome

	Attempted  int
	Succeeded  int
	SoftFailed int
	HardFailed int

	Elapsed time.Duration
}

// Failed returns the total number of failed dispatches.
func (r *Result) Failed() int {
	return r.SoftFailed + r.HardFailed
}

// Successes returns the payloads of all successful outcomes, in no
// particular order.
func (r *Result) Successes() []map[string]any {
	payloads := make([]map[string]any, 0, r.Succeeded)
	for _, o := range r.Outcomes {
		if o.IsSuccess() {
			payloads = append(payloads, o.Payload)
		}
	}
	return payloads
}

// Orchestrator fans out dispatches and fans in their outcomes.
type Orchestrator struct {
	dispatcher Dispatcher
	notifier   notify.Notifier
	logger     zerolog.Logger
}

// New creates an orchestrator. The notifier may be nil.
func New(d Dispatcher, notifier notify.Notifier) (*Orchestrator, error) {
	if d == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	return &Orchestrator{
		dispatcher: d,
		notifier:   notifier,
		logger:     logging.NewLogger("orchestrator"),
	}, nil
}

// Run dispatches every identifier concurrently and waits for all of
// them to reach a terminal outcome. One outcome exists per identifier,
// duplicates included; a failing dispatch never cancels its siblings.
// The only error Run returns is a malformed identifier sequence,
// detected before any dispatch is issued.
func (o *Orchestrator) Run(ctx context.Context, ids []fetch.Identifier) (*Result, error) {
	for i, id := range ids {
		if id == "" {
			return nil, fmt.Errorf("identifier at index %d is empty", i)
		}
	}

	o.logger.Info().
		Int("identifiers", len(ids)).
		Msg("Starting batch run")

	start := time.Now()

	outcomes := make(chan fetch.Outcome, len(ids))
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id fetch.Identifier) {
			defer wg.Done()
			outcomes <- o.dispatcher.Dispatch(ctx, id)
		}(id)
	}

	wg.Wait()
	close(outcomes)

	result := &Result{
		Outcomes:  make([]fetch.Outcome, 0, len(ids)),
		Attempted: len(ids),
	}
	for outcome := range outcomes {
		result.Outcomes = append(result.Outcomes, outcome)
		switch outcome.Class {
		case fetch.ClassSuccess:
			result.Succeeded++
		case fetch.ClassSoftFailure:
			result.SoftFailed++
		case fetch.ClassHardFailure:
			result.HardFailed++
		}
		batchOutcomesTotal.WithLabelValues(string(outcome.Class)).Inc()
	}
	result.Elapsed = time.Since(start)

	batchesTotal.Inc()
	batchDuration.Observe(result.Elapsed.Seconds())

	o.logger.Info().
		Int("attempted", result.Attempted).
		Int("succeeded", result.Succeeded).
		Int("soft_failed", result.SoftFailed).
		Int("hard_failed", result.HardFailed).
		Dur("elapsed", result.Elapsed).
		Msg("Batch run complete")

	if result.Failed() > 0 && o.notifier != nil {
		o.notifier.Notify(ctx, notify.Event{
			Source:    "orchestrator",
			Message:   "batch completed with failures",
			Attempted: result.Attempted,
			Succeeded: result.Succeeded,
			Failed:    result.Failed(),
			Elapsed:   result.Elapsed,
		})
	}

	return result, nil
}
