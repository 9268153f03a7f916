package fetch

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for retry operations.
var (
	fetchRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_fetch_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	fetchRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_fetch_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// maxBackoff caps exponential backoff growth between attempts.
const maxBackoff = 30 * time.Second

// fetchWithRetry runs fetchOnce up to 1+MaxRetries times for retriable
// failures. Retries run while still holding the gate slot, so the
// concurrency bound holds across attempts. With MaxRetries == 0 this is
// exactly one attempt, the reference behavior.
func (d *Dispatcher) fetchWithRetry(ctx context.Context, id Identifier) Outcome {
	attempts := 1 + d.config.MaxRetries
	backoff := d.config.InitialBackoff

	var outcome Outcome
	for attempt := 1; attempt <= attempts; attempt++ {
		outcome = d.fetchOnce(ctx, id)
		if outcome.IsSuccess() {
			if attempt > 1 {
				d.logger.Info().
					Str("identifier", string(id)).
					Int("attempt", attempt).
					Msg("Fetch succeeded after retry")
			}
			return outcome
		}

		class := classifyOutcome(outcome)
		if !shouldRetry(class) || attempt >= attempts {
			break
		}

		fetchRetriesTotal.WithLabelValues(string(class)).Inc()

		// ±20% jitter to avoid synchronized retry waves
		jitter := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
		d.logger.Debug().
			Str("identifier", string(id)).
			Str("error_class", string(class)).
			Int("attempt", attempt).
			Dur("backoff", jitter).
			Msg("Retrying fetch after backoff")

		select {
		case <-ctx.Done():
			return HardFailure(id, &RequestError{
				Identifier: id,
				Class:      ErrorClassNetwork,
				Message:    "cancelled during retry backoff",
				Err:        fmt.Errorf("%w: %v", ErrCancelled, ctx.Err()),
			})
		case <-time.After(jitter):
		}

		backoff = time.Duration(float64(backoff) * 2)
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}

	if d.config.MaxRetries > 0 && outcome.Failed() {
		class := classifyOutcome(outcome)
		if shouldRetry(class) {
			fetchRetryExhaustedTotal.WithLabelValues(string(class)).Inc()
			d.logger.Warn().
				Str("identifier", string(id)).
				Str("error_class", string(class)).
				Int("attempts", attempts).
				Msg("Retry attempts exhausted")
		}
	}

	return outcome
}
