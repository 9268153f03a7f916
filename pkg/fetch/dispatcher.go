// Package fetch provides the request dispatcher: one bounded, timed HTTP
// fetch per identifier, with every failure mode captured as an Outcome.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/javierturcios2607/ingestor/pkg/logging"
)

// Prometheus metrics for dispatcher operations.
var (
	fetchRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_fetch_requests_total",
		Help: "Total dispatched fetches by outcome class",
	}, []string{"class"})

	fetchRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ingest_fetch_duration_seconds",
		Help:    "Fetch duration in seconds by outcome class",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"class"})

	fetchGateWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ingest_fetch_gate_wait_seconds",
		Help:    "Time spent waiting for an admission gate slot",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
	})

	fetchInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ingest_fetch_in_flight",
		Help: "Number of fetches currently holding a gate slot",
	})
)

// Config holds the dispatcher configuration.
type Config struct {
	// BaseURL is the address template; the identifier is appended to it.
	BaseURL string

	// MaxConcurrency bounds simultaneous in-flight requests. This is
	// the pipeline's backpressure mechanism.
	MaxConcurrency int

	// Timeout applies to each individual request, not the whole batch.
	Timeout time.Duration

	// UserAgent header sent with every request.
	UserAgent string

	// MaxRetries is the number of additional attempts for retriable
	// failures (5xx, transport faults). 0 disables retry.
	MaxRetries int

	// InitialBackoff is the first retry delay. Only used when
	// MaxRetries > 0.
	InitialBackoff time.Duration
}

// DefaultConfig returns a safe default configuration for the given base URL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:        baseURL,
		MaxConcurrency: 10,
		Timeout:        10 * time.Second,
		UserAgent:      "ingestor/0.1.0",
		MaxRetries:     0,
		InitialBackoff: 1 * time.Second,
	}
}

// Dispatcher issues one network fetch per identifier under a global
// concurrency limit. Dispatch never returns an error; every failure
// mode is captured as an Outcome variant.
type Dispatcher struct {
	httpClient *http.Client
	gate       chan struct{}
	config     Config
	logger     zerolog.Logger
}

// New creates a new dispatcher. Configuration errors are the only
// errors this package ever returns.
func New(cfg Config) (*Dispatcher, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.MaxConcurrency <= 0 {
		return nil, fmt.Errorf("max_concurrency must be positive (got %d)", cfg.MaxConcurrency)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive (got %v)", cfg.Timeout)
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must not be negative (got %d)", cfg.MaxRetries)
	}
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 1 * time.Second
	}

	return &Dispatcher{
		// Timeout is enforced per request via context, the shared
		// client stays open for connection reuse across the batch.
		httpClient: &http.Client{},
		gate:       make(chan struct{}, cfg.MaxConcurrency),
		config:     cfg,
		logger:     logging.NewLogger("dispatcher"),
	}, nil
}

// MaxConcurrency returns the configured gate capacity.
func (d *Dispatcher) MaxConcurrency() int {
	return d.config.MaxConcurrency
}

// Dispatch fetches one identifier. It blocks until a gate slot is
// available, issues the request with the per-request timeout, and
// classifies the result. The slot is released on every exit path.
func (d *Dispatcher) Dispatch(ctx context.Context, id Identifier) Outcome {
	waitStart := time.Now()
	select {
	case d.gate <- struct{}{}:
	case <-ctx.Done():
		return HardFailure(id, &RequestError{
			Identifier: id,
			Class:      ErrorClassNetwork,
			Message:    "cancelled while waiting for gate slot",
			Err:        fmt.Errorf("%w: %v", ErrCancelled, ctx.Err()),
		})
	}
	defer func() { <-d.gate }()

	fetchGateWaitSeconds.Observe(time.Since(waitStart).Seconds())
	fetchInFlight.Inc()
	defer fetchInFlight.Dec()

	start := time.Now()
	outcome := d.fetchWithRetry(ctx, id)
	elapsed := time.Since(start)

	fetchRequestsTotal.WithLabelValues(string(outcome.Class)).Inc()
	fetchRequestDuration.WithLabelValues(string(outcome.Class)).Observe(elapsed.Seconds())

	switch outcome.Class {
	case ClassSuccess:
		d.logger.Debug().
			Str("identifier", string(id)).
			Int("status", outcome.StatusCode).
			Dur("duration", elapsed).
			Msg("Fetch succeeded")
	case ClassSoftFailure:
		d.logger.Warn().
			Str("identifier", string(id)).
			Int("status", outcome.StatusCode).
			Msg("Fetch soft failure")
	case ClassHardFailure:
		d.logger.Error().
			Err(outcome.Cause).
			Str("identifier", string(id)).
			Dur("duration", elapsed).
			Msg("Fetch hard failure")
	}

	return outcome
}

// fetchOnce performs a single GET and classifies its result.
func (d *Dispatcher) fetchOnce(ctx context.Context, id Identifier) Outcome {
	reqCtx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	url := d.config.BaseURL + string(id)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return HardFailure(id, &RequestError{
			Identifier: id,
			Class:      ErrorClassNetwork,
			Message:    "create request",
			Err:        err,
		})
	}
	req.Header.Set("User-Agent", d.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		cause := err
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			cause = fmt.Errorf("%w after %v", ErrTimeout, d.config.Timeout)
		}
		return HardFailure(id, &RequestError{
			Identifier: id,
			Class:      ErrorClassNetwork,
			Message:    "execute request",
			Err:        cause,
		})
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused
		io.Copy(io.Discard, resp.Body)
		return SoftFailure(id, resp.StatusCode)
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		// The deadline can also fire mid-body, after headers arrived.
		cause := err
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			cause = fmt.Errorf("%w after %v", ErrTimeout, d.config.Timeout)
		}
		return HardFailure(id, &RequestError{
			Identifier: id,
			Class:      ErrorClassNetwork,
			Message:    "decode payload",
			Err:        cause,
		})
	}

	return Success(id, resp.StatusCode, payload)
}
