// Package pipeline composes extraction, validation and loading into a
// single run. There is no base type to inherit from: stages are plain
// interfaces and Run is a free function over any implementations.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/javierturcios2607/ingestor/pkg/logging"
	"github.com/javierturcios2607/ingestor/pkg/sink"
	"github.com/javierturcios2607/ingestor/pkg/validate"
)

// Extractor produces the raw records for one run.
type Extractor interface {
	Extract(ctx context.Context) ([]validate.Record, error)
}

// Summary is the per-stage accounting of one pipeline run.
type Summary struct {
	Extracted int
	Accepted  int
	Rejected  int
	Elapsed   time.Duration
}

// Run executes extract, validate and load once. Extraction and load
// errors abort the run; validation rejections do not, they are routed
// to the quarantine. The quarantine may be nil, in which case
// rejections are only counted.
func Run(ctx context.Context, ex Extractor, v validate.Validator, dest sink.Sink, quarantine sink.Quarantine) (*Summary, error) {
	logger := logging.NewLogger("pipeline")
	start := time.Now()

	records, err := ex.Extract(ctx)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	accepted, rejected := validate.Partition(records, v)
	routeRejections(ctx, logger, quarantine, rejected)

	if err := dest.Write(ctx, accepted); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	summary := &Summary{
		Extracted: len(records),
		Accepted:  len(accepted),
		Rejected:  len(rejected),
		Elapsed:   time.Since(start),
	}

	logger.Info().
		Int("extracted", summary.Extracted).
		Int("accepted", summary.Accepted).
		Int("rejected", summary.Rejected).
		Dur("elapsed", summary.Elapsed).
		Msg("Pipeline run complete")

	return summary, nil
}

// routeRejections hands every rejection to the quarantine. A failing
// quarantine store is logged and skipped, it never aborts the run.
func routeRejections(ctx context.Context, logger zerolog.Logger, quarantine sink.Quarantine, rejected []validate.Rejection) {
	if quarantine == nil {
		return
	}
	for _, rej := range rejected {
		if err := quarantine.Add(ctx, rej); err != nil {
			logger.Error().Err(err).Msg("Failed to quarantine rejected record")
		}
	}
}
