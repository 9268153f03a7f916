// Package validate provides the validation filter: a thin layer that
// applies a pluggable record validator and partitions records into
// accepted and rejected streams. It carries no business rules itself.
package validate

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for validation.
var (
	verdictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_verdicts_total",
		Help: "Total validation verdicts by result",
	}, []string{"verdict"})
)

// Record is an untyped structured payload, field name to value.
type Record map[string]any

// Reason is one field-level rejection reason.
type Reason struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator is the external record-validation capability: it returns
// the normalized record (types coerced, defaults applied, fields
// renamed) or an error describing why the record fails the contract.
type Validator interface {
	Parse(record Record) (Record, error)
}

// Rejection pairs the original payload with its structured reasons.
type Rejection struct {
	Record  Record   `json:"record"`
	Reasons []Reason `json:"reasons"`
}

// Partition classifies every record and materializes both sides.
// Accepted and rejected are a complete, disjoint cover of the input,
// in input order.
func Partition(records []Record, v Validator) ([]Record, []Rejection) {
	accepted := make([]Record, 0, len(records))
	var rejected []Rejection

	for _, record := range records {
		clean, err := v.Parse(record)
		if err != nil {
			reasons := ReasonsFrom(err)
			rejected = append(rejected, Rejection{Record: record, Reasons: reasons})
			verdictsTotal.WithLabelValues("rejected").Inc()
			log.Warn().
				Int("reasons", len(reasons)).
				Str("first_reason", firstMessage(reasons)).
				Msg("Record rejected by validator")
			continue
		}
		accepted = append(accepted, clean)
		verdictsTotal.WithLabelValues("accepted").Inc()
	}

	return accepted, rejected
}

// Stream classifies records one at a time without materializing either
// side. Both output channels are closed once the input is drained or
// the context is cancelled. Space is O(1) per record.
func Stream(ctx context.Context, in <-chan Record, v Validator) (<-chan Record, <-chan Rejection) {
	accepted := make(chan Record)
	rejected := make(chan Rejection)

	go func() {
		defer close(accepted)
		defer close(rejected)

		for record := range in {
			clean, err := v.Parse(record)
			if err != nil {
				verdictsTotal.WithLabelValues("rejected").Inc()
				select {
				case rejected <- Rejection{Record: record, Reasons: ReasonsFrom(err)}:
				case <-ctx.Done():
					return
				}
				continue
			}
			verdictsTotal.WithLabelValues("accepted").Inc()
			select {
			case accepted <- clean:
			case <-ctx.Done():
				return
			}
		}
	}()

	return accepted, rejected
}

// ReasonsFrom extracts structured reasons from a validator error.
// Errors without field structure become a single catch-all reason.
func ReasonsFrom(err error) []Reason {
	var fieldErrs FieldErrors
	if errors.As(err, &fieldErrs) {
		return []Reason(fieldErrs)
	}
	return []Reason{{Message: err.Error()}}
}

func firstMessage(reasons []Reason) string {
	if len(reasons) == 0 {
		return ""
	}
	return reasons[0].Message
}
