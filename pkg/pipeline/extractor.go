package pipeline

import (
	"context"

	"github.com/javierturcios2607/ingestor/pkg/batch"
	"github.com/javierturcios2607/ingestor/pkg/fetch"
	"github.com/javierturcios2607/ingestor/pkg/validate"
)

// FetchExtractor adapts a batch run into the Extractor interface:
// the raw records are the payloads of all successful fetches.
type FetchExtractor struct {
	orchestrator *batch.Orchestrator
	ids          []fetch.Identifier
	lastResult   *batch.Result
}

// NewFetchExtractor creates an extractor over the given identifiers.
func NewFetchExtractor(o *batch.Orchestrator, ids []fetch.Identifier) *FetchExtractor {
	return &FetchExtractor{orchestrator: o, ids: ids}
}

// Extract runs the batch and returns one record per successful fetch.
// Soft and hard failures are accounted in the batch result, not here.
func (e *FetchExtractor) Extract(ctx context.Context) ([]validate.Record, error) {
	result, err := e.orchestrator.Run(ctx, e.ids)
	if err != nil {
		return nil, err
	}
	e.lastResult = result

	records := make([]validate.Record, 0, result.Succeeded)
	for _, payload := range result.Successes() {
		records = append(records, validate.Record(payload))
	}
	return records, nil
}

// LastResult returns the batch result of the most recent Extract call,
// or nil if Extract has not completed yet.
func (e *FetchExtractor) LastResult() *batch.Result {
	return e.lastResult
}
