// Package notify defines the alerting capability injected into the
// pipeline. Implementations are supplied by the caller; the pipeline
// only ever calls the interface.
package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/javierturcios2607/ingestor/pkg/logging"
)

// Event describes a terminal condition worth alerting on.
type Event struct {
	// Source names the component that raised the event.
	Source string

	// Message is a human-readable description.
	Message string

	// Attempted, Succeeded and Failed carry batch accounting when the
	// event comes from the orchestrator; zero otherwise.
	Attempted int
	Succeeded int
	Failed    int

	// Elapsed is the wall-clock duration of the run, if applicable.
	Elapsed time.Duration
}

// Notifier receives events on terminal failures. Notify must not
// block the pipeline; slow transports should buffer internally.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// LogNotifier writes events to the structured log. It is the default
// notifier wired by the CLI.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a notifier backed by the global logger.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: logging.NewLogger("notifier")}
}

// Notify logs the event at warn level.
func (n *LogNotifier) Notify(ctx context.Context, ev Event) {
	n.logger.Warn().
		Str("source", ev.Source).
		Int("attempted", ev.Attempted).
		Int("succeeded", ev.Succeeded).
		Int("failed", ev.Failed).
		Dur("elapsed", ev.Elapsed).
		Msg(ev.Message)
}
