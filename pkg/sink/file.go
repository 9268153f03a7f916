package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/javierturcios2607/ingestor/pkg/logging"
	"github.com/javierturcios2607/ingestor/pkg/validate"
)

// JSONFile writes the accepted collection as indented JSON to a local
// file. The write goes through a temp file and a rename, so the
// destination is never left half-written and the handle is released on
// every exit path.
type JSONFile struct {
	path   string
	logger zerolog.Logger
}

// NewJSONFile creates a file sink for the given destination path.
func NewJSONFile(path string) (*JSONFile, error) {
	if path == "" {
		return nil, fmt.Errorf("destination path is required")
	}
	return &JSONFile{
		path:   path,
		logger: logging.NewLogger("file-sink"),
	}, nil
}

// Write serializes the records and atomically replaces the destination.
func (s *JSONFile) Write(ctx context.Context, records []validate.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}

	recordsWrittenTotal.WithLabelValues("json_file").Add(float64(len(records)))
	s.logger.Info().
		Str("path", s.path).
		Int("records", len(records)).
		Msg("Accepted records written")

	return nil
}
