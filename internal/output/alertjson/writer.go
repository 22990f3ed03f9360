package alertjson

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"authwatch/internal/logger"
	"authwatch/pkg/models"
)

// Writer outputs the aggregated alert report to a JSON lines file.
type Writer struct {
	file    *os.File
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewWriter creates a JSONL writer for aggregated alerts.
func NewWriter(path string) (*Writer, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	logger.Infof("Alert JSON writer initialized: %s", path)
	return &Writer{
		file:    f,
		encoder: json.NewEncoder(f),
	}, nil
}

// WriteReport writes the ranked report, one aggregated alert per line.
func (w *Writer) WriteReport(report []models.AggregatedAlert) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := range report {
		if err := w.encoder.Encode(&report[i]); err != nil {
			return fmt.Errorf("failed to encode aggregated alert: %w", err)
		}
	}
	return nil
}

// Close closes the output file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file != nil {
		return w.file.Close()
	}
	return nil
}
