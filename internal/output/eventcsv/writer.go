package eventcsv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"authwatch/internal/logger"
	"authwatch/pkg/models"
)

// WriteEvents writes processed auth events as CSV, one row per event
// in set order.
func WriteEvents(path string, events []*models.AuthEvent) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create event file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"timestamp", "source_ip", "username", "outcome", "port", "pid", "internal", "tags"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, ev := range events {
		row := []string{
			ev.Timestamp.Format(time.RFC3339),
			ev.SourceIP,
			ev.Username,
			string(ev.Outcome),
			strconv.Itoa(ev.Port),
			strconv.Itoa(ev.PID),
			strconv.FormatBool(ev.Internal),
			joinTags(ev.Tags),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write event row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush events: %w", err)
	}

	logger.Infof("Event CSV written: %s (%d events)", path, len(events))
	return nil
}

func joinTags(tags []models.RuleTag) string {
	if len(tags) == 0 {
		return ""
	}
	parts := make([]string, len(tags))
	for i, t := range tags {
		name := t.Name
		if name == "" {
			name = t.ID
		}
		parts[i] = name
	}
	return strings.Join(parts, ";")
}
