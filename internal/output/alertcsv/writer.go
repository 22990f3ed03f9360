package alertcsv

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

// WriteReport writes the ranked aggregated alert report as CSV. The
// row order follows the report order, so identical input produces a
// byte-identical file.
func WriteReport(path string, report []models.AggregatedAlert) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"source_ip", "severity", "kinds", "max_metric", "metrics", "window_start", "window_end"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i := range report {
		agg := &report[i]
		start, end := reportWindow(agg)
		row := []string{
			agg.SourceIP,
			string(agg.Severity),
			joinKinds(agg.Kinds()),
			formatMetric(agg.MaxMetric),
			joinMetrics(agg.Alerts),
			start.Format(time.RFC3339),
			end.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write report row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}

	logger.Infof("Alert CSV report written: %s (%d entries)", path, len(report))
	return nil
}

// reportWindow spans the earliest and latest contributing windows.
func reportWindow(agg *models.AggregatedAlert) (time.Time, time.Time) {
	var start, end time.Time
	for _, a := range agg.Alerts {
		if start.IsZero() || a.WindowStart.Before(start) {
			start = a.WindowStart
		}
		if a.WindowEnd.After(end) {
			end = a.WindowEnd
		}
	}
	return start, end
}

func joinKinds(kinds []models.AlertKind) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, ";")
}

func joinMetrics(alerts []models.Alert) string {
	parts := make([]string, len(alerts))
	for i, a := range alerts {
		parts[i] = string(a.Kind) + "=" + formatMetric(a.Metric)
	}
	return strings.Join(parts, ";")
}

func formatMetric(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
