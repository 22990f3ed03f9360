package alertcsv

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"authwatch/pkg/models"
)

func TestWriteReportRows(t *testing.T) {
	start := time.Date(2026, 1, 14, 10, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)
	report := []models.AggregatedAlert{
		{
			SourceIP:  "45.142.212.61",
			Severity:  models.SeverityCritical,
			MaxMetric: 25,
			Alerts: []models.Alert{
				{Kind: models.KindBreach, Metric: 25, Severity: models.SeverityCritical, WindowStart: start, WindowEnd: end},
				{Kind: models.KindBruteForce, Metric: 50, Severity: models.SeverityHigh, WindowStart: start.Add(-time.Hour), WindowEnd: end},
			},
		},
	}

	path := filepath.Join(t.TempDir(), "alerts.csv")
	if err := WriteReport(path, report); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	row := rows[1]
	if row[0] != "45.142.212.61" || row[1] != "CRITICAL" {
		t.Fatalf("row = %v", row)
	}
	if row[2] != "breach;brute_force" {
		t.Fatalf("kinds = %q", row[2])
	}
	if row[3] != "25.00" {
		t.Fatalf("max metric = %q", row[3])
	}
	// window spans the earliest start and latest end across alerts
	if row[5] != start.Add(-time.Hour).Format(time.RFC3339) || row[6] != end.Format(time.RFC3339) {
		t.Fatalf("window = %q / %q", row[5], row[6])
	}
}

func TestWriteReportEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.csv")
	if err := WriteReport(path, nil); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected header only, got %d rows", len(rows))
	}
}
