package pipeline

import (
	"context"

	"authwatch/pkg/models"
)

// Source supplies the raw log lines for one batch run.
type Source interface {
	Lines(ctx context.Context) ([]string, error)
	Close() error
}

// ReportWriter writes the aggregated alert report.
type ReportWriter interface {
	WriteReport(report []models.AggregatedAlert) error
	Close() error
}

// EventWriter writes processed auth events.
type EventWriter interface {
	WriteEvents(events []*models.AuthEvent) error
	Close() error
}
