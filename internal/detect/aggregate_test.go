package detect

import (
	"testing"

	"authwatch/pkg/models"
)

func TestAggregateGroupsByIPAndTakesMaxSeverity(t *testing.T) {
	alerts := []models.Alert{
		{Kind: models.KindBruteForce, SourceIP: "45.1.1.1", Severity: models.SeverityMedium, Metric: 12},
		{Kind: models.KindBreach, SourceIP: "45.1.1.1", Severity: models.SeverityCritical, Metric: 25},
		{Kind: models.KindGeoAnomaly, SourceIP: "103.2.2.2", Severity: models.SeverityMedium, Metric: 1},
	}

	report := Aggregate(alerts)
	if len(report) != 2 {
		t.Fatalf("groups = %d", len(report))
	}
	top := report[0]
	if top.SourceIP != "45.1.1.1" || top.Severity != models.SeverityCritical {
		t.Fatalf("top group = %+v", top)
	}
	if top.MaxMetric != 25 {
		t.Fatalf("max metric = %f", top.MaxMetric)
	}
	if len(top.Alerts) != 2 || top.Alerts[0].Kind != models.KindBreach {
		t.Fatalf("group alerts not severity ordered: %+v", top.Alerts)
	}
}

func TestAggregateReportOrdering(t *testing.T) {
	alerts := []models.Alert{
		{Kind: models.KindBruteForce, SourceIP: "9.9.9.9", Severity: models.SeverityMedium, Metric: 10},
		{Kind: models.KindBruteForce, SourceIP: "1.1.1.1", Severity: models.SeverityHigh, Metric: 30},
		{Kind: models.KindBreach, SourceIP: "5.5.5.5", Severity: models.SeverityCritical, Metric: 25},
		{Kind: models.KindBruteForce, SourceIP: "2.2.2.2", Severity: models.SeverityHigh, Metric: 30},
	}

	report := Aggregate(alerts)
	got := make([]string, len(report))
	for i, g := range report {
		got[i] = g.SourceIP
	}
	// CRITICAL first, then HIGH (tied metric broken by IP), then MEDIUM.
	want := []string{"5.5.5.5", "1.1.1.1", "2.2.2.2", "9.9.9.9"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	if report := Aggregate(nil); len(report) != 0 {
		t.Fatalf("report = %+v", report)
	}
}

func TestAggregatedAlertKinds(t *testing.T) {
	g := models.AggregatedAlert{Alerts: []models.Alert{
		{Kind: models.KindBreach},
		{Kind: models.KindBruteForce},
		{Kind: models.KindBreach},
	}}
	kinds := g.Kinds()
	if len(kinds) != 2 {
		t.Fatalf("kinds = %v", kinds)
	}
}
