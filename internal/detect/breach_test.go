package detect

import (
	"testing"
	"time"

	"authwatch/internal/events"
	"authwatch/pkg/models"
)

func breachSequence(ip, user string, failures int, start time.Time) []*models.AuthEvent {
	evs := failBurst(ip, user, failures, start, time.Second)
	return append(evs, &models.AuthEvent{
		Timestamp: start.Add(time.Duration(failures) * time.Second),
		SourceIP:  ip,
		Username:  user,
		Outcome:   models.OutcomeSuccess,
	})
}

func TestBreachCriticalAfterLongRun(t *testing.T) {
	cfg := defaultConfig() // critical threshold 20

	set := events.FromEvents(breachSequence("45.142.212.61", "root", 25, testBase))
	alerts := Breach(set, cfg)
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts", len(alerts))
	}
	a := alerts[0]
	if a.Severity != models.SeverityCritical {
		t.Fatalf("severity = %s", a.Severity)
	}
	if a.Metric != 25 {
		t.Fatalf("metric = %f, want 25", a.Metric)
	}
	if a.Username != "root" {
		t.Fatalf("username = %q", a.Username)
	}
	if !a.WindowStart.Equal(testBase) {
		t.Fatalf("window start = %v", a.WindowStart)
	}
}

func TestBreachSeverityBands(t *testing.T) {
	cfg := defaultConfig()

	cases := []struct {
		failures int
		want     models.Severity
	}{
		{3, models.SeverityMedium},
		{10, models.SeverityHigh},
		{19, models.SeverityHigh},
		{20, models.SeverityCritical},
	}
	for _, tc := range cases {
		set := events.FromEvents(breachSequence("103.75.201.12", "admin", tc.failures, testBase))
		alerts := Breach(set, cfg)
		if len(alerts) != 1 || alerts[0].Severity != tc.want {
			t.Fatalf("failures %d: alerts = %+v, want severity %s", tc.failures, alerts, tc.want)
		}
	}
}

func TestBreachSuccessWithoutFailuresIsQuiet(t *testing.T) {
	cfg := defaultConfig()

	set := events.FromEvents([]*models.AuthEvent{
		{Timestamp: testBase, SourceIP: "192.168.1.10", Username: "john", Outcome: models.OutcomeSuccess},
		{Timestamp: testBase.Add(time.Minute), SourceIP: "192.168.1.10", Username: "john", Outcome: models.OutcomeSuccess},
	})
	if alerts := Breach(set, cfg); len(alerts) != 0 {
		t.Fatalf("expected no alerts, got %+v", alerts)
	}
}

func TestBreachRunResetsAfterSuccess(t *testing.T) {
	cfg := defaultConfig()

	evs := breachSequence("45.1.2.3", "root", 5, testBase)
	evs = append(evs, breachSequence("45.1.2.3", "root", 3, testBase.Add(time.Hour))...)
	alerts := Breach(events.FromEvents(evs), cfg)
	if len(alerts) != 2 {
		t.Fatalf("got %d alerts, want 2", len(alerts))
	}
	if alerts[0].Metric != 5 || alerts[1].Metric != 3 {
		t.Fatalf("metrics = %f, %f", alerts[0].Metric, alerts[1].Metric)
	}
}

func TestBreachRunsDoNotCrossSourceIPs(t *testing.T) {
	cfg := defaultConfig()

	evs := failBurst("45.1.1.1", "root", 10, testBase, time.Second)
	evs = append(evs, &models.AuthEvent{
		Timestamp: testBase.Add(time.Minute),
		SourceIP:  "45.2.2.2",
		Username:  "root",
		Outcome:   models.OutcomeSuccess,
	})
	if alerts := Breach(events.FromEvents(evs), cfg); len(alerts) != 0 {
		t.Fatalf("failure run must not leak across IPs, got %+v", alerts)
	}
}
