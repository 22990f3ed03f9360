package detect

import (
	"reflect"
	"testing"
	"time"

	"authwatch/internal/events"
	"authwatch/pkg/models"
)

var testBase = time.Date(2026, 1, 14, 10, 0, 0, 0, time.UTC)

func failBurst(ip, user string, n int, start time.Time, gap time.Duration) []*models.AuthEvent {
	evs := make([]*models.AuthEvent, 0, n)
	for i := 0; i < n; i++ {
		evs = append(evs, &models.AuthEvent{
			Timestamp: start.Add(time.Duration(i) * gap),
			SourceIP:  ip,
			Username:  user,
			Outcome:   models.OutcomeFailure,
		})
	}
	return evs
}

func defaultConfig() Config {
	var cfg Config
	cfg.ApplyDefaults()
	return cfg
}

func TestRunIsDeterministic(t *testing.T) {
	cfg := defaultConfig()
	evs := failBurst("45.142.212.61", "root", 30, testBase, time.Minute)
	evs = append(evs, &models.AuthEvent{
		Timestamp: testBase.Add(time.Hour),
		SourceIP:  "45.142.212.61",
		Username:  "root",
		Outcome:   models.OutcomeSuccess,
	})
	set := events.FromEvents(evs)

	first, errs := Run(set, cfg)
	if len(errs) != 0 {
		t.Fatalf("detector errors: %v", errs)
	}
	for i := 0; i < 5; i++ {
		again, _ := Run(set, cfg)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d produced different alerts", i)
		}
	}
}

func TestRunEmptySet(t *testing.T) {
	alerts, errs := Run(events.FromEvents(nil), defaultConfig())
	if len(alerts) != 0 || len(errs) != 0 {
		t.Fatalf("alerts = %v, errs = %v", alerts, errs)
	}
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	cfg := defaultConfig()
	cfg.BruteForce = Thresholds{Medium: 50, High: 25, Critical: 10}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unordered thresholds")
	}

	cfg = defaultConfig()
	cfg.Window = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for negative window")
	}

	cfg = defaultConfig()
	cfg.PrefixRegions = map[string]string{"": "nowhere"}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for empty prefix")
	}
}

func TestApplyDefaultsFillsEverything(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Window != time.Hour {
		t.Fatalf("window = %v", cfg.Window)
	}
	if cfg.BruteForce != (Thresholds{Medium: 10, High: 25, Critical: 50}) {
		t.Fatalf("thresholds = %+v", cfg.BruteForce)
	}
}
