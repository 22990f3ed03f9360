package events

import (
	"net/netip"
	"testing"
	"time"

	"authwatch/internal/parser"
	"authwatch/pkg/models"
)

func TestBuildSortsAndClassifies(t *testing.T) {
	p := parser.New(parser.Config{Year: 2026})
	internal := []netip.Prefix{netip.MustParsePrefix("192.168.0.0/16")}

	lines := []string{
		"Jan 14 10:30:00 server sshd[2]: Failed password for admin from 45.142.212.61 port 1001 ssh2",
		"Jan 14 10:00:00 server sshd[1]: Accepted password for john from 192.168.1.10 port 1000 ssh2",
		"garbage line",
	}
	set, stats := Build(lines, p, internal)

	if stats.Lines != 3 || stats.Parsed != 2 || stats.Failed != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if len(stats.FailureSamples) != 1 || stats.FailureSamples[0].Raw != "garbage line" {
		t.Fatalf("failure samples = %+v", stats.FailureSamples)
	}

	evs := set.All()
	if len(evs) != 2 {
		t.Fatalf("len = %d", len(evs))
	}
	if !evs[0].Timestamp.Before(evs[1].Timestamp) {
		t.Fatalf("events not time ordered")
	}
	if !evs[0].Internal {
		t.Fatalf("192.168.1.10 should be internal")
	}
	if evs[1].Internal {
		t.Fatalf("45.142.212.61 should be external")
	}
}

func TestBuildEmptyInput(t *testing.T) {
	p := parser.New(parser.Config{Year: 2026})

	set, stats := Build(nil, p, nil)
	if set.Len() != 0 {
		t.Fatalf("len = %d", set.Len())
	}
	if stats.SuccessRate() != 0 {
		t.Fatalf("success rate = %f", stats.SuccessRate())
	}
}

func TestByIPPreservesTimeOrder(t *testing.T) {
	base := time.Date(2026, 1, 14, 10, 0, 0, 0, time.UTC)
	set := FromEvents([]*models.AuthEvent{
		{Timestamp: base.Add(2 * time.Minute), SourceIP: "10.0.0.1", Username: "a", Outcome: models.OutcomeFailure},
		{Timestamp: base, SourceIP: "10.0.0.1", Username: "b", Outcome: models.OutcomeFailure},
		{Timestamp: base.Add(time.Minute), SourceIP: "10.0.0.2", Username: "c", Outcome: models.OutcomeSuccess},
	})

	byIP := set.ByIP()
	if len(byIP) != 2 {
		t.Fatalf("groups = %d", len(byIP))
	}
	group := byIP["10.0.0.1"]
	if len(group) != 2 || group[0].Username != "b" {
		t.Fatalf("group not time ordered: %+v", group)
	}
}

func TestSuccessRate(t *testing.T) {
	s := Stats{Lines: 4, Parsed: 3, Failed: 1}
	if got := s.SuccessRate(); got != 75 {
		t.Fatalf("success rate = %f, want 75", got)
	}
}
