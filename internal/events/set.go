package events

import (
	"errors"
	"net/netip"
	"sort"

	"authwatch/internal/parser"
	"authwatch/pkg/models"
)

// ErrNoEvents is returned when no input line parsed successfully.
// Callers surface it as a zero-alert result, not a crash.
var ErrNoEvents = errors.New("no parseable auth events in input")

// maxFailureSamples limits retained malformed-line samples.
const maxFailureSamples = 5

// Stats summarizes one parse run.
type Stats struct {
	Lines          int
	Parsed         int
	Failed         int
	FailureSamples []models.ParseFailure
}

// SuccessRate is the fraction of lines parsed, in percent.
func (s Stats) SuccessRate() float64 {
	if s.Lines == 0 {
		return 0
	}
	return float64(s.Parsed) / float64(s.Lines) * 100
}

// Set is an immutable, time-ordered collection of parsed auth events.
// Detectors read it and never modify it.
type Set struct {
	events []*models.AuthEvent
}

// Build parses raw lines into a Set. Input order is irrelevant; the
// set is sorted by timestamp (stable, so same-timestamp records keep
// their input order). Malformed lines are counted, never fatal.
func Build(lines []string, p *parser.Parser, internal []netip.Prefix) (*Set, Stats) {
	stats := Stats{Lines: len(lines)}
	parsed := make([]*models.AuthEvent, 0, len(lines))

	for _, line := range lines {
		ev, fail := p.Parse(line)
		if fail != nil {
			stats.Failed++
			if len(stats.FailureSamples) < maxFailureSamples {
				stats.FailureSamples = append(stats.FailureSamples, *fail)
			}
			continue
		}
		ev.Internal = isInternal(ev.SourceIP, internal)
		parsed = append(parsed, ev)
		stats.Parsed++
	}

	sort.SliceStable(parsed, func(i, j int) bool {
		return parsed[i].Timestamp.Before(parsed[j].Timestamp)
	})

	return &Set{events: parsed}, stats
}

// FromEvents builds a Set directly from already-constructed events,
// sorting by timestamp. Used by tests and in-memory callers.
func FromEvents(evs []*models.AuthEvent) *Set {
	cp := make([]*models.AuthEvent, len(evs))
	copy(cp, evs)
	sort.SliceStable(cp, func(i, j int) bool {
		return cp[i].Timestamp.Before(cp[j].Timestamp)
	})
	return &Set{events: cp}
}

// Len returns the number of events.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.events)
}

// All returns the time-ordered events. Callers must not modify the
// returned slice or the events it points to.
func (s *Set) All() []*models.AuthEvent {
	if s == nil {
		return nil
	}
	return s.events
}

// ByIP groups events by source IP, preserving time order within each
// group. Events with an empty source IP are skipped; the caller is
// expected to have logged them.
func (s *Set) ByIP() map[string][]*models.AuthEvent {
	out := make(map[string][]*models.AuthEvent)
	for _, ev := range s.All() {
		if ev.SourceIP == "" {
			continue
		}
		out[ev.SourceIP] = append(out[ev.SourceIP], ev)
	}
	return out
}

func isInternal(ip string, prefixes []netip.Prefix) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
