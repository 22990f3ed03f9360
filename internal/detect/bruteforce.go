package detect

import (
	"fmt"
	"time"

	"authwatch/internal/events"
	"authwatch/pkg/models"
)

// BruteForce flags source IPs whose failed attempts cluster inside the
// configured window. The window slides over the sorted failure
// timestamps per IP, so bursts straddling fixed bucket boundaries are
// not undercounted. Severity comes from the maximal in-window count;
// the metric is that count normalized to attempts per hour.
func BruteForce(set *events.Set, cfg Config) []models.Alert {
	byIP := set.ByIP()
	var alerts []models.Alert

	for _, ip := range sortedIPs(byIP) {
		var failures []time.Time
		for _, ev := range byIP[ip] {
			if ev.Failed() {
				failures = append(failures, ev.Timestamp)
			}
		}
		if len(failures) < cfg.BruteForce.Medium {
			continue
		}

		count, start, end := densestWindow(failures, cfg.Window)
		severity := bruteForceSeverity(count, cfg.BruteForce)
		if severity == "" {
			continue
		}

		alerts = append(alerts, models.Alert{
			Kind:        models.KindBruteForce,
			SourceIP:    ip,
			Metric:      attemptsPerHour(count, end.Sub(start)),
			Severity:    severity,
			WindowStart: start,
			WindowEnd:   end,
			Detail:      fmt.Sprintf("%d failed attempts in %s", count, end.Sub(start)),
		})
	}
	return alerts
}

// densestWindow finds the maximal count of timestamps inside any span
// of the given width over an ascending slice, and the bounds of the
// first such span.
func densestWindow(ts []time.Time, width time.Duration) (int, time.Time, time.Time) {
	best, bi, bj := 0, 0, 0
	i := 0
	for j := range ts {
		for ts[j].Sub(ts[i]) > width {
			i++
		}
		if n := j - i + 1; n > best {
			best, bi, bj = n, i, j
		}
	}
	return best, ts[bi], ts[bj]
}

func bruteForceSeverity(count int, t Thresholds) models.Severity {
	switch {
	case count >= t.Critical:
		return models.SeverityCritical
	case count >= t.High:
		return models.SeverityHigh
	case count >= t.Medium:
		return models.SeverityMedium
	default:
		return ""
	}
}

// attemptsPerHour converts a window count to a rate. A zero span (all
// attempts share one timestamp) degrades to the raw count.
func attemptsPerHour(count int, span time.Duration) float64 {
	if span <= 0 {
		return float64(count)
	}
	return float64(count) / span.Hours()
}
