package detect

import (
	"fmt"

	"authwatch/internal/events"
	"authwatch/pkg/models"
)

// Breach flags successful logins preceded by a run of consecutive
// failures from the same source IP, the signature of a brute force
// attempt that eventually landed. Each success with at least one
// preceding failure raises one alert and resets the run counter. A
// success with no preceding failures is normal traffic and raises
// nothing.
func Breach(set *events.Set, cfg Config) []models.Alert {
	byIP := set.ByIP()
	var alerts []models.Alert

	for _, ip := range sortedIPs(byIP) {
		run := 0
		var runStart int
		evs := byIP[ip]
		for i, ev := range evs {
			if ev.Failed() {
				if run == 0 {
					runStart = i
				}
				run++
				continue
			}
			if run > 0 {
				alerts = append(alerts, models.Alert{
					Kind:        models.KindBreach,
					SourceIP:    ip,
					Username:    ev.Username,
					Metric:      float64(run),
					Severity:    breachSeverity(run, cfg.BreachCriticalThreshold),
					WindowStart: evs[runStart].Timestamp,
					WindowEnd:   ev.Timestamp,
					Detail:      fmt.Sprintf("success after %d consecutive failures", run),
				})
			}
			run = 0
		}
	}
	return alerts
}

func breachSeverity(run, critical int) models.Severity {
	switch {
	case run >= critical:
		return models.SeverityCritical
	case run >= critical/2:
		return models.SeverityHigh
	default:
		return models.SeverityMedium
	}
}
