package detect

import (
	"fmt"
	"strings"
	"time"

	"authwatch/internal/events"
	"authwatch/pkg/models"
)

// AccountTargeting flags source IPs that repeatedly fail against
// commonly attacked account names. This is a whole-batch count with no
// temporal windowing.
func AccountTargeting(set *events.Set, cfg Config) []models.Alert {
	vulnerable := make(map[string]struct{}, len(cfg.VulnerableUsers))
	for _, u := range cfg.VulnerableUsers {
		vulnerable[strings.ToLower(u)] = struct{}{}
	}

	byIP := set.ByIP()
	var alerts []models.Alert

	for _, ip := range sortedIPs(byIP) {
		count := 0
		users := make(map[string]struct{})
		var first, last time.Time
		for _, ev := range byIP[ip] {
			if !ev.Failed() {
				continue
			}
			if _, ok := vulnerable[strings.ToLower(ev.Username)]; !ok {
				continue
			}
			if count == 0 {
				first = ev.Timestamp
			}
			last = ev.Timestamp
			count++
			users[ev.Username] = struct{}{}
		}
		if count < cfg.TargetingThreshold {
			continue
		}

		severity := models.SeverityMedium
		if count >= 4*cfg.TargetingThreshold {
			severity = models.SeverityHigh
		}

		alerts = append(alerts, models.Alert{
			Kind:        models.KindAccountTargeting,
			SourceIP:    ip,
			Username:    soleUser(users),
			Metric:      float64(count),
			Severity:    severity,
			WindowStart: first,
			WindowEnd:   last,
			Detail:      fmt.Sprintf("%d failed attempts on %d vulnerable accounts", count, len(users)),
		})
	}
	return alerts
}

// soleUser returns the username when exactly one account was targeted,
// empty otherwise.
func soleUser(users map[string]struct{}) string {
	if len(users) != 1 {
		return ""
	}
	for u := range users {
		return u
	}
	return ""
}
