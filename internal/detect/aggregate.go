package detect

import (
	"sort"

	"authwatch/pkg/models"
)

// Aggregate merges detector alerts into one ranked report. Alerts are
// grouped by source IP; the group severity is the maximum contributing
// severity. Report ordering is severity descending, then highest
// individual metric descending, then source IP ascending, so identical
// input always yields an identical report.
func Aggregate(alerts []models.Alert) []models.AggregatedAlert {
	groups := make(map[string]*models.AggregatedAlert)
	for _, a := range alerts {
		g, ok := groups[a.SourceIP]
		if !ok {
			g = &models.AggregatedAlert{SourceIP: a.SourceIP, Severity: a.Severity}
			groups[a.SourceIP] = g
		}
		if a.Severity.Rank() > g.Severity.Rank() {
			g.Severity = a.Severity
		}
		if a.Metric > g.MaxMetric {
			g.MaxMetric = a.Metric
		}
		g.Alerts = append(g.Alerts, a)
	}

	out := make([]models.AggregatedAlert, 0, len(groups))
	for _, ip := range sortedIPs(groups) {
		g := groups[ip]
		sort.SliceStable(g.Alerts, func(i, j int) bool {
			ai, aj := g.Alerts[i], g.Alerts[j]
			if ai.Severity.Rank() != aj.Severity.Rank() {
				return ai.Severity.Rank() > aj.Severity.Rank()
			}
			if ai.Metric != aj.Metric {
				return ai.Metric > aj.Metric
			}
			return ai.Kind < aj.Kind
		})
		out = append(out, *g)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Severity.Rank() != out[j].Severity.Rank() {
			return out[i].Severity.Rank() > out[j].Severity.Rank()
		}
		if out[i].MaxMetric != out[j].MaxMetric {
			return out[i].MaxMetric > out[j].MaxMetric
		}
		return out[i].SourceIP < out[j].SourceIP
	})
	return out
}
