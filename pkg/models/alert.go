package models

import "time"

// Severity classifies alert urgency. The ordering LOW < MEDIUM < HIGH
// < CRITICAL is fixed; compare severities through Rank, never lexically.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Rank returns the position of the severity in the total order.
// Unknown values rank below LOW.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// AlertKind identifies the detector that produced an alert.
type AlertKind string

const (
	KindBruteForce       AlertKind = "brute_force"
	KindAccountTargeting AlertKind = "account_targeting"
	KindBreach           AlertKind = "breach"
	KindGeoAnomaly       AlertKind = "geo_anomaly"
)

// Alert is a single detector finding. Alerts are created by detectors
// and never mutated afterwards.
type Alert struct {
	Kind        AlertKind `json:"kind"`
	SourceIP    string    `json:"source_ip"`
	Username    string    `json:"username,omitempty"`
	Metric      float64   `json:"metric"`
	Severity    Severity  `json:"severity"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	Detail      string    `json:"detail,omitempty"`
}

// AggregatedAlert merges all alerts for one source IP into a ranked
// report entry. Severity is the maximum over the contributing alerts.
type AggregatedAlert struct {
	SourceIP string   `json:"source_ip"`
	Severity Severity `json:"severity"`
	// MaxMetric is the highest individual metric among contributors,
	// used as the secondary report ordering key.
	MaxMetric float64 `json:"max_metric"`
	Alerts    []Alert `json:"alerts"`
}

// Kinds lists the distinct contributing alert kinds in input order.
func (a *AggregatedAlert) Kinds() []AlertKind {
	seen := make(map[AlertKind]struct{}, len(a.Alerts))
	out := make([]AlertKind, 0, len(a.Alerts))
	for _, al := range a.Alerts {
		if _, ok := seen[al.Kind]; ok {
			continue
		}
		seen[al.Kind] = struct{}{}
		out = append(out, al.Kind)
	}
	return out
}
