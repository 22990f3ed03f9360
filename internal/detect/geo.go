package detect

import (
	"fmt"
	"strings"

	"authwatch/internal/events"
	"authwatch/pkg/models"
)

// geoHighFailures is the failure count above which a flagged source
// is raised from MEDIUM to HIGH.
const geoHighFailures = 10

// GeoAnomaly flags external source IPs whose approximate region is
// outside the expected baseline. The region comes from a longest
// string-prefix match against the configured prefix map; this is a
// deliberate heuristic, not geolocation. IPs whose prefix resolves to
// no region stay unflagged: absence of evidence is not evidence of
// anomaly.
func GeoAnomaly(set *events.Set, cfg Config) []models.Alert {
	expected := make(map[string]struct{}, len(cfg.ExpectedRegions))
	for _, r := range cfg.ExpectedRegions {
		expected[strings.ToLower(r)] = struct{}{}
	}

	byIP := set.ByIP()
	var alerts []models.Alert

	for _, ip := range sortedIPs(byIP) {
		evs := byIP[ip]
		if evs[0].Internal {
			continue
		}
		region := resolveRegion(ip, cfg.PrefixRegions)
		if region == "" {
			continue
		}
		if _, ok := expected[strings.ToLower(region)]; ok {
			continue
		}

		failures := 0
		for _, ev := range evs {
			if ev.Failed() {
				failures++
			}
		}
		severity := models.SeverityMedium
		if failures > geoHighFailures {
			severity = models.SeverityHigh
		}

		alerts = append(alerts, models.Alert{
			Kind:        models.KindGeoAnomaly,
			SourceIP:    ip,
			Metric:      1,
			Severity:    severity,
			WindowStart: evs[0].Timestamp,
			WindowEnd:   evs[len(evs)-1].Timestamp,
			Detail:      fmt.Sprintf("access from unexpected region %s (%d failed attempts)", region, failures),
		})
	}
	return alerts
}

// resolveRegion returns the region for the longest matching prefix,
// empty when no prefix matches.
func resolveRegion(ip string, prefixes map[string]string) string {
	best := ""
	region := ""
	for prefix, r := range prefixes {
		if strings.HasPrefix(ip, prefix) && len(prefix) > len(best) {
			best = prefix
			region = r
		}
	}
	return region
}
