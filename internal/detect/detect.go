package detect

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"authwatch/internal/events"
	"authwatch/internal/logger"
	"authwatch/pkg/models"
)

// Thresholds are inclusive lower bounds for the brute force severity
// bands. A count in [Medium, High) is MEDIUM, [High, Critical) is
// HIGH, and [Critical, inf) is CRITICAL.
type Thresholds struct {
	Medium   int
	High     int
	Critical int
}

// Config holds the tuning for all four detectors.
type Config struct {
	// Window is the sliding window for brute force clustering.
	Window time.Duration
	// BruteForce holds the failure-count severity bands.
	BruteForce Thresholds
	// VulnerableUsers are commonly targeted account names.
	VulnerableUsers []string
	// TargetingThreshold is the minimum failure count on vulnerable
	// accounts per source IP before an alert is raised.
	TargetingThreshold int
	// BreachCriticalThreshold is the consecutive-failure run length at
	// which a subsequent success becomes CRITICAL.
	BreachCriticalThreshold int
	// ExpectedRegions are region tags considered normal for external
	// traffic. Resolved regions outside this set are flagged. An empty
	// set means every resolved region is flagged.
	ExpectedRegions []string
	// PrefixRegions maps IP address prefixes (for example "45.") to
	// approximate region tags. This is a heuristic, not geolocation.
	PrefixRegions map[string]string
}

// ApplyDefaults fills unset fields with the stock tuning.
func (c *Config) ApplyDefaults() {
	if c.Window <= 0 {
		c.Window = time.Hour
	}
	if c.BruteForce == (Thresholds{}) {
		c.BruteForce = Thresholds{Medium: 10, High: 25, Critical: 50}
	}
	if len(c.VulnerableUsers) == 0 {
		c.VulnerableUsers = []string{
			"root", "admin", "test", "oracle", "postgres",
			"mysql", "ubuntu", "user", "guest", "ftp",
		}
	}
	if c.TargetingThreshold <= 0 {
		c.TargetingThreshold = 5
	}
	if c.BreachCriticalThreshold <= 0 {
		c.BreachCriticalThreshold = 20
	}
	if len(c.PrefixRegions) == 0 {
		c.PrefixRegions = map[string]string{
			"45.":  "eastern-europe",
			"103.": "southeast-asia",
			"185.": "europe-tor",
			"91.":  "central-asia",
			"196.": "africa",
			"41.":  "africa",
		}
	}
}

// Validate rejects malformed tuning before any parsing begins.
func (c *Config) Validate() error {
	if c.Window <= 0 {
		return fmt.Errorf("window must be positive, got %v", c.Window)
	}
	t := c.BruteForce
	if t.Medium <= 0 || t.High <= 0 || t.Critical <= 0 {
		return fmt.Errorf("brute force thresholds must be positive, got %+v", t)
	}
	if !(t.Medium <= t.High && t.High <= t.Critical) {
		return fmt.Errorf("brute force thresholds must be ordered MEDIUM <= HIGH <= CRITICAL, got %+v", t)
	}
	if c.TargetingThreshold <= 0 {
		return fmt.Errorf("targeting threshold must be positive, got %d", c.TargetingThreshold)
	}
	if c.BreachCriticalThreshold <= 0 {
		return fmt.Errorf("breach critical threshold must be positive, got %d", c.BreachCriticalThreshold)
	}
	for prefix, region := range c.PrefixRegions {
		if prefix == "" || region == "" {
			return fmt.Errorf("prefix region entries must be non-empty, got %q=%q", prefix, region)
		}
	}
	return nil
}

// Run executes the four detectors over the set. Detectors are pure
// functions over an immutable set, so they run in parallel. A panic in
// one detector is isolated into an error; the remaining results are
// still returned and safe to aggregate. The returned alert order is
// deterministic for identical input.
func Run(set *events.Set, cfg Config) ([]models.Alert, []error) {
	if n := countMissingIP(set); n > 0 {
		logger.Warnf("Skipping %d events with no source IP", n)
	}

	detectors := []struct {
		kind models.AlertKind
		fn   func(*events.Set, Config) []models.Alert
	}{
		{models.KindBruteForce, BruteForce},
		{models.KindAccountTargeting, AccountTargeting},
		{models.KindBreach, Breach},
		{models.KindGeoAnomaly, GeoAnomaly},
	}

	results := make([][]models.Alert, len(detectors))
	errs := make([]error, len(detectors))

	var wg sync.WaitGroup
	for i, d := range detectors {
		i, d := i, d
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("%s detector panicked: %v", d.kind, r)
				}
			}()
			results[i] = d.fn(set, cfg)
		}()
	}
	wg.Wait()

	var alerts []models.Alert
	for _, rs := range results {
		alerts = append(alerts, rs...)
	}

	var out []error
	for _, err := range errs {
		if err != nil {
			out = append(out, err)
		}
	}
	return alerts, out
}

func countMissingIP(set *events.Set) int {
	n := 0
	for _, ev := range set.All() {
		if ev.SourceIP == "" {
			n++
		}
	}
	return n
}

// sortedIPs returns map keys in ascending order for deterministic
// iteration.
func sortedIPs[V any](m map[string]V) []string {
	ips := make([]string, 0, len(m))
	for ip := range m {
		ips = append(ips, ip)
	}
	sort.Strings(ips)
	return ips
}
