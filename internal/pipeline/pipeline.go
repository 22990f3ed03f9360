package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"time"

	"authwatch/internal/detect"
	"authwatch/internal/events"
	"authwatch/internal/logger"
	"authwatch/internal/metrics"
	"authwatch/internal/output/alertcsv"
	"authwatch/internal/output/eventcsv"
	"authwatch/internal/parser"
	"authwatch/internal/rules"
	"authwatch/pkg/models"
)

// Config controls one batch run.
type Config struct {
	Parser           parser.Config
	Detect           detect.Config
	InternalPrefixes []netip.Prefix

	// Optional one-shot CSV outputs; empty paths disable them.
	EventCSVPath string
	AlertCSVPath string
	SummaryPath  string
}

// Summary is the per-run statistics record.
type Summary struct {
	GeneratedAt      time.Time          `json:"generated_at"`
	Lines            int                `json:"lines"`
	Parsed           int                `json:"parsed"`
	Failed           int                `json:"failed"`
	SuccessRate      float64            `json:"parse_success_rate"`
	UniqueIPs        int                `json:"unique_ips"`
	UniqueUsers      int                `json:"unique_users"`
	FailedLogins     int                `json:"failed_logins"`
	InternalPct      float64            `json:"internal_traffic_pct"`
	TaggedEvents     int                `json:"rule_tagged_events"`
	SpanStart        *time.Time         `json:"span_start,omitempty"`
	SpanEnd          *time.Time         `json:"span_end,omitempty"`
	Alerts           int                `json:"alerts"`
	AggregatedAlerts int                `json:"aggregated_alerts"`
	CriticalThreats  int                `json:"critical_threats"`
	AlertsByKind     map[string]int     `json:"alerts_by_kind"`
	DetectorErrors   []string           `json:"detector_errors,omitempty"`
	StageSeconds     map[string]float64 `json:"stage_seconds"`
}

// Result is what one run produced.
type Result struct {
	Events  []*models.AuthEvent
	Report  []models.AggregatedAlert
	Alerts  []models.Alert
	Stats   events.Stats
	Summary Summary
	// Empty is set when no line parsed; the run still completes with
	// zero alerts.
	Empty bool
}

// Pipeline runs extract, parse, tag, detect, aggregate and load over
// one bounded batch.
type Pipeline struct {
	source       Source
	engine       rules.Engine
	reportWriter ReportWriter
	eventWriter  EventWriter
	cfg          Config
}

// New creates a pipeline. engine, reportWriter and eventWriter may be
// nil to disable the corresponding step.
func New(source Source, engine rules.Engine, reportWriter ReportWriter, eventWriter EventWriter, cfg Config) *Pipeline {
	return &Pipeline{
		source:       source,
		engine:       engine,
		reportWriter: reportWriter,
		eventWriter:  eventWriter,
		cfg:          cfg,
	}
}

// Run executes the batch. Malformed lines and per-detector failures
// never abort the run; only extraction and output errors are fatal.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	stages := make(map[string]float64)
	runStart := time.Now()

	// Extract.
	start := time.Now()
	lines, err := p.source.Lines(ctx)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	stages["extract"] = time.Since(start).Seconds()
	metrics.StageDuration.WithLabelValues("extract").Observe(stages["extract"])
	metrics.LinesTotal.Add(float64(len(lines)))
	logger.Infof("Extracted %d log lines", len(lines))

	// Transform.
	start = time.Now()
	set, stats := events.Build(lines, parser.New(p.cfg.Parser), p.cfg.InternalPrefixes)
	stages["transform"] = time.Since(start).Seconds()
	metrics.StageDuration.WithLabelValues("transform").Observe(stages["transform"])
	metrics.ParseFailuresTotal.Add(float64(stats.Failed))
	for _, ev := range set.All() {
		metrics.EventsTotal.WithLabelValues(string(ev.Outcome)).Inc()
	}
	logger.Infof("Parsed %d/%d lines (%.1f%% success)", stats.Parsed, stats.Lines, stats.SuccessRate())
	for _, sample := range stats.FailureSamples {
		logger.Debugf("Parse failure (%s): %s", sample.Reason, sample.Raw)
	}

	if set.Len() == 0 {
		logger.Warnf("%v; emitting empty report", events.ErrNoEvents)
		result := &Result{Stats: stats, Empty: true}
		result.Events = set.All()
		result.Summary = p.buildSummary(stats, set, nil, nil, nil, 0, stages, runStart)
		if err := p.load(result); err != nil {
			return nil, err
		}
		return result, nil
	}

	// Tag.
	tagged := 0
	if p.engine != nil {
		start = time.Now()
		for _, ev := range set.All() {
			if tags := p.engine.Apply(ev); len(tags) > 0 {
				ev.Tags = tags
				tagged++
			}
		}
		stages["tag"] = time.Since(start).Seconds()
		metrics.StageDuration.WithLabelValues("tag").Observe(stages["tag"])
		metrics.TaggedEventsTotal.Add(float64(tagged))
		if tagged > 0 {
			logger.Infof("Rule engine tagged %d events", tagged)
		}
	}

	// Detect.
	start = time.Now()
	alerts, detectErrs := detect.Run(set, p.cfg.Detect)
	stages["detect"] = time.Since(start).Seconds()
	metrics.StageDuration.WithLabelValues("detect").Observe(stages["detect"])
	for _, a := range alerts {
		metrics.AlertsTotal.WithLabelValues(string(a.Kind), string(a.Severity)).Inc()
	}
	for _, derr := range detectErrs {
		logger.Errorf("Detector failed: %v", derr)
	}

	report := detect.Aggregate(alerts)
	logger.Infof("Detection complete: %d alerts across %d source IPs", len(alerts), len(report))

	result := &Result{Events: set.All(), Report: report, Alerts: alerts, Stats: stats}
	result.Summary = p.buildSummary(stats, set, alerts, report, detectErrs, tagged, stages, runStart)

	// Load.
	start = time.Now()
	if err := p.load(result); err != nil {
		return nil, err
	}
	stages["load"] = time.Since(start).Seconds()
	metrics.StageDuration.WithLabelValues("load").Observe(stages["load"])
	result.Summary.StageSeconds = stages

	logger.Infof("Pipeline finished in %.3fs (extract=%.3fs transform=%.3fs detect=%.3fs load=%.3fs)",
		time.Since(runStart).Seconds(), stages["extract"], stages["transform"], stages["detect"], stages["load"])
	return result, nil
}

func (p *Pipeline) load(result *Result) error {
	if p.eventWriter != nil {
		if err := p.eventWriter.WriteEvents(result.Events); err != nil {
			return fmt.Errorf("write events: %w", err)
		}
	}
	if p.cfg.EventCSVPath != "" {
		if err := eventcsv.WriteEvents(p.cfg.EventCSVPath, result.Events); err != nil {
			return err
		}
	}
	if p.reportWriter != nil {
		if err := p.reportWriter.WriteReport(result.Report); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	if p.cfg.AlertCSVPath != "" {
		if err := alertcsv.WriteReport(p.cfg.AlertCSVPath, result.Report); err != nil {
			return err
		}
	}
	if p.cfg.SummaryPath != "" {
		if err := writeSummary(p.cfg.SummaryPath, result.Summary); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) buildSummary(stats events.Stats, set *events.Set, alerts []models.Alert, report []models.AggregatedAlert, detectErrs []error, tagged int, stages map[string]float64, runStart time.Time) Summary {
	s := Summary{
		GeneratedAt:  time.Now().UTC(),
		Lines:        stats.Lines,
		Parsed:       stats.Parsed,
		Failed:       stats.Failed,
		SuccessRate:  stats.SuccessRate(),
		TaggedEvents: tagged,
		Alerts:       len(alerts),
		AlertsByKind: make(map[string]int),
		StageSeconds: stages,
	}

	ips := make(map[string]struct{})
	users := make(map[string]struct{})
	internal := 0
	for _, ev := range set.All() {
		ips[ev.SourceIP] = struct{}{}
		if ev.Username != "" {
			users[ev.Username] = struct{}{}
		}
		if ev.Failed() {
			s.FailedLogins++
		}
		if ev.Internal {
			internal++
		}
	}
	s.UniqueIPs = len(ips)
	s.UniqueUsers = len(users)
	if set.Len() > 0 {
		s.InternalPct = float64(internal) / float64(set.Len()) * 100
		first := set.All()[0].Timestamp
		last := set.All()[set.Len()-1].Timestamp
		s.SpanStart = &first
		s.SpanEnd = &last
	}

	for _, a := range alerts {
		s.AlertsByKind[string(a.Kind)]++
		if a.Severity == models.SeverityCritical {
			s.CriticalThreats++
		}
	}
	s.AggregatedAlerts = len(report)
	for _, derr := range detectErrs {
		s.DetectorErrors = append(s.DetectorErrors, derr.Error())
	}
	return s
}

func writeSummary(path string, summary Summary) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create summary directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	logger.Infof("Summary written: %s", path)
	return nil
}
