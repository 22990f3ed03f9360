package rules

import (
	"os"
	"path/filepath"
	"testing"

	"authwatch/pkg/models"
)

const rootFailureRule = `title: Root Password Failure
id: aw-001
level: high
logsource:
    product: linux
    service: sshd
detection:
    selection:
        User: root
        Outcome: failure
    condition: selection
tags:
    - attack.credential_access
    - attack.t1110
`

const windowsRule = `title: Windows Logon Failure
logsource:
    product: windows
detection:
    selection:
        EventID: 4625
    condition: selection
`

const aggregationRule = `title: Counted Failures
logsource:
    service: sshd
detection:
    selection:
        Outcome: failure
    condition: selection | count() > 5
`

func writeRuleDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"root_failure.yml": rootFailureRule,
		"windows.yml":      windowsRule,
		"aggregated.yml":   aggregationRule,
		"broken.yml":       ":::not a rule",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write rule: %v", err)
		}
	}
	return dir
}

func TestNewSigmaEngineLoadStats(t *testing.T) {
	dir := writeRuleDir(t)

	engine, stats, err := NewSigmaEngine(dir)
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	if stats.TotalFiles != 4 {
		t.Fatalf("total files = %d", stats.TotalFiles)
	}
	if stats.Loaded != 1 {
		t.Fatalf("loaded = %d", stats.Loaded)
	}
	if stats.SkippedDatasource != 1 || stats.SkippedComplex != 1 || stats.SkippedInvalid != 1 {
		t.Fatalf("skip counters = %+v", stats)
	}
	if engine == nil {
		t.Fatalf("nil engine")
	}
}

func TestSigmaEngineApply(t *testing.T) {
	dir := writeRuleDir(t)

	engine, _, err := NewSigmaEngine(dir)
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}

	tags := engine.Apply(&models.AuthEvent{
		Username: "root",
		SourceIP: "45.142.212.61",
		Outcome:  models.OutcomeFailure,
	})
	if len(tags) != 1 {
		t.Fatalf("tags = %+v", tags)
	}
	tag := tags[0]
	if tag.ID != "aw-001" || tag.Severity != "high" {
		t.Fatalf("tag = %+v", tag)
	}
	if tag.Tactic != "credential-access" || tag.Technique != "T1110" {
		t.Fatalf("attack tags = %q / %q", tag.Tactic, tag.Technique)
	}

	if tags := engine.Apply(&models.AuthEvent{
		Username: "john",
		Outcome:  models.OutcomeSuccess,
	}); tags != nil {
		t.Fatalf("expected no match, got %+v", tags)
	}
}

func TestNoopEngine(t *testing.T) {
	var e NoopEngine
	if tags := e.Apply(&models.AuthEvent{Username: "root"}); tags != nil {
		t.Fatalf("noop must not tag, got %+v", tags)
	}
}

func TestParseAttackTags(t *testing.T) {
	tactic, technique := parseAttackTags([]string{
		"attack.initial_access",
		"attack.t1110.001",
		"cve.2024.1234",
	})
	if tactic != "initial-access" {
		t.Fatalf("tactic = %q", tactic)
	}
	if technique != "T1110/001" {
		t.Fatalf("technique = %q", technique)
	}
}
