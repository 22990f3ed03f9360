package models

import "time"

// Outcome is the result of an authentication attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// AuthEvent is one parsed SSH authentication record. It is immutable
// once constructed; the parser is the only producer.
type AuthEvent struct {
	Timestamp time.Time `json:"timestamp"`
	SourceIP  string    `json:"source_ip"`
	Username  string    `json:"username,omitempty"`
	Outcome   Outcome   `json:"outcome"`
	Port      int       `json:"port,omitempty"`
	PID       int       `json:"pid,omitempty"`
	Host      string    `json:"host,omitempty"`
	// InvalidUser is set when sshd reported the account as unknown.
	InvalidUser bool `json:"invalid_user,omitempty"`
	// Internal marks source IPs inside the configured private ranges.
	Internal bool      `json:"internal"`
	Tags     []RuleTag `json:"tags,omitempty"`
}

// Failed reports whether the attempt was rejected.
func (e *AuthEvent) Failed() bool {
	return e != nil && e.Outcome == OutcomeFailure
}

// ParseFailure records a line the parser could not recognize.
// Failures are diagnostic only and never retried.
type ParseFailure struct {
	Raw    string `json:"raw"`
	Reason string `json:"reason"`
}

// RuleTag annotates an event with a matched detection rule.
type RuleTag struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Severity  string `json:"severity,omitempty"`
	Tactic    string `json:"tactic,omitempty"`
	Technique string `json:"technique,omitempty"`
}
