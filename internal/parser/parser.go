package parser

import (
	"fmt"
	"net/netip"
	"regexp"
	"strconv"
	"time"

	"authwatch/pkg/models"
)

// linePattern recognizes sshd password authentication records:
//
//	Jan  2 15:04:05 host sshd[1234]: Failed password for invalid user admin from 45.142.212.61 port 54321 ssh2
//
// Usernames may contain dots, dashes and underscores.
var linePattern = regexp.MustCompile(
	`(\w{3})\s+(\d{1,2})\s+(\d{2}:\d{2}:\d{2})\s+(\S+)\s+sshd\[(\d+)\]:\s+` +
		`(Accepted|Failed)\s+password\s+for\s+(invalid user\s+)?([\w.\-]+)\s+from\s+` +
		`(\d{1,3}(?:\.\d{1,3}){3})\s+port\s+(\d+)`)

// Config controls parsing behavior.
type Config struct {
	// Year is injected into parsed timestamps since syslog records
	// omit it. Zero means the current year.
	Year int
	// Location for parsed timestamps. Nil means UTC.
	Location *time.Location
}

// Parser converts raw auth log lines into AuthEvents.
type Parser struct {
	year int
	loc  *time.Location
}

// New creates a parser.
func New(cfg Config) *Parser {
	if cfg.Year == 0 {
		cfg.Year = time.Now().Year()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Parser{year: cfg.Year, loc: cfg.Location}
}

// Parse converts one raw line into an AuthEvent or a ParseFailure.
// Exactly one of the two results is non-nil; Parse never panics and
// never aborts a batch.
func (p *Parser) Parse(line string) (*models.AuthEvent, *models.ParseFailure) {
	m := linePattern.FindStringSubmatch(line)
	if m == nil {
		return nil, &models.ParseFailure{Raw: line, Reason: "line does not match auth log grammar"}
	}

	month, day, clock, host := m[1], m[2], m[3], m[4]
	ts, err := time.ParseInLocation("2006 Jan 2 15:04:05",
		fmt.Sprintf("%d %s %s %s", p.year, month, day, clock), p.loc)
	if err != nil {
		return nil, &models.ParseFailure{Raw: line, Reason: fmt.Sprintf("bad timestamp: %v", err)}
	}

	addr, err := netip.ParseAddr(m[9])
	if err != nil {
		return nil, &models.ParseFailure{Raw: line, Reason: fmt.Sprintf("bad source address %q", m[9])}
	}

	pid, err := strconv.Atoi(m[5])
	if err != nil {
		return nil, &models.ParseFailure{Raw: line, Reason: fmt.Sprintf("bad pid %q", m[5])}
	}
	port, err := strconv.Atoi(m[10])
	if err != nil {
		return nil, &models.ParseFailure{Raw: line, Reason: fmt.Sprintf("bad port %q", m[10])}
	}

	outcome := models.OutcomeFailure
	if m[6] == "Accepted" {
		outcome = models.OutcomeSuccess
	}

	return &models.AuthEvent{
		Timestamp:   ts,
		SourceIP:    addr.String(),
		Username:    m[8],
		Outcome:     outcome,
		Port:        port,
		PID:         pid,
		Host:        host,
		InvalidUser: m[7] != "",
	}, nil
}
