package model

import (
	"strings"
)

// Severity is one of the levels the ingestion endpoint accepts.
type Severity string

const (
	SeverityDebug   Severity = "debug"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Severities lists the accepted levels in their fixed order.
var Severities = []Severity{
	SeverityDebug,
	SeverityInfo,
	SeverityWarning,
	SeverityError,
}

// String returns the form field name of the severity.
func (s Severity) String() string {
	return string(s)
}

// Upper returns the label written into the log line.
func (s Severity) Upper() string {
	return strings.ToUpper(string(s))
}

// ParseSeverity matches either the field name or the log line label.
func ParseSeverity(s string) (Severity, bool) {
	sev := Severity(strings.ToLower(s))
	for _, known := range Severities {
		if sev == known {
			return known, true
		}
	}
	return "", false
}
