package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the timestamp layout written between the first pair of brackets.
const TimeLayout = "2006-01-02 15:04:05.999999999 -07:00"

var ErrMalformedLine = errors.New("malformed log line")

// LogRecord is a single client report before it is rendered.
// Only its rendered line outlives the request.
type LogRecord struct {
	Severity Severity
	Message  string
	Time     time.Time
}

// Line is one rendered, newline-terminated log line.
type Line string

// Len returns the number of bytes the line occupies on disk.
func (l Line) Len() int {
	return len(l)
}

// Format renders "[<timestamp>] [<SEVERITY>] <message>\n".
// The message is taken verbatim, embedded newlines included.
func Format(sev Severity, message string, now time.Time) Line {
	var b strings.Builder
	b.Grow(len(TimeLayout) + len(message) + 16)
	b.WriteByte('[')
	b.WriteString(now.Format(TimeLayout))
	b.WriteString("] [")
	b.WriteString(sev.Upper())
	b.WriteString("] ")
	b.WriteString(message)
	b.WriteByte('\n')
	return Line(b.String())
}

// Line renders the record.
func (r LogRecord) Line() Line {
	return Format(r.Severity, r.Message, r.Time)
}

// ParseLine recovers a record from a line produced by Format.
// Messages containing newlines cannot be recovered from a single line.
func ParseLine(line string) (LogRecord, error) {
	line = strings.TrimSuffix(line, "\n")

	rest, ok := strings.CutPrefix(line, "[")
	if !ok {
		return LogRecord{}, ErrMalformedLine
	}
	ts, rest, ok := strings.Cut(rest, "] [")
	if !ok {
		return LogRecord{}, ErrMalformedLine
	}
	level, msg, ok := strings.Cut(rest, "] ")
	if !ok {
		return LogRecord{}, ErrMalformedLine
	}

	t, err := time.Parse(TimeLayout, ts)
	if err != nil {
		return LogRecord{}, fmt.Errorf("%w: timestamp: %v", ErrMalformedLine, err)
	}
	sev, ok := ParseSeverity(level)
	if !ok {
		return LogRecord{}, fmt.Errorf("%w: unknown severity %q", ErrMalformedLine, level)
	}

	return LogRecord{Severity: sev, Message: msg, Time: t}, nil
}
