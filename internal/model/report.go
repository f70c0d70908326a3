package model

import (
	"fmt"
	"strings"
)

// Severity classifies a recorded message.
type Severity int

const (
	// SeverityNotice marks informational entries such as unsupported constructs.
	SeverityNotice Severity = iota
	// SeverityWarning marks notable API use that needs a reviewer's eye.
	SeverityWarning
	// SeverityFailure marks a detected violation.
	SeverityFailure
	// SeverityIncomplete marks a structural fault that cut the analysis short.
	SeverityIncomplete
)

var severityNames = map[Severity]string{
	SeverityNotice:     "notice",
	SeverityWarning:    "warning",
	SeverityFailure:    "failure",
	SeverityIncomplete: "incomplete",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}

	return fmt.Sprintf("severity(%d)", int(s))
}

// Fails reports whether a message of this severity fails the submission.
func (s Severity) Fails() bool {
	return s == SeverityFailure || s == SeverityIncomplete
}

// ParseSeverity converts a textual severity (as found in rule catalogs).
func ParseSeverity(value string) (Severity, error) {
	needle := strings.ToLower(strings.TrimSpace(value))
	if needle == "error" {
		return SeverityFailure, nil
	}

	for severity, name := range severityNames {
		if name == needle {
			return severity, nil
		}
	}

	return SeverityNotice, fmt.Errorf("unknown severity %q", value)
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}

	*s = parsed

	return nil
}

// Location points at a line/column in a source file (both 1-based).
type Location struct {
	Line   int `yaml:"line"`
	Column int `yaml:"column"`
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// Message is one entry recorded during an analysis run.
type Message struct {
	Severity Severity `yaml:"severity"`
	Code     string   `yaml:"code"`
	Message  string   `yaml:"message"`
	API      string   `yaml:"api,omitempty"`
	Location Location `yaml:"location"`
}

// Binding summarizes one top-level variable of the final scope.
type Binding struct {
	Name  string `yaml:"name"`
	Kind  string `yaml:"kind"`
	Value string `yaml:"value"`
}

// Status represents the outcome of analyzing one file.
type Status int

const (
	// Passed indicates no failing message was recorded.
	Passed Status = iota
	// Failed indicates at least one failure or incomplete message.
	Failed
	// Errored indicates the file could not be analyzed at all.
	Errored
)

func (s Status) String() string {
	switch s {
	case Passed:
		return "passed"
	case Failed:
		return "failed"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "passed":
		*s = Passed
	case "failed":
		*s = Failed
	case "errored":
		*s = Errored
	default:
		return fmt.Errorf("unknown status %q", string(text))
	}

	return nil
}

// FileReport is the stored outcome of analyzing one source file.
type FileReport struct {
	Path     Path      `yaml:"path"`
	Hash     string    `yaml:"hash"`
	Status   Status    `yaml:"status"`
	Error    string    `yaml:"error,omitempty"`
	Messages []Message `yaml:"messages,omitempty"`
	Bindings []Binding `yaml:"bindings,omitempty"`
	// Fingerprint identifies the rules and limits the report was produced
	// with.
	Fingerprint string `yaml:"fingerprint,omitempty"`
}

// Count returns how many messages of the given severity the report holds.
func (r FileReport) Count(severity Severity) int {
	n := 0

	for _, msg := range r.Messages {
		if msg.Severity == severity {
			n++
		}
	}

	return n
}

// Summary aggregates file reports for display and exit status.
type Summary struct {
	Files      int
	Passed     int
	Failed     int
	Errored    int
	Failures   int
	Warnings   int
	Notices    int
	Incomplete int
}

// OK reports whether the submission passes the gate.
func (s Summary) OK() bool {
	return s.Failed == 0 && s.Errored == 0
}
