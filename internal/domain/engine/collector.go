package engine

import (
	"fmt"

	"jsgate.dev/pkg/jsgate/internal/jsast"
	m "jsgate.dev/pkg/jsgate/internal/model"
)

// Message codes recorded by the engine itself.
const (
	CodeUnsupported   = "unsupported-construct"
	CodeTooComplex    = "too-complex"
	CodeMalformedTree = "malformed-tree"
	CodeHostOverwrite = "host-overwrite"
)

// Collector accumulates report entries of one analysis run. Identical
// entries at the same location are kept once, so walking a function body a
// second time does not duplicate its findings.
type Collector struct {
	messages []m.Message
	seen     map[string]bool
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{seen: map[string]bool{}}
}

// Record appends an entry.
func (c *Collector) Record(severity m.Severity, code, message string, loc jsast.Location) {
	c.RecordAPI(severity, code, message, nil, loc)
}

// RecordAPI appends an entry attributed to a host API path.
func (c *Collector) RecordAPI(severity m.Severity, code, message string, api Path, loc jsast.Location) {
	msg := m.Message{
		Severity: severity,
		Code:     code,
		Message:  message,
		Location: m.Location{Line: loc.Line, Column: loc.Column},
	}
	if api != nil {
		msg.API = api.String()
	}

	key := fmt.Sprintf("%d|%s|%s|%s|%d:%d", msg.Severity, msg.Code, msg.Message, msg.API, loc.Line, loc.Column)
	if c.seen[key] {
		return
	}

	c.seen[key] = true
	c.messages = append(c.messages, msg)
}

// Failed reports whether any failure or incomplete entry was recorded.
func (c *Collector) Failed() bool {
	for _, msg := range c.messages {
		if msg.Severity.Fails() {
			return true
		}
	}

	return false
}

// Messages returns the entries in record order.
func (c *Collector) Messages() []m.Message {
	return append([]m.Message(nil), c.messages...)
}

// Result is the outcome of one analysis run.
type Result struct {
	Messages   []m.Message
	FinalScope *Snapshot
	// Nodes is the number of syntax nodes visited.
	Nodes int
}

// Failed reports whether the run recorded a failure or incomplete entry.
func (r *Result) Failed() bool {
	for _, msg := range r.Messages {
		if msg.Severity.Fails() {
			return true
		}
	}

	return false
}
