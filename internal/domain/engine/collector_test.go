package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"jsgate.dev/pkg/jsgate/internal/jsast"
	m "jsgate.dev/pkg/jsgate/internal/model"
)

func TestCollector(t *testing.T) {
	loc := jsast.Location{Line: 3, Column: 7}

	tests := []struct {
		name     string
		severity m.Severity
		failed   bool
	}{
		{name: "notice", severity: m.SeverityNotice, failed: false},
		{name: "warning", severity: m.SeverityWarning, failed: false},
		{name: "failure", severity: m.SeverityFailure, failed: true},
		{name: "incomplete", severity: m.SeverityIncomplete, failed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCollector()
			assert.False(t, c.Failed())

			c.Record(tt.severity, "code", "message", loc)
			assert.Equal(t, tt.failed, c.Failed())

			msgs := c.Messages()
			assert.Len(t, msgs, 1)
			assert.Equal(t, m.Location{Line: 3, Column: 7}, msgs[0].Location)
			assert.Empty(t, msgs[0].API)
		})
	}
}

func TestCollector_DeduplicatesByLocation(t *testing.T) {
	c := NewCollector()
	api := Path{"Components", "utils", "evalInSandbox"}

	c.RecordAPI(m.SeverityFailure, "sandbox-eval", "msg", api, jsast.Location{Line: 1, Column: 1})
	c.RecordAPI(m.SeverityFailure, "sandbox-eval", "msg", api, jsast.Location{Line: 1, Column: 1})
	c.RecordAPI(m.SeverityFailure, "sandbox-eval", "msg", api, jsast.Location{Line: 2, Column: 1})

	msgs := c.Messages()
	assert.Len(t, msgs, 2)
	assert.Equal(t, "Components.utils.evalInSandbox", msgs[0].API)
}
