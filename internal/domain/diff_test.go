package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jsgate.dev/pkg/jsgate/internal/domain"
	m "jsgate.dev/pkg/jsgate/internal/model"
)

func TestCanonicalText(t *testing.T) {
	reports := []m.FileReport{
		{Path: "b.js", Status: m.Errored, Error: "bad input"},
		{
			Path:   "a.js",
			Status: m.Failed,
			Messages: []m.Message{{
				Severity: m.SeverityFailure,
				Code:     "sandbox-eval",
				Message:  "dynamic evaluation in sandbox is disallowed",
				API:      "Components.utils.evalInSandbox",
				Location: m.Location{Line: 2, Column: 1},
			}},
		},
	}

	want := "a.js: failed\n" +
		"  2:1 failure sandbox-eval: dynamic evaluation in sandbox is disallowed (Components.utils.evalInSandbox)\n" +
		"b.js: errored\n" +
		"  error: bad input\n"

	assert.Equal(t, want, domain.CanonicalText(reports))
	assert.Equal(t, m.Path("b.js"), reports[0].Path, "input order must be preserved")
}

func TestDiffReports(t *testing.T) {
	before := []m.FileReport{{Path: "a.js", Status: m.Passed}, {Path: "b.js", Status: m.Passed}}
	after := []m.FileReport{{Path: "a.js", Status: m.Failed}, {Path: "b.js", Status: m.Passed}}

	diff, err := domain.DiffReports("old", before, "new", after)
	require.NoError(t, err)

	assert.Contains(t, diff, "--- old")
	assert.Contains(t, diff, "+++ new")
	assert.Contains(t, diff, "-a.js: passed")
	assert.Contains(t, diff, "+a.js: failed")
	assert.NotContains(t, diff, "-b.js")

	same, err := domain.DiffReports("old", before, "new", before)
	require.NoError(t, err)
	assert.Empty(t, same)
}
