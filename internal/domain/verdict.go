package domain

import (
	"jsgate.dev/pkg/jsgate/internal/domain/engine"
	m "jsgate.dev/pkg/jsgate/internal/model"
)

// Verdict maps one engine run to a file status.
func Verdict(result *engine.Result) m.Status {
	if result.Failed() {
		return m.Failed
	}

	return m.Passed
}

// Summarize aggregates reports into the submission verdict.
func Summarize(reports []m.FileReport) m.Summary {
	summary := m.Summary{Files: len(reports)}

	for _, r := range reports {
		switch r.Status {
		case m.Passed:
			summary.Passed++
		case m.Failed:
			summary.Failed++
		case m.Errored:
			summary.Errored++
		}

		summary.Failures += r.Count(m.SeverityFailure)
		summary.Warnings += r.Count(m.SeverityWarning)
		summary.Notices += r.Count(m.SeverityNotice)
		summary.Incomplete += r.Count(m.SeverityIncomplete)
	}

	return summary
}
