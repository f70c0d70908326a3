package domain

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	m "jsgate.dev/pkg/jsgate/internal/model"
)

const diffContext = 3

// DiffReports returns a unified diff of two report sets in their canonical
// text form. Equal sets yield an empty string.
func DiffReports(oldName string, before []m.FileReport, newName string, after []m.FileReport) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(CanonicalText(before)),
		B:        difflib.SplitLines(CanonicalText(after)),
		FromFile: oldName,
		ToFile:   newName,
		Context:  diffContext,
	})
}

// CanonicalText renders reports one line per file and message, ordered by
// path, so that equal analyses render identically.
func CanonicalText(reports []m.FileReport) string {
	sorted := append([]m.FileReport(nil), reports...)
	sortReports(sorted)

	var b strings.Builder

	for _, r := range sorted {
		fmt.Fprintf(&b, "%s: %s\n", r.Path, r.Status)

		if r.Error != "" {
			fmt.Fprintf(&b, "  error: %s\n", r.Error)
		}

		for _, msg := range r.Messages {
			fmt.Fprintf(&b, "  %s %s %s: %s", msg.Location, msg.Severity, msg.Code, msg.Message)

			if msg.API != "" {
				fmt.Fprintf(&b, " (%s)", msg.API)
			}

			b.WriteString("\n")
		}
	}

	return b.String()
}
