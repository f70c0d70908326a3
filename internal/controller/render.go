package controller

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"

	m "jsgate.dev/pkg/jsgate/internal/model"
)

const shortHashLen = 12

func newTable(buf *bytes.Buffer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(buf)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)

	return table
}

func renderSourcesTable(sources []m.Source) string {
	var buf bytes.Buffer

	table := newTable(&buf, []string{"Path", "Hash"})

	for _, src := range sources {
		if src.Origin == nil {
			continue
		}

		table.Append([]string{string(src.Origin.ShortPath), shortHash(src.Origin.Hash)})
	}

	table.SetFooter([]string{fmt.Sprintf("Total Files %d", len(sources)), ""})
	table.Render()

	return buf.String()
}

func renderReportsTable(reports []m.FileReport, summary m.Summary) string {
	var buf bytes.Buffer

	table := newTable(&buf, []string{"Path", "Status", "Failures", "Warnings", "Notices"})
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_CENTER, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_CENTER,
	})

	for _, r := range reports {
		table.Append([]string{
			string(r.Path),
			r.Status.String(),
			fmt.Sprintf("%d", r.Count(m.SeverityFailure)+r.Count(m.SeverityIncomplete)),
			fmt.Sprintf("%d", r.Count(m.SeverityWarning)),
			fmt.Sprintf("%d", r.Count(m.SeverityNotice)),
		})
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Files %d", summary.Files),
		verdictLabel(summary),
		fmt.Sprintf("%d", summary.Failures+summary.Incomplete),
		fmt.Sprintf("%d", summary.Warnings),
		fmt.Sprintf("%d", summary.Notices),
	})
	table.Render()

	return buf.String()
}

func renderRulesTable(rules []m.RuleInfo) string {
	var buf bytes.Buffer

	table := newTable(&buf, []string{"Pattern", "Behavior", "Severity", "Code", "Description"})

	for _, r := range rules {
		table.Append([]string{r.Pattern, r.Behavior, r.Severity, r.Code, r.Description})
	}

	table.Render()

	return buf.String()
}

// renderMessages lists the messages of each report that has any.
func renderMessages(reports []m.FileReport) string {
	var b strings.Builder

	for _, r := range reports {
		if len(r.Messages) == 0 && r.Error == "" {
			continue
		}

		fmt.Fprintf(&b, "%s\n", r.Path)

		if r.Error != "" {
			fmt.Fprintf(&b, "  error: %s\n", r.Error)
		}

		for _, msg := range r.Messages {
			fmt.Fprintf(&b, "  %s\n", formatMessage(msg))
		}
	}

	return b.String()
}

func formatMessage(msg m.Message) string {
	line := fmt.Sprintf("%s %-10s %s: %s", msg.Location, msg.Severity, msg.Code, msg.Message)
	if msg.API != "" {
		line += " (" + msg.API + ")"
	}

	return line
}

func renderSummary(summary m.Summary) string {
	return fmt.Sprintf("%s: %d file(s), %d passed, %d failed, %d errored",
		verdictLabel(summary), summary.Files, summary.Passed, summary.Failed, summary.Errored)
}

func verdictLabel(summary m.Summary) string {
	if summary.OK() {
		return "PASSED"
	}

	return "FAILED"
}

func shortHash(hash string) string {
	if len(hash) > shortHashLen {
		return hash[:shortHashLen]
	}

	return hash
}
