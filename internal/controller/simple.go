package controller

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	m "jsgate.dev/pkg/jsgate/internal/model"
)

// SimpleUI implements UI with plain text written to the command output.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, _ ...StartOption) error {
	return ctx.Err()
}

// Close finalizes the UI.
func (s *SimpleUI) Close(context.Context) {}

// Wait returns immediately; SimpleUI never blocks.
func (s *SimpleUI) Wait(context.Context) {}

// DisplaySources prints the files a scan would analyze.
func (s *SimpleUI) DisplaySources(ctx context.Context, sources []m.Source) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s", renderSourcesTable(sources))

	return nil
}

// DisplayScanInfo shows what the scan is about to do.
func (s *SimpleUI) DisplayScanInfo(ctx context.Context, info ScanInfo) {
	if ctx.Err() != nil {
		return
	}

	s.printf("Scanning %d file(s) (%d cached) with %d worker(s) (Shard %d/%d)\n",
		info.Files, info.Cached, info.Threads, info.ShardIndex, info.ShardCount)
}

// DisplayFileReport prints one finished file and its messages.
func (s *SimpleUI) DisplayFileReport(ctx context.Context, report m.FileReport) {
	if ctx.Err() != nil {
		return
	}

	s.printf("%-7s %s\n", report.Status, report.Path)

	if report.Error != "" {
		s.printf("  error: %s\n", report.Error)
	}

	for _, msg := range report.Messages {
		s.printf("  %s\n", formatMessage(msg))
	}
}

// DisplayReports prints stored reports as a table followed by their messages.
func (s *SimpleUI) DisplayReports(ctx context.Context, reports []m.FileReport, summary m.Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s", renderReportsTable(reports, summary))

	if details := renderMessages(reports); details != "" {
		s.printf("\n%s", details)
	}

	return nil
}

// DisplaySummary prints the final verdict line.
func (s *SimpleUI) DisplaySummary(ctx context.Context, summary m.Summary) {
	if ctx.Err() != nil {
		return
	}

	s.printf("%s\n", renderSummary(summary))
}

// DisplayRules prints the registry entries.
func (s *SimpleUI) DisplayRules(ctx context.Context, rules []m.RuleInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s", renderRulesTable(rules))

	return nil
}

// DisplayDiff prints a unified diff of two report sets.
func (s *SimpleUI) DisplayDiff(ctx context.Context, diff string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if diff == "" {
		s.printf("no differences\n")
		return nil
	}

	s.printf("%s", diff)

	return nil
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
