// Package controller renders analysis results for the terminal.
package controller

import (
	"context"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	m "jsgate.dev/pkg/jsgate/internal/model"
)

// StartMode defines the mode of operation for the UI.
type StartMode int

// Available StartMode values.
const (
	ModeList StartMode = iota
	ModeScan
	ModeView
)

// StartOption is a functional option for Start.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode StartMode
}

// WithListMode sets the UI to source listing mode.
func WithListMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeList
	}
}

// WithScanMode sets the UI to scan progress mode.
func WithScanMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeScan
	}
}

// WithViewMode sets the UI to stored report viewing mode.
func WithViewMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeView
	}
}

// ScanInfo describes a scan before it starts.
type ScanInfo struct {
	Files      int
	Cached     int
	Threads    int
	ShardIndex int
	ShardCount int
}

// UI displays workflow progress and results.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	Wait(ctx context.Context)
	DisplaySources(ctx context.Context, sources []m.Source) error
	DisplayScanInfo(ctx context.Context, info ScanInfo)
	DisplayFileReport(ctx context.Context, report m.FileReport)
	DisplayReports(ctx context.Context, reports []m.FileReport, summary m.Summary) error
	DisplaySummary(ctx context.Context, summary m.Summary)
	DisplayRules(ctx context.Context, rules []m.RuleInfo) error
	DisplayDiff(ctx context.Context, diff string) error
}

// NewUI returns the interactive TUI on a terminal and SimpleUI otherwise.
func NewUI(cmd *cobra.Command, tty bool) UI {
	if tty {
		return NewTUI(cmd.OutOrStdout())
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
