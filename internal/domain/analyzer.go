// Package domain wires the analysis engine to files, reports and the UI.
package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"jsgate.dev/pkg/jsgate/internal/adapter"
	"jsgate.dev/pkg/jsgate/internal/domain/engine"
	"jsgate.dev/pkg/jsgate/internal/domain/rules"
	m "jsgate.dev/pkg/jsgate/internal/model"
)

// ErrNoOrigin is reported for sources that do not point at a file.
var ErrNoOrigin = errors.New("source without origin")

// Analyzer turns one source file into a report.
type Analyzer interface {
	Analyze(ctx context.Context, source m.Source) m.FileReport
	Rules() []m.RuleInfo
	// Fingerprint identifies the rules, parser and engine limits in use.
	// Stored reports with another fingerprint are stale.
	Fingerprint() string
}

type analyzer struct {
	fs          adapter.SourceFSAdapter
	parser      adapter.JSParserAdapter
	registry    *engine.Registry
	options     []engine.Option
	fingerprint string
}

// NewAnalyzer creates an Analyzer. The registry is shared by every run and
// must not be modified afterwards.
func NewAnalyzer(
	fs adapter.SourceFSAdapter,
	parser adapter.JSParserAdapter,
	registry *engine.Registry,
	options ...engine.Option,
) Analyzer {
	return &analyzer{
		fs:          fs,
		parser:      parser,
		registry:    registry,
		options:     options,
		fingerprint: fingerprint(registry.Fingerprint(), parser.Settings(), engine.Settings(options...)),
	}
}

func fingerprint(parts ...string) string {
	h := sha256.New()
	for _, part := range parts {
		fmt.Fprintln(h, part)
	}

	return hex.EncodeToString(h.Sum(nil))
}

// Analyze never fails: read and parse errors produce an Errored report.
func (a *analyzer) Analyze(ctx context.Context, source m.Source) m.FileReport {
	report := m.FileReport{Fingerprint: a.fingerprint}
	if source.Origin != nil {
		report.Path = source.Origin.ShortPath
		report.Hash = source.Origin.Hash
	}

	if source.Origin == nil {
		return errored(report, ErrNoOrigin)
	}

	content, err := a.fs.ReadFile(source.Origin.FullPath)
	if err != nil {
		return errored(report, fmt.Errorf("read: %w", err))
	}

	program, err := a.parser.Parse(ctx, content)
	if err != nil {
		return errored(report, fmt.Errorf("parse: %w", err))
	}

	opts := append([]engine.Option{engine.WithContext(ctx)}, a.options...)
	result := engine.Analyze(program, a.registry, opts...)

	report.Messages = result.Messages
	report.Status = Verdict(result)
	report.Bindings = bindings(result.FinalScope)

	slog.Debug("Analyzed file",
		"path", report.Path,
		"status", report.Status,
		"messages", len(report.Messages),
		"nodes", result.Nodes)

	return report
}

func (a *analyzer) Fingerprint() string {
	return a.fingerprint
}

func (a *analyzer) Rules() []m.RuleInfo {
	return rules.Describe(a.registry)
}

func errored(report m.FileReport, err error) m.FileReport {
	slog.Warn("Could not analyze file", "path", report.Path, "error", err)

	report.Status = m.Errored
	report.Error = err.Error()

	return report
}

// bindings lists the script's own globals; host namespaces are left out.
func bindings(snapshot *engine.Snapshot) []m.Binding {
	var out []m.Binding

	for _, b := range snapshot.Bindings() {
		if b.Kind == engine.BindingHost {
			continue
		}

		out = append(out, m.Binding{
			Name:  b.Name,
			Kind:  b.Kind.String(),
			Value: engine.Describe(b.Value),
		})
	}

	return out
}
