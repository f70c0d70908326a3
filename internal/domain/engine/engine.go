// Package engine implements the symbolic JavaScript evaluator that decides
// whether a submitted script uses host APIs in a disallowed way. It walks a
// jsast tree once, tracks approximate values through a lexical scope chain
// and consults a Registry whenever a host API path is called.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"jsgate.dev/pkg/jsgate/internal/jsast"
	m "jsgate.dev/pkg/jsgate/internal/model"
)

const (
	// DefaultMaxDepth bounds nested evaluation, including user-function calls.
	DefaultMaxDepth = 512
	// DefaultMaxNodes bounds the number of node visits of one run.
	DefaultMaxNodes = 2_000_000

	// Version identifies the analysis semantics. Stored reports produced by
	// another version are analyzed again.
	Version = 2
)

// Option configures an analysis run.
type Option func(*options)

type options struct {
	ctx      context.Context
	maxDepth int
	maxNodes int
}

// WithMaxDepth overrides DefaultMaxDepth. Non-positive values are ignored.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDepth = n
		}
	}
}

// WithMaxNodes overrides DefaultMaxNodes. Non-positive values are ignored.
func WithMaxNodes(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxNodes = n
		}
	}
}

// WithContext lets a caller cancel a long run. A cancelled run ends with an
// incomplete entry.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		o.ctx = ctx
	}
}

func resolve(opts []Option) options {
	o := options{
		ctx:      context.Background(),
		maxDepth: DefaultMaxDepth,
		maxNodes: DefaultMaxNodes,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// Settings describes the engine version and the limits opts resolve to.
// Reports are only comparable when their settings match.
func Settings(opts ...Option) string {
	o := resolve(opts)

	return fmt.Sprintf("engine=%d max_depth=%d max_nodes=%d", Version, o.maxDepth, o.maxNodes)
}

// Analyze walks program once and returns the collected report together with
// the final global scope. Runs share nothing but the read-only registry, so
// analyzing the same program twice yields identical results.
func Analyze(program *jsast.Program, registry *Registry, opts ...Option) *Result {
	o := resolve(opts)

	collector := NewCollector()
	global := seedGlobal(registry)

	if err := jsast.Check(program); err != nil {
		var loc jsast.Location
		if program != nil {
			loc = program.Loc()
		}

		slog.Debug("Rejected malformed syntax tree", "error", err)
		collector.Record(m.SeverityIncomplete, CodeMalformedTree, "analysis aborted: "+err.Error(), loc)

		return &Result{Messages: collector.Messages(), FinalScope: global.Snapshot()}
	}

	e := &evaluator{
		registry:  registry,
		collector: collector,
		opts:      o,
		global:    global,
		active:    map[*jsast.Function]bool{},
		invoked:   map[*jsast.Function]bool{},
		patterns:  map[*jsast.PatternSource]Value{},
	}
	e.run(program)

	slog.Debug("Analysis finished", "nodes", e.nodes, "messages", len(collector.messages), "failed", collector.Failed())

	return &Result{Messages: collector.Messages(), FinalScope: global.Snapshot(), Nodes: e.nodes}
}

// seedGlobal builds a fresh global frame holding the registry namespaces.
func seedGlobal(registry *Registry) *Scope {
	global := NewGlobalScope()
	if registry == nil {
		return global
	}

	for _, ns := range registry.namespaces {
		props := make([]Prop, 0, len(ns.Members))
		for _, member := range ns.Members {
			props = append(props, Prop{Name: member, Value: NewNamespace(ns.Path.Append(member))})
		}

		global.Declare(ns.Path[0], BindingHost, NewNamespace(ns.Path, props...))
	}

	return global
}
