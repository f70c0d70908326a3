// Package rules holds the host API knowledge the analysis engine consults:
// the XPCOM Components namespace, web-platform globals and a YAML catalog of
// further entries.
package rules

import (
	"fmt"
	"log/slog"

	"jsgate.dev/pkg/jsgate/internal/domain/engine"
	m "jsgate.dev/pkg/jsgate/internal/model"
)

// Option configures New.
type Option func(*config)

type config struct {
	catalogFiles []string
}

// WithCatalogFile adds a YAML catalog on top of the built-in knowledge.
// Empty paths are ignored.
func WithCatalogFile(path string) Option {
	return func(c *config) {
		if path != "" {
			c.catalogFiles = append(c.catalogFiles, path)
		}
	}
}

// New builds a registry from the built-in rules plus any catalog files.
func New(opts ...Option) (*engine.Registry, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	b := engine.NewRegistryBuilder()
	registerGlobals(b)
	registerXPCOM(b)

	builtin, err := ParseCatalog(defaultCatalog)
	if err != nil {
		return nil, fmt.Errorf("built-in catalog: %w", err)
	}

	if err := builtin.Apply(b); err != nil {
		return nil, fmt.Errorf("built-in catalog: %w", err)
	}

	for _, path := range cfg.catalogFiles {
		c, err := LoadCatalog(path)
		if err != nil {
			return nil, err
		}

		if err := c.Apply(b); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		slog.Debug("Loaded rule catalog", "path", path, "rules", len(c.Rules))
	}

	reg, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build registry: %w", err)
	}

	return reg, nil
}

// Describe lists the registry entries for display.
func Describe(reg *engine.Registry) []m.RuleInfo {
	entries := reg.Entries()
	out := make([]m.RuleInfo, 0, len(entries))

	for _, e := range entries {
		info := m.RuleInfo{
			Pattern:     e.Pattern.String(),
			Behavior:    e.Behavior.Kind.String(),
			Code:        e.Behavior.Code,
			Description: e.Description,
		}

		if e.Behavior.Kind == engine.Flag {
			info.Severity = e.Behavior.Severity.String()
		}

		out = append(out, info)
	}

	return out
}
