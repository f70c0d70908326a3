package rules

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"jsgate.dev/pkg/jsgate/internal/domain/engine"
	m "jsgate.dev/pkg/jsgate/internal/model"
)

//go:embed default_rules.yaml
var defaultCatalog []byte

// CatalogVersion is the catalog format this build understands.
const CatalogVersion = 1

// ErrInvalidCatalog is returned for catalogs that cannot be applied.
var ErrInvalidCatalog = errors.New("invalid rule catalog")

const (
	behaviorFlag        = "flag"
	behaviorPassThrough = "pass-through"

	whenString  = "string"
	whenDynamic = "dynamic"
)

// Catalog is the YAML form of additional registry knowledge.
type Catalog struct {
	Version       int            `yaml:"version"`
	GlobalAliases []string       `yaml:"global_aliases,omitempty"`
	Namespaces    []NamespaceDef `yaml:"namespaces,omitempty"`
	Rules         []RuleDef      `yaml:"rules"`

	raw []byte
}

// NamespaceDef declares a host object predefined in every global scope.
type NamespaceDef struct {
	Root    string   `yaml:"root"`
	Members []string `yaml:"members,omitempty"`
}

// RuleDef is one catalog entry keyed by API path.
type RuleDef struct {
	Path     string `yaml:"path"`
	Behavior string `yaml:"behavior"`
	Severity string `yaml:"severity,omitempty"`
	Code     string `yaml:"code,omitempty"`
	Message  string `yaml:"message,omitempty"`
	// ArgIndex restricts a flag to calls whose argument matches When.
	ArgIndex *int   `yaml:"arg_index,omitempty"`
	When     string `yaml:"when,omitempty"`
}

// ParseCatalog decodes a catalog, rejecting unknown fields.
func ParseCatalog(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}

	if c.Version != CatalogVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidCatalog, c.Version)
	}

	c.raw = data

	return &c, nil
}

// LoadCatalog reads and decodes a catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule catalog %s: %w", path, err)
	}

	c, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return c, nil
}

// Apply adds the catalog content to b.
func (c *Catalog) Apply(b *engine.RegistryBuilder) error {
	if c.raw != nil {
		b.Source(c.raw)
	}

	b.GlobalAlias(c.GlobalAliases...)

	for _, ns := range c.Namespaces {
		if ns.Root == "" {
			return fmt.Errorf("%w: namespace without root", ErrInvalidCatalog)
		}

		b.Namespace(ns.Root, ns.Members...)
	}

	for i, def := range c.Rules {
		if err := def.apply(b); err != nil {
			return fmt.Errorf("rule %d (%s): %w", i, def.Path, err)
		}
	}

	return nil
}

func (def RuleDef) apply(b *engine.RegistryBuilder) error {
	path, err := engine.ParsePath(def.Path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}

	switch def.Behavior {
	case behaviorPassThrough:
		b.PassThrough(path, def.Message)

		return nil
	case behaviorFlag:
	default:
		return fmt.Errorf("%w: unknown behavior %q", ErrInvalidCatalog, def.Behavior)
	}

	if def.Code == "" || def.Message == "" {
		return fmt.Errorf("%w: flag rules need a code and a message", ErrInvalidCatalog)
	}

	severity := m.SeverityWarning
	if def.Severity != "" {
		if severity, err = m.ParseSeverity(def.Severity); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
		}
	}

	if def.ArgIndex == nil {
		b.Flag(path, severity, def.Code, def.Message)

		return nil
	}

	if def.When != whenString && def.When != whenDynamic {
		return fmt.Errorf("%w: arg_index needs when: %s or %s", ErrInvalidCatalog, whenString, whenDynamic)
	}

	index, when, code, message := *def.ArgIndex, def.When, def.Code, def.Message

	b.Emulate(path, message, func(call *engine.Call) engine.Value {
		_, literal := call.Arg(index).(engine.Primitive)
		if literal == (when == whenString) {
			call.Record(severity, code, message)
		}

		return nil
	})

	return nil
}
