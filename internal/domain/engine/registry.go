package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"jsgate.dev/pkg/jsgate/internal/jsast"
	m "jsgate.dev/pkg/jsgate/internal/model"
)

// ErrDuplicateRule is returned by RegistryBuilder.Build when a pattern was
// registered twice.
var ErrDuplicateRule = errors.New("duplicate registry pattern")

// ErrEmptyPattern is returned by RegistryBuilder.Build for a pattern without
// segments.
var ErrEmptyPattern = errors.New("empty registry pattern")

// BehaviorKind selects how the evaluator treats a host API path.
type BehaviorKind int

const (
	// PassThrough continues symbolically with a wildcard result.
	PassThrough BehaviorKind = iota
	// Flag records a report entry for the call.
	Flag
	// Emulate computes a concrete result with a builder.
	Emulate
)

func (k BehaviorKind) String() string {
	switch k {
	case Flag:
		return "flag"
	case Emulate:
		return "emulate"
	default:
		return "pass-through"
	}
}

// Builder computes the result of an emulated call. It may record report
// entries through the call and returns nil to fall back to a wildcard.
type Builder func(call *Call) Value

// Behavior is the registry knowledge about one API path.
type Behavior struct {
	Kind     BehaviorKind
	Severity m.Severity
	Code     string
	Message  string
	Build    Builder
}

// Call describes one invocation of a host API handed to a Builder.
type Call struct {
	Path Path
	Args []Value
	New  bool
	Loc  jsast.Location

	record func(severity m.Severity, code, message string)
}

// Arg returns argument i or undefined when absent.
func (c *Call) Arg(i int) Value {
	if i < 0 || i >= len(c.Args) {
		return Undefined()
	}

	return c.Args[i]
}

// Record adds a report entry attributed to this call.
func (c *Call) Record(severity m.Severity, code, message string) {
	if c.record != nil {
		c.record(severity, code, message)
	}
}

// Entry is one registered pattern for listing.
type Entry struct {
	Pattern     Path
	Behavior    Behavior
	Description string
}

// Namespace is a host object predefined in every global scope.
type Namespace struct {
	Path    Path
	Members []string
}

type trieNode struct {
	children map[string]*trieNode
	behavior *Behavior
}

func (n *trieNode) child(seg string) *trieNode {
	if n.children == nil {
		n.children = map[string]*trieNode{}
	}

	c, ok := n.children[seg]
	if !ok {
		c = &trieNode{}
		n.children[seg] = c
	}

	return c
}

// Registry maps host API paths to behaviors. A built registry is read-only
// and may be shared by concurrent analysis runs.
type Registry struct {
	root        *trieNode
	entries     []Entry
	namespaces  []Namespace
	aliases     map[string]bool
	fingerprint string
}

// Lookup returns the behavior registered for path. Exact segments take
// precedence over `*`; unknown paths resolve to PassThrough.
func (r *Registry) Lookup(path Path) Behavior {
	if r != nil {
		if b := lookup(r.root, path); b != nil {
			return *b
		}
	}

	return Behavior{Kind: PassThrough}
}

func lookup(n *trieNode, path Path) *Behavior {
	if n == nil {
		return nil
	}

	if len(path) == 0 {
		return n.behavior
	}

	if b := lookup(n.children[path[0]], path[1:]); b != nil {
		return b
	}

	if path[0] == CallSegment {
		return nil
	}

	return lookup(n.children[AnySegment], path[1:])
}

// Entries returns the registered patterns in registration order.
func (r *Registry) Entries() []Entry {
	return append([]Entry(nil), r.entries...)
}

// Namespaces returns the host namespaces seeded into every global scope.
func (r *Registry) Namespaces() []Namespace {
	return append([]Namespace(nil), r.namespaces...)
}

// IsGlobalAlias reports whether name refers to the global object itself
// (window, self, globalThis).
func (r *Registry) IsGlobalAlias(name string) bool {
	return r != nil && r.aliases[name]
}

// Fingerprint is a digest of the registry content. Registries built from
// the same rules and sources share a fingerprint.
func (r *Registry) Fingerprint() string {
	if r == nil {
		return ""
	}

	return r.fingerprint
}

// RegistryBuilder accumulates registry knowledge before Build.
type RegistryBuilder struct {
	entries    []Entry
	namespaces []Namespace
	aliases    map[string]bool
	sources    []string
}

// NewRegistryBuilder returns an empty builder.
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{aliases: map[string]bool{}}
}

// Flag registers a path whose calls are reported with the given severity.
func (b *RegistryBuilder) Flag(pattern Path, severity m.Severity, code, message string) *RegistryBuilder {
	return b.Add(pattern, Behavior{Kind: Flag, Severity: severity, Code: code, Message: message}, message)
}

// Emulate registers a path whose calls are computed by build.
func (b *RegistryBuilder) Emulate(pattern Path, description string, build Builder) *RegistryBuilder {
	return b.Add(pattern, Behavior{Kind: Emulate, Build: build}, description)
}

// PassThrough registers a path explicitly known to be harmless.
func (b *RegistryBuilder) PassThrough(pattern Path, description string) *RegistryBuilder {
	return b.Add(pattern, Behavior{Kind: PassThrough}, description)
}

// Add registers an arbitrary behavior.
func (b *RegistryBuilder) Add(pattern Path, behavior Behavior, description string) *RegistryBuilder {
	b.entries = append(b.entries, Entry{Pattern: pattern.Append(), Behavior: behavior, Description: description})

	return b
}

// Namespace declares a frozen host object root with the given members.
func (b *RegistryBuilder) Namespace(root string, members ...string) *RegistryBuilder {
	for i, ns := range b.namespaces {
		if len(ns.Path) == 1 && ns.Path[0] == root {
			b.namespaces[i].Members = append(b.namespaces[i].Members, members...)

			return b
		}
	}

	b.namespaces = append(b.namespaces, Namespace{Path: Path{root}, Members: append([]string(nil), members...)})

	return b
}

// Source mixes raw rule content, such as a catalog file, into the registry
// fingerprint. Conditions compiled into builders are only visible this way.
func (b *RegistryBuilder) Source(content []byte) *RegistryBuilder {
	sum := sha256.Sum256(content)
	b.sources = append(b.sources, hex.EncodeToString(sum[:]))

	return b
}

// GlobalAlias declares names that refer to the global object.
func (b *RegistryBuilder) GlobalAlias(names ...string) *RegistryBuilder {
	for _, name := range names {
		b.aliases[name] = true
	}

	return b
}

// Build freezes the builder content into a Registry.
func (b *RegistryBuilder) Build() (*Registry, error) {
	r := &Registry{
		root:       &trieNode{},
		entries:    append([]Entry(nil), b.entries...),
		namespaces: append([]Namespace(nil), b.namespaces...),
		aliases:    make(map[string]bool, len(b.aliases)),
	}

	for name := range b.aliases {
		r.aliases[name] = true
	}

	for _, e := range r.entries {
		if len(e.Pattern) == 0 {
			return nil, ErrEmptyPattern
		}

		if e.Behavior.Kind == Emulate && e.Behavior.Build == nil {
			return nil, fmt.Errorf("emulated pattern %s has no builder", e.Pattern)
		}

		node := r.root
		for _, seg := range e.Pattern {
			node = node.child(seg)
		}

		if node.behavior != nil {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRule, e.Pattern)
		}

		behavior := e.Behavior
		node.behavior = &behavior
	}

	r.fingerprint = fingerprint(r, b.sources)

	return r, nil
}

func fingerprint(r *Registry, sources []string) string {
	h := sha256.New()

	for _, e := range r.entries {
		fmt.Fprintf(h, "entry %s %s %s %s %q %q\n",
			e.Pattern, e.Behavior.Kind, e.Behavior.Severity, e.Behavior.Code, e.Behavior.Message, e.Description)
	}

	for _, ns := range r.namespaces {
		fmt.Fprintf(h, "namespace %s %s\n", ns.Path, strings.Join(ns.Members, ","))
	}

	fmt.Fprintf(h, "aliases %s\n", strings.Join(slices.Sorted(maps.Keys(r.aliases)), ","))

	for _, s := range sources {
		fmt.Fprintf(h, "source %s\n", s)
	}

	return hex.EncodeToString(h.Sum(nil))
}
