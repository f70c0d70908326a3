package engine

// BindingKind records how a name entered a scope.
type BindingKind int

const (
	// BindingVar is a function-scoped `var` or function declaration.
	BindingVar BindingKind = iota
	// BindingLexical is a block-scoped `let` or `const`.
	BindingLexical
	// BindingImplicit is created by assigning to an undeclared name.
	BindingImplicit
	// BindingHost is a namespace the host predefines.
	BindingHost
)

func (k BindingKind) String() string {
	switch k {
	case BindingLexical:
		return "let-or-const"
	case BindingImplicit:
		return "global-implicit"
	case BindingHost:
		return "host"
	default:
		return "var"
	}
}

// Binding is one named slot of a scope frame.
type Binding struct {
	Name  string
	Kind  BindingKind
	Value Value
}

// Scope is one frame of the lexical scope chain. Every frame except the
// global one has exactly one parent.
type Scope struct {
	parent   *Scope
	function bool
	names    []string
	bindings map[string]*Binding
}

// NewGlobalScope returns an empty root frame.
func NewGlobalScope() *Scope {
	return &Scope{function: true, bindings: map[string]*Binding{}}
}

// Child returns a block frame nested in s.
func (s *Scope) Child() *Scope {
	return &Scope{parent: s, bindings: map[string]*Binding{}}
}

// FunctionChild returns a function frame nested in s. `var` declarations
// inside it stop here.
func (s *Scope) FunctionChild() *Scope {
	return &Scope{parent: s, function: true, bindings: map[string]*Binding{}}
}

// Parent returns the enclosing frame, nil for the global frame.
func (s *Scope) Parent() *Scope { return s.parent }

// Global returns the root frame.
func (s *Scope) Global() *Scope {
	for s.parent != nil {
		s = s.parent
	}

	return s
}

// IsGlobal reports whether s is the root frame.
func (s *Scope) IsGlobal() bool { return s.parent == nil }

// Declare binds name in the frame the kind targets: `var` goes to the nearest
// function (or global) frame, everything else to s. Redeclaring overwrites the
// value. A nil v keeps an existing value and otherwise binds undefined.
func (s *Scope) Declare(name string, kind BindingKind, v Value) {
	target := s
	if kind == BindingVar || kind == BindingImplicit {
		for !target.function {
			target = target.parent
		}
	}

	if b, ok := target.bindings[name]; ok {
		if v != nil {
			b.Value = v
		}

		b.Kind = kind

		return
	}

	if v == nil {
		v = Undefined()
	}

	target.names = append(target.names, name)
	target.bindings[name] = &Binding{Name: name, Kind: kind, Value: v}
}

// Resolve finds the nearest binding for name.
func (s *Scope) Resolve(name string) (*Binding, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if b, ok := cur.bindings[name]; ok {
			return b, true
		}
	}

	return nil, false
}

// Lookup returns the value bound to name. Undeclared names are not an error:
// they evaluate to an implicit wildcard carrying the name as its path.
func (s *Scope) Lookup(name string) Value {
	if b, ok := s.Resolve(name); ok {
		return b.Value
	}

	return Wildcard{Path: Path{name}, Implicit: true}
}

// Assign updates the nearest binding of name. When none exists the name
// becomes a global-implicit binding of the root frame.
func (s *Scope) Assign(name string, v Value) {
	if b, ok := s.Resolve(name); ok {
		b.Value = v

		return
	}

	s.Global().Declare(name, BindingImplicit, v)
}

// Snapshot copies the bindings of s in declaration order.
func (s *Scope) Snapshot() *Snapshot {
	snap := &Snapshot{index: make(map[string]int, len(s.names))}
	for _, name := range s.names {
		snap.index[name] = len(snap.bindings)
		snap.bindings = append(snap.bindings, *s.bindings[name])
	}

	return snap
}

// Snapshot is a read-only copy of one scope frame.
type Snapshot struct {
	bindings []Binding
	index    map[string]int
}

// Get returns the value bound to name.
func (s *Snapshot) Get(name string) (Value, bool) {
	b, ok := s.Binding(name)

	return b.Value, ok
}

// Binding returns the full binding for name.
func (s *Snapshot) Binding(name string) (Binding, bool) {
	if s == nil {
		return Binding{}, false
	}

	i, ok := s.index[name]
	if !ok {
		return Binding{}, false
	}

	return s.bindings[i], true
}

// Names returns the bound names in declaration order.
func (s *Snapshot) Names() []string {
	if s == nil {
		return nil
	}

	out := make([]string, len(s.bindings))
	for i, b := range s.bindings {
		out[i] = b.Name
	}

	return out
}

// Bindings returns a copy of all bindings in declaration order.
func (s *Snapshot) Bindings() []Binding {
	if s == nil {
		return nil
	}

	return append([]Binding(nil), s.bindings...)
}
