package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"jsgate.dev/pkg/jsgate/internal/jsast"
)

// Value is the abstract value of an expression. The set of implementations
// is closed: Primitive, *Object, *Function, *Array and Wildcard.
type Value interface {
	isValue()
}

// PrimitiveKind is the JavaScript type of a Primitive.
type PrimitiveKind int

const (
	KindUndefined PrimitiveKind = iota
	KindNull
	KindBoolean
	KindNumber
	KindString
)

var primitiveKindNames = [...]string{
	KindUndefined: "undefined",
	KindNull:      "null",
	KindBoolean:   "boolean",
	KindNumber:    "number",
	KindString:    "string",
}

func (k PrimitiveKind) String() string {
	if int(k) < len(primitiveKindNames) {
		return primitiveKindNames[k]
	}

	return "primitive(" + strconv.Itoa(int(k)) + ")"
}

// Primitive is a known primitive value. Literal holds the source-level text:
// the unquoted content for strings, "true"/"false" for booleans.
type Primitive struct {
	Kind    PrimitiveKind
	Literal string
}

func (Primitive) isValue() {}

// Undefined returns the undefined primitive.
func Undefined() Primitive { return Primitive{Kind: KindUndefined} }

// Null returns the null primitive.
func Null() Primitive { return Primitive{Kind: KindNull} }

// String returns a string primitive.
func String(s string) Primitive { return Primitive{Kind: KindString, Literal: s} }

// Bool returns a boolean primitive.
func Bool(b bool) Primitive { return Primitive{Kind: KindBoolean, Literal: strconv.FormatBool(b)} }

// Number returns a number primitive.
func Number(f float64) Primitive {
	return Primitive{Kind: KindNumber, Literal: strconv.FormatFloat(f, 'g', -1, 64)}
}

// Text returns the string conversion of the primitive.
func (p Primitive) Text() string {
	switch p.Kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	default:
		return p.Literal
	}
}

// Float parses a number primitive.
func (p Primitive) Float() (float64, bool) {
	if p.Kind != KindNumber {
		return 0, false
	}

	f, err := strconv.ParseFloat(p.Literal, 64)
	if err != nil {
		return 0, false
	}

	return f, true
}

// Truthy returns the JavaScript truthiness of the primitive.
func (p Primitive) Truthy() bool {
	switch p.Kind {
	case KindBoolean:
		return p.Literal == "true"
	case KindNumber:
		f, ok := p.Float()

		return !ok || (f != 0 && !math.IsNaN(f))
	case KindString:
		return p.Literal != ""
	default:
		return false
	}
}

// Prop is one named entry used to construct an Object.
type Prop struct {
	Name  string
	Value Value
}

// Object is an immutable ordered property map. Host namespaces carry a path
// identity and are frozen: writes to them are refused.
type Object struct {
	keys   []string
	props  map[string]Value
	path   Path
	frozen bool
}

func (*Object) isValue() {}

// NewObject builds a plain object from props. Later duplicates overwrite
// earlier ones while keeping the first position.
func NewObject(props ...Prop) *Object {
	o := &Object{props: make(map[string]Value, len(props))}
	for _, p := range props {
		o.set(p.Name, p.Value)
	}

	return o
}

// NewNamespace builds a frozen host object identified by path.
func NewNamespace(path Path, props ...Prop) *Object {
	o := NewObject(props...)
	o.path = path
	o.frozen = true

	return o
}

func (o *Object) set(name string, v Value) {
	if _, ok := o.props[name]; !ok {
		o.keys = append(o.keys, name)
	}

	o.props[name] = v
}

// Get returns the property value.
func (o *Object) Get(name string) (Value, bool) {
	v, ok := o.props[name]

	return v, ok
}

// Has reports whether the property exists.
func (o *Object) Has(name string) bool {
	_, ok := o.props[name]

	return ok
}

// Keys returns property names in insertion order.
func (o *Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Len returns the number of properties.
func (o *Object) Len() int { return len(o.keys) }

// Path returns the namespace identity, nil for plain objects.
func (o *Object) Path() Path { return o.path }

// Frozen reports whether writes to the object are refused.
func (o *Object) Frozen() bool { return o.frozen }

// With returns a copy of o with name set to v. Frozen objects are returned
// unchanged together with false.
func (o *Object) With(name string, v Value) (*Object, bool) {
	if o.frozen {
		return o, false
	}

	c := &Object{
		keys:  append(make([]string, 0, len(o.keys)+1), o.keys...),
		props: make(map[string]Value, len(o.props)+1),
		path:  o.path,
	}
	for k, pv := range o.props {
		c.props[k] = pv
	}

	c.set(name, v)

	return c, true
}

// Function is a callable value. User functions carry their syntax and the
// scope they close over; host functions carry the registry path they resolve
// through.
type Function struct {
	Name   string
	Params []string
	Body   *jsast.Block
	Scope  *Scope
	Native Path

	decl *jsast.Function
}

func (*Function) isValue() {}

// NewNative returns a host function that resolves through the registry at path.
func NewNative(path Path) *Function {
	return &Function{Name: path.Last(), Native: path}
}

// IsNative reports whether the function is provided by the host.
func (f *Function) IsNative() bool { return f.Native != nil }

func (f *Function) path() Path {
	if f.Native != nil {
		return f.Native
	}

	if f.Name != "" {
		return Path{f.Name}
	}

	return Path{"<function>"}
}

// Array is an immutable ordered list of values.
type Array struct {
	elems []Value
}

func (*Array) isValue() {}

// NewArray builds an array from elems.
func NewArray(elems ...Value) *Array {
	return &Array{elems: append([]Value(nil), elems...)}
}

// Len returns the element count.
func (a *Array) Len() int { return len(a.elems) }

// At returns the element at i.
func (a *Array) At(i int) (Value, bool) {
	if i < 0 || i >= len(a.elems) {
		return nil, false
	}

	return a.elems[i], true
}

// Elements returns a copy of the elements.
func (a *Array) Elements() []Value {
	return append([]Value(nil), a.elems...)
}

// With returns a copy with element i replaced, growing with undefined as needed.
func (a *Array) With(i int, v Value) *Array {
	n := len(a.elems)
	if i >= n {
		n = i + 1
	}

	elems := make([]Value, n)
	copy(elems, a.elems)

	for j := len(a.elems); j < n; j++ {
		elems[j] = Undefined()
	}

	elems[i] = v

	return &Array{elems: elems}
}

// Wildcard stands for a value the engine cannot know precisely. Path records
// the member chain that produced it so that later calls still resolve
// against the registry.
type Wildcard struct {
	Path Path
	// Implicit is set for references to undeclared globals.
	Implicit bool
	// Flagged is set for results of calls the registry flagged.
	Flagged bool
}

func (Wildcard) isValue() {}

// Unknown returns an anonymous wildcard for results the engine does not track.
func Unknown() Wildcard { return Wildcard{Path: Path{"<expr>"}} }

// Unwrap returns the `value` payload of an object that carries one, or v
// itself.
func Unwrap(v Value) Value {
	if o, ok := v.(*Object); ok {
		if inner, ok := o.Get("value"); ok {
			return inner
		}
	}

	return v
}

// Describe renders v for reports and logs.
func Describe(v Value) string {
	switch v := v.(type) {
	case nil:
		return "<nil>"
	case Primitive:
		if v.Kind == KindString {
			return strconv.Quote(v.Literal)
		}

		return v.Text()
	case *Object:
		if v.path != nil {
			return v.path.String()
		}

		return "{" + strings.Join(v.keys, ", ") + "}"
	case *Function:
		if v.Native != nil {
			return "function " + v.Native.String()
		}

		return "function " + v.path().String()
	case *Array:
		return fmt.Sprintf("array(%d)", len(v.elems))
	case Wildcard:
		return "<" + v.Path.String() + ">"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// truthy returns the truthiness of v and whether it is known.
func truthy(v Value) (bool, bool) {
	switch v := v.(type) {
	case Primitive:
		return v.Truthy(), true
	case *Object, *Function, *Array:
		return true, true
	default:
		return false, false
	}
}

// rank orders values by how much they tell about host API use.
func rank(v Value) int {
	switch v := v.(type) {
	case Primitive:
		return 0
	case Wildcard:
		if v.Implicit || (len(v.Path) > 0 && strings.HasPrefix(v.Path[0], "<")) {
			return 1
		}

		return 2
	default:
		return 3
	}
}

// informative picks the more telling of two values whose selection depends on
// runtime state, preferring b on ties.
func informative(a, b Value) Value {
	if rank(a) > rank(b) {
		return a
	}

	return b
}

func typeOf(v Value) (string, bool) {
	switch v := v.(type) {
	case Primitive:
		if v.Kind == KindNull {
			return "object", true
		}

		return v.Kind.String(), true
	case *Function:
		return "function", true
	case *Object, *Array:
		return "object", true
	default:
		return "", false
	}
}
