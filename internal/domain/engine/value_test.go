package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObject_WithIsCopyOnWrite(t *testing.T) {
	a := NewObject(Prop{Name: "x", Value: Number(1)})

	b, ok := a.With("y", String("two"))
	require.True(t, ok)

	assert.False(t, a.Has("y"))
	assert.Equal(t, []string{"x"}, a.Keys())
	assert.Equal(t, []string{"x", "y"}, b.Keys())

	c, ok := b.With("x", Bool(true))
	require.True(t, ok)

	v, _ := c.Get("x")
	assert.Equal(t, Bool(true), v)
	assert.Equal(t, []string{"x", "y"}, c.Keys(), "overwrite keeps position")

	v, _ = b.Get("x")
	assert.Equal(t, Number(1), v)
}

func TestObject_FrozenNamespaceRefusesWrites(t *testing.T) {
	ns := NewNamespace(Path{"Components"}, Prop{Name: "utils", Value: NewNamespace(Path{"Components", "utils"})})

	same, ok := ns.With("utils", Number(1))
	assert.False(t, ok)
	assert.Same(t, ns, same)
	assert.True(t, ns.Frozen())
	assert.Equal(t, Path{"Components"}, ns.Path())

	v, _ := ns.Get("utils")
	assert.IsType(t, &Object{}, v)
}

func TestUnwrap(t *testing.T) {
	inner := NewObject(Prop{Name: "open", Value: NewNative(Path{"XMLHttpRequest", "open"})})
	outer := NewObject(Prop{Name: "value", Value: inner})

	assert.Same(t, inner, Unwrap(outer))
	assert.Same(t, inner, Unwrap(inner))
	assert.Equal(t, String("x"), Unwrap(String("x")))
}

func TestArray(t *testing.T) {
	a := NewArray(Number(1), String("b"))
	assert.Equal(t, 2, a.Len())

	b := a.With(3, Null())
	assert.Equal(t, 2, a.Len())
	assert.Equal(t, 4, b.Len())

	v, ok := b.At(2)
	require.True(t, ok)
	assert.Equal(t, Undefined(), v)

	_, ok = b.At(9)
	assert.False(t, ok)
}

func TestPrimitive_Truthy(t *testing.T) {
	tests := []struct {
		value Primitive
		want  bool
	}{
		{Undefined(), false},
		{Null(), false},
		{Bool(true), true},
		{Bool(false), false},
		{Number(0), false},
		{Number(2.5), true},
		{String(""), false},
		{String("0"), true},
	}

	for _, tt := range tests {
		t.Run(Describe(tt.value), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.Truthy())
		})
	}
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, `"foo"`, Describe(String("foo")))
	assert.Equal(t, "undefined", Describe(Undefined()))
	assert.Equal(t, "3", Describe(Number(3)))
	assert.Equal(t, "{a, b}", Describe(NewObject(Prop{Name: "a", Value: Null()}, Prop{Name: "b", Value: Null()})))
	assert.Equal(t, "Components.utils", Describe(NewNamespace(Path{"Components", "utils"})))
	assert.Equal(t, "function XMLHttpRequest.open", Describe(NewNative(Path{"XMLHttpRequest", "open"})))
	assert.Equal(t, "array(1)", Describe(NewArray(Null())))
	assert.Equal(t, `<Components.classes["a.b"]>`, Describe(Wildcard{Path: Path{"Components", "classes", "a.b"}}))
}

func TestCombine(t *testing.T) {
	cu := NewNamespace(Path{"Components", "utils"})
	implicit := Wildcard{Path: Path{"Cu"}, Implicit: true}

	tests := []struct {
		name string
		op   string
		l, r Value
		want Value
	}{
		{name: "string concat", op: "+", l: String("evalIn"), r: String("Sandbox"), want: String("evalInSandbox")},
		{name: "string and number", op: "+", l: String("a"), r: Number(1), want: String("a1")},
		{name: "numbers", op: "+", l: Number(1), r: Number(2), want: Number(3)},
		{name: "unknown operand", op: "+", l: String("a"), r: implicit, want: Unknown()},
		{name: "or with falsy left", op: "||", l: Undefined(), r: cu, want: cu},
		{name: "or with truthy left", op: "||", l: cu, r: String("x"), want: cu},
		{name: "or with unknown left", op: "||", l: implicit, r: cu, want: cu},
		{name: "and with truthy left", op: "&&", l: Bool(true), r: cu, want: cu},
		{name: "nullish", op: "??", l: Null(), r: cu, want: cu},
		{name: "strict equality", op: "===", l: String("a"), r: String("a"), want: Bool(true)},
		{name: "loose null equality", op: "==", l: Null(), r: Undefined(), want: Bool(true)},
		{name: "inequality", op: "!==", l: Number(1), r: Number(2), want: Bool(true)},
		{name: "unmodeled operator", op: "instanceof", l: cu, r: cu, want: Unknown()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, combine(tt.op, tt.l, tt.r))
		})
	}
}
