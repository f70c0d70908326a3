package engine

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"jsgate.dev/pkg/jsgate/internal/jsast"
	m "jsgate.dev/pkg/jsgate/internal/model"
)

// Small constructors for hand-built syntax trees. Each node gets a distinct
// line so that recorded locations stay unique.

var nextLine int

func at() jsast.Base {
	nextLine++

	return jsast.Base{Pos: jsast.Location{Line: nextLine, Column: 1}}
}

func id(name string) *jsast.Identifier {
	return &jsast.Identifier{Base: at(), Name: name}
}

func str(s string) *jsast.Literal {
	return &jsast.Literal{Base: at(), LiteralKind: jsast.LiteralString, Value: s}
}

func num(n int) *jsast.Literal {
	return &jsast.Literal{Base: at(), LiteralKind: jsast.LiteralNumber, Value: strconv.Itoa(n)}
}

func null() *jsast.Literal {
	return &jsast.Literal{Base: at(), LiteralKind: jsast.LiteralNull}
}

func dot(obj jsast.Node, props ...string) jsast.Node {
	for _, p := range props {
		obj = &jsast.MemberExpression{Base: at(), Object: obj, Property: p}
	}

	return obj
}

func index(obj jsast.Node, key jsast.Node) *jsast.MemberExpression {
	return &jsast.MemberExpression{Base: at(), Object: obj, Computed: key}
}

func call(callee jsast.Node, args ...jsast.Node) *jsast.CallExpression {
	return &jsast.CallExpression{Base: at(), Callee: callee, Arguments: args}
}

func newExpr(callee jsast.Node, args ...jsast.Node) *jsast.NewExpression {
	return &jsast.NewExpression{Base: at(), Callee: callee, Arguments: args}
}

func stmt(x jsast.Node) *jsast.ExpressionStatement {
	return &jsast.ExpressionStatement{Base: at(), Expression: x}
}

func decl(kind jsast.DeclKind, name string, init jsast.Node) *jsast.VariableDeclaration {
	return &jsast.VariableDeclaration{
		Base:        at(),
		DeclKind:    kind,
		Declarators: []*jsast.Declarator{{Name: name, Init: init}},
	}
}

// destructure builds `kind {key: name, ...} = value` the way the parser
// lowers it. pairs alternates keys and bound names.
func destructure(kind jsast.DeclKind, value jsast.Node, pairs ...string) *jsast.VariableDeclaration {
	src := &jsast.PatternSource{Base: at(), Value: value}
	d := &jsast.VariableDeclaration{Base: at(), DeclKind: kind, Declarators: []*jsast.Declarator{{Init: src}}}

	for i := 0; i+1 < len(pairs); i += 2 {
		ref := &jsast.PatternRef{Base: at(), Source: src}
		d.Declarators = append(d.Declarators, &jsast.Declarator{Name: pairs[i+1], Init: dot(ref, pairs[i])})
	}

	return d
}

func this() *jsast.ThisExpression {
	return &jsast.ThisExpression{Base: at()}
}

func assign(target, value jsast.Node) *jsast.ExpressionStatement {
	return stmt(&jsast.AssignmentExpression{Base: at(), Operator: "=", Target: target, Value: value})
}

func binary(op string, l, r jsast.Node) *jsast.BinaryExpression {
	return &jsast.BinaryExpression{Base: at(), Operator: op, Left: l, Right: r}
}

func fn(name string, params []string, body ...jsast.Node) *jsast.Function {
	return &jsast.Function{Base: at(), Name: name, Params: params, Body: &jsast.Block{Base: at(), Body: body}}
}

func fnDecl(name string, params []string, body ...jsast.Node) *jsast.FunctionDeclaration {
	return &jsast.FunctionDeclaration{Base: at(), Function: fn(name, params, body...)}
}

func ret(x jsast.Node) *jsast.ReturnStatement {
	return &jsast.ReturnStatement{Base: at(), Argument: x}
}

func prog(body ...jsast.Node) *jsast.Program {
	return &jsast.Program{Base: at(), Body: body}
}

func xhrPath() Path {
	return Path{"Components", "interfaces", "nsIXMLHttpRequest"}
}

// testRegistry is a reduced version of the built-in host knowledge.
func testRegistry(t *testing.T) *Registry {
	t.Helper()

	reg, err := NewRegistryBuilder().
		Namespace("Components", "interfaces", "classes", "utils").
		GlobalAlias("window").
		Flag(Path{"Components", "utils", "evalInSandbox"}, m.SeverityFailure, "sandbox-eval", "dynamic evaluation in sandbox is disallowed").
		PassThrough(Path{"Components", "utils", AnySegment}, "utility functions").
		PassThrough(Path{"Components", "interfaces", AnySegment}, "interface identifiers").
		Emulate(Path{"Components", "classes", AnySegment, "createInstance"}, "instance factory", func(c *Call) Value {
			w, ok := c.Arg(0).(Wildcard)
			if !ok || !w.Path.Equal(xhrPath()) {
				return Wildcard{Path: Path{"<instance>"}}
			}

			open := NewNative(Path{"XMLHttpRequest", "open"})

			return NewObject(
				Prop{Name: "open", Value: open},
				Prop{Name: "value", Value: NewObject(Prop{Name: "open", Value: open})},
			)
		}).
		Emulate(Path{"XMLHttpRequest", "open"}, "request setup", func(c *Call) Value {
			if p, ok := c.Arg(1).(Primitive); ok && p.Kind == KindString && len(p.Literal) > 7 && p.Literal[:7] == "http://" {
				c.Record(m.SeverityWarning, "insecure-request", "request over plain http")
			}

			return Undefined()
		}).
		Flag(Path{"eval"}, m.SeverityFailure, "eval", "eval is disallowed").
		Build()
	require.NoError(t, err)

	return reg
}

func codes(r *Result) []string {
	out := make([]string, 0, len(r.Messages))
	for _, msg := range r.Messages {
		out = append(out, msg.Code)
	}

	return out
}
