package adapter

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jsgate.dev/pkg/jsgate/internal/jsast"
)

func parseJS(t *testing.T, src string) *jsast.Program {
	t.Helper()

	prog, err := NewTreeSitterJSAdapter().Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	require.NotNil(t, prog)
	require.NoError(t, jsast.Check(prog))

	return prog
}

func TestTreeSitterJSAdapter_ParseXPCOM(t *testing.T) {
	prog := parseJS(t, `var Cc = Components.classes, Ci = Components.interfaces;
var req = Cc["@mozilla.org/xmlextras/xmlhttprequest;1"].createInstance(Ci.nsIXMLHttpRequest);
`)
	require.Len(t, prog.Body, 2)

	decl, ok := prog.Body[0].(*jsast.VariableDeclaration)
	require.True(t, ok)
	assert.Equal(t, jsast.DeclVar, decl.DeclKind)
	require.Len(t, decl.Declarators, 2)
	assert.Equal(t, "Cc", decl.Declarators[0].Name)
	assert.Equal(t, "Ci", decl.Declarators[1].Name)

	classes, ok := decl.Declarators[0].Init.(*jsast.MemberExpression)
	require.True(t, ok)
	assert.Equal(t, "classes", classes.Property)
	assert.Equal(t, &jsast.Identifier{Base: jsast.Base{Pos: jsast.Location{Line: 1, Column: 10}}, Name: "Components"}, classes.Object)

	req, ok := prog.Body[1].(*jsast.VariableDeclaration)
	require.True(t, ok)

	call, ok := req.Declarators[0].Init.(*jsast.CallExpression)
	require.True(t, ok)
	require.Len(t, call.Arguments, 1)

	callee, ok := call.Callee.(*jsast.MemberExpression)
	require.True(t, ok)
	assert.Equal(t, "createInstance", callee.Property)

	contract, ok := callee.Object.(*jsast.MemberExpression)
	require.True(t, ok)

	key, ok := contract.Computed.(*jsast.Literal)
	require.True(t, ok)
	assert.Equal(t, jsast.LiteralString, key.LiteralKind)
	assert.Equal(t, "@mozilla.org/xmlextras/xmlhttprequest;1", key.Value)
}

func TestTreeSitterJSAdapter_LexicalKinds(t *testing.T) {
	prog := parseJS(t, "let a = 1;\nconst b = 'x';\nvar c;\n")
	require.Len(t, prog.Body, 3)

	kinds := make([]jsast.DeclKind, 0, len(prog.Body))
	for _, s := range prog.Body {
		decl, ok := s.(*jsast.VariableDeclaration)
		require.True(t, ok)

		kinds = append(kinds, decl.DeclKind)
	}

	assert.Equal(t, []jsast.DeclKind{jsast.DeclLet, jsast.DeclConst, jsast.DeclVar}, kinds)
	assert.Nil(t, prog.Body[2].(*jsast.VariableDeclaration).Declarators[0].Init)
}

func TestTreeSitterJSAdapter_Locations(t *testing.T) {
	prog := parseJS(t, "a;\n  b;\n")
	require.Len(t, prog.Body, 2)

	stmt, ok := prog.Body[1].(*jsast.ExpressionStatement)
	require.True(t, ok)
	assert.Equal(t, jsast.Location{Line: 2, Column: 3}, stmt.Expression.Loc())
}

func TestTreeSitterJSAdapter_Functions(t *testing.T) {
	prog := parseJS(t, "function f(a, b = 1, ...rest) { return a; }\nconst g = x => x;\n")
	require.Len(t, prog.Body, 2)

	fd, ok := prog.Body[0].(*jsast.FunctionDeclaration)
	require.True(t, ok)
	assert.Equal(t, "f", fd.Function.Name)
	assert.Equal(t, []string{"a", "b", "rest"}, fd.Function.Params)
	require.Len(t, fd.Function.Body.Body, 1)
	assert.IsType(t, &jsast.ReturnStatement{}, fd.Function.Body.Body[0])

	decl := prog.Body[1].(*jsast.VariableDeclaration)
	arrow, ok := decl.Declarators[0].Init.(*jsast.Function)
	require.True(t, ok)
	assert.True(t, arrow.Arrow)
	assert.Equal(t, []string{"x"}, arrow.Params)
	require.Len(t, arrow.Body.Body, 1)

	ret, ok := arrow.Body.Body[0].(*jsast.ReturnStatement)
	require.True(t, ok)
	assert.Equal(t, "x", ret.Argument.(*jsast.Identifier).Name)
}

func TestTreeSitterJSAdapter_Class(t *testing.T) {
	prog := parseJS(t, `class A extends B { m() { eval("x"); } }`)
	require.Len(t, prog.Body, 1)

	decl, ok := prog.Body[0].(*jsast.VariableDeclaration)
	require.True(t, ok)
	assert.Equal(t, "A", decl.Declarators[0].Name)

	class, ok := decl.Declarators[0].Init.(*jsast.Unsupported)
	require.True(t, ok)
	assert.Equal(t, "class", class.Construct)
	require.Len(t, class.Children, 2)
	assert.Equal(t, "B", class.Children[0].(*jsast.Identifier).Name)
	assert.IsType(t, &jsast.Function{}, class.Children[1])
}

func TestTreeSitterJSAdapter_ForIn(t *testing.T) {
	prog := parseJS(t, "for (const k in obj) { use(k); }")
	require.Len(t, prog.Body, 1)

	loop, ok := prog.Body[0].(*jsast.LoopStatement)
	require.True(t, ok)

	init, ok := loop.Init.(*jsast.VariableDeclaration)
	require.True(t, ok)
	assert.Equal(t, jsast.DeclConst, init.DeclKind)
	assert.Equal(t, "k", init.Declarators[0].Name)

	item, ok := init.Declarators[0].Init.(*jsast.MemberExpression)
	require.True(t, ok)
	assert.Equal(t, "obj", item.Object.(*jsast.Identifier).Name)
	assert.IsType(t, &jsast.Block{}, loop.Body)
}

func declaredNames(decl *jsast.VariableDeclaration) []string {
	var names []string
	for _, d := range decl.Declarators {
		if d.Name != "" {
			names = append(names, d.Name)
		}
	}

	return names
}

func TestTreeSitterJSAdapter_Destructuring(t *testing.T) {
	prog := parseJS(t, "const { utils: Cu, classes, interfaces: { nsIFile } = {}, ...rest } = Components;")
	decl := prog.Body[0].(*jsast.VariableDeclaration)

	assert.Equal(t, []string{"Cu", "classes", "nsIFile", "rest"}, declaredNames(decl))

	src, ok := decl.Declarators[0].Init.(*jsast.PatternSource)
	require.True(t, ok)
	assert.Empty(t, decl.Declarators[0].Name)
	assert.Equal(t, "Components", src.Value.(*jsast.Identifier).Name)

	cu, ok := decl.Declarators[1].Init.(*jsast.MemberExpression)
	require.True(t, ok)
	assert.Equal(t, "utils", cu.Property)
	assert.Same(t, src, cu.Object.(*jsast.PatternRef).Source)

	nested, ok := decl.Declarators[3].Init.(*jsast.PatternSource)
	require.True(t, ok)

	withDefault, ok := nested.Value.(*jsast.BinaryExpression)
	require.True(t, ok)
	assert.Equal(t, "??", withDefault.Operator)
	assert.Equal(t, "interfaces", withDefault.Left.(*jsast.MemberExpression).Property)

	file := decl.Declarators[4].Init.(*jsast.MemberExpression)
	assert.Equal(t, "nsIFile", file.Property)
	assert.Same(t, nested, file.Object.(*jsast.PatternRef).Source)

	restRef, ok := decl.Declarators[5].Init.(*jsast.PatternRef)
	require.True(t, ok)
	assert.Same(t, src, restRef.Source)
}

func TestTreeSitterJSAdapter_ArrayDestructuring(t *testing.T) {
	prog := parseJS(t, "var [Cu, , third = 3] = list;")
	decl := prog.Body[0].(*jsast.VariableDeclaration)

	assert.Equal(t, []string{"Cu", "third"}, declaredNames(decl))
	assert.IsType(t, &jsast.PatternSource{}, decl.Declarators[0].Init)

	head := decl.Declarators[1].Init.(*jsast.MemberExpression)
	assert.Equal(t, "0", head.Property)

	third := decl.Declarators[2].Init.(*jsast.BinaryExpression)
	assert.Equal(t, "2", third.Left.(*jsast.MemberExpression).Property)
}

func TestTreeSitterJSAdapter_DestructuringAssignment(t *testing.T) {
	prog := parseJS(t, "({ utils: Cu, foo: obj.bar } = Components);")

	seq, ok := prog.Body[0].(*jsast.ExpressionStatement).Expression.(*jsast.SequenceExpression)
	require.True(t, ok)
	require.Len(t, seq.Expressions, 4)

	src, ok := seq.Expressions[0].(*jsast.PatternSource)
	require.True(t, ok)

	cu := seq.Expressions[1].(*jsast.AssignmentExpression)
	assert.Equal(t, "Cu", cu.Target.(*jsast.Identifier).Name)

	member := seq.Expressions[2].(*jsast.AssignmentExpression)
	assert.Equal(t, "bar", member.Target.(*jsast.MemberExpression).Property)

	assert.Same(t, src, seq.Expressions[3].(*jsast.PatternRef).Source)
}

func TestTreeSitterJSAdapter_DestructuringLoopAndParams(t *testing.T) {
	prog := parseJS(t, "for (const [k, v] of entries) {}\nfunction f({ utils }, x) { return utils; }")

	loop := prog.Body[0].(*jsast.LoopStatement)
	assert.Equal(t, []string{"k", "v"}, declaredNames(loop.Init.(*jsast.VariableDeclaration)))

	fn := prog.Body[1].(*jsast.FunctionDeclaration).Function
	assert.Equal(t, []string{"<param0>", "x"}, fn.Params)
	require.Len(t, fn.Body.Body, 2)

	prologue, ok := fn.Body.Body[0].(*jsast.VariableDeclaration)
	require.True(t, ok)
	assert.Equal(t, []string{"utils"}, declaredNames(prologue))
	assert.Equal(t, "<param0>", prologue.Declarators[0].Init.(*jsast.PatternSource).Value.(*jsast.Identifier).Name)
}

func TestTreeSitterJSAdapter_NestingCeiling(t *testing.T) {
	const depth = 1_000_000

	src := strings.Repeat("[", depth) + strings.Repeat("]", depth) + ";\nComponents.utils.evalInSandbox('x');\n"

	prog, err := NewTreeSitterJSAdapter().Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	require.NoError(t, jsast.Check(prog))
	require.Len(t, prog.Body, 2)

	truncated := 0
	jsast.Inspect(prog, func(n jsast.Node) bool {
		if u, ok := n.(*jsast.Unsupported); ok && u.Construct == jsast.ConstructTooComplex {
			truncated++
		}

		return true
	})
	assert.Equal(t, 1, truncated)
	assert.IsType(t, &jsast.CallExpression{}, prog.Body[1].(*jsast.ExpressionStatement).Expression)
}

func TestTreeSitterJSAdapter_LongChainsAreNotTruncated(t *testing.T) {
	src := "var s = 'a'" + strings.Repeat(" + 'a'", 5000) + ";\n" + "f(" + strings.Repeat("a, ", 5000) + "a);\n"

	prog, err := NewTreeSitterJSAdapter(WithMaxNesting(64)).Parse(context.Background(), []byte(src))
	require.NoError(t, err)

	jsast.Inspect(prog, func(n jsast.Node) bool {
		if u, ok := n.(*jsast.Unsupported); ok {
			assert.NotEqual(t, jsast.ConstructTooComplex, u.Construct)
		}

		return true
	})
}

func TestTreeSitterJSAdapter_Template(t *testing.T) {
	plain := parseJS(t, "`plain`;")
	lit, ok := plain.Body[0].(*jsast.ExpressionStatement).Expression.(*jsast.Literal)
	require.True(t, ok)
	assert.Equal(t, "plain", lit.Value)

	sub := parseJS(t, "`a${x}`;")
	bin, ok := sub.Body[0].(*jsast.ExpressionStatement).Expression.(*jsast.BinaryExpression)
	require.True(t, ok)
	assert.Equal(t, "+", bin.Operator)
	assert.Equal(t, "x", bin.Right.(*jsast.Identifier).Name)

	head, ok := bin.Left.(*jsast.BinaryExpression)
	require.True(t, ok)
	assert.Equal(t, "a", head.Right.(*jsast.Literal).Value)
}

func TestTreeSitterJSAdapter_Operators(t *testing.T) {
	prog := parseJS(t, `x += "a" + "b"; i++; !y; c ? d : e; (p, q);`)
	require.Len(t, prog.Body, 5)

	exprs := make([]jsast.Node, 0, len(prog.Body))
	for _, s := range prog.Body {
		exprs = append(exprs, s.(*jsast.ExpressionStatement).Expression)
	}

	assign, ok := exprs[0].(*jsast.AssignmentExpression)
	require.True(t, ok)
	assert.Equal(t, "+=", assign.Operator)
	assert.Equal(t, "+", assign.Value.(*jsast.BinaryExpression).Operator)

	assert.Equal(t, "++", exprs[1].(*jsast.UnaryExpression).Operator)
	assert.Equal(t, "!", exprs[2].(*jsast.UnaryExpression).Operator)
	assert.IsType(t, &jsast.ConditionalExpression{}, exprs[3])
	assert.Len(t, exprs[4].(*jsast.SequenceExpression).Expressions, 2)
}

func TestTreeSitterJSAdapter_Object(t *testing.T) {
	prog := parseJS(t, `o = { a: 1, "b c": 2, [k]: 3, d, m() {} };`)
	obj, ok := prog.Body[0].(*jsast.ExpressionStatement).Expression.(*jsast.AssignmentExpression).Value.(*jsast.ObjectExpression)
	require.True(t, ok)
	require.Len(t, obj.Properties, 5)

	assert.Equal(t, "a", obj.Properties[0].Key)
	assert.Equal(t, "b c", obj.Properties[1].Key)
	assert.Equal(t, "k", obj.Properties[2].Computed.(*jsast.Identifier).Name)
	assert.Equal(t, "d", obj.Properties[3].Value.(*jsast.Identifier).Name)
	assert.Equal(t, "m", obj.Properties[4].Key)
	assert.IsType(t, &jsast.Function{}, obj.Properties[4].Value)
}

func TestTreeSitterJSAdapter_ControlFlow(t *testing.T) {
	prog := parseJS(t, `if (a) { b(); } else c();
try { d(); } catch (e) { f(e); } finally { g(); }
switch (h) { case 1: i(); break; default: j(); }
while (k) l();
`)
	require.Len(t, prog.Body, 4)

	ifs := prog.Body[0].(*jsast.IfStatement)
	assert.IsType(t, &jsast.Block{}, ifs.Consequent)
	assert.IsType(t, &jsast.ExpressionStatement{}, ifs.Alternate)

	try := prog.Body[1].(*jsast.TryStatement)
	assert.Equal(t, "e", try.Param)
	assert.NotNil(t, try.Handler)
	assert.NotNil(t, try.Finalizer)

	sw := prog.Body[2].(*jsast.SwitchStatement)
	require.Len(t, sw.Cases, 2)
	assert.NotNil(t, sw.Cases[0].Test)
	assert.Len(t, sw.Cases[0].Body, 1)
	assert.Nil(t, sw.Cases[1].Test)

	loop := prog.Body[3].(*jsast.LoopStatement)
	assert.Equal(t, "k", loop.Test.(*jsast.Identifier).Name)
}

func TestTreeSitterJSAdapter_SyntaxError(t *testing.T) {
	prog, err := NewTreeSitterJSAdapter().Parse(context.Background(), []byte("var x = 1;\n%%%\n"))
	require.NoError(t, err)

	found := false

	jsast.Inspect(prog, func(n jsast.Node) bool {
		if u, ok := n.(*jsast.Unsupported); ok && u.Construct == "syntax error" {
			found = true
		}

		return true
	})

	assert.True(t, found)
}

func TestTreeSitterJSAdapter_Errors(t *testing.T) {
	t.Run("too large", func(t *testing.T) {
		_, err := NewTreeSitterJSAdapter(WithMaxFileSize(4)).Parse(context.Background(), []byte("var a = 1;"))
		assert.ErrorIs(t, err, ErrFileTooLarge)
	})

	t.Run("invalid utf8", func(t *testing.T) {
		_, err := NewTreeSitterJSAdapter().Parse(context.Background(), []byte{'a', 0xff})
		assert.ErrorIs(t, err, ErrInvalidContent)
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewTreeSitterJSAdapter().Parse(ctx, []byte("a;"))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: `"plain"`, want: "plain"},
		{raw: `'single'`, want: "single"},
		{raw: `"a\nb"`, want: "a\nb"},
		{raw: `"\x41B\u{43}"`, want: "ABC"},
		{raw: `"\uD83D\uDE00"`, want: "\U0001F600"},
		{raw: `"\q\\"`, want: `q\`},
		{raw: "\"line\\\ncontinued\"", want: "linecontinued"},
		{raw: `"\xZZ"`, want: "xZZ"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, unquote(tt.raw))
		})
	}
}
