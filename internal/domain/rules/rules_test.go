package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jsgate.dev/pkg/jsgate/internal/domain/engine"
	"jsgate.dev/pkg/jsgate/internal/jsast"
	m "jsgate.dev/pkg/jsgate/internal/model"
)

func member(obj jsast.Node, props ...string) jsast.Node {
	for i, p := range props {
		obj = &jsast.MemberExpression{Base: jsast.Base{Pos: jsast.Location{Line: 1, Column: i + 1}}, Object: obj, Property: p}
	}

	return obj
}

func callStmt(line int, callee jsast.Node, args ...jsast.Node) jsast.Node {
	return &jsast.ExpressionStatement{Expression: &jsast.CallExpression{
		Base:      jsast.Base{Pos: jsast.Location{Line: line, Column: 1}},
		Callee:    callee,
		Arguments: args,
	}}
}

func ident(name string) *jsast.Identifier {
	return &jsast.Identifier{Name: name}
}

func text(s string) *jsast.Literal {
	return &jsast.Literal{LiteralKind: jsast.LiteralString, Value: s}
}

func TestNew_BuiltinRegistry(t *testing.T) {
	reg, err := New()
	require.NoError(t, err)

	tests := []struct {
		path string
		want engine.BehaviorKind
	}{
		{path: "Components.utils.evalInSandbox", want: engine.Flag},
		{path: "Components.utils.foo", want: engine.PassThrough},
		{path: `Components.classes["@mozilla.org/xmlextras/xmlhttprequest;1"].createInstance`, want: engine.Emulate},
		{path: `Components.classes[""].getService`, want: engine.Emulate},
		{path: "eval", want: engine.Flag},
		{path: "Function", want: engine.Flag},
		{path: "setTimeout", want: engine.Emulate},
		{path: "XMLHttpRequest", want: engine.Emulate},
		{path: "XMLHttpRequest.send", want: engine.PassThrough},
		{path: "document.write", want: engine.Flag},
		{path: "Services.scriptloader.loadSubScript", want: engine.Emulate},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			path, err := engine.ParsePath(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, reg.Lookup(path).Kind)
		})
	}

	assert.True(t, reg.IsGlobalAlias("window"))
	assert.True(t, reg.IsGlobalAlias("globalThis"))
}

func TestCreateInstance(t *testing.T) {
	call := func(arg engine.Value) *engine.Call {
		return &engine.Call{Path: classesPath.Append("x", "createInstance"), Args: []engine.Value{arg}}
	}

	xhr, ok := createInstance(call(engine.Wildcard{Path: xhrIIDPath})).(*engine.Object)
	require.True(t, ok)

	for _, name := range xhrMethods {
		assert.True(t, xhr.Has(name), name)
	}

	payload, ok := engine.Unwrap(xhr).(*engine.Object)
	require.True(t, ok)
	assert.True(t, payload.Has("open"))

	other, ok := createInstance(call(engine.Wildcard{Path: interfacesPath.Append("nsIFile")})).(engine.Wildcard)
	require.True(t, ok)
	assert.Equal(t, engine.Path{"Components", "interfaces", "nsIFile", "<instance>"}, other.Path)

	unknown, ok := createInstance(call(engine.String("nsIFile"))).(engine.Wildcard)
	require.True(t, ok)
	assert.Equal(t, engine.Path{"Components", "classes", "x", "createInstance", engine.CallSegment}, unknown.Path)
}

func TestScenarios(t *testing.T) {
	reg, err := New()
	require.NoError(t, err)

	tests := []struct {
		name  string
		body  []jsast.Node
		codes []string
	}{
		{
			name:  "harmless utility",
			body:  []jsast.Node{callStmt(1, member(ident("Components"), "utils", "foo"), text("bar"))},
			codes: nil,
		},
		{
			name:  "sandbox evaluation",
			body:  []jsast.Node{callStmt(1, member(ident("Components"), "utils", "evalInSandbox"), text("bar"))},
			codes: []string{"sandbox-eval"},
		},
		{
			name:  "eval",
			body:  []jsast.Node{callStmt(1, ident("eval"), text("1"))},
			codes: []string{"dynamic-eval"},
		},
		{
			name:  "string timer",
			body:  []jsast.Node{callStmt(1, ident("setTimeout"), text("run()"), &jsast.Literal{LiteralKind: jsast.LiteralNumber, Value: "10"})},
			codes: []string{"string-timer"},
		},
		{
			name:  "function timer",
			body:  []jsast.Node{callStmt(1, ident("setTimeout"), &jsast.Function{Body: &jsast.Block{}})},
			codes: nil,
		},
		{
			name:  "document write through window",
			body:  []jsast.Node{callStmt(1, member(ident("window"), "document", "write"), text("<p>"))},
			codes: []string{"document-write"},
		},
		{
			name: "web XHR over http",
			body: []jsast.Node{
				&jsast.VariableDeclaration{Declarators: []*jsast.Declarator{{
					Name: "x",
					Init: &jsast.NewExpression{Callee: ident("XMLHttpRequest")},
				}}},
				callStmt(2, member(ident("x"), "open"), text("GET"), text("http://example.com")),
			},
			codes: []string{"insecure-request"},
		},
		{
			name:  "subscript with literal url",
			body:  []jsast.Node{callStmt(1, member(ident("Services"), "scriptloader", "loadSubScript"), text("chrome://addon/content/a.js"))},
			codes: nil,
		},
		{
			name:  "subscript with computed url",
			body:  []jsast.Node{callStmt(1, member(ident("Services"), "scriptloader", "loadSubScript"), ident("url"))},
			codes: []string{"subscript-load"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := engine.Analyze(&jsast.Program{Body: tt.body}, reg)

			var got []string
			for _, msg := range r.Messages {
				got = append(got, msg.Code)
			}

			assert.Equal(t, tt.codes, got)
		})
	}
}

func TestParseCatalog_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "unknown field", yaml: "version: 1\nrules:\n  - path: a\n    behaviour: flag\n"},
		{name: "wrong version", yaml: "version: 2\nrules: []\n"},
		{name: "not yaml", yaml: "version: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

func TestCatalog_ApplyErrors(t *testing.T) {
	tests := []struct {
		name string
		rule RuleDef
	}{
		{name: "bad path", rule: RuleDef{Path: "a..b", Behavior: behaviorFlag, Code: "c", Message: "m"}},
		{name: "unknown behavior", rule: RuleDef{Path: "a", Behavior: "block"}},
		{name: "flag without code", rule: RuleDef{Path: "a", Behavior: behaviorFlag, Message: "m"}},
		{name: "bad severity", rule: RuleDef{Path: "a", Behavior: behaviorFlag, Code: "c", Message: "m", Severity: "fatal"}},
		{name: "arg index without condition", rule: RuleDef{Path: "a", Behavior: behaviorFlag, Code: "c", Message: "m", ArgIndex: new(int)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Catalog{Version: CatalogVersion, Rules: []RuleDef{tt.rule}}
			assert.ErrorIs(t, c.Apply(engine.NewRegistryBuilder()), ErrInvalidCatalog)
		})
	}
}

func TestNew_WithCatalogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")

	content := `version: 1
global_aliases: [top]
namespaces:
  - root: chrome
    members: [tabs]
rules:
  - path: chrome.tabs.executeScript
    behavior: flag
    severity: failure
    code: tab-script
    message: injecting scripts into tabs is disallowed
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	reg, err := New(WithCatalogFile(path), WithCatalogFile(""))
	require.NoError(t, err)
	assert.True(t, reg.IsGlobalAlias("top"))

	r := engine.Analyze(&jsast.Program{Body: []jsast.Node{
		callStmt(1, member(ident("top"), "chrome", "tabs", "executeScript"), text("x")),
	}}, reg)
	assert.True(t, r.Failed())
	require.Len(t, r.Messages, 1)
	assert.Equal(t, "tab-script", r.Messages[0].Code)
	assert.Equal(t, m.SeverityFailure, r.Messages[0].Severity)

	builtin, err := New()
	require.NoError(t, err)
	assert.NotEqual(t, builtin.Fingerprint(), reg.Fingerprint())

	again, err := New(WithCatalogFile(path))
	require.NoError(t, err)
	assert.Equal(t, reg.Fingerprint(), again.Fingerprint())
}

func TestNew_CatalogErrors(t *testing.T) {
	_, err := New(WithCatalogFile(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "dup.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 1\nrules:\n  - path: eval\n    behavior: pass-through\n"), 0o600))

	_, err = New(WithCatalogFile(path))
	assert.ErrorIs(t, err, engine.ErrDuplicateRule)
}

func TestDescribe(t *testing.T) {
	reg, err := New()
	require.NoError(t, err)

	infos := Describe(reg)
	require.Len(t, infos, len(reg.Entries()))

	var sandbox *m.RuleInfo
	for i := range infos {
		if infos[i].Pattern == "Components.utils.evalInSandbox" {
			sandbox = &infos[i]
		}
	}

	require.NotNil(t, sandbox)
	assert.Equal(t, "flag", sandbox.Behavior)
	assert.Equal(t, "failure", sandbox.Severity)
	assert.Equal(t, "sandbox-eval", sandbox.Code)
	assert.Equal(t, "dynamic evaluation in sandbox is disallowed", sandbox.Description)
}
