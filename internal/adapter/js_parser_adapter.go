package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"jsgate.dev/pkg/jsgate/internal/jsast"
)

var (
	// ErrFileTooLarge is returned for sources above the configured size limit.
	ErrFileTooLarge = errors.New("file too large to analyze")
	// ErrInvalidContent is returned for sources that are not valid UTF-8.
	ErrInvalidContent = errors.New("source is not valid UTF-8")
)

const (
	// DefaultMaxFileSize is the largest source the parser accepts by default.
	DefaultMaxFileSize = 10 * 1024 * 1024
	// DefaultMaxNesting is the deepest syntax nesting converted by default.
	// Deeper regions become too-complex nodes.
	DefaultMaxNesting = 2048
)

// JSParserAdapter turns JavaScript source into the syntax tree the engine
// walks.
type JSParserAdapter interface {
	Parse(ctx context.Context, content []byte) (*jsast.Program, error)
	// Settings describes the parser and the limits that shape its output.
	Settings() string
}

// JSParserOptions configures TreeSitterJSAdapter.
type JSParserOptions struct {
	// MaxFileSize is the maximum source size in bytes. Larger sources return
	// ErrFileTooLarge.
	MaxFileSize int
	// MaxNesting bounds the statement and expression nesting that is
	// converted. Regions nested deeper are replaced by a single
	// jsast.ConstructTooComplex node.
	MaxNesting int
}

// JSParserOption is a functional option for TreeSitterJSAdapter.
type JSParserOption func(*JSParserOptions)

// WithMaxFileSize sets the maximum accepted source size.
func WithMaxFileSize(size int) JSParserOption {
	return func(o *JSParserOptions) {
		if size > 0 {
			o.MaxFileSize = size
		}
	}
}

// WithMaxNesting sets the deepest syntax nesting that is converted.
func WithMaxNesting(depth int) JSParserOption {
	return func(o *JSParserOptions) {
		if depth > 0 {
			o.MaxNesting = depth
		}
	}
}

// TreeSitterJSAdapter parses JavaScript with tree-sitter. It is safe for
// concurrent use; every Parse call creates its own parser.
type TreeSitterJSAdapter struct {
	options JSParserOptions
}

// NewTreeSitterJSAdapter constructs a TreeSitterJSAdapter.
func NewTreeSitterJSAdapter(opts ...JSParserOption) *TreeSitterJSAdapter {
	options := JSParserOptions{MaxFileSize: DefaultMaxFileSize, MaxNesting: DefaultMaxNesting}
	for _, opt := range opts {
		opt(&options)
	}

	return &TreeSitterJSAdapter{options: options}
}

// Settings implements JSParserAdapter.
func (a *TreeSitterJSAdapter) Settings() string {
	return fmt.Sprintf("tree-sitter-javascript max_file_size=%d max_nesting=%d", a.options.MaxFileSize, a.options.MaxNesting)
}

// Parse converts content into a jsast program. Syntax errors do not fail the
// parse: the broken regions become unsupported nodes that the engine reports.
func (a *TreeSitterJSAdapter) Parse(ctx context.Context, content []byte) (*jsast.Program, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("javascript parse canceled before start: %w", err)
	}

	if len(content) > a.options.MaxFileSize {
		return nil, ErrFileTooLarge
	}

	if !utf8.Valid(content) {
		return nil, ErrInvalidContent
	}

	parser := sitter.NewParser()
	defer parser.Close()

	parser.SetLanguage(javascript.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		slog.Debug("Source contains syntax errors", "bytes", len(content))
	}

	c := &converter{src: content, maxDepth: a.options.MaxNesting}
	program := &jsast.Program{Base: c.base(root), Body: c.statements(root)}

	if c.truncated > 0 {
		slog.Debug("Truncated deeply nested source", "regions", c.truncated, "max_nesting", c.maxDepth)
	}

	return program, nil
}

// converter maps tree-sitter JavaScript nodes onto jsast nodes.
type converter struct {
	src []byte

	depth     int
	maxDepth  int
	truncated int
}

// descend enters one nesting level. It reports false at the ceiling, in
// which case the caller must not call ascend.
func (c *converter) descend() bool {
	if c.maxDepth > 0 && c.depth >= c.maxDepth {
		return false
	}

	c.depth++

	return true
}

func (c *converter) ascend() {
	c.depth--
}

func (c *converter) tooComplex(n *sitter.Node) jsast.Node {
	c.truncated++

	return &jsast.Unsupported{Base: c.base(n), Construct: jsast.ConstructTooComplex}
}

func (c *converter) base(n *sitter.Node) jsast.Base {
	p := n.StartPoint()

	return jsast.Base{Pos: jsast.Location{Line: int(p.Row) + 1, Column: int(p.Column) + 1}}
}

func (c *converter) text(n *sitter.Node) string {
	return n.Content(c.src)
}

// named returns the named children of n without comments.
func named(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}

	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)

	for i := 0; i < count; i++ {
		child := n.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}

		out = append(out, child)
	}

	return out
}

func first(n *sitter.Node) *sitter.Node {
	children := named(n)
	if len(children) == 0 {
		return nil
	}

	return children[0]
}

func sameNode(a, b *sitter.Node) bool {
	return a != nil && b != nil && a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

func (c *converter) statements(n *sitter.Node) []jsast.Node {
	var out []jsast.Node

	for _, child := range named(n) {
		if s := c.stmt(child); s != nil {
			out = append(out, s)
		}
	}

	return out
}

func (c *converter) block(n *sitter.Node) *jsast.Block {
	return &jsast.Block{Base: c.base(n), Body: c.statements(n)}
}

//nolint:cyclop,funlen
func (c *converter) stmt(n *sitter.Node) jsast.Node {
	if n == nil {
		return nil
	}

	if !c.descend() {
		return &jsast.ExpressionStatement{Base: c.base(n), Expression: c.tooComplex(n)}
	}
	defer c.ascend()

	switch n.Type() {
	case "empty_statement", "break_statement", "continue_statement", "debugger_statement", "comment", "hash_bang_line":
		return nil
	case "expression_statement":
		x := c.expr(first(n))
		if x == nil {
			return nil
		}

		return &jsast.ExpressionStatement{Base: c.base(n), Expression: x}
	case "variable_declaration":
		return c.declaration(n, jsast.DeclVar)
	case "lexical_declaration":
		kind := jsast.DeclLet
		if k := n.ChildByFieldName("kind"); k != nil && c.text(k) == "const" {
			kind = jsast.DeclConst
		}

		return c.declaration(n, kind)
	case "function_declaration", "generator_function_declaration":
		return &jsast.FunctionDeclaration{Base: c.base(n), Function: c.function(n)}
	case "class_declaration":
		name := ""
		if id := n.ChildByFieldName("name"); id != nil {
			name = c.text(id)
		}

		return &jsast.VariableDeclaration{
			Base:        c.base(n),
			DeclKind:    jsast.DeclLet,
			Declarators: []*jsast.Declarator{{Pos: c.base(n).Pos, Name: name, Init: c.class(n)}},
		}
	case "statement_block":
		return c.block(n)
	case "return_statement":
		return &jsast.ReturnStatement{Base: c.base(n), Argument: c.expr(first(n))}
	case "throw_statement":
		return &jsast.ThrowStatement{Base: c.base(n), Argument: c.expr(first(n))}
	case "if_statement":
		s := &jsast.IfStatement{
			Base:       c.base(n),
			Test:       c.expr(n.ChildByFieldName("condition")),
			Consequent: c.stmtOrEmpty(n.ChildByFieldName("consequence")),
		}
		if s.Test == nil {
			s.Test = &jsast.Literal{Base: c.base(n)}
		}
		if alt := n.ChildByFieldName("alternative"); alt != nil {
			if alt.Type() == "else_clause" {
				alt = first(alt)
			}

			s.Alternate = c.stmt(alt)
		}

		return s
	case "for_statement":
		return &jsast.LoopStatement{
			Base:   c.base(n),
			Init:   c.stmt(n.ChildByFieldName("initializer")),
			Test:   c.loopExpr(n.ChildByFieldName("condition")),
			Update: c.loopExpr(n.ChildByFieldName("increment")),
			Body:   c.stmt(n.ChildByFieldName("body")),
		}
	case "for_in_statement":
		return c.forIn(n)
	case "while_statement":
		return &jsast.LoopStatement{
			Base: c.base(n),
			Test: c.expr(n.ChildByFieldName("condition")),
			Body: c.stmt(n.ChildByFieldName("body")),
		}
	case "do_statement":
		return &jsast.LoopStatement{
			Base: c.base(n),
			Body: c.stmt(n.ChildByFieldName("body")),
			Test: c.expr(n.ChildByFieldName("condition")),
		}
	case "try_statement":
		return c.try(n)
	case "switch_statement":
		return c.switchStmt(n)
	case "labeled_statement":
		return c.stmt(n.ChildByFieldName("body"))
	case "export_statement":
		if d := n.ChildByFieldName("declaration"); d != nil {
			return c.stmt(d)
		}

		if v := n.ChildByFieldName("value"); v != nil {
			return &jsast.ExpressionStatement{Base: c.base(n), Expression: c.expr(v)}
		}

		return nil
	case "import_statement", "with_statement":
		return &jsast.ExpressionStatement{Base: c.base(n), Expression: c.unsupported(n)}
	default:
		x := c.expr(n)
		if x == nil {
			return nil
		}

		return &jsast.ExpressionStatement{Base: c.base(n), Expression: x}
	}
}

func (c *converter) stmtOrEmpty(n *sitter.Node) jsast.Node {
	if s := c.stmt(n); s != nil {
		return s
	}

	if n == nil {
		return &jsast.Block{}
	}

	return &jsast.Block{Base: c.base(n)}
}

// loopExpr unwraps the statement forms older grammars use for loop headers.
func (c *converter) loopExpr(n *sitter.Node) jsast.Node {
	if n == nil {
		return nil
	}

	switch n.Type() {
	case "empty_statement":
		return nil
	case "expression_statement":
		return c.expr(first(n))
	default:
		return c.expr(n)
	}
}

func (c *converter) declaration(n *sitter.Node, kind jsast.DeclKind) jsast.Node {
	d := &jsast.VariableDeclaration{Base: c.base(n), DeclKind: kind}

	for _, child := range named(n) {
		if child.Type() != "variable_declarator" {
			continue
		}

		value := c.expr(child.ChildByFieldName("value"))

		name := child.ChildByFieldName("name")
		if name == nil {
			d.Declarators = append(d.Declarators, &jsast.Declarator{Pos: c.base(child).Pos, Init: value})

			continue
		}

		d.Declarators = append(d.Declarators, declarators(c.bindings(name, value, nil))...)
	}

	return d
}

func declarators(bs []binding) []*jsast.Declarator {
	out := make([]*jsast.Declarator, 0, len(bs))
	for _, b := range bs {
		out = append(out, &jsast.Declarator{Pos: b.pos, Name: b.name, Init: b.value})
	}

	return out
}

// binding is one name or target bound by a declaration or assignment. A
// binding with neither name nor target only evaluates value: it is the
// PatternSource of a destructuring pattern.
type binding struct {
	pos    jsast.Location
	name   string
	target *sitter.Node
	value  jsast.Node
}

func isPattern(n *sitter.Node) bool {
	return n != nil && (n.Type() == "object_pattern" || n.Type() == "array_pattern")
}

// bindings lowers a binding target into one entry per bound name. A
// destructuring pattern evaluates value once through a PatternSource and
// each name reads its component through a PatternRef. Defaults apply with
// `??`.
//
//nolint:cyclop,funlen
func (c *converter) bindings(n *sitter.Node, value jsast.Node, out []binding) []binding {
	pos := c.base(n).Pos

	if !c.descend() {
		return append(out, binding{pos: pos, value: c.tooComplex(n)})
	}
	defer c.ascend()

	switch n.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		return append(out, binding{pos: pos, name: c.text(n), value: value})
	case "assignment_pattern", "object_assignment_pattern":
		if def := c.expr(n.ChildByFieldName("right")); def != nil && value != nil {
			value = &jsast.BinaryExpression{Base: c.base(n), Operator: "??", Left: value, Right: def}
		}

		left := n.ChildByFieldName("left")
		if left == nil {
			return append(out, binding{pos: pos, value: value})
		}

		return c.bindings(left, value, out)
	case "rest_pattern":
		inner := first(n)
		if inner == nil {
			return out
		}

		return c.bindings(inner, value, out)
	case "object_pattern":
		src := c.patternSource(n, value)
		out = append(out, binding{pos: pos, value: src})

		for _, child := range named(n) {
			switch child.Type() {
			case "shorthand_property_identifier_pattern":
				out = c.bindings(child, c.component(src, child, c.text(child)), out)
			case "pair_pattern":
				part := c.componentByKey(src, child.ChildByFieldName("key"))
				if v := child.ChildByFieldName("value"); v != nil {
					out = c.bindings(v, part, out)
				}
			case "object_assignment_pattern":
				left := child.ChildByFieldName("left")
				if left == nil {
					continue
				}

				out = c.bindings(child, c.component(src, child, c.text(left)), out)
			case "rest_pattern":
				out = c.bindings(child, &jsast.PatternRef{Base: c.base(child), Source: src}, out)
			}
		}

		return out
	case "array_pattern":
		src := c.patternSource(n, value)
		out = append(out, binding{pos: pos, value: src})

		index := 0

		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(i)
			if child == nil || child.Type() == "comment" {
				continue
			}

			if !child.IsNamed() {
				if child.Type() == "," {
					index++
				}

				continue
			}

			if child.Type() == "rest_pattern" {
				out = c.bindings(child, &jsast.PatternRef{Base: c.base(child), Source: src}, out)

				continue
			}

			out = c.bindings(child, c.component(src, child, strconv.Itoa(index)), out)
		}

		return out
	default:
		return append(out, binding{pos: pos, target: n, value: value})
	}
}

func (c *converter) patternSource(n *sitter.Node, value jsast.Node) *jsast.PatternSource {
	if value == nil {
		value = &jsast.Literal{Base: c.base(n), LiteralKind: jsast.LiteralUndefined}
	}

	return &jsast.PatternSource{Base: c.base(n), Value: value}
}

func (c *converter) component(src *jsast.PatternSource, at *sitter.Node, key string) jsast.Node {
	return &jsast.MemberExpression{
		Base:     c.base(at),
		Object:   &jsast.PatternRef{Base: c.base(at), Source: src},
		Property: key,
	}
}

func (c *converter) componentByKey(src *jsast.PatternSource, key *sitter.Node) jsast.Node {
	if key == nil {
		return &jsast.PatternRef{Base: src.Base, Source: src}
	}

	switch key.Type() {
	case "string":
		return c.component(src, key, unquote(c.text(key)))
	case "computed_property_name":
		computed := c.expr(first(key))
		if computed == nil {
			computed = &jsast.Literal{Base: c.base(key)}
		}

		return &jsast.MemberExpression{
			Base:     c.base(key),
			Object:   &jsast.PatternRef{Base: c.base(key), Source: src},
			Computed: computed,
		}
	default:
		return c.component(src, key, c.text(key))
	}
}

// destructure lowers a destructuring assignment to a sequence that evaluates
// the source once, assigns every target and yields the source value.
func (c *converter) destructure(n, pattern *sitter.Node, value jsast.Node) jsast.Node {
	if value == nil {
		return c.unsupported(n)
	}

	seq := &jsast.SequenceExpression{Base: c.base(n)}

	var src *jsast.PatternSource

	for _, b := range c.bindings(pattern, value, nil) {
		switch {
		case b.name != "":
			seq.Expressions = append(seq.Expressions, &jsast.AssignmentExpression{
				Base:     jsast.Base{Pos: b.pos},
				Operator: "=",
				Target:   &jsast.Identifier{Base: jsast.Base{Pos: b.pos}, Name: b.name},
				Value:    b.value,
			})
		case b.target != nil:
			target := c.target(b.target)
			if target == nil {
				continue
			}

			seq.Expressions = append(seq.Expressions, &jsast.AssignmentExpression{
				Base:     jsast.Base{Pos: b.pos},
				Operator: "=",
				Target:   target,
				Value:    b.value,
			})
		default:
			if ps, ok := b.value.(*jsast.PatternSource); ok && src == nil {
				src = ps
			}

			seq.Expressions = append(seq.Expressions, b.value)
		}
	}

	if src != nil {
		seq.Expressions = append(seq.Expressions, &jsast.PatternRef{Base: c.base(n), Source: src})
	}

	return seq
}

func (c *converter) forIn(n *sitter.Node) jsast.Node {
	loop := &jsast.LoopStatement{Base: c.base(n), Body: c.stmt(n.ChildByFieldName("body"))}

	right := c.expr(n.ChildByFieldName("right"))
	if right == nil {
		return loop
	}

	item := &jsast.MemberExpression{
		Base:     c.base(n),
		Object:   right,
		Computed: &jsast.Identifier{Base: c.base(n), Name: "<item>"},
	}

	left := n.ChildByFieldName("left")
	if left == nil {
		loop.Test = right

		return loop
	}

	kindNode := n.ChildByFieldName("kind")
	if kindNode == nil {
		var assign jsast.Node

		if left = unparen(left); isPattern(left) {
			assign = c.destructure(left, left, item)
		} else if target := c.target(left); target != nil {
			assign = &jsast.AssignmentExpression{Base: c.base(left), Operator: "=", Target: target, Value: item}
		} else {
			assign = item
		}

		loop.Init = &jsast.ExpressionStatement{Base: c.base(left), Expression: assign}

		return loop
	}

	kind := jsast.DeclVar

	switch c.text(kindNode) {
	case "let":
		kind = jsast.DeclLet
	case "const":
		kind = jsast.DeclConst
	}

	loop.Init = &jsast.VariableDeclaration{Base: c.base(n), DeclKind: kind, Declarators: declarators(c.bindings(left, item, nil))}

	return loop
}

func (c *converter) try(n *sitter.Node) jsast.Node {
	t := &jsast.TryStatement{Base: c.base(n)}

	if body := n.ChildByFieldName("body"); body != nil {
		t.Block = c.block(body)
	}

	if h := n.ChildByFieldName("handler"); h != nil {
		if p := h.ChildByFieldName("parameter"); p != nil && p.Type() == "identifier" {
			t.Param = c.text(p)
		}

		if body := h.ChildByFieldName("body"); body != nil {
			t.Handler = c.block(body)
		}
	}

	if f := n.ChildByFieldName("finalizer"); f != nil {
		if body := f.ChildByFieldName("body"); body != nil {
			t.Finalizer = c.block(body)
		}
	}

	return t
}

func (c *converter) switchStmt(n *sitter.Node) jsast.Node {
	s := &jsast.SwitchStatement{Base: c.base(n), Discriminant: c.expr(n.ChildByFieldName("value"))}
	if s.Discriminant == nil {
		s.Discriminant = &jsast.Literal{Base: c.base(n)}
	}

	for _, clause := range named(n.ChildByFieldName("body")) {
		sc := &jsast.SwitchCase{Pos: c.base(clause).Pos}

		value := clause.ChildByFieldName("value")
		if clause.Type() == "switch_case" && value != nil {
			sc.Test = c.expr(value)
		}

		for _, child := range named(clause) {
			if sameNode(child, value) {
				continue
			}

			if st := c.stmt(child); st != nil {
				sc.Body = append(sc.Body, st)
			}
		}

		s.Cases = append(s.Cases, sc)
	}

	return s
}

//nolint:cyclop,funlen
func (c *converter) expr(n *sitter.Node) jsast.Node {
	if n == nil {
		return nil
	}

	if !c.descend() {
		return c.tooComplex(n)
	}
	defer c.ascend()

	switch n.Type() {
	case "identifier", "shorthand_property_identifier", "super", "import":
		return &jsast.Identifier{Base: c.base(n), Name: c.text(n)}
	case "this":
		return &jsast.ThisExpression{Base: c.base(n)}
	case "true", "false":
		return &jsast.Literal{Base: c.base(n), LiteralKind: jsast.LiteralBoolean, Value: n.Type()}
	case "null":
		return &jsast.Literal{Base: c.base(n), LiteralKind: jsast.LiteralNull}
	case "undefined":
		return &jsast.Literal{Base: c.base(n), LiteralKind: jsast.LiteralUndefined}
	case "number":
		raw := strings.ReplaceAll(strings.TrimSuffix(c.text(n), "n"), "_", "")

		return &jsast.Literal{Base: c.base(n), LiteralKind: jsast.LiteralNumber, Value: raw}
	case "string":
		return &jsast.Literal{Base: c.base(n), LiteralKind: jsast.LiteralString, Value: unquote(c.text(n))}
	case "template_string":
		return c.template(n)
	case "regex":
		return &jsast.Literal{Base: c.base(n), LiteralKind: jsast.LiteralRegExp, Value: c.text(n)}
	case "member_expression":
		m := &jsast.MemberExpression{Base: c.base(n), Object: c.expr(n.ChildByFieldName("object"))}
		if p := n.ChildByFieldName("property"); p != nil {
			m.Property = c.text(p)
		}

		return c.member(m)
	case "subscript_expression":
		m := &jsast.MemberExpression{
			Base:     c.base(n),
			Object:   c.expr(n.ChildByFieldName("object")),
			Computed: c.expr(n.ChildByFieldName("index")),
		}
		if m.Computed == nil {
			m.Computed = &jsast.Literal{Base: c.base(n)}
		}

		return c.member(m)
	case "call_expression":
		callee := c.expr(n.ChildByFieldName("function"))
		if callee == nil {
			return c.unsupported(n)
		}

		return &jsast.CallExpression{Base: c.base(n), Callee: callee, Arguments: c.arguments(n.ChildByFieldName("arguments"))}
	case "new_expression":
		callee := c.expr(n.ChildByFieldName("constructor"))
		if callee == nil {
			return c.unsupported(n)
		}

		return &jsast.NewExpression{Base: c.base(n), Callee: callee, Arguments: c.arguments(n.ChildByFieldName("arguments"))}
	case "assignment_expression", "augmented_assignment_expression":
		op := "="
		if o := n.ChildByFieldName("operator"); o != nil {
			op = o.Type()
		}

		left := unparen(n.ChildByFieldName("left"))
		if isPattern(left) && op == "=" {
			return c.destructure(n, left, c.expr(n.ChildByFieldName("right")))
		}

		target := c.target(left)
		value := c.expr(n.ChildByFieldName("right"))

		if target == nil || value == nil {
			return c.unsupported(n)
		}

		return &jsast.AssignmentExpression{Base: c.base(n), Operator: op, Target: target, Value: value}
	case "binary_expression":
		return c.binary(n)
	case "unary_expression", "update_expression":
		arg := c.expr(n.ChildByFieldName("argument"))
		op := n.ChildByFieldName("operator")

		if arg == nil || op == nil {
			return c.unsupported(n)
		}

		return &jsast.UnaryExpression{Base: c.base(n), Operator: op.Type(), Argument: arg}
	case "ternary_expression":
		test := c.expr(n.ChildByFieldName("condition"))
		cons := c.expr(n.ChildByFieldName("consequence"))
		alt := c.expr(n.ChildByFieldName("alternative"))

		if test == nil || cons == nil || alt == nil {
			return c.unsupported(n)
		}

		return &jsast.ConditionalExpression{Base: c.base(n), Test: test, Consequent: cons, Alternate: alt}
	case "parenthesized_expression", "await_expression", "spread_element", "non_null_expression":
		if inner := c.expr(first(n)); inner != nil {
			return inner
		}

		return &jsast.Literal{Base: c.base(n)}
	case "sequence_expression":
		seq := &jsast.SequenceExpression{Base: c.base(n)}
		c.flattenSequence(n, seq)

		return seq
	case "object":
		return c.object(n)
	case "array":
		arr := &jsast.ArrayExpression{Base: c.base(n)}
		for _, el := range named(n) {
			if x := c.expr(el); x != nil {
				arr.Elements = append(arr.Elements, x)
			}
		}

		return arr
	case "function", "function_expression", "generator_function", "arrow_function":
		return c.function(n)
	case "class":
		return c.class(n)
	default:
		return c.unsupported(n)
	}
}

// member fills in a missing object so optional chains read like plain access.
func (c *converter) member(m *jsast.MemberExpression) jsast.Node {
	if m.Object == nil {
		m.Object = &jsast.Literal{Base: m.Base}
	}

	return m
}

// target converts a simple assignment left-hand side.
func (c *converter) target(n *sitter.Node) jsast.Node {
	n = unparen(n)
	if n == nil {
		return nil
	}

	if isPattern(n) {
		return c.unsupported(n)
	}

	return c.expr(n)
}

func unparen(n *sitter.Node) *sitter.Node {
	for n != nil && n.Type() == "parenthesized_expression" {
		n = first(n)
	}

	return n
}

// binary converts a left-nested operator chain iteratively so that long
// concatenations do not count against the nesting ceiling.
func (c *converter) binary(n *sitter.Node) jsast.Node {
	spine := []*sitter.Node{n}

	left := n.ChildByFieldName("left")
	for left != nil && left.Type() == "binary_expression" {
		spine = append(spine, left)
		left = left.ChildByFieldName("left")
	}

	acc := c.expr(left)

	for i := len(spine) - 1; i >= 0; i-- {
		b := spine[i]
		right := c.expr(b.ChildByFieldName("right"))
		op := b.ChildByFieldName("operator")

		if acc == nil || right == nil || op == nil {
			acc = c.unsupported(b)

			continue
		}

		acc = &jsast.BinaryExpression{Base: c.base(b), Operator: op.Type(), Left: acc, Right: right}
	}

	return acc
}

func (c *converter) arguments(n *sitter.Node) []jsast.Node {
	if n == nil {
		return nil
	}

	if n.Type() == "template_string" {
		return []jsast.Node{c.template(n)}
	}

	var args []jsast.Node

	for _, a := range named(n) {
		if x := c.expr(a); x != nil {
			args = append(args, x)
		}
	}

	return args
}

func (c *converter) flattenSequence(n *sitter.Node, seq *jsast.SequenceExpression) {
	stack := []*sitter.Node{n}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top.Type() == "sequence_expression" {
			children := named(top)
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, children[i])
			}

			continue
		}

		if x := c.expr(top); x != nil {
			seq.Expressions = append(seq.Expressions, x)
		}
	}
}

func (c *converter) object(n *sitter.Node) jsast.Node {
	obj := &jsast.ObjectExpression{Base: c.base(n)}

	for _, child := range named(n) {
		p := &jsast.Property{Pos: c.base(child).Pos}

		switch child.Type() {
		case "pair":
			c.propertyKey(child.ChildByFieldName("key"), p)
			p.Value = c.expr(child.ChildByFieldName("value"))
		case "shorthand_property_identifier":
			p.Key = c.text(child)
			p.Value = &jsast.Identifier{Base: c.base(child), Name: p.Key}
		case "method_definition":
			c.propertyKey(child.ChildByFieldName("name"), p)
			p.Value = c.function(child)
		case "spread_element":
			p.Key = "*"
			p.Value = c.expr(first(child))
		default:
			p.Key = "*"
			p.Value = c.unsupported(child)
		}

		if p.Value == nil {
			p.Value = &jsast.Literal{Base: c.base(child)}
		}

		obj.Properties = append(obj.Properties, p)
	}

	return obj
}

func (c *converter) propertyKey(key *sitter.Node, p *jsast.Property) {
	if key == nil {
		p.Key = "*"

		return
	}

	switch key.Type() {
	case "string":
		p.Key = unquote(c.text(key))
	case "computed_property_name":
		p.Computed = c.expr(first(key))
		if p.Computed == nil {
			p.Key = "*"
		}
	default:
		p.Key = c.text(key)
	}
}

func (c *converter) function(n *sitter.Node) *jsast.Function {
	f := &jsast.Function{Base: c.base(n), Arrow: n.Type() == "arrow_function"}

	if name := n.ChildByFieldName("name"); name != nil && n.Type() != "method_definition" {
		f.Name = c.text(name)
	}

	if p := n.ChildByFieldName("parameter"); p != nil {
		f.Params = []string{paramName(c, p)}
	}

	// Destructured parameters bind a synthetic name that a prologue
	// declaration unpacks.
	var prologue []jsast.Node

	for i, p := range named(n.ChildByFieldName("parameters")) {
		name := paramName(c, p)
		if name == "" {
			name = "<param" + strconv.Itoa(i) + ">"
			prologue = append(prologue, &jsast.VariableDeclaration{
				Base:        c.base(p),
				DeclKind:    jsast.DeclLet,
				Declarators: declarators(c.bindings(p, &jsast.Identifier{Base: c.base(p), Name: name}, nil)),
			})
		}

		f.Params = append(f.Params, name)
	}

	body := n.ChildByFieldName("body")

	switch {
	case body == nil:
		f.Body = &jsast.Block{Base: c.base(n)}
	case body.Type() == "statement_block":
		f.Body = c.block(body)
	default:
		ret := &jsast.ReturnStatement{Base: c.base(body), Argument: c.expr(body)}
		f.Body = &jsast.Block{Base: c.base(body), Body: []jsast.Node{ret}}
	}

	if len(prologue) > 0 {
		f.Body.Body = append(prologue, f.Body.Body...)
	}

	return f
}

// paramName returns the bound name of a parameter, or "" for patterns.
func paramName(c *converter, p *sitter.Node) string {
	switch p.Type() {
	case "identifier":
		return c.text(p)
	case "assignment_pattern":
		if left := p.ChildByFieldName("left"); left != nil && left.Type() == "identifier" {
			return c.text(left)
		}
	case "rest_pattern", "rest_parameter":
		if inner := first(p); inner != nil && inner.Type() == "identifier" {
			return c.text(inner)
		}
	}

	return ""
}

// class turns a class into an unsupported node whose children are its
// methods and field initializers, so their bodies are still analyzed.
func (c *converter) class(n *sitter.Node) jsast.Node {
	u := &jsast.Unsupported{Base: c.base(n), Construct: "class"}

	for _, child := range named(n) {
		switch child.Type() {
		case "class_heritage":
			if x := c.expr(first(child)); x != nil {
				u.Children = append(u.Children, x)
			}
		case "class_body":
			for _, member := range named(child) {
				switch member.Type() {
				case "method_definition":
					u.Children = append(u.Children, c.function(member))
				case "field_definition", "public_field_definition":
					if v := c.expr(member.ChildByFieldName("value")); v != nil {
						u.Children = append(u.Children, v)
					}
				case "class_static_block":
					if body := member.ChildByFieldName("body"); body != nil {
						u.Children = append(u.Children, c.block(body))
					}
				}
			}
		}
	}

	return u
}

// unsupported wraps a construct the engine does not model. Named children
// are converted so that nested calls are still analyzed.
func (c *converter) unsupported(n *sitter.Node) jsast.Node {
	construct := n.Type()
	if construct == "ERROR" {
		construct = "syntax error"
	}

	u := &jsast.Unsupported{Base: c.base(n), Construct: construct}

	for _, child := range named(n) {
		var x jsast.Node

		switch child.Type() {
		case "statement_block":
			x = c.block(child)
		case "identifier", "property_identifier", "shorthand_property_identifier_pattern", "string", "number", "regex":
			continue
		default:
			x = c.stmtAsNode(child)
		}

		if x != nil {
			u.Children = append(u.Children, x)
		}
	}

	return u
}

func (c *converter) stmtAsNode(n *sitter.Node) jsast.Node {
	s := c.stmt(n)
	if es, ok := s.(*jsast.ExpressionStatement); ok {
		return es.Expression
	}

	return s
}

// template lowers a template literal to a string concatenation.
func (c *converter) template(n *sitter.Node) jsast.Node {
	start, end := n.StartByte()+1, n.EndByte()
	if end > start && c.src[end-1] == '`' {
		end--
	}

	var out jsast.Node = &jsast.Literal{Base: c.base(n), LiteralKind: jsast.LiteralString}

	appendPart := func(part jsast.Node) {
		out = &jsast.BinaryExpression{Base: c.base(n), Operator: "+", Left: out, Right: part}
	}

	pos := start

	for _, child := range named(n) {
		if child.Type() != "template_substitution" {
			continue
		}

		if child.StartByte() > pos {
			appendPart(&jsast.Literal{Base: c.base(n), LiteralKind: jsast.LiteralString, Value: unescape(string(c.src[pos:child.StartByte()]))})
		}

		if x := c.expr(first(child)); x != nil {
			appendPart(x)
		}

		pos = child.EndByte()
	}

	if end > pos {
		tail := &jsast.Literal{Base: c.base(n), LiteralKind: jsast.LiteralString, Value: unescape(string(c.src[pos:end]))}
		if lit, ok := out.(*jsast.Literal); ok && lit.Value == "" {
			return tail
		}

		appendPart(tail)
	}

	return out
}

// unquote strips the quotes of a string literal and decodes its escapes.
func unquote(raw string) string {
	if len(raw) >= 2 && (raw[0] == '"' || raw[0] == '\'') && raw[len(raw)-1] == raw[0] {
		raw = raw[1 : len(raw)-1]
	}

	return unescape(raw)
}

//nolint:cyclop
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder

	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])

			continue
		}

		i++

		switch e := s[i]; e {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		case '\n':
		case 'x':
			if r, ok := hexRune(s, i+1, i+3); ok {
				b.WriteRune(r)
				i += 2
			} else {
				b.WriteByte(e)
			}
		case 'u':
			r, next, ok := unicodeEscape(s, i+1)
			if !ok {
				b.WriteByte(e)

				continue
			}

			if utf16.IsSurrogate(r) && next+5 < len(s) && s[next] == '\\' && s[next+1] == 'u' {
				if r2, next2, ok := unicodeEscape(s, next+2); ok {
					if combined := utf16.DecodeRune(r, r2); combined != utf8.RuneError {
						r, next = combined, next2
					}
				}
			}

			b.WriteRune(r)
			i = next - 1
		default:
			b.WriteByte(e)
		}
	}

	return b.String()
}

// unicodeEscape decodes the digits of a \u escape starting at i and returns
// the index after it.
func unicodeEscape(s string, i int) (rune, int, bool) {
	if i < len(s) && s[i] == '{' {
		end := strings.IndexByte(s[i:], '}')
		if end < 0 {
			return 0, i, false
		}

		r, ok := hexRune(s, i+1, i+end)

		return r, i + end + 1, ok
	}

	r, ok := hexRune(s, i, i+4)

	return r, i + 4, ok
}

func hexRune(s string, from, to int) (rune, bool) {
	if from >= to || to > len(s) {
		return 0, false
	}

	v, err := strconv.ParseUint(s[from:to], 16, 32)
	if err != nil || v > utf8.MaxRune {
		return 0, false
	}

	return rune(v), true
}
