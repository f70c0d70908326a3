package engine

import (
	"errors"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"

	"jsgate.dev/pkg/jsgate/internal/jsast"
	m "jsgate.dev/pkg/jsgate/internal/model"
)

const (
	msgTooComplex = "analysis aborted: too complex"
	// maxStringLen caps concatenated strings; longer results become unknown.
	maxStringLen = 1 << 20
	thisName     = "this"
	// cancelCheckInterval is the node count between context checks.
	cancelCheckInterval = 4096
)

// abortError unwinds evaluation. Non-fatal aborts are absorbed by the
// nearest statement list so that sibling statements still run.
type abortError struct {
	reason string
	fatal  bool
}

func (e *abortError) Error() string {
	return "analysis aborted: " + e.reason
}

func isFatal(err error) bool {
	var abort *abortError
	if errors.As(err, &abort) {
		return abort.fatal
	}

	return err != nil
}

// frame collects the return values of one user-function invocation.
type frame struct {
	returns []Value
	done    bool
}

// result picks the most telling return value: the last non-primitive one,
// otherwise the last one, otherwise undefined.
func (f *frame) result() Value {
	if len(f.returns) == 0 {
		return Undefined()
	}

	for i := len(f.returns) - 1; i >= 0; i-- {
		if _, ok := f.returns[i].(Primitive); !ok {
			return f.returns[i]
		}
	}

	return f.returns[len(f.returns)-1]
}

type evaluator struct {
	registry  *Registry
	collector *Collector
	opts      options
	global    *Scope

	depth int
	nodes int

	active    map[*jsast.Function]bool
	invoked   map[*jsast.Function]bool
	functions []*Function

	// patterns holds the last value of each destructuring source.
	patterns map[*jsast.PatternSource]Value
}

func (e *evaluator) run(program *jsast.Program) {
	e.hoistVars(program.Body, e.global)
	e.hoistFunctions(program.Body, e.global)

	if err := e.execList(program.Body, e.global, nil, false); err != nil {
		return
	}

	e.sweep()
}

// sweep invokes every function the program defined but never called, with
// unknown arguments, so that handlers registered with the host are analyzed
// too.
func (e *evaluator) sweep() {
	for i := 0; i < len(e.functions); i++ {
		fn := e.functions[i]
		if e.invoked[fn.decl] {
			continue
		}

		args := make([]Value, len(fn.Params))
		for j, p := range fn.Params {
			args[j] = Wildcard{Path: Path{"<param>", p}}
		}

		if _, err := e.callUser(fn, nil, args, false); err != nil {
			return
		}
	}
}

// count charges one node visit against the budget.
func (e *evaluator) count(n jsast.Node) error {
	e.nodes++
	if e.nodes > e.opts.maxNodes {
		e.collector.Record(m.SeverityIncomplete, CodeTooComplex, msgTooComplex, n.Loc())

		return &abortError{reason: "node budget exhausted", fatal: true}
	}

	if e.nodes%cancelCheckInterval == 0 && e.opts.ctx != nil {
		if err := e.opts.ctx.Err(); err != nil {
			e.collector.Record(m.SeverityIncomplete, CodeTooComplex, "analysis aborted: "+err.Error(), n.Loc())

			return &abortError{reason: err.Error(), fatal: true}
		}
	}

	return nil
}

func (e *evaluator) enter(n jsast.Node) error {
	if err := e.count(n); err != nil {
		return err
	}

	if e.depth >= e.opts.maxDepth {
		e.collector.Record(m.SeverityIncomplete, CodeTooComplex, msgTooComplex, n.Loc())

		return &abortError{reason: "nesting too deep"}
	}

	e.depth++

	return nil
}

func (e *evaluator) leave() {
	e.depth--
}

func isStatement(n jsast.Node) bool {
	switch n.(type) {
	case *jsast.Program, *jsast.Block, *jsast.ExpressionStatement, *jsast.VariableDeclaration,
		*jsast.FunctionDeclaration, *jsast.ReturnStatement, *jsast.ThrowStatement, *jsast.IfStatement,
		*jsast.LoopStatement, *jsast.SwitchStatement, *jsast.TryStatement:
		return true
	default:
		return false
	}
}

// execList runs statements in order. It absorbs non-fatal aborts and stops
// after an unconditional return.
func (e *evaluator) execList(stmts []jsast.Node, s *Scope, fr *frame, cond bool) error {
	for _, stmt := range stmts {
		if stmt == nil {
			continue
		}

		if err := e.exec(stmt, s, fr, cond); err != nil {
			if isFatal(err) {
				return err
			}

			slog.Debug("Skipped statement", "kind", stmt.Kind(), "line", stmt.Loc().Line, "reason", err)
		}

		if fr != nil && fr.done {
			break
		}
	}

	return nil
}

// exec runs one statement. cond is set inside branches, loops and handlers,
// where a return does not end the enclosing function.
func (e *evaluator) exec(n jsast.Node, s *Scope, fr *frame, cond bool) error {
	if !isStatement(n) {
		_, err := e.eval(n, s)

		return err
	}

	if err := e.enter(n); err != nil {
		return err
	}
	defer e.leave()

	switch n := n.(type) {
	case *jsast.Program:
		return e.execBlock(n.Body, s.Child(), fr, cond)
	case *jsast.Block:
		return e.execBlock(n.Body, s.Child(), fr, cond)
	case *jsast.ExpressionStatement:
		_, err := e.eval(n.Expression, s)

		return err
	case *jsast.VariableDeclaration:
		return e.declare(n, s)
	case *jsast.FunctionDeclaration:
		return nil
	case *jsast.ReturnStatement:
		var v Value = Undefined()

		if n.Argument != nil {
			var err error
			if v, err = e.eval(n.Argument, s); err != nil {
				return err
			}
		}

		if fr != nil {
			fr.returns = append(fr.returns, v)
			if !cond {
				fr.done = true
			}
		}

		return nil
	case *jsast.ThrowStatement:
		if n.Argument == nil {
			return nil
		}

		_, err := e.eval(n.Argument, s)

		return err
	case *jsast.IfStatement:
		if _, err := e.eval(n.Test, s); err != nil {
			return err
		}

		if err := e.exec(n.Consequent, s.Child(), fr, true); err != nil {
			return err
		}

		if n.Alternate != nil {
			return e.exec(n.Alternate, s.Child(), fr, true)
		}

		return nil
	case *jsast.LoopStatement:
		return e.execLoop(n, s.Child(), fr)
	case *jsast.SwitchStatement:
		return e.execSwitch(n, s, fr)
	case *jsast.TryStatement:
		return e.execTry(n, s, fr)
	}

	return nil
}

func (e *evaluator) execBlock(body []jsast.Node, s *Scope, fr *frame, cond bool) error {
	e.hoistFunctions(body, s)

	return e.execList(body, s, fr, cond)
}

func (e *evaluator) execLoop(n *jsast.LoopStatement, s *Scope, fr *frame) error {
	if n.Init != nil {
		if err := e.exec(n.Init, s, fr, true); err != nil {
			return err
		}
	}

	if n.Test != nil {
		if _, err := e.eval(n.Test, s); err != nil {
			return err
		}
	}

	if n.Body != nil {
		if err := e.exec(n.Body, s.Child(), fr, true); err != nil {
			return err
		}
	}

	if n.Update != nil {
		if _, err := e.eval(n.Update, s); err != nil {
			return err
		}
	}

	return nil
}

func (e *evaluator) execSwitch(n *jsast.SwitchStatement, s *Scope, fr *frame) error {
	if _, err := e.eval(n.Discriminant, s); err != nil {
		return err
	}

	cs := s.Child()
	for _, c := range n.Cases {
		if c != nil {
			e.hoistFunctions(c.Body, cs)
		}
	}

	for _, c := range n.Cases {
		if c == nil {
			continue
		}

		if c.Test != nil {
			if _, err := e.eval(c.Test, cs); err != nil {
				return err
			}
		}

		if err := e.execList(c.Body, cs, fr, true); err != nil {
			return err
		}
	}

	return nil
}

func (e *evaluator) execTry(n *jsast.TryStatement, s *Scope, fr *frame) error {
	if n.Block != nil {
		if err := e.execBlock(n.Block.Body, s.Child(), fr, true); err != nil {
			return err
		}
	}

	if n.Handler != nil {
		hs := s.Child()
		if n.Param != "" {
			hs.Declare(n.Param, BindingLexical, Wildcard{Path: Path{"<exception>"}})
		}

		if err := e.execBlock(n.Handler.Body, hs, fr, true); err != nil {
			return err
		}
	}

	if n.Finalizer != nil {
		return e.execBlock(n.Finalizer.Body, s.Child(), fr, true)
	}

	return nil
}

func (e *evaluator) declare(n *jsast.VariableDeclaration, s *Scope) error {
	kind := BindingVar
	if n.DeclKind != jsast.DeclVar {
		kind = BindingLexical
	}

	for _, d := range n.Declarators {
		if d == nil {
			continue
		}

		if d.Init == nil {
			if d.Name == "" {
				continue
			}

			if kind == BindingVar {
				s.Declare(d.Name, kind, nil)
			} else {
				s.Declare(d.Name, kind, Undefined())
			}

			continue
		}

		v, err := e.eval(d.Init, s)
		if err != nil {
			return err
		}

		if d.Name != "" {
			s.Declare(d.Name, kind, nameFunction(d.Init, v, d.Name))
		}
	}

	return nil
}

// hoistVars pre-declares the `var` names of a function body, including those
// nested in blocks, so that closures defined earlier can see them.
func (e *evaluator) hoistVars(stmts []jsast.Node, s *Scope) {
	for _, stmt := range stmts {
		switch n := stmt.(type) {
		case *jsast.VariableDeclaration:
			if n.DeclKind != jsast.DeclVar {
				continue
			}

			for _, d := range n.Declarators {
				if d != nil && d.Name != "" {
					s.Declare(d.Name, BindingVar, nil)
				}
			}
		case *jsast.Block:
			e.hoistVars(n.Body, s)
		case *jsast.IfStatement:
			e.hoistVars([]jsast.Node{n.Consequent, n.Alternate}, s)
		case *jsast.LoopStatement:
			e.hoistVars([]jsast.Node{n.Init, n.Body}, s)
		case *jsast.SwitchStatement:
			for _, c := range n.Cases {
				if c != nil {
					e.hoistVars(c.Body, s)
				}
			}
		case *jsast.TryStatement:
			for _, b := range []*jsast.Block{n.Block, n.Handler, n.Finalizer} {
				if b != nil {
					e.hoistVars(b.Body, s)
				}
			}
		}
	}
}

// hoistFunctions binds the function declarations of one statement list.
func (e *evaluator) hoistFunctions(stmts []jsast.Node, s *Scope) {
	kind := BindingLexical
	if s.function {
		kind = BindingVar
	}

	for _, stmt := range stmts {
		decl, ok := stmt.(*jsast.FunctionDeclaration)
		if !ok || decl.Function == nil || decl.Function.Name == "" {
			continue
		}

		s.Declare(decl.Function.Name, kind, e.newFunction(decl.Function, s))
	}
}

func (e *evaluator) newFunction(fn *jsast.Function, s *Scope) *Function {
	f := &Function{
		Name:   fn.Name,
		Params: fn.Params,
		Body:   fn.Body,
		Scope:  s,
		decl:   fn,
	}
	e.functions = append(e.functions, f)

	return f
}

// nameFunction gives an anonymous function literal the name it is bound to.
func nameFunction(node jsast.Node, v Value, name string) Value {
	if _, ok := node.(*jsast.Function); !ok {
		return v
	}

	if f, ok := v.(*Function); ok && f.Name == "" {
		f.Name = name
	}

	return v
}

func (e *evaluator) eval(n jsast.Node, s *Scope) (Value, error) {
	if n == nil {
		return Undefined(), nil
	}

	if err := e.enter(n); err != nil {
		return Unknown(), err
	}
	defer e.leave()

	switch n := n.(type) {
	case *jsast.Literal:
		return literal(n), nil
	case *jsast.Identifier:
		return e.identifier(n, s), nil
	case *jsast.ThisExpression:
		if b, ok := s.Resolve("this"); ok {
			return b.Value, nil
		}

		// Unbound `this` is the global object of a classic script.
		return Wildcard{Path: Path{thisName}, Implicit: true}, nil
	case *jsast.Function:
		return e.function(n, s), nil
	case *jsast.MemberExpression:
		obj, err := e.eval(n.Object, s)
		if err != nil {
			return Unknown(), err
		}

		key, err := e.memberKey(n, s)
		if err != nil {
			return Unknown(), err
		}

		return e.member(obj, key), nil
	case *jsast.CallExpression:
		return e.call(n, n.Callee, n.Arguments, s, false)
	case *jsast.NewExpression:
		return e.call(n, n.Callee, n.Arguments, s, true)
	case *jsast.AssignmentExpression:
		return e.assign(n, s)
	case *jsast.BinaryExpression:
		return e.binary(n, s)
	case *jsast.UnaryExpression:
		return e.unary(n, s)
	case *jsast.ConditionalExpression:
		return e.conditional(n, s)
	case *jsast.SequenceExpression:
		var last Value = Undefined()

		for _, x := range n.Expressions {
			v, err := e.eval(x, s)
			if err != nil {
				return Unknown(), err
			}

			last = v
		}

		return last, nil
	case *jsast.ObjectExpression:
		return e.object(n, s)
	case *jsast.ArrayExpression:
		elems := make([]Value, 0, len(n.Elements))

		for _, x := range n.Elements {
			v, err := e.eval(x, s)
			if err != nil {
				return Unknown(), err
			}

			elems = append(elems, v)
		}

		return NewArray(elems...), nil
	case *jsast.PatternSource:
		v, err := e.eval(n.Value, s)
		if err != nil {
			return Unknown(), err
		}

		e.patterns[n] = v

		return v, nil
	case *jsast.PatternRef:
		if v, ok := e.patterns[n.Source]; ok {
			return v, nil
		}

		return Unknown(), nil
	case *jsast.Unsupported:
		if n.Construct == jsast.ConstructTooComplex {
			e.collector.Record(m.SeverityIncomplete, CodeTooComplex, msgTooComplex, n.Loc())

			return Unknown(), nil
		}

		return e.unsupported(n.Construct, n.Loc(), n.Children, s)
	default:
		return e.unsupported(n.Kind(), n.Loc(), jsast.Children(n), s)
	}
}

func literal(n *jsast.Literal) Value {
	switch n.LiteralKind {
	case jsast.LiteralNull:
		return Null()
	case jsast.LiteralBoolean:
		return Bool(n.Value == "true")
	case jsast.LiteralNumber:
		if f, err := strconv.ParseFloat(n.Value, 64); err == nil {
			return Number(f)
		}

		if i, err := strconv.ParseInt(n.Value, 0, 64); err == nil {
			return Number(float64(i))
		}

		return Unknown()
	case jsast.LiteralString:
		return String(n.Value)
	case jsast.LiteralRegExp:
		return Wildcard{Path: Path{"<regexp>"}}
	default:
		return Undefined()
	}
}

func (e *evaluator) identifier(n *jsast.Identifier, s *Scope) Value {
	v := s.Lookup(n.Name)
	if w, ok := v.(Wildcard); ok && w.Implicit {
		switch n.Name {
		case "undefined":
			return Undefined()
		case "NaN":
			return Number(math.NaN())
		case "Infinity":
			return Number(math.Inf(1))
		}
	}

	return v
}

func (e *evaluator) function(n *jsast.Function, s *Scope) Value {
	if n.Name == "" || n.Arrow {
		return e.newFunction(n, s)
	}

	// A named function expression sees its own name.
	fs := s.Child()
	f := e.newFunction(n, fs)
	fs.Declare(n.Name, BindingLexical, f)

	return f
}

func (e *evaluator) memberKey(n *jsast.MemberExpression, s *Scope) (string, error) {
	if n.Computed == nil {
		return n.Property, nil
	}

	v, err := e.eval(n.Computed, s)
	if err != nil {
		return AnySegment, err
	}

	if p, ok := v.(Primitive); ok {
		return p.Text(), nil
	}

	return AnySegment, nil
}

// member resolves obj[key]. Missing properties of host namespaces and
// wildcards extend the path, so aliases keep resolving through the registry.
func (e *evaluator) member(obj Value, key string) Value {
	switch o := obj.(type) {
	case *Object:
		if v, ok := o.Get(key); ok {
			return v
		}

		if o.path != nil {
			return Wildcard{Path: o.path.Append(key)}
		}

		return Wildcard{Path: Path{"<object>", key}}
	case Wildcard:
		if e.isGlobalAlias(o) && key != AnySegment {
			return e.global.Lookup(key)
		}

		return Wildcard{Path: o.Path.Append(key)}
	case *Array:
		if key == "length" {
			return Number(float64(o.Len()))
		}

		if i, err := strconv.Atoi(key); err == nil {
			if v, ok := o.At(i); ok {
				return v
			}
		}

		return Wildcard{Path: Path{"<array>", key}}
	case *Function:
		return Wildcard{Path: o.path().Append(key)}
	case Primitive:
		if o.Kind == KindString && key == "length" {
			return Number(float64(len(utf16.Encode([]rune(o.Literal)))))
		}

		return Wildcard{Path: Path{"<" + o.Kind.String() + ">", key}}
	default:
		return Unknown()
	}
}

func (e *evaluator) isGlobalAlias(w Wildcard) bool {
	if !w.Implicit || len(w.Path) != 1 {
		return false
	}

	return w.Path[0] == thisName || e.registry.IsGlobalAlias(w.Path[0])
}

func (e *evaluator) assign(n *jsast.AssignmentExpression, s *Scope) (Value, error) {
	var (
		v   Value
		err error
	)

	if n.Operator == "=" || n.Operator == "" {
		if v, err = e.eval(n.Value, s); err != nil {
			return Unknown(), err
		}
	} else {
		cur, err := e.eval(n.Target, s)
		if err != nil {
			return Unknown(), err
		}

		rhs, err := e.eval(n.Value, s)
		if err != nil {
			return Unknown(), err
		}

		v = combine(strings.TrimSuffix(n.Operator, "="), cur, rhs)
	}

	return v, e.store(n.Target, v, s, n.Loc())
}

// store writes v to an assignment target.
func (e *evaluator) store(target jsast.Node, v Value, s *Scope, loc jsast.Location) error {
	switch t := target.(type) {
	case *jsast.Identifier:
		s.Assign(t.Name, v)
	case *jsast.MemberExpression:
		return e.assignMember(t, v, s, loc)
	default:
		_, err := e.eval(target, s)

		return err
	}

	return nil
}

// assignMember rebuilds the containers along a member chain copy-on-write
// and rebinds the root identifier (or `this`) to the updated value.
func (e *evaluator) assignMember(target *jsast.MemberExpression, v Value, s *Scope, loc jsast.Location) error {
	chain := []*jsast.MemberExpression{target}

	root := target.Object
	for {
		inner, ok := root.(*jsast.MemberExpression)
		if !ok {
			break
		}

		chain = append(chain, inner)
		root = inner.Object
	}

	cur, err := e.eval(root, s)
	if err != nil {
		return err
	}

	containers := make([]Value, len(chain))
	keys := make([]string, len(chain))

	for i := len(chain) - 1; i >= 0; i-- {
		key, err := e.memberKey(chain[i], s)
		if err != nil {
			return err
		}

		containers[i] = cur
		keys[i] = key

		if i > 0 {
			cur = e.member(cur, key)
		}
	}

	updated := v
	for i := range chain {
		next, ok := e.setProperty(containers[i], keys[i], updated, loc)
		if !ok {
			return nil
		}

		updated = next
	}

	switch r := root.(type) {
	case *jsast.Identifier:
		s.Assign(r.Name, updated)
	case *jsast.ThisExpression:
		if b, ok := s.Resolve("this"); ok {
			b.Value = updated
		}
	}

	return nil
}

// setProperty returns container with key set to v, or false when the write
// does not produce a tracked value.
func (e *evaluator) setProperty(container Value, key string, v Value, loc jsast.Location) (Value, bool) {
	switch c := container.(type) {
	case *Object:
		if c.frozen {
			e.collector.RecordAPI(m.SeverityWarning, CodeHostOverwrite, "write to host namespace ignored", c.path.Append(key), loc)

			return nil, false
		}

		if key == AnySegment {
			return nil, false
		}

		updated, _ := c.With(key, v)

		return updated, true
	case *Array:
		if i, err := strconv.Atoi(key); err == nil && i >= 0 && i <= c.Len() {
			return c.With(i, v), true
		}
	case Wildcard:
		if e.isGlobalAlias(c) && key != AnySegment {
			e.global.Assign(key, v)
		}
	}

	return nil, false
}

// binary folds left-nested operator chains iteratively so that long
// concatenations do not count against the nesting limit.
func (e *evaluator) binary(n *jsast.BinaryExpression, s *Scope) (Value, error) {
	spine := []*jsast.BinaryExpression{n}

	left := n.Left
	for {
		inner, ok := left.(*jsast.BinaryExpression)
		if !ok {
			break
		}

		spine = append(spine, inner)
		left = inner.Left
	}

	acc, err := e.eval(left, s)
	if err != nil {
		return Unknown(), err
	}

	for i := len(spine) - 1; i >= 0; i-- {
		b := spine[i]
		if i > 0 {
			if err := e.count(b); err != nil {
				return Unknown(), err
			}
		}

		r, err := e.eval(b.Right, s)
		if err != nil {
			return Unknown(), err
		}

		acc = combine(b.Operator, acc, r)
	}

	return acc, nil
}

// combine applies a binary operator to abstract operands.
func combine(op string, l, r Value) Value {
	lp, lok := l.(Primitive)
	rp, rok := r.(Primitive)

	switch op {
	case "||":
		if t, ok := truthy(l); ok {
			if t {
				return l
			}

			return r
		}

		return informative(l, r)
	case "&&":
		if t, ok := truthy(l); ok {
			if t {
				return r
			}

			return l
		}

		return informative(l, r)
	case "??":
		if lok {
			if lp.Kind == KindNull || lp.Kind == KindUndefined {
				return r
			}

			return l
		}

		if _, ok := truthy(l); ok {
			return l
		}

		return informative(l, r)
	case "+":
		if !lok || !rok {
			return Unknown()
		}

		if lp.Kind == KindString || rp.Kind == KindString {
			if len(lp.Literal)+len(rp.Literal) > maxStringLen {
				return Unknown()
			}

			return String(lp.Text() + rp.Text())
		}

		return arithmetic(op, lp, rp)
	case "-", "*", "/", "%", "**":
		if !lok || !rok {
			return Unknown()
		}

		return arithmetic(op, lp, rp)
	case "===", "!==", "==", "!=":
		if !lok || !rok {
			return Unknown()
		}

		eq := lp == rp
		if !eq && (op == "==" || op == "!=") {
			eq = nullish(lp) && nullish(rp)
		}

		if strings.HasPrefix(op, "!") {
			eq = !eq
		}

		return Bool(eq)
	default:
		return Unknown()
	}
}

func nullish(p Primitive) bool {
	return p.Kind == KindNull || p.Kind == KindUndefined
}

func arithmetic(op string, l, r Primitive) Value {
	a, ok := l.Float()
	if !ok {
		return Unknown()
	}

	b, ok := r.Float()
	if !ok {
		return Unknown()
	}

	switch op {
	case "+":
		return Number(a + b)
	case "-":
		return Number(a - b)
	case "*":
		return Number(a * b)
	case "/":
		return Number(a / b)
	case "%":
		return Number(math.Mod(a, b))
	case "**":
		return Number(math.Pow(a, b))
	}

	return Unknown()
}

func (e *evaluator) unary(n *jsast.UnaryExpression, s *Scope) (Value, error) {
	v, err := e.eval(n.Argument, s)
	if err != nil {
		return Unknown(), err
	}

	switch n.Operator {
	case "++", "--":
		var next Value = Unknown()

		if p, ok := v.(Primitive); ok {
			if f, ok := p.Float(); ok {
				if n.Operator == "++" {
					next = Number(f + 1)
				} else {
					next = Number(f - 1)
				}
			}
		}

		return next, e.store(n.Argument, next, s, n.Loc())
	case "!":
		if t, ok := truthy(v); ok {
			return Bool(!t), nil
		}
	case "typeof":
		if name, ok := typeOf(v); ok {
			return String(name), nil
		}
	case "void":
		return Undefined(), nil
	case "delete":
		return Bool(true), nil
	case "-", "+":
		if p, ok := v.(Primitive); ok {
			if f, ok := p.Float(); ok {
				if n.Operator == "-" {
					f = -f
				}

				return Number(f), nil
			}
		}
	}

	return Unknown(), nil
}

func (e *evaluator) conditional(n *jsast.ConditionalExpression, s *Scope) (Value, error) {
	test, err := e.eval(n.Test, s)
	if err != nil {
		return Unknown(), err
	}

	c, err := e.eval(n.Consequent, s)
	if err != nil {
		return Unknown(), err
	}

	a, err := e.eval(n.Alternate, s)
	if err != nil {
		return Unknown(), err
	}

	if t, ok := truthy(test); ok {
		if t {
			return c, nil
		}

		return a, nil
	}

	return informative(c, a), nil
}

func (e *evaluator) object(n *jsast.ObjectExpression, s *Scope) (Value, error) {
	obj := NewObject()

	for _, p := range n.Properties {
		if p == nil {
			continue
		}

		key := p.Key
		if p.Computed != nil {
			kv, err := e.eval(p.Computed, s)
			if err != nil {
				return Unknown(), err
			}

			key = AnySegment
			if kp, ok := kv.(Primitive); ok {
				key = kp.Text()
			}
		}

		v, err := e.eval(p.Value, s)
		if err != nil {
			return Unknown(), err
		}

		obj, _ = obj.With(key, nameFunction(p.Value, v, key))
	}

	return obj, nil
}

// unsupported records a notice for a construct the engine does not model,
// still walks its children for their effects and yields a wildcard.
func (e *evaluator) unsupported(construct string, loc jsast.Location, children []jsast.Node, s *Scope) (Value, error) {
	e.collector.Record(m.SeverityNotice, CodeUnsupported, "unsupported construct: "+construct, loc)

	for _, c := range children {
		if c == nil {
			continue
		}

		var err error
		if isStatement(c) {
			err = e.exec(c, s.Child(), nil, true)
		} else {
			_, err = e.eval(c, s)
		}

		if isFatal(err) {
			return Unknown(), err
		}
	}

	return Wildcard{Path: Path{"<" + construct + ">"}}, nil
}
