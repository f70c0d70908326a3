package engine

import (
	"jsgate.dev/pkg/jsgate/internal/jsast"
	m "jsgate.dev/pkg/jsgate/internal/model"
)

const defaultFlagCode = "flagged-api"

// call evaluates a call or construction. Method calls pass their receiver as
// `this`; Function.prototype call/apply/bind are unwrapped so that
// `f.call(x, a)` analyzes like `f(a)`.
func (e *evaluator) call(n jsast.Node, callee jsast.Node, argNodes []jsast.Node, s *Scope, isNew bool) (Value, error) {
	var (
		fn   Value
		this Value
	)

	if mem, ok := callee.(*jsast.MemberExpression); ok {
		recv, err := e.eval(mem.Object, s)
		if err != nil {
			return Unknown(), err
		}

		key, err := e.memberKey(mem, s)
		if err != nil {
			return Unknown(), err
		}

		if !isNew && isReflective(recv, key) {
			return e.reflect(recv, key, argNodes, s, n.Loc())
		}

		fn = e.member(recv, key)
		this = recv
	} else {
		var err error
		if fn, err = e.eval(callee, s); err != nil {
			return Unknown(), err
		}
	}

	args, err := e.evalArgs(argNodes, s)
	if err != nil {
		return Unknown(), err
	}

	return e.invoke(fn, this, args, n.Loc(), isNew)
}

func (e *evaluator) evalArgs(nodes []jsast.Node, s *Scope) ([]Value, error) {
	args := make([]Value, 0, len(nodes))

	for _, a := range nodes {
		v, err := e.eval(a, s)
		if err != nil {
			return nil, err
		}

		args = append(args, v)
	}

	return args, nil
}

func isReflective(recv Value, key string) bool {
	switch key {
	case "call", "apply", "bind":
	default:
		return false
	}

	switch w := recv.(type) {
	case *Function:
		return true
	case Wildcard:
		return !w.Flagged
	default:
		return false
	}
}

func (e *evaluator) reflect(target Value, key string, argNodes []jsast.Node, s *Scope, loc jsast.Location) (Value, error) {
	args, err := e.evalArgs(argNodes, s)
	if err != nil {
		return Unknown(), err
	}

	if key == "bind" {
		return target, nil
	}

	var (
		this Value
		rest []Value
	)

	if len(args) > 0 {
		this = args[0]
	}

	switch key {
	case "call":
		if len(args) > 1 {
			rest = args[1:]
		}
	case "apply":
		if len(args) > 1 {
			if arr, ok := args[1].(*Array); ok {
				rest = arr.Elements()
			}
		}
	}

	return e.invoke(target, this, rest, loc, false)
}

// invoke calls fn with evaluated arguments.
func (e *evaluator) invoke(fn Value, this Value, args []Value, loc jsast.Location, isNew bool) (Value, error) {
	switch f := fn.(type) {
	case *Function:
		if f.IsNative() {
			return e.callPath(f.Native, args, loc, isNew), nil
		}

		if isNew {
			return e.callUser(f, NewObject(), args, true)
		}

		return e.callUser(f, this, args, false)
	case Wildcard:
		return e.callPath(f.Path, args, loc, isNew), nil
	case *Object:
		if f.path != nil {
			return e.callPath(f.path, args, loc, isNew), nil
		}

		return Wildcard{Path: Path{"<object>", CallSegment}}, nil
	default:
		return Wildcard{Path: Path{"<expr>", CallSegment}}, nil
	}
}

// callPath applies the registry behavior for a host API call.
func (e *evaluator) callPath(path Path, args []Value, loc jsast.Location, isNew bool) Value {
	b := e.registry.Lookup(path)

	switch b.Kind {
	case Flag:
		code := b.Code
		if code == "" {
			code = defaultFlagCode
		}

		e.collector.RecordAPI(b.Severity, code, b.Message, path, loc)

		return Wildcard{Path: path.Append(CallSegment), Flagged: true}
	case Emulate:
		c := &Call{
			Path: path,
			Args: args,
			New:  isNew,
			Loc:  loc,
			record: func(severity m.Severity, code, message string) {
				e.collector.RecordAPI(severity, code, message, path, loc)
			},
		}

		if v := b.Build(c); v != nil {
			return v
		}
	}

	return Wildcard{Path: path.Append(CallSegment)}
}

// callUser runs a user function body in a fresh frame whose parent is the
// closure scope. A function already on the call stack is not re-entered; the
// recursive call yields a wildcard.
func (e *evaluator) callUser(f *Function, this Value, args []Value, construct bool) (Value, error) {
	if f.decl == nil || e.active[f.decl] {
		return Wildcard{Path: f.path().Append(CallSegment)}, nil
	}

	e.active[f.decl] = true
	defer delete(e.active, f.decl)

	e.invoked[f.decl] = true

	fs := f.Scope.FunctionChild()
	if !f.decl.Arrow {
		if this != nil {
			fs.Declare("this", BindingLexical, this)
		}

		fs.Declare("arguments", BindingVar, NewArray(args...))
	}

	for i, p := range f.Params {
		if p == "" {
			continue
		}

		var v Value = Undefined()
		if i < len(args) {
			v = args[i]
		}

		fs.Declare(p, BindingVar, v)
	}

	fr := &frame{}

	if f.Body != nil {
		e.hoistVars(f.Body.Body, fs)
		e.hoistFunctions(f.Body.Body, fs)

		if err := e.execList(f.Body.Body, fs, fr, false); err != nil {
			return Unknown(), err
		}
	}

	result := fr.result()

	if construct {
		if _, ok := result.(Primitive); ok {
			if b, ok := fs.Resolve("this"); ok {
				return b.Value, nil
			}
		}
	}

	return result, nil
}
