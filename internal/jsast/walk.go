package jsast

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrCycle is returned by Check when a node is reachable from itself.
var ErrCycle = errors.New("syntax tree contains a cycle")

// ErrNilNode is returned by Check when a required child is missing.
var ErrNilNode = errors.New("syntax tree contains a nil node")

// Children returns the direct child nodes of n in source order. Optional
// children that are absent are skipped.
func Children(n Node) []Node {
	var out []Node
	add := func(c Node) {
		if !isNil(c) {
			out = append(out, c)
		}
	}

	switch n := n.(type) {
	case *Program:
		for _, c := range n.Body {
			add(c)
		}
	case *Block:
		for _, c := range n.Body {
			add(c)
		}
	case *ExpressionStatement:
		add(n.Expression)
	case *VariableDeclaration:
		for _, d := range n.Declarators {
			if d != nil {
				add(d.Init)
			}
		}
	case *Function:
		if n.Body != nil {
			add(n.Body)
		}
	case *FunctionDeclaration:
		if n.Function != nil {
			add(n.Function)
		}
	case *ReturnStatement:
		add(n.Argument)
	case *ThrowStatement:
		add(n.Argument)
	case *IfStatement:
		add(n.Test)
		add(n.Consequent)
		add(n.Alternate)
	case *LoopStatement:
		add(n.Init)
		add(n.Test)
		add(n.Update)
		add(n.Body)
	case *SwitchStatement:
		add(n.Discriminant)
		for _, sc := range n.Cases {
			if sc == nil {
				continue
			}
			add(sc.Test)
			for _, c := range sc.Body {
				add(c)
			}
		}
	case *TryStatement:
		if n.Block != nil {
			add(n.Block)
		}
		if n.Handler != nil {
			add(n.Handler)
		}
		if n.Finalizer != nil {
			add(n.Finalizer)
		}
	case *MemberExpression:
		add(n.Object)
		add(n.Computed)
	case *CallExpression:
		add(n.Callee)
		for _, c := range n.Arguments {
			add(c)
		}
	case *NewExpression:
		add(n.Callee)
		for _, c := range n.Arguments {
			add(c)
		}
	case *AssignmentExpression:
		add(n.Target)
		add(n.Value)
	case *BinaryExpression:
		add(n.Left)
		add(n.Right)
	case *UnaryExpression:
		add(n.Argument)
	case *ConditionalExpression:
		add(n.Test)
		add(n.Consequent)
		add(n.Alternate)
	case *SequenceExpression:
		for _, c := range n.Expressions {
			add(c)
		}
	case *ObjectExpression:
		for _, p := range n.Properties {
			if p == nil {
				continue
			}
			add(p.Computed)
			add(p.Value)
		}
	case *ArrayExpression:
		for _, c := range n.Elements {
			add(c)
		}
	case *Unsupported:
		for _, c := range n.Children {
			add(c)
		}
	case *PatternSource:
		add(n.Value)
	}

	return out
}

// Inspect walks the tree rooted at n depth-first, calling fn for each node.
// Children are skipped when fn returns false. Inspect does not guard against
// cycles; run Check first on untrusted trees.
func Inspect(n Node, fn func(Node) bool) {
	if isNil(n) || !fn(n) {
		return
	}

	for _, c := range Children(n) {
		Inspect(c, fn)
	}
}

// Check validates that the tree rooted at root is a finite tree: no node is
// its own ancestor and required children are present. It walks iteratively so
// that pathological depth cannot exhaust the goroutine stack. Shared subtrees
// (a DAG) are accepted.
func Check(root Node) error {
	if isNil(root) {
		return ErrNilNode
	}

	type frame struct {
		node     Node
		children []Node
		next     int
	}

	onPath := map[Node]bool{root: true}
	done := map[Node]bool{}
	stack := []*frame{{node: root, children: Children(root)}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next >= len(top.children) {
			delete(onPath, top.node)
			done[top.node] = true
			stack = stack[:len(stack)-1]

			continue
		}

		child := top.children[top.next]
		top.next++

		if onPath[child] {
			return fmt.Errorf("%w: %s at %d:%d", ErrCycle, child.Kind(), child.Loc().Line, child.Loc().Column)
		}

		if done[child] {
			continue
		}

		if err := checkRequired(child); err != nil {
			return err
		}

		onPath[child] = true
		stack = append(stack, &frame{node: child, children: Children(child)})
	}

	return nil
}

func checkRequired(n Node) error {
	missing := false

	switch n := n.(type) {
	case *ExpressionStatement:
		missing = isNil(n.Expression)
	case *FunctionDeclaration:
		missing = n.Function == nil
	case *MemberExpression:
		missing = isNil(n.Object)
	case *CallExpression:
		missing = isNil(n.Callee)
	case *NewExpression:
		missing = isNil(n.Callee)
	case *AssignmentExpression:
		missing = isNil(n.Target) || isNil(n.Value)
	case *BinaryExpression:
		missing = isNil(n.Left) || isNil(n.Right)
	case *UnaryExpression:
		missing = isNil(n.Argument)
	case *ConditionalExpression:
		missing = isNil(n.Test) || isNil(n.Consequent) || isNil(n.Alternate)
	case *IfStatement:
		missing = isNil(n.Test) || isNil(n.Consequent)
	case *PatternSource:
		missing = isNil(n.Value)
	case *PatternRef:
		missing = n.Source == nil
	}

	if missing {
		return fmt.Errorf("%w: %s at %d:%d", ErrNilNode, n.Kind(), n.Loc().Line, n.Loc().Column)
	}

	return nil
}

// isNil reports whether n is nil or a typed nil pointer.
func isNil(n Node) bool {
	if n == nil {
		return true
	}

	v := reflect.ValueOf(n)

	return v.Kind() == reflect.Ptr && v.IsNil()
}
