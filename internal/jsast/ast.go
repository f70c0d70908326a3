// Package jsast defines the minimal JavaScript syntax tree the analysis engine
// consumes. Parsers live outside the engine and translate their own trees into
// these nodes.
package jsast

// Location is a 1-based line/column position in the analyzed source.
type Location struct {
	Line   int
	Column int
}

// Node is implemented by every syntax tree node.
type Node interface {
	Loc() Location
	Kind() string
	node()
}

// Base carries the position shared by all nodes.
type Base struct {
	Pos Location
}

// Loc returns the node position.
func (b Base) Loc() Location { return b.Pos }

func (Base) node() {}

// DeclKind is the declaration keyword of a variable declaration.
type DeclKind int

const (
	// DeclVar is a function-scoped `var` declaration.
	DeclVar DeclKind = iota
	// DeclLet is a block-scoped `let` declaration.
	DeclLet
	// DeclConst is a block-scoped `const` declaration.
	DeclConst
)

func (k DeclKind) String() string {
	switch k {
	case DeclLet:
		return "let"
	case DeclConst:
		return "const"
	default:
		return "var"
	}
}

// LiteralKind identifies the primitive type of a literal.
type LiteralKind int

const (
	LiteralUndefined LiteralKind = iota
	LiteralNull
	LiteralBoolean
	LiteralNumber
	LiteralString
	LiteralRegExp
)

// Program is the root of a parsed file.
type Program struct {
	Base
	Body []Node
}

// Kind implements Node.
func (*Program) Kind() string { return "Program" }

// Block is a braced statement list with its own lexical scope.
type Block struct {
	Base
	Body []Node
}

// Kind implements Node.
func (*Block) Kind() string { return "Block" }

// ExpressionStatement evaluates an expression for its effects.
type ExpressionStatement struct {
	Base
	Expression Node
}

// Kind implements Node.
func (*ExpressionStatement) Kind() string { return "ExpressionStatement" }

// Declarator is one `name = init` entry of a declaration. Init may be nil.
type Declarator struct {
	Pos  Location
	Name string
	Init Node
}

// VariableDeclaration is a var/let/const statement.
type VariableDeclaration struct {
	Base
	DeclKind    DeclKind
	Declarators []*Declarator
}

// Kind implements Node.
func (*VariableDeclaration) Kind() string { return "VariableDeclaration" }

// Function is a function literal: declaration body, expression or arrow.
// Arrow functions with an expression body are normalized to a block holding
// a single return statement.
type Function struct {
	Base
	Name   string
	Params []string
	Body   *Block
	Arrow  bool
}

// Kind implements Node.
func (*Function) Kind() string { return "Function" }

// FunctionDeclaration binds a named function in the enclosing scope.
type FunctionDeclaration struct {
	Base
	Function *Function
}

// Kind implements Node.
func (*FunctionDeclaration) Kind() string { return "FunctionDeclaration" }

// ReturnStatement returns Argument (nil for a bare return).
type ReturnStatement struct {
	Base
	Argument Node
}

// Kind implements Node.
func (*ReturnStatement) Kind() string { return "ReturnStatement" }

// ThrowStatement throws Argument.
type ThrowStatement struct {
	Base
	Argument Node
}

// Kind implements Node.
func (*ThrowStatement) Kind() string { return "ThrowStatement" }

// IfStatement is a two-way branch. Alternate may be nil.
type IfStatement struct {
	Base
	Test       Node
	Consequent Node
	Alternate  Node
}

// Kind implements Node.
func (*IfStatement) Kind() string { return "IfStatement" }

// LoopStatement covers for, for-in/of, while and do-while loops. Any part
// may be nil.
type LoopStatement struct {
	Base
	Init   Node
	Test   Node
	Update Node
	Body   Node
}

// Kind implements Node.
func (*LoopStatement) Kind() string { return "LoopStatement" }

// SwitchCase is one case clause; Test is nil for `default`.
type SwitchCase struct {
	Pos  Location
	Test Node
	Body []Node
}

// SwitchStatement is a multi-way branch.
type SwitchStatement struct {
	Base
	Discriminant Node
	Cases        []*SwitchCase
}

// Kind implements Node.
func (*SwitchStatement) Kind() string { return "SwitchStatement" }

// TryStatement is try/catch/finally. Handler and Finalizer may be nil.
type TryStatement struct {
	Base
	Block     *Block
	Param     string
	Handler   *Block
	Finalizer *Block
}

// Kind implements Node.
func (*TryStatement) Kind() string { return "TryStatement" }

// Literal is a primitive literal. Value holds the decoded content (string
// literals are unquoted and unescaped).
type Literal struct {
	Base
	LiteralKind LiteralKind
	Value       string
}

// Kind implements Node.
func (*Literal) Kind() string { return "Literal" }

// Identifier references a binding by name.
type Identifier struct {
	Base
	Name string
}

// Kind implements Node.
func (*Identifier) Kind() string { return "Identifier" }

// ThisExpression is the `this` keyword.
type ThisExpression struct {
	Base
}

// Kind implements Node.
func (*ThisExpression) Kind() string { return "ThisExpression" }

// MemberExpression is `object.property` or, when Computed is set,
// `object[computed]`.
type MemberExpression struct {
	Base
	Object   Node
	Property string
	Computed Node
}

// Kind implements Node.
func (*MemberExpression) Kind() string { return "MemberExpression" }

// CallExpression is `callee(arguments...)`.
type CallExpression struct {
	Base
	Callee    Node
	Arguments []Node
}

// Kind implements Node.
func (*CallExpression) Kind() string { return "CallExpression" }

// NewExpression is `new callee(arguments...)`.
type NewExpression struct {
	Base
	Callee    Node
	Arguments []Node
}

// Kind implements Node.
func (*NewExpression) Kind() string { return "NewExpression" }

// AssignmentExpression is `target op value` where Operator is "=" or a
// compound form such as "+=".
type AssignmentExpression struct {
	Base
	Operator string
	Target   Node
	Value    Node
}

// Kind implements Node.
func (*AssignmentExpression) Kind() string { return "AssignmentExpression" }

// BinaryExpression covers arithmetic, comparison and logical operators.
type BinaryExpression struct {
	Base
	Operator string
	Left     Node
	Right    Node
}

// Kind implements Node.
func (*BinaryExpression) Kind() string { return "BinaryExpression" }

// UnaryExpression covers prefix operators and ++/--.
type UnaryExpression struct {
	Base
	Operator string
	Argument Node
}

// Kind implements Node.
func (*UnaryExpression) Kind() string { return "UnaryExpression" }

// ConditionalExpression is `test ? consequent : alternate`.
type ConditionalExpression struct {
	Base
	Test       Node
	Consequent Node
	Alternate  Node
}

// Kind implements Node.
func (*ConditionalExpression) Kind() string { return "ConditionalExpression" }

// SequenceExpression is a comma-separated expression list.
type SequenceExpression struct {
	Base
	Expressions []Node
}

// Kind implements Node.
func (*SequenceExpression) Kind() string { return "SequenceExpression" }

// Property is one entry of an object literal. Computed is set for `[expr]:`
// keys, otherwise Key holds the static name.
type Property struct {
	Pos      Location
	Key      string
	Computed Node
	Value    Node
}

// ObjectExpression is an object literal.
type ObjectExpression struct {
	Base
	Properties []*Property
}

// Kind implements Node.
func (*ObjectExpression) Kind() string { return "ObjectExpression" }

// ArrayExpression is an array literal. Holes are nil.
type ArrayExpression struct {
	Base
	Elements []Node
}

// Kind implements Node.
func (*ArrayExpression) Kind() string { return "ArrayExpression" }

// ConstructTooComplex marks an Unsupported node that replaces a region the
// parser refused to convert because it is nested too deeply.
const ConstructTooComplex = "too complex"

// Unsupported stands in for a construct the engine does not model. Children
// holds sub-trees that should still be walked for their effects.
type Unsupported struct {
	Base
	Construct string
	Children  []Node
}

// Kind implements Node.
func (*Unsupported) Kind() string { return "Unsupported" }

// PatternSource evaluates Value once for a lowered destructuring pattern.
// The names bound by the pattern read components of that value through
// PatternRef nodes pointing back at this source.
type PatternSource struct {
	Base
	Value Node
}

// Kind implements Node.
func (*PatternSource) Kind() string { return "PatternSource" }

// PatternRef yields the value most recently computed by Source. Source is a
// back reference and not a child.
type PatternRef struct {
	Base
	Source *PatternSource
}

// Kind implements Node.
func (*PatternRef) Kind() string { return "PatternRef" }
