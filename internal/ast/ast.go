// Package ast defines the in-memory syntax tree of a KCL program and the
// structural algorithms editor tooling and the executor run over it.
package ast

// Digest is the structural hash of a node. Byte offsets never contribute.
type Digest [16]byte

// Base holds the byte offsets every node carries plus its cached digest.
type Base struct {
	Start  int     `json:"start"`
	End    int     `json:"end"`
	Digest *Digest `json:"digest,omitempty"`
}

// Range returns the node's closed byte interval.
func (b *Base) Range() SourceRange { return SourceRange{b.Start, b.End} }

func (b *Base) base() *Base { return b }

// Node is implemented by every tree node.
type Node interface {
	Range() SourceRange
	base() *Base
}

// BodyItem is a statement: *ImportStatement, *ExpressionStatement,
// *VariableDeclaration or *ReturnStatement.
type BodyItem interface {
	Node
	bodyItem()
}

// Expr is any value expression.
type Expr interface {
	Node
	exprNode()
}

// BinaryPart is the subset of expressions allowed as an operand of a binary
// or unary expression. Pipes, functions, arrays and objects are excluded.
type BinaryPart interface {
	Expr
	binaryPart()
}

// MemberObject is the base of a member expression: *MemberExpression or *Identifier.
type MemberObject interface {
	Expr
	memberObject()
}

// LiteralIdentifier is a member property: *Identifier or *Literal.
type LiteralIdentifier interface {
	Expr
	literalIdentifier()
}

// Program is the root of a parsed document. Function bodies and if branches
// are programs too.
type Program struct {
	Base
	Body        []BodyItem  `json:"body"`
	NonCodeMeta NonCodeMeta `json:"nonCodeMeta"`
}

// EndsWithExpr reports whether the last statement is an expression statement.
func (p *Program) EndsWithExpr() bool {
	if len(p.Body) == 0 {
		return false
	}
	_, ok := p.Body[len(p.Body)-1].(*ExpressionStatement)
	return ok
}

// ImportItem is one name pulled in by an import statement.
type ImportItem struct {
	Base
	Name  *Identifier `json:"name"`
	Alias *Identifier `json:"alias,omitempty"`
}

// Identifier returns the name the item is bound to in the importing program.
func (i *ImportItem) Identifier() string {
	if i.Alias != nil {
		return i.Alias.Name
	}
	return i.Name.Name
}

type ImportStatement struct {
	Base
	Items   []*ImportItem `json:"items"`
	Path    string        `json:"path"`
	RawPath string        `json:"rawPath"`
}

type ExpressionStatement struct {
	Base
	Expression Expr `json:"expression"`
}

// ItemVisibility controls whether a declaration is exported.
type ItemVisibility string

const (
	VisibilityDefault ItemVisibility = "default"
	VisibilityExport  ItemVisibility = "export"
)

// VariableKind distinguishes constant and function declarations.
type VariableKind string

const (
	KindConst VariableKind = "const"
	KindFn    VariableKind = "fn"
)

type VariableDeclaration struct {
	Base
	Declarations []*VariableDeclarator `json:"declarations"`
	Visibility   ItemVisibility        `json:"visibility"`
	Kind         VariableKind          `json:"kind"`
}

// VariableDeclarator binds one identifier to one initializer.
type VariableDeclarator struct {
	Base
	ID   *Identifier `json:"id"`
	Init Expr        `json:"init"`
}

type ReturnStatement struct {
	Base
	Argument Expr `json:"argument"`
}

func (*ImportStatement) bodyItem()     {}
func (*ExpressionStatement) bodyItem() {}
func (*VariableDeclaration) bodyItem() {}
func (*ReturnStatement) bodyItem()     {}

// Literal is a number, string or boolean constant. Raw keeps the source spelling.
type Literal struct {
	Base
	Value LiteralValue `json:"value"`
	Raw   string       `json:"raw"`
}

type Identifier struct {
	Base
	Name string `json:"name"`
}

// TagDeclarator names an entity so later code can reference it ($name).
type TagDeclarator struct {
	Base
	Name string `json:"value"`
}

type BinaryExpression struct {
	Base
	Operator BinaryOperator `json:"operator"`
	Left     BinaryPart     `json:"left"`
	Right    BinaryPart     `json:"right"`
}

type UnaryExpression struct {
	Base
	Operator UnaryOperator `json:"operator"`
	Argument BinaryPart    `json:"argument"`
}

type FunctionExpression struct {
	Base
	Params     []*Parameter `json:"params"`
	Body       *Program     `json:"body"`
	ReturnType *FnArgType   `json:"returnType,omitempty"`
}

// CallExpression calls the function named by Callee.
type CallExpression struct {
	Base
	Callee    *Identifier `json:"callee"`
	Arguments []Expr      `json:"arguments"`
	Optional  bool        `json:"optional"`
}

// PipeExpression threads the value of each stage into the next. Every stage
// after the first is a *CallExpression.
type PipeExpression struct {
	Base
	Body        []Expr      `json:"body"`
	NonCodeMeta NonCodeMeta `json:"nonCodeMeta"`
}

// PipeSubstitution is the % placeholder for the previous pipe stage's value.
type PipeSubstitution struct {
	Base
}

type ArrayExpression struct {
	Base
	Elements    []Expr      `json:"elements"`
	NonCodeMeta NonCodeMeta `json:"nonCodeMeta"`
}

type ArrayRangeExpression struct {
	Base
	StartElement Expr `json:"startElement"`
	EndElement   Expr `json:"endElement"`
	EndInclusive bool `json:"endInclusive"`
}

type ObjectExpression struct {
	Base
	Properties  []*ObjectProperty `json:"properties"`
	NonCodeMeta NonCodeMeta       `json:"nonCodeMeta"`
}

type ObjectProperty struct {
	Base
	Key   *Identifier `json:"key"`
	Value Expr        `json:"value"`
}

// MemberExpression is obj.prop or obj[prop]; Computed marks the bracket form.
type MemberExpression struct {
	Base
	Object   MemberObject      `json:"object"`
	Property LiteralIdentifier `json:"property"`
	Computed bool              `json:"computed"`
}

type IfExpression struct {
	Base
	Cond      Expr      `json:"cond"`
	ThenVal   *Program  `json:"thenVal"`
	ElseIfs   []*ElseIf `json:"elseIfs"`
	FinalElse *Program  `json:"finalElse"`
}

type ElseIf struct {
	Base
	Cond    Expr     `json:"cond"`
	ThenVal *Program `json:"thenVal"`
}

// None is the literal of absence.
type None struct {
	Base
}

func (*Literal) exprNode()              {}
func (*Identifier) exprNode()           {}
func (*TagDeclarator) exprNode()        {}
func (*BinaryExpression) exprNode()     {}
func (*FunctionExpression) exprNode()   {}
func (*CallExpression) exprNode()       {}
func (*PipeExpression) exprNode()       {}
func (*PipeSubstitution) exprNode()     {}
func (*ArrayExpression) exprNode()      {}
func (*ArrayRangeExpression) exprNode() {}
func (*ObjectExpression) exprNode()     {}
func (*MemberExpression) exprNode()     {}
func (*UnaryExpression) exprNode()      {}
func (*IfExpression) exprNode()         {}
func (*None) exprNode()                 {}

func (*Literal) binaryPart()          {}
func (*Identifier) binaryPart()       {}
func (*BinaryExpression) binaryPart() {}
func (*CallExpression) binaryPart()   {}
func (*UnaryExpression) binaryPart()  {}
func (*MemberExpression) binaryPart() {}
func (*IfExpression) binaryPart()     {}

func (*MemberExpression) memberObject() {}
func (*Identifier) memberObject()       {}

func (*Identifier) literalIdentifier() {}
func (*Literal) literalIdentifier()    {}

// NewIdentifier returns an identifier with zero offsets.
func NewIdentifier(name string) *Identifier {
	return &Identifier{Name: name}
}

// NewCall returns a call expression with zero offsets.
func NewCall(name string, args ...Expr) *CallExpression {
	return &CallExpression{Callee: NewIdentifier(name), Arguments: args}
}

