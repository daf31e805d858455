// Package parser turns KCL source text into an ast.Program. Comments and
// blank lines are kept in the tree as non-code nodes so the formatter and
// editor queries can see them.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/DeusData/kcl-ast/internal/ast"
)

// ErrSyntax is wrapped by every *SyntaxError.
var ErrSyntax = errors.New("syntax error")

// SyntaxError locates a lexing or parsing failure in the source.
type SyntaxError struct {
	Pos     int
	End     int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d: %s", e.Pos, e.Message)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

// Range returns the offending byte range.
func (e *SyntaxError) Range() ast.SourceRange { return ast.SourceRange{e.Pos, e.End} }

// Parser converts a token stream into a syntax tree.
type Parser struct {
	src    string
	tokens []Token
	pos    int
}

// Parse tokenizes and parses a whole KCL document.
func Parse(code string) (*ast.Program, error) {
	tokens, err := Lex(code)
	if err != nil {
		return nil, fmt.Errorf("lex: %w", err)
	}
	p := &Parser{src: code, tokens: tokens}
	prog, err := p.parseBody(TokEOF)
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.Type != TokEOF {
		return nil, p.errorf(t, "unexpected %s", describe(t))
	}
	prog.Start = 0
	prog.End = len(code)
	return prog, nil
}

// ParseExpr parses a single expression, for instance a value typed into an
// editor field.
func ParseExpr(code string) (ast.Expr, error) {
	tokens, err := Lex(code)
	if err != nil {
		return nil, fmt.Errorf("lex: %w", err)
	}
	p := &Parser{src: code, tokens: tokens}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.Type != TokEOF {
		return nil, p.errorf(t, "unexpected %s after expression", describe(t))
	}
	return e, nil
}

func isTrivia(t TokenType) bool {
	return t == TokComment || t == TokShebang
}

// lookahead returns the n-th code token from the cursor, skipping trivia.
func (p *Parser) lookahead(n int) Token {
	for i := p.pos; i < len(p.tokens); i++ {
		if isTrivia(p.tokens[i].Type) {
			continue
		}
		if n == 0 {
			return p.tokens[i]
		}
		n--
	}
	return Token{Type: TokEOF, Pos: len(p.src), End: len(p.src), Lead: len(p.src)}
}

func (p *Parser) peek() Token {
	return p.lookahead(0)
}

// advance consumes the next code token. Comments in front of it are dropped;
// callers that want them call nonCode first.
func (p *Parser) advance() Token {
	for p.pos < len(p.tokens) && isTrivia(p.tokens[p.pos].Type) {
		p.pos++
	}
	t := p.peek()
	p.pos++
	return t
}

func (p *Parser) expect(typ TokenType, what string) (Token, error) {
	t := p.peek()
	if t.Type != typ {
		return t, p.errorf(t, "expected %s, got %s", what, describe(t))
	}
	return p.advance(), nil
}

func (p *Parser) errorf(t Token, format string, args ...any) error {
	return &SyntaxError{Pos: t.Pos, End: t.End, Message: fmt.Sprintf(format, args...)}
}

func describe(t Token) string {
	if t.Type == TokEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.Value)
}

// sameLine reports whether no newline separates t from the token before it.
func (p *Parser) sameLine(t Token) bool {
	return !strings.Contains(p.src[t.Lead:t.Pos], "\n")
}

// nonCode consumes the trivia at the cursor and classifies it. afterCode is
// set when code of the same block precedes the gap, which makes a comment on
// that code's line inline. A blank line in front of the next code token
// becomes a newLine node unless that token closes the block.
func (p *Parser) nonCode(afterCode bool) []*ast.NonCodeNode {
	var out []*ast.NonCodeNode
	for p.pos < len(p.tokens) && isTrivia(p.tokens[p.pos].Type) {
		t := p.tokens[p.pos]
		p.pos++
		if t.Type == TokShebang {
			out = append(out, &ast.NonCodeNode{
				Base:  ast.Base{Start: t.Pos, End: t.End},
				Value: ast.NonCodeValue{Kind: ast.NonCodeShebang, Value: t.Value},
			})
			continue
		}
		value, style := commentText(t.Value)
		newlines := strings.Count(p.src[t.Lead:t.Pos], "\n")
		kind := ast.NonCodeBlockComment
		switch {
		case newlines == 0 && afterCode && len(out) == 0:
			kind = ast.NonCodeInlineComment
		case newlines >= 2:
			kind = ast.NonCodeNewLineBlockComment
		}
		out = append(out, &ast.NonCodeNode{
			Base:  ast.Base{Start: t.Pos, End: t.End},
			Value: ast.NonCodeValue{Kind: kind, Value: value, Style: style},
		})
	}

	next := p.peek()
	switch next.Type {
	case TokEOF, TokRBrace, TokRBracket, TokRParen:
		return out
	}
	if len(out) > 0 && out[len(out)-1].Value.Kind == ast.NonCodeShebang {
		return out
	}
	ws := p.src[next.Lead:next.Pos]
	if strings.Count(ws, "\n") >= 2 && (afterCode || len(out) > 0) {
		first := strings.IndexByte(ws, '\n')
		last := strings.LastIndexByte(ws, '\n')
		out = append(out, &ast.NonCodeNode{
			Base:  ast.Base{Start: next.Lead + first + 1, End: next.Lead + last},
			Value: ast.NonCodeValue{Kind: ast.NonCodeNewLine},
		})
	}
	return out
}

func commentText(raw string) (string, ast.CommentStyle) {
	if strings.HasPrefix(raw, "/*") {
		return strings.TrimSpace(raw[2 : len(raw)-2]), ast.StyleBlock
	}
	return strings.TrimSpace(strings.TrimPrefix(raw, "//")), ast.StyleLine
}

// parseBody parses statements until the end token, which it leaves unconsumed.
// The returned program has no offsets; callers set them.
func (p *Parser) parseBody(end TokenType) (*ast.Program, error) {
	prog := &ast.Program{Body: []ast.BodyItem{}}
	prog.NonCodeMeta.Start = p.nonCode(false)
	for {
		t := p.peek()
		if t.Type == end || t.Type == TokEOF {
			return prog, nil
		}
		item, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		prog.Body = append(prog.Body, item)
		for _, n := range p.nonCode(true) {
			prog.NonCodeMeta.Insert(len(prog.Body), n)
		}
	}
}

// parseBlock parses { statements } into a program spanning the braces.
func (p *Parser) parseBlock() (*ast.Program, error) {
	lb, err := p.expect(TokLBrace, "'{'")
	if err != nil {
		return nil, err
	}
	body, err := p.parseBody(TokRBrace)
	if err != nil {
		return nil, err
	}
	rb, err := p.expect(TokRBrace, "'}'")
	if err != nil {
		return nil, err
	}
	body.Start = lb.Pos
	body.End = rb.End
	return body, nil
}

func (p *Parser) parseStatement() (ast.BodyItem, error) {
	t := p.peek()
	switch t.Type {
	case TokImport:
		return p.parseImport()
	case TokExport, TokConst, TokLet, TokVar, TokFn:
		return p.parseDeclaration()
	case TokReturn:
		p.advance()
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.ReturnStatement{Base: ast.Base{Start: t.Pos, End: arg.Range().End()}, Argument: arg}, nil
	case TokIdent:
		if p.lookahead(1).Type == TokAssign {
			return p.parseDeclaration()
		}
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	r := e.Range()
	return &ast.ExpressionStatement{Base: ast.Base{Start: r.Start(), End: r.End()}, Expression: e}, nil
}

func (p *Parser) parseImport() (*ast.ImportStatement, error) {
	start := p.advance().Pos
	var items []*ast.ImportItem
	for {
		name, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		item := &ast.ImportItem{Base: ast.Base{Start: name.Start, End: name.End}, Name: name}
		if p.peek().Type == TokAs {
			p.advance()
			alias, err := p.parseIdentifier()
			if err != nil {
				return nil, err
			}
			item.Alias = alias
			item.End = alias.End
		}
		items = append(items, item)
		if p.peek().Type != TokComma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(TokFrom, "'from'"); err != nil {
		return nil, err
	}
	path, err := p.expect(TokString, "an import path")
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path.Value, ".kcl") {
		return nil, p.errorf(path, "import path %q must name a .kcl file", path.Value)
	}
	return &ast.ImportStatement{
		Base:    ast.Base{Start: start, End: path.End},
		Items:   items,
		Path:    path.Value,
		RawPath: p.src[path.Pos:path.End],
	}, nil
}

func (p *Parser) parseDeclaration() (*ast.VariableDeclaration, error) {
	start := p.peek().Pos
	visibility := ast.VisibilityDefault
	if p.peek().Type == TokExport {
		p.advance()
		visibility = ast.VisibilityExport
	}
	kind := ast.KindConst
	switch p.peek().Type {
	case TokFn:
		p.advance()
		kind = ast.KindFn
	case TokConst, TokLet, TokVar:
		p.advance()
	}
	id, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokAssign, "'='"); err != nil {
		return nil, err
	}
	init, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, ok := init.(*ast.FunctionExpression); kind == ast.KindFn && !ok {
		r := init.Range()
		return nil, &SyntaxError{Pos: r.Start(), End: r.End(), Message: fmt.Sprintf("fn %s must be bound to a function", id.Name)}
	}
	end := init.Range().End()
	return &ast.VariableDeclaration{
		Base: ast.Base{Start: start, End: end},
		Declarations: []*ast.VariableDeclarator{{
			Base: ast.Base{Start: id.Start, End: end},
			ID:   id,
			Init: init,
		}},
		Visibility: visibility,
		Kind:       kind,
	}, nil
}

func (p *Parser) parseIdentifier() (*ast.Identifier, error) {
	t, err := p.expect(TokIdent, "an identifier")
	if err != nil {
		return nil, err
	}
	return &ast.Identifier{Base: ast.Base{Start: t.Pos, End: t.End}, Name: t.Value}, nil
}

// parseExpr parses a full expression including pipes.
func (p *Parser) parseExpr() (ast.Expr, error) {
	head, err := p.parseBinary(1)
	if err != nil {
		return nil, err
	}
	if p.peek().Type != TokPipe {
		return head, nil
	}
	pipe := &ast.PipeExpression{Body: []ast.Expr{head}}
	for {
		save := p.pos
		nodes := p.nonCode(true)
		if p.peek().Type != TokPipe {
			p.pos = save
			break
		}
		for _, n := range nodes {
			pipe.NonCodeMeta.Insert(len(pipe.Body), n)
		}
		p.advance()
		stage, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		if _, ok := stage.(*ast.CallExpression); !ok {
			r := stage.Range()
			return nil, &SyntaxError{Pos: r.Start(), End: r.End(), Message: "every pipe stage after the first must be a function call"}
		}
		pipe.Body = append(pipe.Body, stage)
	}
	pipe.Start = head.Range().Start()
	pipe.End = pipe.Body[len(pipe.Body)-1].Range().End()
	return pipe, nil
}

var binaryOps = map[TokenType]ast.BinaryOperator{
	TokPlus:    ast.OpAdd,
	TokMinus:   ast.OpSub,
	TokStar:    ast.OpMul,
	TokSlash:   ast.OpDiv,
	TokPercent: ast.OpMod,
	TokCaret:   ast.OpPow,
	TokEQ:      ast.OpEq,
	TokNEQ:     ast.OpNeq,
	TokGT:      ast.OpGt,
	TokGTE:     ast.OpGte,
	TokLT:      ast.OpLt,
	TokLTE:     ast.OpLte,
}

// parseBinary is precedence climbing over unary operands.
func (p *Parser) parseBinary(minPrec int) (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		op, ok := binaryOps[t.Type]
		if !ok || op.Precedence() < minPrec {
			return left, nil
		}
		p.advance()
		lhs, err := p.operand(left)
		if err != nil {
			return nil, err
		}
		next := op.Precedence() + 1
		if op.Associativity() == ast.AssocRight {
			next = op.Precedence()
		}
		right, err := p.parseBinary(next)
		if err != nil {
			return nil, err
		}
		rhs, err := p.operand(right)
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpression{
			Base:     ast.Base{Start: lhs.Range().Start(), End: rhs.Range().End()},
			Operator: op,
			Left:     lhs,
			Right:    rhs,
		}
	}
}

func (p *Parser) operand(e ast.Expr) (ast.BinaryPart, error) {
	bp, ok := e.(ast.BinaryPart)
	if !ok {
		r := e.Range()
		return nil, &SyntaxError{Pos: r.Start(), End: r.End(), Message: fmt.Sprintf("%s cannot be used as an operand", p.src[r.Start():r.End()])}
	}
	return bp, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	t := p.peek()
	var op ast.UnaryOperator
	switch t.Type {
	case TokMinus:
		op = ast.OpNeg
	case TokBang:
		op = ast.OpNot
	default:
		return p.parsePostfix()
	}
	p.advance()
	inner, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	arg, err := p.operand(inner)
	if err != nil {
		return nil, err
	}
	return &ast.UnaryExpression{
		Base:     ast.Base{Start: t.Pos, End: arg.Range().End()},
		Operator: op,
		Argument: arg,
	}, nil
}

// parsePostfix parses a primary followed by any member accesses.
func (p *Parser) parsePostfix() (ast.Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.Type != TokDot && !(t.Type == TokLBracket && p.sameLine(t)) {
			return e, nil
		}
		obj, ok := e.(ast.MemberObject)
		if !ok {
			return nil, p.errorf(t, "only identifiers and members can be indexed")
		}
		p.advance()
		if t.Type == TokDot {
			prop, err := p.parseIdentifier()
			if err != nil {
				return nil, err
			}
			e = &ast.MemberExpression{Base: ast.Base{Start: obj.Range().Start(), End: prop.End}, Object: obj, Property: prop}
			continue
		}
		idx, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		prop, ok := idx.(ast.LiteralIdentifier)
		if !ok {
			r := idx.Range()
			return nil, &SyntaxError{Pos: r.Start(), End: r.End(), Message: "member index must be a literal or an identifier"}
		}
		rb, err := p.expect(TokRBracket, "']'")
		if err != nil {
			return nil, err
		}
		e = &ast.MemberExpression{Base: ast.Base{Start: obj.Range().Start(), End: rb.End}, Object: obj, Property: prop, Computed: true}
	}
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	t := p.peek()
	base := ast.Base{Start: t.Pos, End: t.End}
	switch t.Type {
	case TokNumber:
		p.advance()
		f, err := strconv.ParseFloat(t.Value, 64)
		if err != nil {
			return nil, p.errorf(t, "invalid number %q", t.Value)
		}
		return &ast.Literal{Base: base, Value: ast.NumberValue(f), Raw: t.Value}, nil
	case TokString:
		p.advance()
		return &ast.Literal{Base: base, Value: ast.StringValue(t.Value), Raw: p.src[t.Pos:t.End]}, nil
	case TokTrue, TokFalse:
		p.advance()
		return &ast.Literal{Base: base, Value: ast.BoolValue(t.Type == TokTrue), Raw: t.Value}, nil
	case TokNone:
		p.advance()
		return &ast.None{Base: base}, nil
	case TokTag:
		p.advance()
		return &ast.TagDeclarator{Base: base, Name: t.Value}, nil
	case TokPercent:
		p.advance()
		return &ast.PipeSubstitution{Base: base}, nil
	case TokIdent:
		p.advance()
		id := &ast.Identifier{Base: base, Name: t.Value}
		if next := p.peek(); next.Type == TokLParen && p.sameLine(next) {
			return p.parseCall(id)
		}
		return id, nil
	case TokLParen:
		if p.isFunctionLiteral() {
			return p.parseFunction()
		}
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRParen, "')'"); err != nil {
			return nil, err
		}
		return e, nil
	case TokLBracket:
		return p.parseArray()
	case TokLBrace:
		return p.parseObject()
	case TokIf:
		return p.parseIf()
	}
	return nil, p.errorf(t, "unexpected %s", describe(t))
}

func (p *Parser) parseCall(callee *ast.Identifier) (*ast.CallExpression, error) {
	p.advance()
	args := []ast.Expr{}
	for p.peek().Type != TokRParen {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.peek().Type != TokComma {
			break
		}
		p.advance()
	}
	rp, err := p.expect(TokRParen, "')' to close the call")
	if err != nil {
		return nil, err
	}
	return &ast.CallExpression{
		Base:      ast.Base{Start: callee.Start, End: rp.End},
		Callee:    callee,
		Arguments: args,
	}, nil
}

// isFunctionLiteral reports whether the '(' at the cursor opens a parameter
// list, i.e. its matching ')' is followed by '=>' or a return type.
func (p *Parser) isFunctionLiteral() bool {
	depth := 0
	for i := p.pos; i < len(p.tokens); i++ {
		switch p.tokens[i].Type {
		case TokLParen:
			depth++
		case TokRParen:
			depth--
			if depth == 0 {
				for j := i + 1; j < len(p.tokens); j++ {
					if isTrivia(p.tokens[j].Type) {
						continue
					}
					return p.tokens[j].Type == TokArrow || p.tokens[j].Type == TokColon
				}
				return false
			}
		case TokEOF:
			return false
		}
	}
	return false
}

func (p *Parser) parseFunction() (*ast.FunctionExpression, error) {
	lp := p.advance()
	params := []*ast.Parameter{}
	for p.peek().Type != TokRParen {
		param, err := p.parseParameter()
		if err != nil {
			return nil, err
		}
		params = append(params, param)
		if p.peek().Type != TokComma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(TokRParen, "')' to close the parameter list"); err != nil {
		return nil, err
	}
	var ret *ast.FnArgType
	if p.peek().Type == TokColon {
		p.advance()
		t, err := p.parseArgType()
		if err != nil {
			return nil, err
		}
		ret = t
	}
	if _, err := p.expect(TokArrow, "'=>'"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	fn := &ast.FunctionExpression{
		Base:       ast.Base{Start: lp.Pos, End: body.End},
		Params:     params,
		Body:       body,
		ReturnType: ret,
	}
	if _, _, err := fn.RequiredAndOptionalParams(); err != nil {
		r := fn.Range()
		return nil, &SyntaxError{Pos: r.Start(), End: r.End(), Message: err.Error()}
	}
	return fn, nil
}

func (p *Parser) parseParameter() (*ast.Parameter, error) {
	id, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}
	param := &ast.Parameter{Identifier: id}
	if p.peek().Type == TokQuestion {
		p.advance()
		param.Optional = true
	}
	if p.peek().Type == TokColon {
		p.advance()
		t, err := p.parseArgType()
		if err != nil {
			return nil, err
		}
		param.Type = t
	}
	return param, nil
}

// parseArgType parses a primitive, primitive[] or {field: type, ...} annotation.
func (p *Parser) parseArgType() (*ast.FnArgType, error) {
	if p.peek().Type == TokLBrace {
		p.advance()
		var fields []*ast.Parameter
		for p.peek().Type != TokRBrace {
			f, err := p.parseParameter()
			if err != nil {
				return nil, err
			}
			fields = append(fields, f)
			if p.peek().Type != TokComma {
				break
			}
			p.advance()
		}
		if _, err := p.expect(TokRBrace, "'}'"); err != nil {
			return nil, err
		}
		return &ast.FnArgType{Kind: ast.ArgObject, Fields: fields}, nil
	}
	t, err := p.expect(TokIdent, "a type name")
	if err != nil {
		return nil, err
	}
	prim, ok := ast.ParsePrimitive(t.Value)
	if !ok {
		return nil, p.errorf(t, "unknown type %q", t.Value)
	}
	if p.peek().Type == TokLBracket && p.lookahead(1).Type == TokRBracket {
		p.advance()
		p.advance()
		return &ast.FnArgType{Kind: ast.ArgArray, Primitive: prim}, nil
	}
	return &ast.FnArgType{Kind: ast.ArgPrimitive, Primitive: prim}, nil
}

func (p *Parser) parseArray() (ast.Expr, error) {
	lb := p.advance()
	arr := &ast.ArrayExpression{Elements: []ast.Expr{}}
	arr.NonCodeMeta.Start = p.nonCode(false)
	if p.peek().Type != TokRBracket {
		first, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if t := p.peek().Type; t == TokDotDot || t == TokDotDotLT {
			return p.parseRange(lb, first)
		}
		arr.Elements = append(arr.Elements, first)
		for {
			nodes := p.nonCode(true)
			if p.peek().Type == TokComma {
				p.advance()
				nodes = append(nodes, p.nonCode(true)...)
			} else {
				for _, n := range nodes {
					arr.NonCodeMeta.Insert(len(arr.Elements), n)
				}
				break
			}
			for _, n := range nodes {
				arr.NonCodeMeta.Insert(len(arr.Elements), n)
			}
			if p.peek().Type == TokRBracket {
				break
			}
			el, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			arr.Elements = append(arr.Elements, el)
		}
	}
	rb, err := p.expect(TokRBracket, "']'")
	if err != nil {
		return nil, err
	}
	arr.Start = lb.Pos
	arr.End = rb.End
	return arr, nil
}

func (p *Parser) parseRange(lb Token, start ast.Expr) (*ast.ArrayRangeExpression, error) {
	op := p.advance()
	end, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	rb, err := p.expect(TokRBracket, "']' to close the range")
	if err != nil {
		return nil, err
	}
	return &ast.ArrayRangeExpression{
		Base:         ast.Base{Start: lb.Pos, End: rb.End},
		StartElement: start,
		EndElement:   end,
		EndInclusive: op.Type == TokDotDot,
	}, nil
}

func (p *Parser) parseObject() (*ast.ObjectExpression, error) {
	lb := p.advance()
	obj := &ast.ObjectExpression{Properties: []*ast.ObjectProperty{}}
	obj.NonCodeMeta.Start = p.nonCode(false)
	for p.peek().Type != TokRBrace {
		key, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokColon, "':'"); err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		obj.Properties = append(obj.Properties, &ast.ObjectProperty{
			Base:  ast.Base{Start: key.Start, End: value.Range().End()},
			Key:   key,
			Value: value,
		})
		nodes := p.nonCode(true)
		more := p.peek().Type == TokComma
		if more {
			p.advance()
			nodes = append(nodes, p.nonCode(true)...)
		}
		for _, n := range nodes {
			obj.NonCodeMeta.Insert(len(obj.Properties), n)
		}
		if !more {
			break
		}
	}
	rb, err := p.expect(TokRBrace, "'}'")
	if err != nil {
		return nil, err
	}
	obj.Start = lb.Pos
	obj.End = rb.End
	return obj, nil
}

func (p *Parser) parseIf() (*ast.IfExpression, error) {
	ifTok := p.advance()
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	n := &ast.IfExpression{Cond: cond, ThenVal: then}
	for n.FinalElse == nil {
		elseTok, err := p.expect(TokElse, "'else', if expressions need an else branch")
		if err != nil {
			return nil, err
		}
		if p.peek().Type != TokIf {
			final, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			n.FinalElse = final
			break
		}
		p.advance()
		c, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		b, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		n.ElseIfs = append(n.ElseIfs, &ast.ElseIf{Base: ast.Base{Start: elseTok.Pos, End: b.End}, Cond: c, ThenVal: b})
	}
	n.Start = ifTok.Pos
	n.End = n.FinalElse.End
	return n, nil
}
