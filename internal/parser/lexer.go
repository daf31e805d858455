package parser

import (
	"fmt"
	"strings"
)

// TokenType classifies a lexer token.
type TokenType int

const (
	// Keywords
	TokImport TokenType = iota // import
	TokFrom                    // from
	TokAs                      // as
	TokExport                  // export
	TokConst                   // const
	TokLet                     // let
	TokVar                     // var
	TokFn                      // fn
	TokReturn                  // return
	TokIf                      // if
	TokElse                    // else
	TokTrue                    // true
	TokFalse                   // false
	TokNone                    // none

	// Symbols
	TokLParen     // (
	TokRParen     // )
	TokLBracket   // [
	TokRBracket   // ]
	TokLBrace     // {
	TokRBrace     // }
	TokComma      // ,
	TokColon      // :
	TokDot        // .
	TokDotDot     // ..
	TokDotDotLT   // ..<
	TokAssign     // =
	TokEQ         // ==
	TokNEQ        // !=
	TokLT         // <
	TokLTE        // <=
	TokGT         // >
	TokGTE        // >=
	TokPlus       // +
	TokMinus      // -
	TokStar       // *
	TokSlash      // /
	TokPercent    // %
	TokCaret      // ^
	TokBang       // !
	TokPipe       // |>
	TokArrow      // =>
	TokQuestion   // ?

	// Literals
	TokIdent  // identifier
	TokString // '...' or "..."
	TokNumber // 12, 1.5
	TokTag    // $name

	// Trivia
	TokComment // // ... or /* ... */
	TokShebang // #! ... on the first line

	TokEOF // end of input
)

// Token is a single lexer token. Lead is the end offset of the previous
// token, so Source[Lead:Pos] is the whitespace before this one.
type Token struct {
	Type  TokenType
	Value string
	Pos   int
	End   int
	Lead  int
}

func (t Token) String() string {
	return fmt.Sprintf("Token(%d, %q, pos=%d)", t.Type, t.Value, t.Pos)
}

var keywords = map[string]TokenType{
	"import": TokImport,
	"from":   TokFrom,
	"as":     TokAs,
	"export": TokExport,
	"const":  TokConst,
	"let":    TokLet,
	"var":    TokVar,
	"fn":     TokFn,
	"return": TokReturn,
	"if":     TokIf,
	"else":   TokElse,
	"true":   TokTrue,
	"false":  TokFalse,
	"none":   TokNone,
}

var singleCharTokens = map[byte]TokenType{
	'(': TokLParen,
	')': TokRParen,
	'[': TokLBracket,
	']': TokRBracket,
	'{': TokLBrace,
	'}': TokRBrace,
	',': TokComma,
	':': TokColon,
	'+': TokPlus,
	'-': TokMinus,
	'*': TokStar,
	'%': TokPercent,
	'^': TokCaret,
	'?': TokQuestion,
}

// Lexer tokenizes KCL source. Comments are kept as tokens so the parser can
// attach them to the tree; whitespace is dropped.
type Lexer struct {
	input   string
	pos     int
	lastEnd int
	tokens  []Token
}

// Lex tokenizes the input string into a slice of tokens.
func Lex(input string) ([]Token, error) {
	l := &Lexer{input: input}
	if err := l.tokenize(); err != nil {
		return nil, err
	}
	return l.tokens, nil
}

func (l *Lexer) tokenize() error {
	if strings.HasPrefix(l.input, "#!") {
		end := strings.IndexByte(l.input, '\n')
		if end < 0 {
			end = len(l.input)
		}
		l.emitAt(TokShebang, l.input[:end], 0, end)
		l.pos = end
	}
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
			l.pos++
			continue
		}
		if err := l.lexNextToken(ch); err != nil {
			return err
		}
	}
	l.emitAt(TokEOF, "", len(l.input), len(l.input))
	return nil
}

func (l *Lexer) lexNextToken(ch byte) error {
	switch {
	case ch == '/' && l.peekByte(1) == '/':
		l.lexLineComment()
		return nil
	case ch == '/' && l.peekByte(1) == '*':
		return l.lexBlockComment()
	case ch == '/':
		l.emit(TokSlash, "/", 1)
		return nil
	}

	if tok, ok := singleCharTokens[ch]; ok {
		l.emit(tok, string(ch), 1)
		return nil
	}

	switch {
	case ch == '.':
		l.lexDot()
	case ch == '|':
		if l.peekByte(1) != '>' {
			return &SyntaxError{Pos: l.pos, End: l.pos + 1, Message: "unexpected '|', did you mean '|>'?"}
		}
		l.emit(TokPipe, "|>", 2)
	case ch == '=':
		switch l.peekByte(1) {
		case '=':
			l.emit(TokEQ, "==", 2)
		case '>':
			l.emit(TokArrow, "=>", 2)
		default:
			l.emit(TokAssign, "=", 1)
		}
	case ch == '!':
		l.lexTwoChar('=', TokNEQ, TokBang, "!")
	case ch == '<':
		l.lexTwoChar('=', TokLTE, TokLT, "<")
	case ch == '>':
		l.lexTwoChar('=', TokGTE, TokGT, ">")
	case ch == '"' || ch == '\'':
		return l.lexString(ch)
	case ch == '$':
		return l.lexTag()
	case isDigit(ch):
		l.lexNumber()
	case isIdentStart(ch):
		l.lexIdent()
	default:
		return &SyntaxError{Pos: l.pos, End: l.pos + 1, Message: fmt.Sprintf("unexpected char %q", string(ch))}
	}
	return nil
}

func (l *Lexer) peekByte(off int) byte {
	if l.pos+off < len(l.input) {
		return l.input[l.pos+off]
	}
	return 0
}

func (l *Lexer) emit(typ TokenType, value string, width int) {
	l.emitAt(typ, value, l.pos, l.pos+width)
	l.pos += width
}

func (l *Lexer) emitAt(typ TokenType, value string, start, end int) {
	l.tokens = append(l.tokens, Token{Type: typ, Value: value, Pos: start, End: end, Lead: l.lastEnd})
	l.lastEnd = end
}

func (l *Lexer) lexTwoChar(second byte, two, one TokenType, oneValue string) {
	if l.peekByte(1) == second {
		l.emit(two, oneValue+string(second), 2)
		return
	}
	l.emit(one, oneValue, 1)
}

// lexDot handles '.', '..' and '..<'.
func (l *Lexer) lexDot() {
	if l.peekByte(1) == '.' {
		if l.peekByte(2) == '<' {
			l.emit(TokDotDotLT, "..<", 3)
			return
		}
		l.emit(TokDotDot, "..", 2)
		return
	}
	l.emit(TokDot, ".", 1)
}

func (l *Lexer) lexLineComment() {
	start := l.pos
	for l.pos < len(l.input) && l.input[l.pos] != '\n' {
		l.pos++
	}
	end := strings.TrimRight(l.input[start:l.pos], " \t\r")
	l.emitAt(TokComment, end, start, start+len(end))
}

func (l *Lexer) lexBlockComment() error {
	start := l.pos
	idx := strings.Index(l.input[l.pos+2:], "*/")
	if idx < 0 {
		return &SyntaxError{Pos: start, End: len(l.input), Message: "unterminated block comment"}
	}
	end := l.pos + 2 + idx + 2
	l.emitAt(TokComment, l.input[start:end], start, end)
	l.pos = end
	return nil
}

func (l *Lexer) lexString(quote byte) error {
	start := l.pos
	l.pos++
	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch {
		case ch == '\\' && l.pos+1 < len(l.input):
			l.pos++
			switch esc := l.input[l.pos]; esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte(esc)
			}
		case ch == quote:
			l.pos++
			l.tokens = append(l.tokens, Token{Type: TokString, Value: sb.String(), Pos: start, End: l.pos, Lead: l.lastEnd})
			l.lastEnd = l.pos
			return nil
		case ch == '\n':
			return &SyntaxError{Pos: start, End: l.pos, Message: "unterminated string"}
		default:
			sb.WriteByte(ch)
		}
		l.pos++
	}
	return &SyntaxError{Pos: start, End: l.pos, Message: "unterminated string"}
}

func (l *Lexer) lexTag() error {
	start := l.pos
	l.pos++
	if l.pos >= len(l.input) || !isIdentStart(l.input[l.pos]) {
		return &SyntaxError{Pos: start, End: l.pos, Message: "expected a tag name after '$'"}
	}
	for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
		l.pos++
	}
	l.emitAt(TokTag, l.input[start+1:l.pos], start, l.pos)
	return nil
}

func (l *Lexer) lexNumber() {
	start := l.pos
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}
	if l.pos+1 < len(l.input) && l.input[l.pos] == '.' && isDigit(l.input[l.pos+1]) {
		l.pos++
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
	}
	l.emitAt(TokNumber, l.input[start:l.pos], start, l.pos)
}

func (l *Lexer) lexIdent() {
	start := l.pos
	for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
		l.pos++
	}
	word := l.input[start:l.pos]
	typ := TokIdent
	if kw, ok := keywords[word]; ok {
		typ = kw
	}
	l.emitAt(typ, word, start, l.pos)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
