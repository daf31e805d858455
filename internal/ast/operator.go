package ast

// BinaryOperator is the symbol of a binary operation.
type BinaryOperator string

const (
	OpAdd BinaryOperator = "+"
	OpSub BinaryOperator = "-"
	OpMul BinaryOperator = "*"
	OpDiv BinaryOperator = "/"
	OpMod BinaryOperator = "%"
	OpPow BinaryOperator = "^"
	OpEq  BinaryOperator = "=="
	OpNeq BinaryOperator = "!="
	OpGt  BinaryOperator = ">"
	OpGte BinaryOperator = ">="
	OpLt  BinaryOperator = "<"
	OpLte BinaryOperator = "<="
)

// Associativity of a binary operator.
type Associativity int

const (
	AssocLeft Associativity = iota
	AssocRight
)

// Precedence follows the JavaScript operator table.
func (op BinaryOperator) Precedence() int {
	switch op {
	case OpAdd, OpSub:
		return 11
	case OpMul, OpDiv, OpMod:
		return 12
	case OpPow:
		return 13
	case OpGt, OpGte, OpLt, OpLte:
		return 9
	case OpEq, OpNeq:
		return 8
	}
	return 0
}

func (op BinaryOperator) Associativity() Associativity {
	if op == OpPow {
		return AssocRight
	}
	return AssocLeft
}

// Valid reports whether op is a known operator.
func (op BinaryOperator) Valid() bool { return op.Precedence() > 0 }

func (op BinaryOperator) digestTag() []byte {
	switch op {
	case OpAdd:
		return []byte("add")
	case OpSub:
		return []byte("sub")
	case OpMul:
		return []byte("mul")
	case OpDiv:
		return []byte("div")
	case OpMod:
		return []byte("mod")
	case OpPow:
		return []byte("pow")
	case OpEq:
		return []byte("eqq")
	case OpNeq:
		return []byte("neq")
	case OpGt:
		return []byte("gtr")
	case OpGte:
		return []byte("gte")
	case OpLt:
		return []byte("ltr")
	case OpLte:
		return []byte("lte")
	}
	return []byte("???")
}

// UnaryOperator is "-" (negation) or "!" (logical not).
type UnaryOperator string

const (
	OpNeg UnaryOperator = "-"
	OpNot UnaryOperator = "!"
)

func (op UnaryOperator) digestTag() []byte {
	if op == OpNot {
		return []byte("not")
	}
	return []byte("neg")
}
