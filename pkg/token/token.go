package token

import "fmt"

type TokenType int

const (
	STRING TokenType = iota
	INT
	FLOAT
	IDENTIFIER
	EOF

	KEYWORD_BEGIN
	PRINT
	LET
	MAIN
	FUN
	INT_TYPE
	FLOAT_TYPE
	STRING_TYPE
	FOR
	IF
	ELIF
	ELSE
	WHILE
	KEYWORD_END

	LEFT_PAREN
	RIGHT_PAREN
	LEFT_BRACE
	RIGHT_BRACE
	SEMICOLON
	COLON
	COMMA
	EQUAL

	binaryop_begin
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	EQUAL_EQUAL
	BANG_EQUAL
	binaryop_end
)

func (t TokenType) IsBinaryOperator() bool {
	return t > binaryop_begin && t < binaryop_end
}

func (t TokenType) IsKeyword() bool {
	return t > KEYWORD_BEGIN && t < KEYWORD_END
}

// IsEquality reports whether the operator compares its operands rather than
// computing with them.
func (t TokenType) IsEquality() bool {
	return t == EQUAL_EQUAL || t == BANG_EQUAL
}

// Operator returns the target-language spelling of an operator token. The
// inequality token is written `=!` in source but `!=` everywhere else.
func (t TokenType) Operator() string {
	switch t {
	case PLUS:
		return "+"
	case MINUS:
		return "-"
	case STAR:
		return "*"
	case SLASH:
		return "/"
	case PERCENT:
		return "%"
	case EQUAL_EQUAL:
		return "=="
	case BANG_EQUAL:
		return "!="
	}

	panic(fmt.Sprintf("Token type %s is not an operator.", t))
}

var typeNames = map[TokenType]string{
	STRING:      "string literal",
	INT:         "integer literal",
	FLOAT:       "float literal",
	IDENTIFIER:  "identifier",
	EOF:         "end of file",
	LEFT_PAREN:  "`(`",
	RIGHT_PAREN: "`)`",
	LEFT_BRACE:  "`{`",
	RIGHT_BRACE: "`}`",
	SEMICOLON:   "`;`",
	COLON:       "`:`",
	COMMA:       "`,`",
	EQUAL:       "`=`",
	PLUS:        "`+`",
	MINUS:       "`-`",
	STAR:        "`*`",
	SLASH:       "`/`",
	PERCENT:     "`%`",
	EQUAL_EQUAL: "`==`",
	BANG_EQUAL:  "`=!`",
}

func (t TokenType) String() string {
	if t.IsKeyword() {
		return fmt.Sprintf("keyword `%s`", Keywords[int(t)-int(KEYWORD_BEGIN)-1])
	}

	if name, ok := typeNames[t]; ok {
		return name
	}

	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token is immutable once the lexer has produced it. Only one of the payload
// fields is meaningful and which one is decided by Type: Int for INT, Float
// for FLOAT, Text for IDENTIFIER and STRING.
type Token struct {
	Lexeme string
	Type   TokenType
	Pos    Pos

	Int   int32
	Float float32
	Text  string
}

type Pos struct {
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

func (t Token) HasText() bool {
	return t.Type == IDENTIFIER || t.Type == STRING
}

// MustText returns the textual payload and panics when the token cannot
// carry one, which means the parser broke its own invariants.
func (t Token) MustText() string {
	if !t.HasText() {
		panic(fmt.Sprintf("Token %s at %s carries no text payload.", t.Type, t.Pos))
	}

	return t.Text
}

// Keywords is ordered like the keyword token types between KEYWORD_BEGIN and
// KEYWORD_END.
var Keywords = [...]string{
	"print",
	"let",
	"main",
	"fun",
	"int",
	"float",
	"string",
	"for",
	"if",
	"elif",
	"else",
	"while",
}

func LookupKeyword(text string) (TokenType, bool) {
	for i, kw := range Keywords {
		if kw == text {
			return TokenType(int(KEYWORD_BEGIN) + i + 1), true
		}
	}

	return IDENTIFIER, false
}
