package expr

import (
	"strings"
	"unicode"
)

// TokenType identifies an expression token.
type TokenType int

const (
	TOKEN_EOF TokenType = iota
	TOKEN_ILLEGAL
	TOKEN_NUMBER
	TOKEN_TRUE
	TOKEN_FALSE
	TOKEN_PLUS
	TOKEN_MINUS
	TOKEN_MULTIPLY
	TOKEN_DIVIDE
	TOKEN_MOD
	TOKEN_POWER
	TOKEN_LPAREN
	TOKEN_RPAREN
	TOKEN_EQ
	TOKEN_NE
	TOKEN_LT
	TOKEN_LE
	TOKEN_GT
	TOKEN_GE
	TOKEN_AND
	TOKEN_OR
	TOKEN_NOT
)

var tokenNames = map[TokenType]string{
	TOKEN_EOF:      "end of expression",
	TOKEN_ILLEGAL:  "illegal token",
	TOKEN_NUMBER:   "number",
	TOKEN_TRUE:     "true",
	TOKEN_FALSE:    "false",
	TOKEN_PLUS:     "+",
	TOKEN_MINUS:    "-",
	TOKEN_MULTIPLY: "*",
	TOKEN_DIVIDE:   "/",
	TOKEN_MOD:      "%",
	TOKEN_POWER:    "^",
	TOKEN_LPAREN:   "(",
	TOKEN_RPAREN:   ")",
	TOKEN_EQ:       "==",
	TOKEN_NE:       "!=",
	TOKEN_LT:       "<",
	TOKEN_LE:       "<=",
	TOKEN_GT:       ">",
	TOKEN_GE:       ">=",
	TOKEN_AND:      "and",
	TOKEN_OR:       "or",
	TOKEN_NOT:      "not",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "unknown"
}

// ExprToken is one lexical token of an expression.
type ExprToken struct {
	Type  TokenType
	Value string
	Pos   int // byte offset in the source
}

// Lexer tokenizes an expression.
type Lexer struct {
	input string
	pos   int // position of the next byte to read
	start int // position of char
	char  byte
}

// NewLexer creates a lexer positioned on the first byte of input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	l.start = l.pos
	if l.pos >= len(l.input) {
		l.char = 0
	} else {
		l.char = l.input[l.pos]
	}
	l.pos++
}

func (l *Lexer) peekChar() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) skipWhitespace() {
	for l.char == ' ' || l.char == '\t' || l.char == '\n' || l.char == '\r' {
		l.readChar()
	}
}

func (l *Lexer) readNumber() string {
	startPos := l.start
	for isDigit(l.char) {
		l.readChar()
	}
	return l.input[startPos:l.start]
}

func (l *Lexer) readIdentifier() string {
	startPos := l.start
	for isLetter(l.char) || isDigit(l.char) || l.char == '_' {
		l.readChar()
	}
	return l.input[startPos:l.start]
}

// twoChar consumes a two byte operator when the next byte matches second.
func (l *Lexer) twoChar(second byte, two, one TokenType, oneValue string) ExprToken {
	pos := l.start
	if l.peekChar() == second {
		value := l.input[pos : pos+2]
		l.readChar()
		l.readChar()
		return ExprToken{Type: two, Value: value, Pos: pos}
	}
	l.readChar()
	return ExprToken{Type: one, Value: oneValue, Pos: pos}
}

// NextToken returns the next token. Unknown characters and identifiers
// come back as TOKEN_ILLEGAL so the parser can report them.
func (l *Lexer) NextToken() ExprToken {
	l.skipWhitespace()
	pos := l.start

	single := func(t TokenType) ExprToken {
		value := string(l.char)
		l.readChar()
		return ExprToken{Type: t, Value: value, Pos: pos}
	}

	switch l.char {
	case 0:
		return ExprToken{Type: TOKEN_EOF, Pos: pos}
	case '+':
		return single(TOKEN_PLUS)
	case '-':
		return single(TOKEN_MINUS)
	case '*':
		return single(TOKEN_MULTIPLY)
	case '/':
		return single(TOKEN_DIVIDE)
	case '%':
		return single(TOKEN_MOD)
	case '^':
		return single(TOKEN_POWER)
	case '(':
		return single(TOKEN_LPAREN)
	case ')':
		return single(TOKEN_RPAREN)
	case '=':
		// "=" and "==" both compare
		return l.twoChar('=', TOKEN_EQ, TOKEN_EQ, "=")
	case '!':
		return l.twoChar('=', TOKEN_NE, TOKEN_NOT, "!")
	case '<':
		if l.peekChar() == '>' {
			l.readChar()
			l.readChar()
			return ExprToken{Type: TOKEN_NE, Value: "<>", Pos: pos}
		}
		return l.twoChar('=', TOKEN_LE, TOKEN_LT, "<")
	case '>':
		return l.twoChar('=', TOKEN_GE, TOKEN_GT, ">")
	case '&':
		if l.peekChar() == '&' {
			return l.twoChar('&', TOKEN_AND, TOKEN_ILLEGAL, "&")
		}
		return single(TOKEN_ILLEGAL)
	case '|':
		if l.peekChar() == '|' {
			return l.twoChar('|', TOKEN_OR, TOKEN_ILLEGAL, "|")
		}
		return single(TOKEN_ILLEGAL)
	}

	if isDigit(l.char) {
		return ExprToken{Type: TOKEN_NUMBER, Value: l.readNumber(), Pos: pos}
	}
	if isLetter(l.char) || l.char == '_' {
		ident := l.readIdentifier()
		switch strings.ToLower(ident) {
		case "true":
			return ExprToken{Type: TOKEN_TRUE, Value: ident, Pos: pos}
		case "false":
			return ExprToken{Type: TOKEN_FALSE, Value: ident, Pos: pos}
		case "and":
			return ExprToken{Type: TOKEN_AND, Value: ident, Pos: pos}
		case "or":
			return ExprToken{Type: TOKEN_OR, Value: ident, Pos: pos}
		case "not":
			return ExprToken{Type: TOKEN_NOT, Value: ident, Pos: pos}
		case "mod":
			return ExprToken{Type: TOKEN_MOD, Value: ident, Pos: pos}
		default:
			return ExprToken{Type: TOKEN_ILLEGAL, Value: ident, Pos: pos}
		}
	}

	return single(TOKEN_ILLEGAL)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isLetter(ch byte) bool {
	return ch < 0x80 && unicode.IsLetter(rune(ch))
}
