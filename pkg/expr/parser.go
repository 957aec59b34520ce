package expr

import (
	"strconv"
	"strings"
)

// Node is a parsed expression ready for evaluation.
type Node interface {
	Eval() (Value, error)
}

type literalNode struct {
	value Value
}

type unaryNode struct {
	op      TokenType
	operand Node
}

type binaryNode struct {
	op          TokenType
	left, right Node
}

// Parser is a recursive-descent parser with one token of lookahead.
type Parser struct {
	lexer   *Lexer
	current ExprToken
	peek    ExprToken
}

// NewParser creates a parser over input.
func NewParser(input string) *Parser {
	p := &Parser{lexer: NewLexer(input)}

	// Read two tokens to initialize current and peek
	p.nextToken()
	p.nextToken()

	return p
}

func (p *Parser) nextToken() {
	p.current = p.peek
	p.peek = p.lexer.NextToken()
}

func (p *Parser) currentTokenIs(t TokenType) bool {
	return p.current.Type == t
}

// Parse parses input as one complete expression.
func Parse(input string) (Node, error) {
	if strings.TrimSpace(input) == "" {
		return nil, syntaxError(0, "empty expression")
	}
	p := NewParser(input)
	node, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	if !p.currentTokenIs(TOKEN_EOF) {
		return nil, syntaxError(p.current.Pos, "unexpected %q after expression", p.current.Value)
	}
	return node, nil
}

// ParseExpression parses from the lowest precedence level.
func (p *Parser) ParseExpression() (Node, error) {
	return p.parseOrExpression()
}

// parseBinaryLevel parses `next (op next)*` for the operators in ops.
func (p *Parser) parseBinaryLevel(next func() (Node, error), ops ...TokenType) (Node, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}

	for {
		matched := false
		for _, op := range ops {
			if p.currentTokenIs(op) {
				matched = true
				break
			}
		}
		if !matched {
			return left, nil
		}

		op := p.current.Type
		p.nextToken()
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
}

func (p *Parser) parseOrExpression() (Node, error) {
	return p.parseBinaryLevel(p.parseAndExpression, TOKEN_OR)
}

func (p *Parser) parseAndExpression() (Node, error) {
	return p.parseBinaryLevel(p.parseEqualityExpression, TOKEN_AND)
}

func (p *Parser) parseEqualityExpression() (Node, error) {
	return p.parseBinaryLevel(p.parseRelationalExpression, TOKEN_EQ, TOKEN_NE)
}

func (p *Parser) parseRelationalExpression() (Node, error) {
	return p.parseBinaryLevel(p.parseAdditiveExpression, TOKEN_LT, TOKEN_LE, TOKEN_GT, TOKEN_GE)
}

func (p *Parser) parseAdditiveExpression() (Node, error) {
	return p.parseBinaryLevel(p.parseMultiplicativeExpression, TOKEN_PLUS, TOKEN_MINUS)
}

func (p *Parser) parseMultiplicativeExpression() (Node, error) {
	return p.parseBinaryLevel(p.parsePowerExpression, TOKEN_MULTIPLY, TOKEN_DIVIDE, TOKEN_MOD)
}

// parsePowerExpression handles ^, which is right-associative.
func (p *Parser) parsePowerExpression() (Node, error) {
	base, err := p.parseUnaryExpression()
	if err != nil {
		return nil, err
	}

	if p.currentTokenIs(TOKEN_POWER) {
		p.nextToken()
		exponent, err := p.parsePowerExpression()
		if err != nil {
			return nil, err
		}
		return &binaryNode{op: TOKEN_POWER, left: base, right: exponent}, nil
	}

	return base, nil
}

func (p *Parser) parseUnaryExpression() (Node, error) {
	switch p.current.Type {
	case TOKEN_MINUS, TOKEN_NOT:
		op := p.current.Type
		p.nextToken()
		operand, err := p.parseUnaryExpression()
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: op, operand: operand}, nil
	case TOKEN_PLUS:
		p.nextToken()
		return p.parseUnaryExpression()
	default:
		return p.parsePrimaryExpression()
	}
}

func (p *Parser) parsePrimaryExpression() (Node, error) {
	tok := p.current

	switch tok.Type {
	case TOKEN_NUMBER:
		n, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			return nil, runtimeError(ErrOverflow, "literal %s does not fit in 64 bits", tok.Value)
		}
		p.nextToken()
		return &literalNode{value: IntValue(n)}, nil

	case TOKEN_TRUE, TOKEN_FALSE:
		p.nextToken()
		return &literalNode{value: BoolValue(tok.Type == TOKEN_TRUE)}, nil

	case TOKEN_LPAREN:
		p.nextToken()
		inner, err := p.ParseExpression()
		if err != nil {
			return nil, err
		}
		if !p.currentTokenIs(TOKEN_RPAREN) {
			return nil, syntaxError(p.current.Pos, "expected ')'")
		}
		p.nextToken()
		return inner, nil

	case TOKEN_EOF:
		return nil, syntaxError(tok.Pos, "unexpected end of expression")

	case TOKEN_ILLEGAL:
		return nil, syntaxError(tok.Pos, "unknown symbol %q", tok.Value)

	default:
		return nil, syntaxError(tok.Pos, "unexpected %q", tok.Value)
	}
}
