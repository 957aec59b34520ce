package expr

import (
	"errors"
	"math"
	"strconv"
	"testing"
)

func TestEvalExpression(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		expected Value
	}{
		{"simple addition", "2+3", IntValue(5)},
		{"spaces are ignored", " 2 + 3 ", IntValue(5)},
		{"precedence", "2+3*4", IntValue(14)},
		{"parentheses", "2*(3+4)", IntValue(14)},
		{"truncating division", "7/2", IntValue(3)},
		{"negative division truncates toward zero", "-7/2", IntValue(-3)},
		{"modulo", "7%3", IntValue(1)},
		{"mod keyword", "7 MOD 3", IntValue(1)},
		{"power", "2^10", IntValue(1024)},
		{"power is right associative", "2^3^2", IntValue(512)},
		{"zero power", "5^0", IntValue(1)},
		{"minus one power", "(-1)^7", IntValue(-1)},
		{"unary minus", "-5", IntValue(-5)},
		{"double negation", "--5", IntValue(5)},
		{"unary plus", "+5", IntValue(5)},
		{"greater than", "3>2", BoolValue(true)},
		{"less or equal", "3<=2", BoolValue(false)},
		{"double equals", "4==4", BoolValue(true)},
		{"single equals", "4=5", BoolValue(false)},
		{"not equal", "4!=5", BoolValue(true)},
		{"basic not equal", "4<>4", BoolValue(false)},
		{"and keyword", "1<2 and 2<3", BoolValue(true)},
		{"and symbol", "1<2 && 3<2", BoolValue(false)},
		{"or keyword", "false OR true", BoolValue(true)},
		{"or symbol", "false || false", BoolValue(false)},
		{"not keyword", "not true", BoolValue(false)},
		{"bang", "!(1>2)", BoolValue(true)},
		{"bool equality", "true == (1<2)", BoolValue(true)},
		{"literal true", "true", BoolValue(true)},
		{"max int", "9223372036854775807", IntValue(math.MaxInt64)},
		{"min int via subtraction", "-9223372036854775807-1", IntValue(math.MinInt64)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Eval(tt.expr)
			if err != nil {
				t.Fatalf("Eval(%q) returned error: %v", tt.expr, err)
			}
			if got != tt.expected {
				t.Errorf("Eval(%q) = %v (%s), want %v (%s)", tt.expr, got, got.Kind, tt.expected, tt.expected.Kind)
			}
		})
	}
}

func TestEvalErrors(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want error
	}{
		{"empty", "", ErrSyntax},
		{"blank", "   ", ErrSyntax},
		{"dangling operator", "1+", ErrSyntax},
		{"unclosed paren", "(1+2", ErrSyntax},
		{"trailing input", "1 2", ErrSyntax},
		{"stray close paren", "1)", ErrSyntax},
		{"identifier", "x+1", ErrSyntax},
		{"single ampersand", "1 & 2", ErrSyntax},
		{"unknown character", "1 $ 2", ErrSyntax},
		{"division by zero", "1/0", ErrDivisionByZero},
		{"modulo by zero", "1%0", ErrDivisionByZero},
		{"add overflow", "9223372036854775807+1", ErrOverflow},
		{"sub overflow", "-9223372036854775807-2", ErrOverflow},
		{"mul overflow", "4611686018427387904*2", ErrOverflow},
		{"pow overflow", "2^63", ErrOverflow},
		{"literal overflow", "9223372036854775808", ErrOverflow},
		{"negative exponent", "2^-1", ErrTypeMismatch},
		{"bool arithmetic", "true+1", ErrTypeMismatch},
		{"int logic", "1 and 2", ErrTypeMismatch},
		{"mixed equality", "1 == true", ErrTypeMismatch},
		{"not on int", "not 1", ErrTypeMismatch},
		{"negate bool", "-true", ErrTypeMismatch},
		{"compare bools", "true < false", ErrTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Eval(tt.expr)
			if err == nil {
				t.Fatalf("Eval(%q) should fail", tt.expr)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Eval(%q) error = %v, want %v", tt.expr, err, tt.want)
			}
			var evalErr *EvalError
			if !errors.As(err, &evalErr) {
				t.Errorf("expected *EvalError, got %T", err)
			}
		})
	}
}

func TestShortCircuit(t *testing.T) {
	// The right side would divide by zero if it were evaluated.
	for _, src := range []string{"false and 1/0 == 1", "true or 1/0 == 1"} {
		if _, err := Eval(src); err != nil {
			t.Errorf("Eval(%q) should short-circuit, got %v", src, err)
		}
	}
}

func TestSyntaxErrorPosition(t *testing.T) {
	_, err := Eval("1 + $")
	var evalErr *EvalError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected *EvalError, got %v", err)
	}
	if evalErr.Pos != 4 {
		t.Errorf("expected position 4, got %d", evalErr.Pos)
	}
}

func TestValueString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{IntValue(42), "42"},
		{IntValue(-7), "-7"},
		{BoolValue(true), "true"},
		{BoolValue(false), "false"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestLexerTokens(t *testing.T) {
	l := NewLexer("a1 <= 10 <> && || ! != == mod")
	want := []TokenType{
		TOKEN_ILLEGAL, TOKEN_LE, TOKEN_NUMBER, TOKEN_NE, TOKEN_AND,
		TOKEN_OR, TOKEN_NOT, TOKEN_NE, TOKEN_EQ, TOKEN_MOD, TOKEN_EOF,
	}
	for i, w := range want {
		tok := l.NextToken()
		if tok.Type != w {
			t.Fatalf("token %d: got %s (%q), want %s", i, tok.Type, tok.Value, w)
		}
	}
}

func BenchmarkEvaluatorCached(b *testing.B) {
	e := NewEvaluator(64, 0)
	for i := 0; i < b.N; i++ {
		if _, err := e.Eval("(" + strconv.Itoa(i%8) + "+1)*2 > 3"); err != nil {
			b.Fatal(err)
		}
	}
}
