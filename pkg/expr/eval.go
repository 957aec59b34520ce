package expr

import "math"

func (n *literalNode) Eval() (Value, error) {
	return n.value, nil
}

func (n *unaryNode) Eval() (Value, error) {
	v, err := n.operand.Eval()
	if err != nil {
		return Value{}, err
	}

	switch n.op {
	case TOKEN_MINUS:
		if !v.IsInt() {
			return Value{}, runtimeError(ErrTypeMismatch, "cannot negate %s", v.Kind)
		}
		if v.Int == math.MinInt64 {
			return Value{}, runtimeError(ErrOverflow, "-(%d)", v.Int)
		}
		return IntValue(-v.Int), nil
	case TOKEN_NOT:
		if !v.IsBool() {
			return Value{}, runtimeError(ErrTypeMismatch, "'not' needs bool, got %s", v.Kind)
		}
		return BoolValue(!v.Bool), nil
	}
	return Value{}, runtimeError(ErrSyntax, "unknown unary operator %s", n.op)
}

func (n *binaryNode) Eval() (Value, error) {
	left, err := n.left.Eval()
	if err != nil {
		return Value{}, err
	}

	// Logical operators short-circuit.
	if n.op == TOKEN_AND || n.op == TOKEN_OR {
		if !left.IsBool() {
			return Value{}, runtimeError(ErrTypeMismatch, "'%s' needs bool operands, got %s", n.op, left.Kind)
		}
		if n.op == TOKEN_AND && !left.Bool {
			return BoolValue(false), nil
		}
		if n.op == TOKEN_OR && left.Bool {
			return BoolValue(true), nil
		}
		right, err := n.right.Eval()
		if err != nil {
			return Value{}, err
		}
		if !right.IsBool() {
			return Value{}, runtimeError(ErrTypeMismatch, "'%s' needs bool operands, got %s", n.op, right.Kind)
		}
		return right, nil
	}

	right, err := n.right.Eval()
	if err != nil {
		return Value{}, err
	}

	if n.op == TOKEN_EQ || n.op == TOKEN_NE {
		if left.Kind != right.Kind {
			return Value{}, runtimeError(ErrTypeMismatch, "cannot compare %s with %s", left.Kind, right.Kind)
		}
		equal := left == right
		if n.op == TOKEN_NE {
			equal = !equal
		}
		return BoolValue(equal), nil
	}

	if !left.IsInt() || !right.IsInt() {
		return Value{}, runtimeError(ErrTypeMismatch, "'%s' needs int operands, got %s and %s", n.op, left.Kind, right.Kind)
	}
	a, b := left.Int, right.Int

	switch n.op {
	case TOKEN_LT:
		return BoolValue(a < b), nil
	case TOKEN_LE:
		return BoolValue(a <= b), nil
	case TOKEN_GT:
		return BoolValue(a > b), nil
	case TOKEN_GE:
		return BoolValue(a >= b), nil
	case TOKEN_PLUS:
		return checkedAdd(a, b)
	case TOKEN_MINUS:
		return checkedSub(a, b)
	case TOKEN_MULTIPLY:
		return checkedMul(a, b)
	case TOKEN_DIVIDE:
		if b == 0 {
			return Value{}, runtimeError(ErrDivisionByZero, "%d / 0", a)
		}
		if a == math.MinInt64 && b == -1 {
			return Value{}, runtimeError(ErrOverflow, "%d / -1", a)
		}
		return IntValue(a / b), nil
	case TOKEN_MOD:
		if b == 0 {
			return Value{}, runtimeError(ErrDivisionByZero, "%d %% 0", a)
		}
		return IntValue(a % b), nil
	case TOKEN_POWER:
		return checkedPow(a, b)
	}
	return Value{}, runtimeError(ErrSyntax, "unknown binary operator %s", n.op)
}

func checkedAdd(a, b int64) (Value, error) {
	r := a + b
	if (a > 0 && b > 0 && r < 0) || (a < 0 && b < 0 && r >= 0) {
		return Value{}, runtimeError(ErrOverflow, "%d + %d", a, b)
	}
	return IntValue(r), nil
}

func checkedSub(a, b int64) (Value, error) {
	r := a - b
	if (a >= 0 && b < 0 && r < 0) || (a < 0 && b > 0 && r >= 0) {
		return Value{}, runtimeError(ErrOverflow, "%d - %d", a, b)
	}
	return IntValue(r), nil
}

func checkedMul(a, b int64) (Value, error) {
	if a == 0 || b == 0 {
		return IntValue(0), nil
	}
	r := a * b
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) || r/b != a {
		return Value{}, runtimeError(ErrOverflow, "%d * %d", a, b)
	}
	return IntValue(r), nil
}

func checkedPow(base, exp int64) (Value, error) {
	if exp < 0 {
		return Value{}, runtimeError(ErrTypeMismatch, "negative exponent %d has no integer result", exp)
	}
	result := IntValue(1)
	for i := int64(0); i < exp; i++ {
		next, err := checkedMul(result.Int, base)
		if err != nil {
			return Value{}, runtimeError(ErrOverflow, "%d ^ %d", base, exp)
		}
		result = next
		// 0, 1 and -1 never grow; stop early for huge exponents.
		if base == 0 || base == 1 {
			break
		}
		if base == -1 {
			if exp%2 == 0 {
				return IntValue(1), nil
			}
			return IntValue(-1), nil
		}
	}
	return result, nil
}
