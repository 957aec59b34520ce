// Package expr evaluates the integer and boolean expressions that appear
// in parentheses inside Zen statements.
package expr

import "strconv"

// Kind tags the type carried by a Value.
type Kind int

const (
	KindInt Kind = iota
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Value is the scalar result of an expression.
type Value struct {
	Kind Kind
	Int  int64
	Bool bool
}

// IntValue wraps n.
func IntValue(n int64) Value {
	return Value{Kind: KindInt, Int: n}
}

// BoolValue wraps b.
func BoolValue(b bool) Value {
	return Value{Kind: KindBool, Bool: b}
}

// IsInt reports whether v holds an integer.
func (v Value) IsInt() bool { return v.Kind == KindInt }

// IsBool reports whether v holds a boolean.
func (v Value) IsBool() bool { return v.Kind == KindBool }

// String renders integers in base 10 and booleans as true/false.
func (v Value) String() string {
	if v.Kind == KindBool {
		return strconv.FormatBool(v.Bool)
	}
	return strconv.FormatInt(v.Int, 10)
}
