package zen

import (
	"strconv"
	"strings"

	"github.com/antibyte/zen/pkg/logger"
)

// dispatch runs one tokenized line and reports whether it moved the
// program counter.
func (in *Interpreter) dispatch(tokens []string, line Line) bool {
	if len(tokens) == 0 {
		return false
	}
	args := groupExpressions(tokens)

	switch first := args[0]; {
	case first == "&":
		in.execAssign(args, line)
	case first == "print":
		in.execPrint(args, line)
	case first == "if":
		return in.execIf(args, line)
	case first == "goto":
		return in.execGoto(args, line)
	case strings.HasPrefix(first, "//"):
		// comment
	case strings.HasSuffix(first, ":"):
		// labels are resolved before the run starts
	default:
		in.report(NewError(ErrUnknownCommand, first).AtLine(line.Number))
	}
	return false
}

// execAssign handles `& <name> = <value>`.
func (in *Interpreter) execAssign(args []string, line Line) {
	if len(args) != 4 || args[2] != "=" {
		in.report(NewError(ErrMalformedAssignment, strings.Join(args, " ")).
			WithDetail("expected '& <name> = <value>'").
			AtLine(line.Number))
		return
	}

	name, valueToken := args[1], args[3]
	if !isValidName(name) {
		in.report(NewError(ErrMalformedAssignment, name).
			WithDetail("variable names use letters, digits and '_'").
			AtLine(line.Number))
		return
	}

	value, err := in.resolveValue(name, valueToken)
	if err != nil {
		in.report(err.AtLine(line.Number))
		return
	}

	in.vars.Set(name, value)
	logger.InterpreterDebug("line %d: %s = %d", line.Number, name, value)
}

// resolveValue turns the right-hand side of an assignment into an
// integer: !N reads an argument, (expr) is evaluated, anything else must
// be a base-10 literal.
func (in *Interpreter) resolveValue(name, token string) (int64, *Error) {
	switch {
	case strings.HasPrefix(token, "!"):
		index, err := strconv.Atoi(token[1:])
		if err != nil || index < 1 || index > len(in.args) {
			return 0, NewError(ErrArgumentOutOfRange, token).
				WithDetail("%d argument(s) supplied", len(in.args))
		}
		return in.args[index-1], nil

	case isParenthesized(token):
		v, err := in.eval.Eval(token[1 : len(token)-1])
		if err != nil {
			return 0, NewError(ErrEvaluation, token).WithCause(err)
		}
		if !v.IsInt() {
			return 0, NewError(ErrInvalidValue, name).
				WithDetail("expression produced %s, not an integer", v.Kind)
		}
		return v.Int, nil

	default:
		n, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			return 0, NewError(ErrInvalidValue, name).WithDetail("%q is not an integer", token)
		}
		return n, nil
	}
}

// execPrint handles `print "<text>"` and `print (<expr>)`. Only the first
// argument is used.
func (in *Interpreter) execPrint(args []string, line Line) {
	if len(args) < 2 {
		in.report(NewError(ErrMalformedPrint, "").
			WithDetail("print needs a string or an expression").
			AtLine(line.Number))
		return
	}
	arg := args[1]

	switch {
	case len(arg) >= 2 && strings.HasPrefix(arg, `"`) && strings.HasSuffix(arg, `"`):
		// A literal backslash-n in the source starts a new output line.
		for _, segment := range strings.Split(arg[1:len(arg)-1], `\n`) {
			in.writeLine(segment)
		}

	case isParenthesized(arg):
		v, err := in.eval.Eval(arg[1 : len(arg)-1])
		if err != nil {
			in.report(NewError(ErrEvaluation, arg).WithCause(err).AtLine(line.Number))
			return
		}
		in.writeLine(v.String())

	default:
		in.report(NewError(ErrMalformedPrint, arg).AtLine(line.Number))
	}
}

// execIf handles `if (<condition>) goto <label>`. A true condition
// without a goto continuation does nothing.
func (in *Interpreter) execIf(args []string, line Line) bool {
	if len(args) < 2 || !isParenthesized(args[1]) {
		token := ""
		if len(args) > 1 {
			token = args[1]
		}
		in.report(NewError(ErrMalformedCondition, token).AtLine(line.Number))
		return false
	}

	condition := args[1]
	v, err := in.eval.Eval(strings.TrimSpace(condition[1 : len(condition)-1]))
	if err != nil {
		in.report(NewError(ErrEvaluation, condition).WithCause(err).AtLine(line.Number))
		return false
	}
	if !v.IsBool() {
		in.report(NewError(ErrMalformedCondition, condition).
			WithDetail("expected a boolean value, got %s", v.Kind).
			AtLine(line.Number))
		return false
	}

	if !v.Bool || len(args) < 4 || args[2] != "goto" {
		return false
	}
	return in.jump(args[3], line)
}

// execGoto handles `goto <label>`.
func (in *Interpreter) execGoto(args []string, line Line) bool {
	target := ""
	if len(args) > 1 {
		target = args[1]
	}
	return in.jump(target, line)
}

// jump moves the program counter to the line after the label. Leading
// colons on the target are ignored, so `goto :loop` works too.
func (in *Interpreter) jump(target string, line Line) bool {
	label := strings.TrimLeft(target, ":")
	index, ok := in.labels.Lookup(label)
	if !ok {
		in.report(NewError(ErrUnresolvedLabel, label).AtLine(line.Number))
		return false
	}

	logger.InterpreterDebug("line %d: jump to %s (index %d)", line.Number, label, index+1)
	in.pc = index + 1
	return true
}

func isParenthesized(token string) bool {
	return len(token) >= 2 && strings.HasPrefix(token, "(") && strings.HasSuffix(token, ")")
}
