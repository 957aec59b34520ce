package zen

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Substitute replaces every `&name` in line with the decimal value of the
// variable. An '&' followed by whitespace or the end of the line is left
// alone. The result is built into a new string; line itself is never
// modified, so a replaced value is never scanned again.
func Substitute(line string, vars *Store) (string, *Error) {
	if strings.IndexByte(line, '&') < 0 {
		return line, nil
	}

	var sb strings.Builder
	sb.Grow(len(line) + 16)

	literalStart := 0
	i := 0
	for i < len(line) {
		if line[i] != '&' || i+1 >= len(line) || isSpace(line[i+1]) {
			i++
			continue
		}

		nameEnd := i + 1
		for nameEnd < len(line) {
			r, size := utf8.DecodeRuneInString(line[nameEnd:])
			if !isNameRune(r) {
				break
			}
			nameEnd += size
		}
		name := line[i+1 : nameEnd]

		value, ok := vars.Get(name)
		if !ok {
			return "", NewError(ErrUndefinedVariable, name)
		}

		sb.WriteString(line[literalStart:i])
		sb.WriteString(strconv.FormatInt(value, 10))
		i = nameEnd
		literalStart = nameEnd
	}
	sb.WriteString(line[literalStart:])

	return sb.String(), nil
}
