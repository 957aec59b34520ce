package zen

import "strings"

// Tokenize splits a line into tokens. A token is either a double quoted
// string, quotes included, or a run of non-whitespace characters. Quotes
// cannot be escaped. A quote without a closing partner starts an ordinary
// token.
func Tokenize(line string) []string {
	tokens := make([]string, 0, 8)
	i := 0
	for i < len(line) {
		if isSpace(line[i]) {
			i++
			continue
		}

		if line[i] == '"' {
			if end := strings.IndexByte(line[i+1:], '"'); end >= 0 {
				tokens = append(tokens, line[i:i+end+2])
				i += end + 2
				continue
			}
		}

		start := i
		for i < len(line) && !isSpace(line[i]) {
			i++
		}
		tokens = append(tokens, line[start:i])
	}
	return tokens
}

// groupExpressions merges a token that opens a parenthesised expression
// with the tokens that follow it until the parentheses balance, so that
// `if (&n > 0) goto a` sees `(5 > 0)` as one argument. An unbalanced
// group absorbs the rest of the line.
func groupExpressions(tokens []string) []string {
	grouped := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if !strings.HasPrefix(tok, "(") {
			grouped = append(grouped, tok)
			continue
		}

		depth := parenDepth(tok)
		j := i
		for depth > 0 && j+1 < len(tokens) {
			j++
			depth += parenDepth(tokens[j])
		}
		grouped = append(grouped, strings.Join(tokens[i:j+1], " "))
		i = j
	}
	return grouped
}

func parenDepth(tok string) int {
	return strings.Count(tok, "(") - strings.Count(tok, ")")
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f' || ch == '\v'
}
