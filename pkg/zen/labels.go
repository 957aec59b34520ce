package zen

import "strings"

// LabelTable maps a label name to the program index of its declaration.
type LabelTable map[string]int

// BuildLabels scans every line once and records each line whose first
// token ends with ':'. When a name is declared twice the first
// declaration wins and every later one is returned as a diagnostic.
func BuildLabels(program Program) (LabelTable, []*Error) {
	labels := make(LabelTable)
	var duplicates []*Error

	for index, line := range program {
		tokens := Tokenize(line.Text)
		if len(tokens) == 0 || !strings.HasSuffix(tokens[0], ":") {
			continue
		}

		name := strings.TrimRight(tokens[0], ":")
		if first, exists := labels[name]; exists {
			duplicates = append(duplicates, NewError(ErrDuplicateLabel, name).
				WithDetail("first declared on line %d", program[first].Number).
				AtLine(line.Number))
			continue
		}
		labels[name] = index
	}

	return labels, duplicates
}

// Lookup returns the index of the line declaring name.
func (t LabelTable) Lookup(name string) (int, bool) {
	index, ok := t[name]
	return index, ok
}
