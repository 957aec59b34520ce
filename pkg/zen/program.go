package zen

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// maxLineLength bounds a single script line read by LoadProgram.
const maxLineLength = 1024 * 1024

// Line is one executable line and its position in the source file.
type Line struct {
	Number int // 1-based line number in the source text
	Text   string
}

// Program is the ordered list of non-blank lines. Indexes into it are
// what labels and the program counter refer to.
type Program []Line

// NewProgram builds a program from lines, dropping blank ones. Line
// numbers count the dropped lines too.
func NewProgram(lines ...string) Program {
	program := make(Program, 0, len(lines))
	for i, text := range lines {
		if strings.TrimSpace(text) == "" {
			continue
		}
		program = append(program, Line{Number: i + 1, Text: text})
	}
	return program
}

// LoadProgram reads a script, one statement per line.
func LoadProgram(r io.Reader) (Program, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	return NewProgram(lines...), nil
}

// ParseArgs converts command line arguments into the argument vector.
// Anything that is not a base-10 integer becomes 0.
func ParseArgs(raw []string) []int64 {
	args := make([]int64, len(raw))
	for i, s := range raw {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			args[i] = n
		}
	}
	return args
}
