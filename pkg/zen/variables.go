package zen

import (
	"sort"
	"unicode"
)

// Store holds the program's integer variables. It starts empty, grows on
// assignment and is never cleared during a run.
type Store struct {
	vars map[string]int64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{vars: make(map[string]int64)}
}

// Get returns the value of name.
func (s *Store) Get(name string) (int64, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// Set stores v under name, replacing any earlier value.
func (s *Store) Set(name string, v int64) {
	s.vars[name] = v
}

// Len returns the number of defined variables.
func (s *Store) Len() int {
	return len(s.vars)
}

// Names returns the defined variable names in sorted order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a copy of all variables.
func (s *Store) Snapshot() map[string]int64 {
	out := make(map[string]int64, len(s.vars))
	for k, v := range s.vars {
		out[k] = v
	}
	return out
}

func isNameRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// isValidName reports whether name can be referenced with &name.
func isValidName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if !isNameRune(r) {
			return false
		}
	}
	return true
}
