package zen

import (
	"errors"
	"testing"
)

func TestSubstitute(t *testing.T) {
	vars := NewStore()
	vars.Set("x", 5)
	vars.Set("a", 1)
	vars.Set("b", 2)
	vars.Set("long_name", 10)
	vars.Set("neg", -3)

	tests := []struct {
		name string
		line string
		want string
	}{
		{"no references", `print "hello"`, `print "hello"`},
		{"single reference", "print (&x)", "print (5)"},
		{"adjacent references", "print (&a&b)", "print (12)"},
		{"repeated reference", "print (&long_name+&long_name)", "print (10+10)"},
		{"negative value", "print (&neg * 2)", "print (-3 * 2)"},
		{"ampersand before space is kept", "& x = &a", "& x = 1"},
		{"trailing ampersand is kept", "print (&x) &", "print (5) &"},
		{"inside quotes", `print "x is &x"`, `print "x is 5"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Substitute(tt.line, vars)
			if err != nil {
				t.Fatalf("Substitute(%q) returned error: %v", tt.line, err)
			}
			if got != tt.want {
				t.Errorf("Substitute(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestSubstituteUndefined(t *testing.T) {
	vars := NewStore()
	vars.Set("x", 5)

	tests := []struct {
		name  string
		line  string
		token string
	}{
		{"unknown name", "print (&y)", "y"},
		{"longest name is used", "print (&xy)", "xy"},
		{"second reference", "print (&x + &z)", "z"},
		{"double ampersand", "if (1 < 2 && 2 < 3) goto a", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Substitute(tt.line, vars)
			if err == nil {
				t.Fatalf("Substitute(%q) succeeded, want error", tt.line)
			}
			if !errors.Is(err, ErrUndefinedVariable) {
				t.Errorf("error = %v, want ErrUndefinedVariable", err)
			}
			if err.Token != tt.token {
				t.Errorf("error token = %q, want %q", err.Token, tt.token)
			}
		})
	}
}

func TestSubstituteDoesNotRescan(t *testing.T) {
	vars := NewStore()
	vars.Set("a", 1)
	vars.Set("a1", 99)

	// "&a" followed by a literal "1" must not turn into a reference to a1.
	got, err := Substitute("print (&a + 1)", vars)
	if err != nil {
		t.Fatalf("Substitute returned error: %v", err)
	}
	if got != "print (1 + 1)" {
		t.Errorf("Substitute = %q, want %q", got, "print (1 + 1)")
	}
}
