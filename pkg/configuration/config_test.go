package configuration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultsWithoutFile(t *testing.T) {
	reset()
	defer reset()

	path := filepath.Join(t.TempDir(), "missing.cfg")
	if err := Initialize(path); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if got := GetInt("Interpreter", "expression_cache_size", 0); got != 256 {
		t.Errorf("expected default cache size 256, got %d", got)
	}
	if got := GetBool("Output", "color", false); !got {
		t.Error("expected color to default to true")
	}
	if got := GetDuration("Server", "pong_timeout", 0); got != 60*time.Second {
		t.Errorf("expected pong timeout 60s, got %v", got)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Initialize must not create the config file")
	}
}

func TestFileOverridesDefaults(t *testing.T) {
	reset()
	defer reset()

	path := filepath.Join(t.TempDir(), "zen.cfg")
	content := `; comment
[Output]
color = false
show_timing = true

# another comment
[History]
enabled=true
database = runs.db
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if err := Initialize(path); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	tests := []struct {
		name    string
		section string
		key     string
		want    string
	}{
		{"overridden bool", "Output", "color", "false"},
		{"added timing", "Output", "show_timing", "true"},
		{"no spaces around equals", "History", "enabled", "true"},
		{"string value", "History", "database", "runs.db"},
		{"untouched default", "Debug", "log_file", "zen.log"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetString(tt.section, tt.key, ""); got != tt.want {
				t.Errorf("GetString(%s, %s) = %q, want %q", tt.section, tt.key, got, tt.want)
			}
		})
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	reset()
	defer reset()

	path := filepath.Join(t.TempDir(), "zen.cfg")
	content := "[Interpreter]\nexpression_cache_size = lots\nexpression_cache_max_age = soon\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if err := Initialize(path); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if got := GetInt("Interpreter", "expression_cache_size", 7); got != 7 {
		t.Errorf("expected fallback 7, got %d", got)
	}
	if got := GetDuration("Interpreter", "expression_cache_max_age", time.Second); got != time.Second {
		t.Errorf("expected fallback 1s, got %v", got)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	reset()
	defer reset()

	path := filepath.Join(t.TempDir(), "nested", "zen.cfg")
	if err := Initialize(path); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	SetString("JWT", "secret_key", "s3cret")
	if err := Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reset()
	if err := Initialize(path); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if got := GetString("JWT", "secret_key", ""); got != "s3cret" {
		t.Errorf("expected saved secret, got %q", got)
	}
	if got := GetSection("History"); got["database"] != "zen_history.db" {
		t.Errorf("expected history section to survive save, got %v", got)
	}
}

func TestUninitializedReturnsDefaults(t *testing.T) {
	reset()
	if got := GetString("Output", "color", "x"); got != "x" {
		t.Errorf("expected default when uninitialized, got %q", got)
	}
	if err := Save(); err == nil {
		t.Error("expected Save to fail when uninitialized")
	}
}

func TestMalformedLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing equals", "[Output]\ncolor\n"},
		{"key before section", "color = true\n[Output]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "zen.cfg")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected a parse error")
			}
		})
	}
}

func TestWriteToOrdersSections(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "none.cfg"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cfg.sections["Custom"] = section{"b": "2", "a": "1"}

	var sb strings.Builder
	if err := cfg.writeTo(&sb); err != nil {
		t.Fatalf("writeTo failed: %v", err)
	}
	out := sb.String()

	interp := strings.Index(out, "[Interpreter]")
	jwt := strings.Index(out, "[JWT]")
	custom := strings.Index(out, "[Custom]\na = 1\nb = 2\n")
	if interp < 0 || jwt < 0 || custom < 0 {
		t.Fatalf("missing sections in output:\n%s", out)
	}
	if !(interp < jwt && jwt < custom) {
		t.Errorf("unexpected section order:\n%s", out)
	}
}
