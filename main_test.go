package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunScript(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "hello.zen")
	body := "& a = !1\n& b = !2\nprint (&a + &b)\nprint \"done\"\n"
	if err := os.WriteFile(script, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", filepath.Join(dir, "zen.cfg"), script, "40", "2"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr.String())
	}
	if got := stdout.String(); got != "42\ndone\n" {
		t.Errorf("stdout = %q, want %q", got, "42\ndone\n")
	}
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no script", nil, "usage:"},
		{"unknown flag", []string{"-bogus"}, "flag provided but not defined"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(context.Background(), tt.args, &stdout, &stderr); code != 1 {
				t.Errorf("exit code %d, want 1", code)
			}
			if !strings.Contains(stderr.String(), tt.want) {
				t.Errorf("stderr = %q, want it to contain %q", stderr.String(), tt.want)
			}
		})
	}
}

func TestMissingScript(t *testing.T) {
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", filepath.Join(dir, "zen.cfg"), filepath.Join(dir, "nope.zen")}, &stdout, &stderr)
	if code != 1 {
		t.Errorf("exit code %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "reading script") {
		t.Errorf("stderr = %q", stderr.String())
	}
}
