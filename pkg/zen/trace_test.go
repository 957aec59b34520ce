package zen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/antibyte/zen/pkg/configuration"
	"github.com/antibyte/zen/pkg/logger"
)

func TestTraceWritesTokenDump(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "zen.log")
	cfg := "[Debug]\nenable_debug_logging = true\nlog_level = DEBUG\nlog_interpreter = true\nlog_file = " + logPath + "\n"
	cfgPath := filepath.Join(dir, "zen.cfg")
	if err := os.WriteFile(cfgPath, []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}
	if err := configuration.Initialize(cfgPath); err != nil {
		t.Fatalf("configuration.Initialize failed: %v", err)
	}
	if err := logger.Initialize(); err != nil {
		t.Fatalf("logger.Initialize failed: %v", err)
	}

	r := run(t, []string{"start:", `print "traced"`}, WithTrace(true))
	logger.Close()
	expectOutput(t, r.out, "traced")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading trace log: %v", err)
	}
	log := string(data)
	for _, want := range []string{"labels found", `"start"`, "executing line 2", "([]string)", `"\"traced\""`} {
		if !strings.Contains(log, want) {
			t.Errorf("trace log missing %q:\n%s", want, log)
		}
	}
}
