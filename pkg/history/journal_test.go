package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRecordAndRecent(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, name := range []string{"first.zen", "second.zen", "third.zen"} {
		run := &Run{
			Script:    name,
			Digest:    Digest([]byte(name)),
			Args:      []string{"7", "x"},
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			Duration:  1500 * time.Microsecond,
			Steps:     int64(10 * (i + 1)),
			Printed:   2,
		}
		if err := j.Record(ctx, run); err != nil {
			t.Fatalf("Record(%s) failed: %v", name, err)
		}
		if run.ID == uuid.Nil {
			t.Errorf("Record(%s) did not assign an ID", name)
		}
	}

	runs, err := j.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Recent returned %d runs, want 2", len(runs))
	}

	newest := runs[0]
	if newest.Script != "third.zen" || runs[1].Script != "second.zen" {
		t.Errorf("Recent order = %s, %s; want third.zen, second.zen", newest.Script, runs[1].Script)
	}
	if newest.Steps != 30 || newest.Printed != 2 || newest.Origin != OriginCLI {
		t.Errorf("Unexpected row: %+v", newest)
	}
	if newest.Duration != 1500*time.Microsecond {
		t.Errorf("Duration = %v, want 1.5ms", newest.Duration)
	}
	if !newest.StartedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("StartedAt = %v", newest.StartedAt)
	}
	if len(newest.Args) != 2 || newest.Args[0] != "7" || newest.Args[1] != "x" {
		t.Errorf("Args = %q", newest.Args)
	}
}

func TestRecentEmpty(t *testing.T) {
	j := openTestJournal(t)

	runs, err := j.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("Recent returned %d runs from an empty journal", len(runs))
	}

	if runs, _ := j.Recent(context.Background(), 0); runs != nil {
		t.Errorf("Recent(0) = %v, want nil", runs)
	}
}

func TestCancelledFlag(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	if err := j.Record(ctx, &Run{Script: "loop.zen", Digest: Digest(nil), Origin: OriginWebSocket, StartedAt: time.Now(), Cancelled: true}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	runs, err := j.Recent(ctx, 1)
	if err != nil || len(runs) != 1 {
		t.Fatalf("Recent = %v, %v", runs, err)
	}
	if !runs[0].Cancelled || runs[0].Origin != OriginWebSocket || runs[0].Args != nil {
		t.Errorf("Unexpected row: %+v", runs[0])
	}
}

func TestDigest(t *testing.T) {
	a := Digest([]byte(`print "a"`))
	b := Digest([]byte(`print "b"`))

	if len(a) != 64 {
		t.Errorf("Digest length = %d, want 64 hex chars", len(a))
	}
	if a == b {
		t.Error("Different scripts produced the same digest")
	}
	if a != Digest([]byte(`print "a"`)) {
		t.Error("Digest is not deterministic")
	}
}
