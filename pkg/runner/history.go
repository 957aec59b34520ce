package runner

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/antibyte/zen/pkg/history"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// HistorySource lists recorded runs.
type HistorySource interface {
	Recent(ctx context.Context, limit int) ([]history.Run, error)
}

// PrintHistory writes the last limit runs as a table.
func PrintHistory(ctx context.Context, src HistorySource, limit int, w io.Writer) error {
	runs, err := src.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs recorded")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("RUN", "STARTED", "SCRIPT", "ORIGIN", "STEPS", "DIAG", "DURATION", "DIGEST")
	for _, run := range runs {
		script := run.Script
		if run.Cancelled {
			script += " (stopped)"
		}
		t.Row(
			run.ID.String()[:8],
			run.StartedAt.Format(time.DateTime),
			script,
			run.Origin,
			strconv.FormatInt(run.Steps, 10),
			strconv.FormatInt(run.Diagnostics, 10),
			run.Duration.String(),
			run.Digest[:min(12, len(run.Digest))],
		)
	}

	_, err = fmt.Fprintln(w, t.Render())
	return err
}
