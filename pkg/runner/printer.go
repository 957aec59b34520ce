package runner

import (
	"fmt"
	"io"
	"time"

	"github.com/antibyte/zen/pkg/zen"

	"github.com/charmbracelet/lipgloss"
)

// printer renders diagnostics and the timing line. Colours are only used
// when out is a terminal that supports them.
type printer struct {
	out      io.Writer
	color    bool
	errStyle lipgloss.Style
	dimStyle lipgloss.Style
}

func newPrinter(out io.Writer, color bool) *printer {
	r := lipgloss.NewRenderer(out)
	return &printer{
		out:      out,
		color:    color,
		errStyle: r.NewStyle().Foreground(lipgloss.Color("196")),
		dimStyle: r.NewStyle().Faint(true),
	}
}

func (p *printer) render(style lipgloss.Style, s string) string {
	if !p.color {
		return s
	}
	return style.Render(s)
}

func (p *printer) diagnostic(err *zen.Error) {
	fmt.Fprintln(p.out, p.render(p.errStyle, err.Error()))
}

func (p *printer) timing(elapsed time.Duration) {
	fmt.Fprintln(p.out, p.render(p.dimStyle, fmt.Sprintf("Execution time: %v", elapsed)))
}
